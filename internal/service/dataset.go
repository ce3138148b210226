package service

import (
	"accounting-admin/internal/importer"
	"accounting-admin/internal/models"
	"accounting-admin/internal/repository"
	"context"
	"errors"
	"sort"
)

var ErrUnknownDataset = errors.New("unknown dataset")

// Dataset is one importable master-data table.
type Dataset interface {
	Name() string
	Title() string
	Schema() importer.Schema
	ImportKeys(ctx context.Context) ([]importer.ExistingRecord, error)
	Committer() importer.Committer
	ExportRecords(ctx context.Context) ([]importer.Record, error)
	TemplateSamples() []importer.Record
}

// DatasetRegistry resolves datasets by name.
type DatasetRegistry map[string]Dataset

func NewDatasetRegistry(datasets ...Dataset) DatasetRegistry {
	registry := make(DatasetRegistry, len(datasets))
	for _, ds := range datasets {
		registry[ds.Name()] = ds
	}
	return registry
}

func (r DatasetRegistry) Get(name string) (Dataset, error) {
	ds, ok := r[name]
	if !ok {
		return nil, ErrUnknownDataset
	}
	return ds, nil
}

// Names returns the registered dataset names in sorted order
func (r DatasetRegistry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type bankAccountDataset struct {
	store repository.BankAccountStore
}

func NewBankAccountDataset(store repository.BankAccountStore) Dataset {
	return &bankAccountDataset{store: store}
}

func (d *bankAccountDataset) Name() string { return models.DatasetBankAccounts }

func (d *bankAccountDataset) Title() string { return "Bank Accounts" }

func (d *bankAccountDataset) Schema() importer.Schema { return models.BankAccountSchema }

func (d *bankAccountDataset) ImportKeys(ctx context.Context) ([]importer.ExistingRecord, error) {
	return d.store.ImportKeys(ctx)
}

func (d *bankAccountDataset) Committer() importer.Committer { return d.store }

func (d *bankAccountDataset) ExportRecords(ctx context.Context) ([]importer.Record, error) {
	accounts, err := d.store.All(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]importer.Record, len(accounts))
	for i, a := range accounts {
		records[i] = a.ToRecord()
	}
	return records, nil
}

func (d *bankAccountDataset) TemplateSamples() []importer.Record {
	return models.BankAccountTemplateSamples
}

type costObjectDataset struct {
	store repository.CostObjectStore
}

func NewCostObjectDataset(store repository.CostObjectStore) Dataset {
	return &costObjectDataset{store: store}
}

func (d *costObjectDataset) Name() string { return models.DatasetCostObjects }

func (d *costObjectDataset) Title() string { return "Cost Objects" }

func (d *costObjectDataset) Schema() importer.Schema { return models.CostObjectSchema }

func (d *costObjectDataset) ImportKeys(ctx context.Context) ([]importer.ExistingRecord, error) {
	return d.store.ImportKeys(ctx)
}

func (d *costObjectDataset) Committer() importer.Committer { return d.store }

func (d *costObjectDataset) ExportRecords(ctx context.Context) ([]importer.Record, error) {
	objects, err := d.store.All(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]importer.Record, len(objects))
	for i, o := range objects {
		records[i] = o.ToRecord()
	}
	return records, nil
}

func (d *costObjectDataset) TemplateSamples() []importer.Record {
	return models.CostObjectTemplateSamples
}
