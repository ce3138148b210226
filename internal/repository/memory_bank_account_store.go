package repository

import (
	"accounting-admin/internal/importer"
	"accounting-admin/internal/models"
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// MemoryBankAccountStore keeps bank accounts in process memory. It backs the
// console when MySQL is unavailable.
type MemoryBankAccountStore struct {
	mu       sync.RWMutex
	accounts []models.BankAccount
	nextID   int
}

func NewMemoryBankAccountStore(seed []models.BankAccount) *MemoryBankAccountStore {
	s := &MemoryBankAccountStore{nextID: 1}
	for _, a := range seed {
		if a.ID >= s.nextID {
			s.nextID = a.ID + 1
		}
		s.accounts = append(s.accounts, a)
	}
	for i := range s.accounts {
		if s.accounts[i].ID == 0 {
			s.accounts[i].ID = s.nextID
			s.nextID++
		}
	}
	return s
}

// SeedBankAccounts returns the demo accounts loaded when no database is configured.
func SeedBankAccounts() []models.BankAccount {
	now := time.Now()
	return []models.BankAccount{
		{ID: 1, AccountNumber: "0071000123456", AccountName: "Cong ty TNHH ABC", BankName: "Vietcombank",
			Branch: "Ho Chi Minh", Currency: "VND", OpeningBalance: decimal.NewFromInt(150000000),
			Notes: "Main operating account", IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: 2, AccountNumber: "19033456789012", AccountName: "Cong ty TNHH ABC", BankName: "Techcombank",
			Branch: "Ha Noi", Currency: "USD", OpeningBalance: decimal.RequireFromString("25000.50"),
			IsActive: true, CreatedAt: now, UpdatedAt: now},
		{ID: 3, AccountNumber: "1180001234", AccountName: "Cong ty TNHH ABC", BankName: "BIDV",
			Branch: "Da Nang", Currency: "VND", OpeningBalance: decimal.Zero,
			Notes: "Payroll", IsActive: false, CreatedAt: now, UpdatedAt: now},
	}
}

func (s *MemoryBankAccountStore) FindAll(_ context.Context, limit, offset int, search string) ([]models.BankAccount, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search = strings.ToLower(search)
	var matched []models.BankAccount
	for _, a := range s.accounts {
		if search == "" || containsFold(search, a.AccountNumber, a.AccountName, a.BankName) {
			matched = append(matched, a)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].AccountNumber < matched[j].AccountNumber })

	return page(matched, limit, offset), len(matched), nil
}

func (s *MemoryBankAccountStore) FindByID(_ context.Context, id int) (*models.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(func(a models.BankAccount) bool { return a.ID == id }); i >= 0 {
		a := s.accounts[i]
		return &a, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryBankAccountStore) FindByCode(_ context.Context, code string) (*models.BankAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(func(a models.BankAccount) bool { return strings.EqualFold(a.AccountNumber, code) }); i >= 0 {
		a := s.accounts[i]
		return &a, nil
	}
	return nil, ErrNotFound
}

func (s *MemoryBankAccountStore) Create(_ context.Context, account *models.BankAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(func(a models.BankAccount) bool { return strings.EqualFold(a.AccountNumber, account.AccountNumber) }) >= 0 {
		return ErrDuplicateCode
	}
	s.insert(account)
	return nil
}

func (s *MemoryBankAccountStore) insert(account *models.BankAccount) {
	now := time.Now()
	account.ID = s.nextID
	account.CreatedAt = now
	account.UpdatedAt = now
	s.nextID++
	s.accounts = append(s.accounts, *account)
}

func (s *MemoryBankAccountStore) Update(_ context.Context, account *models.BankAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(func(a models.BankAccount) bool { return a.ID == account.ID })
	if i < 0 {
		return ErrNotFound
	}
	if j := s.indexOf(func(a models.BankAccount) bool { return strings.EqualFold(a.AccountNumber, account.AccountNumber) }); j >= 0 && j != i {
		return ErrDuplicateCode
	}
	account.CreatedAt = s.accounts[i].CreatedAt
	account.UpdatedAt = time.Now()
	s.accounts[i] = *account
	return nil
}

func (s *MemoryBankAccountStore) Delete(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(func(a models.BankAccount) bool { return a.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
	return nil
}

func (s *MemoryBankAccountStore) All(ctx context.Context) ([]models.BankAccount, error) {
	accounts, _, err := s.FindAll(ctx, 0, 0, "")
	return accounts, err
}

func (s *MemoryBankAccountStore) ImportKeys(_ context.Context) ([]importer.ExistingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]importer.ExistingRecord, 0, len(s.accounts))
	for _, a := range s.accounts {
		keys = append(keys, importer.ExistingRecord{ID: strconv.Itoa(a.ID), Code: a.AccountNumber})
	}
	return keys, nil
}

// Apply mirrors the MySQL repository: either every record is applied or none is.
func (s *MemoryBankAccountStore) Apply(_ context.Context, records []importer.Record, method importer.ImportMethod) (importer.CommitSummary, error) {
	summary := importer.CommitSummary{Method: method}

	incoming := make([]models.BankAccount, 0, len(records))
	for _, rec := range records {
		account, err := models.BankAccountFromRecord(rec)
		if err != nil {
			return summary, err
		}
		incoming = append(incoming, account)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byCode := make(map[string]int, len(s.accounts))
	for i, a := range s.accounts {
		byCode[importer.NormalizeKey(a.AccountNumber)] = i
	}

	switch method {
	case importer.MethodInsert:
		for _, a := range incoming {
			if _, ok := byCode[importer.NormalizeKey(a.AccountNumber)]; ok {
				return summary, ErrDuplicateCode
			}
		}
		for i := range incoming {
			s.insert(&incoming[i])
			summary.Inserted++
		}

	case importer.MethodUpdate:
		for _, a := range incoming {
			if _, ok := byCode[importer.NormalizeKey(a.AccountNumber)]; !ok {
				return summary, ErrNotFound
			}
		}
		for _, a := range incoming {
			s.overlay(byCode[importer.NormalizeKey(a.AccountNumber)], a)
			summary.Updated++
		}

	case importer.MethodOverwrite:
		keep := make(map[string]bool, len(incoming))
		for _, a := range incoming {
			keep[importer.NormalizeKey(a.AccountNumber)] = true
		}
		var kept []models.BankAccount
		for _, a := range s.accounts {
			if keep[importer.NormalizeKey(a.AccountNumber)] {
				kept = append(kept, a)
			} else {
				summary.Deleted++
			}
		}
		s.accounts = kept

		byCode = make(map[string]int, len(s.accounts))
		for i, a := range s.accounts {
			byCode[importer.NormalizeKey(a.AccountNumber)] = i
		}
		for i := range incoming {
			if idx, ok := byCode[importer.NormalizeKey(incoming[i].AccountNumber)]; ok {
				s.overlay(idx, incoming[i])
				summary.Updated++
			} else {
				s.insert(&incoming[i])
				summary.Inserted++
			}
		}

	default:
		return summary, importer.ErrInvalidMethod
	}

	return summary, nil
}

// overlay copies the imported columns onto a stored account, keeping its identity and status.
func (s *MemoryBankAccountStore) overlay(i int, a models.BankAccount) {
	stored := &s.accounts[i]
	stored.AccountName = a.AccountName
	stored.BankName = a.BankName
	stored.Branch = a.Branch
	stored.Currency = a.Currency
	stored.OpeningBalance = a.OpeningBalance
	stored.Notes = a.Notes
	stored.UpdatedAt = time.Now()
}

func (s *MemoryBankAccountStore) indexOf(match func(models.BankAccount) bool) int {
	for i, a := range s.accounts {
		if match(a) {
			return i
		}
	}
	return -1
}

func containsFold(needle string, values ...string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

// page applies LIMIT/OFFSET semantics; limit <= 0 returns everything after offset.
func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
