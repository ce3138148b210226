package repository

import (
	"accounting-admin/internal/importer"
	"accounting-admin/internal/models"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBankAccountStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryBankAccountStore(SeedBankAccounts())

	t.Run("search and paginate", func(t *testing.T) {
		accounts, total, err := store.FindAll(ctx, 1, 0, "tech")
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, "Techcombank", accounts[0].BankName)

		accounts, total, err = store.FindAll(ctx, 2, 2, "")
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, accounts, 1)

		accounts, _, err = store.FindAll(ctx, 10, 50, "")
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})

	t.Run("create assigns ids and rejects duplicates", func(t *testing.T) {
		account := newAccount("555")
		require.NoError(t, store.Create(ctx, account))
		assert.Equal(t, 4, account.ID)

		assert.ErrorIs(t, store.Create(ctx, newAccount("555")), ErrDuplicateCode)
	})

	t.Run("update keeps numbers unique", func(t *testing.T) {
		account, err := store.FindByCode(ctx, "555")
		require.NoError(t, err)

		account.AccountNumber = "0071000123456"
		assert.ErrorIs(t, store.Update(ctx, account), ErrDuplicateCode)

		account.AccountNumber = "556"
		require.NoError(t, store.Update(ctx, account))
		_, err = store.FindByCode(ctx, "556")
		assert.NoError(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, 4))
		assert.ErrorIs(t, store.Delete(ctx, 4), ErrNotFound)
		_, err := store.FindByID(ctx, 4)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryBankAccountStore_Apply(t *testing.T) {
	ctx := context.Background()
	records := []importer.Record{
		{"code": "0071000123456", "account_name": "Renamed", "bank_name": "Vietcombank"},
		{"code": "777", "account_name": "New", "bank_name": "ACB", "opening_balance": "12.5"},
	}

	t.Run("insert is all or nothing", func(t *testing.T) {
		store := NewMemoryBankAccountStore(SeedBankAccounts())

		_, err := store.Apply(ctx, records, importer.MethodInsert)
		assert.ErrorIs(t, err, ErrDuplicateCode)

		all, _ := store.All(ctx)
		assert.Len(t, all, 3)
	})

	t.Run("update keeps status", func(t *testing.T) {
		store := NewMemoryBankAccountStore(SeedBankAccounts())

		summary, err := store.Apply(ctx, records[:1], importer.MethodUpdate)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Updated)

		account, _ := store.FindByCode(ctx, "0071000123456")
		assert.Equal(t, "Renamed", account.AccountName)
		assert.Equal(t, 1, account.ID)
		assert.True(t, account.IsActive)
	})

	t.Run("overwrite replaces the dataset", func(t *testing.T) {
		store := NewMemoryBankAccountStore(SeedBankAccounts())

		summary, err := store.Apply(ctx, records, importer.MethodOverwrite)
		require.NoError(t, err)
		assert.Equal(t, importer.CommitSummary{Method: importer.MethodOverwrite, Inserted: 1, Updated: 1, Deleted: 2}, summary)

		all, _ := store.All(ctx)
		require.Len(t, all, 2)
		assert.Equal(t, "0071000123456", all[0].AccountNumber)
		assert.Equal(t, "777", all[1].AccountNumber)
		assert.Equal(t, "12.5", all[1].OpeningBalance.String())
		assert.Equal(t, models.DefaultCurrency, all[1].Currency)
	})
}

func TestMemoryCostObjectStore(t *testing.T) {
	ctx := context.Background()

	t.Run("import keys expose ids and codes", func(t *testing.T) {
		store := NewMemoryCostObjectStore(SeedCostObjects())
		keys, err := store.ImportKeys(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, importer.ExistingRecord{ID: "3", Code: "CC003", Parent: "1"})
	})

	t.Run("children", func(t *testing.T) {
		store := NewMemoryCostObjectStore(SeedCostObjects())
		has, _ := store.HasChildren(ctx, 1)
		assert.True(t, has)
		has, _ = store.HasChildren(ctx, 3)
		assert.False(t, has)
	})

	t.Run("insert resolves parent codes", func(t *testing.T) {
		store := NewMemoryCostObjectStore(SeedCostObjects())
		_, err := store.Apply(ctx, []importer.Record{{"code": "CC100", "name_vi": "x", "parent_id": "CC002"}}, importer.MethodInsert)
		require.NoError(t, err)

		obj, err := store.FindByCode(ctx, "CC100")
		require.NoError(t, err)
		assert.Equal(t, 2, obj.ParentID)
		assert.Equal(t, 6, obj.ID)
	})

	t.Run("overwrite detaches children of removed parents", func(t *testing.T) {
		store := NewMemoryCostObjectStore(SeedCostObjects())
		records := []importer.Record{
			{"code": "CC002", "name_vi": "Bán hàng", "parent_id": "0"},
			{"code": "CC003", "name_vi": "Kế toán", "parent_id": "1"},
		}

		summary, err := store.Apply(ctx, records, importer.MethodOverwrite)
		require.NoError(t, err)
		assert.Equal(t, 3, summary.Deleted)

		obj, err := store.FindByCode(ctx, "CC003")
		require.NoError(t, err)
		assert.Equal(t, 0, obj.ParentID)
	})

	t.Run("codes match case-insensitively", func(t *testing.T) {
		store := NewMemoryCostObjectStore(SeedCostObjects())

		_, err := store.Apply(ctx, []importer.Record{{"code": "cc001", "name_vi": "x", "parent_id": "0"}}, importer.MethodInsert)
		assert.ErrorIs(t, err, ErrDuplicateCode)

		summary, err := store.Apply(ctx, []importer.Record{{"code": "cc002", "name_vi": "Bán hàng", "parent_id": "0"}}, importer.MethodUpdate)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.Updated)

		obj, err := store.FindByCode(ctx, "cc002")
		require.NoError(t, err)
		assert.Equal(t, "CC002", obj.Code)
		assert.Equal(t, "Bán hàng", obj.NameVi)
	})

	t.Run("parent cycles are rejected and nothing changes", func(t *testing.T) {
		store := NewMemoryCostObjectStore(SeedCostObjects())
		records := []importer.Record{
			{"code": "CC001", "name_vi": "x", "parent_id": "1"},
			{"code": "CC002", "name_vi": "y", "parent_id": "5"},
		}

		_, err := store.Apply(ctx, records, importer.MethodUpdate)
		assert.ErrorIs(t, err, importer.ErrParentCycle)

		obj, err := store.FindByCode(ctx, "CC002")
		require.NoError(t, err)
		assert.Equal(t, 0, obj.ParentID)
	})
}
