package repository

import (
	"accounting-admin/internal/importer"
	"accounting-admin/internal/models"
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const bankAccountColumns = `id,
		       account_number,
		       account_name,
		       bank_name,
		       COALESCE(branch, '') as branch,
		       currency,
		       opening_balance,
		       COALESCE(notes, '') as notes,
		       is_active,
		       created_at,
		       updated_at`

const (
	insertBankAccountQuery = `INSERT INTO bank_accounts (account_number, account_name, bank_name, branch, currency, opening_balance, notes, is_active)
	          VALUES (:account_number, :account_name, :bank_name, :branch, :currency, :opening_balance, :notes, :is_active)`

	upsertBankAccountQuery = insertBankAccountQuery + `
	          ON DUPLICATE KEY UPDATE
	          account_name = VALUES(account_name),
	          bank_name = VALUES(bank_name),
	          branch = VALUES(branch),
	          currency = VALUES(currency),
	          opening_balance = VALUES(opening_balance),
	          notes = VALUES(notes)`

	updateBankAccountByNumberQuery = `UPDATE bank_accounts SET account_name = :account_name, bank_name = :bank_name,
	          branch = :branch, currency = :currency, opening_balance = :opening_balance, notes = :notes
	          WHERE account_number = :account_number`
)

type BankAccountRepository struct {
	db *sqlx.DB
}

func NewBankAccountRepository(db *sqlx.DB) *BankAccountRepository {
	return &BankAccountRepository{db: db}
}

func (r *BankAccountRepository) FindAll(ctx context.Context, limit, offset int, search string) ([]models.BankAccount, int, error) {
	var accounts []models.BankAccount
	var total int

	whereClause := ""
	args := []interface{}{}

	if search != "" {
		whereClause = "WHERE account_number LIKE ? OR account_name LIKE ? OR bank_name LIKE ?"
		searchPattern := "%" + search + "%"
		args = append(args, searchPattern, searchPattern, searchPattern)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM bank_accounts %s", whereClause)
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM bank_accounts %s
		ORDER BY account_number
		LIMIT ? OFFSET ?`, bankAccountColumns, whereClause)
	args = append(args, limit, offset)
	if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		return nil, 0, err
	}

	return accounts, total, nil
}

func (r *BankAccountRepository) FindByID(ctx context.Context, id int) (*models.BankAccount, error) {
	var account models.BankAccount
	query := fmt.Sprintf("SELECT %s FROM bank_accounts WHERE id = ? LIMIT 1", bankAccountColumns)
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

func (r *BankAccountRepository) FindByCode(ctx context.Context, code string) (*models.BankAccount, error) {
	var account models.BankAccount
	query := fmt.Sprintf("SELECT %s FROM bank_accounts WHERE account_number = ? LIMIT 1", bankAccountColumns)
	if err := r.db.GetContext(ctx, &account, query, code); err != nil {
		return nil, mapError(err)
	}
	return &account, nil
}

func (r *BankAccountRepository) Create(ctx context.Context, account *models.BankAccount) error {
	result, err := r.db.NamedExecContext(ctx, insertBankAccountQuery, account)
	if err != nil {
		return mapError(err)
	}
	id, _ := result.LastInsertId()
	account.ID = int(id)
	return nil
}

func (r *BankAccountRepository) Update(ctx context.Context, account *models.BankAccount) error {
	query := `UPDATE bank_accounts SET account_number = :account_number, account_name = :account_name,
	          bank_name = :bank_name, branch = :branch, currency = :currency,
	          opening_balance = :opening_balance, notes = :notes, is_active = :is_active
	          WHERE id = :id`
	_, err := r.db.NamedExecContext(ctx, query, account)
	return mapError(err)
}

func (r *BankAccountRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM bank_accounts WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BankAccountRepository) All(ctx context.Context) ([]models.BankAccount, error) {
	var accounts []models.BankAccount
	query := fmt.Sprintf("SELECT %s FROM bank_accounts ORDER BY account_number", bankAccountColumns)
	err := r.db.SelectContext(ctx, &accounts, query)
	return accounts, err
}

func (r *BankAccountRepository) ImportKeys(ctx context.Context) ([]importer.ExistingRecord, error) {
	var keys []importer.ExistingRecord
	err := r.db.SelectContext(ctx, &keys, "SELECT CAST(id AS CHAR) AS id, account_number AS code FROM bank_accounts")
	return keys, err
}

// Apply writes committed import records in one transaction.
func (r *BankAccountRepository) Apply(ctx context.Context, records []importer.Record, method importer.ImportMethod) (importer.CommitSummary, error) {
	summary := importer.CommitSummary{Method: method}

	accounts := make([]models.BankAccount, 0, len(records))
	codes := make([]string, 0, len(records))
	for _, rec := range records {
		account, err := models.BankAccountFromRecord(rec)
		if err != nil {
			return summary, err
		}
		accounts = append(accounts, account)
		codes = append(codes, account.AccountNumber)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return summary, err
	}
	defer tx.Rollback()

	var stored []string
	if err := tx.SelectContext(ctx, &stored, "SELECT account_number FROM bank_accounts"); err != nil {
		return summary, err
	}
	existing := make(map[string]bool, len(stored))
	for _, code := range stored {
		existing[importer.NormalizeKey(code)] = true
	}

	switch method {
	case importer.MethodInsert:
		for i := range accounts {
			if _, err := tx.NamedExecContext(ctx, insertBankAccountQuery, &accounts[i]); err != nil {
				return summary, fmt.Errorf("failed to insert account %s: %w", accounts[i].AccountNumber, mapError(err))
			}
			summary.Inserted++
		}

	case importer.MethodUpdate:
		for i := range accounts {
			if !existing[importer.NormalizeKey(accounts[i].AccountNumber)] {
				return summary, fmt.Errorf("failed to update account %s: %w", accounts[i].AccountNumber, ErrNotFound)
			}
			if _, err := tx.NamedExecContext(ctx, updateBankAccountByNumberQuery, &accounts[i]); err != nil {
				return summary, fmt.Errorf("failed to update account %s: %w", accounts[i].AccountNumber, err)
			}
			summary.Updated++
		}

	case importer.MethodOverwrite:
		query, args, err := sqlx.In("DELETE FROM bank_accounts WHERE account_number NOT IN (?)", codes)
		if err != nil {
			return summary, err
		}
		result, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
		if err != nil {
			return summary, fmt.Errorf("failed to clear bank accounts: %w", err)
		}
		deleted, _ := result.RowsAffected()
		summary.Deleted = int(deleted)

		for i := range accounts {
			if _, err := tx.NamedExecContext(ctx, upsertBankAccountQuery, &accounts[i]); err != nil {
				return summary, fmt.Errorf("failed to write account %s: %w", accounts[i].AccountNumber, err)
			}
			if existing[importer.NormalizeKey(accounts[i].AccountNumber)] {
				summary.Updated++
			} else {
				summary.Inserted++
			}
		}

	default:
		return summary, importer.ErrInvalidMethod
	}

	if err := tx.Commit(); err != nil {
		return importer.CommitSummary{Method: method}, err
	}
	return summary, nil
}
