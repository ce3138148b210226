package repository

import (
	"accounting-admin/internal/importer"
	"accounting-admin/internal/models"
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateCode = errors.New("code already exists")
)

// BankAccountStore is implemented by the MySQL repository and the in-memory store
type BankAccountStore interface {
	FindAll(ctx context.Context, limit, offset int, search string) ([]models.BankAccount, int, error)
	FindByID(ctx context.Context, id int) (*models.BankAccount, error)
	FindByCode(ctx context.Context, code string) (*models.BankAccount, error)
	Create(ctx context.Context, account *models.BankAccount) error
	Update(ctx context.Context, account *models.BankAccount) error
	Delete(ctx context.Context, id int) error
	All(ctx context.Context) ([]models.BankAccount, error)
	ImportKeys(ctx context.Context) ([]importer.ExistingRecord, error)
	Apply(ctx context.Context, records []importer.Record, method importer.ImportMethod) (importer.CommitSummary, error)
}

// CostObjectStore is implemented by the MySQL repository and the in-memory store
type CostObjectStore interface {
	FindAll(ctx context.Context, limit, offset int, search string) ([]models.CostObject, int, error)
	FindByID(ctx context.Context, id int) (*models.CostObject, error)
	FindByCode(ctx context.Context, code string) (*models.CostObject, error)
	Create(ctx context.Context, obj *models.CostObject) error
	Update(ctx context.Context, obj *models.CostObject) error
	Delete(ctx context.Context, id int) error
	HasChildren(ctx context.Context, id int) (bool, error)
	All(ctx context.Context) ([]models.CostObject, error)
	ImportKeys(ctx context.Context) ([]importer.ExistingRecord, error)
	Apply(ctx context.Context, records []importer.Record, method importer.ImportMethod) (importer.CommitSummary, error)
}

type UserStore interface {
	FindByUsername(username string) (*models.User, error)
	FindByID(id int) (*models.User, error)
}

// mapError translates driver errors into the package sentinels
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return ErrDuplicateCode
	}
	return err
}
