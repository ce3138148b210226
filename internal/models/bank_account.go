package models

import (
	"accounting-admin/internal/importer"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DatasetBankAccounts = "bank_accounts"

const DefaultCurrency = "VND"

type BankAccount struct {
	ID             int             `db:"id" json:"id"`
	AccountNumber  string          `db:"account_number" json:"account_number"`
	AccountName    string          `db:"account_name" json:"account_name"`
	BankName       string          `db:"bank_name" json:"bank_name"`
	Branch         string          `db:"branch" json:"branch"`
	Currency       string          `db:"currency" json:"currency"`
	OpeningBalance decimal.Decimal `db:"opening_balance" json:"opening_balance"`
	Notes          string          `db:"notes" json:"notes"`
	IsActive       bool            `db:"is_active" json:"is_active"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

type BankAccountRequest struct {
	AccountNumber  string          `json:"account_number" validate:"required,max=50"`
	AccountName    string          `json:"account_name" validate:"required,max=200"`
	BankName       string          `json:"bank_name" validate:"required,max=200"`
	Branch         string          `json:"branch" validate:"max=200"`
	Currency       string          `json:"currency" validate:"omitempty,len=3,alpha"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Notes          string          `json:"notes" validate:"max=500"`
	IsActive       *bool           `json:"is_active"`
}

// Apply copies the request onto an account. IsActive is left untouched when omitted.
func (r BankAccountRequest) Apply(a *BankAccount) {
	a.AccountNumber = strings.TrimSpace(r.AccountNumber)
	a.AccountName = strings.TrimSpace(r.AccountName)
	a.BankName = strings.TrimSpace(r.BankName)
	a.Branch = strings.TrimSpace(r.Branch)
	a.Currency = normalizeCurrency(r.Currency)
	a.OpeningBalance = r.OpeningBalance
	a.Notes = strings.TrimSpace(r.Notes)
	if r.IsActive != nil {
		a.IsActive = *r.IsActive
	}
}

// BankAccountSchema is the import destination schema for bank accounts.
var BankAccountSchema = importer.Schema{
	Dataset:  DatasetBankAccounts,
	KeyField: "code",
	Fields: []importer.FieldSpec{
		{Name: "code", Label: "Account number", Required: true, MaxLength: 50,
			Description: "Bank account number, unique per account", Example: "0071000123456"},
		{Name: "account_name", Label: "Account name", Required: true, MaxLength: 200,
			Description: "Name of the account holder", Example: "Cong ty TNHH ABC"},
		{Name: "bank_name", Label: "Bank name", Required: true, MaxLength: 200,
			Description: "Bank holding the account", Example: "Vietcombank"},
		{Name: "branch", Label: "Branch", MaxLength: 200,
			Description: "Bank branch", Example: "Ho Chi Minh"},
		{Name: "currency", Label: "Currency", MaxLength: 3,
			Description: "ISO currency code, defaults to VND", Example: "VND"},
		{Name: "opening_balance", Label: "Opening balance", Kind: importer.KindDecimal,
			Description: "Balance when the account was opened", Example: "0"},
		{Name: "notes", Label: "Notes", MaxLength: 500,
			Description: "Free text notes"},
	},
}

// BankAccountTemplateSamples are the example rows of the import template.
var BankAccountTemplateSamples = []importer.Record{
	{"code": "0071000123456", "account_name": "Cong ty TNHH ABC", "bank_name": "Vietcombank",
		"branch": "Ho Chi Minh", "currency": "VND", "opening_balance": "150000000", "notes": "Main operating account"},
	{"code": "19033456789012", "account_name": "Cong ty TNHH ABC", "bank_name": "Techcombank",
		"branch": "Ha Noi", "currency": "USD", "opening_balance": "25000.50", "notes": ""},
}

// BankAccountFromRecord converts a validated import record. New accounts are active.
func BankAccountFromRecord(rec importer.Record) (BankAccount, error) {
	balance := decimal.Zero
	if v := strings.ReplaceAll(rec["opening_balance"], ",", ""); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return BankAccount{}, fmt.Errorf("invalid opening balance %q: %w", rec["opening_balance"], err)
		}
		balance = d
	}

	return BankAccount{
		AccountNumber:  rec["code"],
		AccountName:    rec["account_name"],
		BankName:       rec["bank_name"],
		Branch:         rec["branch"],
		Currency:       normalizeCurrency(rec["currency"]),
		OpeningBalance: balance,
		Notes:          rec["notes"],
		IsActive:       true,
	}, nil
}

// ToRecord renders the account with the import field names, as used by exports.
func (a BankAccount) ToRecord() importer.Record {
	return importer.Record{
		"code":            a.AccountNumber,
		"account_name":    a.AccountName,
		"bank_name":       a.BankName,
		"branch":          a.Branch,
		"currency":        a.Currency,
		"opening_balance": a.OpeningBalance.String(),
		"notes":           a.Notes,
	}
}

func normalizeCurrency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return DefaultCurrency
	}
	return c
}
