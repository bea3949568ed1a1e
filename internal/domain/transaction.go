package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DefaultCurrency is assumed when the source file encodes no currency.
	DefaultCurrency = "BRL"

	// DefaultCategory marks transactions awaiting categorization.
	DefaultCategory = "PENDENTE"

	EntryTypeCredit = "Entrada"
	EntryTypeDebit  = "Saída"
)

// Transaction is one normalized financial movement extracted from a
// statement file. Uniqueness on (date, document_number, amount, bank) is
// enforced by the database; violating inserts are duplicates, not errors.
type Transaction struct {
	ID             int64           `db:"id"              json:"id"`
	Date           time.Time       `db:"date"            json:"date"`
	Entry          string          `db:"entry"           json:"entry"`
	Details        string          `db:"details"         json:"details"`
	DocumentNumber string          `db:"document_number" json:"document_number"`
	Amount         decimal.Decimal `db:"amount"          json:"amount"`
	Currency       string          `db:"currency"        json:"currency"`
	EntryType      string          `db:"entry_type"      json:"entry_type"`
	Category       string          `db:"category"        json:"category"`
	Bank           string          `db:"bank"            json:"bank"`
	UploadID       int64           `db:"upload_id"       json:"upload_id"`
}
