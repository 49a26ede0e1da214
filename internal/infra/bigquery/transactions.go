package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionRow is one ledger transaction in the BigQuery export table.
type TransactionRow struct {
	TransactionID int64 `bigquery:"transaction_id"` // REQUIRED

	ExportRunID string `bigquery:"export_run_id"` // REQUIRED

	TransactionDate civil.Date `bigquery:"transaction_date"` // REQUIRED
	MonthKey        string     `bigquery:"month_key"`        // REQUIRED, YYYY-MM

	Payee    string   `bigquery:"payee"`    // REQUIRED STRING
	Amount   *big.Rat `bigquery:"amount"`   // REQUIRED NUMERIC
	Currency string   `bigquery:"currency"` // REQUIRED STRING
	Category string   `bigquery:"category"` // REQUIRED STRING

	ExportedTS time.Time `bigquery:"exported_ts"` // REQUIRED
}

// ToRow maps a ledger transaction to its table row.
func ToRow(tx domain.Transaction, runID string, exportedAt time.Time) *TransactionRow {
	return &TransactionRow{
		TransactionID:   int64(tx.ID),
		ExportRunID:     runID,
		TransactionDate: tx.Timestamp,
		MonthKey:        tx.MonthKey(),
		Payee:           tx.Payee,
		Amount:          tx.Amount.Rat(),
		Currency:        tx.Currency,
		Category:        tx.Category,
		ExportedTS:      exportedAt,
	}
}

// ToTransaction maps a table row back to a ledger transaction.
func (r *TransactionRow) ToTransaction() domain.Transaction {
	amount := decimal.Zero
	if r.Amount != nil {
		amount = decimal.NewFromBigRat(r.Amount, numericScale)
	}
	return domain.Transaction{
		ID:        int(r.TransactionID),
		Timestamp: r.TransactionDate,
		Payee:     r.Payee,
		Amount:    amount,
		Currency:  r.Currency,
		Category:  r.Category,
	}
}

// numericScale is the fractional precision of the BigQuery NUMERIC type.
const numericScale = 9
