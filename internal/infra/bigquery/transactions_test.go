package bigquery

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/ledger/internal/domain"
	"github.com/shopspring/decimal"
)

func TestToRow_RoundTrip(t *testing.T) {
	tx := domain.Transaction{
		ID:        42,
		Timestamp: civil.Date{Year: 2025, Month: time.March, Day: 9},
		Payee:     "Store",
		Amount:    decimal.RequireFromString("-10.50"),
		Currency:  "USD",
		Category:  "Food",
	}
	exported := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	row := ToRow(tx, "run-1", exported)

	if row.TransactionID != 42 || row.ExportRunID != "run-1" || row.MonthKey != "2025-03" {
		t.Errorf("ToRow() = %+v", row)
	}
	if row.Amount.RatString() != "-21/2" {
		t.Errorf("Amount = %s, want -21/2", row.Amount.RatString())
	}
	if !row.ExportedTS.Equal(exported) {
		t.Errorf("ExportedTS = %v", row.ExportedTS)
	}

	back := row.ToTransaction()
	if back.ID != tx.ID || back.Timestamp != tx.Timestamp || back.Category != tx.Category {
		t.Errorf("ToTransaction() = %+v, want %+v", back, tx)
	}
	if !back.Amount.Equal(tx.Amount) {
		t.Errorf("Amount = %s, want %s", back.Amount, tx.Amount)
	}
}

func TestToTransaction_NilAmount(t *testing.T) {
	row := &TransactionRow{TransactionID: 1}
	if got := row.ToTransaction(); !got.Amount.IsZero() {
		t.Errorf("Amount = %s, want 0", got.Amount)
	}
}
