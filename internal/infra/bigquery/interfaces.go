package bigquery

import (
	"context"

	"github.com/dvloznov/ledger/internal/domain"
)

// TransactionStore provides an interface for the BigQuery transaction export.
type TransactionStore interface {
	// ExportTransactions writes a snapshot as one export run and returns its ID.
	ExportTransactions(ctx context.Context, txs []domain.Transaction) (string, error)

	// QueryMonth reads back one month of the most recent export run.
	QueryMonth(ctx context.Context, monthKey string) ([]domain.Transaction, error)

	// Close releases the client.
	Close() error
}
