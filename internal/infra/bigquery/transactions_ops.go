package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/ledger/internal/domain"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// insertBatchSize bounds the rows sent in one streaming insert.
const insertBatchSize = 500

// TransactionRepository is the concrete implementation of TransactionStore
// backed by a single BigQuery table. It holds a shared client.
type TransactionRepository struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	tableID   string
}

// NewTransactionRepository creates a repository with its own BigQuery client.
// credentialsFile may be empty to use Application Default Credentials.
func NewTransactionRepository(ctx context.Context, projectID, datasetID, tableID, credentialsFile string) (*TransactionRepository, error) {
	if projectID == "" {
		return nil, fmt.Errorf("NewTransactionRepository: project ID is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := bigquery.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewTransactionRepository: creating client: %w", err)
	}

	return &TransactionRepository{
		client:    client,
		projectID: projectID,
		datasetID: datasetID,
		tableID:   tableID,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *TransactionRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ExportTransactions inserts a snapshot under a new export run ID and returns it.
func (r *TransactionRepository) ExportTransactions(ctx context.Context, txs []domain.Transaction) (string, error) {
	runID := uuid.New().String()
	now := time.Now().UTC()

	rows := make([]*TransactionRow, 0, len(txs))
	for _, tx := range txs {
		rows = append(rows, ToRow(tx, runID, now))
	}

	if err := r.InsertTransactions(ctx, rows); err != nil {
		return "", err
	}
	return runID, nil
}

// InsertTransactions inserts rows in batches.
func (r *TransactionRepository) InsertTransactions(ctx context.Context, rows []*TransactionRow) error {
	if len(rows) == 0 {
		return nil
	}

	// Use fully qualified table name to avoid project ID issues
	inserter := r.client.DatasetInProject(r.projectID, r.datasetID).Table(r.tableID).Inserter()

	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if err := inserter.Put(ctx, rows[start:end]); err != nil {
			return fmt.Errorf("InsertTransactions: inserting rows %d-%d: %w", start, end, err)
		}
	}

	return nil
}

// QueryMonth returns the rows of the latest export run for one month.
func (r *TransactionRepository) QueryMonth(ctx context.Context, monthKey string) ([]domain.Transaction, error) {
	table := fmt.Sprintf("`%s.%s.%s`", r.projectID, r.datasetID, r.tableID)
	q := r.client.Query(`
		SELECT
			transaction_id,
			export_run_id,
			transaction_date,
			month_key,
			payee,
			amount,
			currency,
			category,
			exported_ts
		FROM ` + table + `
		WHERE month_key = @month_key
		  AND export_run_id = (
		    SELECT export_run_id FROM ` + table + `
		    ORDER BY exported_ts DESC
		    LIMIT 1
		  )
		ORDER BY transaction_date, transaction_id
	`)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "month_key", Value: monthKey},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryMonth: query read: %w", err)
	}

	var txs []domain.Transaction
	for {
		var row TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryMonth: iter next: %w", err)
		}
		txs = append(txs, row.ToTransaction())
	}

	return txs, nil
}

var _ TransactionStore = (*TransactionRepository)(nil)

var _ TransactionStore = (*TransactionRepository)(nil)
