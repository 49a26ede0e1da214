package export

import (
	"context"
	"encoding/json"
	"io"

	"github.com/dvloznov/ledger/internal/domain"
)

// WriteJSON writes txs as an indented JSON array ordered by id.
func WriteJSON(ctx context.Context, w io.Writer, txs []domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sorted := sortedByID(txs)
	if sorted == nil {
		sorted = []domain.Transaction{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sorted)
}
