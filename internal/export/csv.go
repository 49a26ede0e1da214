package export

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/dvloznov/ledger/internal/domain"
)

// WriteCSV writes the header and one unquoted, comma-joined line per
// transaction, ordered by id. ctx is checked before each record.
func WriteCSV(ctx context.Context, w io.Writer, txs []domain.Transaction) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(strings.Join(Header, ",") + "\n"); err != nil {
		return err
	}

	for _, tx := range sortedByID(txs) {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.Join([]string{
			strconv.Itoa(tx.ID),
			tx.Timestamp.String(),
			tx.Payee,
			domain.FormatAmount(tx.Amount),
			tx.Currency,
			tx.Category,
		}, ",")
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}
