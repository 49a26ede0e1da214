package export

import (
	"context"
	"fmt"
	"io"

	"github.com/dvloznov/ledger/internal/domain"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding exported transactions.
const SheetName = "Transactions"

// WriteXLSX writes txs to a single-sheet workbook ordered by id.
// Amounts are stored as numeric cells.
func WriteXLSX(ctx context.Context, w io.Writer, txs []domain.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("WriteXLSX: new sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("WriteXLSX: delete default sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("WriteXLSX: header: %w", err)
	}

	for i, tx := range sortedByID(txs) {
		if err := ctx.Err(); err != nil {
			return err
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("WriteXLSX: %w", err)
		}
		row := []interface{}{
			tx.ID,
			tx.Timestamp.String(),
			tx.Payee,
			tx.Amount.InexactFloat64(),
			tx.Currency,
			tx.Category,
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("WriteXLSX: row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("WriteXLSX: write workbook: %w", err)
	}
	return nil
}
