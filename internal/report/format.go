package report

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"strings"
	"text/tabwriter"

	"github.com/Rhymond/go-money"
	"github.com/dvloznov/ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// FormatMoney renders an amount in its currency's display form, e.g. "-$10.50".
// Currencies unknown to go-money fall back to "-10.50 XYZ".
func FormatMoney(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(strings.ToUpper(strings.TrimSpace(currency)))
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}

	fraction := int32(cur.Fraction)
	minor := amount.Round(fraction).Shift(fraction).IntPart()
	return cur.Formatter().Format(minor)
}

// TransactionLine renders one transaction for list output.
func TransactionLine(tx domain.Transaction) string {
	return fmt.Sprintf("%d | %s | %s | %s | %s",
		tx.ID, tx.Timestamp, tx.Payee, FormatMoney(tx.Amount, tx.Currency), tx.Category)
}

// WriteTransactions prints one line per transaction.
func WriteTransactions(w io.Writer, txs []domain.Transaction) error {
	if len(txs) == 0 {
		_, err := fmt.Fprintln(w, "No transactions found.")
		return err
	}
	for _, tx := range txs {
		if _, err := fmt.Fprintln(w, TransactionLine(tx)); err != nil {
			return err
		}
	}
	return nil
}

// WriteMonthlyJSON prints monthly stats as indented JSON.
func WriteMonthlyJSON(w io.Writer, stats domain.MonthlyStats) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("WriteMonthlyJSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteYearlyTable prints a Month/Income/Expense/Net table. Amounts mix
// currencies, so they are shown without a symbol.
func WriteYearlyTable(w io.Writer, months iter.Seq[domain.MonthSummary]) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Month\tIncome\tExpense\tNet\t")

	rows := 0
	for m := range months {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			m.Month, m.Income.StringFixed(2), m.Expense.StringFixed(2), m.Net.StringFixed(2))
		rows++
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if rows == 0 {
		_, err := fmt.Fprintln(w, "No transactions found.")
		return err
	}
	return nil
}
