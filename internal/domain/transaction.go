package domain

import (
	"encoding/json"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// DefaultCategory is assigned when a record carries no category.
const DefaultCategory = "Uncategorized"

// DateLayout is the only accepted date form for records and exports.
const DateLayout = "2006-01-02"

var (
	// MaxAmount and MinAmount bound Transaction.Amount (inclusive).
	MaxAmount = decimal.NewFromInt(1_000_000)
	MinAmount = decimal.NewFromInt(-1_000_000)
)

// Transaction is one validated ledger record.
// Positive amounts are income, negative amounts are expenses.
// Only Category may change after the record enters the store.
type Transaction struct {
	ID        int
	Timestamp civil.Date
	Payee     string
	Amount    decimal.Decimal
	Currency  string
	Category  string
}

// MonthKey returns the YYYY-MM key of the transaction date.
func (t Transaction) MonthKey() string {
	return MonthKey(t.Timestamp)
}

// IsExpense reports whether the transaction amount is negative.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// MonthKey formats a date as YYYY-MM.
func MonthKey(d civil.Date) string {
	return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
}

// FormatAmount renders an amount with its full parsed precision,
// keeping trailing zeros ("-10.50" stays "-10.50").
func FormatAmount(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

// transactionJSON is the wire shape shared by the JSON export and the API.
type transactionJSON struct {
	ID        int         `json:"Id"`
	Timestamp string      `json:"Timestamp"`
	Payee     string      `json:"Payee"`
	Amount    json.Number `json:"Amount"`
	Currency  string      `json:"Currency"`
	Category  string      `json:"Category"`
}

// MarshalJSON encodes the transaction with its date as YYYY-MM-DD and
// the amount as an exact JSON number.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		ID:        t.ID,
		Timestamp: t.Timestamp.String(),
		Payee:     t.Payee,
		Amount:    json.Number(FormatAmount(t.Amount)),
		Currency:  t.Currency,
		Category:  t.Category,
	})
}

// UnmarshalJSON decodes the shape produced by MarshalJSON.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw transactionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	date, err := civil.ParseDate(raw.Timestamp)
	if err != nil {
		return fmt.Errorf("Transaction: timestamp %q: %w", raw.Timestamp, err)
	}

	amount, err := decimal.NewFromString(raw.Amount.String())
	if err != nil {
		return fmt.Errorf("Transaction: amount %q: %w", raw.Amount, err)
	}

	*t = Transaction{
		ID:        raw.ID,
		Timestamp: date,
		Payee:     raw.Payee,
		Amount:    amount,
		Currency:  raw.Currency,
		Category:  raw.Category,
	}
	return nil
}
