package analytics

import (
	"sort"
	"strings"

	"github.com/dvloznov/ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// All returns every transaction ordered by date, then id.
func (e *Engine) All() []domain.Transaction {
	return e.filter(func(domain.Transaction) bool { return true })
}

// ByMonth returns the transactions of one YYYY-MM month.
func (e *Engine) ByMonth(monthKey string) []domain.Transaction {
	return e.filter(func(tx domain.Transaction) bool {
		return tx.MonthKey() == monthKey
	})
}

// ByCategory returns transactions whose category contains text, ignoring case.
func (e *Engine) ByCategory(text string) []domain.Transaction {
	needle := strings.ToLower(strings.TrimSpace(text))
	return e.filter(func(tx domain.Transaction) bool {
		return strings.Contains(strings.ToLower(tx.Category), needle)
	})
}

// Over returns transactions with amount >= threshold.
func (e *Engine) Over(threshold decimal.Decimal) []domain.Transaction {
	return e.filter(func(tx domain.Transaction) bool {
		return tx.Amount.GreaterThanOrEqual(threshold)
	})
}

// Search returns transactions whose payee or category contains text, ignoring case.
func (e *Engine) Search(text string) []domain.Transaction {
	needle := strings.ToLower(strings.TrimSpace(text))
	return e.filter(func(tx domain.Transaction) bool {
		return strings.Contains(strings.ToLower(tx.Payee), needle) ||
			strings.Contains(strings.ToLower(tx.Category), needle)
	})
}

// Filter combines list criteria. Empty fields match everything.
type Filter struct {
	Month     string
	Category  string
	Search    string
	MinAmount *decimal.Decimal
}

// Query returns the transactions matching every criterion in f, ordered by
// date, then id.
func (e *Engine) Query(f Filter) []domain.Transaction {
	category := strings.ToLower(strings.TrimSpace(f.Category))
	search := strings.ToLower(strings.TrimSpace(f.Search))

	return e.filter(func(tx domain.Transaction) bool {
		if f.Month != "" && tx.MonthKey() != f.Month {
			return false
		}
		if category != "" && !strings.Contains(strings.ToLower(tx.Category), category) {
			return false
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(tx.Payee), search) &&
			!strings.Contains(strings.ToLower(tx.Category), search) {
			return false
		}
		if f.MinAmount != nil && tx.Amount.LessThan(*f.MinAmount) {
			return false
		}
		return true
	})
}

func (e *Engine) filter(keep func(domain.Transaction) bool) []domain.Transaction {
	var result []domain.Transaction
	for _, tx := range e.src.Snapshot() {
		if keep(tx) {
			result = append(result, tx)
		}
	}
	SortByDate(result)
	return result
}

// SortByDate orders transactions by date, then id.
func SortByDate(txs []domain.Transaction) {
	sort.Slice(txs, func(i, j int) bool {
		if txs[i].Timestamp != txs[j].Timestamp {
			return txs[i].Timestamp.Before(txs[j].Timestamp)
		}
		return txs[i].ID < txs[j].ID
	})
}
