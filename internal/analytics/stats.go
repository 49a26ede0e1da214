package analytics

import (
	"iter"
	"sort"

	"github.com/dvloznov/ledger/internal/domain"
	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/shopspring/decimal"
)

// TopCategoryLimit is the number of expense categories reported per month.
const TopCategoryLimit = 3

// Engine computes read-only aggregates over store snapshots.
// Every query takes a fresh snapshot; nothing is cached.
type Engine struct {
	src ledger.Snapshotter
}

// NewEngine creates an engine reading from src.
func NewEngine(src ledger.Snapshotter) *Engine {
	return &Engine{src: src}
}

// Monthly summarises the month identified by monthKey (YYYY-MM).
// An unknown or empty month yields zero values.
func (e *Engine) Monthly(monthKey string) domain.MonthlyStats {
	var (
		income, expense, absSum decimal.Decimal
		count                   int64
		totals                  = make(map[string]decimal.Decimal)
		order                   []string
	)

	for _, tx := range e.src.Snapshot() {
		if tx.MonthKey() != monthKey {
			continue
		}

		count++
		absSum = absSum.Add(tx.Amount.Abs())

		switch {
		case tx.Amount.IsPositive():
			income = income.Add(tx.Amount)
		case tx.IsExpense():
			expense = expense.Add(tx.Amount)
			if _, seen := totals[tx.Category]; !seen {
				order = append(order, tx.Category)
			}
			totals[tx.Category] = totals[tx.Category].Add(tx.Amount.Abs())
		}
	}

	average := decimal.Zero
	if count > 0 {
		average = absSum.Div(decimal.NewFromInt(count))
	}

	return domain.MonthlyStats{
		Month:         monthKey,
		Income:        income,
		Expense:       expense,
		Net:           income.Add(expense),
		Average:       average,
		TopCategories: topCategories(order, totals, TopCategoryLimit),
	}
}

// topCategories sorts categories by total, descending. Equal totals keep
// first-seen order.
func topCategories(order []string, totals map[string]decimal.Decimal, limit int) []domain.CategoryStat {
	stats := make([]domain.CategoryStat, 0, len(order))
	for _, category := range order {
		stats = append(stats, domain.CategoryStat{Category: category, Total: totals[category]})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Total.GreaterThan(stats[j].Total)
	})

	if len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}

// Yearly returns per-month income, expense and net for year, ascending by
// month. The sequence re-reads the store each time it is ranged over.
func (e *Engine) Yearly(year int) iter.Seq[domain.MonthSummary] {
	return func(yield func(domain.MonthSummary) bool) {
		months := make(map[string]*domain.MonthSummary)
		for _, tx := range e.src.Snapshot() {
			if tx.Timestamp.Year != year {
				continue
			}

			key := tx.MonthKey()
			m, ok := months[key]
			if !ok {
				m = &domain.MonthSummary{Month: key}
				months[key] = m
			}

			switch {
			case tx.Amount.IsPositive():
				m.Income = m.Income.Add(tx.Amount)
			case tx.IsExpense():
				m.Expense = m.Expense.Add(tx.Amount)
			}
		}

		keys := make([]string, 0, len(months))
		for key := range months {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			m := *months[key]
			m.Net = m.Income.Add(m.Expense)
			if !yield(m) {
				return
			}
		}
	}
}
