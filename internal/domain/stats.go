package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CategoryStat is the absolute expense total of one category.
type CategoryStat struct {
	Category string
	Total    decimal.Decimal
}

// MonthlyStats summarises a single month.
type MonthlyStats struct {
	Month         string
	Income        decimal.Decimal
	Expense       decimal.Decimal // non-positive
	Net           decimal.Decimal
	Average       decimal.Decimal // mean of absolute amounts
	TopCategories []CategoryStat
}

// MonthSummary is one row of a yearly breakdown.
type MonthSummary struct {
	Month   string
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// MarshalJSON implements json.Marshaler.
func (c CategoryStat) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Category string      `json:"category"`
		Total    json.Number `json:"total"`
	}{c.Category, number(c.Total)})
}

// MarshalJSON implements json.Marshaler.
func (m MonthlyStats) MarshalJSON() ([]byte, error) {
	top := m.TopCategories
	if top == nil {
		top = []CategoryStat{}
	}
	return json.Marshal(struct {
		Month         string         `json:"month"`
		Income        json.Number    `json:"income"`
		Expense       json.Number    `json:"expense"`
		Net           json.Number    `json:"net"`
		Average       json.Number    `json:"average"`
		TopCategories []CategoryStat `json:"top_categories"`
	}{
		Month:         m.Month,
		Income:        number(m.Income),
		Expense:       number(m.Expense),
		Net:           number(m.Net),
		Average:       number(m.Average),
		TopCategories: top,
	})
}

// MarshalJSON implements json.Marshaler.
func (s MonthSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Month   string      `json:"month"`
		Income  json.Number `json:"income"`
		Expense json.Number `json:"expense"`
		Net     json.Number `json:"net"`
	}{s.Month, number(s.Income), number(s.Expense), number(s.Net)})
}
