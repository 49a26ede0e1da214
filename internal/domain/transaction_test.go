package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func TestMonthKey(t *testing.T) {
	tests := []struct {
		name string
		date civil.Date
		want string
	}{
		{"january", civil.Date{Year: 2025, Month: time.January, Day: 1}, "2025-01"},
		{"december", civil.Date{Year: 2024, Month: time.December, Day: 31}, "2024-12"},
		{"short year", civil.Date{Year: 999, Month: time.May, Day: 3}, "0999-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthKey(tt.date); got != tt.want {
				t.Errorf("MonthKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"-10.50", "-10.50"},
		{"100", "100"},
		{"0.125", "0.125"},
		{"+7.0", "7.0"},
		{"1000000", "1000000"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := FormatAmount(decimal.RequireFromString(tt.in))
			if got != tt.want {
				t.Errorf("FormatAmount(%s) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTransaction_IsExpense(t *testing.T) {
	tests := []struct {
		amount string
		want   bool
	}{
		{"-0.01", true},
		{"-250", true},
		{"0", false},
		{"1200.50", false},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			tx := Transaction{Amount: decimal.RequireFromString(tt.amount)}
			if got := tx.IsExpense(); got != tt.want {
				t.Errorf("IsExpense() for %s = %v, want %v", tt.amount, got, tt.want)
			}
		})
	}
}

func TestTransaction_JSON(t *testing.T) {
	tx := Transaction{
		ID:        1,
		Timestamp: civil.Date{Year: 2025, Month: time.January, Day: 1},
		Payee:     "Store",
		Amount:    decimal.RequireFromString("-10.50"),
		Currency:  "USD",
		Category:  "Food",
	}

	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"Id":1,"Timestamp":"2025-01-01","Payee":"Store","Amount":-10.50,"Currency":"USD","Category":"Food"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var back Transaction
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if back.ID != tx.ID || back.Timestamp != tx.Timestamp || !back.Amount.Equal(tx.Amount) || back.Category != tx.Category {
		t.Errorf("Unmarshal() = %+v, want %+v", back, tx)
	}
}

func TestTransaction_UnmarshalJSON_BadDate(t *testing.T) {
	var tx Transaction
	err := json.Unmarshal([]byte(`{"Id":1,"Timestamp":"01/02/2025","Amount":1}`), &tx)
	if err == nil || !strings.Contains(err.Error(), "timestamp") {
		t.Errorf("expected timestamp error, got %v", err)
	}
}

func TestMonthlyStats_MarshalJSON(t *testing.T) {
	stats := MonthlyStats{
		Month:   "2025-01",
		Income:  decimal.NewFromInt(100),
		Expense: decimal.NewFromInt(-50),
		Net:     decimal.NewFromInt(50),
		Average: decimal.NewFromInt(75),
	}

	data, err := json.Marshal(stats)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"month":"2025-01","income":100,"expense":-50,"net":50,"average":75,"top_categories":[]}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}
