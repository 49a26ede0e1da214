package handlers

import (
	"net/http"
	"strconv"

	"github.com/dvloznov/ledger/internal/analytics"
	"github.com/dvloznov/ledger/internal/api/middleware"
	"github.com/dvloznov/ledger/internal/domain"
	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/rs/zerolog"
)

// StatsHandler serves monthly and yearly summaries.
type StatsHandler struct {
	engine *analytics.Engine
	log    zerolog.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(src ledger.Snapshotter, log zerolog.Logger) *StatsHandler {
	return &StatsHandler{
		engine: analytics.NewEngine(src),
		log:    log,
	}
}

// Monthly handles GET /api/stats/monthly?month=YYYY-MM
func (h *StatsHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if !validMonth(month) {
		middleware.WriteError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, h.engine.Monthly(month))
}

// Yearly handles GET /api/stats/yearly?year=YYYY
func (h *StatsHandler) Yearly(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 1 || year > 9999 {
		middleware.WriteError(w, http.StatusBadRequest, "year must be a four-digit number")
		return
	}

	months := []domain.MonthSummary{}
	for m := range h.engine.Yearly(year) {
		months = append(months, m)
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"year":   year,
		"months": months,
	})
}
