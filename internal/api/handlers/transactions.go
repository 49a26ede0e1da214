package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dvloznov/ledger/internal/analytics"
	"github.com/dvloznov/ledger/internal/api/middleware"
	"github.com/dvloznov/ledger/internal/domain"
	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// TransactionsHandler handles transaction and category endpoints.
type TransactionsHandler struct {
	repo   ledger.Repository
	engine *analytics.Engine
	log    zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo ledger.Repository, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		repo:   repo,
		engine: analytics.NewEngine(repo),
		log:    log,
	}
}

// ListTransactions handles GET /api/transactions
// Optional query parameters: month, category, search, min_amount.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := analytics.Filter{
		Month:    query.Get("month"),
		Category: query.Get("category"),
		Search:   query.Get("search"),
	}

	if filter.Month != "" && !validMonth(filter.Month) {
		middleware.WriteError(w, http.StatusBadRequest, "month must be YYYY-MM")
		return
	}

	if s := query.Get("min_amount"); s != "" {
		minAmount, err := decimal.NewFromString(s)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "min_amount must be a decimal number")
			return
		}
		filter.MinAmount = &minAmount
	}

	txs := h.engine.Query(filter)
	if txs == nil {
		txs = []domain.Transaction{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// GetTransaction handles GET /api/transactions/{id}
func (h *TransactionsHandler) GetTransaction(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := parseID(w, idStr)
	if !ok {
		return
	}

	tx, found := h.repo.Get(id)
	if !found {
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, tx)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := parseID(w, idStr)
	if !ok {
		return
	}

	if !h.repo.Remove(id) {
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
		return
	}

	h.log.Info().Int("transaction_id", id).Msg("Transaction removed")
	w.WriteHeader(http.StatusNoContent)
}

// UpdateTransaction handles PATCH /api/transactions/{id}
// Only the category can be changed.
func (h *TransactionsHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request, idStr string) {
	id, ok := parseID(w, idStr)
	if !ok {
		return
	}

	var req struct {
		Category *string `json:"category"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Category == nil {
		middleware.WriteError(w, http.StatusBadRequest, "category is required")
		return
	}

	if !h.repo.SetCategory(id, *req.Category) {
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
		return
	}

	tx, _ := h.repo.Get(id)
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// RenameCategory handles POST /api/categories/rename
func (h *TransactionsHandler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.From) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "from is required")
		return
	}

	n := h.repo.RenameCategory(req.From, req.To)
	h.log.Info().Str("from", req.From).Str("to", req.To).Int("updated", n).Msg("Category renamed")

	middleware.WriteJSON(w, http.StatusOK, map[string]int{"updated": n})
}

func parseID(w http.ResponseWriter, s string) (int, bool) {
	id, err := strconv.Atoi(s)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid transaction ID")
		return 0, false
	}
	return id, true
}

func validMonth(s string) bool {
	if len(s) != 7 || s[4] != '-' {
		return false
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil || year < 1 {
		return false
	}
	month, err := strconv.Atoi(s[5:])
	return err == nil && month >= 1 && month <= 12
}
