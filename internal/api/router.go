// Package api wires the HTTP handlers of the ledger report and edit API.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/dvloznov/ledger/internal/api/handlers"
	"github.com/dvloznov/ledger/internal/api/middleware"
	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/pipeline"
	"github.com/rs/zerolog"
)

// NewRouter builds the API handler with the middleware chain applied.
func NewRouter(repo ledger.Repository, importer *pipeline.Importer, log zerolog.Logger) http.Handler {
	transactionsHandler := handlers.NewTransactionsHandler(repo, log)
	statsHandler := handlers.NewStatsHandler(repo, log)
	importsHandler := handlers.NewImportsHandler(importer)
	jobsHandler := handlers.NewJobsHandler(importer.JobStore(), log)
	exportHandler := handlers.NewExportHandler(repo, log)

	mux := http.NewServeMux()

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.ListTransactions(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
			return
		}

		switch r.Method {
		case http.MethodGet:
			transactionsHandler.GetTransaction(w, r, id)
		case http.MethodDelete:
			transactionsHandler.DeleteTransaction(w, r, id)
		case http.MethodPatch:
			transactionsHandler.UpdateTransaction(w, r, id)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Categories endpoints
	mux.HandleFunc("/api/categories/rename", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			transactionsHandler.RenameCategory(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Imports and jobs endpoints
	mux.HandleFunc("/api/imports", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			importsHandler.CreateImport(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.GetJob(w, r, jobID)
	})

	// Stats endpoints
	mux.HandleFunc("/api/stats/monthly", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			statsHandler.Monthly(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/stats/yearly", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			statsHandler.Yearly(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/export", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			exportHandler.Export(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":       "healthy",
			"time":         time.Now().Format(time.RFC3339),
			"transactions": repo.Len(),
		})
	})

	return middleware.Chain(mux,
		middleware.Recovery(log),
		middleware.RequestID,
		middleware.Logger(log),
		middleware.CORS,
	)
}
