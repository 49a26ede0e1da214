package handlers

import (
	"net/http"
	"strings"

	"github.com/dvloznov/ledger/internal/api/middleware"
	"github.com/dvloznov/ledger/internal/logger"
	"github.com/dvloznov/ledger/internal/pipeline"
)

// ImportsHandler runs CSV imports on request. It logs through the
// request-scoped logger so import warnings carry the request id.
type ImportsHandler struct {
	importer *pipeline.Importer
}

// NewImportsHandler creates a new imports handler.
func NewImportsHandler(importer *pipeline.Importer) *ImportsHandler {
	return &ImportsHandler{importer: importer}
}

// CreateImport handles POST /api/imports
// The body lists local paths or gs:// URIs. The import runs under the request
// context, so a client disconnect cancels it.
func (h *ImportsHandler) CreateImport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paths []string `json:"paths"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var paths []string
	for _, p := range req.Paths {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "paths is required")
		return
	}

	res := h.importer.ImportAll(r.Context(), paths)

	if err := r.Context().Err(); err != nil {
		log := logger.FromContext(r.Context())
		log.Info().Err(err).Msg("Import request cancelled")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, res)
}
