package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/dvloznov/ledger/internal/api/middleware"
	"github.com/dvloznov/ledger/internal/export"
	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/rs/zerolog"
)

// ExportHandler streams the ledger as a downloadable file.
type ExportHandler struct {
	src ledger.Snapshotter
	log zerolog.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(src ledger.Snapshotter, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		src: src,
		log: log,
	}
}

// Export handles GET /api/export?format=csv|json|xlsx (default json)
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(export.FormatJSON)
	}

	format, err := export.ParseFormat(name)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Render fully first so a failure can still produce an error status.
	var buf bytes.Buffer
	if err := export.Render(r.Context(), format, &buf, h.src.Snapshot()); err != nil {
		h.log.Error().Err(err).Str("format", string(format)).Msg("Failed to render export")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to render export")
		return
	}

	filename := fmt.Sprintf("ledger-%s.%s", time.Now().Format("20060102"), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.log.Warn().Err(err).Msg("Failed to write export response")
	}
}
