package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dvloznov/ledger/internal/api/middleware"
	"github.com/dvloznov/ledger/internal/jobs"
	"github.com/rs/zerolog"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeJSON reads a bounded JSON body into v and reports a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// queryInt returns the integer query parameter name, or 0 when it is absent
// or not a number.
func queryInt(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}

// JobsHandler serves the per-file import jobs recorded by the importer.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a jobs handler over store.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
	case err != nil:
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to load job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load job")
	default:
		middleware.WriteJSON(w, http.StatusOK, job)
	}
}

// ListJobs handles GET /api/jobs?run_id=&status=&limit=&offset=
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		RunID:  query.Get("run_id"),
		Status: jobs.JobStatus(query.Get("status")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}

	list, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  list,
		"count": len(list),
	})
}
