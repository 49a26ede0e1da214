package inmemory

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dvloznov/ledger/internal/jobs"
)

// Store keeps per-file import jobs in memory. It is safe for concurrent use
// and never hands out its own pointers.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.ImportFileJob
}

// NewStore creates an empty job store.
func NewStore() *Store {
	return &Store{jobs: make(map[string]*jobs.ImportFileJob)}
}

func clone(job *jobs.ImportFileJob) *jobs.ImportFileJob {
	c := *job
	return &c
}

// SaveJob inserts or replaces a copy of job.
func (s *Store) SaveJob(ctx context.Context, job *jobs.ImportFileJob) error {
	if job.JobID == "" {
		return fmt.Errorf("SaveJob: job ID is required")
	}

	s.mu.Lock()
	s.jobs[job.JobID] = clone(job)
	s.mu.Unlock()
	return nil
}

// GetJob returns a copy of the job with the given ID.
func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.ImportFileJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("GetJob %s: %w", jobID, jobs.ErrNotFound)
	}
	return clone(job), nil
}

// ListJobs returns copies of the matching jobs, oldest first, with
// filter.Offset and filter.Limit applied after sorting.
func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.ImportFileJob, error) {
	s.mu.RLock()
	matched := make([]*jobs.ImportFileJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		if filter.Matches(job) {
			matched = append(matched, clone(job))
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *jobs.ImportFileJob) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.JobID, b.JobID)
	})

	if filter.Offset >= len(matched) {
		return []*jobs.ImportFileJob{}, nil
	}
	matched = matched[max(filter.Offset, 0):]
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// UpdateJobStatus moves a job to status, stamping StartedAt when it begins
// running and CompletedAt when it reaches a terminal state. A non-empty
// errorMsg is recorded on the job.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status jobs.JobStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("UpdateJobStatus %s: %w", jobID, jobs.ErrNotFound)
	}

	now := time.Now()
	job.Status = status
	switch {
	case status == jobs.JobStatusRunning:
		job.StartedAt = &now
	case status.IsTerminal():
		job.CompletedAt = &now
	}
	if errorMsg != "" {
		job.Error = errorMsg
	}
	return nil
}

var _ jobs.JobStore = (*Store)(nil)
