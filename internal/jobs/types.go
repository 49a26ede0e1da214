package jobs

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a JobStore for an unknown job ID.
var ErrNotFound = errors.New("job not found")

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeImportFile represents the import of one CSV file into the ledger.
	JobTypeImportFile JobType = "import_file"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates every line of the file was processed.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusCancelled indicates the job stopped early on cancellation.
	JobStatusCancelled JobStatus = "cancelled"
	// JobStatusFailed indicates the file could not be read or the handler faulted.
	JobStatusFailed JobStatus = "failed"
)

// ImportFileJob tracks the import of a single file.
type ImportFileJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// RunID groups the jobs of one import call.
	RunID string `json:"run_id"`

	// Path is the local path or gs:// URI of the file.
	Path string `json:"path"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed or was cancelled.
	Error string `json:"error,omitempty"`

	// Per-file outcome counters.
	Imported   int64 `json:"imported"`
	Duplicates int64 `json:"duplicates"`
	Malformed  int64 `json:"malformed"`
}

// Job is a generic interface for all job types.
type Job interface {
	// GetID returns the unique job identifier.
	GetID() string

	// GetType returns the job type.
	GetType() JobType

	// GetStatus returns the current job status.
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *ImportFileJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *ImportFileJob) GetType() JobType {
	return JobTypeImportFile
}

// GetStatus implements the Job interface.
func (j *ImportFileJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue.
type Publisher interface {
	// PublishImportFile publishes a file import job.
	PublishImportFile(ctx context.Context, job *ImportFileJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops accepting jobs and waits for queued and in-flight jobs to finish.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// A returned error marks the job failed, or cancelled when it matches
// context.Canceled or context.DeadlineExceeded. Jobs are never retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *ImportFileJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*ImportFileJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*ImportFileJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// RunID filters jobs by import run.
	RunID string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}

// Matches reports whether job satisfies the RunID and Status criteria.
// Paging is applied by the store.
func (f JobFilter) Matches(job *ImportFileJob) bool {
	if f.RunID != "" && job.RunID != f.RunID {
		return false
	}
	return f.Status == "" || job.Status == f.Status
}

// IsTerminal reports whether no further transitions follow status.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}
