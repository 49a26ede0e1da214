package inmemory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/ledger/internal/jobs"
	"github.com/dvloznov/ledger/internal/logger"
	"github.com/google/uuid"
)

// DefaultWorkerCount is used when NewQueue is given a non-positive worker count.
const DefaultWorkerCount = 4

// ErrQueueClosed is returned when publishing to or starting a stopped queue.
var ErrQueueClosed = errors.New("queue is closed")

// Queue runs import jobs on a fixed pool of worker goroutines fed by a
// buffered channel. Jobs run once; there are no retries. It is safe for
// concurrent use.
type Queue struct {
	jobChan     chan *jobs.ImportFileJob
	wg          sync.WaitGroup
	mu          sync.RWMutex
	store       jobs.JobStore
	workerCount int
	started     bool
	closed      bool
}

// NewQueue creates a queue. bufferSize is the number of jobs that can wait
// before PublishImportFile blocks. store may be nil.
func NewQueue(bufferSize, workerCount int, store jobs.JobStore) *Queue {
	if workerCount <= 0 {
		workerCount = DefaultWorkerCount
	}
	return &Queue{
		jobChan:     make(chan *jobs.ImportFileJob, bufferSize),
		store:       store,
		workerCount: workerCount,
	}
}

// PublishImportFile assigns an ID, records the job as pending and queues it.
func (q *Queue) PublishImportFile(ctx context.Context, job *jobs.ImportFileJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	if job.JobID == "" {
		job.JobID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = jobs.JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	if q.store != nil {
		if err := q.store.SaveJob(ctx, job); err != nil {
			return fmt.Errorf("PublishImportFile: %w", err)
		}
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start launches the workers. Each calls handler for the jobs it receives
// until Stop closes the queue.
func (q *Queue) Start(ctx context.Context, handler jobs.JobHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	switch {
	case q.closed:
		return ErrQueueClosed
	case q.started:
		return errors.New("queue already started")
	}
	q.started = true

	q.wg.Add(q.workerCount)
	for range q.workerCount {
		go func() {
			defer q.wg.Done()
			// Cancellation is left to the handler so every queued job
			// still reaches a terminal status.
			for job := range q.jobChan {
				q.processJob(ctx, job, handler)
			}
		}()
	}
	return nil
}

func (q *Queue) processJob(ctx context.Context, job *jobs.ImportFileJob, handler jobs.JobHandler) {
	q.record(ctx, job, jobs.JobStatusRunning, nil)
	err := runHandler(ctx, job, handler)
	// The job context may already be cancelled; the outcome must still be recorded.
	q.record(context.WithoutCancel(ctx), job, outcome(err), err)
}

// outcome maps a handler result to a terminal status.
func outcome(err error) jobs.JobStatus {
	switch {
	case err == nil:
		return jobs.JobStatusCompleted
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return jobs.JobStatusCancelled
	default:
		return jobs.JobStatusFailed
	}
}

// record moves job to status and saves a copy, counters included.
func (q *Queue) record(ctx context.Context, job *jobs.ImportFileJob, status jobs.JobStatus, jobErr error) {
	now := time.Now()
	job.Status = status
	switch {
	case status == jobs.JobStatusRunning:
		job.StartedAt = &now
	case status.IsTerminal():
		job.CompletedAt = &now
	}
	job.Error = ""
	if jobErr != nil {
		job.Error = jobErr.Error()
	}

	if q.store == nil {
		return
	}
	if err := q.store.SaveJob(ctx, job); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("job_id", job.JobID).Msg("Failed to record job status")
	}
}

// runHandler converts a handler panic into an error so one faulty file
// cannot take the worker down.
func runHandler(ctx context.Context, job *jobs.ImportFileJob, handler jobs.JobHandler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log := logger.FromContext(ctx)
			log.Error().
				Interface("panic", r).
				Str("job_id", job.JobID).
				Str("path", job.Path).
				Msg("Unexpected fault while processing job")
			err = fmt.Errorf("unexpected fault: %v", r)
		}
	}()

	return handler(ctx, job)
}

// Stop closes the queue to new jobs and waits until the workers have
// drained every queued job, or until ctx is done.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobChan)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for import workers: %w", ctx.Err())
	}
}

// Close stops the queue without a deadline.
func (q *Queue) Close() error {
	return q.Stop(context.Background())
}

var (
	_ jobs.Publisher = (*Queue)(nil)
	_ jobs.Consumer  = (*Queue)(nil)
)
