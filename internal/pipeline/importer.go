package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dvloznov/ledger/internal/jobs"
	"github.com/dvloznov/ledger/internal/jobs/inmemory"
	"github.com/dvloznov/ledger/internal/ledger"
	"github.com/dvloznov/ledger/internal/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultWorkers is the number of files imported in parallel when no
// option overrides it.
const DefaultWorkers = 4

// maxLineSize bounds a single CSV line.
const maxLineSize = 1 << 20

// Result holds the counters of one import run.
type Result struct {
	Imported   int64 `json:"imported"`
	Duplicates int64 `json:"duplicates"`
	Malformed  int64 `json:"malformed"`
}

// String renders the summary line logged at the end of every run.
func (r Result) String() string {
	return fmt.Sprintf("Imported: %d, Duplicates: %d, Malformed: %d", r.Imported, r.Duplicates, r.Malformed)
}

// Total is the number of data lines accounted for.
func (r Result) Total() int64 {
	return r.Imported + r.Duplicates + r.Malformed
}

// Importer loads CSV files into a ledger.Repository. Files are processed in
// parallel by a bounded worker pool; lines within a file are processed in order.
type Importer struct {
	repo     ledger.Repository
	source   LineSource
	workers  int
	jobStore jobs.JobStore
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithWorkers sets the number of files processed concurrently.
func WithWorkers(n int) ImporterOption {
	return func(im *Importer) {
		if n > 0 {
			im.workers = n
		}
	}
}

// WithJobStore records per-file job status in store.
func WithJobStore(store jobs.JobStore) ImporterOption {
	return func(im *Importer) {
		im.jobStore = store
	}
}

// NewImporter creates an importer writing into repo. A nil source reads
// local files only.
func NewImporter(repo ledger.Repository, source LineSource, opts ...ImporterOption) *Importer {
	if source == nil {
		source = FileSource{}
	}
	im := &Importer{
		repo:     repo,
		source:   source,
		workers:  DefaultWorkers,
		jobStore: inmemory.NewStore(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// JobStore returns the store holding per-file job status.
func (im *Importer) JobStore() jobs.JobStore {
	return im.jobStore
}

// tally accumulates outcomes across concurrent file workers.
type tally struct {
	imported   atomic.Int64
	duplicates atomic.Int64
	malformed  atomic.Int64
}

func (t *tally) result() Result {
	return Result{
		Imported:   t.imported.Load(),
		Duplicates: t.duplicates.Load(),
		Malformed:  t.malformed.Load(),
	}
}

// ImportAll imports every path and returns the accumulated counters.
// It never fails: unreadable files, bad lines, duplicates and cancellation
// are logged and reflected in the counters. Cancellation is checked before
// each file is opened and before each data line.
func (im *Importer) ImportAll(ctx context.Context, paths []string) Result {
	runID := uuid.New().String()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)

	log.Info().Int("files", len(paths)).Int("workers", im.workers).Msg("Starting import")

	var counts tally

	if ctx.Err() != nil {
		log.Info().Str("scope", ScopeRun).Msg("Import cancelled")
	}

	queue := inmemory.NewQueue(len(paths), im.workers, im.jobStore)
	handler := func(ctx context.Context, job jobs.Job) error {
		fileJob, ok := job.(*jobs.ImportFileJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}
		return im.importFile(ctx, fileJob, &counts)
	}

	if err := queue.Start(ctx, handler); err != nil {
		log.Error().Err(err).Msg("Failed to start import workers")
		return counts.result()
	}

	for _, path := range paths {
		job := &jobs.ImportFileJob{RunID: runID, Path: path}
		// The buffer holds every path, so this only fails once the queue is closed.
		if err := queue.PublishImportFile(context.WithoutCancel(ctx), job); err != nil {
			log.Error().Err(err).Str("file", path).Msg("Failed to queue file")
		}
	}

	if err := queue.Stop(context.WithoutCancel(ctx)); err != nil {
		log.Error().Err(err).Msg("Import workers did not stop cleanly")
	}

	result := counts.result()
	log.Info().
		Int64("imported", result.Imported).
		Int64("duplicates", result.Duplicates).
		Int64("malformed", result.Malformed).
		Msg(result.String())

	return result
}

// importFile runs the per-file state machine:
// Reading -> skip header -> ProcessingLine* -> Completed | CancelledMidway | ReadFailed.
func (im *Importer) importFile(ctx context.Context, job *jobs.ImportFileJob, counts *tally) error {
	log := logger.WithFields(logger.FromContext(ctx), map[string]interface{}{
		"file":   job.Path,
		"job_id": job.JobID,
	})

	if err := ctx.Err(); err != nil {
		log.Info().Msg("Import cancelled before reading file")
		return &CancelledError{Scope: ScopeFile, Path: job.Path, Err: err}
	}

	lines, err := im.readLines(ctx, job.Path)
	if err != nil {
		if ctx.Err() != nil {
			log.Info().Msg("Import cancelled while reading file")
			return &CancelledError{Scope: ScopeFile, Path: job.Path, Err: ctx.Err()}
		}
		log.Error().Err(err).Msg("Failed to read file")
		return &UnreadableFileError{Path: job.Path, Err: err}
	}

	// Line 1 is the header.
	for i := 1; i < len(lines); i++ {
		lineNo := i + 1
		if err := ctx.Err(); err != nil {
			log.Info().Int("line", lineNo).Msg("Import cancelled")
			return &CancelledError{Scope: ScopeFile, Path: job.Path, Err: err}
		}
		im.processLine(log, job, lineNo, lines[i], counts)
	}

	log.Debug().
		Int64("imported", job.Imported).
		Int64("duplicates", job.Duplicates).
		Int64("malformed", job.Malformed).
		Msg("File imported")
	return nil
}

func (im *Importer) processLine(log zerolog.Logger, job *jobs.ImportFileJob, lineNo int, line string, counts *tally) {
	tx, err := ParseRecord(line)
	if err != nil {
		counts.malformed.Add(1)
		job.Malformed++

		reason := err.Error()
		var mre *MalformedRecordError
		if errors.As(err, &mre) {
			reason = mre.Reason.String()
		}
		log.Warn().Int("line", lineNo).Str("reason", reason).Msg("Malformed record skipped")
		return
	}

	if !im.repo.Add(tx) {
		counts.duplicates.Add(1)
		job.Duplicates++
		log.Warn().
			Err(&DuplicateKeyError{ID: tx.ID}).
			Int("id", tx.ID).
			Int("line", lineNo).
			Msg("Duplicate record skipped")
		return
	}

	counts.imported.Add(1)
	job.Imported++
}

// readLines loads the whole file before any line is processed so a read
// failure leaves no partial counts behind. Line endings (\n or \r\n) are
// stripped.
func (im *Importer) readLines(ctx context.Context, path string) ([]string, error) {
	rc, err := im.source.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := readAll(ctx, rc)
	if err != nil {
		return nil, err
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}
