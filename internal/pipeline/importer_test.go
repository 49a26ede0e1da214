package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dvloznov/ledger/internal/domain"
	"github.com/dvloznov/ledger/internal/jobs"
	"github.com/dvloznov/ledger/internal/ledger/inmemory"
	"github.com/dvloznov/ledger/internal/logger"
)

const header = "Id,Date,Payee,Amount,Currency,Category"

// syncBuffer is a bytes.Buffer safe for concurrent log writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func writeCSV(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	body := strings.Join(append([]string{header}, lines...), "\n") + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func testContext(t *testing.T) (context.Context, *syncBuffer) {
	t.Helper()
	buf := &syncBuffer{}
	return logger.WithContext(context.Background(), logger.NewWithWriter(buf)), buf
}

func TestImportAll_DuplicatesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv",
		"1,2025-01-01,Store,-10.50,USD,Food",
		"2,2025-01-02,Employer,1000,USD,Salary",
		"3,2025-01-03,Cafe,-4,USD,Food",
	)
	b := writeCSV(t, dir, "b.csv",
		"1,2025-01-01,Store,-10.50,USD,Food",
		"3,2025-01-03,Cafe,-4,USD,Food",
	)

	ctx, _ := testContext(t)
	repo := inmemory.NewStore()
	got := NewImporter(repo, nil, WithWorkers(2)).ImportAll(ctx, []string{a, b})

	if got.Imported+got.Duplicates != 5 {
		t.Errorf("imported+duplicates = %d, want 5", got.Imported+got.Duplicates)
	}
	if got.Imported != 3 || got.Duplicates != 2 || got.Malformed != 0 {
		t.Errorf("ImportAll() = %+v, want 3/2/0", got)
	}
	if repo.Len() != 3 {
		t.Errorf("store Len() = %d, want 3", repo.Len())
	}
}

func TestImportAll_CountsAndLogs(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "mixed.csv",
		"1,2025-01-01,Store,-10.50,USD,Food",
		"abc,2025-01-01,Store,-10,USD,Food",
		"2,2025-01-01,Store,2000000,USD,Food",
		"3,2025-01-05,Cafe,-3,USD",
		"1,2025-01-01,Store,-10.50,USD,Food",
		"",
	)

	ctx, buf := testContext(t)
	repo := inmemory.NewStore()
	got := NewImporter(repo, nil).ImportAll(ctx, []string{path})

	want := Result{Imported: 2, Duplicates: 1, Malformed: 3}
	if got != want {
		t.Errorf("ImportAll() = %+v, want %+v", got, want)
	}

	tx, ok := repo.Get(3)
	if !ok || tx.Category != domain.DefaultCategory {
		t.Errorf("Get(3) = %+v, %v; want default category", tx, ok)
	}

	out := buf.String()
	for _, fragment := range []string{
		`"reason":"InvalidId"`,
		`"line":3`,
		`"reason":"AmountOutOfRange"`,
		`"reason":"IncorrectColumnCount"`,
		`"file":"` + path + `"`,
		"Duplicate record skipped",
		"Imported: 2, Duplicates: 1, Malformed: 3",
	} {
		if !strings.Contains(out, fragment) {
			t.Errorf("log output missing %s\n%s", fragment, out)
		}
	}
}

func TestImportAll_HeaderOnlyAndCRLF(t *testing.T) {
	dir := t.TempDir()
	empty := writeCSV(t, dir, "empty.csv")
	// A valid-looking first line is still a header.
	headerRecord := filepath.Join(dir, "header-record.csv")
	if err := os.WriteFile(headerRecord, []byte("9,2025-01-01,Store,-1,USD,Food\r\n10,2025-01-02,Shop,-2,USD,Misc\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, _ := testContext(t)
	repo := inmemory.NewStore()
	got := NewImporter(repo, nil).ImportAll(ctx, []string{empty, headerRecord})

	if got != (Result{Imported: 1}) {
		t.Errorf("ImportAll() = %+v, want 1 imported", got)
	}
	if _, ok := repo.Get(9); ok {
		t.Error("header line was imported")
	}
	if tx, ok := repo.Get(10); !ok || tx.Category != "Misc" {
		t.Errorf("Get(10) = %+v, %v; want category Misc without CR", tx, ok)
	}
}

func TestImportAll_UnreadableFileSkipped(t *testing.T) {
	dir := t.TempDir()
	good := writeCSV(t, dir, "good.csv", "1,2025-01-01,Store,-10,USD,Food")
	missing := filepath.Join(dir, "missing.csv")

	ctx, buf := testContext(t)
	repo := inmemory.NewStore()
	im := NewImporter(repo, nil)
	got := im.ImportAll(ctx, []string{missing, good})

	if got != (Result{Imported: 1}) {
		t.Errorf("ImportAll() = %+v, want 1 imported", got)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) || !strings.Contains(buf.String(), "Failed to read file") {
		t.Errorf("expected error log for missing file, got:\n%s", buf.String())
	}

	failed, err := im.JobStore().ListJobs(ctx, jobs.JobFilter{Status: jobs.JobStatusFailed})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if len(failed) != 1 || failed[0].Path != missing {
		t.Errorf("failed jobs = %v, want the missing file", failed)
	}
}

// failingSource yields some bytes and then an I/O error.
type failingSource struct{}

func (failingSource) Open(context.Context, string) (io.ReadCloser, error) {
	r := io.MultiReader(
		strings.NewReader(header+"\n1,2025-01-01,Store,-10,USD,Food\n"),
		errReader{errors.New("connection reset")},
	)
	return io.NopCloser(r), nil
}

type errReader struct{ err error }

func (e errReader) Read([]byte) (int, error) { return 0, e.err }

func TestImportAll_ReadErrorCountsNothing(t *testing.T) {
	ctx, _ := testContext(t)
	repo := inmemory.NewStore()
	got := NewImporter(repo, failingSource{}).ImportAll(ctx, []string{"flaky.csv"})

	if got != (Result{}) {
		t.Errorf("ImportAll() = %+v, want zero counters", got)
	}
	if repo.Len() != 0 {
		t.Errorf("store Len() = %d, want 0", repo.Len())
	}
}

func TestImportAll_CancelledBeforeStart(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "a.csv", "1,2025-01-01,Store,-10,USD,Food")

	ctx, buf := testContext(t)
	ctx, cancel := context.WithCancel(ctx)
	cancel()

	repo := inmemory.NewStore()
	im := NewImporter(repo, nil)
	got := im.ImportAll(ctx, []string{path})

	if got != (Result{}) {
		t.Errorf("ImportAll() = %+v, want zero counters", got)
	}
	if !strings.Contains(buf.String(), "Imported: 0, Duplicates: 0, Malformed: 0") {
		t.Errorf("missing summary line:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), `"level":"error"`) {
		t.Errorf("cancellation was logged as an error:\n%s", buf.String())
	}

	cancelled, _ := im.JobStore().ListJobs(context.Background(), jobs.JobFilter{Status: jobs.JobStatusCancelled})
	if len(cancelled) != 1 {
		t.Errorf("cancelled jobs = %d, want 1", len(cancelled))
	}
}

// cancellingRepo cancels the import after a fixed number of successful adds.
type cancellingRepo struct {
	*inmemory.Store
	after  int
	cancel context.CancelFunc
	mu     sync.Mutex
	adds   int
}

func (r *cancellingRepo) Add(tx domain.Transaction) bool {
	ok := r.Store.Add(tx)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adds++
	if r.adds == r.after {
		r.cancel()
	}
	return ok
}

func TestImportAll_CancelMidway(t *testing.T) {
	dir := t.TempDir()
	var lines []string
	for i := 1; i <= 10; i++ {
		lines = append(lines, fmt.Sprintf("%d,2025-01-%02d,Store,-%d,USD,Food", i, i, i))
	}
	path := writeCSV(t, dir, "long.csv", lines...)

	ctx, buf := testContext(t)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	repo := &cancellingRepo{Store: inmemory.NewStore(), after: 3, cancel: cancel}
	got := NewImporter(repo, nil, WithWorkers(1)).ImportAll(ctx, []string{path})

	if got != (Result{Imported: 3}) {
		t.Errorf("ImportAll() = %+v, want 3 imported", got)
	}
	for id := 1; id <= 3; id++ {
		if _, ok := repo.Get(id); !ok {
			t.Errorf("record %d missing from prefix", id)
		}
	}
	if repo.Len() != 3 {
		t.Errorf("store Len() = %d, want 3", repo.Len())
	}
	if !strings.Contains(buf.String(), "Import cancelled") || !strings.Contains(buf.String(), `"level":"info"`) {
		t.Errorf("expected info cancellation notice:\n%s", buf.String())
	}
}

func TestImportAll_ManyFilesConcurrently(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for f := 0; f < 20; f++ {
		var lines []string
		for i := 0; i < 25; i++ {
			// ids overlap between neighbouring files
			id := f*20 + i + 1
			lines = append(lines, fmt.Sprintf("%d,2025-03-01,Payee %d,-1.25,USD,Misc", id, id))
		}
		lines = append(lines, "bad line")
		paths = append(paths, writeCSV(t, dir, fmt.Sprintf("f%02d.csv", f), lines...))
	}

	ctx, _ := testContext(t)
	repo := inmemory.NewStore()
	got := NewImporter(repo, nil, WithWorkers(8)).ImportAll(ctx, paths)

	if got.Total() != 20*26 {
		t.Errorf("Total() = %d, want %d", got.Total(), 20*26)
	}
	if got.Malformed != 20 {
		t.Errorf("Malformed = %d, want 20", got.Malformed)
	}
	// ids 1..405 are unique across all files
	if got.Imported != 405 || int(got.Imported) != repo.Len() {
		t.Errorf("Imported = %d, store Len() = %d, want 405", got.Imported, repo.Len())
	}
}

func TestRoutingSource_NoRemote(t *testing.T) {
	src := NewRoutingSource(nil)
	if _, err := src.Open(context.Background(), "gs://bucket/file.csv"); err == nil {
		t.Error("expected error opening gs:// without a storage client")
	}
}

func TestResult_String(t *testing.T) {
	r := Result{Imported: 3, Duplicates: 2, Malformed: 1}
	if got := r.String(); got != "Imported: 3, Duplicates: 2, Malformed: 1" {
		t.Errorf("String() = %q", got)
	}
}
