package download

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/ytget/ytqueue/internal/model"
)

func makeTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "download_test_*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitFor(t *testing.T, timeout time.Duration, check func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if check() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func waitStatus(t *testing.T, task *Task, status model.TaskStatus) {
	t.Helper()
	waitFor(t, 2*time.Second, func() bool { return task.Status() == status })
}

func waitDone(t *testing.T, task *Task) {
	t.Helper()
	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("task %s did not finish, status %s", task.ID(), task.Status())
	}
}

func track(id string) model.Track {
	return model.Track{ID: id, Title: "Title " + id, Author: "Author"}
}

// fakeFetcher runs a per-track behaviour; tracks without one get a file written
type fakeFetcher struct {
	mu        sync.Mutex
	behaviour map[string]func(ctx context.Context, path string, progress ProgressSink) error
	calls     map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		behaviour: make(map[string]func(context.Context, string, ProgressSink) error),
		calls:     make(map[string]int),
	}
}

func (f *fakeFetcher) on(id string, fn func(ctx context.Context, path string, progress ProgressSink) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.behaviour[id] = fn
}

func (f *fakeFetcher) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func (f *fakeFetcher) Fetch(ctx context.Context, path string, track model.Track, progress ProgressSink) error {
	f.mu.Lock()
	f.calls[track.ID]++
	fn := f.behaviour[track.ID]
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, path, progress)
	}
	return writeFile(path, progress)
}

func writeFile(path string, progress ProgressSink) error {
	progress.Report(0.5)
	if err := os.WriteFile(path, []byte("media"), 0o644); err != nil {
		return err
	}
	progress.Report(1)
	return nil
}

// blockUntilCanceled writes a partial file and waits for cancellation
func blockUntilCanceled(ctx context.Context, path string, progress ProgressSink) error {
	if err := os.WriteFile(path, []byte("partial"), 0o644); err != nil {
		return err
	}
	progress.Report(0.3)
	<-ctx.Done()
	return ctx.Err()
}

type fakeTagger struct {
	mu    sync.Mutex
	err   error
	paths []string
}

func (f *fakeTagger) Tag(ctx context.Context, path string, track model.Track) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	return f.err
}

func (f *fakeTagger) tagged() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

type fakeResolver struct {
	mu      sync.Mutex
	result  *model.QueryResult
	err     error
	queries [][]string
}

func (f *fakeResolver) Resolve(ctx context.Context, queries []string, progress ProgressSink) (*model.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, queries)
	progress.Report(0.5)
	return f.result, f.err
}

func (f *fakeResolver) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakePresenter struct {
	mu           sync.Mutex
	defaults     PlacementDefaults
	single       func(track model.Track, suggested string) *SinglePlacement
	batch        func(result *model.QueryResult, defaults PlacementDefaults) *BatchPlacement
	singleCalls  int
	batchCalls   int
	nothingFound int
	errs         []error
	suggested    string
}

func (f *fakePresenter) DefaultPlacement() PlacementDefaults {
	return f.defaults
}

func (f *fakePresenter) PlaceSingle(ctx context.Context, track model.Track, suggestedPath string) *SinglePlacement {
	f.mu.Lock()
	f.singleCalls++
	f.suggested = suggestedPath
	fn := f.single
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(track, suggestedPath)
}

func (f *fakePresenter) PlaceBatch(ctx context.Context, result *model.QueryResult, defaults PlacementDefaults) *BatchPlacement {
	f.mu.Lock()
	f.batchCalls++
	fn := f.batch
	f.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(result, defaults)
}

func (f *fakePresenter) ShowNothingFound() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nothingFound++
}

func (f *fakePresenter) ShowError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = append(f.errs, err)
}

var errBoom = errors.New("boom")

const (
	tick        = 2 * time.Millisecond
	testTimeout = 2 * time.Second
)
