package download

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ytget/ytqueue/internal/metrics"
	"github.com/ytget/ytqueue/internal/model"
)

// TaskIDPrefix is prepended to generated task IDs
const TaskIDPrefix = "task-"

// Task is one download tracked by the Service. Its state is safe to read
// from any goroutine; only the task's own goroutine writes it.
type Task struct {
	id        string
	track     model.Track
	filePath  string
	createdAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	input  *ProgressInput

	mu         sync.RWMutex
	status     model.TaskStatus
	progress   float64
	lastError  string
	startedAt  time.Time
	finishedAt time.Time

	onChange func(*Task)
}

func newTask(track model.Track, filePath string, input *ProgressInput, onChange func(*Task)) *Task {
	ctx, cancel := context.WithCancel(context.Background())
	return &Task{
		id:        generateTaskID(),
		track:     track,
		filePath:  filePath,
		createdAt: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		input:     input,
		status:    model.TaskStatusCreated,
		onChange:  onChange,
	}
}

// ID returns the task identifier
func (t *Task) ID() string { return t.id }

// Track returns the track being downloaded
func (t *Task) Track() model.Track { return t.track }

// FilePath returns the target file path
func (t *Task) FilePath() string { return t.filePath }

// Status returns the current lifecycle state
func (t *Task) Status() model.TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Progress returns the download fraction in [0,1]
func (t *Task) Progress() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progress
}

// Error returns the failure message, empty unless the task Failed
func (t *Task) Error() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastError
}

// Snapshot returns a consistent copy of the task state
func (t *Task) Snapshot() model.DownloadTask {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return model.DownloadTask{
		ID:         t.id,
		Track:      t.track,
		FilePath:   t.filePath,
		Status:     t.status,
		Progress:   t.progress,
		LastError:  t.lastError,
		CreatedAt:  t.createdAt,
		StartedAt:  t.startedAt,
		FinishedAt: t.finishedAt,
	}
}

// Cancel signals cancellation. The task observes it asynchronously.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed once the task goroutine has fully unwound
func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) setStarted() {
	t.mu.Lock()
	t.status = model.TaskStatusStarted
	t.startedAt = time.Now()
	t.mu.Unlock()
	t.notify()
}

func (t *Task) setProgress(fraction float64) {
	t.mu.Lock()
	if fraction <= t.progress {
		t.mu.Unlock()
		return
	}
	t.progress = fraction
	t.mu.Unlock()
	t.notify()
}

func (t *Task) finish(status model.TaskStatus, message string) {
	t.mu.Lock()
	t.status = status
	t.lastError = message
	t.finishedAt = time.Now()
	if status == model.TaskStatusCompleted {
		t.progress = 1
	}
	t.mu.Unlock()
	t.notify()
}

func (t *Task) notify() {
	if t.onChange != nil {
		t.onChange(t)
	}
}

func (t *Task) report(fraction float64) {
	t.input.Report(fraction)
	t.setProgress(t.input.Fraction())
}

// taskRunner drives tasks through Created → Started → terminal
type taskRunner struct {
	gate    *Gate
	fetcher Fetcher
	tagger  Tagger
	logger  *slog.Logger
}

// run executes the task lifecycle. When after is not nil the task waits for
// it to close first, so a replaced task finishes its cleanup before the new
// one touches the same path.
func (r *taskRunner) run(t *Task, after <-chan struct{}) {
	defer close(t.done)
	defer t.input.Close()

	log := r.logger.With("task_id", t.id, "video_id", t.track.ID)

	if after != nil {
		select {
		case <-after:
		case <-t.ctx.Done():
			r.complete(log, t, t.ctx.Err())
			return
		}
	}

	permit, err := r.gate.Acquire(t.ctx)
	if err != nil {
		r.complete(log, t, err)
		return
	}
	defer permit.Release()

	if err := t.ctx.Err(); err != nil {
		r.complete(log, t, err)
		return
	}

	metrics.ActiveDownloads.Inc()
	defer metrics.ActiveDownloads.Dec()

	t.setStarted()
	log.Info("Download started", "path", t.filePath)
	start := time.Now()
	defer func() {
		metrics.DownloadDuration.Observe(time.Since(start).Seconds())
	}()

	if err := r.fetcher.Fetch(t.ctx, t.filePath, t.track, ProgressFunc(t.report)); err != nil {
		if rmErr := os.Remove(t.filePath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Debug("Failed to remove partial file", "path", t.filePath, "error", rmErr)
		}
		r.complete(log, t, err)
		return
	}

	if r.tagger != nil {
		if err := r.tagger.Tag(t.ctx, t.filePath, t.track); err != nil {
			metrics.TagFailures.Inc()
			log.Warn("Tagging failed", "path", t.filePath, "error", err)
		}
	}

	t.input.Report(1)
	r.complete(log, t, nil)
}

func (r *taskRunner) complete(log *slog.Logger, t *Task, err error) {
	var status model.TaskStatus
	var message string

	switch {
	case err == nil:
		status = model.TaskStatusCompleted
		log.Info("Download completed", "path", t.filePath)
	case errors.Is(err, context.Canceled) || t.ctx.Err() != nil:
		status = model.TaskStatusCanceled
		log.Info("Download canceled")
	default:
		status = model.TaskStatusFailed
		message = failureMessage(err)
		log.Error("Download failed", "error", err)
	}

	metrics.TasksFinished.WithLabelValues(status.String()).Inc()
	t.finish(status, message)
}

// failureMessage returns the short message of a source failure, or the
// full error chain for anything else.
func failureMessage(err error) string {
	var sourceErr *model.SourceError
	if errors.As(err, &sourceErr) && sourceErr.Message != "" {
		return sourceErr.Message
	}

	var b strings.Builder
	b.WriteString(err.Error())
	for e := err; e != nil; e = errors.Unwrap(e) {
		fmt.Fprintf(&b, "\n  %T: %v", e, e)
	}
	return b.String()
}

// generateTaskID generates a unique task ID using UUID v7 so IDs sort by creation time
func generateTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf(TaskIDPrefix+"%d", time.Now().UnixNano())
	}
	return TaskIDPrefix + id.String()
}
