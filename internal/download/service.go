package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/ytget/ytqueue/internal/metrics"
	"github.com/ytget/ytqueue/internal/model"
)

// QueryProgressWeight is the muxer weight of a running query resolution,
// small enough not to dominate downloads already in flight
const QueryProgressWeight = 0.01

// TaskProgressWeight is the muxer weight of one download
const TaskProgressWeight = 1.0

// Dependencies are the collaborators of a Service. Tagger may be nil.
type Dependencies struct {
	Resolver  Resolver
	Fetcher   Fetcher
	Tagger    Tagger
	Presenter Presenter
	Logger    *slog.Logger
}

// Service owns the ordered task collection and runs every task under a
// shared admission gate and progress muxer
type Service struct {
	resolver  Resolver
	presenter Presenter
	logger    *slog.Logger
	gate      *Gate
	muxer     *ProgressMuxer
	runner    *taskRunner

	tasksMutex sync.RWMutex
	tasks      []*Task
	byID       map[string]*Task
	closed     bool
	wg         sync.WaitGroup

	callbackMutex sync.RWMutex
	onUpdate      func(model.DownloadTask) // callback for UI updates
	onList        func()
}

var _ Downloader = (*Service)(nil)

// NewService creates a new download service
func NewService(deps Dependencies, maxParallel int) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	gate := NewGate(maxParallel)
	metrics.GateCapacity.Set(float64(gate.Capacity()))

	return &Service{
		resolver:  deps.Resolver,
		presenter: deps.Presenter,
		logger:    logger,
		gate:      gate,
		muxer:     NewProgressMuxer(),
		runner: &taskRunner{
			gate:    gate,
			fetcher: deps.Fetcher,
			tagger:  deps.Tagger,
			logger:  logger,
		},
		byID: make(map[string]*Task),
	}
}

// SetUpdateCallback sets the callback function for task updates.
// It only fires for tasks that are still in the collection.
func (s *Service) SetUpdateCallback(callback func(model.DownloadTask)) {
	s.callbackMutex.Lock()
	defer s.callbackMutex.Unlock()
	s.onUpdate = callback
}

// SetListCallback sets the callback fired when tasks are added, replaced or removed
func (s *Service) SetListCallback(callback func()) {
	s.callbackMutex.Lock()
	defer s.callbackMutex.Unlock()
	s.onList = callback
}

// SetProgressCallback sets the callback fired when the aggregate progress changes
func (s *Service) SetProgressCallback(callback func(fraction float64, ok bool)) {
	s.muxer.SetUpdateCallback(callback)
}

// SetMaxParallelDownloads sets the maximum number of parallel downloads.
// Running downloads are never interrupted when the limit goes down.
func (s *Service) SetMaxParallelDownloads(max int) {
	s.gate.SetCapacity(max)
	metrics.GateCapacity.Set(float64(s.gate.Capacity()))
	s.logger.Info("Max parallel downloads changed", "max", s.gate.Capacity())
}

// MaxParallelDownloads returns the current limit
func (s *Service) MaxParallelDownloads() int {
	return s.gate.Capacity()
}

// Progress returns the aggregate progress; ok is false when nothing is tracked
func (s *Service) Progress() (float64, bool) {
	return s.muxer.Progress()
}

// SubmitQuery resolves text (one query per non-empty line) and asks the
// presenter where to save the result before enqueueing. Resolve failures
// are shown to the user and returned; an aborted placement enqueues nothing.
func (s *Service) SubmitQuery(ctx context.Context, text string) error {
	queries := SplitQueries(text)
	if len(queries) == 0 {
		return nil
	}

	result, err := s.resolve(ctx, queries)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		s.logger.Warn("Query resolution failed", "queries", len(queries), "error", err)
		s.presenter.ShowError(err)
		return err
	}

	s.logger.Info("Query resolved", "kind", result.Kind, "title", result.Title, "tracks", len(result.Tracks))

	switch len(result.Tracks) {
	case 0:
		s.presenter.ShowNothingFound()
		return nil
	case 1:
		return s.placeSingle(ctx, result.Tracks[0])
	default:
		return s.placeBatch(ctx, result)
	}
}

func (s *Service) resolve(ctx context.Context, queries []string) (*model.QueryResult, error) {
	input := s.muxer.CreateInput(QueryProgressWeight)
	defer input.Close()

	result, err := s.resolver.Resolve(ctx, queries, input)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &model.QueryResult{}
	}
	input.Report(1)
	return result, nil
}

func (s *Service) placeSingle(ctx context.Context, track model.Track) error {
	suggested := SuggestPath(s.presenter.DefaultPlacement(), track, s.reservedPaths())

	placement := s.presenter.PlaceSingle(ctx, track, suggested)
	if placement == nil {
		return nil
	}
	if err := placement.Validate(); err != nil {
		s.presenter.ShowError(err)
		return err
	}

	_, err := s.Enqueue(track, placement.FilePath)
	return err
}

func (s *Service) placeBatch(ctx context.Context, result *model.QueryResult) error {
	placement := s.presenter.PlaceBatch(ctx, result, s.presenter.DefaultPlacement())
	if placement == nil {
		return nil
	}
	if err := placement.Validate(); err != nil {
		s.presenter.ShowError(err)
		return err
	}

	items := PlanBatch(result, placement, s.reservedPaths())
	if skipped := len(placement.Tracks) - len(items); skipped > 0 {
		s.logger.Info("Skipped existing files", "count", skipped)
	}
	for _, item := range items {
		if _, err := s.Enqueue(item.Track, item.FilePath); err != nil {
			return err
		}
	}
	return nil
}

// Enqueue appends a task for track and starts it in the background
func (s *Service) Enqueue(track model.Track, filePath string) (*Task, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("%w: empty file path", ErrInvalidPlacement)
	}

	// The muxer runs the progress callback synchronously, so the input is
	// created outside tasksMutex.
	input := s.muxer.CreateInput(TaskProgressWeight)

	s.tasksMutex.Lock()
	if s.closed {
		s.tasksMutex.Unlock()
		input.discard()
		return nil, ErrServiceClosed
	}
	task := newTask(track, filePath, input, s.taskChanged)
	s.tasks = append(s.tasks, task)
	s.byID[task.id] = task
	s.wg.Add(1)
	s.tasksMutex.Unlock()

	metrics.TasksEnqueued.Inc()
	s.logger.Debug("Task enqueued", "task_id", task.id, "path", filePath)

	s.notifyList()
	go s.runTask(task, nil)
	return task, nil
}

func (s *Service) runTask(task *Task, after <-chan struct{}) {
	defer s.wg.Done()
	s.runner.run(task, after)
}

// Task returns a task by ID
func (s *Service) Task(id string) (*Task, bool) {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()
	task, exists := s.byID[id]
	return task, exists
}

// Tasks returns the tasks in display order
func (s *Service) Tasks() []*Task {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()

	tasks := make([]*Task, len(s.tasks))
	copy(tasks, s.tasks)
	return tasks
}

// Snapshots returns the state of every task in display order
func (s *Service) Snapshots() []model.DownloadTask {
	tasks := s.Tasks()
	snapshots := make([]model.DownloadTask, 0, len(tasks))
	for _, task := range tasks {
		snapshots = append(snapshots, task.Snapshot())
	}
	return snapshots
}

// Cancel signals cancellation to a task without removing it
func (s *Service) Cancel(id string) error {
	task, ok := s.Task(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	task.Cancel()
	return nil
}

// Remove cancels a task and drops it from the collection. The task unwinds
// in the background.
func (s *Service) Remove(id string) error {
	s.tasksMutex.Lock()
	task, exists := s.byID[id]
	if !exists {
		s.tasksMutex.Unlock()
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	delete(s.byID, id)
	for i, t := range s.tasks {
		if t == task {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			break
		}
	}
	s.tasksMutex.Unlock()

	task.Cancel()
	s.logger.Debug("Task removed", "task_id", id)
	s.notifyList()
	return nil
}

// Restart replaces a task with a fresh one for the same track and path at
// the same position. The new task starts once the old one has unwound.
func (s *Service) Restart(id string) (*Task, error) {
	if _, exists := s.Task(id); !exists {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	input := s.muxer.CreateInput(TaskProgressWeight)

	s.tasksMutex.Lock()
	old, exists := s.byID[id]
	if !exists {
		s.tasksMutex.Unlock()
		input.discard()
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}
	if s.closed {
		s.tasksMutex.Unlock()
		input.discard()
		return nil, ErrServiceClosed
	}

	task := newTask(old.track, old.filePath, input, s.taskChanged)
	for i, t := range s.tasks {
		if t == old {
			s.tasks[i] = task
			break
		}
	}
	delete(s.byID, id)
	s.byID[task.id] = task
	s.wg.Add(1)
	s.tasksMutex.Unlock()

	old.Cancel()
	metrics.TasksEnqueued.Inc()
	s.logger.Info("Task restarted", "old_task_id", id, "task_id", task.id)

	s.notifyList()
	go s.runTask(task, old.Done())
	return task, nil
}

// RemoveCompleted removes every completed task
func (s *Service) RemoveCompleted() {
	s.removeWhere(func(status model.TaskStatus) bool {
		return status == model.TaskStatusCompleted
	})
}

// RemoveInactive removes every completed, failed or canceled task
func (s *Service) RemoveInactive() {
	s.removeWhere(model.TaskStatus.IsFinished)
}

func (s *Service) removeWhere(match func(model.TaskStatus) bool) {
	for _, task := range s.Tasks() {
		if match(task.Status()) {
			_ = s.Remove(task.id)
		}
	}
}

// RestartFailed restarts every failed task in place
func (s *Service) RestartFailed() {
	for _, task := range s.Tasks() {
		if task.Status() == model.TaskStatusFailed {
			if _, err := s.Restart(task.id); err != nil {
				s.logger.Debug("Restart skipped", "task_id", task.id, "error", err)
			}
		}
	}
}

// CancelAll signals cancellation to every task; nothing is removed
func (s *Service) CancelAll() {
	for _, task := range s.Tasks() {
		task.Cancel()
	}
}

// Wait blocks until every task goroutine has unwound or ctx is done
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting tasks, cancels the running ones and waits for them
func (s *Service) Shutdown(ctx context.Context) error {
	s.tasksMutex.Lock()
	s.closed = true
	s.tasksMutex.Unlock()

	s.CancelAll()
	return s.Wait(ctx)
}

// reservedPaths returns the target paths of tasks in the collection
func (s *Service) reservedPaths() map[string]struct{} {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()

	paths := make(map[string]struct{}, len(s.tasks))
	for _, task := range s.tasks {
		paths[task.filePath] = struct{}{}
	}
	return paths
}

// taskChanged forwards a task update if the task is still listed
func (s *Service) taskChanged(task *Task) {
	s.tasksMutex.RLock()
	current, listed := s.byID[task.id]
	s.tasksMutex.RUnlock()
	if !listed || current != task {
		return
	}

	s.callbackMutex.RLock()
	callback := s.onUpdate
	s.callbackMutex.RUnlock()
	if callback != nil {
		callback(task.Snapshot())
	}
}

// notifyList calls the list callback if set
func (s *Service) notifyList() {
	s.callbackMutex.RLock()
	callback := s.onList
	s.callbackMutex.RUnlock()
	if callback != nil {
		callback()
	}
}

// SplitQueries returns the trimmed non-empty lines of text
func SplitQueries(text string) []string {
	var queries []string
	for _, line := range strings.Split(text, "\n") {
		if q := strings.TrimSpace(line); q != "" {
			queries = append(queries, q)
		}
	}
	return queries
}
