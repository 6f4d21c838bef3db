package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	"fyne.io/fyne/v2/test"

	"github.com/ytget/ytqueue/internal/config"
	"github.com/ytget/ytqueue/internal/download"
	"github.com/ytget/ytqueue/internal/model"
)

// fakeDownloader records the calls the UI makes
type fakeDownloader struct {
	mu          sync.Mutex
	snapshots   []model.DownloadTask
	submitted   chan string
	maxParallel int
	calls       []string

	onUpdate   func(model.DownloadTask)
	onList     func()
	onProgress func(float64, bool)
}

var _ download.Downloader = (*fakeDownloader)(nil)

func newFakeDownloader(snapshots ...model.DownloadTask) *fakeDownloader {
	return &fakeDownloader{snapshots: snapshots, submitted: make(chan string, 1)}
}

func (f *fakeDownloader) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeDownloader) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeDownloader) SetUpdateCallback(cb func(model.DownloadTask)) { f.onUpdate = cb }
func (f *fakeDownloader) SetListCallback(cb func())                     { f.onList = cb }
func (f *fakeDownloader) SetProgressCallback(cb func(float64, bool))    { f.onProgress = cb }

func (f *fakeDownloader) SubmitQuery(_ context.Context, text string) error {
	f.submitted <- text
	return nil
}

func (f *fakeDownloader) Enqueue(model.Track, string) (*download.Task, error) { return nil, nil }
func (f *fakeDownloader) Tasks() []*download.Task                             { return nil }
func (f *fakeDownloader) Task(string) (*download.Task, bool)                  { return nil, false }
func (f *fakeDownloader) Progress() (float64, bool)                           { return 0, false }

func (f *fakeDownloader) Snapshots() []model.DownloadTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.DownloadTask(nil), f.snapshots...)
}

func (f *fakeDownloader) Cancel(id string) error { f.record("cancel " + id); return nil }
func (f *fakeDownloader) Remove(id string) error { f.record("remove " + id); return nil }
func (f *fakeDownloader) Restart(id string) (*download.Task, error) {
	f.record("restart " + id)
	return nil, nil
}
func (f *fakeDownloader) RemoveCompleted() { f.record("remove completed") }
func (f *fakeDownloader) RemoveInactive()  { f.record("remove inactive") }
func (f *fakeDownloader) RestartFailed()   { f.record("restart failed") }
func (f *fakeDownloader) CancelAll()       { f.record("cancel all") }

func (f *fakeDownloader) SetMaxParallelDownloads(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.maxParallel = n
}

func newTestRootUI(t *testing.T, svc *fakeDownloader) *RootUI {
	t.Helper()
	app := test.NewApp()
	window := test.NewWindow(nil)
	ui := NewRootUI(window, app, svc, config.NewSettings(app), NewLocalization(), discardLogger())
	t.Cleanup(ui.Close)
	return ui
}

func TestRootUI_RegistersCallbacks(t *testing.T) {
	svc := newFakeDownloader(newRowTask(model.TaskStatusCreated, 0))
	ui := newTestRootUI(t, svc)

	if svc.onUpdate == nil || svc.onList == nil || svc.onProgress == nil {
		t.Fatal("RootUI should register all service callbacks")
	}
	if ui.taskCount() != 1 {
		t.Errorf("Expected 1 task loaded at startup, got %d", ui.taskCount())
	}
}

func TestRootUI_TaskUpdates(t *testing.T) {
	svc := newFakeDownloader(newRowTask(model.TaskStatusCreated, 0))
	ui := newTestRootUI(t, svc)

	svc.onUpdate(newRowTask(model.TaskStatusStarted, 0.5))

	ui.tasksMutex.RLock()
	got := ui.tasks[0]
	ui.tasksMutex.RUnlock()
	if got.Status != model.TaskStatusStarted || got.Progress != 0.5 {
		t.Errorf("Expected updated snapshot, got %+v", got)
	}

	// Membership changes reload from the service
	second := newRowTask(model.TaskStatusCreated, 0)
	second.ID = "task-2"
	svc.mu.Lock()
	svc.snapshots = append(svc.snapshots, second)
	svc.mu.Unlock()
	svc.onList()

	if ui.taskCount() != 2 {
		t.Errorf("Expected 2 tasks after list change, got %d", ui.taskCount())
	}
}

func TestRootUI_SubmitQuery(t *testing.T) {
	svc := newFakeDownloader()
	ui := newTestRootUI(t, svc)

	ui.queryEntry.SetText("  https://youtu.be/dQw4w9WgXcQ\n")
	ui.onDownloadClick()

	select {
	case text := <-svc.submitted:
		if text != "https://youtu.be/dQw4w9WgXcQ" {
			t.Errorf("Unexpected submitted text %q", text)
		}
	case <-time.After(time.Second):
		t.Fatal("Query was not submitted")
	}
	if ui.queryEntry.Text != "" {
		t.Error("Query box should be cleared after submitting")
	}
}

func TestRootUI_EmptyQuery(t *testing.T) {
	svc := newFakeDownloader()
	ui := newTestRootUI(t, svc)

	ui.queryEntry.SetText("   ")
	ui.onDownloadClick()

	select {
	case text := <-svc.submitted:
		t.Errorf("Blank query should not be submitted, got %q", text)
	default:
	}
	if ui.notificationLabel.Text != ui.localization.GetText(KeyPleaseEnterQuery) {
		t.Errorf("Expected hint notification, got %q", ui.notificationLabel.Text)
	}
}

func TestRootUI_RowActions(t *testing.T) {
	svc := newFakeDownloader()
	ui := newTestRootUI(t, svc)

	ui.onCancelTask("task-1")
	ui.onRestartTask("task-2")
	ui.onRemoveTask("task-3")

	want := []string{"cancel task-1", "restart task-2", "remove task-3"}
	got := svc.recorded()
	if len(got) != len(want) {
		t.Fatalf("Expected calls %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Call %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestRootUI_SettingsSavedAppliesParallelism(t *testing.T) {
	svc := newFakeDownloader()
	ui := newTestRootUI(t, svc)

	ui.settings.SetMaxParallelDownloads(6)
	ui.onSettingsSaved()

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.maxParallel != 6 {
		t.Errorf("Expected live parallelism 6, got %d", svc.maxParallel)
	}
}

func TestRootUI_ShowProgress(t *testing.T) {
	svc := newFakeDownloader()
	ui := newTestRootUI(t, svc)

	ui.showProgress(0.4, true)
	if !ui.progressContainer.Visible() || !ui.progressBar.Visible() || ui.progressSpinner.Visible() {
		t.Error("Determinate progress should show the bar only")
	}
	if ui.progressBar.Value != 0.4 {
		t.Errorf("Expected bar value 0.4, got %v", ui.progressBar.Value)
	}

	ui.pendingQueries.Add(1)
	ui.showProgress(0, false)
	if !ui.progressSpinner.Visible() || ui.progressBar.Visible() {
		t.Error("Pending work without sources should show the infinite bar")
	}

	ui.pendingQueries.Add(-1)
	ui.showProgress(0, false)
	if ui.progressContainer.Visible() {
		t.Error("Idle progress panel should be hidden")
	}
}
