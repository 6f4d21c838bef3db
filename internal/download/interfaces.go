package download

import (
	"context"

	"github.com/ytget/ytqueue/internal/model"
)

// ProgressSink receives fraction updates in [0,1]
type ProgressSink interface {
	Report(fraction float64)
}

// ProgressFunc adapts a function to ProgressSink
type ProgressFunc func(fraction float64)

// Report calls f(fraction)
func (f ProgressFunc) Report(fraction float64) {
	f(fraction)
}

// Resolver turns query strings into tracks.
// Failures from the media source itself should be returned as *model.SourceError.
type Resolver interface {
	Resolve(ctx context.Context, queries []string, progress ProgressSink) (*model.QueryResult, error)
}

// Fetcher writes a track to filePath. It must create the file only on success;
// a partial file left behind on failure is removed by the task.
type Fetcher interface {
	Fetch(ctx context.Context, filePath string, track model.Track, progress ProgressSink) error
}

// Tagger writes metadata into a downloaded file. Errors are logged and otherwise ignored.
type Tagger interface {
	Tag(ctx context.Context, filePath string, track model.Track) error
}

// Presenter is the user-facing side of SubmitQuery. Placement methods block
// until the user answers and return nil when the user aborted.
type Presenter interface {
	DefaultPlacement() PlacementDefaults
	PlaceSingle(ctx context.Context, track model.Track, suggestedPath string) *SinglePlacement
	PlaceBatch(ctx context.Context, result *model.QueryResult, defaults PlacementDefaults) *BatchPlacement
	ShowNothingFound()
	ShowError(err error)
}

// Downloader defines the interface for the download service.
type Downloader interface {
	SetUpdateCallback(func(model.DownloadTask))
	SetListCallback(func())
	SetProgressCallback(func(fraction float64, ok bool))

	SubmitQuery(ctx context.Context, text string) error
	Enqueue(track model.Track, filePath string) (*Task, error)

	Tasks() []*Task
	Snapshots() []model.DownloadTask
	Task(id string) (*Task, bool)
	Progress() (float64, bool)

	Cancel(id string) error
	Remove(id string) error
	Restart(id string) (*Task, error)
	RemoveCompleted()
	RemoveInactive()
	RestartFailed()
	CancelAll()

	// SetMaxParallelDownloads sets the maximum number of parallel downloads
	SetMaxParallelDownloads(max int)
}
