package ui

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/test"

	"github.com/ytget/ytqueue/internal/config"
	"github.com/ytget/ytqueue/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func playlistResult() *model.QueryResult {
	return &model.QueryResult{
		Kind:  model.QueryResultPlaylist,
		Title: "Mix",
		Tracks: []model.Track{
			{ID: "aaaaaaaaaaa", Title: "First", Author: "A", Duration: 185 * time.Second},
			{ID: "bbbbbbbbbbb", Title: "Second", Author: "B"},
			{ID: "ccccccccccc", Title: "Third", Author: "C"},
		},
	}
}

func TestBuildBatchPlacement(t *testing.T) {
	result := playlistResult()

	placement := buildBatchPlacement(result, []bool{true, false, true}, " /music ", "m4a", " $num - $title ", true)

	if len(placement.Tracks) != 2 {
		t.Fatalf("Expected 2 selected tracks, got %d", len(placement.Tracks))
	}
	if placement.Tracks[0].ID != "aaaaaaaaaaa" || placement.Tracks[1].ID != "ccccccccccc" {
		t.Errorf("Selected tracks should keep result order, got %v", placement.Tracks)
	}
	if placement.Directory != "/music" {
		t.Errorf("Expected trimmed directory, got %q", placement.Directory)
	}
	if placement.Container != model.ContainerM4A {
		t.Errorf("Expected m4a, got %s", placement.Container)
	}
	if placement.FileNameTemplate != "$num - $title" {
		t.Errorf("Expected trimmed template, got %q", placement.FileNameTemplate)
	}
	if !placement.SkipExisting {
		t.Error("Expected skip existing")
	}
	if err := placement.Validate(); err != nil {
		t.Errorf("Expected valid placement, got %v", err)
	}
}

func TestBuildBatchPlacement_NothingSelected(t *testing.T) {
	placement := buildBatchPlacement(playlistResult(), []bool{false, false, false}, "/music", "mp3", "$title", false)

	if err := placement.Validate(); err == nil {
		t.Error("A placement without tracks should not validate")
	}
}

func TestInitialSelection(t *testing.T) {
	result := playlistResult()
	for i, on := range initialSelection(result) {
		if !on {
			t.Errorf("Playlist track %d should start selected", i)
		}
	}

	result.Kind = model.QueryResultSearch
	got := initialSelection(result)
	want := []bool{true, false, false}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Search selection = %v, want %v", got, want)
			break
		}
	}
}

func TestTrackLabel(t *testing.T) {
	result := playlistResult()

	if got := trackLabel(result, 0); got != "1. A - First · 03:05" {
		t.Errorf("Unexpected playlist label %q", got)
	}

	result.Kind = model.QueryResultAggregate
	if got := trackLabel(result, 1); got != "B - Second" {
		t.Errorf("Unexpected aggregate label %q", got)
	}
}

func TestDisplayError(t *testing.T) {
	sourceErr := model.NewSourceError("Video is private", errors.New("status LOGIN_REQUIRED"))

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"source error", sourceErr, "Video is private"},
		{"wrapped source error", fmt.Errorf("resolve: %w", sourceErr), "Video is private"},
		{"other error", errors.New("disk full"), "disk full"},
	}

	for _, tt := range tests {
		if got := displayError(tt.err).Error(); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.name, tt.want, got)
		}
	}
}

// fakeWriter stands in for the writer a save dialog hands back
type fakeWriter struct {
	bytes.Buffer
	uri    fyne.URI
	closed bool
}

func (w *fakeWriter) URI() fyne.URI { return w.uri }
func (w *fakeWriter) Close() error  { w.closed = true; return nil }

func TestChosenPath(t *testing.T) {
	dir := t.TempDir()
	emptyFile := filepath.Join(dir, "Song")
	if err := os.WriteFile(emptyFile, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	writer := &fakeWriter{uri: storage.NewFileURI(emptyFile)}
	path := chosenPath(writer, filepath.Join(dir, "Suggested.m4a"))

	if path != emptyFile+".m4a" {
		t.Errorf("Expected suggested extension appended, got %s", path)
	}
	if !writer.closed {
		t.Error("Writer should be closed")
	}
	if _, err := os.Stat(emptyFile); !os.IsNotExist(err) {
		t.Error("Empty file created by the dialog should be removed")
	}
}

func TestChosenPath_KeepsKnownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Song.webm")
	writer := &fakeWriter{uri: storage.NewFileURI(path)}

	if got := chosenPath(writer, "/music/Song.mp3"); got != path {
		t.Errorf("Expected %s, got %s", path, got)
	}
}

func TestPresenter_DefaultPlacement(t *testing.T) {
	app := test.NewApp()
	settings := config.NewSettings(app)
	settings.SetDownloadDirectory("/music")
	settings.SetContainer(model.ContainerWebM)

	presenter := NewPresenter(test.NewWindow(nil), settings, NewLocalization(), discardLogger())
	defaults := presenter.DefaultPlacement()

	if defaults.Directory != "/music" || defaults.Container != model.ContainerWebM {
		t.Errorf("Unexpected defaults %+v", defaults)
	}
}

func TestPresenter_PlaceBatchCanceled(t *testing.T) {
	app := test.NewApp()
	settings := config.NewSettings(app)
	presenter := NewPresenter(test.NewWindow(nil), settings, NewLocalization(), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if placement := presenter.PlaceBatch(ctx, playlistResult(), settings.PlacementDefaults()); placement != nil {
		t.Errorf("Canceled placement should be nil, got %+v", placement)
	}
}
