package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/ytqueue/internal/config"
	"github.com/ytget/ytqueue/internal/download"
	"github.com/ytget/ytqueue/internal/model"
)

// Presenter asks the user where resolved tracks go. Its methods are called
// from SubmitQuery goroutines and block until the matching dialog closes.
type Presenter struct {
	window       fyne.Window
	settings     *config.Settings
	localization *Localization
	logger       *slog.Logger
}

var _ download.Presenter = (*Presenter)(nil)

// NewPresenter creates a dialog-backed presenter for window
func NewPresenter(window fyne.Window, settings *config.Settings, localization *Localization, logger *slog.Logger) *Presenter {
	return &Presenter{
		window:       window,
		settings:     settings,
		localization: localization,
		logger:       logger,
	}
}

// DefaultPlacement returns the placement preferences saved in settings
func (p *Presenter) DefaultPlacement() download.PlacementDefaults {
	return p.settings.PlacementDefaults()
}

// PlaceSingle shows a save dialog prefilled with suggestedPath
func (p *Presenter) PlaceSingle(ctx context.Context, track model.Track, suggestedPath string) *download.SinglePlacement {
	p.logger.Debug("Asking for save path", "track_id", track.ID, "suggested", suggestedPath)

	answer := make(chan *download.SinglePlacement, 1)
	var saveDialog *dialog.FileDialog

	fyne.Do(func() {
		saveDialog = dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
			if err != nil {
				p.logger.Warn("Save dialog failed", "error", err)
				answer <- nil
				return
			}
			if writer == nil {
				answer <- nil
				return
			}
			answer <- &download.SinglePlacement{
				FilePath: chosenPath(writer, suggestedPath),
			}
		}, p.window)

		saveDialog.SetFileName(filepath.Base(suggestedPath))
		if lister, err := storage.ListerForURI(storage.NewFileURI(filepath.Dir(suggestedPath))); err == nil {
			saveDialog.SetLocation(lister)
		}
		saveDialog.Show()
	})

	placement, ok := await(ctx, answer, func() {
		if saveDialog != nil {
			saveDialog.Hide()
		}
	})
	if !ok {
		return nil
	}
	return placement
}

// chosenPath closes the writer the save dialog opened and returns its path.
// The empty file the dialog created is removed; a missing or unknown
// extension gets the suggested one.
func chosenPath(writer fyne.URIWriteCloser, suggestedPath string) string {
	path := writer.URI().Path()
	_ = writer.Close()
	if info, err := os.Stat(path); err == nil && info.Size() == 0 {
		_ = os.Remove(path)
	}

	if model.ContainerFromPath(path) == "" {
		path += filepath.Ext(suggestedPath)
	}
	return path
}

// PlaceBatch shows the batch dialog: which tracks to take, the directory,
// container, file name template and skip-existing switch
func (p *Presenter) PlaceBatch(ctx context.Context, result *model.QueryResult, defaults download.PlacementDefaults) *download.BatchPlacement {
	answer := make(chan *download.BatchPlacement, 1)
	var batchDialog *dialog.ConfirmDialog

	fyne.Do(func() {
		form := newBatchForm(result, defaults, p.localization, p.window)
		title := fmt.Sprintf(p.localization.GetText(KeyDownloadTracks), len(result.Tracks))
		if result.Title != "" {
			title = result.Title
		}

		batchDialog = dialog.NewCustomConfirm(
			title,
			p.localization.GetText(KeyDownload),
			p.localization.GetText(KeyCancel),
			form.content,
			func(confirmed bool) {
				if !confirmed {
					answer <- nil
					return
				}
				answer <- form.placement()
			},
			p.window,
		)
		batchDialog.Resize(fyne.NewSize(BatchDialogWidth, BatchDialogHeight))
		batchDialog.Show()
	})

	placement, ok := await(ctx, answer, func() {
		if batchDialog != nil {
			batchDialog.Hide()
		}
	})
	if !ok {
		return nil
	}
	return placement
}

// ShowNothingFound tells the user the query produced no tracks
func (p *Presenter) ShowNothingFound() {
	fyne.Do(func() {
		dialog.ShowInformation(
			p.localization.GetText(KeyNothingFound),
			p.localization.GetText(KeyNothingFoundHint),
			p.window,
		)
	})
}

// ShowError shows err; source failures show their short message only
func (p *Presenter) ShowError(err error) {
	if err == nil {
		return
	}
	fyne.Do(func() {
		dialog.ShowError(displayError(err), p.window)
	})
}

// displayError strips the wrapped diagnostic chain from source failures
func displayError(err error) error {
	var sourceErr *model.SourceError
	if errors.As(err, &sourceErr) {
		return errors.New(sourceErr.Message)
	}
	return err
}

// await waits for the dialog answer or ctx. When ctx ends first the dialog
// is dismissed on the UI goroutine and ok is false.
func await[T any](ctx context.Context, answer <-chan T, dismiss func()) (value T, ok bool) {
	select {
	case value = <-answer:
		return value, true
	case <-ctx.Done():
		fyne.Do(dismiss)
		return value, false
	}
}

// batchForm holds the widgets of the batch placement dialog
type batchForm struct {
	result   *model.QueryResult
	selected []bool

	content         fyne.CanvasObject
	directoryEntry  *widget.Entry
	containerSelect *widget.Select
	templateEntry   *widget.Entry
	skipCheck       *widget.Check
}

// newBatchForm builds the dialog body prefilled with defaults
func newBatchForm(result *model.QueryResult, defaults download.PlacementDefaults, localization *Localization, window fyne.Window) *batchForm {
	f := &batchForm{
		result:   result,
		selected: initialSelection(result),
	}

	var trackList *widget.List
	trackList = widget.NewList(
		func() int { return len(f.result.Tracks) },
		func() fyne.CanvasObject { return widget.NewCheck("", nil) },
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			check := obj.(*widget.Check)
			check.OnChanged = nil
			check.SetText(trackLabel(f.result, id))
			check.SetChecked(f.selected[id])
			check.OnChanged = func(on bool) { f.selected[id] = on }
		},
	)

	selectAll := widget.NewCheck(localization.GetText(KeySelectAll), nil)
	selectAll.SetChecked(result.Kind != model.QueryResultSearch)
	selectAll.OnChanged = func(on bool) {
		for i := range f.selected {
			f.selected[i] = on
		}
		trackList.Refresh()
	}

	f.directoryEntry = widget.NewEntry()
	f.directoryEntry.SetText(defaults.Directory)
	browseBtn := widget.NewButton(localization.GetText(KeyBrowse), func() {
		dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil || uri == nil {
				return
			}
			f.directoryEntry.SetText(uri.Path())
		}, window)
	})

	f.containerSelect = widget.NewSelect(containerOptions(), nil)
	f.containerSelect.SetSelected(string(defaults.Container))

	f.templateEntry = widget.NewEntry()
	f.templateEntry.SetText(string(defaults.FileNameTemplate))
	f.templateEntry.SetPlaceHolder(string(model.DefaultFileNameTemplate))

	f.skipCheck = widget.NewCheck(localization.GetText(KeySkipExisting), nil)
	f.skipCheck.SetChecked(defaults.SkipExisting)

	hint := widget.NewLabel(localization.GetText(KeyTemplateHint))
	hint.TextStyle = fyne.TextStyle{Italic: true}

	options := container.NewVBox(
		widget.NewLabel(localization.GetText(KeyDownloadDirectory)+":"),
		container.NewBorder(nil, nil, nil, browseBtn, f.directoryEntry),
		widget.NewLabel(localization.GetText(KeyContainer)+":"),
		f.containerSelect,
		widget.NewLabel(localization.GetText(KeyFilenameTemplate)+":"),
		f.templateEntry,
		hint,
		f.skipCheck,
	)

	f.content = container.NewBorder(selectAll, options, nil, nil, trackList)
	return f
}

// placement turns the current form state into a batch placement
func (f *batchForm) placement() *download.BatchPlacement {
	return buildBatchPlacement(
		f.result,
		f.selected,
		f.directoryEntry.Text,
		f.containerSelect.Selected,
		f.templateEntry.Text,
		f.skipCheck.Checked,
	)
}

// initialSelection checks every track, except for search results where
// only the best match starts checked
func initialSelection(result *model.QueryResult) []bool {
	selected := make([]bool, len(result.Tracks))
	for i := range selected {
		selected[i] = result.Kind != model.QueryResultSearch || i == 0
	}
	return selected
}

// buildBatchPlacement collects the selected tracks in result order.
// Validation is left to the caller.
func buildBatchPlacement(result *model.QueryResult, selected []bool, directory, containerName, template string, skipExisting bool) *download.BatchPlacement {
	tracks := make([]model.Track, 0, len(result.Tracks))
	for i, track := range result.Tracks {
		if i < len(selected) && selected[i] {
			tracks = append(tracks, track)
		}
	}
	return &download.BatchPlacement{
		Tracks:           tracks,
		Directory:        strings.TrimSpace(directory),
		Container:        model.Container(containerName),
		FileNameTemplate: model.FileNameTemplate(strings.TrimSpace(template)),
		SkipExisting:     skipExisting,
	}
}

// trackLabel renders one line of the batch track list
func trackLabel(result *model.QueryResult, index int) string {
	track := result.Tracks[index]
	label := cleanText(track.DisplayTitle())
	if result.Kind.IsOrdered() {
		label = fmt.Sprintf("%d. %s", index+1, label)
	}
	if track.Duration > 0 {
		label += MiddleDotSeparator + model.FormatDuration(track.Duration)
	}
	return label
}

// containerOptions lists the containers as select options
func containerOptions() []string {
	options := make([]string, 0, len(model.Containers))
	for _, c := range model.Containers {
		options = append(options, string(c))
	}
	return options
}
