package ui

import (
	"fmt"
	"image/color"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/ytqueue/internal/model"
)

// TaskRow represents a compact task row widget
type TaskRow struct {
	widget.BaseWidget

	task         model.DownloadTask
	localization *Localization

	// UI components
	titleLabel    *widget.Label
	statusLabel   *widget.Label
	progressLabel *widget.Label
	elapsedLabel  *widget.Label
	errorLabel    *widget.Label

	// Action buttons
	actionBtn *widget.Button // cancel while running, restart once finished
	removeBtn *widget.Button
	revealBtn *widget.Button // reveal in file manager
	openBtn   *widget.Button // open file with default app (player)
	copyBtn   *widget.Button

	// Callbacks
	onCancel   func(taskID string)
	onRestart  func(taskID string)
	onRemove   func(taskID string)
	onReveal   func(filePath string)
	onOpen     func(filePath string)
	onCopyPath func(filePath string)
}

// NewTaskRow creates a new task row widget
func NewTaskRow(task model.DownloadTask, localization *Localization) *TaskRow {
	tr := &TaskRow{
		task:         task,
		localization: localization,
	}
	tr.ExtendBaseWidget(tr)
	tr.createUI()
	tr.updateFromTask()
	return tr
}

// SetCallbacks sets the action callbacks
func (tr *TaskRow) SetCallbacks(
	onCancel func(taskID string),
	onRestart func(taskID string),
	onRemove func(taskID string),
	onReveal func(filePath string),
	onOpen func(filePath string),
	onCopyPath func(filePath string),
) {
	tr.onCancel = onCancel
	tr.onRestart = onRestart
	tr.onRemove = onRemove
	tr.onReveal = onReveal
	tr.onOpen = onOpen
	tr.onCopyPath = onCopyPath
}

// UpdateTask updates the row with new task data
func (tr *TaskRow) UpdateTask(task model.DownloadTask) {
	tr.task = task
	tr.updateFromTask()
	tr.Refresh()
}

// Task returns the snapshot currently shown by the row
func (tr *TaskRow) Task() model.DownloadTask {
	return tr.task
}

// createUI creates the UI components
func (tr *TaskRow) createUI() {
	tr.titleLabel = widget.NewLabel("")
	tr.titleLabel.TextStyle = fyne.TextStyle{Bold: true}
	tr.titleLabel.Truncation = fyne.TextTruncateEllipsis
	tr.titleLabel.Alignment = fyne.TextAlignLeading

	tr.statusLabel = widget.NewLabel("")
	tr.statusLabel.Alignment = fyne.TextAlignTrailing
	tr.progressLabel = widget.NewLabel("")
	tr.progressLabel.Alignment = fyne.TextAlignTrailing
	tr.elapsedLabel = widget.NewLabel("")
	tr.elapsedLabel.Alignment = fyne.TextAlignLeading
	tr.elapsedLabel.TextStyle = fyne.TextStyle{Monospace: true}

	tr.errorLabel = widget.NewLabel("")
	tr.errorLabel.Importance = widget.DangerImportance
	tr.errorLabel.Truncation = fyne.TextTruncateEllipsis
	tr.errorLabel.Hide()

	// Read tr.task at click time; rows are recycled by the list
	tr.actionBtn = widget.NewButton(tr.localization.GetText(KeyCancel), func() {
		if tr.task.Status.IsFinished() {
			if tr.onRestart != nil {
				tr.onRestart(tr.task.ID)
			}
			return
		}
		if tr.onCancel != nil {
			tr.onCancel(tr.task.ID)
		}
	})
	tr.actionBtn.Importance = widget.MediumImportance

	tr.removeBtn = widget.NewButton(tr.localization.GetText(KeyRemove), func() {
		if tr.onRemove != nil {
			tr.onRemove(tr.task.ID)
		}
	})
	tr.removeBtn.Importance = widget.LowImportance

	tr.revealBtn = widget.NewButton(tr.localization.GetText(KeyReveal), func() {
		tr.withFilePath(tr.revealBtn, tr.onReveal)
	})
	tr.revealBtn.Importance = widget.MediumImportance

	tr.openBtn = widget.NewButton(tr.localization.GetText(KeyOpen), func() {
		tr.withFilePath(tr.openBtn, tr.onOpen)
	})
	tr.openBtn.Importance = widget.MediumImportance

	tr.copyBtn = widget.NewButton(tr.localization.GetText(KeyCopyPath), func() {
		tr.withFilePath(tr.copyBtn, tr.onCopyPath)
	})
	tr.copyBtn.Importance = widget.MediumImportance
}

// withFilePath runs action with the output path once the file exists
func (tr *TaskRow) withFilePath(source fyne.CanvasObject, action func(string)) {
	if action == nil {
		return
	}
	if !tr.hasOutput() {
		if c := fyne.CurrentApp().Driver().CanvasForObject(source); c != nil {
			widget.ShowPopUp(widget.NewLabel(tr.localization.GetText(KeyPathUnavailable)), c)
		}
		return
	}
	action(tr.task.FilePath)
}

// hasOutput reports whether the row's file has been written
func (tr *TaskRow) hasOutput() bool {
	return tr.task.Status == model.TaskStatusCompleted && tr.task.FilePath != ""
}

// updateFromTask updates UI components based on task state
func (tr *TaskRow) updateFromTask() {
	tr.titleLabel.SetText(cleanText(tr.task.GetDisplayTitle()))

	switch tr.task.Status {
	case model.TaskStatusFailed:
		tr.statusLabel.Importance = widget.DangerImportance
		tr.statusLabel.SetText(IconError + " " + tr.task.Status.String())
	case model.TaskStatusCompleted:
		tr.statusLabel.Importance = widget.SuccessImportance
		tr.statusLabel.SetText(IconDone + " " + tr.task.Status.String())
	case model.TaskStatusStarted:
		tr.statusLabel.Importance = widget.HighImportance
		tr.statusLabel.SetText(IconPlay + " " + tr.task.Status.String())
	case model.TaskStatusCreated:
		tr.statusLabel.Importance = widget.MediumImportance
		tr.statusLabel.SetText(IconPending + " " + tr.task.Status.String())
	case model.TaskStatusCanceled:
		tr.statusLabel.Importance = widget.WarningImportance
		tr.statusLabel.SetText(IconStopped + " " + tr.task.Status.String())
	default:
		tr.statusLabel.Importance = widget.MediumImportance
		tr.statusLabel.SetText(tr.task.Status.String())
	}

	// A completed row keeps no percent; the status already says it
	if tr.task.Status == model.TaskStatusCompleted {
		tr.progressLabel.SetText("")
	} else {
		tr.progressLabel.SetText(fmt.Sprintf(ProgressLabelFormat, tr.task.Percent()))
	}

	tr.elapsedLabel.SetText(tr.task.GetElapsedString())

	if tr.task.Status == model.TaskStatusFailed && tr.task.LastError != "" {
		tr.errorLabel.SetText(cleanText(tr.task.LastError))
		tr.errorLabel.Show()
	} else {
		tr.errorLabel.SetText("")
		tr.errorLabel.Hide()
	}

	tr.updateButtons()
}

// updateButtons updates button states based on task status
func (tr *TaskRow) updateButtons() {
	if tr.task.Status.IsFinished() {
		tr.actionBtn.SetText(tr.localization.GetText(KeyRestart))
	} else {
		tr.actionBtn.SetText(tr.localization.GetText(KeyCancel))
	}
	tr.actionBtn.Enable()
	tr.removeBtn.SetText(tr.localization.GetText(KeyRemove))

	tr.revealBtn.SetText(tr.localization.GetText(KeyReveal))
	tr.openBtn.SetText(tr.localization.GetText(KeyOpen))
	tr.copyBtn.SetText(tr.localization.GetText(KeyCopyPath))

	if tr.hasOutput() {
		tr.revealBtn.Enable()
		tr.openBtn.Enable()
		tr.copyBtn.Enable()
	} else {
		tr.revealBtn.Disable()
		tr.openBtn.Disable()
		tr.copyBtn.Disable()
	}
}

// cleanText flattens control whitespace so labels stay on one line
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	return strings.TrimSpace(s)
}

// CreateRenderer creates the widget renderer
func (tr *TaskRow) CreateRenderer() fyne.WidgetRenderer {
	return &taskRowRenderer{taskRow: tr}
}

// taskRowRenderer renders the task row widget
type taskRowRenderer struct {
	taskRow *TaskRow
	layout  *fyne.Container
}

// Layout arranges the components
func (r *taskRowRenderer) Layout(size fyne.Size) {
	if r.layout == nil {
		r.createLayout()
	}
	if size.Width < RowMinWidth {
		size.Width = RowMinWidth
	}
	if size.Height < RowMinHeight {
		size.Height = RowMinHeight
	}
	r.layout.Resize(size)
}

// MinSize returns the minimum size
func (r *taskRowRenderer) MinSize() fyne.Size {
	if r.layout != nil {
		return r.layout.MinSize()
	}
	return fyne.NewSize(RowMinWidth, RowMinHeight)
}

// Refresh refreshes the renderer
func (r *taskRowRenderer) Refresh() {
	if r.layout == nil {
		r.createLayout()
	}
	r.layout.Refresh()
}

// Objects returns the container objects
func (r *taskRowRenderer) Objects() []fyne.CanvasObject {
	if r.layout == nil {
		r.createLayout()
	}
	return []fyne.CanvasObject{r.layout}
}

// Destroy cleans up the renderer
func (r *taskRowRenderer) Destroy() {}

// createLayout creates the main layout
func (r *taskRowRenderer) createLayout() {
	tr := r.taskRow

	// Helper to fix width using a transparent rectangle underneath
	fixedWidth := func(w float32, obj fyne.CanvasObject) fyne.CanvasObject {
		spacer := canvas.NewRectangle(color.RGBA{0, 0, 0, 0})
		spacer.SetMinSize(fyne.NewSize(w, obj.MinSize().Height))
		return container.NewStack(spacer, obj)
	}

	// Order: status (row1), elapsed then percent (row2)
	info := container.NewVBox(
		fixedWidth(StatusLabelWidth, tr.statusLabel),
		container.NewHBox(
			fixedWidth(ElapsedLabelWidth, tr.elapsedLabel),
			fixedWidth(PercentLabelWidth, tr.progressLabel),
		),
	)

	actionRow := container.NewHBox(
		tr.actionBtn,
		tr.revealBtn,
		tr.openBtn,
		tr.copyBtn,
		tr.removeBtn,
	)

	// Buttons flush to the right edge, info next to them, title takes the rest
	rightCluster := container.NewBorder(nil, nil, nil, actionRow, info)
	left := container.NewVBox(tr.titleLabel, tr.errorLabel)
	mainContent := container.NewBorder(nil, nil, nil, rightCluster, left)

	r.layout = container.NewVBox(
		mainContent,
		widget.NewSeparator(),
	)
	r.layout.Resize(fyne.NewSize(RowMinWidth, RowDefaultH))
}
