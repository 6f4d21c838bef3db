package ui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"golang.org/x/time/rate"

	"github.com/ytget/ytqueue/internal/config"
	"github.com/ytget/ytqueue/internal/download"
	"github.com/ytget/ytqueue/internal/model"
	"github.com/ytget/ytqueue/internal/platform"
)

// RootUI represents the main UI structure
type RootUI struct {
	window       fyne.Window
	app          fyne.App
	queryEntry   *widget.Entry
	downloadBtn  *widget.Button
	taskList     *widget.List
	downloadSvc  download.Downloader
	settings     *config.Settings
	localization *Localization
	logger       *slog.Logger

	// Submissions are canceled when the window goes away
	ctx    context.Context
	cancel context.CancelFunc

	tasksMutex sync.RWMutex
	tasks      []model.DownloadTask

	// Number of SubmitQuery calls still resolving or waiting for placement
	pendingQueries atomic.Int32

	// Progress-only updates are throttled; state changes always redraw
	listRefresh     rate.Sometimes
	progressRefresh rate.Sometimes

	// Aggregate progress panel
	progressContainer *fyne.Container
	progressBar       *widget.ProgressBar
	progressSpinner   *widget.ProgressBarInfinite

	// Notification panel
	notificationContainer *fyne.Container
	notificationLabel     *widget.Label
}

// NewRootUI creates and initializes the main UI
func NewRootUI(window fyne.Window, app fyne.App, downloadSvc download.Downloader, settings *config.Settings, localization *Localization, logger *slog.Logger) *RootUI {
	ctx, cancel := context.WithCancel(context.Background())

	ui := &RootUI{
		window:          window,
		app:             app,
		downloadSvc:     downloadSvc,
		settings:        settings,
		localization:    localization,
		logger:          logger,
		ctx:             ctx,
		cancel:          cancel,
		listRefresh:     rate.Sometimes{Interval: UIRefreshInterval},
		progressRefresh: rate.Sometimes{Interval: UIRefreshInterval},
	}

	window.SetTitle(localization.GetText(KeyAppTitle))

	ui.setupUI()

	ui.downloadSvc.SetUpdateCallback(ui.onTaskUpdate)
	ui.downloadSvc.SetListCallback(ui.onListChanged)
	ui.downloadSvc.SetProgressCallback(ui.onProgress)
	ui.reloadTasks()

	logger.Debug("UI setup completed")
	return ui
}

// Close cancels pending submissions and their open dialogs
func (ui *RootUI) Close() {
	ui.cancel()
}

// setupUI creates and arranges all UI components
func (ui *RootUI) setupUI() {
	ui.createMenu()

	// Multi-line query box: one link per line
	ui.queryEntry = widget.NewMultiLineEntry()
	ui.queryEntry.SetPlaceHolder(ui.localization.GetText(KeyEnterQuery))
	ui.queryEntry.SetMinRowsVisible(QueryEntryLines)
	ui.queryEntry.Wrapping = fyne.TextWrapOff

	ui.downloadBtn = widget.NewButton(ui.localization.GetText(KeyDownload), ui.onDownloadClick)
	ui.downloadBtn.Importance = widget.HighImportance

	settingsBtn := widget.NewButton(IconSettings, ui.onShowSettings)
	settingsBtn.Importance = widget.LowImportance

	logoImage := canvas.NewImageFromResource(LoadLogoResource())
	logoImage.SetMinSize(fyne.NewSize(LogoSize, LogoSize))
	logoImage.FillMode = canvas.ImageFillContain

	topPanel := container.NewBorder(nil, nil,
		container.NewVBox(logoImage, settingsBtn),
		container.NewVBox(ui.downloadBtn),
		ui.queryEntry,
	)

	// Notification panel under the query box (hidden by default)
	ui.notificationLabel = widget.NewLabel("")
	ui.notificationLabel.Alignment = fyne.TextAlignLeading
	ui.notificationContainer = container.NewPadded(ui.notificationLabel)
	ui.notificationContainer.Hide()

	// Aggregate progress: determinate bar while sources report, infinite bar
	// while a query is pending without any source
	ui.progressBar = widget.NewProgressBar()
	ui.progressSpinner = widget.NewProgressBarInfinite()
	ui.progressSpinner.Hide()
	ui.progressContainer = container.NewStack(ui.progressBar, ui.progressSpinner)
	ui.progressContainer.Hide()

	topCombined := container.NewVBox(topPanel, ui.notificationContainer, ui.progressContainer)

	ui.taskList = widget.NewList(
		ui.taskCount,
		ui.createTaskItem,
		ui.updateTaskItem,
	)

	content := container.NewBorder(
		topCombined, // top
		nil,         // bottom
		nil,         // left
		nil,         // right
		ui.taskList, // center
	)

	ui.window.SetContent(content)
}

// createMenu creates the application menu
func (ui *RootUI) createMenu() {
	text := ui.localization.GetText

	settingsItem := fyne.NewMenuItem(text(KeySettings), ui.onShowSettings)

	// Bulk actions over the whole collection
	tasksMenu := fyne.NewMenu(text(KeyTasks),
		fyne.NewMenuItem(text(KeyRemoveCompleted), ui.downloadSvc.RemoveCompleted),
		fyne.NewMenuItem(text(KeyRemoveInactive), ui.downloadSvc.RemoveInactive),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem(text(KeyRestartFailed), ui.downloadSvc.RestartFailed),
		fyne.NewMenuItem(text(KeyCancelAll), ui.downloadSvc.CancelAll),
	)

	languageMenu := fyne.NewMenu(text(KeyLanguage))
	for code, name := range ui.localization.GetAvailableLanguages() {
		langCode := code
		langItem := fyne.NewMenuItem(name, func() {
			ui.onLanguageChange(langCode)
		})
		langItem.Checked = ui.localization.GetCurrentLanguage() == code
		languageMenu.Items = append(languageMenu.Items, langItem)
	}

	ui.window.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu(text(KeyFile), settingsItem),
		tasksMenu,
		languageMenu,
	))
}

// onLanguageChange handles language change
func (ui *RootUI) onLanguageChange(langCode string) {
	ui.localization.SetLanguage(langCode)
	ui.settings.SetLanguage(langCode)

	ui.refreshUITexts()
	// Recreate menu to update labels and checkmarks
	ui.createMenu()
}

// refreshUITexts updates all UI texts with current language
func (ui *RootUI) refreshUITexts() {
	ui.window.SetTitle(ui.localization.GetText(KeyAppTitle))
	ui.queryEntry.SetPlaceHolder(ui.localization.GetText(KeyEnterQuery))
	ui.downloadBtn.SetText(ui.localization.GetText(KeyDownload))

	// Rows pick up button texts on refresh
	ui.taskList.Refresh()
}

// onDownloadClick submits the query box in the background
func (ui *RootUI) onDownloadClick() {
	text := strings.TrimSpace(ui.queryEntry.Text)
	if text == "" {
		ui.showNotification(ui.localization.GetText(KeyPleaseEnterQuery))
		return
	}

	ui.queryEntry.SetText("")
	ui.pendingQueries.Add(1)
	ui.showNotification(ui.localization.GetText(KeyResolving))
	ui.updateProgress()

	go ui.submit(text)
}

// submit runs one query through the service; errors were already shown by the presenter
func (ui *RootUI) submit(text string) {
	defer func() {
		if ui.pendingQueries.Add(-1) == 0 {
			ui.hideNotification()
		}
		ui.updateProgress()
	}()

	if err := ui.downloadSvc.SubmitQuery(ui.ctx, text); err != nil && !errors.Is(err, context.Canceled) {
		ui.logger.Warn("Query submission failed", "error", err)
	}
}

// showNotification displays a message in the notification panel under the query box
func (ui *RootUI) showNotification(message string) {
	fyne.Do(func() {
		ui.notificationLabel.SetText(message)
		ui.notificationContainer.Show()
	})
}

// hideNotification hides the notification panel
func (ui *RootUI) hideNotification() {
	fyne.Do(func() {
		ui.notificationContainer.Hide()
	})
}

// onShowSettings shows the settings dialog
func (ui *RootUI) onShowSettings() {
	ShowSettingsDialog(ui.window, ui.settings, ui.localization, ui.onSettingsSaved)
}

// onSettingsSaved applies settings that take effect without restart
func (ui *RootUI) onSettingsSaved() {
	ui.downloadSvc.SetMaxParallelDownloads(ui.settings.GetMaxParallelDownloads())

	if lang := ui.settings.GetLanguage(); lang != ui.localization.GetCurrentLanguage() {
		ui.onLanguageChange(lang)
	}
	ui.showTransient(ui.localization.GetText(KeySettingsSaved))
}

// taskCount returns the number of rows in the task list
func (ui *RootUI) taskCount() int {
	ui.tasksMutex.RLock()
	defer ui.tasksMutex.RUnlock()
	return len(ui.tasks)
}

// createTaskItem creates a new task item widget
func (ui *RootUI) createTaskItem() fyne.CanvasObject {
	taskRow := NewTaskRow(model.DownloadTask{Status: model.TaskStatusCreated}, ui.localization)
	taskRow.SetCallbacks(
		ui.onCancelTask,
		ui.onRestartTask,
		ui.onRemoveTask,
		ui.onRevealFile,
		ui.onOpenFile,
		ui.onCopyPath,
	)
	return taskRow
}

// updateTaskItem binds a recycled row to the task at id
func (ui *RootUI) updateTaskItem(id widget.ListItemID, item fyne.CanvasObject) {
	ui.tasksMutex.RLock()
	if id < 0 || id >= len(ui.tasks) {
		ui.tasksMutex.RUnlock()
		return
	}
	task := ui.tasks[id]
	ui.tasksMutex.RUnlock()

	if taskRow, ok := item.(*TaskRow); ok {
		taskRow.UpdateTask(task)
	}
}

// reloadTasks replaces the local rows with the service's ordered snapshots
func (ui *RootUI) reloadTasks() {
	snapshots := ui.downloadSvc.Snapshots()
	ui.tasksMutex.Lock()
	ui.tasks = snapshots
	ui.tasksMutex.Unlock()
}

// refreshList redraws the task list on the UI goroutine
func (ui *RootUI) refreshList() {
	fyne.Do(func() {
		ui.taskList.Refresh()
	})
}

// onListChanged handles tasks being added, replaced or removed
func (ui *RootUI) onListChanged() {
	ui.reloadTasks()
	ui.refreshList()
}

// onTaskUpdate handles task updates from the download service
func (ui *RootUI) onTaskUpdate(task model.DownloadTask) {
	var previous model.TaskStatus
	found := false

	ui.tasksMutex.Lock()
	for i := range ui.tasks {
		if ui.tasks[i].ID == task.ID {
			previous = ui.tasks[i].Status
			ui.tasks[i] = task
			found = true
			break
		}
	}
	ui.tasksMutex.Unlock()

	if !found {
		// The list callback has not caught up yet
		ui.onListChanged()
		return
	}

	if task.Status != previous {
		ui.refreshList()
	} else {
		ui.listRefresh.Do(ui.refreshList)
	}

	if task.Status == model.TaskStatusCompleted && previous != model.TaskStatusCompleted {
		ui.sendCompletionNotification(task)
	}
}

// onProgress handles aggregate progress changes
func (ui *RootUI) onProgress(fraction float64, ok bool) {
	if ok && fraction < 1 {
		ui.progressRefresh.Do(func() {
			fyne.Do(func() { ui.showProgress(fraction, ok) })
		})
		return
	}
	fyne.Do(func() { ui.showProgress(fraction, ok) })
}

// updateProgress redraws the progress panel from the service's current state
func (ui *RootUI) updateProgress() {
	fraction, ok := ui.downloadSvc.Progress()
	fyne.Do(func() { ui.showProgress(fraction, ok) })
}

// showProgress must run on the UI goroutine
func (ui *RootUI) showProgress(fraction float64, ok bool) {
	switch {
	case ok:
		ui.progressSpinner.Hide()
		ui.progressBar.SetValue(fraction)
		ui.progressBar.Show()
		ui.progressContainer.Show()
	case ui.pendingQueries.Load() > 0:
		ui.progressBar.Hide()
		ui.progressSpinner.Show()
		ui.progressContainer.Show()
	default:
		ui.progressContainer.Hide()
	}
}

// onCancelTask cancels a task without removing it
func (ui *RootUI) onCancelTask(taskID string) {
	if err := ui.downloadSvc.Cancel(taskID); err != nil {
		ui.logger.Warn("Cancel failed", "task_id", taskID, "error", err)
		dialog.ShowError(err, ui.window)
	}
}

// onRestartTask replaces a finished task with a fresh one
func (ui *RootUI) onRestartTask(taskID string) {
	if _, err := ui.downloadSvc.Restart(taskID); err != nil {
		ui.logger.Warn("Restart failed", "task_id", taskID, "error", err)
		dialog.ShowError(err, ui.window)
	}
}

// onRemoveTask handles removing a task from the list
func (ui *RootUI) onRemoveTask(taskID string) {
	if err := ui.downloadSvc.Remove(taskID); err != nil {
		ui.logger.Warn("Remove failed", "task_id", taskID, "error", err)
		dialog.ShowError(err, ui.window)
	}
}

// onRevealFile handles revealing a file in the system file manager
func (ui *RootUI) onRevealFile(filePath string) {
	if err := platform.RevealInFileManager(filePath); err != nil {
		ui.logger.Warn("Reveal failed", "path", filePath, "error", err)
		ui.showTransient(ui.localization.GetText(KeyErrorOpeningFile) + ": " + err.Error())
	}
}

// onOpenFile handles opening a downloaded file with the default application
func (ui *RootUI) onOpenFile(filePath string) {
	if err := platform.OpenFileWithDefaultApp(filePath); err != nil {
		ui.logger.Warn("Open failed", "path", filePath, "error", err)
		ui.showTransient(ui.localization.GetText(KeyErrorOpeningFile) + ": " + err.Error())
	}
}

// onCopyPath handles copying file path to clipboard
func (ui *RootUI) onCopyPath(filePath string) {
	ui.app.Clipboard().SetContent(filePath)
	ui.showTransient(ui.localization.GetText(KeyPathCopied))
}

// showTransient shows a small popup that hides itself
func (ui *RootUI) showTransient(message string) {
	popup := widget.NewPopUp(widget.NewLabel(message), ui.window.Canvas())
	popup.Show()
	time.AfterFunc(TooltipAutoHide, func() {
		fyne.Do(popup.Hide)
	})
}

// sendCompletionNotification sends a system notification for completed downloads
func (ui *RootUI) sendCompletionNotification(task model.DownloadTask) {
	fyne.Do(func() {
		ui.app.SendNotification(&fyne.Notification{
			Title:   ui.localization.GetText(KeyDownloadCompleted),
			Content: task.GetDisplayTitle(),
		})
		ui.showToastNotification(task)
	})
}

// showToastNotification shows an in-app toast notification with action buttons
func (ui *RootUI) showToastNotification(task model.DownloadTask) {
	titleLabel := widget.NewLabel(ui.localization.GetText(KeyDownloadCompleted))
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}

	messageLabel := widget.NewLabel(cleanText(task.GetDisplayTitle()))
	messageLabel.Truncation = fyne.TextTruncateEllipsis

	revealBtn := widget.NewButton(ui.localization.GetText(KeyReveal), func() {
		ui.onRevealFile(task.FilePath)
	})
	revealBtn.Importance = widget.HighImportance

	openBtn := widget.NewButton(ui.localization.GetText(KeyOpen), func() {
		ui.onOpenFile(task.FilePath)
	})
	openBtn.Importance = widget.MediumImportance

	var toastPopup *widget.PopUp
	closeBtn := widget.NewButton(IconClose, func() {
		toastPopup.Hide()
	})
	closeBtn.Importance = widget.LowImportance

	header := container.NewBorder(nil, nil, titleLabel, closeBtn)
	actions := container.NewHBox(revealBtn, openBtn)
	content := container.NewVBox(
		header,
		messageLabel,
		actions,
	)

	toastPopup = widget.NewPopUp(content, ui.window.Canvas())

	// Top-right corner
	canvasSize := ui.window.Canvas().Size()
	toastSize := fyne.NewSize(ToastWidth, ToastHeight)
	toastPos := fyne.NewPos(canvasSize.Width-toastSize.Width-ToastMargin, ToastMargin)

	toastPopup.Resize(toastSize)
	toastPopup.ShowAtPosition(toastPos)

	time.AfterFunc(ToastAutoHide, func() {
		fyne.Do(toastPopup.Hide)
	})
}
