package ui

import (
	"sort"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/ytqueue/internal/config"
	"github.com/ytget/ytqueue/internal/model"
)

// SettingsDialog represents the settings configuration dialog
type SettingsDialog struct {
	settings     *config.Settings
	localization *Localization
	window       fyne.Window
	dialog       *dialog.ConfirmDialog
	onSaved      func()

	// UI components
	downloadDirEntry *widget.Entry
	maxParallelEntry *widget.Entry
	containerSelect  *widget.Select
	filenameEntry    *widget.Entry
	skipExisting     *widget.Check
	tagFiles         *widget.Check
	enrichMetadata   *widget.Check
	ffmpegEntry      *widget.Entry
	languageSelect   *widget.Select

	// language display name -> code
	languageCodes map[string]string
}

// NewSettingsDialog creates a new settings dialog. onSaved runs after the
// values were written to settings.
func NewSettingsDialog(settings *config.Settings, localization *Localization, window fyne.Window, onSaved func()) *SettingsDialog {
	sd := &SettingsDialog{
		settings:     settings,
		localization: localization,
		window:       window,
		onSaved:      onSaved,
	}

	sd.createUI()
	return sd
}

// ShowSettingsDialog builds and shows the settings dialog
func ShowSettingsDialog(window fyne.Window, settings *config.Settings, localization *Localization, onSaved func()) {
	NewSettingsDialog(settings, localization, window, onSaved).Show()
}

// Show displays the settings dialog
func (sd *SettingsDialog) Show() {
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

// createUI creates the settings dialog UI
func (sd *SettingsDialog) createUI() {
	text := sd.localization.GetText

	// Download directory selection
	sd.downloadDirEntry = widget.NewEntry()
	browseDirBtn := widget.NewButton(text(KeyBrowse), sd.onBrowseDirectory)
	downloadDirRow := container.NewBorder(nil, nil, nil, browseDirBtn, sd.downloadDirEntry)

	// Max parallel downloads
	sd.maxParallelEntry = widget.NewEntry()
	sd.maxParallelEntry.SetPlaceHolder(strconv.Itoa(config.MinMaxParallel) + "-" + strconv.Itoa(config.MaxMaxParallel))
	sd.maxParallelEntry.Validator = validateMaxParallel

	sd.containerSelect = widget.NewSelect(containerOptions(), nil)

	sd.filenameEntry = widget.NewEntry()
	sd.filenameEntry.SetPlaceHolder(string(model.DefaultFileNameTemplate))
	templateHint := widget.NewLabel(text(KeyTemplateHint))
	templateHint.TextStyle = fyne.TextStyle{Italic: true}

	sd.skipExisting = widget.NewCheck(text(KeySkipExisting), nil)
	sd.tagFiles = widget.NewCheck(text(KeyTagFiles), nil)
	sd.enrichMetadata = widget.NewCheck(text(KeyEnrichMetadata), nil)

	// FFmpeg binary; empty means the one on PATH
	sd.ffmpegEntry = widget.NewEntry()
	sd.ffmpegEntry.SetPlaceHolder("ffmpeg")
	browseFFmpegBtn := widget.NewButton(text(KeyBrowse), sd.onBrowseFFmpeg)
	ffmpegRow := container.NewBorder(nil, nil, nil, browseFFmpegBtn, sd.ffmpegEntry)
	ffmpegHint := widget.NewLabel(text(KeyRestartRequired))
	ffmpegHint.TextStyle = fyne.TextStyle{Italic: true}

	// Language selection shows display names, stores codes
	sd.languageCodes = make(map[string]string)
	languageOptions := []string{}
	for code, name := range sd.settings.GetLanguageOptions() {
		sd.languageCodes[name] = code
		languageOptions = append(languageOptions, name)
	}
	sort.Strings(languageOptions)
	sd.languageSelect = widget.NewSelect(languageOptions, nil)

	form := container.NewVBox(
		widget.NewLabel(text(KeyDownloadDirectory)+":"),
		downloadDirRow,

		widget.NewLabel(text(KeyMaxParallel)+":"),
		sd.maxParallelEntry,

		widget.NewLabel(text(KeyContainer)+":"),
		sd.containerSelect,

		widget.NewLabel(text(KeyFilenameTemplate)+":"),
		sd.filenameEntry,
		templateHint,
		sd.skipExisting,

		widget.NewSeparator(),
		sd.tagFiles,
		sd.enrichMetadata,

		widget.NewLabel(text(KeyFFmpegPath)+":"),
		ffmpegRow,
		ffmpegHint,

		widget.NewSeparator(),
		widget.NewLabel(text(KeyLanguage)+":"),
		sd.languageSelect,
	)

	sd.dialog = dialog.NewCustomConfirm(
		text(KeySettings),
		text(KeySave),
		text(KeyCancel),
		container.NewVScroll(form),
		sd.onSave,
		sd.window,
	)

	sd.dialog.Resize(fyne.NewSize(SettingsDialogWidth, SettingsDialogHeight))
}

// loadCurrentSettings loads current settings into the UI
func (sd *SettingsDialog) loadCurrentSettings() {
	sd.downloadDirEntry.SetText(sd.settings.GetDownloadDirectory())
	sd.maxParallelEntry.SetText(strconv.Itoa(sd.settings.GetMaxParallelDownloads()))
	sd.containerSelect.SetSelected(string(sd.settings.GetContainer()))
	sd.filenameEntry.SetText(string(sd.settings.GetFileNameTemplate()))
	sd.skipExisting.SetChecked(sd.settings.GetSkipExisting())
	sd.tagFiles.SetChecked(sd.settings.GetTagFiles())
	sd.enrichMetadata.SetChecked(sd.settings.GetEnrichMetadata())
	sd.ffmpegEntry.SetText(sd.settings.GetFFmpegPath())

	lang := sd.settings.GetLanguage()
	if name, ok := sd.settings.GetLanguageOptions()[lang]; ok {
		sd.languageSelect.SetSelected(name)
	}
}

// onBrowseDirectory handles directory browsing
func (sd *SettingsDialog) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil || uri == nil {
			return
		}
		sd.downloadDirEntry.SetText(uri.Path())
	}, sd.window)
}

// onBrowseFFmpeg lets the user pick the ffmpeg binary
func (sd *SettingsDialog) onBrowseFFmpeg() {
	dialog.ShowFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		defer reader.Close()
		sd.ffmpegEntry.SetText(reader.URI().Path())
	}, sd.window)
}

// onSave handles saving the settings
func (sd *SettingsDialog) onSave(confirmed bool) {
	if !confirmed {
		return
	}
	sd.apply()

	if sd.onSaved != nil {
		sd.onSaved()
	}
}

// apply writes the form values to settings
func (sd *SettingsDialog) apply() {
	if downloadDir := sd.downloadDirEntry.Text; downloadDir != "" {
		sd.settings.SetDownloadDirectory(downloadDir)
	}

	// Out-of-range values are clamped by settings
	if maxParallel, err := strconv.Atoi(sd.maxParallelEntry.Text); err == nil {
		sd.settings.SetMaxParallelDownloads(maxParallel)
	}

	if sd.containerSelect.Selected != "" {
		sd.settings.SetContainer(model.Container(sd.containerSelect.Selected))
	}

	sd.settings.SetFileNameTemplate(model.FileNameTemplate(sd.filenameEntry.Text))
	sd.settings.SetSkipExisting(sd.skipExisting.Checked)
	sd.settings.SetTagFiles(sd.tagFiles.Checked)
	sd.settings.SetEnrichMetadata(sd.enrichMetadata.Checked)
	sd.settings.SetFFmpegPath(sd.ffmpegEntry.Text)

	if code, ok := sd.languageCodes[sd.languageSelect.Selected]; ok {
		sd.settings.SetLanguage(code)
	}
}

// validateMaxParallel accepts whole numbers in the allowed range
func validateMaxParallel(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	if n != config.ClampMaxParallel(n) {
		return strconv.ErrRange
	}
	return nil
}
