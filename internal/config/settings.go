package config

import (
	"os"
	"path/filepath"
	"slices"

	"fyne.io/fyne/v2"

	"github.com/ytget/ytqueue/internal/download"
	"github.com/ytget/ytqueue/internal/model"
	"github.com/ytget/ytqueue/internal/platform"
)

// Settings keys for Fyne preferences
const (
	KeyDownloadDir      = "download_directory"
	KeyMaxParallel      = "max_parallel_downloads"
	KeyContainer        = "output_container"
	KeyFileNameTemplate = "filename_template"
	KeySkipExisting     = "skip_existing_files"
	KeyTagFiles         = "tag_files"
	KeyEnrichMetadata   = "enrich_metadata"
	KeyFFmpegPath       = "ffmpeg_path"
	KeyLanguage         = "app_language"
)

// Default values
const (
	DefaultMaxParallel      = 2
	MinMaxParallel          = 1
	MaxMaxParallel          = 10
	DefaultContainer        = model.ContainerMP3
	DefaultFileNameTemplate = model.DefaultFileNameTemplate
	DefaultSkipExisting     = false
	DefaultTagFiles         = true
	DefaultEnrichMetadata   = false
	DefaultLanguage         = "system"
)

// Settings manages application configuration
type Settings struct {
	app fyne.App
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app}
}

// GetDownloadDirectory returns the configured download directory
func (s *Settings) GetDownloadDirectory() string {
	dir := s.app.Preferences().String(KeyDownloadDir)
	if dir == "" {
		// Use system default Downloads directory
		defaultDir, err := platform.GetHomeDownloadsDir()
		if err != nil {
			defaultDir = filepath.Join(os.TempDir(), "downloads")
		}
		s.SetDownloadDirectory(defaultDir)
		return defaultDir
	}
	return dir
}

// SetDownloadDirectory sets the download directory
func (s *Settings) SetDownloadDirectory(dir string) {
	s.app.Preferences().SetString(KeyDownloadDir, dir)
}

// GetMaxParallelDownloads returns the maximum number of parallel downloads
func (s *Settings) GetMaxParallelDownloads() int {
	value := s.app.Preferences().Int(KeyMaxParallel)
	if value <= 0 {
		s.SetMaxParallelDownloads(DefaultMaxParallel)
		return DefaultMaxParallel
	}
	return value
}

// SetMaxParallelDownloads sets the maximum number of parallel downloads
func (s *Settings) SetMaxParallelDownloads(count int) {
	s.app.Preferences().SetInt(KeyMaxParallel, ClampMaxParallel(count))
}

// ClampMaxParallel keeps a parallel download limit within the allowed range
func ClampMaxParallel(count int) int {
	return min(max(count, MinMaxParallel), MaxMaxParallel)
}

// GetContainer returns the output container for new downloads
func (s *Settings) GetContainer() model.Container {
	container := model.Container(s.app.Preferences().String(KeyContainer))
	if !slices.Contains(model.Containers, container) {
		s.SetContainer(DefaultContainer)
		return DefaultContainer
	}
	return container
}

// SetContainer sets the output container
func (s *Settings) SetContainer(container model.Container) {
	s.app.Preferences().SetString(KeyContainer, string(container))
}

// GetFileNameTemplate returns the filename template
func (s *Settings) GetFileNameTemplate() model.FileNameTemplate {
	template := s.app.Preferences().String(KeyFileNameTemplate)
	if template == "" {
		s.SetFileNameTemplate(DefaultFileNameTemplate)
		return DefaultFileNameTemplate
	}
	return model.FileNameTemplate(template)
}

// SetFileNameTemplate sets the filename template
func (s *Settings) SetFileNameTemplate(template model.FileNameTemplate) {
	if template == "" {
		template = DefaultFileNameTemplate
	}
	s.app.Preferences().SetString(KeyFileNameTemplate, string(template))
}

// GetSkipExisting returns whether batch downloads skip files that already exist
func (s *Settings) GetSkipExisting() bool {
	return s.app.Preferences().BoolWithFallback(KeySkipExisting, DefaultSkipExisting)
}

// SetSkipExisting sets whether batch downloads skip existing files
func (s *Settings) SetSkipExisting(skip bool) {
	s.app.Preferences().SetBool(KeySkipExisting, skip)
}

// GetTagFiles returns whether downloaded files get metadata tags
func (s *Settings) GetTagFiles() bool {
	return s.app.Preferences().BoolWithFallback(KeyTagFiles, DefaultTagFiles)
}

// SetTagFiles sets whether downloaded files get metadata tags
func (s *Settings) SetTagFiles(tag bool) {
	s.app.Preferences().SetBool(KeyTagFiles, tag)
}

// GetEnrichMetadata returns whether tags are looked up on MusicBrainz
func (s *Settings) GetEnrichMetadata() bool {
	return s.app.Preferences().BoolWithFallback(KeyEnrichMetadata, DefaultEnrichMetadata)
}

// SetEnrichMetadata sets whether tags are looked up on MusicBrainz
func (s *Settings) SetEnrichMetadata(enrich bool) {
	s.app.Preferences().SetBool(KeyEnrichMetadata, enrich)
}

// GetFFmpegPath returns the ffmpeg binary; empty means the one on PATH
func (s *Settings) GetFFmpegPath() string {
	return s.app.Preferences().String(KeyFFmpegPath)
}

// SetFFmpegPath sets the ffmpeg binary
func (s *Settings) SetFFmpegPath(path string) {
	s.app.Preferences().SetString(KeyFFmpegPath, path)
}

// GetLanguage returns the configured language
func (s *Settings) GetLanguage() string {
	lang := s.app.Preferences().String(KeyLanguage)
	if lang == "" {
		s.SetLanguage(DefaultLanguage)
		return DefaultLanguage
	}
	return lang
}

// SetLanguage sets the application language
func (s *Settings) SetLanguage(lang string) {
	s.app.Preferences().SetString(KeyLanguage, lang)
}

// PlacementDefaults returns the settings that prefill placement dialogs
func (s *Settings) PlacementDefaults() download.PlacementDefaults {
	return download.PlacementDefaults{
		Directory:        s.GetDownloadDirectory(),
		Container:        s.GetContainer(),
		FileNameTemplate: s.GetFileNameTemplate(),
		SkipExisting:     s.GetSkipExisting(),
	}
}

// GetContainerOptions returns the selectable output containers
func (s *Settings) GetContainerOptions() []model.Container {
	return model.Containers
}

// GetLanguageOptions returns available language options
func (s *Settings) GetLanguageOptions() map[string]string {
	return map[string]string{
		"system": "System Default",
		"en":     "English",
		"ru":     "Русский",
		"pt":     "Português",
	}
}
