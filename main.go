package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/go-resty/resty/v2"
	"github.com/kkdai/youtube/v2"

	"github.com/ytget/ytqueue/internal/config"
	"github.com/ytget/ytqueue/internal/download"
	"github.com/ytget/ytqueue/internal/model"
	"github.com/ytget/ytqueue/internal/platform"
	"github.com/ytget/ytqueue/internal/tagging"
	"github.com/ytget/ytqueue/internal/transcode"
	"github.com/ytget/ytqueue/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.ytget.ytqueue"
	AppName = "YT Queue"

	WindowWidth  = 900
	WindowHeight = 640

	HTTPTimeout     = 30 * time.Second
	ShutdownTimeout = 10 * time.Second
)

func main() {
	logger := config.SetupLogger(os.Stderr, os.Getenv(config.EnvPrefix+"_LOG_LEVEL"), os.Getenv(config.EnvPrefix+"_LOG_FORMAT"))
	logger.Info("YT Queue starting", "version", version)

	myApp := app.NewWithID(AppID)
	myApp.SetIcon(ui.LoadLogoResource())
	myApp.Settings().SetTheme(ui.NewCompactTheme())

	myWindow := myApp.NewWindow(fmt.Sprintf("%s v%s", AppName, version))
	myWindow.Resize(fyne.NewSize(WindowWidth, WindowHeight))

	settings := config.NewSettings(myApp)
	if err := platform.CreateDirectoryIfNotExists(settings.GetDownloadDirectory()); err != nil {
		logger.Warn("Failed to ensure downloads dir", "error", err)
	}

	localization := ui.NewLocalization()
	localization.SetLanguage(settings.GetLanguage())

	client := &youtube.Client{}
	httpClient := resty.New().SetTimeout(HTTPTimeout)

	resolver := platform.NewResolver(client, logger)
	resolver.SetSearcher(platform.NewSearcher(httpClient, ""))

	presenter := ui.NewPresenter(myWindow, settings, localization, logger)
	downloadSvc := download.NewService(download.Dependencies{
		Resolver:  resolver,
		Fetcher:   platform.NewFetcher(client, newConverter(settings.GetFFmpegPath(), logger), logger),
		Tagger:    newSettingsTagger(settings, httpClient, logger),
		Presenter: presenter,
		Logger:    logger,
	}, settings.GetMaxParallelDownloads())

	rootUI := ui.NewRootUI(myWindow, myApp, downloadSvc, settings, localization, logger)

	myWindow.ShowAndRun()

	rootUI.Close()
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := downloadSvc.Shutdown(ctx); err != nil {
		logger.Warn("Downloads did not stop in time", "error", err)
	}
}

// newConverter returns the ffmpeg converter, or nil when ffmpeg is missing
// so that only native containers are offered to the fetcher
func newConverter(ffmpegPath string, logger *slog.Logger) transcode.Converter {
	converter := transcode.NewService(transcode.Options{FFmpegPath: ffmpegPath}, logger)
	if err := converter.Check(); err != nil {
		logger.Warn("Format conversion disabled", "error", err)
		return nil
	}
	return converter
}

// settingsTagger consults settings on every task so tag switches apply without restart
type settingsTagger struct {
	settings *config.Settings
	plain    *tagging.Tagger
	enriched *tagging.Tagger
}

func newSettingsTagger(settings *config.Settings, httpClient *resty.Client, logger *slog.Logger) *settingsTagger {
	return &settingsTagger{
		settings: settings,
		plain:    tagging.NewTagger(httpClient, nil, logger),
		enriched: tagging.NewTagger(httpClient, tagging.NewMusicBrainzEnricher(httpClient, ""), logger),
	}
}

func (t *settingsTagger) Tag(ctx context.Context, filePath string, track model.Track) error {
	if !t.settings.GetTagFiles() {
		return nil
	}
	if t.settings.GetEnrichMetadata() {
		return t.enriched.Tag(ctx, filePath, track)
	}
	return t.plain.Tag(ctx, filePath, track)
}
