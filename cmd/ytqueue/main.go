// Command ytqueue downloads YouTube videos, playlists and search results without a GUI.
//
// Queries are taken from the arguments, or one per line from stdin when no
// arguments are given. Configuration comes from YTQ_* environment variables
// and an optional .env file.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kkdai/youtube/v2"

	"github.com/ytget/ytqueue/internal/config"
	"github.com/ytget/ytqueue/internal/download"
	"github.com/ytget/ytqueue/internal/model"
	"github.com/ytget/ytqueue/internal/platform"
	"github.com/ytget/ytqueue/internal/tagging"
	"github.com/ytget/ytqueue/internal/transcode"
)

var version = "dev"

const httpTimeout = 30 * time.Second

var errNoQueries = errors.New("no queries given")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		slog.Error("ytqueue failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	flags := flag.NewFlagSet("ytqueue", flag.ContinueOnError)
	envFile := flags.String("env", "", "dotenv file to load instead of ./.env")
	showVersion := flags.Bool("version", false, "print version and exit")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintln(stdout, "ytqueue", version)
		return nil
	}

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.LoadEnv(envFiles...)
	if err != nil {
		return err
	}

	logger := config.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	queries, err := readQueries(flags.Args(), stdin)
	if err != nil {
		return err
	}
	if len(queries) == 0 {
		return errNoQueries
	}

	if err := platform.CreateDirectoryIfNotExists(cfg.DownloadDir); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := newService(cfg, logger)
	svc.SetUpdateCallback(func(task model.DownloadTask) {
		switch task.Status {
		case model.TaskStatusCompleted:
			logger.Info("Downloaded", "title", task.Track.DisplayTitle(), "path", task.FilePath, "elapsed", task.GetElapsedString())
		case model.TaskStatusFailed:
			logger.Error("Download failed", "title", task.Track.DisplayTitle(), "error", task.LastError)
		}
	})

	if cfg.MetricsAddr != "" {
		server := &http.Server{
			Addr:         cfg.MetricsAddr,
			Handler:      newRouter(svc),
			ReadTimeout:  httpTimeout,
			WriteTimeout: httpTimeout,
		}
		go func() {
			logger.Info("Metrics server starting", "address", server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Metrics server shutdown failed", "error", err)
			}
		}()
	}

	submitErr := svc.SubmitQuery(ctx, strings.Join(queries, "\n"))

	if err := svc.Wait(ctx); err != nil {
		logger.Info("Shutdown signal received, canceling downloads")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := svc.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Downloads did not stop in time", "error", err)
		}
		return context.Cause(ctx)
	}

	if submitErr != nil {
		return submitErr
	}
	return summarize(svc.Snapshots())
}

func newService(cfg *config.EnvConfig, logger *slog.Logger) *download.Service {
	client := &youtube.Client{}

	httpClient := resty.New().SetTimeout(httpTimeout)

	resolver := platform.NewResolver(client, logger)
	resolver.SetTimeout(cfg.ResolveTimeout)
	resolver.SetSearcher(platform.NewSearcher(httpClient, ""))

	var converter transcode.Converter
	ffmpeg := transcode.NewService(transcode.Options{FFmpegPath: cfg.FFmpegPath}, logger)
	if err := ffmpeg.Check(); err != nil {
		logger.Warn("Format conversion disabled", "error", err)
	} else {
		converter = ffmpeg
	}

	var tagger download.Tagger
	if cfg.Tag {
		var enricher tagging.Enricher
		if cfg.Enrich {
			enricher = tagging.NewMusicBrainzEnricher(httpClient, "")
		}
		tagger = tagging.NewTagger(httpClient, enricher, logger)
	}

	return download.NewService(download.Dependencies{
		Resolver:  resolver,
		Fetcher:   platform.NewFetcher(client, converter, logger),
		Tagger:    tagger,
		Presenter: newAutoPresenter(cfg, logger),
		Logger:    logger,
	}, cfg.MaxParallel)
}

// readQueries returns the arguments, or the non-blank lines of stdin without arguments
func readQueries(args []string, stdin io.Reader) ([]string, error) {
	if len(args) > 0 {
		return download.SplitQueries(strings.Join(args, "\n")), nil
	}

	var queries []string
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		if q := strings.TrimSpace(scanner.Text()); q != "" {
			queries = append(queries, q)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read queries: %w", err)
	}
	return queries, nil
}

// summarize reports an error when any download did not complete
func summarize(tasks []model.DownloadTask) error {
	failed := 0
	for _, task := range tasks {
		if task.Status != model.TaskStatusCompleted {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads did not complete", failed, len(tasks))
	}
	return nil
}
