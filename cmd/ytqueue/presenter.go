package main

import (
	"context"
	"log/slog"

	"github.com/ytget/ytqueue/internal/config"
	"github.com/ytget/ytqueue/internal/download"
	"github.com/ytget/ytqueue/internal/model"
)

// autoPresenter accepts every placement with the configured defaults
type autoPresenter struct {
	defaults download.PlacementDefaults
	logger   *slog.Logger
}

var _ download.Presenter = (*autoPresenter)(nil)

func newAutoPresenter(cfg *config.EnvConfig, logger *slog.Logger) *autoPresenter {
	return &autoPresenter{
		defaults: download.PlacementDefaults{
			Directory:        cfg.DownloadDir,
			Container:        cfg.OutputContainer(),
			FileNameTemplate: model.FileNameTemplate(cfg.FileNameTemplate),
			SkipExisting:     cfg.SkipExisting,
		},
		logger: logger,
	}
}

func (p *autoPresenter) DefaultPlacement() download.PlacementDefaults {
	return p.defaults
}

func (p *autoPresenter) PlaceSingle(_ context.Context, track model.Track, suggestedPath string) *download.SinglePlacement {
	p.logger.Debug("Placing single track", "id", track.ID, "path", suggestedPath)
	return &download.SinglePlacement{FilePath: suggestedPath}
}

// PlaceBatch takes every track, or only the best match of a search
func (p *autoPresenter) PlaceBatch(_ context.Context, result *model.QueryResult, defaults download.PlacementDefaults) *download.BatchPlacement {
	tracks := result.Tracks
	if result.Kind == model.QueryResultSearch && len(tracks) > 0 {
		tracks = tracks[:1]
	}
	return &download.BatchPlacement{
		Tracks:           tracks,
		Directory:        defaults.Directory,
		Container:        defaults.Container,
		FileNameTemplate: defaults.FileNameTemplate,
		SkipExisting:     defaults.SkipExisting,
	}
}

func (p *autoPresenter) ShowNothingFound() {
	p.logger.Warn("Nothing found for the given queries")
}

func (p *autoPresenter) ShowError(err error) {
	p.logger.Error("Query failed", "error", err)
}
