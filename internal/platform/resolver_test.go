package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/ytqueue/internal/download"
	"github.com/ytget/ytqueue/internal/model"
)

func newTestResolver() *Resolver {
	r := NewResolver(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r.getVideo = func(ctx context.Context, id string) (model.Track, error) {
		return model.Track{ID: id, Title: "Video " + id, Author: "Channel"}, nil
	}
	r.listPlaylist = func(ctx context.Context, id string) (string, []model.Track, error) {
		return "Playlist " + id, []model.Track{
			{ID: "aaaaaaaaaaa", Title: "First"},
			{ID: "bbbbbbbbbbb", Title: "Second"},
		}, nil
	}
	return r
}

type recordingSink struct {
	mu     sync.Mutex
	values []float64
}

func (s *recordingSink) Report(f float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = append(s.values, f)
}

func TestResolver_SingleVideo(t *testing.T) {
	r := newTestResolver()
	sink := &recordingSink{}

	result, err := r.Resolve(context.Background(), []string{"https://youtu.be/dQw4w9WgXcQ"}, sink)
	require.NoError(t, err)

	assert.Equal(t, model.QueryResultVideo, result.Kind)
	assert.Equal(t, "Video dQw4w9WgXcQ", result.Title)
	require.Len(t, result.Tracks, 1)
	assert.Equal(t, "dQw4w9WgXcQ", result.Tracks[0].ID)
	assert.Equal(t, []float64{1}, sink.values)
}

func TestResolver_Playlist(t *testing.T) {
	r := newTestResolver()

	result, err := r.Resolve(context.Background(), []string{"https://www.youtube.com/playlist?list=PL123456789012"}, nil)
	require.NoError(t, err)

	assert.Equal(t, model.QueryResultPlaylist, result.Kind)
	assert.Equal(t, "Playlist PL123456789012", result.Title)
	assert.Len(t, result.Tracks, 2)
}

func TestResolver_AggregateKeepsOrderAndDeduplicates(t *testing.T) {
	r := newTestResolver()
	r.getVideo = func(ctx context.Context, id string) (model.Track, error) {
		// Finish out of order
		if id == "ccccccccccc" {
			time.Sleep(20 * time.Millisecond)
		}
		return model.Track{ID: id, Title: id}, nil
	}
	sink := &recordingSink{}

	result, err := r.Resolve(context.Background(), []string{
		"ccccccccccc",
		"PL123456789012",
		"aaaaaaaaaaa",
	}, sink)
	require.NoError(t, err)

	assert.Equal(t, model.QueryResultAggregate, result.Kind)
	assert.Equal(t, "3 queries", result.Title)

	var ids []string
	for _, tr := range result.Tracks {
		ids = append(ids, tr.ID)
	}
	assert.Equal(t, []string{"ccccccccccc", "aaaaaaaaaaa", "bbbbbbbbbbb"}, ids)

	require.Len(t, sink.values, 3)
	assert.Equal(t, 1.0, sink.values[2])
}

func TestResolver_UnsupportedQuery(t *testing.T) {
	r := newTestResolver()

	_, err := r.Resolve(context.Background(), []string{"lofi beats to study to"}, nil)
	require.Error(t, err)

	var sourceErr *model.SourceError
	require.ErrorAs(t, err, &sourceErr)
	assert.Contains(t, sourceErr.Message, "Unsupported query")
}

func TestResolver_Search(t *testing.T) {
	r := newTestResolver()
	r.search = func(ctx context.Context, query string) ([]model.Track, error) {
		return []model.Track{
			{ID: "aaaaaaaaaaa", Title: "Best match"},
			{ID: "bbbbbbbbbbb", Title: "Runner up"},
		}, nil
	}

	result, err := r.Resolve(context.Background(), []string{"lofi beats to study to"}, nil)
	require.NoError(t, err)

	assert.Equal(t, model.QueryResultSearch, result.Kind)
	assert.Equal(t, "lofi beats to study to", result.Title)
	assert.Len(t, result.Tracks, 2)
	assert.False(t, result.Kind.IsOrdered())
}

func TestResolver_SetSearcher(t *testing.T) {
	r := newTestResolver()

	r.SetSearcher(NewSearcher(nil, ""))
	assert.NotNil(t, r.search)

	r.SetSearcher(nil)
	assert.Nil(t, r.search)
}

func TestResolver_FirstErrorWins(t *testing.T) {
	r := newTestResolver()
	r.getVideo = func(ctx context.Context, id string) (model.Track, error) {
		if id == "bbbbbbbbbbb" {
			return model.Track{}, WrapSourceError(youtube.ErrVideoPrivate, "fetching video metadata")
		}
		return model.Track{ID: id}, nil
	}

	_, err := r.Resolve(context.Background(), []string{"aaaaaaaaaaa", "bbbbbbbbbbb"}, nil)
	var sourceErr *model.SourceError
	require.ErrorAs(t, err, &sourceErr)
	assert.Equal(t, "Video is private", sourceErr.Message)
}

func TestResolver_Timeout(t *testing.T) {
	r := newTestResolver()
	r.SetTimeout(10 * time.Millisecond)
	r.getVideo = func(ctx context.Context, id string) (model.Track, error) {
		<-ctx.Done()
		return model.Track{}, ctx.Err()
	}

	_, err := r.Resolve(context.Background(), []string{"aaaaaaaaaaa"}, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResolver_ImplementsInterface(t *testing.T) {
	var _ download.Resolver = newTestResolver()
}

func TestWrapSourceError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantMessage string
	}{
		{"private", youtube.ErrVideoPrivate, "Video is private"},
		{"login", youtube.ErrLoginRequired, "Video requires sign-in (age restricted)"},
		{"embed", youtube.ErrNotPlayableInEmbed, "Video cannot be played outside YouTube"},
		{"playlist", youtube.ErrInvalidPlaylist, "Playlist not found or invalid"},
		{"id chars", youtube.ErrInvalidCharactersInVideoID, "Invalid video ID"},
		{"id length", fmt.Errorf("parse: %w", youtube.ErrVideoIDMinLength), "Invalid video ID"},
		{"playability", &youtube.ErrPlayabiltyStatus{Status: "UNPLAYABLE", Reason: "Blocked in your country"}, "Video is unavailable: Blocked in your country"},
		{"status code", youtube.ErrUnexpectedStatusCode(403), "YouTube responded with status 403"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WrapSourceError(tt.err, "fetching")
			var sourceErr *model.SourceError
			require.ErrorAs(t, err, &sourceErr)
			assert.Equal(t, tt.wantMessage, sourceErr.Message)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("context errors pass through", func(t *testing.T) {
		assert.Equal(t, context.Canceled, WrapSourceError(context.Canceled, "fetching"))
	})

	t.Run("other errors are wrapped without a short message", func(t *testing.T) {
		base := errors.New("connection reset")
		err := WrapSourceError(base, "fetching")
		var sourceErr *model.SourceError
		assert.False(t, errors.As(err, &sourceErr))
		assert.ErrorIs(t, err, base)
		assert.Equal(t, "fetching: connection reset", err.Error())
	})

	assert.NoError(t, WrapSourceError(nil, "fetching"))
}

func TestExtractPlaylistTitle(t *testing.T) {
	tests := []struct {
		name     string
		tracks   []model.Track
		expected string
	}{
		{
			name:     "empty list",
			tracks:   nil,
			expected: DefaultPlaylistName,
		},
		{
			name:     "single video",
			tracks:   []model.Track{{Title: "Test Video"}},
			expected: "Test Video" + PlaylistSuffix,
		},
		{
			name: "common prefix longer than minimum",
			tracks: []model.Track{
				{Title: "Rammstein - Ohne Dich Official Video"},
				{Title: "Rammstein - Sonne Official Video"},
			},
			expected: "Rammstein -" + PlaylistSuffix,
		},
		{
			name: "no common prefix",
			tracks: []model.Track{
				{Title: "First Video"},
				{Title: "Second Video"},
			},
			expected: "First Video" + PlaylistSuffix,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractPlaylistTitle(tt.tracks)
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestBestThumbnail(t *testing.T) {
	thumbs := youtube.Thumbnails{
		{URL: "small", Width: 120, Height: 90},
		{URL: "large", Width: 1280, Height: 720},
		{URL: "medium", Width: 320, Height: 180},
	}
	assert.Equal(t, "large", bestThumbnail(thumbs))
	assert.Empty(t, bestThumbnail(nil))
}
