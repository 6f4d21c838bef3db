package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/ytget/ytdlp/v2"
	"golang.org/x/sync/errgroup"

	"github.com/ytget/ytqueue/internal/download"
	"github.com/ytget/ytqueue/internal/model"
)

// Resolver defaults
const (
	DefaultParseTimeout       = 60 * time.Second
	DefaultResolveConcurrency = 4
)

// Playlist title constants
const (
	DefaultPlaylistName = "Unknown Playlist"
	MinPrefixLength     = 10
	PlaylistSuffix      = " Playlist"
)

// Resolver turns YouTube URLs and IDs into tracks. Playlists are listed with
// yt-dlp; single videos and the playlist fallback use the YouTube client.
// Free text is searched only when a Searcher is set.
type Resolver struct {
	client      *youtube.Client
	logger      *slog.Logger
	timeout     time.Duration
	concurrency int

	// replaceable in tests
	listPlaylist func(ctx context.Context, playlistID string) (title string, tracks []model.Track, err error)
	getVideo     func(ctx context.Context, videoID string) (model.Track, error)
	search       func(ctx context.Context, query string) ([]model.Track, error)
}

var _ download.Resolver = (*Resolver)(nil)

// NewResolver creates a resolver using client for video metadata
func NewResolver(client *youtube.Client, logger *slog.Logger) *Resolver {
	if client == nil {
		client = &youtube.Client{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Resolver{
		client:      client,
		logger:      logger,
		timeout:     DefaultParseTimeout,
		concurrency: DefaultResolveConcurrency,
	}
	r.listPlaylist = r.listPlaylistItems
	r.getVideo = r.fetchVideo
	return r
}

// SetTimeout sets the timeout for a single query
func (r *Resolver) SetTimeout(timeout time.Duration) {
	r.timeout = timeout
}

// SetSearcher enables free-text queries
func (r *Resolver) SetSearcher(s *Searcher) {
	if s == nil {
		r.search = nil
		return
	}
	r.search = s.Search
}

type queryResult struct {
	kind   model.QueryResultKind
	title  string
	tracks []model.Track
}

// Resolve resolves every query concurrently. The first failure cancels the
// rest and is returned. Tracks keep query order and are de-duplicated by ID.
func (r *Resolver) Resolve(ctx context.Context, queries []string, progress download.ProgressSink) (*model.QueryResult, error) {
	results := make([]queryResult, len(queries))
	var done atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, q := range queries {
		g.Go(func() error {
			res, err := r.resolveOne(gctx, q)
			if err != nil {
				return err
			}
			results[i] = res
			if progress != nil {
				progress.Report(float64(done.Add(1)) / float64(len(queries)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	out := &model.QueryResult{}
	for _, res := range results {
		for _, track := range res.tracks {
			if _, dup := seen[track.ID]; dup {
				continue
			}
			seen[track.ID] = struct{}{}
			out.Tracks = append(out.Tracks, track)
		}
	}

	if len(results) == 1 {
		out.Kind = results[0].kind
		out.Title = results[0].title
	} else {
		out.Kind = model.QueryResultAggregate
		out.Title = fmt.Sprintf("%d queries", len(results))
	}
	return out, nil
}

func (r *Resolver) resolveOne(ctx context.Context, query string) (queryResult, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	kind, id := ClassifyQuery(query)
	switch kind {
	case model.QueryResultPlaylist:
		title, tracks, err := r.listPlaylist(ctx, id)
		if err != nil {
			return queryResult{}, err
		}
		r.logger.Debug("Playlist resolved", "playlist_id", id, "tracks", len(tracks))
		return queryResult{kind: kind, title: title, tracks: tracks}, nil

	case model.QueryResultVideo:
		track, err := r.getVideo(ctx, id)
		if err != nil {
			return queryResult{}, err
		}
		return queryResult{kind: kind, title: track.Title, tracks: []model.Track{track}}, nil

	case model.QueryResultSearch:
		if r.search == nil {
			break
		}
		tracks, err := r.search(ctx, id)
		if err != nil {
			return queryResult{}, err
		}
		r.logger.Debug("Search resolved", "query", id, "tracks", len(tracks))
		return queryResult{kind: kind, title: id, tracks: tracks}, nil
	}

	return queryResult{}, model.NewSourceError(
		fmt.Sprintf("Unsupported query %q: enter a YouTube video or playlist URL", query), nil)
}

// listPlaylistItems lists a playlist with yt-dlp and falls back to the YouTube client
func (r *Resolver) listPlaylistItems(ctx context.Context, playlistID string) (string, []model.Track, error) {
	d := ytdlp.New()
	items, err := d.GetPlaylistItemsAll(ctx, playlistID, 0)
	if err == nil && len(items) > 0 {
		tracks := make([]model.Track, 0, len(items))
		for _, it := range items {
			if it.VideoID == "" {
				continue
			}
			tracks = append(tracks, model.Track{ID: it.VideoID, Title: it.Title})
		}
		return extractPlaylistTitle(tracks), tracks, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", nil, ctxErr
	}
	if err != nil {
		r.logger.Warn("yt-dlp playlist listing failed, falling back", "playlist_id", playlistID, "error", err)
	}

	playlist, err := r.client.GetPlaylistContext(ctx, playlistID)
	if err != nil {
		return "", nil, WrapSourceError(err, "fetching playlist")
	}

	tracks := make([]model.Track, 0, len(playlist.Videos))
	for _, entry := range playlist.Videos {
		if entry == nil {
			continue
		}
		tracks = append(tracks, model.Track{
			ID:           entry.ID,
			Title:        entry.Title,
			Author:       entry.Author,
			Duration:     entry.Duration,
			ThumbnailURL: bestThumbnail(entry.Thumbnails),
		})
	}

	title := playlist.Title
	if title == "" {
		title = extractPlaylistTitle(tracks)
	}
	return title, tracks, nil
}

func (r *Resolver) fetchVideo(ctx context.Context, videoID string) (model.Track, error) {
	video, err := r.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return model.Track{}, WrapSourceError(err, "fetching video metadata")
	}
	return trackFromVideo(video), nil
}

func trackFromVideo(video *youtube.Video) model.Track {
	return model.Track{
		ID:           video.ID,
		Title:        video.Title,
		Author:       video.Author,
		Duration:     video.Duration,
		ThumbnailURL: bestThumbnail(video.Thumbnails),
	}
}

func bestThumbnail(thumbnails youtube.Thumbnails) string {
	var best youtube.Thumbnail
	for _, th := range thumbnails {
		if th.Width*th.Height >= best.Width*best.Height {
			best = th
		}
	}
	return best.URL
}

// extractPlaylistTitle generates a title for the playlist based on its tracks
func extractPlaylistTitle(tracks []model.Track) string {
	if len(tracks) == 0 {
		return DefaultPlaylistName
	}
	if len(tracks) > 1 {
		commonPrefix := findCommonPrefix(tracks[0].Title, tracks[1].Title)
		if len(commonPrefix) > MinPrefixLength {
			return strings.TrimSpace(commonPrefix) + PlaylistSuffix
		}
	}
	return tracks[0].Title + PlaylistSuffix
}

// findCommonPrefix finds the common prefix between two strings
func findCommonPrefix(s1, s2 string) string {
	minLen := min(len(s1), len(s2))
	for i := 0; i < minLen; i++ {
		if s1[i] != s2[i] {
			return s1[:i]
		}
	}
	return s1[:minLen]
}

// WrapSourceError maps YouTube client errors to short user-facing messages.
// Context errors are returned unchanged.
func WrapSourceError(err error, action string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	wrapped := fmt.Errorf("%s: %w", action, err)

	var statusErr *youtube.ErrPlayabiltyStatus
	var codeErr youtube.ErrUnexpectedStatusCode
	switch {
	case errors.Is(err, youtube.ErrVideoPrivate):
		return model.NewSourceError("Video is private", wrapped)
	case errors.Is(err, youtube.ErrLoginRequired):
		return model.NewSourceError("Video requires sign-in (age restricted)", wrapped)
	case errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return model.NewSourceError("Video cannot be played outside YouTube", wrapped)
	case errors.Is(err, youtube.ErrInvalidPlaylist):
		return model.NewSourceError("Playlist not found or invalid", wrapped)
	case errors.Is(err, youtube.ErrInvalidCharactersInVideoID),
		errors.Is(err, youtube.ErrVideoIDMinLength):
		return model.NewSourceError("Invalid video ID", wrapped)
	case errors.As(err, &statusErr):
		reason := statusErr.Reason
		if reason == "" {
			reason = statusErr.Status
		}
		return model.NewSourceError("Video is unavailable: "+reason, wrapped)
	case errors.As(err, &codeErr):
		return model.NewSourceError(fmt.Sprintf("YouTube responded with status %d", int(codeErr)), wrapped)
	}
	return wrapped
}
