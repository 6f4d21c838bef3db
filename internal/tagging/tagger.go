package tagging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bogem/id3v2/v2"
	"github.com/go-resty/resty/v2"
	"github.com/zhaarey/go-mp4tag"

	"github.com/ytget/ytqueue/internal/download"
	"github.com/ytget/ytqueue/internal/model"
)

// Tagger constants
const (
	coverTimeout      = 15 * time.Second
	maxCoverSize      = 5 << 20
	coverDescription  = "Front cover"
	sourceIDFieldName = "YOUTUBE_ID"
	commentLanguage   = "eng"
)

// Tagger writes metadata and cover art after a download finishes
type Tagger struct {
	client   *resty.Client
	enricher Enricher
	logger   *slog.Logger
}

var _ download.Tagger = (*Tagger)(nil)

// NewTagger creates a tagger. client downloads cover art; enricher may be nil.
func NewTagger(client *resty.Client, enricher Enricher, logger *slog.Logger) *Tagger {
	if client == nil {
		client = resty.New().SetTimeout(coverTimeout)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Tagger{client: client, enricher: enricher, logger: logger}
}

// Tag writes tags into filePath. Containers without tag support are skipped.
// Enrichment and cover art failures are logged and do not fail tagging.
func (t *Tagger) Tag(ctx context.Context, filePath string, track model.Track) error {
	container := model.ContainerFromPath(filePath)
	switch container {
	case model.ContainerMP3, model.ContainerM4A, model.ContainerMP4:
	default:
		return nil
	}

	meta := MetadataFromTrack(track)
	if t.enricher != nil {
		if err := t.enricher.Enrich(ctx, &meta); err != nil {
			t.logger.Debug("Metadata enrichment failed", "track_id", track.ID, "error", err)
		}
	}

	cover, mimeType, err := t.fetchCover(ctx, meta.CoverURL)
	if err != nil {
		t.logger.Debug("Cover download failed", "track_id", track.ID, "url", meta.CoverURL, "error", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if container == model.ContainerMP3 {
		return writeID3(filePath, meta, cover, mimeType)
	}
	return writeMP4(filePath, meta, cover)
}

func (t *Tagger) fetchCover(ctx context.Context, url string) ([]byte, string, error) {
	if url == "" {
		return nil, "", nil
	}
	resp, err := t.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, "", err
	}
	if resp.IsError() {
		return nil, "", fmt.Errorf("status %d", resp.StatusCode())
	}
	body := resp.Body()
	if len(body) == 0 || len(body) > maxCoverSize {
		return nil, "", fmt.Errorf("unexpected cover size %d", len(body))
	}
	mimeType := resp.Header().Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(body)
	}
	return body, mimeType, nil
}

func writeID3(filePath string, meta Metadata, cover []byte, mimeType string) error {
	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open id3 tag: %w", err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(meta.Title)
	tag.SetArtist(meta.Artist)
	if meta.Album != "" {
		tag.SetAlbum(meta.Album)
	}
	if meta.Year != "" {
		tag.SetYear(meta.Year)
	}
	if meta.SourceID != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF8,
			Language:    commentLanguage,
			Description: sourceIDFieldName,
			Text:        meta.SourceID,
		})
	}
	if len(cover) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    mimeType,
			PictureType: id3v2.PTFrontCover,
			Description: coverDescription,
			Picture:     cover,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save id3 tag: %w", err)
	}
	return nil
}

func writeMP4(filePath string, meta Metadata, cover []byte) error {
	tags := &mp4tag.MP4Tags{
		Title:  meta.Title,
		Artist: meta.Artist,
		Album:  meta.Album,
		Custom: map[string]string{},
	}
	if meta.SourceID != "" {
		tags.Custom[sourceIDFieldName] = meta.SourceID
	}
	if meta.Year != "" {
		tags.Custom["YEAR"] = meta.Year
	}
	if len(cover) > 0 {
		tags.Pictures = []*mp4tag.MP4Picture{{Data: cover}}
	}

	mp4, err := mp4tag.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open mp4 file: %w", err)
	}
	defer mp4.Close()

	if err := mp4.Write(tags, []string{}); err != nil {
		return fmt.Errorf("failed to write mp4 tags: %w", err)
	}
	return nil
}
