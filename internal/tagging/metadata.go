package tagging

import (
	"regexp"
	"strings"

	"github.com/ytget/ytqueue/internal/model"
)

// Metadata is the tag content written into a file
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Year     string
	CoverURL string
	SourceID string
}

// Uploader name suffixes that are not part of the artist name
const (
	TopicChannelSuffix = " - Topic"
	VevoChannelSuffix  = "VEVO"
)

var (
	titleSeparators = []string{" - ", " – ", " — "}
	noiseSuffix     = regexp.MustCompile(`(?i)\s*[\(\[](official\s+(music\s+|lyric\s+)?(video|audio|visualizer)|lyrics?(\s+video)?|audio|video|hd|hq|4k|mv)[\)\]]`)
)

// MetadataFromTrack derives tags from the video title and uploader.
// "Artist - Title" titles are split; otherwise the uploader is the artist.
func MetadataFromTrack(track model.Track) Metadata {
	meta := Metadata{
		Title:    strings.TrimSpace(noiseSuffix.ReplaceAllString(track.Title, "")),
		CoverURL: track.ThumbnailURL,
		SourceID: track.ID,
	}

	for _, sep := range titleSeparators {
		artist, title, ok := strings.Cut(meta.Title, sep)
		artist, title = strings.TrimSpace(artist), strings.TrimSpace(title)
		if ok && artist != "" && title != "" {
			meta.Artist, meta.Title = artist, title
			return meta
		}
	}

	meta.Artist = cleanUploader(track.Author)
	if meta.Title == "" {
		meta.Title = track.Title
	}
	return meta
}

func cleanUploader(author string) string {
	author = strings.TrimSuffix(strings.TrimSpace(author), TopicChannelSuffix)
	if len(author) > len(VevoChannelSuffix) {
		author = strings.TrimSuffix(author, VevoChannelSuffix)
	}
	return strings.TrimSpace(author)
}
