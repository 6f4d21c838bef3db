package platform

import (
	"regexp"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/ytget/ytqueue/internal/model"
)

// URL parameters and separators
const (
	PlaylistParam  = "list="
	ParamSeparator = "&"
)

var (
	videoIDPattern    = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	playlistIDPattern = regexp.MustCompile(`^(PL|OL|UU|FL|RD|LL|UL|PU)[A-Za-z0-9_-]{10,40}$`)
)

// ClassifyQuery tells whether q names a playlist or a single video and
// returns the extracted ID. Playlist references win when both are present.
// Anything else is reported as a search.
func ClassifyQuery(q string) (model.QueryResultKind, string) {
	q = strings.TrimSpace(q)

	if id := ExtractPlaylistID(q); id != "" {
		return model.QueryResultPlaylist, id
	}
	if playlistIDPattern.MatchString(q) {
		return model.QueryResultPlaylist, q
	}
	if videoIDPattern.MatchString(q) {
		return model.QueryResultVideo, q
	}
	if strings.Contains(q, "youtu") {
		if id, err := youtube.ExtractVideoID(q); err == nil && videoIDPattern.MatchString(id) {
			return model.QueryResultVideo, id
		}
	}
	return model.QueryResultSearch, q
}

// ExtractPlaylistID extracts the playlist ID from various URL formats
func ExtractPlaylistID(url string) string {
	if strings.Contains(url, PlaylistParam) {
		parts := strings.Split(url, PlaylistParam)
		if len(parts) > 1 {
			playlistPart := parts[1]
			if strings.Contains(playlistPart, ParamSeparator) {
				playlistPart = strings.Split(playlistPart, ParamSeparator)[0]
			}
			return playlistPart
		}
	}
	return ""
}
