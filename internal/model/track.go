package model

import (
	"fmt"
	"strings"
	"time"
)

// URL templates
const (
	VideoURLTemplate = "https://www.youtube.com/watch?v=%s"
)

// Track describes one downloadable media item produced by query resolution
type Track struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Author       string        `json:"author"`
	Duration     time.Duration `json:"duration"`
	ThumbnailURL string        `json:"thumbnail_url,omitempty"`
}

// URL returns the watch URL for the track
func (t Track) URL() string {
	return fmt.Sprintf(VideoURLTemplate, t.ID)
}

// DisplayTitle returns "Author - Title" when the title does not already name the author
func (t Track) DisplayTitle() string {
	title := strings.TrimSpace(t.Title)
	if title == "" {
		return t.ID
	}
	if t.Author == "" || strings.Contains(strings.ToLower(title), strings.ToLower(t.Author)) {
		return title
	}
	return t.Author + " - " + title
}

// QueryResultKind tells what a resolved query referred to
type QueryResultKind string

const (
	QueryResultVideo     QueryResultKind = "video"
	QueryResultPlaylist  QueryResultKind = "playlist"
	QueryResultSearch    QueryResultKind = "search"
	QueryResultAggregate QueryResultKind = "aggregate"
)

// IsOrdered reports whether track positions are meaningful for this kind
func (k QueryResultKind) IsOrdered() bool {
	return k == QueryResultPlaylist
}

// QueryResult is the outcome of resolving one or more query lines
type QueryResult struct {
	Kind   QueryResultKind `json:"kind"`
	Title  string          `json:"title"`
	Tracks []Track         `json:"tracks"`
}
