package platform

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/ytqueue/internal/model"
)

const searchFixture = `{"contents":{"twoColumnSearchResultsRenderer":{"primaryContents":{"sectionListRenderer":{"contents":[
	{"itemSectionRenderer":{"contents":[
		{"videoRenderer":{"videoId":"dQw4w9WgXcQ",
			"title":{"runs":[{"text":"Never Gonna Give You Up"}]},
			"ownerText":{"runs":[{"text":"Rick Astley"}]},
			"lengthText":{"simpleText":"3:33"},
			"thumbnail":{"thumbnails":[{"url":"https://i.ytimg.com/small.jpg","width":120},{"url":"https://i.ytimg.com/big.jpg","width":480}]}}},
		{"shelfRenderer":{}},
		{"videoRenderer":{"videoId":"live0000000","title":{"runs":[{"text":"Live now"}]}}},
		{"videoRenderer":{"videoId":"yPYZpwSpKmA",
			"title":{"runs":[{"text":"Together "},{"text":"Forever"}]},
			"ownerText":{"runs":[{"text":"Rick Astley"}]},
			"lengthText":{"simpleText":"1:03:25"}}}
	]}},
	{"continuationItemRenderer":{}}
]}}}}}`

func TestSearcher_Search(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("prettyPrint"))
		raw, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, searchFixture)
	}))
	defer srv.Close()

	tracks, err := NewSearcher(resty.New(), srv.URL).Search(context.Background(), "rick astley")
	require.NoError(t, err)

	assert.Equal(t, "rick astley", body["query"])
	assert.Equal(t, searchVideosOnly, body["params"])

	require.Len(t, tracks, 2, "entries without a duration are skipped")
	assert.Equal(t, model.Track{
		ID:           "dQw4w9WgXcQ",
		Title:        "Never Gonna Give You Up",
		Author:       "Rick Astley",
		Duration:     213 * time.Second,
		ThumbnailURL: "https://i.ytimg.com/big.jpg",
	}, tracks[0])
	assert.Equal(t, "Together Forever", tracks[1].Title)
	assert.Equal(t, time.Hour+3*time.Minute+25*time.Second, tracks[1].Duration)
}

func TestSearcher_Limit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, searchFixture)
	}))
	defer srv.Close()

	s := NewSearcher(resty.New(), srv.URL)
	s.limit = 1
	tracks, err := s.Search(context.Background(), "rick astley")
	require.NoError(t, err)
	require.Len(t, tracks, 1)
	assert.Equal(t, "dQw4w9WgXcQ", tracks[0].ID)
}

func TestSearcher_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewSearcher(resty.New(), srv.URL).Search(context.Background(), "anything")
	var sourceErr *model.SourceError
	require.ErrorAs(t, err, &sourceErr)
	assert.Equal(t, "Search is unavailable right now", sourceErr.Message)
}

func TestParseLengthText(t *testing.T) {
	tests := []struct {
		input  string
		expect time.Duration
		ok     bool
	}{
		{"0:07", 7 * time.Second, true},
		{"3:33", 213 * time.Second, true},
		{"1:03:25", time.Hour + 3*time.Minute + 25*time.Second, true},
		{"", 0, false},
		{"LIVE", 0, false},
		{"1:2:3:4", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseLengthText(tt.input)
		if got != tt.expect || ok != tt.ok {
			t.Errorf("parseLengthText(%q) = (%v, %v), expected (%v, %v)", tt.input, got, ok, tt.expect, tt.ok)
		}
	}
}
