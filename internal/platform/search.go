package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ytget/ytqueue/internal/model"
)

// Search API constants
const (
	SearchBaseURL       = "https://www.youtube.com/youtubei/v1"
	SearchClientName    = "WEB"
	SearchClientVersion = "2.20240726.00.00"
	DefaultSearchLimit  = 20

	// searchVideosOnly is the encoded "type: video" filter
	searchVideosOnly = "EgIQAQ=="
	searchTimeout    = 15 * time.Second
)

// Searcher finds videos for free-text queries through the YouTube web API
type Searcher struct {
	client  *resty.Client
	baseURL string
	limit   int
}

// NewSearcher creates a searcher. A nil client gets a default one; an empty
// baseURL means the public YouTube endpoint.
func NewSearcher(client *resty.Client, baseURL string) *Searcher {
	if client == nil {
		client = resty.New().SetTimeout(searchTimeout)
	}
	if baseURL == "" {
		baseURL = SearchBaseURL
	}
	return &Searcher{client: client, baseURL: strings.TrimSuffix(baseURL, "/"), limit: DefaultSearchLimit}
}

type searchRequest struct {
	Context searchContext `json:"context"`
	Query   string        `json:"query"`
	Params  string        `json:"params"`
}

type searchContext struct {
	Client searchClient `json:"client"`
}

type searchClient struct {
	ClientName    string `json:"clientName"`
	ClientVersion string `json:"clientVersion"`
	HL            string `json:"hl"`
}

type searchResponse struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer struct {
							Contents []struct {
								VideoRenderer *videoRenderer `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

type videoRenderer struct {
	VideoID    string   `json:"videoId"`
	Title      textRuns `json:"title"`
	OwnerText  textRuns `json:"ownerText"`
	LengthText struct {
		SimpleText string `json:"simpleText"`
	} `json:"lengthText"`
	Thumbnail struct {
		Thumbnails []struct {
			URL   string `json:"url"`
			Width int    `json:"width"`
		} `json:"thumbnails"`
	} `json:"thumbnail"`
}

type textRuns struct {
	Runs []struct {
		Text string `json:"text"`
	} `json:"runs"`
}

func (t textRuns) String() string {
	var b strings.Builder
	for _, run := range t.Runs {
		b.WriteString(run.Text)
	}
	return strings.TrimSpace(b.String())
}

// Search returns up to the searcher's limit of videos in relevance order.
// Live streams and other entries without a duration are skipped.
func (s *Searcher) Search(ctx context.Context, query string) ([]model.Track, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("prettyPrint", "false").
		SetHeader("Content-Type", "application/json").
		SetBody(searchRequest{
			Context: searchContext{Client: searchClient{
				ClientName:    SearchClientName,
				ClientVersion: SearchClientVersion,
				HL:            "en",
			}},
			Query:  query,
			Params: searchVideosOnly,
		}).
		Post(s.baseURL + "/search")
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	if resp.IsError() {
		return nil, model.NewSourceError("Search is unavailable right now",
			fmt.Errorf("search failed: status %d", resp.StatusCode()))
	}

	var result searchResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("search response: %w", err)
	}

	var tracks []model.Track
	sections := result.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents
	for _, section := range sections {
		for _, item := range section.ItemSectionRenderer.Contents {
			v := item.VideoRenderer
			if v == nil || !videoIDPattern.MatchString(v.VideoID) {
				continue
			}
			duration, ok := parseLengthText(v.LengthText.SimpleText)
			if !ok {
				continue
			}
			tracks = append(tracks, model.Track{
				ID:           v.VideoID,
				Title:        v.Title.String(),
				Author:       v.OwnerText.String(),
				Duration:     duration,
				ThumbnailURL: widestThumbnail(v),
			})
			if len(tracks) == s.limit {
				return tracks, nil
			}
		}
	}
	return tracks, nil
}

func widestThumbnail(v *videoRenderer) string {
	var url string
	width := -1
	for _, th := range v.Thumbnail.Thumbnails {
		if th.Width > width {
			url, width = th.URL, th.Width
		}
	}
	return url
}

// parseLengthText parses "m:ss" or "h:mm:ss"
func parseLengthText(s string) (time.Duration, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	var seconds int
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		seconds = seconds*60 + n
	}
	return time.Duration(seconds) * time.Second, true
}
