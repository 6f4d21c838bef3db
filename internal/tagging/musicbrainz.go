package tagging

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Enricher refines metadata from an external catalogue.
// It returns without changes when nothing confident is found.
type Enricher interface {
	Enrich(ctx context.Context, meta *Metadata) error
}

// MusicBrainz API constants
const (
	MusicBrainzBaseURL   = "https://musicbrainz.org/ws/2"
	MusicBrainzUserAgent = "ytqueue/1.0 ( https://github.com/ytget/ytqueue )"
	MusicBrainzMinScore  = 90
	musicBrainzTimeout   = 10 * time.Second
)

// MusicBrainzEnricher looks up the best matching recording by title and artist
type MusicBrainzEnricher struct {
	client  *resty.Client
	baseURL string
}

var _ Enricher = (*MusicBrainzEnricher)(nil)

// NewMusicBrainzEnricher creates an enricher. A nil client gets a default
// one; an empty baseURL means the public MusicBrainz API.
func NewMusicBrainzEnricher(client *resty.Client, baseURL string) *MusicBrainzEnricher {
	if client == nil {
		client = resty.New().SetTimeout(musicBrainzTimeout)
	}
	if baseURL == "" {
		baseURL = MusicBrainzBaseURL
	}
	return &MusicBrainzEnricher{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

type recordingSearchResponse struct {
	Recordings []recording `json:"recordings"`
}

type recording struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Score            int            `json:"score"`
	FirstReleaseDate string         `json:"first-release-date"`
	ArtistCredit     []artistCredit `json:"artist-credit"`
	Releases         []release      `json:"releases"`
}

type artistCredit struct {
	Name       string `json:"name"`
	JoinPhrase string `json:"joinphrase"`
}

type release struct {
	Title string `json:"title"`
}

// Enrich replaces title and artist with the catalogue spelling and fills
// album and year when the top recording scores at least MusicBrainzMinScore
func (e *MusicBrainzEnricher) Enrich(ctx context.Context, meta *Metadata) error {
	if meta == nil || meta.Title == "" {
		return nil
	}

	query := fmt.Sprintf(`recording:"%s"`, escapeLucene(meta.Title))
	if meta.Artist != "" {
		query += fmt.Sprintf(` AND artist:"%s"`, escapeLucene(meta.Artist))
	}

	resp, err := e.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", MusicBrainzUserAgent).
		SetHeader("Accept", "application/json").
		SetQueryParams(map[string]string{
			"query": query,
			"fmt":   "json",
			"limit": "1",
		}).
		Get(e.baseURL + "/recording")
	if err != nil {
		return fmt.Errorf("musicbrainz request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("musicbrainz search failed: status %d", resp.StatusCode())
	}

	var result recordingSearchResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return fmt.Errorf("musicbrainz response: %w", err)
	}
	if len(result.Recordings) == 0 {
		return nil
	}

	best := result.Recordings[0]
	if best.Score < MusicBrainzMinScore {
		return nil
	}

	if best.Title != "" {
		meta.Title = best.Title
	}
	if artist := joinArtistCredit(best.ArtistCredit); artist != "" {
		meta.Artist = artist
	}
	if len(best.Releases) > 0 && best.Releases[0].Title != "" {
		meta.Album = best.Releases[0].Title
	}
	if len(best.FirstReleaseDate) >= 4 {
		if _, err := strconv.Atoi(best.FirstReleaseDate[:4]); err == nil {
			meta.Year = best.FirstReleaseDate[:4]
		}
	}
	return nil
}

func joinArtistCredit(credits []artistCredit) string {
	var b strings.Builder
	for _, c := range credits {
		b.WriteString(c.Name)
		b.WriteString(c.JoinPhrase)
	}
	return strings.TrimSpace(b.String())
}

var luceneEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func escapeLucene(s string) string {
	return luceneEscaper.Replace(s)
}
