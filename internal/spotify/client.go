package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	appErrors "github.com/filmatlas/filmatlas/pkg/errors"
	"github.com/filmatlas/filmatlas/pkg/metrics"
)

// DefaultSearchURL is the public search endpoint.
const DefaultSearchURL = "https://api.spotify.com/v1/search"

const (
	searchLimit    = 20
	requestTimeout = 10 * time.Second
	retryAttempts  = 3
	retryDelay     = 200 * time.Millisecond
)

// Candidate is a single album or playlist considered for soundtrack matching.
type Candidate struct {
	Name         string `json:"name"`
	ReleaseDate  string `json:"release_date"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

// SearchResult carries parsed candidates in upstream order plus the raw
// payload retained for diagnostics.
type SearchResult struct {
	Albums    []Candidate
	Playlists []Candidate
	Raw       json.RawMessage
}

// Client queries the music search API.
type Client struct {
	searchURL string
	httpc     *http.Client
}

// ClientConfig holds client construction options.
type ClientConfig struct {
	SearchURL string
	HTTP      *http.Client
}

// NewClient constructs a search client.
func NewClient(cfg ClientConfig) *Client {
	searchURL := strings.TrimRight(cfg.SearchURL, "/")
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}

	httpc := cfg.HTTP
	if httpc == nil {
		httpc = &http.Client{Timeout: requestTimeout}
	}

	return &Client{searchURL: searchURL, httpc: httpc}
}

// SearchSoundtracks queries albums and playlists matching "{title} soundtrack".
func (c *Client) SearchSoundtracks(ctx context.Context, token, title string) (*SearchResult, error) {
	params := url.Values{
		"q":     {title + " soundtrack"},
		"type":  {"album,playlist"},
		"limit": {fmt.Sprintf("%d", searchLimit)},
	}
	endpoint := c.searchURL + "?" + params.Encode()

	start := time.Now()
	defer func() {
		metrics.UpstreamLatency.WithLabelValues("spotify", "search").Observe(time.Since(start).Seconds())
	}()

	var raw []byte
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Authorization", "Bearer "+token)

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
			if err != nil {
				return err
			}

			switch {
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				raw = body
				return nil
			case resp.StatusCode >= 500:
				return fmt.Errorf("spotify: search returned %d", resp.StatusCode)
			default:
				return retry.Unrecoverable(fmt.Errorf("spotify: search returned %d", resp.StatusCode))
			}
		},
		retry.Context(ctx),
		retry.Attempts(retryAttempts),
		retry.Delay(retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, appErrors.ErrUpstreamFetch.WithInternal(err)
	}

	// The playlists array can contain JSON nulls; decode through pointers
	// and drop them.
	var doc struct {
		Albums struct {
			Items []*Candidate `json:"items"`
		} `json:"albums"`
		Playlists struct {
			Items []*Candidate `json:"items"`
		} `json:"playlists"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, appErrors.ErrUpstreamFetch.WithInternal(fmt.Errorf("spotify: decode search payload: %w", err))
	}

	result := &SearchResult{Raw: raw}
	for _, item := range doc.Albums.Items {
		if item != nil {
			result.Albums = append(result.Albums, *item)
		}
	}
	for _, item := range doc.Playlists.Items {
		if item != nil {
			result.Playlists = append(result.Playlists, *item)
		}
	}

	return result, nil
}
