package tmdb

import (
	"context"
	"encoding/json"
	"errors"
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

// DefaultBaseURL is the public metadata provider endpoint.
const DefaultBaseURL = "https://api.themoviedb.org/3"

const (
	requestTimeout = 10 * time.Second
	retryAttempts  = 3
	retryDelay     = 200 * time.Millisecond
)

// Config holds client construction options.
type Config struct {
	BaseURL  string
	APIKey   string
	Language string
	HTTP     *http.Client
}

// Client talks to the movie metadata provider. Responses are returned as raw
// JSON: the service layer stores and proxies them as opaque fragments.
type Client struct {
	baseURL  string
	apiKey   string
	language string
	httpc    *http.Client
}

// NewClient constructs a metadata provider client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("tmdb: api key is required")
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	language := cfg.Language
	if language == "" {
		language = "en-US"
	}

	httpc := cfg.HTTP
	if httpc == nil {
		httpc = &http.Client{Timeout: requestTimeout}
	}

	return &Client{baseURL: baseURL, apiKey: cfg.APIKey, language: language, httpc: httpc}, nil
}

// Details fetches the main metadata document for a title.
func (c *Client) Details(ctx context.Context, kind string, id int64) (json.RawMessage, error) {
	return c.get(ctx, "details", fmt.Sprintf("/%s/%d", kind, id), url.Values{"language": {c.language}})
}

// Videos fetches the trailer/teaser listing for a title.
func (c *Client) Videos(ctx context.Context, kind string, id int64) (json.RawMessage, error) {
	return c.get(ctx, "videos", fmt.Sprintf("/%s/%d/videos", kind, id), nil)
}

// Credits fetches cast and crew for a title.
func (c *Client) Credits(ctx context.Context, kind string, id int64) (json.RawMessage, error) {
	return c.get(ctx, "credits", fmt.Sprintf("/%s/%d/credits", kind, id), nil)
}

// WatchProviders fetches the per-region streaming availability for a title.
func (c *Client) WatchProviders(ctx context.Context, kind string, id int64) (json.RawMessage, error) {
	return c.get(ctx, "providers", fmt.Sprintf("/%s/%d/watch/providers", kind, id), nil)
}

// Trending fetches the weekly trending list across media kinds.
func (c *Client) Trending(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "trending", "/trending/all/week", url.Values{"language": {c.language}})
}

// DiscoverByGenre fetches a discovery page filtered to a single genre.
func (c *Client) DiscoverByGenre(ctx context.Context, genreID int) (json.RawMessage, error) {
	return c.get(ctx, "discover", "/discover/movie", url.Values{
		"language":    {c.language},
		"with_genres": {fmt.Sprintf("%d", genreID)},
	})
}

// SearchMovies fetches title search results for a free-text query.
func (c *Client) SearchMovies(ctx context.Context, query string) (json.RawMessage, error) {
	return c.get(ctx, "search", "/search/movie", url.Values{
		"language": {c.language},
		"query":    {query},
	})
}

func (c *Client) get(ctx context.Context, operation, path string, params url.Values) (json.RawMessage, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)

	endpoint := c.baseURL + path + "?" + params.Encode()

	start := time.Now()
	defer func() {
		metrics.UpstreamLatency.WithLabelValues("tmdb", operation).Observe(time.Since(start).Seconds())
	}()

	var payload json.RawMessage
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

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
				payload = body
				return nil
			case resp.StatusCode >= 500:
				return fmt.Errorf("tmdb: %s returned %d", operation, resp.StatusCode)
			default:
				return retry.Unrecoverable(fmt.Errorf("tmdb: %s returned %d", operation, resp.StatusCode))
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

	return payload, nil
}

// ReleaseYear extracts the four-digit release year from a details payload,
// falling back to the series first-air date. A missing or malformed date
// yields ok=false, never an error: the caller treats it as "no year bonus".
func ReleaseYear(details json.RawMessage) (int, bool) {
	if len(details) == 0 {
		return 0, false
	}

	var doc struct {
		ReleaseDate  string `json:"release_date"`
		FirstAirDate string `json:"first_air_date"`
	}
	if err := json.Unmarshal(details, &doc); err != nil {
		return 0, false
	}

	date := doc.ReleaseDate
	if date == "" {
		date = doc.FirstAirDate
	}
	if len(date) < 4 {
		return 0, false
	}

	var year int
	if _, err := fmt.Sscanf(date[:4], "%d", &year); err != nil || year == 0 {
		return 0, false
	}
	return year, true
}
