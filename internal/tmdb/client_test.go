package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	appErrors "github.com/filmatlas/filmatlas/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"})
	require.NoError(t, err)
	return client
}

func TestClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestClientDetailsRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/movie/27205", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		require.Equal(t, "en-US", r.URL.Query().Get("language"))

		w.Write([]byte(`{"title":"Inception"}`))
	})

	payload, err := client.Details(context.Background(), "movie", 27205)
	require.NoError(t, err)
	require.JSONEq(t, `{"title":"Inception"}`, string(payload))
}

func TestClientWatchProvidersPath(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tv/1399/watch/providers", r.URL.Path)
		w.Write([]byte(`{"results":{}}`))
	})

	payload, err := client.WatchProviders(context.Background(), "tv", 1399)
	require.NoError(t, err)
	require.JSONEq(t, `{"results":{}}`, string(payload))
}

func TestClientSearchMoviesQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search/movie", r.URL.Path)
		require.Equal(t, "the matrix", r.URL.Query().Get("query"))
		w.Write([]byte(`{"results":[]}`))
	})

	payload, err := client.SearchMovies(context.Background(), "the matrix")
	require.NoError(t, err)
	require.JSONEq(t, `{"results":[]}`, string(payload))
}

func TestClientRetriesServerErrors(t *testing.T) {
	var hits atomic.Int64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			http.Error(w, "upstream hiccup", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"results":[]}`))
	})

	payload, err := client.Trending(context.Background())
	require.NoError(t, err)
	require.JSONEq(t, `{"results":[]}`, string(payload))
	require.Equal(t, int64(3), hits.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "not found", http.StatusNotFound)
	})

	_, err := client.Details(context.Background(), "movie", 0)
	require.ErrorIs(t, err, appErrors.ErrUpstreamFetch)
	require.Equal(t, int64(1), hits.Load())
}

func TestReleaseYear(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    int
		ok      bool
	}{
		{"movie release date", `{"release_date":"2010-07-16"}`, 2010, true},
		{"series first air date", `{"first_air_date":"2011-04-17"}`, 2011, true},
		{"release date preferred", `{"release_date":"2010-07-16","first_air_date":"2011-04-17"}`, 2010, true},
		{"missing dates", `{"title":"Inception"}`, 0, false},
		{"short date", `{"release_date":"201"}`, 0, false},
		{"malformed year", `{"release_date":"abcd-01-01"}`, 0, false},
		{"empty payload", ``, 0, false},
		{"invalid json", `{`, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			year, ok := ReleaseYear(json.RawMessage(tc.payload))
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, year)
		})
	}
}
