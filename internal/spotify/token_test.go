package spotify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/filmatlas/filmatlas/internal/cache"
	"github.com/filmatlas/filmatlas/internal/database/testutil"
	"github.com/filmatlas/filmatlas/internal/models"
	appErrors "github.com/filmatlas/filmatlas/pkg/errors"
)

func newTokenEndpoint(t *testing.T, hits *atomic.Int64, accessToken string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		require.Equal(t, http.MethodPost, r.Method)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"` + accessToken + `","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestTokenProvider(t *testing.T, tokenURL string) (*TokenProvider, *cache.TokenStore, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	store, err := cache.NewTokenStore(db)
	require.NoError(t, err)

	provider, err := NewTokenProvider(store, TokenConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     tokenURL,
	})
	require.NoError(t, err)

	return provider, store, db
}

func TestTokenProviderReusesCachedToken(t *testing.T) {
	var hits atomic.Int64
	server := newTokenEndpoint(t, &hits, "fresh-token")
	provider, store, _ := newTestTokenProvider(t, server.URL)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "cached-token", "Bearer", time.Now().Add(30*time.Minute)))

	token, err := provider.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "cached-token", token)
	require.Equal(t, int64(0), hits.Load())
}

func TestTokenProviderExchangesWhenExpired(t *testing.T) {
	var hits atomic.Int64
	server := newTokenEndpoint(t, &hits, "fresh-token")
	provider, store, db := newTestTokenProvider(t, server.URL)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "stale-token", "Bearer", time.Now().Add(-time.Minute)))

	token, err := provider.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "fresh-token", token)
	require.Equal(t, int64(1), hits.Load())

	// The fresh token is cached with the 55 minute safety margin.
	var rows []models.SpotifyToken
	require.NoError(t, db.Where("access_token = ?", "fresh-token").Find(&rows).Error)
	require.Len(t, rows, 1)
	require.WithinDuration(t, time.Now().Add(3300*time.Second), rows[0].ExpiresAt, 5*time.Second)
}

func TestTokenProviderSecondCallHitsCache(t *testing.T) {
	var hits atomic.Int64
	server := newTokenEndpoint(t, &hits, "fresh-token")
	provider, _, _ := newTestTokenProvider(t, server.URL)
	ctx := context.Background()

	first, err := provider.Token(ctx)
	require.NoError(t, err)
	second, err := provider.Token(ctx)
	require.NoError(t, err)

	require.Equal(t, first, second)
	require.Equal(t, int64(1), hits.Load())
}

func TestTokenProviderExchangeFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	provider, _, _ := newTestTokenProvider(t, server.URL)

	_, err := provider.Token(context.Background())
	require.ErrorIs(t, err, appErrors.ErrTokenFetch)
}
