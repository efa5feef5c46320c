package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/filmatlas/filmatlas/internal/cache"
	"github.com/filmatlas/filmatlas/internal/database/testutil"
)

func newRateLimitedRouter(store RateStore, maxRequests int) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimit(store, maxRequests, time.Minute))
	r.GET("/resource", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return r
}

func TestRateLimitAllowsUnderLimit(t *testing.T) {
	store := NewMemoryRateStore()
	t.Cleanup(store.Stop)
	r := newRateLimitedRouter(store, 3)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resource", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitBlocksOverLimit(t *testing.T) {
	store := NewMemoryRateStore()
	t.Cleanup(store.Stop)
	r := newRateLimitedRouter(store, 2)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/resource", nil))
	}

	require.Equal(t, http.StatusTooManyRequests, last.Code)
	require.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
}

func TestMemoryRateStoreStopIsIdempotent(t *testing.T) {
	store := NewMemoryRateStore()

	count, _, err := store.Increment(context.Background(), "key", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	store.Stop()
	store.Stop()

	count, _, err = store.Increment(context.Background(), "key", time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestRateLimitDatabaseStore(t *testing.T) {
	store := NewDatabaseRateStore(cache.NewCounterStore(testutil.MustOpenTestDB(t)))
	r := newRateLimitedRouter(store, 1)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resource", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resource", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
}

type failingRateStore struct{}

func (failingRateStore) Increment(context.Context, string, time.Duration) (int, time.Duration, error) {
	return 0, 0, errors.New("store down")
}

func TestRateLimitFailsOpenOnStoreError(t *testing.T) {
	r := newRateLimitedRouter(failingRateStore{}, 1)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resource", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitDisabledWithNilStore(t *testing.T) {
	r := newRateLimitedRouter(nil, 1)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/resource", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}
