package services

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/filmatlas/filmatlas/internal/cache"
	"github.com/filmatlas/filmatlas/internal/database/testutil"
	"github.com/filmatlas/filmatlas/internal/models"
	"github.com/filmatlas/filmatlas/internal/spotify"
	appErrors "github.com/filmatlas/filmatlas/pkg/errors"
)

type fakeTokenSource struct {
	token string
	err   error
	calls atomic.Int64
}

func (f *fakeTokenSource) Token(context.Context) (string, error) {
	f.calls.Add(1)
	return f.token, f.err
}

type fakeSearcher struct {
	result *spotify.SearchResult
	err    error
	calls  atomic.Int64
}

func (f *fakeSearcher) SearchSoundtracks(context.Context, string, string) (*spotify.SearchResult, error) {
	f.calls.Add(1)
	return f.result, f.err
}

func newTestSoundtrackService(t *testing.T, tokens TokenSource, searcher SoundtrackSearcher, provider MetadataProvider) (*SoundtrackService, *cache.SoundtrackStore, *gorm.DB) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)

	metaStore, err := cache.NewMetadataStore(db)
	require.NoError(t, err)
	metaSvc, err := NewMetadataService(metaStore, provider)
	require.NoError(t, err)

	store, err := cache.NewSoundtrackStore(db)
	require.NoError(t, err)
	svc, err := NewSoundtrackService(store, tokens, searcher, metaSvc)
	require.NoError(t, err)

	return svc, store, db
}

func searchResultWith(albums ...spotify.Candidate) *spotify.SearchResult {
	return &spotify.SearchResult{
		Albums: albums,
		Raw:    json.RawMessage(`{"albums":{"items":[]}}`),
	}
}

func TestSoundtrackServiceCachedHitShortCircuits(t *testing.T) {
	tokens := &fakeTokenSource{token: "tok"}
	searcher := &fakeSearcher{}
	provider := &fakeProvider{}
	svc, store, _ := newTestSoundtrackService(t, tokens, searcher, provider)
	ctx := context.Background()

	url := "https://open.spotify.com/album/cached"
	require.NoError(t, store.Put(ctx, 27205, models.MediaTypeMovie, "Inception", &url, datatypes.JSON(`{}`)))

	got, err := svc.Resolve(ctx, models.MediaTypeMovie, 27205, "Inception")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, url, *got)
	require.Equal(t, int64(0), tokens.calls.Load())
	require.Equal(t, int64(0), searcher.calls.Load())
}

func TestSoundtrackServiceCachedNoMatchShortCircuits(t *testing.T) {
	tokens := &fakeTokenSource{token: "tok"}
	searcher := &fakeSearcher{}
	provider := &fakeProvider{}
	svc, store, _ := newTestSoundtrackService(t, tokens, searcher, provider)
	ctx := context.Background()

	// A cached NULL means "search already ran, nothing qualified".
	require.NoError(t, store.Put(ctx, 27205, models.MediaTypeMovie, "Inception", nil, datatypes.JSON(`{}`)))

	got, err := svc.Resolve(ctx, models.MediaTypeMovie, 27205, "Inception")
	require.NoError(t, err)
	require.Nil(t, got)
	require.Equal(t, int64(0), searcher.calls.Load())
}

func TestSoundtrackServiceResolvesAndCaches(t *testing.T) {
	tokens := &fakeTokenSource{token: "tok"}

	winner := spotify.Candidate{Name: "Inception Soundtrack", ReleaseDate: "2010-07-13"}
	winner.ExternalURLs.Spotify = "https://open.spotify.com/album/winner"
	loser := spotify.Candidate{Name: "Inception (Original Score)", ReleaseDate: "2013-01-01"}
	loser.ExternalURLs.Spotify = "https://open.spotify.com/album/loser"

	searcher := &fakeSearcher{result: searchResultWith(loser, winner)}
	provider := &fakeProvider{details: json.RawMessage(`{"release_date":"2010-07-16"}`)}
	svc, _, db := newTestSoundtrackService(t, tokens, searcher, provider)

	got, err := svc.Resolve(context.Background(), models.MediaTypeMovie, 27205, "Inception")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "https://open.spotify.com/album/winner", *got)

	require.Eventually(t, func() bool {
		var row models.SoundtrackCache
		if err := db.Take(&row, "movie_id = ?", 27205).Error; err != nil {
			return false
		}
		return row.SoundtrackURL != nil && *row.SoundtrackURL == "https://open.spotify.com/album/winner"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSoundtrackServiceCachesNoMatch(t *testing.T) {
	tokens := &fakeTokenSource{token: "tok"}
	searcher := &fakeSearcher{result: searchResultWith()}
	provider := &fakeProvider{details: json.RawMessage(`{"release_date":"2010-07-16"}`)}
	svc, _, db := newTestSoundtrackService(t, tokens, searcher, provider)

	got, err := svc.Resolve(context.Background(), models.MediaTypeMovie, 27205, "Inception")
	require.NoError(t, err)
	require.Nil(t, got)

	require.Eventually(t, func() bool {
		var row models.SoundtrackCache
		if err := db.Take(&row, "movie_id = ?", 27205).Error; err != nil {
			return false
		}
		return row.SoundtrackURL == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSoundtrackServiceMetadataFailureStillResolves(t *testing.T) {
	tokens := &fakeTokenSource{token: "tok"}

	match := spotify.Candidate{Name: "Inception Soundtrack", ReleaseDate: "2010-07-13"}
	match.ExternalURLs.Spotify = "https://open.spotify.com/album/match"

	searcher := &fakeSearcher{result: searchResultWith(match)}
	provider := &fakeProvider{err: appErrors.ErrUpstreamFetch}
	svc, _, _ := newTestSoundtrackService(t, tokens, searcher, provider)

	// Losing the release year only drops the year bonus.
	got, err := svc.Resolve(context.Background(), models.MediaTypeMovie, 27205, "Inception")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "https://open.spotify.com/album/match", *got)
}

func TestSoundtrackServiceTokenErrorPropagates(t *testing.T) {
	tokens := &fakeTokenSource{err: appErrors.ErrTokenFetch}
	searcher := &fakeSearcher{}
	provider := &fakeProvider{details: json.RawMessage(`{"release_date":"2010-07-16"}`)}
	svc, _, _ := newTestSoundtrackService(t, tokens, searcher, provider)

	_, err := svc.Resolve(context.Background(), models.MediaTypeMovie, 27205, "Inception")
	require.ErrorIs(t, err, appErrors.ErrTokenFetch)
	require.Equal(t, int64(0), searcher.calls.Load())
}

func TestSoundtrackServiceSearchErrorPropagates(t *testing.T) {
	tokens := &fakeTokenSource{token: "tok"}
	searcher := &fakeSearcher{err: appErrors.ErrUpstreamFetch}
	provider := &fakeProvider{details: json.RawMessage(`{"release_date":"2010-07-16"}`)}
	svc, store, _ := newTestSoundtrackService(t, tokens, searcher, provider)

	_, err := svc.Resolve(context.Background(), models.MediaTypeMovie, 27205, "Inception")
	require.ErrorIs(t, err, appErrors.ErrUpstreamFetch)

	// Nothing is cached on failure.
	_, ok, err := store.Get(context.Background(), 27205, models.MediaTypeMovie)
	require.NoError(t, err)
	require.False(t, ok)
}
