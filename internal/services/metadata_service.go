package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/filmatlas/filmatlas/internal/cache"
	"github.com/filmatlas/filmatlas/internal/models"
	"github.com/filmatlas/filmatlas/pkg/logger"
)

// Per-fragment freshness windows. Streaming availability churns faster than
// the other fragments, so providers get a tighter window.
const (
	DetailsMaxAge   = 24 * time.Hour
	VideosMaxAge    = 24 * time.Hour
	CreditsMaxAge   = 24 * time.Hour
	ProvidersMaxAge = 6 * time.Hour
)

// MetadataProvider is the upstream fetch capability consumed by the service.
type MetadataProvider interface {
	Details(ctx context.Context, kind string, id int64) (json.RawMessage, error)
	Videos(ctx context.Context, kind string, id int64) (json.RawMessage, error)
	Credits(ctx context.Context, kind string, id int64) (json.RawMessage, error)
	WatchProviders(ctx context.Context, kind string, id int64) (json.RawMessage, error)
}

// MetadataService serves metadata fragments through the cache: hit paths are
// answered from the store, misses fetch upstream synchronously and write back
// without blocking the response.
type MetadataService struct {
	store    *cache.MetadataStore
	provider MetadataProvider
	log      *zap.Logger
}

// NewMetadataService constructs the service once its collaborators are supplied.
func NewMetadataService(store *cache.MetadataStore, provider MetadataProvider) (*MetadataService, error) {
	if store == nil {
		return nil, errors.New("metadata service: store is required")
	}
	if provider == nil {
		return nil, errors.New("metadata service: provider is required")
	}
	return &MetadataService{
		store:    store,
		provider: provider,
		log:      logger.WithModule("metadata"),
	}, nil
}

// GetOrFetchDetails returns the details fragment, transparently cached.
func (s *MetadataService) GetOrFetchDetails(ctx context.Context, kind string, id int64) (json.RawMessage, error) {
	return s.fragment(ctx, kind, id, cache.FragmentDetails, DetailsMaxAge, s.provider.Details)
}

// GetOrFetchVideos returns the videos fragment, transparently cached.
func (s *MetadataService) GetOrFetchVideos(ctx context.Context, kind string, id int64) (json.RawMessage, error) {
	return s.fragment(ctx, kind, id, cache.FragmentVideos, VideosMaxAge, s.provider.Videos)
}

// GetOrFetchCredits returns the credits fragment, transparently cached.
func (s *MetadataService) GetOrFetchCredits(ctx context.Context, kind string, id int64) (json.RawMessage, error) {
	return s.fragment(ctx, kind, id, cache.FragmentCredits, CreditsMaxAge, s.provider.Credits)
}

// GetOrFetchProviders returns the watch-providers fragment, transparently cached.
func (s *MetadataService) GetOrFetchProviders(ctx context.Context, kind string, id int64) (json.RawMessage, error) {
	return s.fragment(ctx, kind, id, cache.FragmentProviders, ProvidersMaxAge, s.provider.WatchProviders)
}

type fetchFunc func(ctx context.Context, kind string, id int64) (json.RawMessage, error)

// fragment implements the shared read path. An overall row hit still misses
// when the specific fragment is absent: only that fragment is then fetched
// and patched in, which restamps cached_at for the whole row.
func (s *MetadataService) fragment(ctx context.Context, kind string, id int64, name string, maxAge time.Duration, fetch fetchFunc) (json.RawMessage, error) {
	if s == nil {
		return nil, errors.New("metadata service: service not initialised")
	}
	if !models.ValidMediaType(kind) {
		return nil, errors.New("metadata service: unsupported media type " + kind)
	}
	ctx = ensuredContext(ctx)

	row, ok, err := s.store.Get(ctx, id, kind, maxAge)
	if err != nil {
		// A broken store read is just a miss; upstream remains the source of truth.
		s.log.Warn("cache read failed",
			zap.Int64("movie_id", id),
			zap.String("media_type", kind),
			zap.Error(err),
		)
	}
	if ok {
		if blob := row.Fragment(name); len(blob) > 0 {
			return json.RawMessage(blob), nil
		}
	}

	payload, err := fetch(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	dispatchWrite(s.log, "movie", func(writeCtx context.Context) error {
		return s.store.PutFragment(writeCtx, id, kind, name, datatypes.JSON(payload))
	})

	return payload, nil
}

func ensuredContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
