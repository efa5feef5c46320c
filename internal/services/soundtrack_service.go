package services

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/filmatlas/filmatlas/internal/cache"
	"github.com/filmatlas/filmatlas/internal/models"
	"github.com/filmatlas/filmatlas/internal/spotify"
	"github.com/filmatlas/filmatlas/internal/tmdb"
	"github.com/filmatlas/filmatlas/pkg/logger"
)

// TokenSource yields a usable bearer token for the music search API.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// SoundtrackSearcher queries the music search API for matching candidates.
type SoundtrackSearcher interface {
	SearchSoundtracks(ctx context.Context, token, title string) (*spotify.SearchResult, error)
}

// SoundtrackService resolves the best soundtrack link for a title. Results,
// including "no match found", are cached for a week so repeated lookups never
// redo the expensive search.
type SoundtrackService struct {
	store    *cache.SoundtrackStore
	tokens   TokenSource
	searcher SoundtrackSearcher
	metadata *MetadataService
	log      *zap.Logger
}

// NewSoundtrackService constructs the service once its collaborators are supplied.
func NewSoundtrackService(store *cache.SoundtrackStore, tokens TokenSource, searcher SoundtrackSearcher, metadata *MetadataService) (*SoundtrackService, error) {
	if store == nil {
		return nil, errors.New("soundtrack service: store is required")
	}
	if tokens == nil {
		return nil, errors.New("soundtrack service: token source is required")
	}
	if searcher == nil {
		return nil, errors.New("soundtrack service: searcher is required")
	}
	if metadata == nil {
		return nil, errors.New("soundtrack service: metadata service is required")
	}
	return &SoundtrackService{
		store:    store,
		tokens:   tokens,
		searcher: searcher,
		metadata: metadata,
		log:      logger.WithModule("soundtrack"),
	}, nil
}

// Resolve returns the best-matching soundtrack URL for (kind, id), or nil
// when no candidate qualifies. A cached row inside the TTL window is
// authoritative either way and short-circuits the whole pipeline.
func (s *SoundtrackService) Resolve(ctx context.Context, kind string, id int64, title string) (*string, error) {
	if s == nil {
		return nil, errors.New("soundtrack service: service not initialised")
	}
	if !models.ValidMediaType(kind) {
		return nil, errors.New("soundtrack service: unsupported media type " + kind)
	}
	ctx = ensuredContext(ctx)

	row, ok, err := s.store.Get(ctx, id, kind)
	if err != nil {
		s.log.Warn("cache read failed",
			zap.Int64("movie_id", id),
			zap.String("media_type", kind),
			zap.Error(err),
		)
	}
	if ok {
		return row.SoundtrackURL, nil
	}

	// The release year only sharpens scoring; losing it must not fail the
	// resolution.
	year, yearKnown := 0, false
	if details, err := s.metadata.GetOrFetchDetails(ctx, kind, id); err != nil {
		s.log.Warn("release year unavailable, scoring without year bonus",
			zap.Int64("movie_id", id),
			zap.Error(err),
		)
	} else {
		year, yearKnown = tmdb.ReleaseYear(details)
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.searcher.SearchSoundtracks(ctx, token, title)
	if err != nil {
		return nil, err
	}

	url := pickBest(result, title, year, yearKnown)

	dispatchWrite(s.log, "soundtrack", func(writeCtx context.Context) error {
		return s.store.Put(writeCtx, id, kind, title, url, datatypes.JSON(result.Raw))
	})

	return url, nil
}
