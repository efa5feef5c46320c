package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/filmatlas/filmatlas/internal/models"
	"github.com/filmatlas/filmatlas/pkg/metrics"
)

// SoundtrackTTL is how long a resolved soundtrack (or resolved no-match)
// stays authoritative.
const SoundtrackTTL = 7 * 24 * time.Hour

// SoundtrackStore reads and writes resolved soundtrack rows.
type SoundtrackStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// NewSoundtrackStore constructs a soundtrack store once a database handle is supplied.
func NewSoundtrackStore(db *gorm.DB) (*SoundtrackStore, error) {
	if db == nil {
		return nil, errors.New("soundtrack store: db is required")
	}
	return &SoundtrackStore{db: db, ttl: SoundtrackTTL, now: time.Now}, nil
}

// Get returns the cached resolution for (id, kind) inside the TTL window.
// A row with a NULL URL is still a hit: it means the search already ran and
// found nothing, which is exactly what repeated lookups should not redo.
func (s *SoundtrackStore) Get(ctx context.Context, id int64, kind string) (*models.SoundtrackCache, bool, error) {
	if s == nil {
		return nil, false, errors.New("soundtrack store: store not initialised")
	}
	ctx = ensuredContext(ctx)

	cutoff := s.now().Add(-s.ttl)

	var row models.SoundtrackCache
	err := s.db.WithContext(ctx).
		Where("movie_id = ? AND media_type = ? AND cached_at > ?", id, kind, cutoff).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.CacheLookups.WithLabelValues("soundtrack", "miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues("soundtrack", "error").Inc()
		return nil, false, err
	}

	metrics.CacheLookups.WithLabelValues("soundtrack", "hit").Inc()
	return &row, true, nil
}

// Put upserts the resolution outcome, NULL URL included, plus the raw search
// payload kept for diagnostics.
func (s *SoundtrackStore) Put(ctx context.Context, id int64, kind, name string, url *string, rawSearch datatypes.JSON) error {
	if s == nil {
		return errors.New("soundtrack store: store not initialised")
	}
	ctx = ensuredContext(ctx)

	row := models.SoundtrackCache{
		MovieID:         id,
		MediaType:       kind,
		MovieName:       name,
		SoundtrackURL:   url,
		SpotifyResponse: rawSearch,
		CachedAt:        s.now(),
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "movie_id"}, {Name: "media_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"movie_name", "soundtrack_url", "spotify_response", "cached_at"}),
		}).Create(&row).Error
}
