package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/filmatlas/filmatlas/internal/models"
	"github.com/filmatlas/filmatlas/pkg/metrics"
)

// Fragment names stored on a movie cache row.
const (
	FragmentDetails   = "details"
	FragmentVideos    = "videos"
	FragmentCredits   = "credits"
	FragmentProviders = "providers"
)

var fragmentColumns = map[string]struct{}{
	FragmentDetails:   {},
	FragmentVideos:    {},
	FragmentCredits:   {},
	FragmentProviders: {},
}

// Fragments carries the subset of metadata blobs included in a write. Nil
// members are left untouched on an existing row, never nulled out.
type Fragments struct {
	Details   datatypes.JSON
	Videos    datatypes.JSON
	Credits   datatypes.JSON
	Providers datatypes.JSON
}

// MetadataStore reads and writes the per-title metadata cache rows.
type MetadataStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewMetadataStore constructs a metadata store once a database handle is supplied.
func NewMetadataStore(db *gorm.DB) (*MetadataStore, error) {
	if db == nil {
		return nil, errors.New("metadata store: db is required")
	}
	return &MetadataStore{db: db, now: time.Now}, nil
}

// Get returns the cached row for (id, kind) when it is younger than maxAge.
// A row aged exactly maxAge counts as expired. The returned row may hold any
// subset of fragments; callers must check the fragment they need themselves.
// Store failures degrade to a miss and are reported for logging only.
func (s *MetadataStore) Get(ctx context.Context, id int64, kind string, maxAge time.Duration) (*models.MovieCache, bool, error) {
	if s == nil {
		return nil, false, errors.New("metadata store: store not initialised")
	}
	ctx = ensuredContext(ctx)

	cutoff := s.now().Add(-maxAge)

	var row models.MovieCache
	err := s.db.WithContext(ctx).
		Where("movie_id = ? AND media_type = ? AND cached_at > ?", id, kind, cutoff).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.CacheLookups.WithLabelValues("movie", "miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues("movie", "error").Inc()
		return nil, false, err
	}

	metrics.CacheLookups.WithLabelValues("movie", "hit").Inc()
	return &row, true, nil
}

// Put upserts the supplied fragments for (id, kind) and restamps cached_at.
// Fields absent from the write are preserved on an existing row.
func (s *MetadataStore) Put(ctx context.Context, id int64, kind string, fragments Fragments) error {
	if s == nil {
		return errors.New("metadata store: store not initialised")
	}
	ctx = ensuredContext(ctx)

	now := s.now()
	row := models.MovieCache{
		MovieID:   id,
		MediaType: kind,
		Details:   fragments.Details,
		Videos:    fragments.Videos,
		Credits:   fragments.Credits,
		Providers: fragments.Providers,
		CachedAt:  now,
	}

	assignments := map[string]interface{}{"cached_at": now}
	if fragments.Details != nil {
		assignments[FragmentDetails] = fragments.Details
	}
	if fragments.Videos != nil {
		assignments[FragmentVideos] = fragments.Videos
	}
	if fragments.Credits != nil {
		assignments[FragmentCredits] = fragments.Credits
	}
	if fragments.Providers != nil {
		assignments[FragmentProviders] = fragments.Providers
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "movie_id"}, {Name: "media_type"}},
			DoUpdates: clause.Assignments(assignments),
		}).Create(&row).Error
}

// PutFragment patches a single named fragment, restamping cached_at. When no
// row exists yet a fresh one is inserted with only that fragment populated.
// The read-check-then-write is not atomic against concurrent writers; a lost
// update self-heals on the next miss because every blob is re-derivable.
func (s *MetadataStore) PutFragment(ctx context.Context, id int64, kind, name string, raw datatypes.JSON) error {
	if s == nil {
		return errors.New("metadata store: store not initialised")
	}
	if _, ok := fragmentColumns[name]; !ok {
		return fmt.Errorf("metadata store: unknown fragment %q", name)
	}
	ctx = ensuredContext(ctx)

	var existing models.MovieCache
	err := s.db.WithContext(ctx).
		Where("movie_id = ? AND media_type = ?", id, kind).
		Take(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		fragments := Fragments{}
		switch name {
		case FragmentDetails:
			fragments.Details = raw
		case FragmentVideos:
			fragments.Videos = raw
		case FragmentCredits:
			fragments.Credits = raw
		case FragmentProviders:
			fragments.Providers = raw
		}
		return s.Put(ctx, id, kind, fragments)
	case err != nil:
		return err
	}

	return s.db.WithContext(ctx).
		Model(&models.MovieCache{}).
		Where("movie_id = ? AND media_type = ?", id, kind).
		Updates(map[string]interface{}{name: raw, "cached_at": s.now()}).Error
}

func ensuredContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
