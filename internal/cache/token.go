package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/filmatlas/filmatlas/internal/models"
	"github.com/filmatlas/filmatlas/pkg/metrics"
)

// TokenStore reads and writes cached music-provider bearer tokens. There is
// no mutual exclusion across concurrent callers: two simultaneous misses may
// both fetch and both insert, and readers simply pick the most-future-expiring
// valid row. Duplicate valid tokens are harmless.
type TokenStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewTokenStore constructs a token store once a database handle is supplied.
func NewTokenStore(db *gorm.DB) (*TokenStore, error) {
	if db == nil {
		return nil, errors.New("token store: db is required")
	}
	return &TokenStore{db: db, now: time.Now}, nil
}

// Current returns the authoritative token: the non-expired row with the
// latest expiry.
func (s *TokenStore) Current(ctx context.Context) (*models.SpotifyToken, bool, error) {
	if s == nil {
		return nil, false, errors.New("token store: store not initialised")
	}
	ctx = ensuredContext(ctx)

	var row models.SpotifyToken
	err := s.db.WithContext(ctx).
		Where("expires_at > ?", s.now()).
		Order("expires_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.CacheLookups.WithLabelValues("token", "miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues("token", "error").Inc()
		return nil, false, err
	}

	metrics.CacheLookups.WithLabelValues("token", "hit").Inc()
	return &row, true, nil
}

// Insert records a freshly exchanged token. Rows are never mutated; newer
// rows supersede older ones and maintenance reaps the expired.
func (s *TokenStore) Insert(ctx context.Context, accessToken, tokenType string, expiresAt time.Time) error {
	if s == nil {
		return errors.New("token store: store not initialised")
	}
	ctx = ensuredContext(ctx)

	row := models.SpotifyToken{
		AccessToken: accessToken,
		TokenType:   tokenType,
		ExpiresAt:   expiresAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}
