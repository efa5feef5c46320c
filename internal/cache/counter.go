package cache

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/filmatlas/filmatlas/internal/models"
)

// CounterStore implements fixed-window counters on the primary database so
// rate limits hold across instances.
type CounterStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewCounterStore constructs a database-backed counter store.
func NewCounterStore(db *gorm.DB) *CounterStore {
	if db == nil {
		return nil
	}
	return &CounterStore{db: db, now: time.Now}
}

// IncrementWithTTL atomically increments the counter for key, resetting it
// when the previous window has lapsed.
func (s *CounterStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if s == nil {
		return 0, 0, errors.New("counter store: store not initialised")
	}
	ctx = ensuredContext(ctx)
	if window <= 0 {
		window = time.Minute
	}

	now := s.now()
	expiry := now.Add(window)

	var count int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.RateCounter
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Take(&row, "key = ?", key).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			count = 1
			row = models.RateCounter{Key: key, Count: count, ExpiresAt: expiry}
			return tx.Create(&row).Error
		}
		if err != nil {
			return err
		}

		if row.ExpiresAt.Before(now) {
			count = 1
			row.Count = count
			row.ExpiresAt = expiry
		} else {
			count = row.Count + 1
			row.Count = count
			expiry = row.ExpiresAt
		}

		return tx.Save(&row).Error
	})
	if err != nil {
		return 0, 0, err
	}

	return count, expiry.Sub(now), nil
}
