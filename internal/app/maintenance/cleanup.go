package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/filmatlas/filmatlas/internal/models"
	"github.com/filmatlas/filmatlas/pkg/logger"
	"github.com/filmatlas/filmatlas/pkg/metrics"
)

// Retention windows per table. Expired rows are only reclaimed here; reads
// already ignore them via their TTL cutoffs.
const (
	MovieRetention      = 24 * time.Hour
	SoundtrackRetention = 7 * 24 * time.Hour
)

const defaultSchedule = "@hourly"

// TableCount is the number of cache tables a sweep covers. A run that fails
// on every table is a total failure; anything less is partial success.
const TableCount = 3

// CleanupStats captures the number of rows removed per table.
type CleanupStats struct {
	SpotifyTokens   int64 `json:"spotify_tokens"`
	MovieCache      int64 `json:"movie_cache"`
	SoundtrackCache int64 `json:"soundtrack_cache"`
}

// TableCounts holds the row counts per cache table.
type TableCounts struct {
	SpotifyTokens   int64 `json:"spotify_tokens"`
	MovieCache      int64 `json:"movie_cache"`
	SoundtrackCache int64 `json:"soundtrack_cache"`
}

// Cleaner reclaims expired cache rows on a schedule and on demand.
type Cleaner struct {
	db       *gorm.DB
	cron     *cron.Cron
	now      func() time.Time
	log      *zap.Logger
	schedule string
}

// Option customises the Cleaner.
type Option func(*Cleaner)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(cleaner *Cleaner) {
		if c != nil {
			cleaner.cron = c
		}
	}
}

// WithNow overrides the clock used for retention comparisons.
func WithNow(now func() time.Time) Option {
	return func(cleaner *Cleaner) {
		if now != nil {
			cleaner.now = now
		}
	}
}

// WithSchedule overrides the cron specification for the sweep.
func WithSchedule(spec string) Option {
	return func(cleaner *Cleaner) {
		if spec != "" {
			cleaner.schedule = spec
		}
	}
}

// NewCleaner constructs a Cleaner with sensible defaults.
func NewCleaner(db *gorm.DB, opts ...Option) (*Cleaner, error) {
	if db == nil {
		return nil, errors.New("maintenance: db is required")
	}

	cleaner := &Cleaner{
		db:       db,
		now:      time.Now,
		schedule: defaultSchedule,
		log:      logger.WithModule("maintenance"),
	}

	for _, opt := range opts {
		opt(cleaner)
	}

	if cleaner.cron == nil {
		cleaner.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return cleaner, nil
}

// Start registers the sweep with the cron scheduler and launches it.
func (c *Cleaner) Start() error {
	if _, err := c.cron.AddFunc(c.schedule, func() {
		if _, err := c.RunOnce(context.Background()); err != nil {
			c.log.Warn("scheduled cache cleanup failed", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	c.cron.Start()
	return nil
}

// Stop halts the underlying scheduler, waiting for any running sweep to complete.
func (c *Cleaner) Stop() context.Context {
	if c.cron == nil {
		return context.Background()
	}
	return c.cron.Stop()
}

// RunOnce sweeps all three tables. Each table is independent: a failure on
// one does not block the others, and partial success is reported alongside
// the accumulated errors rather than escalated to a total failure.
func (c *Cleaner) RunOnce(ctx context.Context) (CleanupStats, error) {
	if c == nil {
		return CleanupStats{}, errors.New("maintenance: cleaner not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := c.now()
	stats := CleanupStats{}
	var errs error

	if result := c.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.SpotifyToken{}); result.Error != nil {
		errs = multierr.Append(errs, fmt.Errorf("cleanup spotify_tokens: %w", result.Error))
	} else {
		stats.SpotifyTokens = result.RowsAffected
		metrics.CacheCleanupDeleted.WithLabelValues("spotify_tokens").Add(float64(result.RowsAffected))
	}

	if result := c.db.WithContext(ctx).
		Where("cached_at < ?", now.Add(-MovieRetention)).
		Delete(&models.MovieCache{}); result.Error != nil {
		errs = multierr.Append(errs, fmt.Errorf("cleanup movie_cache: %w", result.Error))
	} else {
		stats.MovieCache = result.RowsAffected
		metrics.CacheCleanupDeleted.WithLabelValues("movie_cache").Add(float64(result.RowsAffected))
	}

	if result := c.db.WithContext(ctx).
		Where("cached_at < ?", now.Add(-SoundtrackRetention)).
		Delete(&models.SoundtrackCache{}); result.Error != nil {
		errs = multierr.Append(errs, fmt.Errorf("cleanup soundtrack_cache: %w", result.Error))
	} else {
		stats.SoundtrackCache = result.RowsAffected
		metrics.CacheCleanupDeleted.WithLabelValues("soundtrack_cache").Add(float64(result.RowsAffected))
	}

	c.log.Info("cache cleanup completed",
		zap.Int64("spotify_tokens", stats.SpotifyTokens),
		zap.Int64("movie_cache", stats.MovieCache),
		zap.Int64("soundtrack_cache", stats.SoundtrackCache),
	)

	return stats, errs
}

// Stats returns current row counts per table. A pure read used for
// before/after comparison around a cleanup run.
func (c *Cleaner) Stats(ctx context.Context) (TableCounts, error) {
	if c == nil {
		return TableCounts{}, errors.New("maintenance: cleaner not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	counts := TableCounts{}
	var errs error

	if err := c.db.WithContext(ctx).Model(&models.SpotifyToken{}).Count(&counts.SpotifyTokens).Error; err != nil {
		errs = multierr.Append(errs, fmt.Errorf("count spotify_tokens: %w", err))
	}
	if err := c.db.WithContext(ctx).Model(&models.MovieCache{}).Count(&counts.MovieCache).Error; err != nil {
		errs = multierr.Append(errs, fmt.Errorf("count movie_cache: %w", err))
	}
	if err := c.db.WithContext(ctx).Model(&models.SoundtrackCache{}).Count(&counts.SoundtrackCache).Error; err != nil {
		errs = multierr.Append(errs, fmt.Errorf("count soundtrack_cache: %w", err))
	}

	return counts, errs
}
