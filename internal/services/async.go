package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/filmatlas/filmatlas/pkg/metrics"
)

const writeBackTimeout = 10 * time.Second

// dispatchWrite runs a cache write-back on a detached goroutine. The caller's
// response never waits on it and never sees its outcome: failures are counted
// and logged, nothing more. It runs under its own deadline rather than the
// request context so a completed response does not cancel the write.
func dispatchWrite(log *zap.Logger, table string, fn func(context.Context) error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("cache write-back panic",
					zap.String("table", table),
					zap.Any("error", r),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), writeBackTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			metrics.CacheWriteFailures.WithLabelValues(table).Inc()
			log.Warn("cache write-back failed",
				zap.String("table", table),
				zap.Error(err),
			)
		}
	}()
}
