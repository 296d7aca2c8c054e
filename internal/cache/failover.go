package cache

import (
	"context"

	"github.com/gautamnaik0719/noormeds/internal/domain"

	"github.com/rs/zerolog"
)

// Failover reads from the primary cache first and falls back to the
// secondary. Writes and invalidations go to both, so a Redis outage
// degrades to in-process caching instead of none.
type Failover struct {
	primary  domain.ListCache
	fallback domain.ListCache
	logger   zerolog.Logger
}

func NewFailover(primary, fallback domain.ListCache, logger *zerolog.Logger) *Failover {
	return &Failover{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With().Str("component", "cache").Logger(),
	}
}

func (f *Failover) Get(ctx context.Context, key string) ([]string, bool) {
	if values, ok := f.primary.Get(ctx, key); ok {
		return values, true
	}
	return f.fallback.Get(ctx, key)
}

func (f *Failover) Set(ctx context.Context, key string, values []string) error {
	if err := f.primary.Set(ctx, key, values); err != nil {
		f.logger.Warn().Err(err).Str("key", key).Msg("primary cache set failed")
	}
	return f.fallback.Set(ctx, key, values)
}

func (f *Failover) Invalidate(ctx context.Context) error {
	if err := f.primary.Invalidate(ctx); err != nil {
		f.logger.Warn().Err(err).Msg("primary cache invalidate failed")
	}
	return f.fallback.Invalidate(ctx)
}
