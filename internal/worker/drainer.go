// Package worker delivers journaled activity records to the log table in
// the background.
package worker

import (
	"context"
	"time"

	"github.com/gautamnaik0719/noormeds/internal/journal"
	"github.com/gautamnaik0719/noormeds/internal/metrics"
	"github.com/gautamnaik0719/noormeds/internal/models"

	"github.com/rs/zerolog"
)

// Sink is where drained records go: the direct log-table append, without
// the journal fallback.
type Sink interface {
	Append(ctx context.Context, rec models.ActivityRecord) error
}

type Drainer struct {
	journal      *journal.Journal
	sink         Sink
	retryPolicy  RetryPolicy
	pollInterval time.Duration
	batchSize    int
	logger       zerolog.Logger
}

// NewDrainer builds a drainer with sane defaults.
func NewDrainer(j *journal.Journal, sink Sink, retry RetryPolicy, pollInterval time.Duration, batchSize int, logger *zerolog.Logger) *Drainer {
	retry = retry.withDefaults()
	if pollInterval <= 0 {
		pollInterval = 30 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 20
	}

	return &Drainer{
		journal:      j,
		sink:         sink,
		retryPolicy:  retry,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		logger:       logger.With().Str("component", "drainer").Logger(),
	}
}

// Run polls the journal until the context is cancelled.
func (d *Drainer) Run(ctx context.Context) {
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	d.logger.Info().Dur("poll_interval", d.pollInterval).Msg("journal drainer started")
	for {
		select {
		case <-ctx.Done():
			d.logger.Info().Msg("journal drainer stopped")
			return
		case <-ticker.C:
			d.DrainOnce(ctx)
		}
	}
}

// DrainOnce processes one batch of deliverable entries.
func (d *Drainer) DrainOnce(ctx context.Context) {
	entries, err := d.journal.Pending(ctx, d.batchSize)
	if err != nil {
		d.logger.Error().Err(err).Msg("load pending journal entries")
		return
	}

	for _, entry := range entries {
		if err := d.sink.Append(ctx, entry.Record); err != nil {
			d.handleFailure(ctx, entry, err)
			continue
		}
		if err := d.journal.MarkDelivered(ctx, entry.ID); err != nil {
			d.logger.Error().Err(err).Int64("entry", entry.ID).Msg("mark delivered")
		}
	}

	if depth, err := d.journal.Depth(ctx); err == nil {
		metrics.SetJournalDepth(depth)
	}
}

func (d *Drainer) handleFailure(ctx context.Context, entry journal.Entry, cause error) {
	attempt := entry.Attempts + 1
	if attempt >= d.retryPolicy.MaxRetries {
		d.logger.Error().Err(cause).Int64("entry", entry.ID).Int("attempts", attempt).Msg("entry exhausted retries, marking dead")
		if err := d.journal.MarkDead(ctx, entry.ID, cause.Error()); err != nil {
			d.logger.Error().Err(err).Int64("entry", entry.ID).Msg("mark dead")
		}
		return
	}

	next := time.Now().Add(d.retryPolicy.NextDelay(attempt))
	d.logger.Warn().Err(cause).Int64("entry", entry.ID).Time("next_retry", next).Msg("delivery failed, scheduling retry")
	if err := d.journal.MarkRetry(ctx, entry.ID, cause.Error(), next); err != nil {
		d.logger.Error().Err(err).Int64("entry", entry.ID).Msg("mark retry")
	}
}
