// Package activity writes the append-only audit trail.
package activity

import (
	"context"
	"fmt"

	"github.com/gautamnaik0719/noormeds/internal/domain"
	"github.com/gautamnaik0719/noormeds/internal/journal"
	"github.com/gautamnaik0719/noormeds/internal/models"

	"github.com/rs/zerolog"
)

const timeFormat = "2006-01-02 15:04:05"

// SheetLog appends activity records to the log table. When the append
// fails and a journal is configured, the record is parked there and a
// background worker delivers it later; Record only fails when neither
// sink accepts the entry.
type SheetLog struct {
	store   domain.TableStore
	table   string
	journal *journal.Journal
	logger  zerolog.Logger
}

func NewSheetLog(store domain.TableStore, table string, j *journal.Journal, logger *zerolog.Logger) *SheetLog {
	return &SheetLog{
		store:   store,
		table:   table,
		journal: j,
		logger:  logger.With().Str("component", "activity").Logger(),
	}
}

// Record implements domain.ActivityLog.
func (s *SheetLog) Record(ctx context.Context, rec models.ActivityRecord) error {
	err := s.Append(ctx, rec)
	if err == nil {
		return nil
	}

	if s.journal == nil {
		return err
	}

	s.logger.Warn().Err(err).Msg("log append failed, journaling record")
	if jerr := s.journal.Enqueue(ctx, rec); jerr != nil {
		return fmt.Errorf("append failed (%v) and journal failed: %w", err, jerr)
	}
	return nil
}

// Append writes one record straight to the log table, without the journal
// fallback. The drain worker uses this as its delivery sink.
func (s *SheetLog) Append(ctx context.Context, rec models.ActivityRecord) error {
	values := []interface{}{
		rec.Timestamp.Format(timeFormat),
		string(rec.Action),
		rec.Name,
		rec.Dose,
		rec.Location,
		rec.Quantity,
	}
	if err := s.store.AppendRow(ctx, s.table, "A:F", values); err != nil {
		return fmt.Errorf("append activity record: %w", err)
	}
	return nil
}
