package domain

import (
	"context"

	"github.com/gautamnaik0719/noormeds/internal/models"
)

// SortKey orders a sort by a zero-based column index.
type SortKey struct {
	Column    int
	Ascending bool
}

// TableStore gives row-level access to named tables addressed by position.
// Row positions are 1-based sheet rows: the header is row 1, so data row N
// sits at position N+1. Calls may fail with an unknown outcome; callers
// must not assume a failed call was not applied.
type TableStore interface {
	TableID(ctx context.Context, name string) (int64, error)
	// ReadRows returns all rows of the given column range, header included
	// at index 0. Cell values are stringified.
	ReadRows(ctx context.Context, table, colRange string) ([][]string, error)
	UpdateCell(ctx context.Context, table, column string, row int, value string) error
	AppendRow(ctx context.Context, table, colRange string, values []interface{}) error
	// DeleteRows removes rows in [start, end).
	DeleteRows(ctx context.Context, table string, start, end int) error
	// SortRows sorts all data rows (header excluded) by the given keys.
	SortRows(ctx context.Context, table string, keys []SortKey) error
}

// ActivityLog is the append-only audit trail. Write-only from the ledger's
// perspective; a Record call must either durably persist the entry or fail.
type ActivityLog interface {
	Record(ctx context.Context, rec models.ActivityRecord) error
}

// EventPublisher fans mutation events out to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ListCache caches derived read-mostly lists (item names, locations).
type ListCache interface {
	Get(ctx context.Context, key string) ([]string, bool)
	Set(ctx context.Context, key string, values []string) error
	Invalidate(ctx context.Context) error
}

// StockService is the operation surface the API layer consumes.
type StockService interface {
	Search(ctx context.Context, rawQuery string) ([]models.Item, error)
	SearchArchived(ctx context.Context, query string, stashOnly bool) ([]models.ArchivedItem, error)
	Consume(ctx context.Context, lines []models.ConsumeLine) ([]models.OpResult, error)
	Restock(ctx context.Context, rawName, dose, location string, quantity int, known *models.RowRef) (models.OpResult, error)
	AddNew(ctx context.Context, rawName, dose, location string, quantity int) (models.OpResult, error)
	Names(ctx context.Context) ([]string, error)
	Doses(ctx context.Context, name string) ([]string, error)
	Locations(ctx context.Context) ([]string, error)
}
