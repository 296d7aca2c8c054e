package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gautamnaik0719/noormeds/internal/config"
	"github.com/gautamnaik0719/noormeds/internal/domain"
	"github.com/gautamnaik0719/noormeds/internal/models"

	"github.com/rs/zerolog"
)

// ErrNotFound marks a negative lookup. Callers treat it as a normal
// result, not a failure.
var ErrNotFound = errors.New("not found")

// Tables describes the logical table layout the ledger operates on.
type Tables struct {
	// Active tables are scanned in declaration order; first match wins.
	Active  []string
	Stash   string
	Archive string
	Catalog string
	Log     string

	// StashLabel is the synthetic location reported for stash items and
	// recorded as lastLocation when a stash item is archived.
	StashLabel string

	// Location routing: a location containing Keyword goes to
	// KeywordTable, everything else to DefaultTable.
	Keyword      string
	KeywordTable string
	DefaultTable string

	AliasMarker string
}

// TablesFromConfig maps the config sections onto a Tables value.
func TablesFromConfig(cfg *config.Config) Tables {
	return Tables{
		Active:       cfg.Tables.Active,
		Stash:        cfg.Tables.Stash,
		Archive:      cfg.Tables.Archive,
		Catalog:      cfg.Tables.Catalog,
		Log:          cfg.Tables.Log,
		StashLabel:   cfg.Tables.StashLabel,
		Keyword:      cfg.Routing.Keyword,
		KeywordTable: cfg.Routing.KeywordTable,
		DefaultTable: cfg.Routing.DefaultTable,
		AliasMarker:  cfg.Alias.Marker,
	}
}

// Ledger implements the four mutating stock algorithms plus the read-side
// queries over a positional table store. It holds no row state of its own:
// every mutation re-reads the target table immediately before addressing
// rows by position.
type Ledger struct {
	store  domain.TableStore
	audit  domain.ActivityLog
	tables Tables
	logger zerolog.Logger
}

func New(store domain.TableStore, audit domain.ActivityLog, tables Tables, logger *zerolog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		audit:  audit,
		tables: tables,
		logger: logger.With().Str("component", "ledger").Logger(),
	}
}

// Tables returns the table layout the ledger was built with.
func (l *Ledger) Tables() Tables {
	return l.tables
}

func (l *Ledger) isStash(table string) bool {
	return strings.EqualFold(strings.TrimSpace(table), strings.TrimSpace(l.tables.Stash))
}

// colRange returns the column span holding a table's data.
func (l *Ledger) colRange(table string) string {
	if l.isStash(table) || strings.EqualFold(table, l.tables.Archive) {
		return "A:C"
	}
	if strings.EqualFold(table, l.tables.Catalog) {
		return "A:A"
	}
	return "A:D"
}

// qtyColumn returns the quantity column letter. The stash table has no
// location column, so its quantity sits one column earlier.
func (l *Ledger) qtyColumn(table string) string {
	if l.isStash(table) {
		return "C"
	}
	return "D"
}

// routeTable picks the destination active table for a location name.
func (l *Ledger) routeTable(location string) string {
	if l.tables.Keyword != "" && strings.Contains(Normalize(location), Normalize(l.tables.Keyword)) {
		return l.tables.KeywordTable
	}
	return l.tables.DefaultTable
}

// sheetRow converts a 1-based data position to the 1-based sheet row.
func sheetRow(position int) int {
	return position + 1
}

// readItems loads every data row of a table as items. The header row is
// dropped; malformed rows are padded rather than skipped so positions stay
// aligned with the sheet.
func (l *Ledger) readItems(ctx context.Context, table string) ([]models.Item, error) {
	rows, err := l.store.ReadRows(ctx, table, l.colRange(table))
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	stash := l.isStash(table)
	items := make([]models.Item, 0, len(rows)-1)
	for i, row := range rows[1:] {
		item := models.Item{Table: table, Position: i + 1}
		item.Name = cellAt(row, 0)
		item.Dose = cellAt(row, 1)
		if stash {
			item.Location = l.tables.StashLabel
			item.Quantity = parseQuantity(cellAt(row, 2))
		} else {
			item.Location = cellAt(row, 2)
			item.Quantity = parseQuantity(cellAt(row, 3))
		}
		items = append(items, item)
	}
	return items, nil
}

func (l *Ledger) readArchive(ctx context.Context) ([]models.ArchivedItem, error) {
	rows, err := l.store.ReadRows(ctx, l.tables.Archive, "A:C")
	if err != nil {
		return nil, err
	}
	if len(rows) <= 1 {
		return nil, nil
	}

	entries := make([]models.ArchivedItem, 0, len(rows)-1)
	for i, row := range rows[1:] {
		entries = append(entries, models.ArchivedItem{
			Name:         cellAt(row, 0),
			Dose:         cellAt(row, 1),
			LastLocation: cellAt(row, 2),
			Position:     i + 1,
		})
	}
	return entries, nil
}

// resolve re-locates a row by normalized identity right before a
// position-addressed mutation. The supplied position is only a hint: it is
// used when the identity still matches there, otherwise the table is
// scanned for the first identity match.
func (l *Ledger) resolve(ctx context.Context, table, name, dose, location string, hint int) (*models.Item, error) {
	items, err := l.readItems(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("resolve row in %s: %w", table, err)
	}

	stash := l.isStash(table)
	matches := func(it models.Item) bool {
		if Normalize(it.Name) != Normalize(name) || Normalize(it.Dose) != Normalize(dose) {
			return false
		}
		if stash {
			return true
		}
		return Normalize(it.Location) == Normalize(location)
	}

	if hint >= 1 && hint <= len(items) && matches(items[hint-1]) {
		item := items[hint-1]
		return &item, nil
	}
	for _, it := range items {
		if matches(it) {
			item := it
			return &item, nil
		}
	}
	return nil, ErrNotFound
}

// deleteDescending removes the given data positions from one table,
// highest first, so earlier deletes cannot shift rows a later delete
// still addresses.
func (l *Ledger) deleteDescending(ctx context.Context, table string, positions []int) error {
	sorted := make([]int, len(positions))
	copy(sorted, positions)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	for _, pos := range sorted {
		if err := l.store.DeleteRows(ctx, table, sheetRow(pos), sheetRow(pos)+1); err != nil {
			return fmt.Errorf("delete row %d of %s: %w", pos, table, err)
		}
	}
	return nil
}

// resort orders a table's data rows by (location asc, name asc).
func (l *Ledger) resort(ctx context.Context, table string) error {
	keys := []domain.SortKey{
		{Column: 2, Ascending: true},
		{Column: 0, Ascending: true},
	}
	return l.store.SortRows(ctx, table, keys)
}

func cellAt(row []string, idx int) string {
	if idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func parseQuantity(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
