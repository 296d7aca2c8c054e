package ledger

import (
	"context"
	"sort"
	"strings"

	"github.com/gautamnaik0719/noormeds/internal/models"
)

// FindItems returns items whose normalized name contains the normalized
// query substring. Normal scope unions the active tables in declaration
// order; private scope reads the stash only. A failed table read degrades
// to "no rows" for that table: search never propagates store errors.
func (l *Ledger) FindItems(ctx context.Context, query string, scope models.Scope) []models.Item {
	tables := l.tables.Active
	if scope == models.ScopePrivate {
		tables = []string{l.tables.Stash}
	}

	needle := Normalize(query)
	var out []models.Item
	for _, table := range tables {
		items, err := l.readItems(ctx, table)
		if err != nil {
			l.logger.Warn().Err(err).Str("table", table).Msg("table read failed, treating as empty")
			continue
		}
		for _, item := range items {
			if strings.Contains(Normalize(item.Name), needle) {
				out = append(out, item)
			}
		}
	}
	return out
}

// FindArchived returns archive entries filtered by name substring and by
// stash origin: stashOnly selects entries whose lastLocation is the stash
// label, otherwise those whose lastLocation is anything else.
func (l *Ledger) FindArchived(ctx context.Context, query string, stashOnly bool) []models.ArchivedItem {
	entries, err := l.readArchive(ctx)
	if err != nil {
		l.logger.Warn().Err(err).Msg("archive read failed, treating as empty")
		return nil
	}

	needle := Normalize(query)
	label := Normalize(l.tables.StashLabel)
	var out []models.ArchivedItem
	for _, entry := range entries {
		if !strings.Contains(Normalize(entry.Name), needle) {
			continue
		}
		fromStash := Normalize(entry.LastLocation) == label
		if fromStash == stashOnly {
			out = append(out, entry)
		}
	}
	return out
}

// Names lists the distinct item names across the active tables, sorted.
// The stash is deliberately excluded.
func (l *Ledger) Names(ctx context.Context) []string {
	seen := make(map[string]string)
	for _, table := range l.tables.Active {
		items, err := l.readItems(ctx, table)
		if err != nil {
			l.logger.Warn().Err(err).Str("table", table).Msg("table read failed, treating as empty")
			continue
		}
		for _, item := range items {
			key := Normalize(item.Name)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; !ok {
				seen[key] = item.Name
			}
		}
	}

	names := make([]string, 0, len(seen))
	for _, name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Doses lists the distinct doses recorded for a name across the active
// tables, in scan order.
func (l *Ledger) Doses(ctx context.Context, name string) []string {
	target := Normalize(name)
	seen := make(map[string]bool)
	var doses []string
	for _, table := range l.tables.Active {
		items, err := l.readItems(ctx, table)
		if err != nil {
			l.logger.Warn().Err(err).Str("table", table).Msg("table read failed, treating as empty")
			continue
		}
		for _, item := range items {
			if Normalize(item.Name) != target {
				continue
			}
			key := Normalize(item.Dose)
			if !seen[key] {
				seen[key] = true
				doses = append(doses, item.Dose)
			}
		}
	}
	return doses
}

// Locations returns the location catalog in its stored order.
func (l *Ledger) Locations(ctx context.Context) []string {
	rows, err := l.store.ReadRows(ctx, l.tables.Catalog, "A:A")
	if err != nil {
		l.logger.Warn().Err(err).Msg("catalog read failed, treating as empty")
		return nil
	}
	if len(rows) <= 1 {
		return nil
	}

	locations := make([]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if loc := cellAt(row, 0); loc != "" {
			locations = append(locations, loc)
		}
	}
	return locations
}
