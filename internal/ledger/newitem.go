package ledger

import (
	"context"
	"errors"

	"github.com/gautamnaik0719/noormeds/internal/models"
)

// AddNew handles an explicit new-item declaration. Matching is looser than
// restock: dose comparison ignores all internal whitespace. When no live
// match exists, any archive entry with the same (name, dose) is purged
// first so a stale archive row and a live row never coexist.
func (l *Ledger) AddNew(ctx context.Context, name, dose, location string, quantity int, scope models.Scope) (models.OpResult, error) {
	res := models.OpResult{
		Name:     name,
		Dose:     dose,
		Location: location,
		Quantity: quantity,
	}

	if quantity <= 0 {
		res.Skipped = true
		return res, nil
	}

	if scope == models.ScopePrivate {
		res.Location = l.tables.StashLabel
		if err := l.recordAdd(ctx, name, dose, l.tables.StashLabel, quantity); err != nil {
			res.Error = err.Error()
			return res, err
		}
		merged, err := l.upsertStash(ctx, name, dose, quantity, doseEqualLoose)
		if err != nil {
			res.Error = err.Error()
			return res, err
		}
		res.Merged = merged
		return res, nil
	}

	item, err := l.findMatch(ctx, name, dose, location, doseEqualLoose)
	if err == nil {
		res.Location = item.Location
		if err := l.recordAdd(ctx, item.Name, item.Dose, item.Location, quantity); err != nil {
			res.Error = err.Error()
			return res, err
		}
		if err := l.addToRow(ctx, *item, quantity); err != nil {
			res.Error = err.Error()
			return res, err
		}
		res.Merged = true
		return res, nil
	}
	if !errors.Is(err, ErrNotFound) {
		res.Error = err.Error()
		return res, err
	}

	// Re-declaring a depleted item: drop its archive entries, whatever
	// location they were depleted from.
	if err := l.purgeArchive(ctx, name, dose); err != nil {
		res.Error = err.Error()
		return res, err
	}

	if err := l.recordAdd(ctx, name, dose, location, quantity); err != nil {
		res.Error = err.Error()
		return res, err
	}

	table := l.routeTable(location)
	values := []interface{}{name, dose, location, quantity}
	if err := l.store.AppendRow(ctx, table, "A:D", values); err != nil {
		res.Error = err.Error()
		return res, err
	}
	if err := l.resort(ctx, table); err != nil {
		res.Error = err.Error()
		return res, err
	}
	return res, nil
}

// purgeArchive deletes every archive row matching (name, dose), ignoring
// lastLocation, highest position first.
func (l *Ledger) purgeArchive(ctx context.Context, name, dose string) error {
	entries, err := l.readArchive(ctx)
	if err != nil {
		return err
	}

	var positions []int
	for _, entry := range entries {
		if Normalize(entry.Name) == Normalize(name) && doseEqualLoose(entry.Dose, dose) {
			positions = append(positions, entry.Position)
		}
	}
	if len(positions) == 0 {
		return nil
	}
	return l.deleteDescending(ctx, l.tables.Archive, positions)
}
