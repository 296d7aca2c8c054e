package ledger

import (
	"context"

	"github.com/gautamnaik0719/noormeds/internal/models"
)

// RestoreArchived re-materializes an archived item as active stock.
// Every archive row matching the normalized (name, dose, lastLocation) key
// is deleted (the archive holds identity, not history), highest position
// first. An item archived from the stash always returns to the stash,
// whatever location the restock form offered. Restoring an already-deleted
// entry is a no-op.
func (l *Ledger) RestoreArchived(ctx context.Context, name, dose string, quantity int, lastLocation, chosenLocation string) (models.OpResult, error) {
	res := models.OpResult{
		Name:     name,
		Dose:     dose,
		Location: chosenLocation,
		Quantity: quantity,
	}

	if quantity <= 0 {
		res.Skipped = true
		return res, nil
	}

	entries, err := l.readArchive(ctx)
	if err != nil {
		res.Error = err.Error()
		return res, err
	}

	var matched []models.ArchivedItem
	for _, entry := range entries {
		if Normalize(entry.Name) != Normalize(name) || Normalize(entry.Dose) != Normalize(dose) {
			continue
		}
		if lastLocation != "" && Normalize(entry.LastLocation) != Normalize(lastLocation) {
			continue
		}
		matched = append(matched, entry)
	}
	if len(matched) == 0 {
		res.Skipped = true
		return res, nil
	}

	origin := matched[0].LastLocation
	// Duplicate archive entries for one key are possible after repeated
	// consume-to-zero cycles; all of them are cleared here.
	positions := make([]int, 0, len(matched))
	for _, entry := range matched {
		if Normalize(entry.LastLocation) == Normalize(origin) {
			positions = append(positions, entry.Position)
		}
	}
	if err := l.deleteDescending(ctx, l.tables.Archive, positions); err != nil {
		res.Error = err.Error()
		return res, err
	}

	if Normalize(origin) == Normalize(l.tables.StashLabel) {
		res.Location = l.tables.StashLabel
		if err := l.recordAdd(ctx, name, dose, l.tables.StashLabel, quantity); err != nil {
			res.Error = err.Error()
			return res, err
		}
		merged, err := l.upsertStash(ctx, name, dose, quantity, doseEqual)
		if err != nil {
			res.Error = err.Error()
			return res, err
		}
		res.Merged = merged
		res.Restored = true
		return res, nil
	}

	if err := l.recordAdd(ctx, name, dose, chosenLocation, quantity); err != nil {
		res.Error = err.Error()
		return res, err
	}
	merged, err := l.upsertActive(ctx, name, dose, chosenLocation, quantity, doseEqual)
	if err != nil {
		res.Error = err.Error()
		return res, err
	}
	res.Merged = merged
	res.Restored = true
	l.logger.Info().
		Str("name", name).
		Str("dose", dose).
		Str("location", res.Location).
		Int("quantity", quantity).
		Msg("archived item restored")
	return res, nil
}
