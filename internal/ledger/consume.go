package ledger

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/gautamnaik0719/noormeds/internal/models"
)

// Consume decrements quantities for a batch of rows, archiving any row
// that reaches zero. Lines are processed strictly in caller order, one at
// a time; a line's failure never aborts the batch, and already-applied
// effects of a failed line are kept (no rollback).
func (l *Ledger) Consume(ctx context.Context, lines []models.ConsumeLine) []models.OpResult {
	results := make([]models.OpResult, 0, len(lines))
	for _, line := range lines {
		results = append(results, l.consumeOne(ctx, line))
	}
	return results
}

func (l *Ledger) consumeOne(ctx context.Context, line models.ConsumeLine) models.OpResult {
	res := models.OpResult{
		Name:     line.Name,
		Dose:     line.Dose,
		Location: line.Location,
		Quantity: line.Quantity,
	}

	// Zero or negative requests are skipped outright: no audit record,
	// no store call.
	if line.Quantity <= 0 {
		res.Skipped = true
		return res
	}

	item, err := l.resolve(ctx, line.Table, line.Name, line.Dose, line.Location, line.Position)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			res.Error = "row no longer exists"
		} else {
			res.Error = err.Error()
		}
		return res
	}
	res.Location = item.Location

	current := item.Quantity
	if current == 0 && line.Current > 0 {
		// Blank or unreadable quantity cell: fall back to the caller's
		// last known value.
		current = line.Current
	}
	newQuantity := current - line.Quantity
	if newQuantity < 0 {
		newQuantity = 0
	}

	// Audit first. The log must reflect intent even if the store
	// mutation below fails.
	rec := models.ActivityRecord{
		Timestamp: time.Now(),
		Action:    models.ActionRemove,
		Name:      item.Name,
		Dose:      item.Dose,
		Location:  item.Location,
		Quantity:  line.Quantity,
	}
	if err := l.audit.Record(ctx, rec); err != nil {
		res.Error = "audit record failed: " + err.Error()
		return res
	}

	if newQuantity > 0 {
		err := l.store.UpdateCell(ctx, item.Table, l.qtyColumn(item.Table), sheetRow(item.Position), strconv.Itoa(newQuantity))
		if err != nil {
			res.Error = err.Error()
		}
		return res
	}

	// Depleted: archive the identity, then remove the live row.
	values := []interface{}{item.Name, item.Dose, item.Location}
	if err := l.store.AppendRow(ctx, l.tables.Archive, "A:C", values); err != nil {
		res.Error = err.Error()
		return res
	}
	if err := l.store.DeleteRows(ctx, item.Table, sheetRow(item.Position), sheetRow(item.Position)+1); err != nil {
		res.Error = err.Error()
		return res
	}

	res.Archived = true
	l.logger.Info().
		Str("name", item.Name).
		Str("dose", item.Dose).
		Str("location", item.Location).
		Msg("item depleted and archived")
	return res
}
