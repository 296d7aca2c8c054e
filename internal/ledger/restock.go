package ledger

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gautamnaik0719/noormeds/internal/models"
)

// RestockRequest targets an item by identity. Known, when set, is the
// quick-restock fast path from search results; it is treated as a hint and
// re-verified against a fresh read before the mutation.
type RestockRequest struct {
	Name     string
	Dose     string
	Location string
	Quantity int
	Scope    models.Scope
	Known    *models.RowRef
}

// doseMatcher compares two dose strings for identity purposes.
type doseMatcher func(a, b string) bool

func doseEqual(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// doseEqualLoose ignores all internal whitespace, so "5 mg" merges with
// "5mg". Used by the explicit new-item declaration only.
func doseEqualLoose(a, b string) bool {
	return NormalizeDose(a) == NormalizeDose(b)
}

// Restock adds quantity to an existing row matching the target identity,
// or appends a new row when no match exists. Private scope works on the
// stash table only, keyed by (name, dose), and never triggers a resort.
func (l *Ledger) Restock(ctx context.Context, req RestockRequest) (models.OpResult, error) {
	res := models.OpResult{
		Name:     req.Name,
		Dose:     req.Dose,
		Location: req.Location,
		Quantity: req.Quantity,
	}

	if req.Quantity <= 0 {
		res.Skipped = true
		return res, nil
	}

	if req.Scope == models.ScopePrivate {
		res.Location = l.tables.StashLabel
		if err := l.recordAdd(ctx, req.Name, req.Dose, l.tables.StashLabel, req.Quantity); err != nil {
			res.Error = err.Error()
			return res, err
		}
		merged, err := l.upsertStash(ctx, req.Name, req.Dose, req.Quantity, doseEqual)
		if err != nil {
			res.Error = err.Error()
			return res, err
		}
		res.Merged = merged
		return res, nil
	}

	// Fast path: the caller already located the row. Verify the identity
	// still holds at that position before touching it.
	if req.Known != nil {
		item, err := l.resolve(ctx, req.Known.Table, req.Name, req.Dose, req.Location, req.Known.Position)
		if err == nil {
			res.Location = item.Location
			if err := l.recordAdd(ctx, item.Name, item.Dose, item.Location, req.Quantity); err != nil {
				res.Error = err.Error()
				return res, err
			}
			if err := l.addToRow(ctx, *item, req.Quantity); err != nil {
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
		// Row vanished since the search; fall through to the full scan.
	}

	if err := l.recordAdd(ctx, req.Name, req.Dose, req.Location, req.Quantity); err != nil {
		res.Error = err.Error()
		return res, err
	}
	merged, err := l.upsertActive(ctx, req.Name, req.Dose, req.Location, req.Quantity, doseEqual)
	if err != nil {
		res.Error = err.Error()
		return res, err
	}
	res.Merged = merged
	return res, nil
}

// FindActive scans the active tables for a normalized triple match.
func (l *Ledger) FindActive(ctx context.Context, name, dose, location string) (*models.Item, error) {
	return l.findMatch(ctx, name, dose, location, doseEqual)
}

func (l *Ledger) findMatch(ctx context.Context, name, dose, location string, sameDose doseMatcher) (*models.Item, error) {
	for _, table := range l.tables.Active {
		items, err := l.readItems(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		for _, item := range items {
			if Normalize(item.Name) == Normalize(name) &&
				sameDose(item.Dose, dose) &&
				Normalize(item.Location) == Normalize(location) {
				match := item
				return &match, nil
			}
		}
	}
	return nil, ErrNotFound
}

// upsertActive merges quantity into the first active row matching the
// triple, or appends to the routed table and resorts it.
func (l *Ledger) upsertActive(ctx context.Context, name, dose, location string, quantity int, sameDose doseMatcher) (bool, error) {
	item, err := l.findMatch(ctx, name, dose, location, sameDose)
	if err == nil {
		return true, l.addToRow(ctx, *item, quantity)
	}
	if !errors.Is(err, ErrNotFound) {
		return false, err
	}

	table := l.routeTable(location)
	values := []interface{}{name, dose, location, quantity}
	if err := l.store.AppendRow(ctx, table, "A:D", values); err != nil {
		return false, fmt.Errorf("append to %s: %w", table, err)
	}
	if err := l.resort(ctx, table); err != nil {
		return false, fmt.Errorf("resort %s: %w", table, err)
	}
	return false, nil
}

// upsertStash merges into the stash row matching (name, dose) or appends.
// The stash is never resorted.
func (l *Ledger) upsertStash(ctx context.Context, name, dose string, quantity int, sameDose doseMatcher) (bool, error) {
	items, err := l.readItems(ctx, l.tables.Stash)
	if err != nil {
		return false, fmt.Errorf("scan %s: %w", l.tables.Stash, err)
	}
	for _, item := range items {
		if Normalize(item.Name) == Normalize(name) && sameDose(item.Dose, dose) {
			return true, l.addToRow(ctx, item, quantity)
		}
	}

	values := []interface{}{name, dose, quantity}
	if err := l.store.AppendRow(ctx, l.tables.Stash, "A:C", values); err != nil {
		return false, fmt.Errorf("append to %s: %w", l.tables.Stash, err)
	}
	return false, nil
}

func (l *Ledger) addToRow(ctx context.Context, item models.Item, quantity int) error {
	newQuantity := item.Quantity + quantity
	err := l.store.UpdateCell(ctx, item.Table, l.qtyColumn(item.Table), sheetRow(item.Position), strconv.Itoa(newQuantity))
	if err != nil {
		return fmt.Errorf("update quantity of %s row %d: %w", item.Table, item.Position, err)
	}
	return nil
}

func (l *Ledger) recordAdd(ctx context.Context, name, dose, location string, quantity int) error {
	rec := models.ActivityRecord{
		Timestamp: time.Now(),
		Action:    models.ActionAdd,
		Name:      name,
		Dose:      dose,
		Location:  location,
		Quantity:  quantity,
	}
	if err := l.audit.Record(ctx, rec); err != nil {
		return fmt.Errorf("audit record failed: %w", err)
	}
	return nil
}
