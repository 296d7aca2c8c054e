package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gautamnaik0719/noormeds/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRestockMergesExistingRow(t *testing.T) {
	store := newFakeStore()
	store.seed("Shelf", []string{"Ibuprofen", "200mg", "Shelf A", "4"})
	audit := &fakeAudit{}
	ldgr := newTestLedger(store, audit)

	res, err := ldgr.Restock(context.Background(), RestockRequest{
		Name: "ibuprofen", Dose: "200MG", Location: " shelf  a ", Quantity: 6,
	})
	require.NoError(t, err)
	assert.True(t, res.Merged)

	rows := store.dataRows("Shelf")
	require.Len(t, rows, 1)
	assert.Equal(t, "10", rows[0][3])

	recs := audit.all()
	require.Len(t, recs, 1)
	assert.Equal(t, models.ActionAdd, recs[0].Action)
	assert.Equal(t, 6, recs[0].Quantity)
}

func TestRestockAppendsToRoutedTableAndResorts(t *testing.T) {
	store := newFakeStore()
	ldgr := newTestLedger(store, &fakeAudit{})

	res, err := ldgr.Restock(context.Background(), RestockRequest{
		Name: "Insulin", Dose: "100IU", Location: "Big Fridge", Quantity: 2,
	})
	require.NoError(t, err)
	assert.False(t, res.Merged)

	fridge := store.dataRows("Fridge")
	require.Len(t, fridge, 1)
	assert.Equal(t, []string{"Insulin", "100IU", "Big Fridge", "2"}, fridge[0])
	assert.Empty(t, store.dataRows("Shelf"))

	calls := store.callsTo("Fridge")
	assert.Equal(t, "SortRows(Fridge)", calls[len(calls)-1])
}

func TestRestockSameNameDifferentLocationStaysSeparate(t *testing.T) {
	store := newFakeStore()
	store.seed("Shelf", []string{"Ibuprofen", "200mg", "Shelf A", "4"})
	ldgr := newTestLedger(store, &fakeAudit{})

	res, err := ldgr.Restock(context.Background(), RestockRequest{
		Name: "Ibuprofen", Dose: "200mg", Location: "Shelf B", Quantity: 2,
	})
	require.NoError(t, err)
	assert.False(t, res.Merged)
	assert.Len(t, store.dataRows("Shelf"), 2)
}

func TestRestockStrictDoseDoesNotMergeSpacedVariant(t *testing.T) {
	store := newFakeStore()
	store.seed("Shelf", []string{"Amoxicillin", "500 mg", "Shelf A", "4"})
	ldgr := newTestLedger(store, &fakeAudit{})

	// Plain restock compares doses after whitespace collapse only, so
	// "500mg" and "500 mg" are distinct identities here.
	res, err := ldgr.Restock(context.Background(), RestockRequest{
		Name: "Amoxicillin", Dose: "500mg", Location: "Shelf A", Quantity: 1,
	})
	require.NoError(t, err)
	assert.False(t, res.Merged)
	assert.Len(t, store.dataRows("Shelf"), 2)
}

func TestRestockKnownRowFastPath(t *testing.T) {
	store := newFakeStore()
	store.seed("Fridge",
		[]string{"Insulin", "100IU", "Fridge 1", "3"},
	)
	ldgr := newTestLedger(store, &fakeAudit{})

	res, err := ldgr.Restock(context.Background(), RestockRequest{
		Name: "Insulin", Dose: "100IU", Location: "Fridge 1", Quantity: 2,
		Known: &models.RowRef{Table: "Fridge", Position: 1},
	})
	require.NoError(t, err)
	assert.True(t, res.Merged)
	assert.Equal(t, "5", store.dataRows("Fridge")[0][3])

	// The fast path updates in place, no resort.
	for _, call := range store.calls {
		assert.False(t, strings.HasPrefix(call, "SortRows"), "unexpected %s", call)
	}
}

func TestRestockKnownRowVanishedFallsBackToScan(t *testing.T) {
	store := newFakeStore()
	ldgr := newTestLedger(store, &fakeAudit{})

	res, err := ldgr.Restock(context.Background(), RestockRequest{
		Name: "Insulin", Dose: "100IU", Location: "Fridge 1", Quantity: 2,
		Known: &models.RowRef{Table: "Fridge", Position: 7},
	})
	require.NoError(t, err)
	assert.False(t, res.Merged)
	require.Len(t, store.dataRows("Fridge"), 1)
}

func TestRestockPrivateTouchesOnlyStash(t *testing.T) {
	store := newFakeStore()
	store.seed("Shelf", []string{"Valerian", "30ml", "Shelf A", "2"})
	audit := &fakeAudit{}
	ldgr := newTestLedger(store, audit)

	res, err := ldgr.Restock(context.Background(), RestockRequest{
		Name: "Valerian", Dose: "30ml", Location: "Shelf A", Quantity: 3,
		Scope: models.ScopePrivate,
	})
	require.NoError(t, err)
	assert.Equal(t, "stash", res.Location)

	// Private stock never merges with the identical public row.
	assert.Equal(t, "2", store.dataRows("Shelf")[0][3])
	require.Len(t, store.dataRows("Stash"), 1)
	assert.Equal(t, []string{"Valerian", "30ml", "3"}, store.dataRows("Stash")[0])

	assert.Empty(t, store.callsTo("Shelf"))
	assert.Empty(t, store.callsTo("Fridge"))

	recs := audit.all()
	require.Len(t, recs, 1)
	assert.Equal(t, "stash", recs[0].Location)
}

func TestRestockPrivateMergesByNameAndDose(t *testing.T) {
	store := newFakeStore()
	store.seed("Stash", []string{"Valerian", "30ml", "2"})
	ldgr := newTestLedger(store, &fakeAudit{})

	res, err := ldgr.Restock(context.Background(), RestockRequest{
		Name: "VALERIAN", Dose: "30 ML", Location: "ignored", Quantity: 1,
		Scope: models.ScopePrivate,
	})
	require.NoError(t, err)
	assert.True(t, res.Merged)
	assert.Equal(t, []string{"Valerian", "30ml", "3"}, store.dataRows("Stash")[0])

	// The stash keeps insertion order.
	for _, call := range store.calls {
		assert.False(t, strings.HasPrefix(call, "SortRows"), "unexpected %s", call)
	}
}

func TestRestockZeroQuantitySkipped(t *testing.T) {
	store := newFakeStore()
	audit := &fakeAudit{}
	ldgr := newTestLedger(store, audit)

	res, err := ldgr.Restock(context.Background(), RestockRequest{
		Name: "Ibuprofen", Dose: "200mg", Location: "Shelf A", Quantity: 0,
	})
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	assert.Empty(t, audit.all())
	assert.Empty(t, store.calls)
}

func TestRestockAppendFailureSurfacesError(t *testing.T) {
	store := newFakeStore()
	store.failAppend["Shelf"] = errors.New("quota exceeded")
	audit := &fakeAudit{}
	ldgr := newTestLedger(store, audit)

	res, err := ldgr.Restock(context.Background(), RestockRequest{
		Name: "Zinc", Dose: "25mg", Location: "Shelf A", Quantity: 3,
	})
	require.Error(t, err)
	assert.Contains(t, res.Error, "quota exceeded")

	// The audit record lands before the append, so it survives the
	// failed mutation.
	assert.Len(t, audit.all(), 1)
	assert.Empty(t, store.dataRows("Shelf"))
}

func TestRestockUpdateFailureSurfacesError(t *testing.T) {
	store := newFakeStore()
	store.seed("Shelf", []string{"Ibuprofen", "200mg", "Shelf A", "4"})
	store.failUpdate["Shelf"] = errors.New("quota exceeded")
	audit := &fakeAudit{}
	ldgr := newTestLedger(store, audit)

	res, err := ldgr.Restock(context.Background(), RestockRequest{
		Name: "Ibuprofen", Dose: "200mg", Location: "Shelf A", Quantity: 6,
	})
	require.Error(t, err)
	assert.Contains(t, res.Error, "quota exceeded")
	assert.Len(t, audit.all(), 1)
	assert.Equal(t, "4", store.dataRows("Shelf")[0][3])
}

func TestRestockAuditFailurePreventsMutation(t *testing.T) {
	store := newFakeStore()
	store.seed("Shelf", []string{"Ibuprofen", "200mg", "Shelf A", "4"})
	audit := &fakeAudit{fail: errors.New("log down")}
	ldgr := newTestLedger(store, audit)

	_, err := ldgr.Restock(context.Background(), RestockRequest{
		Name: "Ibuprofen", Dose: "200mg", Location: "Shelf A", Quantity: 6,
	})
	require.Error(t, err)
	assert.Equal(t, "4", store.dataRows("Shelf")[0][3])
}
