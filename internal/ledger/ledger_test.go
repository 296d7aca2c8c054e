package ledger

import (
	"context"
	"testing"

	"github.com/gautamnaik0719/noormeds/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTables() Tables {
	return Tables{
		Active:       []string{"Shelf", "Fridge"},
		Stash:        "Stash",
		Archive:      "Archive",
		Catalog:      "Locations",
		Log:          "Log",
		StashLabel:   "stash",
		Keyword:      "fridge",
		KeywordTable: "Fridge",
		DefaultTable: "Shelf",
		AliasMarker:  "sparkles++",
	}
}

func newTestLedger(store *fakeStore, audit *fakeAudit) *Ledger {
	nop := zerolog.Nop()
	return New(store, audit, testTables(), &nop)
}

func TestRouteTable(t *testing.T) {
	ldgr := newTestLedger(newFakeStore(), &fakeAudit{})

	assert.Equal(t, "Fridge", ldgr.routeTable("Big Fridge"))
	assert.Equal(t, "Fridge", ldgr.routeTable("fridge 2, lower drawer"))
	assert.Equal(t, "Shelf", ldgr.routeTable("Shelf A"))
	assert.Equal(t, "Shelf", ldgr.routeTable(""))
}

func TestResolvePrefersHintThenScans(t *testing.T) {
	store := newFakeStore()
	store.seed("Shelf",
		[]string{"Ibuprofen", "200mg", "Shelf A", "4"},
		[]string{"Amoxicillin", "500mg", "Shelf B", "7"},
	)
	ldgr := newTestLedger(store, &fakeAudit{})

	item, err := ldgr.resolve(context.Background(), "Shelf", "Amoxicillin", "500mg", "Shelf B", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Position)

	// Stale hint: identity no longer matches at position 1, the scan
	// still finds the row at its real position.
	item, err = ldgr.resolve(context.Background(), "Shelf", "Amoxicillin", "500mg", "Shelf B", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, item.Position)
	assert.Equal(t, 7, item.Quantity)

	_, err = ldgr.resolve(context.Background(), "Shelf", "Paracetamol", "500mg", "Shelf B", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveStashIgnoresLocation(t *testing.T) {
	store := newFakeStore()
	store.seed("Stash", []string{"Valerian", "30ml", "2"})
	ldgr := newTestLedger(store, &fakeAudit{})

	item, err := ldgr.resolve(context.Background(), "Stash", "valerian", "30ML", "whatever", 0)
	require.NoError(t, err)
	assert.Equal(t, "stash", item.Location)
	assert.Equal(t, 2, item.Quantity)
}

func TestDeleteDescendingOrder(t *testing.T) {
	store := newFakeStore()
	store.seed("Archive",
		[]string{"A", "1", "Shelf A"},
		[]string{"B", "2", "Shelf A"},
		[]string{"C", "3", "Shelf A"},
		[]string{"D", "4", "Shelf A"},
	)
	ldgr := newTestLedger(store, &fakeAudit{})

	require.NoError(t, ldgr.deleteDescending(context.Background(), "Archive", []int{1, 4, 2}))

	// Highest position first, one row per call, so survivors keep their
	// addresses until their own turn.
	assert.Equal(t, []string{
		"DeleteRows(Archive,5,6)",
		"DeleteRows(Archive,3,4)",
		"DeleteRows(Archive,2,3)",
	}, store.callsTo("Archive"))

	rows := store.dataRows("Archive")
	require.Len(t, rows, 1)
	assert.Equal(t, "C", rows[0][0])
}

// Full lifecycle: declare, restock with messy casing, consume to zero,
// re-declare. One live row at every step, archive never coexists with
// live stock.
func TestItemLifecycle(t *testing.T) {
	store := newFakeStore()
	audit := &fakeAudit{}
	ldgr := newTestLedger(store, audit)
	ctx := context.Background()

	res, err := ldgr.AddNew(ctx, "Amoxicillin", "500 mg", "Shelf A", 10, models.ScopeNormal)
	require.NoError(t, err)
	assert.False(t, res.Merged)

	// Restock with different casing and spacing merges, never duplicates.
	res, err = ldgr.Restock(ctx, RestockRequest{
		Name: "  AMOXICILLIN ", Dose: "500  MG", Location: "shelf a", Quantity: 5,
	})
	require.NoError(t, err)
	assert.True(t, res.Merged)

	rows := store.dataRows("Shelf")
	require.Len(t, rows, 1)
	assert.Equal(t, "15", rows[0][3])

	// Consume everything: the row archives exactly once.
	results := ldgr.Consume(ctx, []models.ConsumeLine{{
		Table: "Shelf", Position: 1,
		Name: "Amoxicillin", Dose: "500 mg", Location: "Shelf A",
		Quantity: 15, Current: 15,
	}})
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Error)
	assert.True(t, results[0].Archived)
	assert.Empty(t, store.dataRows("Shelf"))
	require.Len(t, store.dataRows("Archive"), 1)

	// Re-declaring purges the archive entry before appending live stock.
	res, err = ldgr.AddNew(ctx, "amoxicillin", "500mg", "Shelf A", 20, models.ScopeNormal)
	require.NoError(t, err)
	assert.False(t, res.Merged)
	assert.Empty(t, store.dataRows("Archive"))
	require.Len(t, store.dataRows("Shelf"), 1)
	assert.Equal(t, "20", store.dataRows("Shelf")[0][3])

	// Each mutation logged: add, add, remove, add.
	recs := audit.all()
	require.Len(t, recs, 4)
	assert.Equal(t, models.ActionAdd, recs[0].Action)
	assert.Equal(t, models.ActionAdd, recs[1].Action)
	assert.Equal(t, models.ActionRemove, recs[2].Action)
	assert.Equal(t, models.ActionAdd, recs[3].Action)
}
