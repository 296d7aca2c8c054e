package export

import (
	"context"
	"testing"

	"github.com/gautamnaik0719/noormeds/internal/domain"
	"github.com/gautamnaik0719/noormeds/internal/ledger"
	"github.com/gautamnaik0719/noormeds/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// readStore serves canned rows; the exporter only reads.
type readStore struct {
	tables map[string][][]string
}

func (r *readStore) ReadRows(_ context.Context, table, _ string) ([][]string, error) {
	return r.tables[table], nil
}

func (r *readStore) TableID(context.Context, string) (int64, error) { return 1, nil }
func (r *readStore) UpdateCell(context.Context, string, string, int, string) error {
	return nil
}
func (r *readStore) AppendRow(context.Context, string, string, []interface{}) error {
	return nil
}
func (r *readStore) DeleteRows(context.Context, string, int, int) error { return nil }

func (r *readStore) SortRows(context.Context, string, []domain.SortKey) error { return nil }

type nopAudit struct{}

func (nopAudit) Record(context.Context, models.ActivityRecord) error { return nil }

func TestSnapshotWritesStockAndArchive(t *testing.T) {
	store := &readStore{tables: map[string][][]string{
		"Shelf": {
			{"Name", "Dose", "Location", "Quantity"},
			{"Ibuprofen", "200mg", "Shelf A", "10"},
		},
		"Fridge": {
			{"Name", "Dose", "Location", "Quantity"},
			{"Insulin", "100IU", "Fridge 1", "2"},
		},
		"Stash": {
			{"Name", "Dose", "Quantity"},
			{"Valerian", "30ml", "1"},
		},
		"Archive": {
			{"Name", "Dose", "LastLocation"},
			{"Vitamin D", "1000IU", "Shelf B"},
			{"Valerian", "30ml", "stash"},
		},
	}}

	nop := zerolog.Nop()
	tables := ledger.Tables{
		Active: []string{"Shelf", "Fridge"}, Stash: "Stash", Archive: "Archive",
		Catalog: "Locations", Log: "Log", StashLabel: "stash",
		Keyword: "fridge", KeywordTable: "Fridge", DefaultTable: "Shelf",
	}
	ldgr := ledger.New(store, nopAudit{}, tables, &nop)
	exporter := New(ldgr, t.TempDir(), &nop)

	path, err := exporter.Snapshot(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Stock", "Archive"}, f.GetSheetList())

	stock, err := f.GetRows("Stock")
	require.NoError(t, err)
	require.Len(t, stock, 3)
	assert.Equal(t, []string{"Name", "Dose", "Location", "Quantity", "Table"}, stock[0])
	assert.Equal(t, "Ibuprofen", stock[1][0])
	assert.Equal(t, "Insulin", stock[2][0])

	// Stash items and stash-origin archive entries stay out of exports.
	for _, row := range stock[1:] {
		assert.NotEqual(t, "Valerian", row[0])
	}

	archive, err := f.GetRows("Archive")
	require.NoError(t, err)
	require.Len(t, archive, 2)
	assert.Equal(t, "Vitamin D", archive[1][0])
}

func TestSnapshotEmptyInventory(t *testing.T) {
	store := &readStore{tables: map[string][][]string{
		"Shelf":   {{"Name", "Dose", "Location", "Quantity"}},
		"Fridge":  {{"Name", "Dose", "Location", "Quantity"}},
		"Archive": {{"Name", "Dose", "LastLocation"}},
	}}

	nop := zerolog.Nop()
	tables := ledger.Tables{
		Active: []string{"Shelf", "Fridge"}, Stash: "Stash", Archive: "Archive",
		Catalog: "Locations", Log: "Log", StashLabel: "stash",
	}
	ldgr := ledger.New(store, nopAudit{}, tables, &nop)
	exporter := New(ldgr, t.TempDir(), &nop)

	path, err := exporter.Snapshot(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	stock, err := f.GetRows("Stock")
	require.NoError(t, err)
	assert.Len(t, stock, 1)
}
