package ledger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/gautamnaik0719/noormeds/internal/domain"
	"github.com/gautamnaik0719/noormeds/internal/models"
)

// fakeStore is an in-memory TableStore that mimics positional sheet
// semantics, records every call and can inject failures per table.
type fakeStore struct {
	mu     sync.Mutex
	tables map[string][][]string
	calls  []string

	failRead   map[string]error
	failUpdate map[string]error
	failAppend map[string]error
	failDelete map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tables: map[string][][]string{
			"Shelf":     {{"Name", "Dose", "Location", "Quantity"}},
			"Fridge":    {{"Name", "Dose", "Location", "Quantity"}},
			"Stash":     {{"Name", "Dose", "Quantity"}},
			"Archive":   {{"Name", "Dose", "LastLocation"}},
			"Locations": {{"Location"}},
			"Log":       {{"Timestamp", "Action", "Name", "Dose", "Location", "Quantity"}},
		},
		failRead:   map[string]error{},
		failUpdate: map[string]error{},
		failAppend: map[string]error{},
		failDelete: map[string]error{},
	}
}

func (f *fakeStore) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// callsTo returns recorded calls touching the given table.
func (f *fakeStore) callsTo(table string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if strings.Contains(c, "("+table+",") || strings.HasSuffix(c, "("+table+")") {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeStore) rows(table string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]string, len(f.tables[table]))
	for i, row := range f.tables[table] {
		out[i] = append([]string(nil), row...)
	}
	return out
}

func (f *fakeStore) dataRows(table string) [][]string {
	rows := f.rows(table)
	if len(rows) <= 1 {
		return nil
	}
	return rows[1:]
}

func (f *fakeStore) seed(table string, rows ...[]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table] = append(f.tables[table], rows...)
}

func (f *fakeStore) TableID(_ context.Context, name string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tables[name]; !ok {
		return 0, fmt.Errorf("table %q not found", name)
	}
	return 1, nil
}

func (f *fakeStore) ReadRows(_ context.Context, table, colRange string) ([][]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ReadRows(%s,%s)", table, colRange)
	if err := f.failRead[table]; err != nil {
		return nil, err
	}
	rows, ok := f.tables[table]
	if !ok {
		return nil, fmt.Errorf("table %q not found", table)
	}
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

func (f *fakeStore) UpdateCell(_ context.Context, table, column string, row int, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateCell(%s,%s,%d,%s)", table, column, row, value)
	if err := f.failUpdate[table]; err != nil {
		return err
	}
	rows := f.tables[table]
	if row < 1 || row > len(rows) {
		return fmt.Errorf("row %d out of range for %s", row, table)
	}
	col := int(column[0] - 'A')
	for len(rows[row-1]) <= col {
		rows[row-1] = append(rows[row-1], "")
	}
	rows[row-1][col] = value
	f.tables[table] = rows
	return nil
}

func (f *fakeStore) AppendRow(_ context.Context, table, colRange string, values []interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AppendRow(%s,%s)", table, colRange)
	if err := f.failAppend[table]; err != nil {
		return err
	}
	row := make([]string, 0, len(values))
	for _, v := range values {
		row = append(row, fmt.Sprint(v))
	}
	f.tables[table] = append(f.tables[table], row)
	return nil
}

func (f *fakeStore) DeleteRows(_ context.Context, table string, start, end int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteRows(%s,%d,%d)", table, start, end)
	if err := f.failDelete[table]; err != nil {
		return err
	}
	rows := f.tables[table]
	if start < 1 || end > len(rows)+1 || end <= start {
		return fmt.Errorf("delete range [%d,%d) out of bounds for %s", start, end, table)
	}
	f.tables[table] = append(rows[:start-1], rows[end-1:]...)
	return nil
}

func (f *fakeStore) SortRows(_ context.Context, table string, keys []domain.SortKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SortRows(%s)", table)
	rows := f.tables[table]
	if len(rows) <= 2 {
		return nil
	}
	data := rows[1:]
	sort.SliceStable(data, func(i, j int) bool {
		for _, key := range keys {
			a, b := cellAt(data[i], key.Column), cellAt(data[j], key.Column)
			if a == b {
				continue
			}
			if key.Ascending {
				return a < b
			}
			return a > b
		}
		return false
	})
	return nil
}

// fakeAudit collects records and can be told to fail.
type fakeAudit struct {
	mu      sync.Mutex
	records []models.ActivityRecord
	fail    error
}

func (a *fakeAudit) Record(_ context.Context, rec models.ActivityRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail != nil {
		return a.fail
	}
	a.records = append(a.records, rec)
	return nil
}

func (a *fakeAudit) all() []models.ActivityRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.ActivityRecord(nil), a.records...)
}
