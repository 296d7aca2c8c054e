package sheets

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/gautamnaik0719/noormeds/internal/domain"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Store implements domain.TableStore on top of a single Google Sheets
// spreadsheet. Each logical table is one sheet (tab) inside it.
type Store struct {
	service       *sheets.Service
	spreadsheetID string
	idCache       map[string]int64
	cacheMu       sync.RWMutex
}

// New builds a Store authenticated with a service-account credentials file.
func New(ctx context.Context, credentialsFile, spreadsheetID string) (*Store, error) {
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return &Store{
		service:       srv,
		spreadsheetID: spreadsheetID,
		idCache:       make(map[string]int64),
	}, nil
}

// TestConnection reads one cell to verify credentials and sharing.
func (s *Store) TestConnection(ctx context.Context, table string) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, table+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// TableID resolves a table name to its sheet ID, case- and
// whitespace-insensitive, with a cache refreshed on miss.
func (s *Store) TableID(ctx context.Context, name string) (int64, error) {
	key := tableKey(name)

	s.cacheMu.RLock()
	id, ok := s.idCache[key]
	s.cacheMu.RUnlock()
	if ok {
		return id, nil
	}

	spreadsheet, err := s.service.Spreadsheets.Get(s.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to get spreadsheet: %w", err)
	}

	s.cacheMu.Lock()
	s.idCache = make(map[string]int64, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		s.idCache[tableKey(sheet.Properties.Title)] = sheet.Properties.SheetId
	}
	id, ok = s.idCache[key]
	s.cacheMu.Unlock()

	if !ok {
		return 0, fmt.Errorf("table %q not found", name)
	}
	return id, nil
}

// ReadRows fetches the given column range, header row included at index 0.
func (s *Store) ReadRows(ctx context.Context, table, colRange string) ([][]string, error) {
	rangeData := fmt.Sprintf("%s!%s", table, colRange)
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, rangeData).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rangeData, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, cellString(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// UpdateCell writes a single cell. Row is the 1-based sheet row.
func (s *Store) UpdateCell(ctx context.Context, table, column string, row int, value string) error {
	rangeData := fmt.Sprintf("%s!%s%d", table, column, row)
	valueRange := &sheets.ValueRange{Values: [][]interface{}{{value}}}

	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %s: %w", rangeData, err)
	}
	return nil
}

// AppendRow appends one row after the last data row of the range.
func (s *Store) AppendRow(ctx context.Context, table, colRange string, values []interface{}) error {
	rangeData := fmt.Sprintf("%s!%s", table, colRange)
	valueRange := &sheets.ValueRange{Values: [][]interface{}{values}}

	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", rangeData, err)
	}
	return nil
}

// DeleteRows removes sheet rows in [start, end), 1-based, header at row 1.
func (s *Store) DeleteRows(ctx context.Context, table string, start, end int) error {
	if start < 1 || end <= start {
		return fmt.Errorf("invalid delete range [%d, %d)", start, end)
	}

	sheetID, err := s.TableID(ctx, table)
	if err != nil {
		return err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(start - 1),
					EndIndex:   int64(end - 1),
				},
			},
		}},
	}

	_, err = s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete rows [%d, %d) of %s: %w", start, end, table, err)
	}
	return nil
}

// SortRows sorts every data row of the table, leaving the header in place.
func (s *Store) SortRows(ctx context.Context, table string, keys []domain.SortKey) error {
	sheetID, err := s.TableID(ctx, table)
	if err != nil {
		return err
	}

	specs := make([]*sheets.SortSpec, 0, len(keys))
	for _, key := range keys {
		order := "ASCENDING"
		if !key.Ascending {
			order = "DESCENDING"
		}
		specs = append(specs, &sheets.SortSpec{
			DimensionIndex: int64(key.Column),
			SortOrder:      order,
		})
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			SortRange: &sheets.SortRangeRequest{
				Range: &sheets.GridRange{
					SheetId:       sheetID,
					StartRowIndex: 1, // keep header row in place
				},
				SortSpecs: specs,
			},
		}},
	}

	_, err = s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sort %s: %w", table, err)
	}
	return nil
}

// ClearCache drops the sheet-id cache, forcing re-resolution.
func (s *Store) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.idCache = make(map[string]int64)
}

func tableKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func cellString(cell interface{}) string {
	switch v := cell.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
