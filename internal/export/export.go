// Package export produces xlsx snapshots of the inventory for offline use.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gautamnaik0719/noormeds/internal/ledger"
	"github.com/gautamnaik0719/noormeds/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

type Exporter struct {
	ledger *ledger.Ledger
	path   string
	logger zerolog.Logger
}

func New(l *ledger.Ledger, path string, logger *zerolog.Logger) *Exporter {
	return &Exporter{
		ledger: l,
		path:   path,
		logger: logger.With().Str("component", "export").Logger(),
	}
}

// Snapshot writes the current active stock and archive to an xlsx file and
// returns its path. The stash is deliberately left out.
func (e *Exporter) Snapshot(ctx context.Context) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	items := e.ledger.FindItems(ctx, "", models.ScopeNormal)
	archived := e.ledger.FindArchived(ctx, "", false)

	f := excelize.NewFile()
	defer f.Close()

	if err := e.writeStockSheet(f, items); err != nil {
		return "", err
	}
	if err := e.writeArchiveSheet(f, archived); err != nil {
		return "", err
	}
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("inventory_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.path, fileName)
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("save export file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("items", len(items)).Msg("inventory snapshot written")
	return filePath, nil
}

func (e *Exporter) writeStockSheet(f *excelize.File, items []models.Item) error {
	const sheet = "Stock"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create stock sheet: %w", err)
	}
	f.SetActiveSheet(index)

	writeHeaders(f, sheet, []string{"Name", "Dose", "Location", "Quantity", "Table"})
	for i, item := range items {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), item.Name)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), item.Dose)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), item.Location)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), item.Quantity)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), item.Table)
	}

	_ = f.SetColWidth(sheet, "A", "A", 30)
	_ = f.SetColWidth(sheet, "B", "C", 18)
	_ = f.SetColWidth(sheet, "D", "E", 12)
	return nil
}

func (e *Exporter) writeArchiveSheet(f *excelize.File, archived []models.ArchivedItem) error {
	const sheet = "Archive"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create archive sheet: %w", err)
	}

	writeHeaders(f, sheet, []string{"Name", "Dose", "Last Location"})
	for i, entry := range archived {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), entry.Name)
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), entry.Dose)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), entry.LastLocation)
	}

	_ = f.SetColWidth(sheet, "A", "A", 30)
	_ = f.SetColWidth(sheet, "B", "C", 18)
	return nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
		_ = f.SetCellStyle(sheet, cell, cell, style)
	}
}
