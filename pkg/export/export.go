package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"image-scanner/pkg/models"
)

// SheetName is the sheet the XLSX export writes into.
const SheetName = "Results"

// Header is the column order shared by both export formats.
var Header = []string{"URL", "Filename", "Size (KB)", "Part1", "Part2", "Part3", "Part4", "FileType"}

// Writer serializes reduced result tables to CSV and XLSX files in outDir.
type Writer struct {
	outDir string
	log    *logrus.Entry
}

// NewWriter creates a Writer. The output directory is created on first write.
func NewWriter(outDir string, log *logrus.Entry) *Writer {
	return &Writer{outDir: outDir, log: log}
}

// WriteCSV writes the records as delimited text and returns the file path.
// Filenames follow the images_<timestamp> convention.
func (w *Writer) WriteCSV(records []models.ImageRecord, now time.Time) (string, error) {
	if err := os.MkdirAll(w.outDir, 0755); err != nil {
		return "", fmt.Errorf("creating export dir %q: %w", w.outDir, err)
	}
	outPath := filepath.Join(w.outDir, fmt.Sprintf("images_%s.csv", now.Format("20060102_150405")))

	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("creating CSV file %q: %w", outPath, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(Header); err != nil {
		return "", fmt.Errorf("writing CSV header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(row(rec)); err != nil {
			return "", fmt.Errorf("writing CSV row for %q: %w", rec.URL, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flushing CSV %q: %w", outPath, err)
	}

	w.log.WithFields(logrus.Fields{"path": outPath, "rows": len(records)}).Info("Wrote CSV export")
	return outPath, nil
}

// WriteXLSX writes the records to a spreadsheet with a single "Results" sheet
// and returns the file path.
func (w *Writer) WriteXLSX(records []models.ImageRecord, now time.Time) (string, error) {
	if err := os.MkdirAll(w.outDir, 0755); err != nil {
		return "", fmt.Errorf("creating export dir %q: %w", w.outDir, err)
	}
	outPath := filepath.Join(w.outDir, fmt.Sprintf("images_%s.xlsx", now.Format("20060102_150405")))

	file := excelize.NewFile()
	defer file.Close()

	index, err := file.NewSheet(SheetName)
	if err != nil {
		return "", fmt.Errorf("creating sheet %q: %w", SheetName, err)
	}
	file.SetActiveSheet(index)
	// Drop the default sheet so "Results" is the only one
	if err := file.DeleteSheet("Sheet1"); err != nil {
		w.log.Debugf("Could not delete default sheet: %v", err)
	}

	headerRow := make([]interface{}, len(Header))
	for i, h := range Header {
		headerRow[i] = h
	}
	if err := file.SetSheetRow(SheetName, "A1", &headerRow); err != nil {
		return "", fmt.Errorf("writing XLSX header: %w", err)
	}
	for i, rec := range records {
		cell, cellErr := excelize.CoordinatesToCellName(1, i+2)
		if cellErr != nil {
			return "", fmt.Errorf("computing cell for row %d: %w", i+2, cellErr)
		}
		values := []interface{}{rec.URL, rec.Filename, rec.SizeKB, rec.Part1, rec.Part2, rec.Part3, rec.Part4, rec.FileType}
		if err := file.SetSheetRow(SheetName, cell, &values); err != nil {
			return "", fmt.Errorf("writing XLSX row for %q: %w", rec.URL, err)
		}
	}

	if err := file.SaveAs(outPath); err != nil {
		return "", fmt.Errorf("saving XLSX %q: %w", outPath, err)
	}

	w.log.WithFields(logrus.Fields{"path": outPath, "rows": len(records)}).Info("Wrote XLSX export")
	return outPath, nil
}

// row converts a record to its CSV string columns.
func row(rec models.ImageRecord) []string {
	return []string{
		rec.URL,
		rec.Filename,
		strconv.FormatFloat(rec.SizeKB, 'f', 2, 64),
		rec.Part1,
		rec.Part2,
		rec.Part3,
		rec.Part4,
		rec.FileType,
	}
}
