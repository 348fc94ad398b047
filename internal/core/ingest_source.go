package core

// ingest_source.go loads the rows of a listing file.
//
// Delimited files are decoded through a BOM-aware UTF-8 decoder so that
// exports from Excel (leading BOM) and files with stray invalid bytes
// (replaced by U+FFFD) both parse. Workbooks are read from their first sheet.

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// MaxHeaderSearchRows is the maximum number of rows scanned for the header.
var MaxHeaderSearchRows = 20

// SupportedExtension reports whether files with this name are imported.
func SupportedExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".xlsx":
		return true
	}
	return false
}

// readRecords returns every row of the file at path.
func readRecords(path string, maxSize int64) ([][]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("file too large: %d bytes exceeds %d", info.Size(), maxSize)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("empty file")
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return readDelimited(path, ',')
	case ".tsv":
		return readDelimited(path, '\t')
	case ".xlsx":
		return readWorkbook(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}
}

func readDelimited(path string, comma rune) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	decoded := transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	r := csv.NewReader(decoded)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return records, nil
}

func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("empty file: workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("invalid spreadsheet: read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

// findHeader returns the index of the first row (within MaxHeaderSearchRows)
// containing every required column, or -1.
func findHeader(records [][]string, required []string) int {
	maxRows := min(len(records), MaxHeaderSearchRows)

	for i := 0; i < maxRows; i++ {
		idx := MakeHeaderIndex(records[i])
		found := true
		for _, col := range required {
			if _, ok := idx[col]; !ok {
				found = false
				break
			}
		}
		if found {
			return i
		}
	}
	return -1
}

// firstNonEmpty returns the index of the first non-blank row, or -1.
func firstNonEmpty(records [][]string) int {
	for i, row := range records {
		if !isEmptyRow(row) {
			return i
		}
	}
	return -1
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
