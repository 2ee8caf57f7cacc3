package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// MaxUploadSize is the maximum accepted bulk-upload size (50MB).
var MaxUploadSize int64 = 50 * 1024 * 1024

// ReadTable decodes an uploaded bulk file into rows of cells. Spreadsheet
// binaries (.xlsx) read the first sheet; everything else is treated as
// delimited text.
func ReadTable(data []byte, filename string) ([][]string, error) {
	if int64(len(data)) > MaxUploadSize {
		return nil, fmt.Errorf("upload exceeds %dMB limit", MaxUploadSize/(1024*1024))
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty upload")
	}

	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		return readXLSX(data)
	}
	return readCSV(data)
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(sanitizeUTF8(data)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse delimited text: %w", err)
	}
	return rows, nil
}

// sanitizeUTF8 replaces invalid byte sequences so the CSV reader never
// chokes on odd exports.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}
	return buf.Bytes()
}
