package upload

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoData is returned for files that contain a header but no data rows, or
// nothing at all.
var ErrNoData = errors.New("file contains no data rows")

// ErrUnsupportedFormat is returned for file extensions the parser does not
// understand.
var ErrUnsupportedFormat = errors.New("only .xlsx and .csv files are supported")

// Sheet is the parsed form of an uploaded file: the header in original order
// and one map per data row. A cell that is absent or blank in the source has
// no entry in its row map, so the importer can distinguish "no value" from
// an actual value.
type Sheet struct {
	Columns []string
	Rows    []map[string]string
}

// Parse dispatches on the file extension. The rest of the system never sees
// the original format; it only works with the Sheet.
func Parse(filename string, r io.Reader) (*Sheet, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return ParseXLSX(r)
	case ".csv":
		return ParseCSV(r)
	default:
		return nil, ErrUnsupportedFormat
	}
}

// ParseXLSX reads the first worksheet of an XLSX workbook. The first row is
// the header; every following non-empty row becomes a record.
func ParseXLSX(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoData
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	return buildSheet(rows[0], rows[1:])
}

// ParseCSV reads a comma-separated file. A UTF-8 BOM is skipped if present;
// short records are tolerated and their missing cells treated as absent.
func ParseCSV(r io.Reader) (*Sheet, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		if _, err := br.Discard(3); err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoData
	}

	return buildSheet(records[0], records[1:])
}

func buildSheet(header []string, data [][]string) (*Sheet, error) {
	columns := trimTrailingEmpty(header)
	if len(columns) == 0 {
		return nil, ErrNoData
	}

	sheet := &Sheet{Columns: columns}
	for _, record := range data {
		if isEmptyRecord(record) {
			continue
		}
		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i >= len(record) {
				break
			}
			if value := strings.TrimSpace(record[i]); value != "" {
				row[col] = value
			}
		}
		sheet.Rows = append(sheet.Rows, row)
	}

	if len(sheet.Rows) == 0 {
		return nil, ErrNoData
	}
	return sheet, nil
}

// Spreadsheet exports routinely carry trailing columns with blank headers;
// they are dropped rather than rejected. Blank headers between real columns
// are kept and fail column validation later, which aborts the upload with a
// descriptive error.
func trimTrailingEmpty(header []string) []string {
	end := len(header)
	for end > 0 && strings.TrimSpace(header[end-1]) == "" {
		end--
	}
	return header[:end]
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
