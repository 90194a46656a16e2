package upload

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseCSV(t *testing.T) {
	input := "name,score\nAlice,90\nBob,70\n"

	sheet, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "score"}, sheet.Columns)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, map[string]string{"name": "Alice", "score": "90"}, sheet.Rows[0])
	assert.Equal(t, map[string]string{"name": "Bob", "score": "70"}, sheet.Rows[1])
}

func TestParseCSVSkipsBOM(t *testing.T) {
	input := "\xEF\xBB\xBFname,score\nAlice,90\n"

	sheet, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "score"}, sheet.Columns)
}

func TestParseCSVMissingCellsAreAbsent(t *testing.T) {
	input := "name,score,city\nAlice,,Berlin\nBob,70\n"

	sheet, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, sheet.Rows, 2)

	_, hasScore := sheet.Rows[0]["score"]
	assert.False(t, hasScore, "blank cell should have no entry")
	assert.Equal(t, "Berlin", sheet.Rows[0]["city"])

	_, hasCity := sheet.Rows[1]["city"]
	assert.False(t, hasCity, "short record cell should have no entry")
}

func TestParseCSVEmpty(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoData)

	_, err = ParseCSV(strings.NewReader("name,score\n"))
	assert.ErrorIs(t, err, ErrNoData)

	_, err = ParseCSV(strings.NewReader("name,score\n,\n"))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestParseCSVTrailingEmptyHeadersDropped(t *testing.T) {
	input := "name,score,,\nAlice,90,,\n"

	sheet, err := ParseCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "score"}, sheet.Columns)
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"name", "score"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"Alice", "90"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]interface{}{"Bob", "70"}))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	sheet, err := ParseXLSX(&buf)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "score"}, sheet.Columns)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Alice", sheet.Rows[0]["name"])
	assert.Equal(t, "70", sheet.Rows[1]["score"])
}

func TestParseDispatchesOnExtension(t *testing.T) {
	sheet, err := Parse("export.CSV", strings.NewReader("name\nAlice\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"name"}, sheet.Columns)

	_, err = Parse("export.pdf", strings.NewReader("whatever"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
