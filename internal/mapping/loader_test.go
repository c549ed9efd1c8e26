package mapping

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/santoshjammi/payrecon/internal/domain"
)

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".csv"), []byte(content), 0o644))
}

func writeXLSX(t *testing.T, dir, name string, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		for j, cell := range row {
			cellName, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cellName, cell))
		}
	}
	require.NoError(t, f.SaveAs(filepath.Join(dir, name+".xlsx")))
}

func TestLoadCSVTables(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, EmployeeTableName, "source_id,target_id\n100,900\n 101 , 901 \n100,905\n")
	writeCSV(t, dir, CategoryTableName, "wage_type,category\n1000,Base Pay\n2000,Overtime\n")

	tables, err := NewLoader(dir).Load()
	require.NoError(t, err)

	// Whitespace is trimmed and a duplicate key keeps the later entry.
	assert.Equal(t, map[string]string{"100": "905", "101": "901"}, tables.EmployeeIDs)
	assert.Equal(t, map[string]string{"1000": "Base Pay", "2000": "Overtime"}, tables.Categories)
}

func TestLoadExcelTables(t *testing.T) {
	dir := t.TempDir()
	writeXLSX(t, dir, EmployeeTableName, [][]string{
		{"source_id", "target_id"},
		{"100", "900"},
		{"101", "901"},
	})
	writeXLSX(t, dir, CategoryTableName, [][]string{
		{"wage_type", "category"},
		{"1000", "Base Pay"},
	})

	tables, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"100": "900", "101": "901"}, tables.EmployeeIDs)
	assert.Equal(t, map[string]string{"1000": "Base Pay"}, tables.Categories)
}

func TestLoadPrefersExcelOverCSV(t *testing.T) {
	dir := t.TempDir()
	writeXLSX(t, dir, EmployeeTableName, [][]string{{"source_id", "target_id"}, {"1", "from-xlsx"}})
	writeCSV(t, dir, EmployeeTableName, "source_id,target_id\n1,from-csv\n")
	writeCSV(t, dir, CategoryTableName, "wage_type,category\nA,Earnings\n")

	tables, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, "from-xlsx", tables.EmployeeIDs["1"])
}

func TestLoadMissingTableIsConfigurationError(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, EmployeeTableName, "source_id,target_id\n1,9\n")
	// Category table deliberately absent.

	_, err := NewLoader(dir).Load()

	var confErr *domain.ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, CategoryTableName, confErr.Table)
}

func TestLoadEmptyTableIsConfigurationError(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, EmployeeTableName, "")
	writeCSV(t, dir, CategoryTableName, "wage_type,category\nA,Earnings\n")

	_, err := NewLoader(dir).Load()

	var confErr *domain.ConfigurationError
	require.ErrorAs(t, err, &confErr)
	assert.Equal(t, EmployeeTableName, confErr.Table)
	assert.Error(t, confErr.Err)
}

func TestLoadCachesTables(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, EmployeeTableName, "source_id,target_id\n1,9\n")
	writeCSV(t, dir, CategoryTableName, "wage_type,category\nA,Earnings\n")

	loader := NewLoader(dir)
	first, err := loader.Load()
	require.NoError(t, err)

	// Rewriting the files after the first load does not change the
	// tables the loader hands out.
	writeCSV(t, dir, EmployeeTableName, "source_id,target_id\n1,changed\n")
	second, err := loader.Load()
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, "9", second.EmployeeIDs["1"])
}

func TestLoadHeaderOnlyTableIsEmptyMapping(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, EmployeeTableName, "source_id,target_id\n")
	writeCSV(t, dir, CategoryTableName, "wage_type,category\nA,Earnings\n")

	tables, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Empty(t, tables.EmployeeIDs)
}
