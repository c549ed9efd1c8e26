package mapping

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/santoshjammi/payrecon/internal/domain"
)

// Reference table base names; each may exist as .xlsx or .csv with the key
// in the first column and the mapped value in the second.
const (
	EmployeeTableName = "employee_id_mapping"
	CategoryTableName = "wage_type_classification"
)

// Tables holds the two auxiliary mapping tables the reconciliation join
// depends on.
type Tables struct {
	// EmployeeIDs maps a source employee identifier to its target
	// identifier. Many-to-one: at most one target id per source id.
	EmployeeIDs map[string]string
	// Categories maps a wage type code to its human-readable label.
	Categories map[string]string
}

// Loader reads the mapping tables from a reference directory and caches
// them for the process lifetime.
type Loader struct {
	dir string

	mu     sync.Mutex
	cached *Tables
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load returns the cached tables, reading them from disk on first use.
// A missing or malformed table is a ConfigurationError: the comparison
// that needs it must abort rather than produce a partial result.
func (l *Loader) Load() (*Tables, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		return l.cached, nil
	}

	employees, err := l.loadTable(EmployeeTableName)
	if err != nil {
		return nil, &domain.ConfigurationError{Table: EmployeeTableName, Err: err}
	}

	categories, err := l.loadTable(CategoryTableName)
	if err != nil {
		return nil, &domain.ConfigurationError{Table: CategoryTableName, Err: err}
	}

	l.cached = &Tables{EmployeeIDs: employees, Categories: categories}
	return l.cached, nil
}

func (l *Loader) loadTable(name string) (map[string]string, error) {
	xlsxPath := filepath.Join(l.dir, name+".xlsx")
	if _, err := os.Stat(xlsxPath); err == nil {
		return loadExcelTable(xlsxPath)
	}

	csvPath := filepath.Join(l.dir, name+".csv")
	if _, err := os.Stat(csvPath); err == nil {
		return loadCSVTable(csvPath)
	}

	return nil, fmt.Errorf("no %s.xlsx or %s.csv found in %s", name, name, l.dir)
}

func loadExcelTable(path string) (map[string]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	return buildTable(rows)
}

func loadCSVTable(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	return buildTable(records)
}

// buildTable turns raw rows into a key-value mapping. The first non-empty
// row is treated as the header; a duplicate key overwrites the earlier
// entry, keeping the mapping many-to-one.
func buildTable(rows [][]string) (map[string]string, error) {
	table := make(map[string]string)
	headerSeen := false

	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		key := strings.TrimSpace(row[0])
		value := strings.TrimSpace(row[1])
		if key == "" {
			continue
		}
		if !headerSeen {
			headerSeen = true
			continue
		}
		table[key] = value
	}

	if !headerSeen {
		return nil, errors.New("mapping table has no rows")
	}
	return table, nil
}
