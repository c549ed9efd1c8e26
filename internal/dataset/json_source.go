package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/santoshjammi/payrecon/internal/domain"
)

// Columns names the extract columns the core reads. Defaults match the
// payroll extract headers emitted by the ingestion layer.
type Columns struct {
	EmployeeID string
	WageType   string
	Amount     string
}

func DefaultColumns() Columns {
	return Columns{EmployeeID: "Pers.No.", WageType: "WT", Amount: "Amount"}
}

// JSONSource loads parsed extracts from the ingestion layer's handoff
// format: one <name>.json file per dataset holding {"data": [records]}.
type JSONSource struct {
	dir     string
	columns Columns
}

func NewJSONSource(dir string, columns Columns) *JSONSource {
	if columns.EmployeeID == "" {
		columns = DefaultColumns()
	}
	return &JSONSource{dir: dir, columns: columns}
}

type datasetFile struct {
	Data []map[string]any `json:"data"`
}

// LoadDataset reads the named dataset into typed records carrying exactly
// the three columns the core uses.
func (s *JSONSource) LoadDataset(ctx context.Context, name string) (domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, name+".json")
	payload, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("dataset %s: %w", name, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read dataset %s: %w", name, err)
	}

	var file datasetFile
	if err := json.Unmarshal(payload, &file); err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", name, err)
	}

	records := make(domain.Dataset, 0, len(file.Data))
	for _, raw := range file.Data {
		records = append(records, domain.Record{
			EmployeeID: stringify(raw[s.columns.EmployeeID]),
			WageType:   stringify(raw[s.columns.WageType]),
			Amount:     raw[s.columns.Amount],
		})
	}
	return records, nil
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
