package domain

import "fmt"

// SortDirection represents ordering direction for sortable columns.
type SortDirection string

const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// ResultColumn enumerates the result table columns that can be sorted on.
type ResultColumn string

const (
	ResultColumnEmployeeID   ResultColumn = "employee_id"
	ResultColumnWageType     ResultColumn = "wage_type"
	ResultColumnWageCategory ResultColumn = "wage_category"
	ResultColumnSourceAmount ResultColumn = "source_amount"
	ResultColumnTargetAmount ResultColumn = "target_amount"
	ResultColumnDifference   ResultColumn = "difference"
	ResultColumnStatus       ResultColumn = "status"
)

// Valid reports whether the column names a real result table column.
func (c ResultColumn) Valid() bool {
	switch c {
	case ResultColumnEmployeeID, ResultColumnWageType, ResultColumnWageCategory,
		ResultColumnSourceAmount, ResultColumnTargetAmount, ResultColumnDifference,
		ResultColumnStatus:
		return true
	}
	return false
}

// SortKey is one (column, direction) pair in a sort specification.
type SortKey struct {
	Column    ResultColumn
	Direction SortDirection
}

// SortSpec is an ordered list of sort keys; earlier keys take precedence
// and ties fall through to the next key.
type SortSpec []SortKey

// Validate rejects unknown columns and normalizes missing directions to
// ascending.
func (s SortSpec) Validate() (SortSpec, error) {
	validated := make(SortSpec, 0, len(s))
	for _, key := range s {
		if !key.Column.Valid() {
			return nil, fmt.Errorf("%w: unknown sort column %q", ErrInvalidInput, key.Column)
		}
		if key.Direction != SortDirectionDesc {
			key.Direction = SortDirectionAsc
		}
		validated = append(validated, key)
	}
	return validated, nil
}

// DefaultSortSpec mirrors the default result ordering: employee, category,
// then the larger amounts first.
func DefaultSortSpec() SortSpec {
	return SortSpec{
		{Column: ResultColumnEmployeeID, Direction: SortDirectionAsc},
		{Column: ResultColumnWageCategory, Direction: SortDirectionAsc},
		{Column: ResultColumnSourceAmount, Direction: SortDirectionDesc},
		{Column: ResultColumnTargetAmount, Direction: SortDirectionDesc},
	}
}
