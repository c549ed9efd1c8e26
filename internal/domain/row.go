package domain

// Record is one typed row handed over by the ingestion layer. Amount holds
// the raw scalar (string or number) exactly as parsed from the extract; it
// is normalized by the aggregation engine, not at this boundary.
type Record struct {
	EmployeeID string
	WageType   string
	Amount     any
}

// Dataset is an ordered, read-only sequence of records.
type Dataset []Record

// MatchStatus classifies one reconciled (employee, wage type) group.
type MatchStatus string

const (
	MatchStatusMatched    MatchStatus = "Matched"
	MatchStatusSourceOnly MatchStatus = "Source Only"
	MatchStatusTargetOnly MatchStatus = "Target Only"
)

// ClassifyMatch is the pure classification rule over the two aggregated
// amounts. A group whose sums both cancelled to exactly zero is classified
// Target Only; the rule is deliberately kept asymmetric to match the
// reconciliation formula.
func ClassifyMatch(sourceAmount, targetAmount float64) MatchStatus {
	switch {
	case sourceAmount > 0 && targetAmount > 0:
		return MatchStatusMatched
	case sourceAmount > 0:
		return MatchStatusSourceOnly
	default:
		return MatchStatusTargetOnly
	}
}

// UncategorizedLabel is assigned to wage types absent from the category
// mapping table.
const UncategorizedLabel = "Uncategorized"

// AggregateRow is one reconciled group: summed amounts from both systems
// keyed by (target employee id, wage type), their difference, and status.
type AggregateRow struct {
	EmployeeID   string      `json:"employee_id"`
	WageType     string      `json:"wage_type"`
	WageCategory string      `json:"wage_category"`
	SourceAmount float64     `json:"source_amount"`
	TargetAmount float64     `json:"target_amount"`
	Difference   float64     `json:"difference"`
	Status       MatchStatus `json:"status"`
}

// Summary aggregates a completed job's result table.
type Summary struct {
	TotalRows         int64   `json:"total_rows"`
	TotalSourceAmount float64 `json:"total_source_amount"`
	TotalTargetAmount float64 `json:"total_target_amount"`
	MatchedCount      int64   `json:"matched_count"`
	SourceOnlyCount   int64   `json:"source_only_count"`
	TargetOnlyCount   int64   `json:"target_only_count"`
}

// Summarize computes the summary statistics for a result table.
func Summarize(rows []AggregateRow) Summary {
	summary := Summary{TotalRows: int64(len(rows))}
	for _, row := range rows {
		summary.TotalSourceAmount += row.SourceAmount
		summary.TotalTargetAmount += row.TargetAmount
		switch row.Status {
		case MatchStatusMatched:
			summary.MatchedCount++
		case MatchStatusSourceOnly:
			summary.SourceOnlyCount++
		case MatchStatusTargetOnly:
			summary.TargetOnlyCount++
		}
	}
	return summary
}

// ResultPage is one page of a completed job's result table.
type ResultPage struct {
	Rows       []AggregateRow `json:"results"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalRows  int64          `json:"total_rows"`
	TotalPages int            `json:"total_pages"`
	HasNext    bool           `json:"has_next"`
	HasPrev    bool           `json:"has_prev"`
}
