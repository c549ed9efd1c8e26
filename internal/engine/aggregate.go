package engine

import (
	"context"
	"strings"

	"github.com/santoshjammi/payrecon/internal/domain"
)

// GroupKey identifies one reconciled aggregation group. The employee id is
// always the target system's identifier; source records are remapped before
// grouping.
type GroupKey struct {
	EmployeeID string
	WageType   string
}

const partitionSize = 10000

// AggregateSource remaps each source record's employee id through the
// identifier mapping, then groups by (mapped id, wage type) and sums the
// normalized amounts. Records whose identifier has no mapping are excluded
// from aggregation entirely; they never surface as Source Only rows.
func AggregateSource(ctx context.Context, records domain.Dataset, employeeMap map[string]string, workers int) (map[GroupKey]float64, error) {
	return aggregate(ctx, records, workers, func(record domain.Record) (GroupKey, bool) {
		sourceID := strings.TrimSpace(record.EmployeeID)
		targetID, mapped := employeeMap[sourceID]
		if !mapped {
			return GroupKey{}, false
		}
		return GroupKey{
			EmployeeID: targetID,
			WageType:   strings.TrimSpace(record.WageType),
		}, true
	})
}

// AggregateTarget groups target records by (employee id, wage type)
// directly; target identifiers are the canonical join key.
func AggregateTarget(ctx context.Context, records domain.Dataset, workers int) (map[GroupKey]float64, error) {
	return aggregate(ctx, records, workers, func(record domain.Record) (GroupKey, bool) {
		return GroupKey{
			EmployeeID: strings.TrimSpace(record.EmployeeID),
			WageType:   strings.TrimSpace(record.WageType),
		}, true
	})
}

// aggregate partitions the dataset across a worker pool, sums normalized
// amounts per group within each partition, and merges the partials by
// addition. Sums are commutative and associative, so the partitioning
// never affects the final aggregates.
func aggregate(ctx context.Context, records domain.Dataset, workers int, key func(domain.Record) (GroupKey, bool)) (map[GroupKey]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	numPartitions := (len(records) + partitionSize - 1) / partitionSize
	if numPartitions <= 1 {
		return aggregatePartition(records, key), nil
	}

	partials := make([]map[GroupKey]float64, numPartitions)
	p := newPool(workers)
	for i := 0; i < numPartitions; i++ {
		start := i * partitionSize
		end := min(start+partitionSize, len(records))
		idx := i
		p.submit(func() {
			partials[idx] = aggregatePartition(records[start:end], key)
		})
	}
	p.close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := make(map[GroupKey]float64)
	for _, partial := range partials {
		for k, sum := range partial {
			merged[k] += sum
		}
	}
	return merged, nil
}

func aggregatePartition(records domain.Dataset, key func(domain.Record) (GroupKey, bool)) map[GroupKey]float64 {
	sums := make(map[GroupKey]float64)
	for _, record := range records {
		k, ok := key(record)
		if !ok {
			continue
		}
		sums[k] += NormalizeAmount(record.Amount)
	}
	return sums
}

// Merge performs the outer reconciliation join of the two aggregates. A
// side missing from a group defaults to 0.0; difference is always
// target minus source; the category label falls back to Uncategorized.
func Merge(source, target map[GroupKey]float64, categories map[string]string) []domain.AggregateRow {
	rows := make([]domain.AggregateRow, 0, len(source)+len(target))

	for k, sourceAmount := range source {
		targetAmount := target[k]
		rows = append(rows, buildRow(k, sourceAmount, targetAmount, categories))
	}
	for k, targetAmount := range target {
		if _, joined := source[k]; joined {
			continue
		}
		rows = append(rows, buildRow(k, 0.0, targetAmount, categories))
	}

	return rows
}

func buildRow(k GroupKey, sourceAmount, targetAmount float64, categories map[string]string) domain.AggregateRow {
	category, ok := categories[k.WageType]
	if !ok || category == "" {
		category = domain.UncategorizedLabel
	}
	return domain.AggregateRow{
		EmployeeID:   k.EmployeeID,
		WageType:     k.WageType,
		WageCategory: category,
		SourceAmount: sourceAmount,
		TargetAmount: targetAmount,
		Difference:   targetAmount - sourceAmount,
		Status:       domain.ClassifyMatch(sourceAmount, targetAmount),
	}
}
