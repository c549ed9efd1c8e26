package engine

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santoshjammi/payrecon/internal/domain"
)

func TestMappedScenario(t *testing.T) {
	ctx := context.Background()
	source := domain.Dataset{
		{EmployeeID: "1", WageType: "A", Amount: "1,000.00"},
	}
	target := domain.Dataset{
		{EmployeeID: "9", WageType: "A", Amount: "500.00"},
	}
	employeeMap := map[string]string{"1": "9"}

	sourceAgg, err := AggregateSource(ctx, source, employeeMap, 2)
	require.NoError(t, err)
	targetAgg, err := AggregateTarget(ctx, target, 2)
	require.NoError(t, err)

	rows := Merge(sourceAgg, targetAgg, map[string]string{"A": "Earnings"})
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "9", row.EmployeeID)
	assert.Equal(t, "A", row.WageType)
	assert.Equal(t, "Earnings", row.WageCategory)
	assert.Equal(t, 1000.0, row.SourceAmount)
	assert.Equal(t, 500.0, row.TargetAmount)
	assert.Equal(t, -500.0, row.Difference)
	assert.Equal(t, domain.MatchStatusMatched, row.Status)
}

func TestUnmappedSourceRecordsAreExcluded(t *testing.T) {
	ctx := context.Background()
	source := domain.Dataset{
		{EmployeeID: "1", WageType: "A", Amount: "100.00"},
		{EmployeeID: "77", WageType: "A", Amount: "999.00"}, // no mapping entry
	}
	employeeMap := map[string]string{"1": "9"}

	sourceAgg, err := AggregateSource(ctx, source, employeeMap, 1)
	require.NoError(t, err)

	rows := Merge(sourceAgg, map[GroupKey]float64{}, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, "9", rows[0].EmployeeID)
	for _, row := range rows {
		assert.NotEqual(t, "77", row.EmployeeID)
	}
}

func TestOuterJoinDefaultsMissingSideToZero(t *testing.T) {
	sourceAgg := map[GroupKey]float64{
		{EmployeeID: "9", WageType: "A"}: 100.0,
	}
	targetAgg := map[GroupKey]float64{
		{EmployeeID: "9", WageType: "B"}: 50.0,
	}

	rows := Merge(sourceAgg, targetAgg, nil)
	require.Len(t, rows, 2)

	byType := map[string]domain.AggregateRow{}
	for _, row := range rows {
		byType[row.WageType] = row
	}

	sourceOnly := byType["A"]
	assert.Equal(t, 0.0, sourceOnly.TargetAmount)
	assert.Equal(t, domain.MatchStatusSourceOnly, sourceOnly.Status)
	assert.Equal(t, -100.0, sourceOnly.Difference)

	targetOnly := byType["B"]
	assert.Equal(t, 0.0, targetOnly.SourceAmount)
	assert.Equal(t, domain.MatchStatusTargetOnly, targetOnly.Status)
	assert.Equal(t, 50.0, targetOnly.Difference)
}

func TestZeroZeroCancellationClassifiedTargetOnly(t *testing.T) {
	// Both sums cancel to exactly zero via positive and negative
	// contributions; the classification rule puts such groups on the
	// target-only side.
	ctx := context.Background()
	source := domain.Dataset{
		{EmployeeID: "1", WageType: "A", Amount: "250.00"},
		{EmployeeID: "1", WageType: "A", Amount: "250.00-"},
	}
	target := domain.Dataset{
		{EmployeeID: "9", WageType: "A", Amount: "(100.00)"},
		{EmployeeID: "9", WageType: "A", Amount: "100.00"},
	}

	sourceAgg, err := AggregateSource(ctx, source, map[string]string{"1": "9"}, 1)
	require.NoError(t, err)
	targetAgg, err := AggregateTarget(ctx, target, 1)
	require.NoError(t, err)

	rows := Merge(sourceAgg, targetAgg, nil)
	require.Len(t, rows, 1)
	assert.Equal(t, 0.0, rows[0].SourceAmount)
	assert.Equal(t, 0.0, rows[0].TargetAmount)
	assert.Equal(t, domain.MatchStatusTargetOnly, rows[0].Status)
}

func TestDifferenceConservation(t *testing.T) {
	ctx := context.Background()
	employeeMap := map[string]string{}
	var source, target domain.Dataset
	for i := 0; i < 500; i++ {
		id := fmt.Sprintf("%d", i)
		employeeMap[id] = "T" + id
		source = append(source, domain.Record{EmployeeID: id, WageType: "W1", Amount: fmt.Sprintf("%d.25", i)})
		target = append(target, domain.Record{EmployeeID: "T" + id, WageType: "W1", Amount: fmt.Sprintf("%d.75", i*2)})
	}

	sourceAgg, err := AggregateSource(ctx, source, employeeMap, 4)
	require.NoError(t, err)
	targetAgg, err := AggregateTarget(ctx, target, 4)
	require.NoError(t, err)

	for _, row := range Merge(sourceAgg, targetAgg, nil) {
		assert.InDelta(t, row.TargetAmount-row.SourceAmount, row.Difference, 1e-9)
	}
}

func TestPartitionedAggregationIsDeterministic(t *testing.T) {
	// Large enough to span multiple partitions; sums must not depend on
	// worker count or partition boundaries.
	ctx := context.Background()
	var records domain.Dataset
	for i := 0; i < 25000; i++ {
		records = append(records, domain.Record{
			EmployeeID: fmt.Sprintf("%d", i%7),
			WageType:   fmt.Sprintf("W%d", i%3),
			Amount:     "1.10",
		})
	}

	single, err := AggregateTarget(ctx, records, 1)
	require.NoError(t, err)
	parallel, err := AggregateTarget(ctx, records, 8)
	require.NoError(t, err)

	require.Equal(t, len(single), len(parallel))
	for key, sum := range single {
		assert.InDelta(t, sum, parallel[key], 1e-9)
	}
}

func TestAggregateRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := AggregateTarget(ctx, domain.Dataset{{EmployeeID: "1", WageType: "A", Amount: "1"}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassifyMatchIsTotal(t *testing.T) {
	amounts := []float64{0, 0.01, 1, math.MaxFloat64}
	for _, s := range amounts {
		for _, target := range amounts {
			status := domain.ClassifyMatch(s, target)
			assert.Contains(t, []domain.MatchStatus{
				domain.MatchStatusMatched,
				domain.MatchStatusSourceOnly,
				domain.MatchStatusTargetOnly,
			}, status)
			// Pure: same inputs, same answer.
			assert.Equal(t, status, domain.ClassifyMatch(s, target))
		}
	}
}

func TestMergeDefaultsCategoryToUncategorized(t *testing.T) {
	rows := Merge(
		map[GroupKey]float64{{EmployeeID: "9", WageType: "ZZ"}: 10.0},
		nil,
		map[string]string{"A": "Earnings"},
	)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.UncategorizedLabel, rows[0].WageCategory)
}
