package comparison

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/santoshjammi/payrecon/internal/domain"
	"github.com/santoshjammi/payrecon/internal/logging"
	"github.com/santoshjammi/payrecon/internal/mapping"
	"github.com/santoshjammi/payrecon/internal/orchestrator"
	"github.com/santoshjammi/payrecon/internal/repository"
)

type fixedMappings struct{}

func (fixedMappings) Load() (*mapping.Tables, error) {
	return &mapping.Tables{
		EmployeeIDs: map[string]string{"1": "9"},
		Categories:  map[string]string{"A": "Earnings"},
	}, nil
}

type fixedSource struct{}

func (fixedSource) LoadDataset(ctx context.Context, name string) (domain.Dataset, error) {
	switch name {
	case "SRC":
		return domain.Dataset{{EmployeeID: "1", WageType: "A", Amount: "1,000.00"}}, nil
	case "TGT":
		return domain.Dataset{{EmployeeID: "9", WageType: "A", Amount: "500.00"}}, nil
	}
	return nil, errors.New("unknown dataset " + name)
}

func newTestService() (*Service, *orchestrator.Orchestrator, repository.JobRepository) {
	jobs := repository.NewInMemoryJobRepository()
	results := repository.NewInMemoryResultRepository()
	orch := orchestrator.New(jobs, results, fixedMappings{}, fixedSource{}, 2, logging.NewNopLogger())
	return NewService(jobs, results, orch), orch, jobs
}

func TestStartComparisonValidatesInput(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.StartComparison(context.Background(), "", "TGT")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = service.StartComparison(context.Background(), "SRC", "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStartComparisonReturnsImmediately(t *testing.T) {
	service, orch, _ := newTestService()

	id, err := service.StartComparison(context.Background(), "SRC", "TGT")
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	// The job exists as soon as StartComparison returns, whatever state
	// the background run is in.
	job, err := service.GetJobStatus(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "SRC", job.SourceDataset)
	assert.Equal(t, "TGT", job.TargetDataset)

	orch.Wait(id)
}

func TestGetJobStatusUnknownIsNotFound(t *testing.T) {
	service, _, _ := newTestService()
	_, err := service.GetJobStatus(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQueryResultsBeforeCompletionIsInProgress(t *testing.T) {
	service, _, jobs := newTestService()

	job, err := jobs.Create(context.Background(), domain.NewJob("SRC", "TGT"))
	require.NoError(t, err)
	status := domain.JobStatusAggregating
	progress := 42.0
	_, err = jobs.Update(context.Background(), job.ID, domain.JobUpdate{Status: &status, Progress: &progress})
	require.NoError(t, err)

	_, err = service.QueryResults(context.Background(), job.ID, repository.ResultQuery{Page: 1, PageSize: 10})

	var inProgress *domain.InProgressError
	require.ErrorAs(t, err, &inProgress)
	assert.Equal(t, domain.JobStatusAggregating, inProgress.Status)
	assert.Equal(t, 42.0, inProgress.Progress)
}

func TestQueryResultsAfterCompletion(t *testing.T) {
	service, orch, _ := newTestService()

	id, err := service.StartComparison(context.Background(), "SRC", "TGT")
	require.NoError(t, err)
	orch.Wait(id)

	page, err := service.QueryResults(context.Background(), id, repository.ResultQuery{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	assert.Equal(t, "9", page.Rows[0].EmployeeID)
	assert.Equal(t, -500.0, page.Rows[0].Difference)
	assert.Equal(t, domain.MatchStatusMatched, page.Rows[0].Status)
}

func TestQueryResultsUnknownJobIsNotFound(t *testing.T) {
	service, _, _ := newTestService()
	_, err := service.QueryResults(context.Background(), uuid.New(), repository.ResultQuery{Page: 1, PageSize: 10})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteJobRemovesJobAndResults(t *testing.T) {
	service, orch, _ := newTestService()

	id, err := service.StartComparison(context.Background(), "SRC", "TGT")
	require.NoError(t, err)
	orch.Wait(id)

	deleted, err := service.DeleteJob(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = service.GetJobStatus(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	deleted, err = service.DeleteJob(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestListJobsReturnsRecentFirst(t *testing.T) {
	service, orch, _ := newTestService()

	first, err := service.StartComparison(context.Background(), "SRC", "TGT")
	require.NoError(t, err)
	orch.Wait(first)
	second, err := service.StartComparison(context.Background(), "SRC", "TGT")
	require.NoError(t, err)
	orch.Wait(second)

	listed, err := service.ListJobs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, second, listed[0].ID)
}
