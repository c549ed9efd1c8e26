package comparison

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/santoshjammi/payrecon/internal/domain"
	"github.com/santoshjammi/payrecon/internal/orchestrator"
	"github.com/santoshjammi/payrecon/internal/repository"
)

// Service exposes the comparison core independent of any transport: start
// a run, poll its status, page through its results, and delete it.
type Service struct {
	jobs         repository.JobRepository
	results      repository.ResultRepository
	orchestrator *orchestrator.Orchestrator
}

func NewService(
	jobs repository.JobRepository,
	results repository.ResultRepository,
	orch *orchestrator.Orchestrator,
) *Service {
	return &Service{jobs: jobs, results: results, orchestrator: orch}
}

// StartComparison creates a pending job for the dataset pair and runs the
// pipeline in the background, returning the job id immediately.
func (s *Service) StartComparison(ctx context.Context, sourceDataset, targetDataset string) (uuid.UUID, error) {
	if strings.TrimSpace(sourceDataset) == "" {
		return uuid.Nil, fmt.Errorf("%w: source dataset name is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(targetDataset) == "" {
		return uuid.Nil, fmt.Errorf("%w: target dataset name is required", domain.ErrInvalidInput)
	}

	job, err := s.orchestrator.Start(ctx, sourceDataset, targetDataset)
	if err != nil {
		return uuid.Nil, err
	}
	return job.ID, nil
}

// GetJobStatus returns the latest persisted snapshot of the job.
func (s *Service) GetJobStatus(ctx context.Context, id uuid.UUID) (domain.Job, error) {
	return s.jobs.GetByID(ctx, id)
}

// QueryResults pages through a completed job's result table. A job that
// has not completed yet answers with a typed InProgressError carrying the
// current progress snapshot; completion is the sole readiness signal for
// reading the table.
func (s *Service) QueryResults(ctx context.Context, id uuid.UUID, query repository.ResultQuery) (domain.ResultPage, error) {
	job, err := s.jobs.GetByID(ctx, id)
	if err != nil {
		return domain.ResultPage{}, err
	}

	if job.Status != domain.JobStatusCompleted {
		return domain.ResultPage{}, &domain.InProgressError{
			Status:          job.Status,
			Progress:        job.Progress,
			ProgressMessage: job.ProgressMessage,
			Summary:         job.Metadata.Summary,
		}
	}

	return s.results.Query(ctx, id, query)
}

// ListJobs returns recent jobs, most recently updated first.
func (s *Service) ListJobs(ctx context.Context, limit int) ([]domain.Job, error) {
	return s.jobs.List(ctx, limit)
}

// CancelJob requests cancellation of an in-flight run. Returns false when
// the job has no active run to cancel.
func (s *Service) CancelJob(id uuid.UUID) bool {
	return s.orchestrator.Cancel(id)
}

// DeleteJob removes the job record together with its result table; the
// two form one unit of deletion. Returns false when the id is unknown.
func (s *Service) DeleteJob(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := s.results.Delete(ctx, id); err != nil {
		return false, err
	}
	return s.jobs.Delete(ctx, id)
}
