package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/santoshjammi/payrecon/internal/domain"
	"github.com/santoshjammi/payrecon/internal/engine"
	"github.com/santoshjammi/payrecon/internal/logging"
	"github.com/santoshjammi/payrecon/internal/mapping"
	"github.com/santoshjammi/payrecon/internal/repository"
)

// Source hands over already-parsed extracts; parsing raw payroll files is
// the ingestion layer's job.
type Source interface {
	LoadDataset(ctx context.Context, name string) (domain.Dataset, error)
}

// MappingLoader provides the two auxiliary mapping tables.
type MappingLoader interface {
	Load() (*mapping.Tables, error)
}

// Orchestrator drives one comparison end-to-end per job: a single
// background goroutine owns all writes to that job, polls read the latest
// persisted snapshot, and a per-job cancel function is checked between
// pipeline stages.
type Orchestrator struct {
	jobs     repository.JobRepository
	results  repository.ResultRepository
	mappings MappingLoader
	source   Source
	workers  int
	logger   logging.Logger

	mu   sync.Mutex
	runs map[uuid.UUID]*run
}

type run struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func New(
	jobs repository.JobRepository,
	results repository.ResultRepository,
	mappings MappingLoader,
	source Source,
	workers int,
	logger logging.Logger,
) *Orchestrator {
	if workers < 1 {
		workers = 4
	}
	return &Orchestrator{
		jobs:     jobs,
		results:  results,
		mappings: mappings,
		source:   source,
		workers:  workers,
		logger:   logger,
		runs:     make(map[uuid.UUID]*run),
	}
}

// Start creates a pending job and launches its pipeline in the background.
func (o *Orchestrator) Start(ctx context.Context, sourceName, targetName string) (domain.Job, error) {
	job, err := o.jobs.Create(ctx, domain.NewJob(sourceName, targetName))
	if err != nil {
		return domain.Job{}, fmt.Errorf("failed to create job: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	o.mu.Lock()
	o.runs[job.ID] = &run{cancel: cancel, done: make(chan struct{})}
	o.mu.Unlock()

	go o.run(runCtx, job.ID, sourceName, targetName)

	o.logger.Info("comparison started", "job_id", job.ID.String(), "source", sourceName, "target", targetName)
	return job, nil
}

// Cancel signals the job's pipeline to abort at the next stage boundary.
// Returns false when no run is in flight for the id.
func (o *Orchestrator) Cancel(id uuid.UUID) bool {
	o.mu.Lock()
	active, running := o.runs[id]
	o.mu.Unlock()
	if !running {
		return false
	}
	active.cancel()
	return true
}

// Wait blocks until the job's background run has finished. Used by the CLI
// and tests; status polling does not need it.
func (o *Orchestrator) Wait(id uuid.UUID) {
	o.mu.Lock()
	active, running := o.runs[id]
	o.mu.Unlock()
	if !running {
		return
	}
	<-active.done
}

func (o *Orchestrator) run(ctx context.Context, jobID uuid.UUID, sourceName, targetName string) {
	defer func() {
		o.mu.Lock()
		if active, ok := o.runs[jobID]; ok {
			active.cancel()
			close(active.done)
			delete(o.runs, jobID)
		}
		o.mu.Unlock()
	}()

	err := o.pipeline(ctx, jobID, sourceName, targetName)
	if err == nil {
		return
	}

	// Status writes survive the run context so a cancelled or failed job
	// still records its terminal state.
	if errors.Is(err, context.Canceled) {
		cancelled := domain.JobStatusCancelled
		message := "Comparison cancelled"
		if _, updateErr := o.jobs.Update(context.Background(), jobID, domain.JobUpdate{
			Status:          &cancelled,
			ProgressMessage: &message,
		}); updateErr != nil {
			o.logger.Error("failed to record cancellation", "job_id", jobID.String(), "error", updateErr)
		}
		o.logger.Info("comparison cancelled", "job_id", jobID.String())
		return
	}

	errMessage := err.Error()
	if _, updateErr := o.jobs.Update(context.Background(), jobID, domain.JobUpdate{
		Error: &errMessage,
	}); updateErr != nil {
		o.logger.Error("failed to record job failure", "job_id", jobID.String(), "error", updateErr)
	}
	o.logger.Error("comparison failed", "job_id", jobID.String(), "error", errMessage)
}

// pipeline is the sole error boundary: any stage error propagates up and
// becomes the job's recorded failure. The stages and progress points
// mirror the job state machine.
func (o *Orchestrator) pipeline(ctx context.Context, jobID uuid.UUID, sourceName, targetName string) error {
	o.progress(ctx, jobID, domain.JobStatusLoadingData, 5, "Loading mapping tables")

	tables, err := o.mappings.Load()
	if err != nil {
		return err
	}

	o.progress(ctx, jobID, domain.JobStatusLoadingData, 10, "Loading datasets")

	sourceData, err := o.source.LoadDataset(ctx, sourceName)
	if err != nil {
		return fmt.Errorf("failed to load source dataset %s: %w", sourceName, err)
	}
	targetData, err := o.source.LoadDataset(ctx, targetName)
	if err != nil {
		return fmt.Errorf("failed to load target dataset %s: %w", targetName, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	o.progress(ctx, jobID, domain.JobStatusMapping, 25, "Mapping employee identifiers")
	o.progress(ctx, jobID, domain.JobStatusAggregating, 35, "Aggregating source data")

	sourceAgg, err := engine.AggregateSource(ctx, sourceData, tables.EmployeeIDs, o.workers)
	if err != nil {
		return err
	}

	o.progress(ctx, jobID, domain.JobStatusAggregating, 50, "Aggregating target data")

	targetAgg, err := engine.AggregateTarget(ctx, targetData, o.workers)
	if err != nil {
		return err
	}

	o.progress(ctx, jobID, domain.JobStatusMerging, 65, "Merging datasets")

	rows := engine.Merge(sourceAgg, targetAgg, tables.Categories)
	if err := ctx.Err(); err != nil {
		return err
	}

	o.progress(ctx, jobID, domain.JobStatusStoring, 75, fmt.Sprintf("Storing %d rows", len(rows)))

	if err := o.results.Create(ctx, jobID, rows); err != nil {
		return fmt.Errorf("failed to store results: %w", err)
	}

	o.progress(ctx, jobID, domain.JobStatusStoring, 85, "Computing summary")

	summary := domain.Summarize(rows)
	completed := domain.JobStatusCompleted
	progress := 100.0
	message := "Comparison complete"
	totalRows := summary.TotalRows
	resultRef := fmt.Sprintf("comparison_rows/%s", jobID)

	_, err = o.jobs.Update(context.Background(), jobID, domain.JobUpdate{
		Status:          &completed,
		Progress:        &progress,
		ProgressMessage: &message,
		TotalRows:       &totalRows,
		ProcessedRows:   &totalRows,
		ResultRef:       &resultRef,
		Metadata: &domain.JobMetadata{
			Summary:              &summary,
			EmployeeMappingCount: len(tables.EmployeeIDs),
			WageTypeMappingCount: len(tables.Categories),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to record completion: %w", err)
	}

	o.logger.Info("comparison completed", "job_id", jobID.String(), "total_rows", totalRows)
	return nil
}

// progress records a stage transition; a failed status write is logged and
// tolerated since the pipeline outcome, not the intermediate progress, is
// the contract.
func (o *Orchestrator) progress(ctx context.Context, jobID uuid.UUID, status domain.JobStatus, pct float64, message string) {
	if ctx.Err() != nil {
		return
	}
	if _, err := o.jobs.Update(context.Background(), jobID, domain.JobUpdate{
		Status:          &status,
		Progress:        &pct,
		ProgressMessage: &message,
	}); err != nil {
		o.logger.Warn("failed to update job progress", "job_id", jobID.String(), "error", err)
	}
}
