package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus tracks a comparison job through its lifecycle.
type JobStatus string

const (
	JobStatusPending     JobStatus = "pending"
	JobStatusLoadingData JobStatus = "loading_data"
	JobStatusMapping     JobStatus = "mapping"
	JobStatusAggregating JobStatus = "aggregating"
	JobStatusMerging     JobStatus = "merging"
	JobStatusStoring     JobStatus = "storing"
	JobStatusCompleted   JobStatus = "completed"
	JobStatusFailed      JobStatus = "failed"
	JobStatusCancelled   JobStatus = "cancelled"
)

// IsTerminal reports whether no further mutation is permitted, other than
// deleting the job record.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Job is one tracked execution of the comparison pipeline.
type Job struct {
	ID              uuid.UUID   `json:"job_id"`
	Status          JobStatus   `json:"status"`
	SourceDataset   string      `json:"source_dataset"`
	TargetDataset   string      `json:"target_dataset"`
	Progress        float64     `json:"progress"`
	ProgressMessage string      `json:"progress_message"`
	TotalRows       int64       `json:"total_rows"`
	ProcessedRows   int64       `json:"processed_rows"`
	ResultRef       string      `json:"result_ref,omitempty"`
	Error           string      `json:"error,omitempty"`
	Metadata        JobMetadata `json:"metadata"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// JobMetadata carries the final summary and mapping cardinalities once a
// job completes.
type JobMetadata struct {
	Summary              *Summary `json:"summary,omitempty"`
	EmployeeMappingCount int      `json:"employee_mapping_count,omitempty"`
	WageTypeMappingCount int      `json:"wage_type_mapping_count,omitempty"`
}

// NewJob allocates a pending job for the given dataset pair.
func NewJob(sourceDataset, targetDataset string) Job {
	now := time.Now().UTC()
	return Job{
		ID:              uuid.New(),
		Status:          JobStatusPending,
		SourceDataset:   sourceDataset,
		TargetDataset:   targetDataset,
		ProgressMessage: "Job created, waiting to start",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// JobUpdate is a partial mutation of a job; nil fields are left unchanged.
type JobUpdate struct {
	Status          *JobStatus
	Progress        *float64
	ProgressMessage *string
	TotalRows       *int64
	ProcessedRows   *int64
	ResultRef       *string
	Error           *string
	Metadata        *JobMetadata
}

// Apply folds an update into the job, enforcing the lifecycle rules:
// the first transition into loading_data records the start timestamp,
// entering a terminal state records the completion timestamp exactly once,
// a terminal job only accepts progress message changes, setting an error
// forces the failed state, and progress is clamped to [0, 100] and never
// decreases while the job is still running.
func (j *Job) Apply(update JobUpdate) {
	now := time.Now().UTC()

	if j.Status.IsTerminal() {
		if update.ProgressMessage != nil {
			j.ProgressMessage = *update.ProgressMessage
			j.UpdatedAt = now
		}
		return
	}

	if update.Error != nil && *update.Error != "" {
		j.Error = *update.Error
		failed := JobStatusFailed
		update.Status = &failed
	}

	if update.Status != nil {
		next := *update.Status
		if next == JobStatusLoadingData && j.StartedAt == nil {
			startedAt := now
			j.StartedAt = &startedAt
		}
		if next.IsTerminal() && j.CompletedAt == nil {
			completedAt := now
			j.CompletedAt = &completedAt
		}
		j.Status = next
	}

	if update.Progress != nil {
		progress := min(100.0, max(0.0, *update.Progress))
		if progress > j.Progress || j.Status.IsTerminal() {
			j.Progress = progress
		}
	}

	if update.ProgressMessage != nil {
		j.ProgressMessage = *update.ProgressMessage
	}
	if update.TotalRows != nil {
		j.TotalRows = *update.TotalRows
	}
	if update.ProcessedRows != nil {
		j.ProcessedRows = *update.ProcessedRows
	}
	if update.ResultRef != nil {
		j.ResultRef = *update.ResultRef
	}
	if update.Metadata != nil {
		j.Metadata = *update.Metadata
	}

	j.UpdatedAt = now
}
