package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/santoshjammi/payrecon/internal/domain"
)

// InMemoryJobRepository is a mutex-guarded JobRepository used by tests and
// single-process runs that skip Postgres.
type InMemoryJobRepository struct {
	mu   sync.RWMutex
	jobs map[uuid.UUID]domain.Job
}

func NewInMemoryJobRepository() *InMemoryJobRepository {
	return &InMemoryJobRepository{jobs: make(map[uuid.UUID]domain.Job)}
}

func (r *InMemoryJobRepository) Create(ctx context.Context, job domain.Job) (domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
	return job, nil
}

func (r *InMemoryJobRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, exists := r.jobs[id]
	if !exists {
		return domain.Job{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	return job, nil
}

func (r *InMemoryJobRepository) Update(ctx context.Context, id uuid.UUID, update domain.JobUpdate) (domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, exists := r.jobs[id]
	if !exists {
		return domain.Job{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
	}
	job.Apply(update)
	r.jobs[id] = job
	return job, nil
}

func (r *InMemoryJobRepository) List(ctx context.Context, limit int) ([]domain.Job, error) {
	if limit <= 0 {
		limit = 50
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	jobs := make([]domain.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].UpdatedAt.After(jobs[j].UpdatedAt)
	})

	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

func (r *InMemoryJobRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[id]; !exists {
		return false, nil
	}
	delete(r.jobs, id)
	return true, nil
}

// InMemoryResultRepository keeps one immutable row slice per job.
type InMemoryResultRepository struct {
	mu      sync.RWMutex
	results map[uuid.UUID][]domain.AggregateRow
}

func NewInMemoryResultRepository() *InMemoryResultRepository {
	return &InMemoryResultRepository{results: make(map[uuid.UUID][]domain.AggregateRow)}
}

func (r *InMemoryResultRepository) Create(ctx context.Context, jobID uuid.UUID, rows []domain.AggregateRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.results[jobID]; exists {
		return fmt.Errorf("job %s: %w", jobID, domain.ErrResultExists)
	}
	stored := make([]domain.AggregateRow, len(rows))
	copy(stored, rows)
	r.results[jobID] = stored
	return nil
}

func (r *InMemoryResultRepository) Query(ctx context.Context, jobID uuid.UUID, query ResultQuery) (domain.ResultPage, error) {
	query, err := normalizeQuery(query)
	if err != nil {
		return domain.ResultPage{}, err
	}

	r.mu.RLock()
	stored, exists := r.results[jobID]
	r.mu.RUnlock()
	if !exists {
		return domain.ResultPage{}, fmt.Errorf("result store for job %s: %w", jobID, domain.ErrNotFound)
	}

	filtered := stored
	if query.StatusFilter != nil {
		filtered = make([]domain.AggregateRow, 0, len(stored))
		for _, row := range stored {
			if row.Status == *query.StatusFilter {
				filtered = append(filtered, row)
			}
		}
	} else {
		filtered = make([]domain.AggregateRow, len(stored))
		copy(filtered, stored)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return lessRows(filtered[i], filtered[j], query.Sort)
	})

	offset, page := paginate(int64(len(filtered)), query)
	page.Rows = []domain.AggregateRow{}
	if offset < len(filtered) {
		end := min(offset+query.PageSize, len(filtered))
		page.Rows = append(page.Rows, filtered[offset:end]...)
	}
	return page, nil
}

func (r *InMemoryResultRepository) Delete(ctx context.Context, jobID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.results, jobID)
	return nil
}

func lessRows(a, b domain.AggregateRow, spec domain.SortSpec) bool {
	for _, key := range spec {
		cmp := compareColumn(a, b, key.Column)
		if cmp == 0 {
			continue
		}
		if key.Direction == domain.SortDirectionDesc {
			return cmp > 0
		}
		return cmp < 0
	}
	return false
}

func compareColumn(a, b domain.AggregateRow, column domain.ResultColumn) int {
	switch column {
	case domain.ResultColumnEmployeeID:
		return compareStrings(a.EmployeeID, b.EmployeeID)
	case domain.ResultColumnWageType:
		return compareStrings(a.WageType, b.WageType)
	case domain.ResultColumnWageCategory:
		return compareStrings(a.WageCategory, b.WageCategory)
	case domain.ResultColumnSourceAmount:
		return compareFloats(a.SourceAmount, b.SourceAmount)
	case domain.ResultColumnTargetAmount:
		return compareFloats(a.TargetAmount, b.TargetAmount)
	case domain.ResultColumnDifference:
		return compareFloats(a.Difference, b.Difference)
	case domain.ResultColumnStatus:
		return compareStrings(string(a.Status), string(b.Status))
	}
	return 0
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
