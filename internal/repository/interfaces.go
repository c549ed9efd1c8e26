package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/santoshjammi/payrecon/internal/domain"
)

// JobRepository persists comparison job lifecycle state. Implementations
// must support concurrent readers interleaved with the single writing
// pipeline goroutine that owns each job.
type JobRepository interface {
	Create(ctx context.Context, job domain.Job) (domain.Job, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Job, error)
	// Update applies a partial update under the job's write lock and
	// returns the resulting snapshot. Unknown ids yield ErrNotFound.
	Update(ctx context.Context, id uuid.UUID, update domain.JobUpdate) (domain.Job, error)
	// List returns up to limit jobs, most recently updated first.
	List(ctx context.Context, limit int) ([]domain.Job, error)
	// Delete removes the job record; false when the id is unknown.
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// ResultQuery parameterizes one paginated read of a result table.
type ResultQuery struct {
	Page         int
	PageSize     int
	Sort         domain.SortSpec
	StatusFilter *domain.MatchStatus
}

// ResultRepository stores one immutable result table per completed job.
// Creation happens exactly once, atomically from a reader's perspective;
// thereafter the table is read-only until the job is deleted.
type ResultRepository interface {
	Create(ctx context.Context, jobID uuid.UUID, rows []domain.AggregateRow) error
	Query(ctx context.Context, jobID uuid.UUID, query ResultQuery) (domain.ResultPage, error)
	Delete(ctx context.Context, jobID uuid.UUID) error
}

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

// normalizeQuery clamps pagination bounds, validates the sort whitelist,
// and appends a deterministic tail key so equal user keys still yield a
// stable order across identical queries.
func normalizeQuery(query ResultQuery) (ResultQuery, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PageSize < 1 {
		query.PageSize = defaultPageSize
	}
	if query.PageSize > maxPageSize {
		query.PageSize = maxPageSize
	}

	if len(query.Sort) == 0 {
		query.Sort = domain.DefaultSortSpec()
	}
	validated, err := query.Sort.Validate()
	if err != nil {
		return ResultQuery{}, err
	}
	query.Sort = appendTieBreakers(validated)

	return query, nil
}

func appendTieBreakers(spec domain.SortSpec) domain.SortSpec {
	present := make(map[domain.ResultColumn]bool, len(spec))
	for _, key := range spec {
		present[key.Column] = true
	}
	for _, column := range []domain.ResultColumn{domain.ResultColumnEmployeeID, domain.ResultColumnWageType} {
		if !present[column] {
			spec = append(spec, domain.SortKey{Column: column, Direction: domain.SortDirectionAsc})
		}
	}
	return spec
}

func paginate(totalRows int64, query ResultQuery) (offset int, page domain.ResultPage) {
	totalPages := int((totalRows + int64(query.PageSize) - 1) / int64(query.PageSize))
	offset = (query.Page - 1) * query.PageSize
	return offset, domain.ResultPage{
		Page:       query.Page,
		PageSize:   query.PageSize,
		TotalRows:  totalRows,
		TotalPages: totalPages,
		HasNext:    query.Page < totalPages,
		HasPrev:    query.Page > 1 && totalPages > 0,
	}
}
