package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/santoshjammi/payrecon/internal/domain"
)

// resultRepository implements ResultRepository on Postgres. The table is
// written once inside a single transaction, so readers either see the
// complete result set or none of it.
type resultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository wires a result repository backed by pgxpool.
func NewResultRepository(pool *pgxpool.Pool) ResultRepository {
	return &resultRepository{pool: pool}
}

func (r *resultRepository) Create(ctx context.Context, jobID uuid.UUID, rows []domain.AggregateRow) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exists bool
	err = tx.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM comparison_rows WHERE job_id = $1)`,
		jobID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check result store: %w", err)
	}
	if exists {
		return fmt.Errorf("job %s: %w", jobID, domain.ErrResultExists)
	}

	_, err = tx.CopyFrom(
		ctx,
		pgx.Identifier{"comparison_rows"},
		[]string{"job_id", "employee_id", "wage_type", "wage_category", "source_amount", "target_amount", "difference", "status"},
		pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
			row := rows[i]
			return []any{
				jobID,
				row.EmployeeID,
				row.WageType,
				row.WageCategory,
				row.SourceAmount,
				row.TargetAmount,
				row.Difference,
				string(row.Status),
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk load result rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit result store: %w", err)
	}
	return nil
}

func (r *resultRepository) Query(ctx context.Context, jobID uuid.UUID, query ResultQuery) (domain.ResultPage, error) {
	query, err := normalizeQuery(query)
	if err != nil {
		return domain.ResultPage{}, err
	}

	where := `WHERE job_id = $1`
	args := []any{jobID}
	if query.StatusFilter != nil {
		where += ` AND status = $2`
		args = append(args, string(*query.StatusFilter))
	}

	var totalRows int64
	err = r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM comparison_rows `+where, args...).Scan(&totalRows)
	if err != nil {
		return domain.ResultPage{}, fmt.Errorf("failed to count result rows: %w", err)
	}

	offset, page := paginate(totalRows, query)
	page.Rows = []domain.AggregateRow{}

	sql := fmt.Sprintf(
		`SELECT employee_id, wage_type, wage_category, source_amount, target_amount, difference, status
		 FROM comparison_rows %s %s LIMIT %d OFFSET %d`,
		where, orderByClause(query.Sort), query.PageSize, offset,
	)

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return domain.ResultPage{}, fmt.Errorf("failed to query result rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			row    domain.AggregateRow
			status string
		)
		if err := rows.Scan(
			&row.EmployeeID,
			&row.WageType,
			&row.WageCategory,
			&row.SourceAmount,
			&row.TargetAmount,
			&row.Difference,
			&status,
		); err != nil {
			return domain.ResultPage{}, fmt.Errorf("failed to scan result row: %w", err)
		}
		row.Status = domain.MatchStatus(status)
		page.Rows = append(page.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return domain.ResultPage{}, fmt.Errorf("failed to iterate result rows: %w", err)
	}

	return page, nil
}

func (r *resultRepository) Delete(ctx context.Context, jobID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM comparison_rows WHERE job_id = $1`, jobID); err != nil {
		return fmt.Errorf("failed to delete result rows: %w", err)
	}
	return nil
}

// orderByClause renders a validated sort spec. Column names come from the
// ResultColumn whitelist, never from raw caller input.
func orderByClause(spec domain.SortSpec) string {
	if len(spec) == 0 {
		return ""
	}
	parts := make([]string, 0, len(spec))
	for _, key := range spec {
		direction := "ASC"
		if key.Direction == domain.SortDirectionDesc {
			direction = "DESC"
		}
		parts = append(parts, fmt.Sprintf("%s %s", key.Column, direction))
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}
