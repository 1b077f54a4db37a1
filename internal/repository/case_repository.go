package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/case-service/internal/domain"
)

// ErrVersionConflict signals that a case was modified concurrently between
// read and save.
var ErrVersionConflict = errors.New("case version conflict")

// CaseFilter captures optional listing filters. Values are raw strings taken
// from the caller; this layer normalizes them, and unknown values simply
// match no rows.
type CaseFilter struct {
	Status   *string
	Priority *string
}

// CaseRepository encapsulates case persistence. Save handles both create and
// update and returns the persisted representation. List results are ordered
// newest-created-first.
type CaseRepository interface {
	Save(ctx context.Context, c domain.Case) (domain.Case, error)
	GetByID(ctx context.Context, id string) (domain.Case, error)
	List(ctx context.Context, filter CaseFilter) ([]domain.Case, error)
}

type caseRepository struct {
	pool *pgxpool.Pool
}

// NewCaseRepository instantiates the postgres-backed repository.
func NewCaseRepository(pool *pgxpool.Pool) CaseRepository {
	return &caseRepository{pool: pool}
}

func (r *caseRepository) Save(ctx context.Context, c domain.Case) (domain.Case, error) {
	if c.Version == 0 {
		return r.insert(ctx, c)
	}
	return r.update(ctx, c)
}

func (r *caseRepository) insert(ctx context.Context, c domain.Case) (domain.Case, error) {
	const query = `
        INSERT INTO cases (id, title, description, status, priority, assignee_id, version, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,1,$7,$8)`
	if _, err := r.pool.Exec(ctx, query,
		c.ID,
		c.Title,
		c.Description,
		c.Status,
		c.Priority,
		c.AssigneeID,
		c.CreatedAt,
		c.UpdatedAt,
	); err != nil {
		return domain.Case{}, err
	}
	c.Version = 1
	return c, nil
}

// update is guarded by the version read with the entity; a concurrent writer
// bumping the version first makes this a zero-row update.
func (r *caseRepository) update(ctx context.Context, c domain.Case) (domain.Case, error) {
	const query = `
        UPDATE cases SET title=$2, description=$3, status=$4, priority=$5, assignee_id=$6,
            updated_at=$7, version=version+1
        WHERE id=$1 AND version=$8
        RETURNING version`
	err := r.pool.QueryRow(ctx, query,
		c.ID,
		c.Title,
		c.Description,
		c.Status,
		c.Priority,
		c.AssigneeID,
		c.UpdatedAt,
		c.Version,
	).Scan(&c.Version)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Case{}, err
	}

	var exists bool
	if checkErr := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM cases WHERE id=$1)`, c.ID).Scan(&exists); checkErr != nil {
		return domain.Case{}, checkErr
	}
	if exists {
		return domain.Case{}, ErrVersionConflict
	}
	return domain.Case{}, pgx.ErrNoRows
}

func (r *caseRepository) GetByID(ctx context.Context, id string) (domain.Case, error) {
	const query = `
        SELECT id, title, description, status, priority, assignee_id, version, created_at, updated_at
        FROM cases WHERE id=$1`
	var c domain.Case
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Title,
		&c.Description,
		&c.Status,
		&c.Priority,
		&c.AssigneeID,
		&c.Version,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		return domain.Case{}, err
	}
	return c, nil
}

func (r *caseRepository) List(ctx context.Context, filter CaseFilter) ([]domain.Case, error) {
	base := `SELECT id, title, description, status, priority, assignee_id, version, created_at, updated_at
             FROM cases`
	clauses := []string{"1=1"}
	args := []any{}

	if status := NormalizeFilterValue(filter.Status); status != nil {
		args = append(args, *status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if priority := NormalizeFilterValue(filter.Priority); priority != nil {
		args = append(args, *priority)
		clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC`, base, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCases(rows)
}

// NormalizeFilterValue trims and uppercases a raw filter value. Blank values
// collapse to nil, meaning "no filter".
func NormalizeFilterValue(raw *string) *string {
	if raw == nil {
		return nil
	}
	normalized := strings.ToUpper(strings.TrimSpace(*raw))
	if normalized == "" {
		return nil
	}
	return &normalized
}

func scanCases(rows pgx.Rows) ([]domain.Case, error) {
	var result []domain.Case
	for rows.Next() {
		var c domain.Case
		if err := rows.Scan(
			&c.ID,
			&c.Title,
			&c.Description,
			&c.Status,
			&c.Priority,
			&c.AssigneeID,
			&c.Version,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
