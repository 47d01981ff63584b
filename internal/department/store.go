package department

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateName signals that an active department with the same name
// already exists.
var ErrDuplicateName = errors.New("department name already exists")

// Store provides database operations for departments.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const departmentColumns = `id, name, archived, created_at, updated_at`

func scanDepartment(scan func(dest ...any) error) (*Department, error) {
	d := &Department{}
	err := scan(&d.ID, &d.Name, &d.Archived, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// List returns departments ordered by name. When includeArchived is false
// only active departments are returned.
func (s *Store) List(ctx context.Context, includeArchived bool) ([]*Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments`
	if !includeArchived {
		query += ` WHERE NOT archived`
	}
	query += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing departments: %w", err)
	}
	defer rows.Close()

	var deps []*Department
	for rows.Next() {
		d, err := scanDepartment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning department row: %w", err)
		}
		deps = append(deps, d)
	}
	return deps, rows.Err()
}

// GetByName retrieves a department by name regardless of archived state.
// Returns pgx.ErrNoRows when no such department exists.
func (s *Store) GetByName(ctx context.Context, name string) (*Department, error) {
	d, err := scanDepartment(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`SELECT `+departmentColumns+` FROM departments WHERE name = $1`, name,
		).Scan(dest...)
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Exists reports whether an active department with the given name exists.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM departments WHERE name = $1 AND NOT archived`, name,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking department existence: %w", err)
	}
	return n > 0, nil
}

// Create inserts a new active department. If an archived department with the
// same name exists it is unarchived instead of inserting a duplicate row.
// Returns ErrDuplicateName when an active department already holds the name.
func (s *Store) Create(ctx context.Context, name string) (*Department, error) {
	existing, err := s.GetByName(ctx, name)
	switch {
	case err == nil:
		if !existing.Archived {
			return nil, ErrDuplicateName
		}
		return s.setArchived(ctx, existing.ID, false)
	case errors.Is(err, pgx.ErrNoRows):
		// fall through to insert
	default:
		return nil, fmt.Errorf("checking existing department: %w", err)
	}

	d, err := scanDepartment(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`INSERT INTO departments (name) VALUES ($1) RETURNING `+departmentColumns,
			name,
		).Scan(dest...)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("creating department: %w", err)
	}
	return d, nil
}

// SetArchived sets the named department's archived flag. Returns
// pgx.ErrNoRows when the department does not exist.
func (s *Store) SetArchived(ctx context.Context, name string, archived bool) (*Department, error) {
	d, err := s.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.setArchived(ctx, d.ID, archived)
}

func (s *Store) setArchived(ctx context.Context, id int64, archived bool) (*Department, error) {
	d, err := scanDepartment(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`UPDATE departments SET archived = $1, updated_at = now()
			 WHERE id = $2 RETURNING `+departmentColumns,
			archived, id,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("updating department archived flag: %w", err)
	}
	return d, nil
}

// DeleteByName permanently removes a department row. Returns pgx.ErrNoRows
// when nothing was deleted.
func (s *Store) DeleteByName(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM departments WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("deleting department: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
