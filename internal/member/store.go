package member

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for the church member roster.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// List returns member names sorted alphabetically. When search is non-empty
// only names containing it (case-insensitive) are returned.
func (s *Store) List(ctx context.Context, search string) ([]string, error) {
	query := `SELECT name FROM church_members`
	var args []any
	if search != "" {
		query += ` WHERE name ILIKE $1`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Count returns the roster size.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM church_members`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting members: %w", err)
	}
	return n, nil
}

// Replace swaps the entire roster for the given names. Each upload is a full
// re-import of the congregation list. The delete and insert run as one
// statement so a failed upload cannot leave the roster empty.
func (s *Store) Replace(ctx context.Context, names []string) (int, error) {
	_, err := s.pool.Exec(ctx,
		`WITH cleared AS (DELETE FROM church_members)
		 INSERT INTO church_members (name) SELECT unnest($1::text[])`, names)
	if err != nil {
		return 0, fmt.Errorf("replacing roster: %w", err)
	}
	return len(names), nil
}
