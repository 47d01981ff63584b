package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store runs the aggregation queries behind summary reports.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Window bounds a report. Zero-value fields mean unbounded, an empty
// Department means all departments.
type Window struct {
	Department string
	StartDate  string
	EndDate    string
}

// ExpenseTotals returns expense sums keyed by department.
func (s *Store) ExpenseTotals(ctx context.Context, w Window) (map[string]float64, error) {
	return s.totals(ctx, "expenses", w)
}

// IncomeTotals returns income sums keyed by department.
func (s *Store) IncomeTotals(ctx context.Context, w Window) (map[string]float64, error) {
	return s.totals(ctx, "income", w)
}

func (s *Store) totals(ctx context.Context, table string, w Window) (map[string]float64, error) {
	var conds []string
	var args []any
	argIdx := 1

	if w.Department != "" {
		conds = append(conds, fmt.Sprintf("department = $%d", argIdx))
		args = append(args, w.Department)
		argIdx++
	}
	if w.StartDate != "" {
		conds = append(conds, fmt.Sprintf("date >= $%d", argIdx))
		args = append(args, w.StartDate)
		argIdx++
	}
	if w.EndDate != "" {
		conds = append(conds, fmt.Sprintf("date <= $%d", argIdx))
		args = append(args, w.EndDate)
		argIdx++
	}

	query := fmt.Sprintf(`SELECT department, SUM(amount) FROM %s`, table)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " GROUP BY department"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregating %s totals: %w", table, err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var department string
		var sum float64
		if err := rows.Scan(&department, &sum); err != nil {
			return nil, fmt.Errorf("scanning %s totals: %w", table, err)
		}
		totals[department] = sum
	}
	return totals, rows.Err()
}
