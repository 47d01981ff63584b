package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations for expenses and income.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const expenseColumns = `id, department, amount, date, description, purchaser, notes, status, receipt_url, created_by, created_at, updated_at`

func scanExpense(scan func(dest ...any) error) (*Expense, error) {
	e := &Expense{}
	var date time.Time
	err := scan(&e.ID, &e.Department, &e.Amount, &date, &e.Description, &e.Purchaser,
		&e.Notes, &e.Status, &e.ReceiptURL, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Date = date.Format("2006-01-02")
	return e, nil
}

// CreateExpense inserts a new expense and returns the stored row.
func (s *Store) CreateExpense(ctx context.Context, in CreateExpenseInput, createdBy string) (*Expense, error) {
	id := "exp_" + uuid.NewString()

	e, err := scanExpense(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`INSERT INTO expenses (id, department, amount, date, description, purchaser, notes, status, receipt_url, created_by)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 RETURNING `+expenseColumns,
			id, in.Department, in.Amount, in.Date, in.Description, in.Purchaser, in.Notes, in.Status, in.ReceiptURL, createdBy,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("creating expense: %w", err)
	}
	return e, nil
}

// GetExpenseByID retrieves a single expense.
func (s *Store) GetExpenseByID(ctx context.Context, id string) (*Expense, error) {
	e, err := scanExpense(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id,
		).Scan(dest...)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListExpenses returns matching expenses ordered by date DESC along with the
// total count before limit/offset.
func (s *Store) ListExpenses(ctx context.Context, p ListParams) ([]*Expense, int, error) {
	p.Normalize()
	where, args := buildFilter(p)

	var total int
	countQuery := `SELECT COUNT(*) FROM expenses` + where
	if err := s.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting expenses: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT `+expenseColumns+` FROM expenses%s ORDER BY date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2,
	)
	args = append(args, p.Limit, p.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning expense row: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, total, rows.Err()
}

// UpdateExpense performs a partial update and returns the stored row.
func (s *Store) UpdateExpense(ctx context.Context, id string, in UpdateExpenseInput) (*Expense, error) {
	var setClauses []string
	var args []any
	argIdx := 1

	add := func(column string, value any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIdx))
		args = append(args, value)
		argIdx++
	}

	if in.Department != nil {
		add("department", *in.Department)
	}
	if in.Amount != nil {
		add("amount", *in.Amount)
	}
	if in.Date != nil {
		add("date", *in.Date)
	}
	if in.Description != nil {
		add("description", *in.Description)
	}
	if in.Purchaser != nil {
		add("purchaser", *in.Purchaser)
	}
	if in.Notes != nil {
		if *in.Notes == "" {
			add("notes", nil)
		} else {
			add("notes", *in.Notes)
		}
	}
	if in.Status != nil {
		add("status", *in.Status)
	}
	if in.ReceiptURL != nil {
		if *in.ReceiptURL == "" {
			add("receipt_url", nil)
		} else {
			add("receipt_url", *in.ReceiptURL)
		}
	}

	if len(setClauses) == 0 {
		return s.GetExpenseByID(ctx, id)
	}

	add("updated_at", time.Now().UTC())
	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE expenses SET %s WHERE id = $%d RETURNING `+expenseColumns,
		strings.Join(setClauses, ", "), argIdx,
	)

	e, err := scanExpense(func(dest ...any) error {
		return s.pool.QueryRow(ctx, query, args...).Scan(dest...)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteExpense removes an expense by id.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}
	return nil
}

const incomeColumns = `id, department, amount, date, description, contributor, notes, created_by, created_at`

func scanIncome(scan func(dest ...any) error) (*Income, error) {
	i := &Income{}
	var date time.Time
	err := scan(&i.ID, &i.Department, &i.Amount, &date, &i.Description, &i.Contributor, &i.Notes, &i.CreatedBy, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	i.Date = date.Format("2006-01-02")
	return i, nil
}

// CreateIncome inserts a new income record and returns the stored row.
func (s *Store) CreateIncome(ctx context.Context, in CreateIncomeInput, createdBy string) (*Income, error) {
	id := "inc_" + uuid.NewString()

	rec, err := scanIncome(func(dest ...any) error {
		return s.pool.QueryRow(ctx,
			`INSERT INTO income (id, department, amount, date, description, contributor, notes, created_by)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING `+incomeColumns,
			id, in.Department, in.Amount, in.Date, in.Description, in.Contributor, in.Notes, createdBy,
		).Scan(dest...)
	})
	if err != nil {
		return nil, fmt.Errorf("creating income: %w", err)
	}
	return rec, nil
}

// ListIncome returns matching income records ordered by date DESC along with
// the total count before limit/offset.
func (s *Store) ListIncome(ctx context.Context, p ListParams) ([]*Income, int, error) {
	p.Normalize()
	where, args := buildFilter(p)

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM income`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting income: %w", err)
	}

	query := fmt.Sprintf(
		`SELECT `+incomeColumns+` FROM income%s ORDER BY date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2,
	)
	args = append(args, p.Limit, p.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing income: %w", err)
	}
	defer rows.Close()

	var records []*Income
	for rows.Next() {
		rec, err := scanIncome(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning income row: %w", err)
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

// buildFilter assembles the shared WHERE clause for ledger listings.
func buildFilter(p ListParams) (string, []any) {
	var conds []string
	var args []any
	argIdx := 1

	if p.Department != "" {
		conds = append(conds, fmt.Sprintf("department = $%d", argIdx))
		args = append(args, p.Department)
		argIdx++
	}
	if p.StartDate != "" {
		conds = append(conds, fmt.Sprintf("date >= $%d", argIdx))
		args = append(args, p.StartDate)
		argIdx++
	}
	if p.EndDate != "" {
		conds = append(conds, fmt.Sprintf("date <= $%d", argIdx))
		args = append(args, p.EndDate)
		argIdx++
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
