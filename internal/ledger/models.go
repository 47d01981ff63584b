// Package ledger holds the expense and income records booked against
// departments, along with their validation rules.
package ledger

import "time"

// Reimbursement statuses for expenses.
const (
	StatusPending     = "Pending"
	StatusReimbursed  = "Reimbursed"
	StatusNotRequired = "Not Required"
)

// Expense is money spent by a department.
type Expense struct {
	ID          string    `json:"id"`
	Department  string    `json:"department"`
	Amount      float64   `json:"amount"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Purchaser   string    `json:"purchaser"`
	Notes       *string   `json:"notes,omitempty"`
	Status      string    `json:"status"`
	ReceiptURL  *string   `json:"receipt_url,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Income is money received by a department.
type Income struct {
	ID          string    `json:"id"`
	Department  string    `json:"department"`
	Amount      float64   `json:"amount"`
	Date        string    `json:"date"`
	Description string    `json:"description"`
	Contributor string    `json:"contributor"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateExpenseInput carries the fields accepted when adding an expense.
type CreateExpenseInput struct {
	Department  string  `json:"department"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Purchaser   string  `json:"purchaser"`
	Notes       *string `json:"notes"`
	Status      string  `json:"status"`
	ReceiptURL  *string `json:"receipt_url"`
}

// UpdateExpenseInput carries the fields accepted when editing an expense.
// Nil fields are left unchanged.
type UpdateExpenseInput struct {
	Department  *string  `json:"department"`
	Amount      *float64 `json:"amount"`
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
	Purchaser   *string  `json:"purchaser"`
	Notes       *string  `json:"notes"`
	Status      *string  `json:"status"`
	ReceiptURL  *string  `json:"receipt_url"`
}

// CreateIncomeInput carries the fields accepted when adding income.
type CreateIncomeInput struct {
	Department  string  `json:"department"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Contributor string  `json:"contributor"`
	Notes       *string `json:"notes"`
}

// ListParams filters ledger listings. Department is forced server-side for
// department managers.
type ListParams struct {
	Department string
	StartDate  string
	EndDate    string
	Limit      int
	Offset     int
}

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// Normalize applies listing defaults and bounds.
func (p *ListParams) Normalize() {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}
