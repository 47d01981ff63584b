package ledger

import (
	"errors"
	"time"
)

var (
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrInvalidDate       = errors.New("date must be a valid calendar date in YYYY-MM-DD format")
	ErrInvalidStatus     = errors.New("status must be one of Pending, Reimbursed, Not Required")
)

// ValidateAmount accepts any positive amount, however small.
func ValidateAmount(amount float64) error {
	if amount <= 0 {
		return ErrAmountNotPositive
	}
	return nil
}

// ValidateDate requires a strict YYYY-MM-DD calendar date. The parsed value
// must format back to the input so only the canonical zero-padded form is
// accepted.
func ValidateDate(date string) error {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ErrInvalidDate
	}
	if t.Format("2006-01-02") != date {
		return ErrInvalidDate
	}
	return nil
}

// ValidateStatus checks a reimbursement status against the allowed set.
func ValidateStatus(status string) error {
	switch status {
	case StatusPending, StatusReimbursed, StatusNotRequired:
		return nil
	}
	return ErrInvalidStatus
}
