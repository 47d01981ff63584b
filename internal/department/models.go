package department

import (
	"errors"
	"strings"
	"time"
)

// Department is a church department that expenses and income are booked
// against. Departments are soft-deleted by archiving so historical ledger
// rows keep a valid reference.
type Department struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const maxNameLength = 100

var (
	ErrNameEmpty   = errors.New("department name must not be empty")
	ErrNameTooLong = errors.New("department name must be 100 characters or fewer")
)

// ValidateName trims and validates a department name, returning the
// canonical form to store.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameEmpty
	}
	if len(name) > maxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}
