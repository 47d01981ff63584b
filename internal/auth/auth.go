package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Roles assignable to a user account.
const (
	RoleAdmin   = "admin"
	RoleManager = "department_manager"
)

// ValidRole reports whether role is one of the recognised roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleManager
}

// User is the authenticated identity attached to a request.
type User struct {
	ID         string
	Email      string
	Name       string
	Role       string // "admin" or "department_manager"
	Department string // empty for admins; the assigned department name for managers
}

// IsAdmin returns true if the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanAccessDepartment returns true if the user may read or write records
// belonging to the given department. Admins have access to every department;
// managers only to their own.
func (u *User) CanAccessDepartment(department string) bool {
	if u.IsAdmin() {
		return true
	}
	return u.Department != "" && u.Department == department
}

// SessionLookup is the interface for resolving session tokens to users.
type SessionLookup interface {
	LookupSession(ctx context.Context, token string) (*User, error)
}

// GenerateToken creates a new opaque session token: 32 random bytes,
// hex-encoded (64 characters). The plaintext is sent to the client; only its
// hash is stored.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashToken returns the hex-encoded SHA-256 hash of a plaintext session token.
func HashToken(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}
