package user

import (
	"context"

	"github.com/chiragsdev/steward/internal/auth"
)

// AuthAdapter exposes the session store through the auth.SessionLookup
// interface consumed by the HTTP middleware.
type AuthAdapter struct {
	store *Store
}

func NewAuthAdapter(store *Store) *AuthAdapter {
	return &AuthAdapter{store: store}
}

func (a *AuthAdapter) LookupSession(ctx context.Context, token string) (*auth.User, error) {
	u, err := a.store.GetSessionUser(ctx, token)
	if err != nil {
		return nil, err
	}
	dept := ""
	if u.Department != nil {
		dept = *u.Department
	}
	return &auth.User{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Role:       u.Role,
		Department: dept,
	}, nil
}
