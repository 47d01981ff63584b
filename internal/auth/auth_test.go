package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

// --- mock session lookup ---

type mockSessions struct {
	users map[string]*User // keyed by plaintext token
}

func (m *mockSessions) LookupSession(_ context.Context, token string) (*User, error) {
	u, ok := m.users[token]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

// --- token tests ---

func TestGenerateToken_Format(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	// 32 random bytes hex-encoded.
	if len(token) != 64 {
		t.Errorf("expected 64-char token, got %d chars", len(token))
	}
	for _, c := range token {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Errorf("non-hex character %c in token %q", c, token)
			break
		}
	}
}

func TestGenerateToken_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		token, err := GenerateToken()
		if err != nil {
			t.Fatal(err)
		}
		if _, dup := seen[token]; dup {
			t.Fatalf("duplicate token generated: %s", token)
		}
		seen[token] = struct{}{}
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	a := HashToken("some-token")
	b := HashToken("some-token")
	if a != b {
		t.Error("hashing the same token twice should produce the same hash")
	}
	if a == HashToken("other-token") {
		t.Error("different tokens should not collide")
	}
	if len(a) != 64 {
		t.Errorf("expected 64-char sha256 hex, got %d chars", len(a))
	}
	if a == "some-token" {
		t.Error("hash should not equal the plaintext")
	}
}

// --- role and access tests ---

func TestCanAccessDepartment(t *testing.T) {
	admin := &User{ID: "user_1", Role: RoleAdmin}
	manager := &User{ID: "user_2", Role: RoleManager, Department: "Youth"}

	tests := []struct {
		name       string
		user       *User
		department string
		want       bool
	}{
		{"admin any department", admin, "Youth", true},
		{"admin another department", admin, "Music", true},
		{"manager own department", manager, "Youth", true},
		{"manager other department", manager, "Music", false},
		{"manager empty department", manager, "", false},
		{"manager with no assignment", &User{Role: RoleManager}, "Youth", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.CanAccessDepartment(tt.department); got != tt.want {
				t.Errorf("CanAccessDepartment(%q) = %v, want %v", tt.department, got, tt.want)
			}
		})
	}
}

func TestValidRole(t *testing.T) {
	if !ValidRole("admin") || !ValidRole("department_manager") {
		t.Error("expected admin and department_manager to be valid roles")
	}
	if ValidRole("superuser") || ValidRole("") {
		t.Error("expected unknown roles to be invalid")
	}
}

// --- middleware tests ---

func newAuthedRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestRequireUser_ValidToken(t *testing.T) {
	sessions := &mockSessions{users: map[string]*User{
		"good-token": {ID: "user_1", Email: "m@example.com", Role: RoleManager, Department: "Youth"},
	}}

	var got *User
	handler := RequireUser(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newAuthedRequest("good-token"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got == nil || got.ID != "user_1" || got.Department != "Youth" {
		t.Errorf("unexpected user in context: %+v", got)
	}
}

func TestRequireUser_MissingToken(t *testing.T) {
	handler := RequireUser(&mockSessions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called without a token")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newAuthedRequest(""))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	var envelope errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if envelope.Success {
		t.Error("expected success=false")
	}
	if envelope.Code != "unauthenticated" {
		t.Errorf("expected code=unauthenticated, got %q", envelope.Code)
	}
}

func TestRequireUser_UnknownToken(t *testing.T) {
	handler := RequireUser(&mockSessions{users: map[string]*User{}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called for an unknown token")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newAuthedRequest("expired-or-bogus"))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRequireAdmin_ManagerForbidden(t *testing.T) {
	sessions := &mockSessions{users: map[string]*User{
		"mgr-token":   {ID: "user_2", Role: RoleManager, Department: "Youth"},
		"admin-token": {ID: "user_1", Role: RoleAdmin},
	}}

	handler := RequireAdmin(sessions)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newAuthedRequest("mgr-token"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for manager, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, newAuthedRequest("admin-token"))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d", rec.Code)
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name string
		auth string
		want string
	}{
		{"valid bearer", "Bearer my-token-123", "my-token-123"},
		{"empty header", "", ""},
		{"just Bearer", "Bearer ", ""},
		{"no space", "Bearertoken", ""},
		{"wrong scheme", "Basic abc123", ""},
		{"case-insensitive scheme", "bearer abc", "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			if got := ExtractBearerToken(req); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserFromContext_Empty(t *testing.T) {
	if u := UserFromContext(context.Background()); u != nil {
		t.Errorf("expected nil user from bare context, got %+v", u)
	}
}
