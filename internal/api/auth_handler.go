package api

import (
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/chiragsdev/steward/internal/auth"
	"github.com/chiragsdev/steward/internal/department"
	"github.com/chiragsdev/steward/internal/metrics"
	"github.com/chiragsdev/steward/internal/ratelimit"
	"github.com/chiragsdev/steward/internal/user"
)

const minPasswordLength = 8

// authHandler groups authentication HTTP handlers.
type authHandler struct {
	users       *user.Store
	departments *department.Store
	limiter     *ratelimit.Limiter
	metrics     *metrics.Metrics
}

func newAuthHandler(users *user.Store, departments *department.Store, limiter *ratelimit.Limiter, m *metrics.Metrics) *authHandler {
	return &authHandler{users: users, departments: departments, limiter: limiter, metrics: m}
}

// userPayload is the user shape returned to clients.
func userPayload(u *user.User) map[string]any {
	var dept any
	if u.Department != nil {
		dept = *u.Department
	}
	return map[string]any{
		"id":         u.ID,
		"email":      u.Email,
		"name":       u.Name,
		"role":       u.Role,
		"department": dept,
		"created_at": u.CreatedAt,
	}
}

// Login handles POST /api/v1/auth/login.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow(clientIP(r)) {
		h.metrics.IncRateLimitRejection()
		w.Header().Set("Retry-After", strconv.Itoa(h.limiter.RetryAfter(clientIP(r))))
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many login attempts, try again later")
		return
	}

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "email and password are required")
		return
	}

	// Lookup and password failures share one message so the response does
	// not reveal whether the account exists.
	u, err := h.users.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		h.metrics.IncAuthFailure()
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
		return
	}
	if !user.CheckPassword(u, req.Password) {
		h.metrics.IncAuthFailure()
		writeError(w, http.StatusUnauthorized, "unauthorized", "invalid email or password")
		return
	}

	token, sess, err := h.users.CreateSession(r.Context(), u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create session")
		return
	}

	h.metrics.IncAuthSuccess()
	auditLog(r, "login", "session", u.ID)
	writeSuccess(w, http.StatusOK, "login successful", map[string]any{
		"token":      token,
		"expires_at": sess.ExpiresAt,
		"user":       userPayload(u),
	})
}

// Signup handles POST /api/v1/auth/signup. The very first account is created
// without authentication and is always an admin; every later signup must be
// performed by an authenticated admin.
func (h *authHandler) Signup(w http.ResponseWriter, r *http.Request) {
	count, err := h.users.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to check existing users")
		return
	}
	bootstrap := count == 0

	if !bootstrap {
		token := auth.ExtractBearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
			return
		}
		actor, err := h.users.GetSessionUser(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired session")
			return
		}
		if actor.Role != auth.RoleAdmin {
			writeError(w, http.StatusForbidden, "forbidden", "only admins can create accounts")
			return
		}
	}

	var req struct {
		Email      string `json:"email"`
		Password   string `json:"password"`
		Name       string `json:"name"`
		Role       string `json:"role"`
		Department string `json:"department"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "a valid email address is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "validation_error", "password must be at least 8 characters")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "name is required")
		return
	}

	if bootstrap {
		// The founding account always administers the system.
		req.Role = auth.RoleAdmin
		req.Department = ""
	}
	if req.Role == "" {
		req.Role = auth.RoleManager
	}
	if !auth.ValidRole(req.Role) {
		writeError(w, http.StatusBadRequest, "validation_error", "role must be admin or department_manager")
		return
	}

	var dept *string
	if req.Role == auth.RoleManager {
		if req.Department == "" {
			writeError(w, http.StatusBadRequest, "validation_error", "department managers must be assigned a department")
			return
		}
		exists, err := h.departments.Exists(r.Context(), req.Department)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to verify department")
			return
		}
		if !exists {
			writeError(w, http.StatusBadRequest, "validation_error", "department does not exist")
			return
		}
		dept = &req.Department
	}

	if existing, err := h.users.GetByEmail(r.Context(), req.Email); err == nil && existing != nil {
		writeError(w, http.StatusConflict, "conflict", "an account with this email already exists")
		return
	}

	u, err := h.users.Create(r.Context(), user.CreateUserInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Role:       req.Role,
		Department: dept,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create account")
		return
	}

	auditLog(r, "signup", "user", u.ID, "bootstrap", bootstrap)
	writeSuccess(w, http.StatusCreated, "account created", map[string]any{"user": userPayload(u)})
}

// Logout handles POST /api/v1/auth/logout. Logging out with a missing or
// unknown token still succeeds.
func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := auth.ExtractBearerToken(r); token != "" {
		_ = h.users.DeleteSession(r.Context(), token)
	}
	writeSuccess(w, http.StatusOK, "logged out", nil)
}

// Verify handles GET /api/v1/auth/verify. It runs behind the session
// middleware, so reaching it means the token is valid.
func (h *authHandler) Verify(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "not authenticated")
		return
	}

	var dept any
	if u.Department != "" {
		dept = u.Department
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{
		"user": map[string]any{
			"id":         u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"role":       u.Role,
			"department": dept,
		},
	})
}
