package api

import (
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/chiragsdev/steward/internal/auth"
	"github.com/chiragsdev/steward/internal/department"
	"github.com/chiragsdev/steward/internal/user"
	"github.com/go-chi/chi/v5"
)

// usersHandler groups user management handlers. All routes are admin-only.
type usersHandler struct {
	users       *user.Store
	departments *department.Store
}

func newUsersHandler(users *user.Store, departments *department.Store) *usersHandler {
	return &usersHandler{users: users, departments: departments}
}

// List handles GET /api/v1/users.
func (h *usersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list users")
		return
	}

	payload := make([]map[string]any, 0, len(users))
	for _, u := range users {
		payload = append(payload, userPayload(u))
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"users": payload})
}

var errManagerNeedsDepartment = errors.New("department managers must be assigned a department")

// resolveRoleDepartment applies the role/department consistency rules for a
// user update: a manager always carries a department, an admin never does.
// It returns the department value to store (nil leaves the column unchanged,
// an empty string clears it) and the department name whose existence must be
// verified before the update runs ("" when no check is needed).
func resolveRoleDepartment(existingRole string, existingDept *string, reqRole, reqDept *string) (*string, string, error) {
	finalRole := existingRole
	if reqRole != nil {
		finalRole = *reqRole
	}

	if finalRole == auth.RoleManager {
		finalDept := ""
		if existingDept != nil {
			finalDept = *existingDept
		}
		if reqDept != nil {
			finalDept = *reqDept
		}
		if finalDept == "" {
			return nil, "", errManagerNeedsDepartment
		}
		return reqDept, finalDept, nil
	}

	// Admins hold no department. The assignment is cleared on promotion and
	// any department supplied alongside an admin role is discarded.
	if reqRole != nil || reqDept != nil {
		empty := ""
		return &empty, "", nil
	}
	return nil, "", nil
}

// Update handles PUT /api/v1/users/{id}.
func (h *usersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}

	var req struct {
		Email      *string `json:"email"`
		Password   *string `json:"password"`
		Name       *string `json:"name"`
		Role       *string `json:"role"`
		Department *string `json:"department"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", "a valid email address is required")
			return
		}
		taken, err := h.users.EmailTaken(r.Context(), email, id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to verify email")
			return
		}
		if taken {
			writeError(w, http.StatusConflict, "conflict", "an account with this email already exists")
			return
		}
		req.Email = &email
	}
	if req.Password != nil && len(*req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "validation_error", "password must be at least 8 characters")
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "name must not be empty")
		return
	}
	if req.Role != nil && !auth.ValidRole(*req.Role) {
		writeError(w, http.StatusBadRequest, "validation_error", "role must be admin or department_manager")
		return
	}

	dept, checkDept, err := resolveRoleDepartment(existing.Role, existing.Department, req.Role, req.Department)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if checkDept != "" {
		exists, err := h.departments.Exists(r.Context(), checkDept)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to verify department")
			return
		}
		if !exists {
			writeError(w, http.StatusBadRequest, "validation_error", "department does not exist")
			return
		}
	}

	updated, err := h.users.Update(r.Context(), id, user.UpdateUserInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Role:       req.Role,
		Department: dept,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update user")
		return
	}

	auditLog(r, "update", "user", id)
	writeSuccess(w, http.StatusOK, "user updated", map[string]any{"user": userPayload(updated)})
}

// Delete handles DELETE /api/v1/users/{id}.
func (h *usersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	actor := auth.UserFromContext(r.Context())
	if actor != nil && actor.ID == id {
		writeError(w, http.StatusBadRequest, "validation_error", "you cannot delete your own account")
		return
	}

	if _, err := h.users.GetByID(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "not_found", "user not found")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete user")
		return
	}

	auditLog(r, "delete", "user", id)
	writeSuccess(w, http.StatusOK, "user deleted", nil)
}
