package api

import (
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/chiragsdev/steward/internal/department"
	"github.com/chiragsdev/steward/internal/user"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
)

// departmentParam returns the decoded {name} path parameter. Department
// names may contain spaces, which arrive percent-encoded.
func departmentParam(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if decoded, err := url.PathUnescape(name); err == nil {
		return decoded
	}
	return name
}

// departmentsHandler groups department management handlers.
type departmentsHandler struct {
	departments *department.Store
	users       *user.Store
}

func newDepartmentsHandler(departments *department.Store, users *user.Store) *departmentsHandler {
	return &departmentsHandler{departments: departments, users: users}
}

// List handles GET /api/v1/departments. Admins may pass
// ?include_archived=true to see archived departments too.
func (h *departmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	deps, err := h.departments.List(r.Context(), includeArchived)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list departments")
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"departments": deps})
}

// Create handles POST /api/v1/departments. Re-adding an archived department
// unarchives it rather than creating a duplicate.
func (h *departmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	name, err := department.ValidateName(req.Name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	d, err := h.departments.Create(r.Context(), name)
	if err != nil {
		if errors.Is(err, department.ErrDuplicateName) {
			writeError(w, http.StatusConflict, "conflict", "a department with this name already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create department")
		return
	}

	auditLog(r, "create", "department", d.Name)
	writeSuccess(w, http.StatusCreated, "department created", map[string]any{"department": d})
}

// Archive handles PUT /api/v1/departments/{name}/archive. The body may carry
// {"archived": false} to restore an archived department; the default is to
// archive. A department with assigned users cannot be archived.
func (h *departmentsHandler) Archive(w http.ResponseWriter, r *http.Request) {
	name := departmentParam(r)

	// An empty body means archive; chunked requests report no ContentLength
	// so the body is always read.
	archived := true
	var req struct {
		Archived *bool `json:"archived"`
	}
	if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}
	if req.Archived != nil {
		archived = *req.Archived
	}

	if archived && !h.requireUnassigned(w, r, name, "archive") {
		return
	}

	d, err := h.departments.SetArchived(r.Context(), name, archived)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "not_found", "department not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update department")
		return
	}

	msg := "department archived"
	action := "archive"
	if !archived {
		msg = "department restored"
		action = "unarchive"
	}
	auditLog(r, action, "department", name)
	writeSuccess(w, http.StatusOK, msg, map[string]any{"department": d})
}

// Delete handles DELETE /api/v1/departments/{name}. Like archiving, deletion
// is refused while users are still assigned.
func (h *departmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := departmentParam(r)

	if !h.requireUnassigned(w, r, name, "delete") {
		return
	}

	if err := h.departments.DeleteByName(r.Context(), name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "not_found", "department not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete department")
		return
	}

	auditLog(r, "delete", "department", name)
	writeSuccess(w, http.StatusOK, "department deleted", nil)
}

// requireUnassigned writes a 409 carrying the assigned-user count and returns
// false when users are still assigned to the department.
func (h *departmentsHandler) requireUnassigned(w http.ResponseWriter, r *http.Request, name, action string) bool {
	count, err := h.users.CountByDepartment(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to check assigned users")
		return false
	}
	if count > 0 {
		writeErrorData(w, http.StatusConflict, "conflict",
			"cannot "+action+" a department with assigned users",
			map[string]any{"assigned_users": count})
		return false
	}
	return true
}
