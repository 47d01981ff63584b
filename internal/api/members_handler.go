package api

import (
	"errors"
	"net/http"

	"github.com/chiragsdev/steward/internal/member"
)

// membersHandler groups church member roster handlers.
type membersHandler struct {
	members *member.Store
}

func newMembersHandler(members *member.Store) *membersHandler {
	return &membersHandler{members: members}
}

// List handles GET /api/v1/members. An optional ?search= filters by
// substring match; total reports the full roster size regardless of the
// filter.
func (h *membersHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.members.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list members")
		return
	}
	if names == nil {
		names = []string{}
	}
	total, err := h.members.Count(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to count members")
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{"members": names, "total": total})
}

// Upload handles POST /api/v1/members/upload. The uploaded CSV replaces the
// entire roster.
func (h *membersHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxBodySize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "expected a multipart form with a file field")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", "a CSV file is required in the file field")
		return
	}
	defer file.Close()

	names, err := member.ParseCSV(file)
	if err != nil {
		if errors.Is(err, member.ErrNoNames) {
			writeError(w, http.StatusBadRequest, "validation_error", "no member names found in file")
			return
		}
		writeError(w, http.StatusBadRequest, "validation_error", "failed to parse CSV file")
		return
	}

	count, err := h.members.Replace(r.Context(), names)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to save member roster")
		return
	}

	auditLog(r, "replace", "members", "", "count", count)
	writeSuccess(w, http.StatusOK, "member roster updated", map[string]any{"imported": count})
}
