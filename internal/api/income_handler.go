package api

import (
	"net/http"
	"strings"

	"github.com/chiragsdev/steward/internal/auth"
	"github.com/chiragsdev/steward/internal/department"
	"github.com/chiragsdev/steward/internal/ledger"
)

// incomeHandler groups income handlers. Income records are append-only.
type incomeHandler struct {
	ledger      *ledger.Store
	departments *department.Store
}

func newIncomeHandler(l *ledger.Store, d *department.Store) *incomeHandler {
	return &incomeHandler{ledger: l, departments: d}
}

// List handles GET /api/v1/income.
func (h *incomeHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := listParamsFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	records, total, err := h.ledger.ListIncome(r.Context(), params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list income")
		return
	}
	if records == nil {
		records = []*ledger.Income{}
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{
		"income": records,
		"total":  total,
	})
}

// Create handles POST /api/v1/income.
func (h *incomeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ledger.CreateIncomeInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	if req.Department == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "department is required")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "description is required")
		return
	}
	if strings.TrimSpace(req.Contributor) == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "contributor is required")
		return
	}
	if err := ledger.ValidateAmount(req.Amount); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	if err := ledger.ValidateDate(req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}
	if !u.CanAccessDepartment(req.Department) {
		writeError(w, http.StatusForbidden, "forbidden", "you cannot record entries for this department")
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

	rec, err := h.ledger.CreateIncome(r.Context(), req, u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to record income")
		return
	}

	auditLog(r, "create", "income", rec.ID, "department", rec.Department, "amount", rec.Amount)
	writeSuccess(w, http.StatusCreated, "income recorded", map[string]any{"income": rec})
}
