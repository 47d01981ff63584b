package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/chiragsdev/steward/internal/auth"
	"github.com/chiragsdev/steward/internal/department"
	"github.com/chiragsdev/steward/internal/ledger"
	"github.com/chiragsdev/steward/internal/receipt"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
)

// expensesHandler groups expense CRUD handlers.
type expensesHandler struct {
	ledger      *ledger.Store
	departments *department.Store
	receipts    *receipt.Storage
}

func newExpensesHandler(l *ledger.Store, d *department.Store, rs *receipt.Storage) *expensesHandler {
	return &expensesHandler{ledger: l, departments: d, receipts: rs}
}

// listParamsFromRequest parses the shared ledger listing query parameters.
// Department scoping is forced server-side for managers regardless of what
// the query string asks for.
func listParamsFromRequest(r *http.Request) (ledger.ListParams, error) {
	q := r.URL.Query()
	p := ledger.ListParams{
		Department: q.Get("department"),
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, errors.New("limit must be an integer")
		}
		p.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, errors.New("offset must be an integer")
		}
		p.Offset = n
	}

	if p.StartDate != "" {
		if err := ledger.ValidateDate(p.StartDate); err != nil {
			return p, err
		}
	}
	if p.EndDate != "" {
		if err := ledger.ValidateDate(p.EndDate); err != nil {
			return p, err
		}
	}

	u := auth.UserFromContext(r.Context())
	if u != nil && !u.IsAdmin() {
		p.Department = u.Department
	}
	return p, nil
}

// List handles GET /api/v1/expenses.
func (h *expensesHandler) List(w http.ResponseWriter, r *http.Request) {
	params, err := listParamsFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	expenses, total, err := h.ledger.ListExpenses(r.Context(), params)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to list expenses")
		return
	}
	if expenses == nil {
		expenses = []*ledger.Expense{}
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{
		"expenses": expenses,
		"total":    total,
	})
}

// checkDepartmentAccess writes a 403 and returns false when the caller
// cannot record entries for the given department.
func (h *expensesHandler) checkDepartmentAccess(w http.ResponseWriter, r *http.Request, dept string) bool {
	u := auth.UserFromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return false
	}
	if !u.CanAccessDepartment(dept) {
		writeError(w, http.StatusForbidden, "forbidden", "you cannot record entries for this department")
		return false
	}
	return true
}

// Create handles POST /api/v1/expenses.
func (h *expensesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ledger.CreateExpenseInput
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
	if strings.TrimSpace(req.Purchaser) == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "purchaser is required")
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
	if req.Status == "" {
		req.Status = ledger.StatusNotRequired
	}
	if err := ledger.ValidateStatus(req.Status); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if !h.checkDepartmentAccess(w, r, req.Department) {
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

	u := auth.UserFromContext(r.Context())
	e, err := h.ledger.CreateExpense(r.Context(), req, u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to create expense")
		return
	}

	auditLog(r, "create", "expense", e.ID, "department", e.Department, "amount", e.Amount)
	writeSuccess(w, http.StatusCreated, "expense recorded", map[string]any{"expense": e})
}

// Update handles PUT /api/v1/expenses/{id}.
func (h *expensesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.ledger.GetExpenseByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "not_found", "expense not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load expense")
		return
	}

	if !h.checkDepartmentAccess(w, r, existing.Department) {
		return
	}

	var req ledger.UpdateExpenseInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "failed to parse request body")
		return
	}

	if req.Amount != nil {
		if err := ledger.ValidateAmount(*req.Amount); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
	}
	if req.Date != nil {
		if err := ledger.ValidateDate(*req.Date); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
	}
	if req.Status != nil {
		if err := ledger.ValidateStatus(*req.Status); err != nil {
			writeError(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "description cannot be empty")
		return
	}
	if req.Purchaser != nil && strings.TrimSpace(*req.Purchaser) == "" {
		writeError(w, http.StatusBadRequest, "validation_error", "purchaser cannot be empty")
		return
	}
	if req.Department != nil {
		if !h.checkDepartmentAccess(w, r, *req.Department) {
			return
		}
		exists, err := h.departments.Exists(r.Context(), *req.Department)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to verify department")
			return
		}
		if !exists {
			writeError(w, http.StatusBadRequest, "validation_error", "department does not exist")
			return
		}
	}

	e, err := h.ledger.UpdateExpense(r.Context(), id, req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update expense")
		return
	}

	auditLog(r, "update", "expense", id)
	writeSuccess(w, http.StatusOK, "expense updated", map[string]any{"expense": e})
}

// Delete handles DELETE /api/v1/expenses/{id}. The receipt file, if any, is
// removed best-effort after the row is gone.
func (h *expensesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	existing, err := h.ledger.GetExpenseByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "not_found", "expense not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load expense")
		return
	}

	if !h.checkDepartmentAccess(w, r, existing.Department) {
		return
	}

	if err := h.ledger.DeleteExpense(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to delete expense")
		return
	}

	if existing.ReceiptURL != nil {
		_ = h.receipts.Remove(*existing.ReceiptURL)
	}

	auditLog(r, "delete", "expense", id)
	writeSuccess(w, http.StatusOK, "expense deleted", nil)
}
