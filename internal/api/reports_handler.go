package api

import (
	"net/http"
	"time"

	"github.com/chiragsdev/steward/internal/auth"
	"github.com/chiragsdev/steward/internal/ledger"
	"github.com/chiragsdev/steward/internal/report"
)

// reportsHandler serves per-department financial summaries.
type reportsHandler struct {
	reports *report.Store
}

func newReportsHandler(reports *report.Store) *reportsHandler {
	return &reportsHandler{reports: reports}
}

// windowFromRequest parses filters and forces manager scoping, mirroring the
// ledger listings.
func windowFromRequest(r *http.Request) (report.Window, error) {
	q := r.URL.Query()
	w := report.Window{
		Department: q.Get("department"),
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
	}

	if w.StartDate != "" {
		if err := ledger.ValidateDate(w.StartDate); err != nil {
			return w, err
		}
	}
	if w.EndDate != "" {
		if err := ledger.ValidateDate(w.EndDate); err != nil {
			return w, err
		}
	}

	u := auth.UserFromContext(r.Context())
	if u != nil && !u.IsAdmin() {
		w.Department = u.Department
	}
	return w, nil
}

func (h *reportsHandler) summaries(w http.ResponseWriter, r *http.Request) ([]report.Summary, bool) {
	window, err := windowFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
		return nil, false
	}

	expenses, err := h.reports.ExpenseTotals(r.Context(), window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to aggregate expenses")
		return nil, false
	}
	income, err := h.reports.IncomeTotals(r.Context(), window)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to aggregate income")
		return nil, false
	}
	return report.Combine(expenses, income), true
}

// Summary handles GET /api/v1/reports/summary.
func (h *reportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summaries, ok := h.summaries(w, r)
	if !ok {
		return
	}
	writeSuccess(w, http.StatusOK, "", map[string]any{
		"summaries": summaries,
		"totals":    report.Totals(summaries),
	})
}

// SummaryCSV handles GET /api/v1/reports/summary.csv.
func (h *reportsHandler) SummaryCSV(w http.ResponseWriter, r *http.Request) {
	summaries, ok := h.summaries(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="summary.csv"`)
	if err := report.WriteCSV(w, summaries); err != nil {
		// Headers are already sent; nothing sensible left to do but log.
		auditLog(r, "error", "report", "summary.csv", "error", err.Error())
	}
}

// SummaryPDF handles GET /api/v1/reports/summary.pdf.
func (h *reportsHandler) SummaryPDF(w http.ResponseWriter, r *http.Request) {
	summaries, ok := h.summaries(w, r)
	if !ok {
		return
	}

	data, err := report.BuildPDF(summaries, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to render PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="summary.pdf"`)
	_, _ = w.Write(data)
}
