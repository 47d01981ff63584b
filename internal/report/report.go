// Package report aggregates ledger totals per department and renders them as
// JSON, CSV, or PDF.
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf/v2"
)

// Summary holds the totals for one department over the reporting window.
type Summary struct {
	Department   string  `json:"department"`
	ExpenseTotal float64 `json:"expense_total"`
	IncomeTotal  float64 `json:"income_total"`
	Net          float64 `json:"net"`
}

// Combine merges per-department expense and income totals into sorted
// summary rows. Departments present in either map appear in the result.
func Combine(expenses, income map[string]float64) []Summary {
	names := make(map[string]bool)
	for name := range expenses {
		names[name] = true
	}
	for name := range income {
		names[name] = true
	}

	summaries := make([]Summary, 0, len(names))
	for name := range names {
		exp := expenses[name]
		inc := income[name]
		summaries = append(summaries, Summary{
			Department:   name,
			ExpenseTotal: exp,
			IncomeTotal:  inc,
			Net:          inc - exp,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Department < summaries[j].Department
	})
	return summaries
}

// Totals sums the summary columns across all departments.
func Totals(summaries []Summary) Summary {
	total := Summary{Department: "Total"}
	for _, s := range summaries {
		total.ExpenseTotal += s.ExpenseTotal
		total.IncomeTotal += s.IncomeTotal
	}
	total.Net = total.IncomeTotal - total.ExpenseTotal
	return total
}

// WriteCSV renders summary rows as CSV with a header and a totals row.
func WriteCSV(w io.Writer, summaries []Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Department", "Expenses", "Income", "Net"}); err != nil {
		return err
	}
	for _, s := range summaries {
		record := []string{
			s.Department,
			strconv.FormatFloat(s.ExpenseTotal, 'f', 2, 64),
			strconv.FormatFloat(s.IncomeTotal, 'f', 2, 64),
			strconv.FormatFloat(s.Net, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	total := Totals(summaries)
	if err := cw.Write([]string{
		total.Department,
		strconv.FormatFloat(total.ExpenseTotal, 'f', 2, 64),
		strconv.FormatFloat(total.IncomeTotal, 'f', 2, 64),
		strconv.FormatFloat(total.Net, 'f', 2, 64),
	}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// BuildPDF renders summary rows as a one-page financial summary PDF.
func BuildPDF(summaries []Summary, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(190, 10, "Department Financial Summary", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(190, 6, fmt.Sprintf("Generated: %s", generatedAt.Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(200, 200, 200)
	pdf.CellFormat(70, 7, "Department", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 7, "Expenses", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 7, "Income", "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 7, "Net", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, s := range summaries {
		name := s.Department
		if len(name) > 36 {
			name = name[:33] + "..."
		}
		pdf.CellFormat(70, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", s.ExpenseTotal), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", s.IncomeTotal), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", s.Net), "1", 1, "R", false, 0, "")
	}

	total := Totals(summaries)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(70, 7, total.Department, "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", total.ExpenseTotal), "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", total.IncomeTotal), "1", 0, "R", true, 0, "")
	pdf.CellFormat(40, 7, fmt.Sprintf("%.2f", total.Net), "1", 1, "R", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering summary pdf: %w", err)
	}
	return buf.Bytes(), nil
}
