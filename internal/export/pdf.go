package export

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"moneygrowth/internal/core"
)

// WriteMonthReportPDF renders a one-page monthly report: the totals,
// the per-category breakdown with its pie chart, and the transaction
// list.
func WriteMonthReportPDF(w io.Writer, ov core.MonthOverview, transactions []core.Transaction) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("MoneyGrowth monthly report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, fmt.Sprintf("MoneyGrowth report %04d-%02d", ov.Year, ov.Month))
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 11)
	totals := []struct {
		label string
		cents int64
	}{
		{"Income", ov.Income.Cents},
		{"Expenses", ov.Expenses.Cents},
		{"Savings", ov.Savings.Cents},
		{"Balance", ov.Balance.Cents},
	}
	for _, row := range totals {
		pdf.CellFormat(40, 7, row.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, core.FormatCents(row.cents), "", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	if len(ov.ByCategory) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 8, "Spending by category")
		pdf.Ln(9)
		pdf.SetFont("Helvetica", "", 10)
		for _, c := range ov.ByCategory {
			pdf.CellFormat(60, 6, c.Name, "", 0, "L", false, 0, "")
			pdf.CellFormat(30, 6, core.FormatCents(c.Amount.Cents), "", 1, "R", false, 0, "")
		}
		pdf.Ln(6)

		// Chart failures degrade to a text-only report.
		if png, err := RenderCategoryPie(ov); err == nil && len(png) > 0 {
			opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
			pdf.RegisterImageOptionsReader("category-pie", opts, bytes.NewReader(png))
			pdf.ImageOptions("category-pie", 10, pdf.GetY(), 120, 0, false, opts, 0, "")
			pdf.Ln(66)
		}
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Transactions")
	pdf.Ln(9)

	pdf.SetFont("Helvetica", "B", 9)
	headers := []struct {
		label string
		width float64
	}{
		{"Date", 24}, {"Type", 20}, {"Description", 80}, {"Category", 36}, {"Amount", 25},
	}
	for _, h := range headers {
		pdf.CellFormat(h.width, 6, h.label, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(7)

	pdf.SetFont("Helvetica", "", 9)
	for _, t := range transactions {
		pdf.CellFormat(24, 6, t.Date.Format("2006-01-02"), "", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, string(t.Type), "", 0, "L", false, 0, "")
		pdf.CellFormat(80, 6, truncate(t.Description, 48), "", 0, "L", false, 0, "")
		pdf.CellFormat(36, 6, t.Category, "", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, core.FormatCents(t.Amount.Cents), "", 1, "R", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
