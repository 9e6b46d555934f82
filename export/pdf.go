package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type pdfWriter struct {
	pdf      *fpdf.Fpdf
	tr       func(string) string
	contentW float64
}

// WritePDF renders the report on A4 portrait pages.
func WritePDF(w io.Writer, r *services.Report) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 5, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	pw := &pdfWriter{pdf: pdf, tr: tr, contentW: pageW - 30}

	// Header
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(pw.contentW, 9, tr("Sales Report ("+capitalize(r.PeriodLabel)+")"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(pw.contentW, 6, dateRange(r), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pw.section("Summary")
	pw.table([]string{"Metric", "Value"}, []float64{0.6, 0.4}, [][]string{
		{"Total revenue", utils.FormatCurrency(r.TotalRevenue)},
		{"Total expense", utils.FormatCurrency(r.TotalExpense)},
		{"Net profit", utils.FormatCurrency(r.NetProfit)},
		{"Orders", fmt.Sprint(r.OrderCount)},
		{"Average order value", utils.FormatCurrency(r.AverageOrderValue)},
		{"Profit margin", "%" + r.ProfitMargin.StringFixed(2)},
		{"Cancelled orders", fmt.Sprint(r.CancelledCount)},
		{"Cancellation rate", "%" + r.CancellationRate.StringFixed(2)},
	})

	rows := make([][]string, 0, len(r.TopProducts))
	for i, p := range r.TopProducts {
		rows = append(rows, []string{fmt.Sprint(i + 1), p.Name, fmt.Sprint(p.Quantity), utils.FormatCurrency(p.Revenue)})
	}
	pw.section("Top products")
	pw.table([]string{"#", "Product", "Quantity", "Revenue"}, []float64{0.08, 0.52, 0.15, 0.25}, rows)

	rows = rows[:0]
	for _, e := range r.ExpenseBreakdown {
		rows = append(rows, []string{e.Category, utils.FormatCurrency(e.Amount), "%" + e.Share.StringFixed(2)})
	}
	pw.section("Expenses by category")
	pw.table([]string{"Category", "Amount", "Share"}, []float64{0.5, 0.3, 0.2}, rows)

	rows = rows[:0]
	for _, s := range r.TopStaff {
		rows = append(rows, []string{s.Name, fmt.Sprint(s.OrderCount), utils.FormatCurrency(s.Revenue)})
	}
	pw.section("Staff performance")
	pw.table([]string{"Staff", "Orders", "Revenue"}, []float64{0.5, 0.2, 0.3}, rows)

	rows = rows[:0]
	for _, c := range r.CategorySales {
		rows = append(rows, []string{c.Category, fmt.Sprint(c.Quantity), utils.FormatCurrency(c.Revenue)})
	}
	pw.section("Category sales")
	pw.table([]string{"Category", "Quantity", "Revenue"}, []float64{0.5, 0.2, 0.3}, rows)

	pw.section("Peak day")
	pdf.SetFont("Helvetica", "", 9)
	if r.PeakDay != nil {
		pdf.CellFormat(pw.contentW, 6, tr(r.PeakDay.Label+": "+utils.FormatCurrency(r.PeakDay.Amount)), "", 1, "L", false, 0, "")
	} else {
		pdf.CellFormat(pw.contentW, 6, "No sales in this period", "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	rows = rows[:0]
	for _, m := range r.PaymentMethods {
		rows = append(rows, []string{m.Name, fmt.Sprint(m.Count), utils.FormatCurrency(m.Amount), "%" + m.Share.StringFixed(2)})
	}
	pw.section("Payment methods")
	pw.table([]string{"Method", "Count", "Amount", "Share"}, []float64{0.4, 0.15, 0.28, 0.17}, rows)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("pdf: write: %w", err)
	}
	return nil
}

func (pw *pdfWriter) section(title string) {
	pw.pdf.SetFont("Helvetica", "B", 12)
	pw.pdf.CellFormat(pw.contentW, 8, pw.tr(title), "", 1, "L", false, 0, "")
}

func (pw *pdfWriter) table(header []string, widths []float64, rows [][]string) {
	pdf := pw.pdf
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range header {
		pdf.CellFormat(pw.contentW*widths[i], 6, pw.tr(h), "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	if len(rows) == 0 {
		pdf.CellFormat(pw.contentW, 6, "No data", "1", 1, "C", false, 0, "")
	}
	for _, row := range rows {
		for i, cell := range row {
			align := "L"
			if i > 0 {
				align = "R"
			}
			pdf.CellFormat(pw.contentW*widths[i], 6, pw.tr(cell), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
