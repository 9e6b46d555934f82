package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"github.com/yeremiapane/restaurant-pos/services"
)

// WriteXLSX renders the report as a workbook with Summary, Products,
// Expenses, Staff and Daily sheets.
func WriteXLSX(w io.Writer, r *services.Report) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	summary := [][]interface{}{
		{"Sales Report", r.PeriodLabel},
		{"Period", dateRange(r)},
		{},
		{"Metric", "Value"},
		{"Total revenue", r.TotalRevenue.InexactFloat64()},
		{"Total expense", r.TotalExpense.InexactFloat64()},
		{"Net profit", r.NetProfit.InexactFloat64()},
		{"Orders", r.OrderCount},
		{"Average order value", r.AverageOrderValue.InexactFloat64()},
		{"Profit margin %", r.ProfitMargin.InexactFloat64()},
		{"Cancelled orders", r.CancelledCount},
		{"Cancellation rate %", r.CancellationRate.InexactFloat64()},
	}
	if r.PeakDay != nil {
		summary = append(summary, []interface{}{"Peak day", r.PeakDay.Label}, []interface{}{"Peak day revenue", r.PeakDay.Amount.InexactFloat64()})
	}

	products := [][]interface{}{{"#", "Product", "Quantity", "Revenue"}}
	for i, p := range r.TopProducts {
		products = append(products, []interface{}{i + 1, p.Name, p.Quantity, p.Revenue.InexactFloat64()})
	}

	expenses := [][]interface{}{{"Category", "Amount", "Share %"}}
	for _, e := range r.ExpenseBreakdown {
		expenses = append(expenses, []interface{}{e.Category, e.Amount.InexactFloat64(), e.Share.InexactFloat64()})
	}

	staff := [][]interface{}{{"Staff", "Orders", "Revenue"}}
	for _, s := range r.TopStaff {
		staff = append(staff, []interface{}{s.Name, s.OrderCount, s.Revenue.InexactFloat64()})
	}

	daily := [][]interface{}{{"Date", "Revenue"}}
	for _, d := range r.DailyRevenue {
		daily = append(daily, []interface{}{d.Date.Format("2006-01-02"), d.Amount.InexactFloat64()})
	}

	sheets := []struct {
		name string
		rows [][]interface{}
	}{
		{"Summary", summary},
		{"Products", products},
		{"Expenses", expenses},
		{"Staff", staff},
		{"Daily", daily},
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: style: %w", err)
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
				return fmt.Errorf("xlsx: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("xlsx: add sheet %s: %w", sheet.name, err)
		}
		for row, values := range sheet.rows {
			cell, err := excelize.CoordinatesToCellName(1, row+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(sheet.name, cell, &values); err != nil {
				return fmt.Errorf("xlsx: write %s row %d: %w", sheet.name, row+1, err)
			}
		}
		if err := f.SetColWidth(sheet.name, "A", "D", 22); err != nil {
			return fmt.Errorf("xlsx: column width: %w", err)
		}
		headerRow := 1
		if sheet.name == "Summary" {
			headerRow = 4
		}
		if err := f.SetRowStyle(sheet.name, headerRow, headerRow, bold); err != nil {
			return fmt.Errorf("xlsx: header style: %w", err)
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}
