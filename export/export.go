// Package export renders sales reports as downloadable PDF and XLSX files.
package export

import (
	"fmt"

	"github.com/yeremiapane/restaurant-pos/services"
)

const (
	ContentTypePDF  = "application/pdf"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// FileName builds sales-report_<label>_<from>_<to>.<ext>.
func FileName(r *services.Report, ext string) string {
	return fmt.Sprintf("sales-report_%s_%s_%s.%s",
		r.PeriodLabel, r.From.Format("20060102"), r.To.Format("20060102"), ext)
}

func dateRange(r *services.Report) string {
	return r.From.Format("02.01.2006") + " - " + r.To.Format("02.01.2006")
}
