package controllers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/export"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type ReportController struct {
	Reports   *services.ReportService
	Forecasts *services.ForecastClient
}

func NewReportController(reports *services.ReportService, forecast *services.ForecastClient) *ReportController {
	return &ReportController{Reports: reports, Forecasts: forecast}
}

// Dashboard -> GET /admin/dashboard
func (rc *ReportController) Dashboard(c *gin.Context) {
	d, err := rc.Reports.Dashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard", d)
}

// Alerts -> GET /admin/alerts
func (rc *ReportController) Alerts(c *gin.Context) {
	alerts, err := rc.Reports.StockAlerts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Stock alerts", alerts)
}

// Report -> GET /admin/reports?from=&to=
func (rc *ReportController) Report(c *gin.Context) {
	report, ok := rc.build(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sales report", report)
}

// PDF -> GET /admin/reports/pdf
func (rc *ReportController) PDF(c *gin.Context) {
	report, ok := rc.build(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WritePDF(&buf, report); err != nil {
		respondServiceError(c, err)
		return
	}
	rc.attachment(c, export.FileName(report, "pdf"), export.ContentTypePDF, buf.Bytes())
}

// XLSX -> GET /admin/reports/xlsx
func (rc *ReportController) XLSX(c *gin.Context) {
	report, ok := rc.build(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, report); err != nil {
		respondServiceError(c, err)
		return
	}
	rc.attachment(c, export.FileName(report, "xlsx"), export.ContentTypeXLSX, buf.Bytes())
}

// Forecast -> GET /admin/reports/forecast
// The forecasting service is optional; when it is down the page still loads
// with available=false.
func (rc *ReportController) Forecast(c *gin.Context) {
	forecasts := rc.Forecasts.Fetch(c.Request.Context())
	msg := "Forecasts"
	if !forecasts.Available() {
		msg = "Forecasting service is unavailable"
	}
	utils.RespondJSON(c, http.StatusOK, msg, gin.H{
		"available": forecasts.Available(),
		"next_day":  forecasts.NextDay,
		"stock":     forecasts.Stock,
	})
}

func (rc *ReportController) build(c *gin.Context) (*services.Report, bool) {
	from, to := services.ReportRange(utils.QueryDate(c, "from"), utils.QueryDate(c, "to"), time.Now())
	report, err := rc.Reports.Build(c.Request.Context(), from, to)
	if err != nil {
		respondServiceError(c, err)
		return nil, false
	}
	return report, true
}

func (rc *ReportController) attachment(c *gin.Context, name, contentType string, body []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, body)
}
