package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type LogController struct {
	Logs *services.ActionLogger
}

func NewLogController(logs *services.ActionLogger) *LogController {
	return &LogController{Logs: logs}
}

// GetLogs -> GET /admin/logs
func (lc *LogController) GetLogs(c *gin.Context) {
	logs, page, err := lc.Logs.List(c.Request.Context(), services.LogFilter{
		From:    utils.QueryDate(c, "from"),
		To:      utils.QueryDate(c, "to"),
		Action:  c.Query("action"),
		StaffID: utils.QueryUint(c, "staff_id"),
		Search:  c.Query("search"),
		Page:    utils.QueryInt(c, "page", 1),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Action log", listResponse{Items: logs, Page: page})
}
