package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/live"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/session"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type TableController struct {
	Tables   *services.TableService
	Sessions session.Store
	Hub      *live.Hub
}

func NewTableController(tables *services.TableService, sessions session.Store, hub *live.Hub) *TableController {
	return &TableController{Tables: tables, Sessions: sessions, Hub: hub}
}

type tableRequest struct {
	Name   string `json:"name" form:"name" binding:"required,notblank"`
	Status string `json:"status" form:"status"`
}

// Floor -> GET /waiter/tables
func (tc *TableController) Floor(c *gin.Context) {
	ctx := c.Request.Context()
	tables, err := tc.Tables.List(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	calls, err := tc.Sessions.Calls(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", gin.H{
		"tables":     tables,
		"calls":      calls,
		"call_count": len(calls),
	})
}

// GetAllTables -> GET /admin/tables
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Tables.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// CreateTable -> POST /admin/tables
func (tc *TableController) CreateTable(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req tableRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	table, err := tc.Tables.Create(c.Request.Context(), actor, req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	tc.Hub.BroadcastTableUpdate(table)
	utils.RespondJSON(c, http.StatusCreated, "Table "+table.Name+" added", table)
}

// UpdateTable -> PUT /admin/tables/:id
func (tc *TableController) UpdateTable(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req tableRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	table, err := tc.Tables.Update(c.Request.Context(), actor, id, req.Name, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	tc.Hub.BroadcastTableUpdate(table)
	utils.RespondJSON(c, http.StatusOK, "Table "+table.Name+" updated", table)
}

// DeleteTable -> DELETE /admin/tables/:id
func (tc *TableController) DeleteTable(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	table, err := tc.Tables.Delete(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if err := tc.Sessions.ClearCall(c.Request.Context(), table.ID); err != nil {
		utils.ErrorLogger.Warnf("clear waiter call for deleted table %d: %v", table.ID, err)
	}
	tc.Hub.BroadcastTableUpdate(gin.H{"table_id": table.ID, "deleted": true})
	utils.RespondJSON(c, http.StatusOK, "Table "+table.Name+" deleted", nil)
}

// ToggleReservation -> POST /waiter/tables/:table_id/reservation
func (tc *TableController) ToggleReservation(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "table_id")
	if !ok {
		return
	}

	table, err := tc.Tables.ToggleReservation(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	tc.Hub.BroadcastTableUpdate(table)
	utils.RespondJSON(c, http.StatusOK, "Table "+table.Name+" is now "+table.Status, table)
}
