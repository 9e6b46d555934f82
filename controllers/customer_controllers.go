package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/live"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/session"
	"github.com/yeremiapane/restaurant-pos/utils"
)

const maxCallNoteLength = 200

// CustomerController serves the public, unauthenticated endpoints used from
// the table: the menu, feedback and calling a waiter.
type CustomerController struct {
	Catalog  *services.CatalogService
	Feedback *services.FeedbackService
	Tables   *services.TableService
	Sessions session.Store
	Hub      *live.Hub
}

func NewCustomerController(catalog *services.CatalogService, feedback *services.FeedbackService, tables *services.TableService,
	sessions session.Store, hub *live.Hub) *CustomerController {
	return &CustomerController{Catalog: catalog, Feedback: feedback, Tables: tables, Sessions: sessions, Hub: hub}
}

// Menu -> GET /menu
func (cc *CustomerController) Menu(c *gin.Context) {
	menu, err := cc.Catalog.Menu(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu", menu)
}

// FeedbackTypes -> GET /feedback-types
func (cc *CustomerController) FeedbackTypes(c *gin.Context) {
	types, err := cc.Feedback.Types(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Feedback types", types)
}

// SubmitFeedback -> POST /feedback
func (cc *CustomerController) SubmitFeedback(c *gin.Context) {
	var req struct {
		TypeID    uint   `json:"type_id" form:"type_id" binding:"required"`
		ProductID *uint  `json:"product_id" form:"product_id"`
		Rating    int    `json:"rating" form:"rating" binding:"required"`
		Comment   string `json:"comment" form:"comment"`
	}
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.ProductID != nil && *req.ProductID == 0 {
		req.ProductID = nil
	}

	feedback, err := cc.Feedback.Submit(c.Request.Context(), services.FeedbackInput{
		TypeID:    req.TypeID,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Thank you for your feedback", feedback)
}

// CallWaiter -> POST /tables/:table_id/call-waiter
func (cc *CustomerController) CallWaiter(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	var req struct {
		Note string `json:"note" form:"note"`
	}
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}
	note := strings.TrimSpace(req.Note)
	if note == "" {
		note = "-"
	}
	if len(note) > maxCallNoteLength {
		utils.RespondError(c, http.StatusBadRequest, errors.New("note must be at most 200 characters"))
		return
	}

	ctx := c.Request.Context()
	table, err := cc.Tables.Get(ctx, tableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	call := session.WaiterCall{TableID: table.ID, TableName: table.Name, Note: note, CalledAt: time.Now()}
	if _, err := cc.Sessions.AddCall(ctx, call); err != nil {
		respondServiceError(c, err)
		return
	}
	cc.Hub.BroadcastWaiterCall(call)
	utils.RespondJSON(c, http.StatusOK, "A waiter is on the way", call)
}

// WaiterCalls -> GET /waiter/calls
func (cc *CustomerController) WaiterCalls(c *gin.Context) {
	calls, err := cc.Sessions.Calls(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Waiter calls", gin.H{"calls": calls, "count": len(calls)})
}
