package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/session"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type StaffController struct {
	Staff    *services.StaffService
	Sessions session.Store
}

func NewStaffController(staff *services.StaffService, sessions session.Store) *StaffController {
	return &StaffController{Staff: staff, Sessions: sessions}
}

type staffRequest struct {
	FullName      string `json:"full_name" form:"full_name" binding:"required,notblank,nourl"`
	Username      string `json:"username" form:"username" binding:"required"`
	Password      string `json:"password" form:"password"`
	Phone         string `json:"phone" form:"phone"`
	Email         string `json:"email" form:"email" binding:"omitempty,email"`
	Address       string `json:"address" form:"address"`
	Role          string `json:"role" form:"role" binding:"required,oneof=waiter manager"`
	AccountStatus string `json:"account_status" form:"account_status"`
}

func (r staffRequest) input() services.StaffInput {
	return services.StaffInput{
		FullName:      r.FullName,
		Username:      r.Username,
		Password:      r.Password,
		Phone:         r.Phone,
		Email:         r.Email,
		Address:       r.Address,
		Role:          r.Role,
		AccountStatus: r.AccountStatus,
	}
}

// GetAllStaff -> GET /admin/staff
func (sc *StaffController) GetAllStaff(c *gin.Context) {
	staff, page, err := sc.Staff.List(c.Request.Context(), services.StaffFilter{
		AccountStatus: c.Query("account_status"),
		Role:          c.Query("role"),
		Search:        c.Query("search"),
		Page:          utils.QueryInt(c, "page", 1),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of staff", listResponse{Items: staff, Page: page})
}

// CreateStaff -> POST /admin/staff
func (sc *StaffController) CreateStaff(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	var req staffRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	staff, err := sc.Staff.Create(c.Request.Context(), actor, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Staff member "+staff.FullName+" added", staff)
}

// UpdateStaff -> PUT /admin/staff/:id
// Suspending an account ends its open sessions.
func (sc *StaffController) UpdateStaff(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req staffRequest
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	staff, err := sc.Staff.Update(c.Request.Context(), actor, id, req.input())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if staff.AccountStatus != models.AccountActive {
		sc.endSessions(c, staff.ID)
	}
	utils.RespondJSON(c, http.StatusOK, "Staff member "+staff.FullName+" updated", staff)
}

// DeleteStaff -> DELETE /admin/staff/:id
func (sc *StaffController) DeleteStaff(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	soft, err := sc.Staff.Delete(c.Request.Context(), actor, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	sc.endSessions(c, id)

	msg := "Staff member deleted"
	if soft {
		msg = "Staff member has history, so the account was marked as left"
	}
	utils.RespondJSON(c, http.StatusOK, msg, gin.H{"soft_deleted": soft})
}

func (sc *StaffController) endSessions(c *gin.Context, staffID uint) {
	if err := sc.Sessions.DeleteForStaff(c.Request.Context(), staffID); err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{"staff_id": staffID}).
			Errorf("failed to end sessions: %v", err)
	}
}
