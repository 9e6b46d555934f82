package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/models"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/session"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type AuthController struct {
	Staff    *services.StaffService
	Sessions session.Store
	Signer   *session.Signer
	// SecureCookie marks the session cookie HTTPS-only.
	SecureCookie bool
}

func NewAuthController(staff *services.StaffService, sessions session.Store, signer *session.Signer, secureCookie bool) *AuthController {
	return &AuthController{Staff: staff, Sessions: sessions, Signer: signer, SecureCookie: secureCookie}
}

type loginResponse struct {
	Token string        `json:"token"`
	Staff *models.Staff `json:"staff"`
}

// Login -> POST /login
func (ac *AuthController) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" form:"username" binding:"required,notblank"`
		Password string `json:"password" form:"password" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		bindError(c, err)
		return
	}

	staff, err := ac.Staff.Authenticate(c.Request.Context(), req.Username, req.Password, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	sess := session.New(staff.ID, staff.FullName, staff.Role)
	if err := ac.Sessions.Create(c.Request.Context(), sess); err != nil {
		respondServiceError(c, err)
		return
	}
	token, err := ac.Signer.Sign(sess)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, token, int(ac.Signer.TTL().Seconds()), "/", "", ac.SecureCookie, true)

	utils.InfoLogger.WithField("staff_id", staff.ID).Info("staff signed in")
	utils.RespondJSON(c, http.StatusOK, "Welcome, "+staff.FullName, loginResponse{Token: token, Staff: staff})
}

// Logout -> POST /logout
func (ac *AuthController) Logout(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}

	if err := ac.Sessions.Delete(c.Request.Context(), middlewares.CurrentSessionID(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	if err := ac.Staff.SignOut(c.Request.Context(), actor, ""); err != nil {
		respondServiceError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, "", -1, "/", "", ac.SecureCookie, true)
	utils.RespondJSON(c, http.StatusOK, "You have been signed out", nil)
}

// Me -> GET /me
func (ac *AuthController) Me(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}
	staff, err := ac.Staff.Get(c.Request.Context(), actor.StaffID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Current staff member", staff)
}
