package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-pos/middlewares"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/utils"
)

var errGeneric = errors.New("an error occurred, please try again")

// respondServiceError maps a service error onto the response envelope.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case services.IsNotFound(err):
		utils.RespondError(c, http.StatusNotFound, err)
	case services.IsValidation(err):
		utils.RespondError(c, http.StatusBadRequest, err)
	case services.IsConflict(err):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondError(c, http.StatusUnauthorized, err)
	case errors.Is(err, services.ErrAccountInactive):
		utils.RespondError(c, http.StatusForbidden, err)
	default:
		fields := logrus.Fields{"route": c.FullPath(), "method": c.Request.Method}
		if actor, ok := middlewares.CurrentActor(c); ok {
			fields["staff_id"] = actor.StaffID
		}
		utils.ErrorLogger.WithFields(fields).Errorf("request failed: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errGeneric)
	}
}

// paramID reads a positive numeric path parameter, answering 400 when it is
// malformed.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

// actorOf returns the authenticated actor. Routes using it sit behind
// SessionAuth, so a missing actor is a wiring bug and answers 401.
func actorOf(c *gin.Context) (services.Actor, bool) {
	actor, ok := middlewares.CurrentActor(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("please sign in"))
	}
	return actor, ok
}

func bindError(c *gin.Context, err error) {
	utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
}

// listResponse is the data shape of paged listings.
type listResponse struct {
	Items interface{} `json:"items"`
	Page  utils.Page  `json:"page"`
}
