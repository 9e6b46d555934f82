package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-pos/live"
	"github.com/yeremiapane/restaurant-pos/utils"
)

type LiveController struct {
	Hub      *live.Hub
	upgrader websocket.Upgrader
}

// NewLiveController accepts websocket upgrades from allowedOrigin, or from any
// origin when it is "*".
func NewLiveController(hub *live.Hub, allowedOrigin string) *LiveController {
	return &LiveController{
		Hub: hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "*" || origin == "" || origin == allowedOrigin
			},
		},
	}
}

// Connect -> GET /live/ws
func (lc *LiveController) Connect(c *gin.Context) {
	actor, ok := actorOf(c)
	if !ok {
		return
	}

	ws, err := lc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Warnf("websocket upgrade failed: %v", err)
		return
	}

	lc.Hub.Register(ws, actor.Role)
	utils.InfoLogger.WithField("staff_id", actor.StaffID).Debug("live client connected")

	// Clients only listen; reading drains control frames and notices the close.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	lc.Hub.Unregister(ws)
}
