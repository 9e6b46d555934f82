package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/services"
	"github.com/yeremiapane/restaurant-pos/session"
	"github.com/yeremiapane/restaurant-pos/utils"
)

const (
	actorKey     = "actor"
	sessionIDKey = "session_id"
)

// SessionAuth resolves the session token from the pos_session cookie, an
// Authorization bearer header or a token query parameter (websocket clients),
// and stores the request's Actor in the context.
func SessionAuth(store session.Store, signer *session.Signer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("please sign in"))
			return
		}

		claims, err := signer.Parse(token)
		if err != nil {
			utils.AbortWithError(c, http.StatusUnauthorized, err)
			return
		}

		sess, err := store.Get(c.Request.Context(), claims.SessionID())
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				utils.ErrorLogger.Errorf("session lookup failed: %v", err)
			}
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("your session has expired, please sign in again"))
			return
		}

		c.Set(actorKey, services.Actor{
			StaffID: sess.StaffID,
			Name:    sess.FullName,
			Role:    sess.Role,
			IP:      c.ClientIP(),
		})
		c.Set(sessionIDKey, sess.ID)
		c.Set("role", sess.Role)
		c.Next()
	}
}

// TokenFromRequest returns the raw session token, or "" when none was sent.
func TokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(session.CookieName); err == nil && cookie != "" {
		return cookie
	}
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.Query("token")
}

// CurrentActor returns the authenticated staff member, or false on public routes.
func CurrentActor(c *gin.Context) (services.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return services.Actor{}, false
	}
	actor, ok := v.(services.Actor)
	return actor, ok
}

// CurrentSessionID returns the id of the session behind the request.
func CurrentSessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
