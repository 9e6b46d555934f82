package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-pos/utils"
)

// RequireRole lets the request through only when the actor holds one of roles.
// It must run after SessionAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			utils.AbortWithError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		utils.AbortWithError(c, http.StatusForbidden, fmt.Errorf("you do not have permission to access this page"))
	}
}
