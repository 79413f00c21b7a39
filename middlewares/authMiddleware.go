package middlewares

import (
	"net/http"
	"strings"

	"github.com/craftlane/agency_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware accepts a signed API token via Authorization: Bearer,
// the non-browser alternative to the session header.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.Next()
			return
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		validated, err := utils.JwtValidate(strings.TrimPrefix(auth, bearer))
		if err != nil || !validated.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		claim, ok := validated.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		ctx := utils.SetContextUserId(c.Request.Context(), claim.ID)
		ctx = utils.SetContextUserRole(ctx, claim.Role)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
