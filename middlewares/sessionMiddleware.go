package middlewares

import (
	"net/http"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/utils"
	"github.com/gin-gonic/gin"
)

// SessionMiddleware resolves the opaque "token" header into the session
// owner's email. Requests without the header pass through untouched so
// the bearer-token path can still authenticate them.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		email, exists, err := config.GetRedisValue("Token:" + token)
		if err != nil || !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}

		ctx := utils.SetContextToken(c.Request.Context(), token)
		ctx = utils.SetContextUserEmail(ctx, email)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
