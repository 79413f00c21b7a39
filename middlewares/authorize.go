package middlewares

import (
	"net/http"

	"github.com/craftlane/agency_backend/models"
	"github.com/craftlane/agency_backend/utils"
	"github.com/gin-gonic/gin"
)

// Authenticated requires an identity from either the session header or
// a bearer token, loads the user, and seeds id, name, role and the
// admin flag into the request context.
func Authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var (
			user *models.User
			err  error
		)
		if email := utils.GetContextUserEmail(ctx); email != "" {
			user, err = models.GetUserByEmail(ctx, email)
		} else if id := utils.GetContextUserId(ctx); id > 0 {
			// bearer tokens outlive cache invalidation, so read the row directly
			user, err = utils.FetchModel[models.User](ctx, id)
		}
		if err != nil || user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			c.Abort()
			return
		}
		if user.IsActive != nil && !*user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "account is disabled"})
			c.Abort()
			return
		}

		ctx = utils.SetContextUserId(ctx, user.ID)
		ctx = utils.SetContextUserEmail(ctx, user.Email)
		ctx = utils.SetContextUserName(ctx, user.Name)
		ctx = utils.SetContextUserRole(ctx, string(user.Role))
		ctx = utils.SetContextIsAdmin(ctx, user.Role == models.UserRoleAdmin)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AdminOnly gates admin surfaces. Run it after Authenticated.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !utils.GetContextIsAdmin(c.Request.Context()) {
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			c.Abort()
			return
		}
		c.Next()
	}
}
