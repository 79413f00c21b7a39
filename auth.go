package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/models"
	"github.com/craftlane/agency_backend/utils"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !bindJSON(c, &req) {
			return
		}

		info, err := models.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, "user", err)
			return
		}

		config.GetLogger().WithFields(logrus.Fields{
			"user_id": info.User.ID,
			"email":   info.User.Email,
		}).Info("[auth.login]")

		c.JSON(http.StatusOK, info)
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := models.Logout(c.Request.Context())
		if err != nil {
			respondError(c, "session", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": ok})
	}
}

// logoutAllHandler revokes every session of the calling user, the
// current one included.
func logoutAllHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		email := utils.GetContextUserEmail(ctx)
		if err := models.DestroyAllSessions(email, ""); err != nil {
			respondError(c, "session", err)
			return
		}

		config.GetLogger().WithFields(logrus.Fields{
			"email": email,
		}).Info("[auth.logout_all]")

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

func meHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		user, err := models.GetUserByEmail(ctx, utils.GetContextUserEmail(ctx))
		if err != nil {
			respondError(c, "user", err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func changePasswordHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req changePasswordRequest
		if !bindJSON(c, &req) {
			return
		}

		user, err := models.ChangePassword(c.Request.Context(), req.CurrentPassword, req.NewPassword)
		if err != nil {
			respondError(c, "user", err)
			return
		}

		config.GetLogger().WithFields(logrus.Fields{
			"user_id": user.ID,
		}).Info("[auth.change_password]")

		c.JSON(http.StatusOK, user)
	}
}

// apiTokenHandler issues a signed JWT for machine callers. The token is
// presented as "Authorization: Bearer <token>" and is not revocable
// before expiry, unlike the opaque session tokens.
func apiTokenHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		token, err := utils.JwtGenerate(utils.GetContextUserId(ctx), utils.GetContextUserRole(ctx))
		if err != nil {
			respondError(c, "token", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":     token,
			"tokenType": "Bearer",
			"expiresIn": int(utils.TokenLifespan().Seconds()),
		})
	}
}
