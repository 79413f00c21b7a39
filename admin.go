package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/models"
)

type cachePurgeRequest struct {
	Prefix string `json:"prefix"`
}

type revokeSessionsRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// purgeCacheHandler drops cached entries. With a prefix only matching
// keys go; without one the whole cache database is flushed. Session
// tokens live in the same database, so a full flush logs everyone out.
func purgeCacheHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cachePurgeRequest
		if c.Request.ContentLength > 0 {
			if !bindJSON(c, &req) {
				return
			}
		}

		ctx := c.Request.Context()
		logger := config.GetLogger()

		if req.Prefix != "" {
			removed, err := config.RemoveRedisByPrefix(ctx, req.Prefix)
			if err != nil {
				respondError(c, "cache", err)
				return
			}
			logger.WithFields(logrus.Fields{
				"prefix":  req.Prefix,
				"removed": removed,
			}).Info("[admin.cache.purge]")
			c.JSON(http.StatusOK, gin.H{"removed": removed})
			return
		}

		if err := config.ClearRedis(ctx); err != nil {
			respondError(c, "cache", err)
			return
		}
		logger.Info("[admin.cache.flush]")
		c.JSON(http.StatusOK, gin.H{"flushed": true})
	}
}

func revokeSessionsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req revokeSessionsRequest
		if !bindJSON(c, &req) {
			return
		}

		ctx := c.Request.Context()
		user, err := models.GetUserByEmail(ctx, req.Email)
		if err != nil {
			respondError(c, "user", err)
			return
		}

		if err := models.DestroyAllSessions(user.Email, ""); err != nil {
			respondError(c, "session", err)
			return
		}

		config.GetLogger().WithFields(logrus.Fields{
			"email": user.Email,
		}).Info("[admin.sessions.revoke]")

		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}
