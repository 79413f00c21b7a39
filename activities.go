package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/craftlane/agency_backend/models"
)

type bulkActivityRequest struct {
	Ids []int `json:"ids" binding:"required,min=1"`
}

func listActivitiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var query models.ActivityListQuery
		if !bindQuery(c, &query) {
			return
		}

		activities, pagination, err := models.PaginateActivities(c.Request.Context(), &query)
		if err != nil {
			respondError(c, "activity", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": activities, "pagination": pagination})
	}
}

func getActivityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		activity, err := models.GetActivity(c.Request.Context(), id)
		if err != nil {
			respondError(c, "activity", err)
			return
		}
		c.JSON(http.StatusOK, activity)
	}
}

// createActivityHandler only accepts manual notes; every other activity
// type is written by the model hooks.
func createActivityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewActivity
		if !bindJSON(c, &input) {
			return
		}

		activity, err := models.CreateNote(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "activity", err)
			return
		}
		c.JSON(http.StatusCreated, activity)
	}
}

func deleteActivityHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		activity, err := models.DeleteActivity(c.Request.Context(), id)
		if err != nil {
			respondError(c, "activity", err)
			return
		}
		c.JSON(http.StatusOK, activity)
	}
}

func bulkDeleteActivitiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input bulkActivityRequest
		if !bindJSON(c, &input) {
			return
		}

		deleted, err := models.DeleteActivities(c.Request.Context(), input.Ids)
		if err != nil {
			respondError(c, "activity", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	}
}
