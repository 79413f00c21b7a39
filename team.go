package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/craftlane/agency_backend/models"
)

func listTeamHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var query models.TeamListQuery
		if !bindQuery(c, &query) {
			return
		}

		users, pagination, err := models.PaginateUsers(c.Request.Context(), &query)
		if err != nil {
			respondError(c, "team member", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": users, "pagination": pagination})
	}
}

func getTeamMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		user, err := models.GetUser(c.Request.Context(), id)
		if err != nil {
			respondError(c, "team member", err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func createTeamMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if !bindJSON(c, &input) {
			return
		}

		user, err := models.CreateUser(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "team member", err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func updateTeamMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewUser
		if !bindJSON(c, &input) {
			return
		}

		user, err := models.UpdateUser(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "team member", err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

func deleteTeamMemberHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		user, err := models.DeleteUser(c.Request.Context(), id)
		if err != nil {
			respondError(c, "team member", err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
