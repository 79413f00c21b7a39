package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/craftlane/agency_backend/models"
)

func listProjectsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var query models.ProjectListQuery
		if !bindQuery(c, &query) {
			return
		}

		projects, pagination, summary, err := models.PaginateProjects(c.Request.Context(), &query)
		if err != nil {
			respondError(c, "project", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": projects, "pagination": pagination, "summary": summary})
	}
}

func getProjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		detail, err := models.GetProjectDetail(c.Request.Context(), id)
		if err != nil {
			respondError(c, "project", err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

func createProjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewProject
		if !bindJSON(c, &input) {
			return
		}

		project, err := models.CreateProject(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "project", err)
			return
		}
		c.JSON(http.StatusCreated, project)
	}
}

func updateProjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewProject
		if !bindJSON(c, &input) {
			return
		}

		project, err := models.UpdateProject(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "project", err)
			return
		}
		c.JSON(http.StatusOK, project)
	}
}

func deleteProjectHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		project, err := models.DeleteProject(c.Request.Context(), id)
		if err != nil {
			respondError(c, "project", err)
			return
		}
		c.JSON(http.StatusOK, project)
	}
}
