package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/craftlane/agency_backend/models"
)

func listTasksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var query models.TaskListQuery
		if !bindQuery(c, &query) {
			return
		}

		tasks, pagination, summary, err := models.PaginateTasks(c.Request.Context(), &query)
		if err != nil {
			respondError(c, "task", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": tasks, "pagination": pagination, "summary": summary})
	}
}

func getTaskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		task, err := models.GetTask(c.Request.Context(), id)
		if err != nil {
			respondError(c, "task", err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

func createTaskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewTask
		if !bindJSON(c, &input) {
			return
		}

		task, err := models.CreateTask(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "task", err)
			return
		}
		c.JSON(http.StatusCreated, task)
	}
}

func updateTaskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewTask
		if !bindJSON(c, &input) {
			return
		}

		task, err := models.UpdateTask(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "task", err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

func deleteTaskHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		task, err := models.DeleteTask(c.Request.Context(), id)
		if err != nil {
			respondError(c, "task", err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

func bulkUpdateTasksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.BulkTaskInput
		if !bindJSON(c, &input) {
			return
		}

		updated, err := models.BulkUpdateTasks(c.Request.Context(), input.Ids, input.Update)
		if err != nil {
			respondError(c, "task", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": updated})
	}
}

func bulkDeleteTasksHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.BulkTaskInput
		if !bindJSON(c, &input) {
			return
		}

		deleted, err := models.BulkDeleteTasks(c.Request.Context(), input.Ids)
		if err != nil {
			respondError(c, "task", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	}
}
