package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/craftlane/agency_backend/models"
)

func listBudgetsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var query models.BudgetListQuery
		if !bindQuery(c, &query) {
			return
		}

		budgets, pagination, err := models.PaginateBudgets(c.Request.Context(), &query)
		if err != nil {
			respondError(c, "budget", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": budgets, "pagination": pagination})
	}
}

func getBudgetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		budget, err := models.GetBudget(c.Request.Context(), id)
		if err != nil {
			respondError(c, "budget", err)
			return
		}
		c.JSON(http.StatusOK, budget)
	}
}

func createBudgetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewBudget
		if !bindJSON(c, &input) {
			return
		}

		budget, err := models.CreateBudget(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "budget", err)
			return
		}
		c.JSON(http.StatusCreated, budget)
	}
}

func updateBudgetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewBudget
		if !bindJSON(c, &input) {
			return
		}

		budget, err := models.UpdateBudget(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "budget", err)
			return
		}
		c.JSON(http.StatusOK, budget)
	}
}

func deleteBudgetHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		budget, err := models.DeleteBudget(c.Request.Context(), id)
		if err != nil {
			respondError(c, "budget", err)
			return
		}
		c.JSON(http.StatusOK, budget)
	}
}

func budgetUtilizationHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		utilization, err := models.GetBudgetUtilization(c.Request.Context(), id)
		if err != nil {
			respondError(c, "budget", err)
			return
		}
		c.JSON(http.StatusOK, utilization)
	}
}
