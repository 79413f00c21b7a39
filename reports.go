package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/craftlane/agency_backend/models"
	"github.com/craftlane/agency_backend/models/reports"
)

func dashboardReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := reports.GetDashboardReport(c.Request.Context())
		if err != nil {
			respondError(c, "report", err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func leadConversionReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		dateFrom, err := models.ParseDateParam("dateFrom", c.Query("dateFrom"))
		if err != nil {
			respondError(c, "report", err)
			return
		}
		dateTo, err := models.ParseDateParam("dateTo", c.Query("dateTo"))
		if err != nil {
			respondError(c, "report", err)
			return
		}

		report, err := reports.GetLeadConversionReport(c.Request.Context(), dateFrom, dateTo)
		if err != nil {
			respondError(c, "report", err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func taskCompletionReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := reports.GetTaskCompletionReport(c.Request.Context())
		if err != nil {
			respondError(c, "report", err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func budgetUtilizationReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := reports.GetBudgetUtilizationReport(c.Request.Context())
		if err != nil {
			respondError(c, "report", err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}
