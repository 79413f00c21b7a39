package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/craftlane/agency_backend/models"
)

func listLeadsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var query models.LeadListQuery
		if !bindQuery(c, &query) {
			return
		}

		leads, pagination, summary, err := models.PaginateLeads(c.Request.Context(), &query)
		if err != nil {
			respondError(c, "lead", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": leads, "pagination": pagination, "summary": summary})
	}
}

func getLeadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		lead, err := models.GetLead(c.Request.Context(), id)
		if err != nil {
			respondError(c, "lead", err)
			return
		}
		c.JSON(http.StatusOK, lead)
	}
}

func createLeadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewLead
		if !bindJSON(c, &input) {
			return
		}

		lead, err := models.CreateLead(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "lead", err)
			return
		}
		c.JSON(http.StatusCreated, lead)
	}
}

func updateLeadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewLead
		if !bindJSON(c, &input) {
			return
		}

		lead, err := models.UpdateLead(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "lead", err)
			return
		}
		c.JSON(http.StatusOK, lead)
	}
}

func deleteLeadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		lead, err := models.DeleteLead(c.Request.Context(), id)
		if err != nil {
			respondError(c, "lead", err)
			return
		}
		c.JSON(http.StatusOK, lead)
	}
}

func bulkUpdateLeadsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.BulkLeadInput
		if !bindJSON(c, &input) {
			return
		}

		updated, err := models.BulkUpdateLeads(c.Request.Context(), input.Ids, input.Update)
		if err != nil {
			respondError(c, "lead", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": updated})
	}
}

func bulkDeleteLeadsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.BulkLeadInput
		if !bindJSON(c, &input) {
			return
		}

		deleted, err := models.BulkDeleteLeads(c.Request.Context(), input.Ids)
		if err != nil {
			respondError(c, "lead", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": deleted})
	}
}

func convertLeadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		// the body is optional; an empty POST converts with lead fields as-is
		var input models.ConvertLeadInput
		if c.Request.ContentLength > 0 {
			if !bindJSON(c, &input) {
				return
			}
		}

		client, err := models.ConvertLead(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "lead", err)
			return
		}
		c.JSON(http.StatusCreated, client)
	}
}
