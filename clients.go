package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/craftlane/agency_backend/models"
)

func listClientsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var query models.ClientListQuery
		if !bindQuery(c, &query) {
			return
		}

		clients, pagination, summary, err := models.PaginateClients(c.Request.Context(), &query)
		if err != nil {
			respondError(c, "client", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": clients, "pagination": pagination, "summary": summary})
	}
}

func getClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		detail, err := models.GetClientDetail(c.Request.Context(), id)
		if err != nil {
			respondError(c, "client", err)
			return
		}
		c.JSON(http.StatusOK, detail)
	}
}

func createClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewClient
		if !bindJSON(c, &input) {
			return
		}

		client, err := models.CreateClient(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "client", err)
			return
		}
		c.JSON(http.StatusCreated, client)
	}
}

func updateClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewClient
		if !bindJSON(c, &input) {
			return
		}

		client, err := models.UpdateClient(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "client", err)
			return
		}
		c.JSON(http.StatusOK, client)
	}
}

func deleteClientHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		client, err := models.DeleteClient(c.Request.Context(), id)
		if err != nil {
			respondError(c, "client", err)
			return
		}
		c.JSON(http.StatusOK, client)
	}
}
