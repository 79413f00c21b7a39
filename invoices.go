package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/models"
)

func listInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var query models.InvoiceListQuery
		if !bindQuery(c, &query) {
			return
		}

		invoices, pagination, summary, err := models.PaginateInvoices(c.Request.Context(), &query)
		if err != nil {
			respondError(c, "invoice", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": invoices, "pagination": pagination, "summary": summary})
	}
}

func getInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		invoice, err := models.GetInvoice(c.Request.Context(), id)
		if err != nil {
			respondError(c, "invoice", err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

func createInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewInvoice
		if !bindJSON(c, &input) {
			return
		}

		invoice, err := models.CreateInvoice(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "invoice", err)
			return
		}
		c.JSON(http.StatusCreated, invoice)
	}
}

func updateInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewInvoice
		if !bindJSON(c, &input) {
			return
		}

		invoice, err := models.UpdateInvoice(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "invoice", err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

func deleteInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		invoice, err := models.DeleteInvoice(c.Request.Context(), id)
		if err != nil {
			respondError(c, "invoice", err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

func sendInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		invoice, err := models.SendInvoice(c.Request.Context(), id)
		if err != nil {
			respondError(c, "invoice", err)
			return
		}

		config.GetLogger().WithFields(logrus.Fields{
			"invoice_id":     invoice.ID,
			"invoice_number": invoice.InvoiceNumber,
		}).Info("[invoices.send]")

		c.JSON(http.StatusOK, invoice)
	}
}

func recordPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		var input models.NewInvoicePayment
		if !bindJSON(c, &input) {
			return
		}

		invoice, err := models.RecordPayment(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, "invoice", err)
			return
		}

		config.GetLogger().WithFields(logrus.Fields{
			"invoice_id": invoice.ID,
			"amount":     input.Amount.String(),
			"status":     invoice.Status,
		}).Info("[invoices.payment]")

		c.JSON(http.StatusCreated, invoice)
	}
}
