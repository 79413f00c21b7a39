package main

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/utils"
)

// respondError maps the model layer's error taxonomy onto HTTP status
// codes. The entity name only feeds the 404 message; every other branch
// ignores it.
func respondError(c *gin.Context, entity string, err error) {
	if ve, ok := utils.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Message, "details": ve.Details})
		return
	}
	var fieldErrors validator.ValidationErrors
	if errors.As(err, &fieldErrors) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": utils.ProcessValidationErrors(err)})
		return
	}
	if ce, ok := utils.AsConflictError(err); ok {
		body := gin.H{"error": ce.Message}
		if len(ce.Details) > 0 {
			body["details"] = ce.Details
		}
		c.JSON(http.StatusConflict, body)
		return
	}

	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": entity + " not found"})
	case errors.Is(err, utils.ErrorInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorUserDisabled), errors.Is(err, utils.ErrorForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		config.LogError(config.GetLogger(), "api", entity, c.FullPath(), nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// bindJSON binds the request body and writes the 400 itself, so
// handlers can bail with a bare return.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		var fieldErrors validator.ValidationErrors
		if errors.As(err, &fieldErrors) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": utils.ProcessValidationErrors(err)})
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": gin.H{"body": "malformed request body"}})
		}
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": gin.H{"query": "malformed query parameters"}})
		return false
	}
	return true
}

func idParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": gin.H{"id": "must be a positive integer"}})
		return 0, false
	}
	return id, true
}

const excelContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func sendExcel(c *gin.Context, fileName string, buf *bytes.Buffer) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, excelContentType, buf.Bytes())
}
