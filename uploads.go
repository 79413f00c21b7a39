package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/models"
)

type uploadSignResponse struct {
	UploadURL string            `json:"uploadUrl"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ObjectKey string            `json:"objectKey"`
	AccessURL string            `json:"accessUrl"`
	ExpiresAt string            `json:"expiresAt"`
}

// attachmentResponse carries the resolved object URLs beside the row;
// thumbnailUrl is omitted for non-image attachments.
type attachmentResponse struct {
	*models.Attachment
	AccessURL    string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

func newAttachmentResponse(attachment *models.Attachment) attachmentResponse {
	return attachmentResponse{
		Attachment:   attachment,
		AccessURL:    attachment.URL(),
		ThumbnailURL: attachment.ThumbnailURL(),
	}
}

// uploadsEnabled writes the 503 itself when the storage bucket is not
// configured.
func uploadsEnabled(c *gin.Context) bool {
	if config.UploadsEnabled() {
		return true
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": "uploads are not configured"})
	return false
}

func signUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !uploadsEnabled(c) {
			return
		}

		var input models.SignAttachmentInput
		if !bindJSON(c, &input) {
			return
		}

		signed, err := models.SignAttachmentUpload(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "upload", err)
			return
		}

		config.GetLogger().WithFields(logrus.Fields{
			"mime_type":  input.MimeType,
			"size":       input.Size,
			"object_key": signed.ObjectKey,
		}).Info("[upload.sign]")

		c.JSON(http.StatusOK, uploadSignResponse{
			UploadURL: signed.UploadURL,
			Method:    signed.Method,
			Headers:   signed.Headers,
			ObjectKey: signed.ObjectKey,
			AccessURL: signed.AccessURL,
			ExpiresAt: signed.ExpiresAt.UTC().Format(time.RFC3339),
		})
	}
}

func completeUploadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !uploadsEnabled(c) {
			return
		}

		var input models.CompleteAttachmentInput
		if !bindJSON(c, &input) {
			return
		}

		attachment, err := models.CompleteAttachmentUpload(c.Request.Context(), &input)
		if err != nil {
			respondError(c, "upload", err)
			return
		}

		config.GetLogger().WithFields(logrus.Fields{
			"object_key":    attachment.ObjectKey,
			"attachment_id": attachment.ID,
		}).Info("[upload.complete]")

		c.JSON(http.StatusCreated, newAttachmentResponse(attachment))
	}
}

func listAttachmentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var query models.AttachmentListQuery
		if !bindQuery(c, &query) {
			return
		}

		attachments, pagination, err := models.PaginateAttachments(c.Request.Context(), &query)
		if err != nil {
			respondError(c, "attachment", err)
			return
		}

		rows := make([]attachmentResponse, 0, len(attachments))
		for _, attachment := range attachments {
			rows = append(rows, newAttachmentResponse(attachment))
		}
		c.JSON(http.StatusOK, gin.H{"data": rows, "pagination": pagination})
	}
}

func deleteAttachmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}

		attachment, err := models.DeleteAttachment(c.Request.Context(), id)
		if err != nil {
			respondError(c, "attachment", err)
			return
		}

		config.GetLogger().WithFields(logrus.Fields{
			"object_key":    attachment.ObjectKey,
			"attachment_id": attachment.ID,
		}).Info("[upload.delete]")

		c.JSON(http.StatusOK, newAttachmentResponse(attachment))
	}
}
