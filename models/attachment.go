package models

import (
	"bytes"
	"context"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/utils"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const (
	maxAttachmentSizeBytes int64 = 20 * 1024 * 1024
	uploadURLExpiry              = 15 * time.Minute
	thumbnailMaxPx               = 320
)

var imageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var attachmentMimeTypes = map[string]bool{
	"application/pdf":          true,
	"application/msword":       true,
	"application/vnd.ms-excel": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       true,
	"text/csv":   true,
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var mimeTypeExtensions = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"text/csv":        ".csv",
}

type Attachment struct {
	ID           int                  `gorm:"primary_key" json:"id"`
	EntityType   AttachmentEntityType `gorm:"size:20;not null;index:idx_attachments_entity" json:"entityType"`
	EntityId     int                  `gorm:"not null;index:idx_attachments_entity" json:"entityId"`
	FileName     string               `gorm:"size:255;not null" json:"fileName"`
	ObjectKey    string               `gorm:"size:512;not null;uniqueIndex" json:"objectKey"`
	ThumbnailKey string               `gorm:"size:512" json:"thumbnailKey,omitempty"`
	MimeType     string               `gorm:"size:100;not null" json:"mimeType"`
	Size         int64                `gorm:"not null;default:0" json:"size"`
	UploadedById int                  `gorm:"not null;index" json:"uploadedById"`
	UploadedBy   *User                `gorm:"foreignKey:UploadedById" json:"uploadedBy,omitempty"`
	CreatedAt    time.Time            `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time            `gorm:"autoUpdateTime" json:"updatedAt"`
}

// URL points at the stored object; ThumbnailURL is empty for
// non-image attachments.
func (attachment *Attachment) URL() string {
	return utils.BuildObjectAccessURL(attachment.ObjectKey)
}

func (attachment *Attachment) ThumbnailURL() string {
	if attachment.ThumbnailKey == "" {
		return ""
	}
	return utils.BuildObjectAccessURL(attachment.ThumbnailKey)
}

type UploadContext struct {
	EntityType AttachmentEntityType `json:"entityType"`
	EntityId   int                  `json:"entityId"`
}

func validateUploadContext(ctx context.Context, uploadCtx UploadContext) error {
	if !uploadCtx.EntityType.Valid() {
		return utils.NewValidationError("context.entityType", "invalid entity type")
	}
	if uploadCtx.EntityId <= 0 {
		return utils.NewValidationError("context.entityId", "is required")
	}

	var err error
	switch uploadCtx.EntityType {
	case AttachmentEntityExpense:
		err = utils.ValidateResourceId[Expense](ctx, uploadCtx.EntityId)
	case AttachmentEntityClient:
		err = utils.ValidateResourceId[Client](ctx, uploadCtx.EntityId)
	case AttachmentEntityProject:
		err = utils.ValidateResourceId[Project](ctx, uploadCtx.EntityId)
	case AttachmentEntityInvoice:
		err = utils.ValidateResourceId[Invoice](ctx, uploadCtx.EntityId)
	case AttachmentEntityUser:
		err = utils.ValidateResourceId[User](ctx, uploadCtx.EntityId)
	}
	if err != nil {
		return utils.NewValidationError("context.entityId", "referenced entity does not exist")
	}
	return nil
}

type SignAttachmentInput struct {
	FileName string        `json:"fileName" binding:"required"`
	MimeType string        `json:"mimeType" binding:"required"`
	Size     int64         `json:"size"`
	Context  UploadContext `json:"context"`
}

// SignAttachmentUpload hands the client a short-lived PUT URL for a
// direct-to-bucket upload. Nothing is persisted until the upload is
// completed.
func SignAttachmentUpload(ctx context.Context, input *SignAttachmentInput) (*utils.SignedUpload, error) {
	if input.Size <= 0 {
		return nil, utils.NewValidationError("size", "is required")
	}
	if input.Size > maxAttachmentSizeBytes {
		return nil, utils.NewValidationError("size", "file size exceeds 20MB limit")
	}
	if !attachmentMimeTypes[input.MimeType] {
		return nil, utils.NewValidationError("mimeType", "unsupported file type")
	}
	if err := validateUploadContext(ctx, input.Context); err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(input.FileName))
	if ext == "" {
		ext = mimeTypeExtensions[input.MimeType]
	}
	if ext == "" {
		return nil, utils.NewValidationError("fileName", "file extension is required")
	}

	objectKey := path.Join(strings.ToLower(string(input.Context.EntityType))+"s", uuid.New().String()+ext)
	return utils.SignUpload(ctx, objectKey, input.MimeType, uploadURLExpiry)
}

type CompleteAttachmentInput struct {
	ObjectKey string        `json:"objectKey" binding:"required"`
	FileName  string        `json:"fileName"`
	MimeType  string        `json:"mimeType" binding:"required"`
	Context   UploadContext `json:"context"`
}

func thumbnailObjectKey(objectKey string) string {
	return path.Join(path.Dir(objectKey), "thumbnails", path.Base(objectKey))
}

// createAttachmentThumbnail downsizes the uploaded image to fit a
// 320px box and stores it next to the original.
func createAttachmentThumbnail(ctx context.Context, objectKey string) (string, error) {
	data, err := utils.DownloadFromGCS(ctx, objectKey)
	if err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	thumbnail := imaging.Fit(img, thumbnailMaxPx, thumbnailMaxPx, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		return "", err
	}

	thumbnailKey := thumbnailObjectKey(objectKey)
	if _, err := utils.UploadBytesToGCS(ctx, thumbnailKey, buf.Bytes(), "image/jpeg"); err != nil {
		return "", err
	}
	return thumbnailKey, nil
}

// CompleteAttachmentUpload verifies the object landed in the bucket,
// generates a thumbnail for images and persists the attachment row.
func CompleteAttachmentUpload(ctx context.Context, input *CompleteAttachmentInput) (*Attachment, error) {
	objectKey := strings.TrimSpace(input.ObjectKey)
	if objectKey == "" || strings.Contains(objectKey, "..") || strings.HasPrefix(objectKey, "/") {
		return nil, utils.NewValidationError("objectKey", "invalid object key")
	}
	if !attachmentMimeTypes[input.MimeType] {
		return nil, utils.NewValidationError("mimeType", "unsupported file type")
	}
	if err := validateUploadContext(ctx, input.Context); err != nil {
		return nil, err
	}

	size, err := utils.StatObjectInGCS(ctx, objectKey)
	if err != nil {
		if err == utils.ErrorRecordNotFound {
			return nil, utils.NewValidationError("objectKey", "object has not been uploaded")
		}
		return nil, err
	}
	if size > maxAttachmentSizeBytes {
		return nil, utils.NewValidationError("objectKey", "stored object exceeds 20MB limit")
	}

	thumbnailKey := ""
	if imageMimeTypes[input.MimeType] {
		thumbnailKey, err = createAttachmentThumbnail(ctx, objectKey)
		if err != nil {
			return nil, err
		}
	}

	fileName := input.FileName
	if fileName == "" {
		fileName = path.Base(objectKey)
	}

	attachment := Attachment{
		EntityType:   input.Context.EntityType,
		EntityId:     input.Context.EntityId,
		FileName:     fileName,
		ObjectKey:    objectKey,
		ThumbnailKey: thumbnailKey,
		MimeType:     input.MimeType,
		Size:         size,
		UploadedById: utils.GetContextUserId(ctx),
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&attachment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &attachment, nil
}

type AttachmentListQuery struct {
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
	EntityType   string `form:"entityType"`
	EntityId     int    `form:"entityId"`
	UploadedById int    `form:"uploadedById"`
}

func PaginateAttachments(ctx context.Context, query *AttachmentListQuery) ([]*Attachment, *Pagination, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Attachment{})

	if query.EntityType != "" {
		if !AttachmentEntityType(query.EntityType).Valid() {
			return nil, nil, utils.NewValidationError("entityType", "invalid entity type")
		}
		dbCtx = dbCtx.Where("entity_type = ?", query.EntityType)
	}
	if query.EntityId > 0 {
		dbCtx = dbCtx.Where("entity_id = ?", query.EntityId)
	}
	if query.UploadedById > 0 {
		dbCtx = dbCtx.Where("uploaded_by_id = ?", query.UploadedById)
	}

	return FetchPageOffset[Attachment](dbCtx.Preload("UploadedBy"), query.Page, query.Limit, "created_at desc")
}

// DeleteAttachment removes the row and then best-effort deletes the
// stored objects; a missing object never fails the request.
func DeleteAttachment(ctx context.Context, id int) (*Attachment, error) {
	attachment, err := utils.FetchModel[Attachment](ctx, id)
	if err != nil {
		return nil, err
	}
	if attachment.UploadedById != utils.GetContextUserId(ctx) && !utils.GetContextIsAdmin(ctx) {
		return nil, utils.ErrorForbidden
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(&attachment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	_ = utils.DeleteObjectFromGCS(ctx, attachment.ObjectKey)
	if attachment.ThumbnailKey != "" {
		_ = utils.DeleteObjectFromGCS(ctx, attachment.ThumbnailKey)
	}

	return attachment, nil
}
