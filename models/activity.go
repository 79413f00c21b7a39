package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/utils"
	"gorm.io/gorm"
)

// Activity is the audit trail. Rows are written by entity lifecycle
// hooks inside the mutation's transaction; NOTE rows may also be
// created manually.
type Activity struct {
	ID          int          `gorm:"primary_key" json:"id"`
	Type        ActivityType `gorm:"size:20;not null;index" json:"type"`
	EntityType  string       `gorm:"size:50;index:idx_activities_entity" json:"entityType"`
	EntityId    int          `gorm:"index:idx_activities_entity" json:"entityId"`
	Description string       `gorm:"type:text" json:"description"`
	Before      string       `gorm:"type:text" json:"before,omitempty"`
	After       string       `gorm:"type:text" json:"after,omitempty"`
	UserId      int          `gorm:"index" json:"userId"`
	UserName    string       `gorm:"size:100" json:"userName"`
	CreatedAt   time.Time    `gorm:"autoCreateTime" json:"createdAt"`
}

type NewActivity struct {
	Type        ActivityType `json:"type"`
	EntityType  string       `json:"entityType"`
	EntityId    int          `json:"entityId"`
	Description string       `json:"description" binding:"required"`
}

func entityTypeFromStatement(tx *gorm.DB) string {
	if tx.Statement != nil && tx.Statement.Schema != nil {
		return tx.Statement.Schema.Name
	}
	if tx.Statement != nil {
		return tx.Statement.Table
	}
	return ""
}

func createActivity(tx *gorm.DB,
	activityType ActivityType,
	entityId int,
	entityType string,
	before interface{},
	after interface{},
	description string) (err error) {

	var activity Activity

	var b, a []byte
	if before != nil {
		b, _ = json.Marshal(before)
	}
	if after != nil {
		a, _ = json.Marshal(after)
	}

	ctx := tx.Statement.Context
	userId := utils.GetContextUserId(ctx)
	if userId == 0 {
		return errors.New("user id is required")
	}
	userName := utils.GetContextUserName(ctx)

	activity.Type = activityType
	activity.EntityType = entityType
	activity.EntityId = entityId
	activity.Before = string(b)
	activity.After = string(a)
	activity.Description = description
	activity.UserId = userId
	activity.UserName = userName

	err = tx.Create(&activity).Error
	return err
}

func SaveActivityCreate(tx *gorm.DB, id int, obj interface{}, description string) error {
	return createActivity(tx, ActivityTypeCreate, id, entityTypeFromStatement(tx), nil, obj, description)
}

func SaveActivityUpdate(tx *gorm.DB, id int, currentValue interface{}, description string) error {
	newValue := tx.Statement.Dest
	return createActivity(tx, ActivityTypeUpdate, id, entityTypeFromStatement(tx), currentValue, newValue, description)
}

func SaveActivityDelete(tx *gorm.DB, id int, obj interface{}, description string) error {
	return createActivity(tx, ActivityTypeDelete, id, entityTypeFromStatement(tx), obj, nil, description)
}

// SaveActivityEvent records the non-CRUD actions (STATUS_CHANGE,
// CONVERT, APPROVE, REJECT, PAYMENT) with an explicit entity type.
func SaveActivityEvent(tx *gorm.DB, activityType ActivityType, entityType string, id int, before interface{}, after interface{}, description string) error {
	return createActivity(tx, activityType, id, entityType, before, after, description)
}

// CreateNote stores a manual NOTE activity for the current user.
func CreateNote(ctx context.Context, input *NewActivity) (*Activity, error) {
	if input.Type != "" && input.Type != ActivityTypeNote {
		return nil, utils.NewValidationError("type", "only NOTE activities can be created manually")
	}

	userId := utils.GetContextUserId(ctx)
	if userId == 0 {
		return nil, errors.New("user id is required")
	}

	activity := Activity{
		Type:        ActivityTypeNote,
		EntityType:  input.EntityType,
		EntityId:    input.EntityId,
		Description: input.Description,
		UserId:      userId,
		UserName:    utils.GetContextUserName(ctx),
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Create(&activity).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func GetActivity(ctx context.Context, id int) (*Activity, error) {
	return utils.FetchModel[Activity](ctx, id)
}

type ActivityListQuery struct {
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
	SortOrder  string `form:"sortOrder"`
	Type       string `form:"type"`
	EntityType string `form:"entityType"`
	EntityId   int    `form:"entityId"`
	UserId     int    `form:"userId"`
	DateFrom   string `form:"dateFrom"`
	DateTo     string `form:"dateTo"`
}

func PaginateActivities(ctx context.Context, query *ActivityListQuery) ([]*Activity, *Pagination, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Activity{})

	if query.Type != "" {
		if !ActivityType(query.Type).Valid() {
			return nil, nil, utils.NewValidationError("type", "invalid activity type")
		}
		dbCtx = dbCtx.Where("type = ?", query.Type)
	}
	if query.EntityType != "" {
		dbCtx = dbCtx.Where("entity_type = ?", query.EntityType)
	}
	if query.EntityId > 0 {
		dbCtx = dbCtx.Where("entity_id = ?", query.EntityId)
	}
	if query.UserId > 0 {
		dbCtx = dbCtx.Where("user_id = ?", query.UserId)
	}

	dateFrom, err := ParseDateParam("dateFrom", query.DateFrom)
	if err != nil {
		return nil, nil, err
	}
	dateTo, err := ParseDateParam("dateTo", query.DateTo)
	if err != nil {
		return nil, nil, err
	}
	dbCtx = ApplyDateRange(dbCtx, "created_at", dateFrom, dateTo)

	order := "created_at desc"
	if query.SortOrder == "asc" {
		order = "created_at asc"
	}

	return FetchPageOffset[Activity](dbCtx, query.Page, query.Limit, order)
}

func DeleteActivity(ctx context.Context, id int) (*Activity, error) {
	result, err := utils.FetchModel[Activity](ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Delete(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteActivities removes the given rows, reporting how many matched.
func DeleteActivities(ctx context.Context, ids []int) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	db := config.GetDB()
	result := db.WithContext(ctx).Where("id IN ?", utils.UniqueSlice(ids)).Delete(&Activity{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
