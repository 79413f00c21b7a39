package models

import (
	"context"
	"time"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var maxDailyHours = decimal.NewFromInt(24)

type TimeEntry struct {
	ID          int              `gorm:"primary_key" json:"id"`
	TaskId      int              `gorm:"not null;index" json:"taskId" binding:"required"`
	Task        *Task            `gorm:"foreignKey:TaskId" json:"task,omitempty"`
	ProjectId   int              `gorm:"not null;index" json:"projectId"`
	Project     *Project         `gorm:"foreignKey:ProjectId" json:"project,omitempty"`
	UserId      int              `gorm:"not null;index" json:"userId"`
	User        *User            `gorm:"foreignKey:UserId" json:"user,omitempty"`
	Date        Date             `gorm:"not null;index" json:"date"`
	Hours       decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"hours"`
	Description string           `gorm:"type:text" json:"description"`
	Billable    *bool            `gorm:"not null;default:true" json:"billable"`
	HourlyRate  *decimal.Decimal `gorm:"type:decimal(20,4)" json:"hourlyRate"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}

type NewTimeEntry struct {
	TaskId      int              `json:"taskId" binding:"required"`
	UserId      *int             `json:"userId"`
	Date        Date             `json:"date"`
	Hours       decimal.Decimal  `json:"hours"`
	Description string           `json:"description"`
	Billable    *bool            `json:"billable"`
	HourlyRate  *decimal.Decimal `json:"hourlyRate"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewTimeEntry) validate(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Task](ctx, input.TaskId); err != nil {
		return utils.NewValidationError("taskId", "task does not exist")
	}
	if input.UserId != nil && *input.UserId > 0 {
		if err := utils.ValidateResourceId[User](ctx, *input.UserId); err != nil {
			return utils.NewValidationError("userId", "team member does not exist")
		}
	}
	if input.Date.IsZero() {
		return utils.NewValidationError("date", "is required")
	}
	if !input.Hours.IsPositive() {
		return utils.NewValidationError("hours", "must be greater than zero")
	}
	if input.Hours.GreaterThan(maxDailyHours) {
		return utils.NewValidationError("hours", "cannot exceed 24")
	}
	if input.HourlyRate != nil && input.HourlyRate.IsNegative() {
		return utils.NewValidationError("hourlyRate", "must not be negative")
	}
	return nil
}

func CreateTimeEntry(ctx context.Context, input *NewTimeEntry) (*TimeEntry, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	// project comes off the task, never the caller
	task, err := GetResource[Task](ctx, input.TaskId)
	if err != nil {
		return nil, err
	}

	userId := utils.GetContextUserId(ctx)
	if input.UserId != nil && *input.UserId > 0 {
		userId = *input.UserId
	}

	billable := utils.NewTrue()
	if input.Billable != nil {
		billable = input.Billable
	}

	entry := TimeEntry{
		TaskId:      input.TaskId,
		ProjectId:   task.ProjectId,
		UserId:      userId,
		Date:        input.Date,
		Hours:       input.Hours,
		Description: input.Description,
		Billable:    billable,
		HourlyRate:  input.HourlyRate,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&entry).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &entry, nil
}

func UpdateTimeEntry(ctx context.Context, id int, input *NewTimeEntry) (*TimeEntry, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	entry, err := utils.FetchModel[TimeEntry](ctx, id)
	if err != nil {
		return nil, err
	}

	task, err := GetResource[Task](ctx, input.TaskId)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"TaskId":      input.TaskId,
		"ProjectId":   task.ProjectId,
		"Date":        input.Date,
		"Hours":       input.Hours,
		"Description": input.Description,
		"HourlyRate":  input.HourlyRate,
	}
	if input.UserId != nil && *input.UserId > 0 {
		updates["UserId"] = *input.UserId
	}
	if input.Billable != nil {
		updates["Billable"] = input.Billable
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Model(&entry).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return entry, nil
}

func DeleteTimeEntry(ctx context.Context, id int) (*TimeEntry, error) {
	entry, err := utils.FetchModel[TimeEntry](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(&entry).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func GetTimeEntry(ctx context.Context, id int) (*TimeEntry, error) {
	return utils.FetchModel[TimeEntry](ctx, id, "Task", "Project", "User")
}

type TimeEntryListQuery struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
	TaskId    int    `form:"taskId"`
	ProjectId int    `form:"projectId"`
	UserId    int    `form:"userId"`
	Billable  *bool  `form:"billable"`
	DateFrom  string `form:"dateFrom"`
	DateTo    string `form:"dateTo"`
}

type TimeEntrySummary struct {
	TotalHours     decimal.Decimal `json:"totalHours"`
	BillableHours  decimal.Decimal `json:"billableHours"`
	BillableAmount decimal.Decimal `json:"billableAmount"`
}

var timeEntrySortColumns = map[string]string{
	"date":      "date",
	"hours":     "hours",
	"createdAt": "created_at",
}

func buildTimeEntryFilter(ctx context.Context, query *TimeEntryListQuery) (*gorm.DB, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&TimeEntry{})

	if query.TaskId > 0 {
		dbCtx = dbCtx.Where("task_id = ?", query.TaskId)
	}
	if query.ProjectId > 0 {
		dbCtx = dbCtx.Where("project_id = ?", query.ProjectId)
	}
	if query.UserId > 0 {
		dbCtx = dbCtx.Where("user_id = ?", query.UserId)
	}
	if query.Billable != nil {
		dbCtx = dbCtx.Where("billable = ?", *query.Billable)
	}

	dateFrom, err := ParseDateParam("dateFrom", query.DateFrom)
	if err != nil {
		return nil, err
	}
	dateTo, err := ParseDateParam("dateTo", query.DateTo)
	if err != nil {
		return nil, err
	}
	dbCtx = ApplyDateRange(dbCtx, "date", dateFrom, dateTo)

	return dbCtx, nil
}

func timeEntrySummary(dbCtx *gorm.DB) (*TimeEntrySummary, error) {
	var result struct {
		TotalHours     decimal.Decimal
		BillableHours  decimal.Decimal
		BillableAmount decimal.Decimal
	}
	err := dbCtx.Session(&gorm.Session{}).
		Select(`coalesce(sum(hours), 0) as total_hours,
			coalesce(sum(case when billable then hours else 0 end), 0) as billable_hours,
			coalesce(sum(case when billable then hours * coalesce(hourly_rate, 0) else 0 end), 0) as billable_amount`).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return &TimeEntrySummary{
		TotalHours:     result.TotalHours,
		BillableHours:  result.BillableHours,
		BillableAmount: result.BillableAmount,
	}, nil
}

func PaginateTimeEntries(ctx context.Context, query *TimeEntryListQuery) ([]*TimeEntry, *Pagination, *TimeEntrySummary, error) {
	dbCtx, err := buildTimeEntryFilter(ctx, query)
	if err != nil {
		return nil, nil, nil, err
	}

	order := ResolveSort(query.SortBy, query.SortOrder, timeEntrySortColumns, "date", "desc")
	rows, pagination, err := FetchPageOffset[TimeEntry](dbCtx.Preload("Task").Preload("User"), query.Page, query.Limit, order)
	if err != nil {
		return nil, nil, nil, err
	}

	summary, err := timeEntrySummary(dbCtx)
	if err != nil {
		return nil, nil, nil, err
	}

	return rows, pagination, summary, nil
}

// FetchTimeEntriesForExport returns every row matching the filter with
// relations loaded, ordered for the timesheet.
func FetchTimeEntriesForExport(ctx context.Context, query *TimeEntryListQuery) ([]*TimeEntry, error) {
	dbCtx, err := buildTimeEntryFilter(ctx, query)
	if err != nil {
		return nil, err
	}

	var rows []*TimeEntry
	err = dbCtx.
		Preload("Task").Preload("Project").Preload("User").
		Order("date, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
