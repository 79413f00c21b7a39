package models

import (
	"context"
	"fmt"
	"time"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Task struct {
	ID             int             `gorm:"primary_key" json:"id"`
	Title          string          `gorm:"size:200;not null" json:"title" binding:"required"`
	Description    string          `gorm:"type:text" json:"description"`
	ProjectId      int             `gorm:"not null;index" json:"projectId" binding:"required"`
	Project        *Project        `gorm:"foreignKey:ProjectId" json:"project,omitempty"`
	AssigneeId     *int            `gorm:"index" json:"assigneeId"`
	Assignee       *User           `gorm:"foreignKey:AssigneeId" json:"assignee,omitempty"`
	Status         TaskStatus      `gorm:"size:20;not null;default:TODO;index" json:"status"`
	Priority       Priority        `gorm:"size:10;not null;default:MEDIUM" json:"priority"`
	DueDate        *Date           `json:"dueDate"`
	EstimatedHours decimal.Decimal `gorm:"type:decimal(20,4)" json:"estimatedHours"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

type NewTask struct {
	Title          string          `json:"title" binding:"required"`
	Description    string          `json:"description"`
	ProjectId      int             `json:"projectId" binding:"required"`
	AssigneeId     *int            `json:"assigneeId"`
	Status         TaskStatus      `json:"status"`
	Priority       Priority        `json:"priority"`
	DueDate        *Date           `json:"dueDate"`
	EstimatedHours decimal.Decimal `json:"estimatedHours"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewTask) validate(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Project](ctx, input.ProjectId); err != nil {
		return utils.NewValidationError("projectId", "project does not exist")
	}
	if input.AssigneeId != nil && *input.AssigneeId > 0 {
		if err := utils.ValidateResourceId[User](ctx, *input.AssigneeId); err != nil {
			return utils.NewValidationError("assigneeId", "team member does not exist")
		}
	}
	if input.Status == "" {
		input.Status = TaskStatusTodo
	}
	if !input.Status.Valid() {
		return utils.NewValidationError("status", fmt.Sprintf("%q is not a valid task status", input.Status))
	}
	if input.Priority == "" {
		input.Priority = PriorityMedium
	}
	if !input.Priority.Valid() {
		return utils.NewValidationError("priority", "must be one of LOW, MEDIUM, HIGH, URGENT")
	}
	if input.EstimatedHours.IsNegative() {
		return utils.NewValidationError("estimatedHours", "must not be negative")
	}
	return nil
}

func CreateTask(ctx context.Context, input *NewTask) (*Task, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	task := Task{
		Title:          input.Title,
		Description:    input.Description,
		ProjectId:      input.ProjectId,
		AssigneeId:     input.AssigneeId,
		Status:         input.Status,
		Priority:       input.Priority,
		DueDate:        input.DueDate,
		EstimatedHours: input.EstimatedHours,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&task).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &task, nil
}

func UpdateTask(ctx context.Context, id int, input *NewTask) (*Task, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	task, err := utils.FetchModel[Task](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	err = tx.Model(&task).Updates(map[string]interface{}{
		"Title":          input.Title,
		"Description":    input.Description,
		"ProjectId":      input.ProjectId,
		"AssigneeId":     input.AssigneeId,
		"Status":         input.Status,
		"Priority":       input.Priority,
		"DueDate":        input.DueDate,
		"EstimatedHours": input.EstimatedHours,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return task, nil
}

// DeleteTask refuses while time entries reference the task.
func DeleteTask(ctx context.Context, id int) (*Task, error) {
	task, err := utils.FetchModel[Task](ctx, id)
	if err != nil {
		return nil, err
	}

	entryCount, err := utils.ResourceCountWhere[TimeEntry](ctx, "task_id = ?", id)
	if err != nil {
		return nil, err
	}
	if entryCount > 0 {
		return nil, utils.NewConflictErrorWithDetails(
			"task has logged time entries",
			map[string]interface{}{"timeEntryCount": entryCount})
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(&task).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return task, nil
}

func GetTask(ctx context.Context, id int) (*Task, error) {
	return utils.FetchModel[Task](ctx, id, "Project", "Assignee")
}

type TaskListQuery struct {
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
	SortBy     string `form:"sortBy"`
	SortOrder  string `form:"sortOrder"`
	Search     string `form:"search"`
	Status     string `form:"status"`
	Priority   string `form:"priority"`
	ProjectId  int    `form:"projectId"`
	AssigneeId int    `form:"assigneeId"`
	DueFrom    string `form:"dueFrom"`
	DueTo      string `form:"dueTo"`
}

type TaskSummary struct {
	CountsByStatus map[string]int64 `json:"countsByStatus"`
	OverdueCount   int64            `json:"overdueCount"`
}

var taskSortColumns = map[string]string{
	"title":     "title",
	"status":    "status",
	"priority":  "priority",
	"dueDate":   "due_date",
	"createdAt": "created_at",
}

func PaginateTasks(ctx context.Context, query *TaskListQuery) ([]*Task, *Pagination, *TaskSummary, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Task{})

	if query.Status != "" {
		if !TaskStatus(query.Status).Valid() {
			return nil, nil, nil, utils.NewValidationError("status", fmt.Sprintf("%q is not a valid task status", query.Status))
		}
		dbCtx = dbCtx.Where("status = ?", query.Status)
	}
	if query.Priority != "" {
		if !Priority(query.Priority).Valid() {
			return nil, nil, nil, utils.NewValidationError("priority", "must be one of LOW, MEDIUM, HIGH, URGENT")
		}
		dbCtx = dbCtx.Where("priority = ?", query.Priority)
	}
	if query.ProjectId > 0 {
		dbCtx = dbCtx.Where("project_id = ?", query.ProjectId)
	}
	if query.AssigneeId > 0 {
		dbCtx = dbCtx.Where("assignee_id = ?", query.AssigneeId)
	}
	dbCtx = ApplySearch(dbCtx, query.Search, "title", "description")

	dueFrom, err := ParseDateParam("dueFrom", query.DueFrom)
	if err != nil {
		return nil, nil, nil, err
	}
	dueTo, err := ParseDateParam("dueTo", query.DueTo)
	if err != nil {
		return nil, nil, nil, err
	}
	dbCtx = ApplyDateRange(dbCtx, "due_date", dueFrom, dueTo)

	order := ResolveSort(query.SortBy, query.SortOrder, taskSortColumns, "createdAt", "desc")
	rows, pagination, err := FetchPageOffset[Task](dbCtx.Preload("Project").Preload("Assignee"), query.Page, query.Limit, order)
	if err != nil {
		return nil, nil, nil, err
	}

	counts, err := CountByColumn(dbCtx, "status")
	if err != nil {
		return nil, nil, nil, err
	}

	var overdue int64
	err = dbCtx.Session(&gorm.Session{}).
		Where("due_date < ? AND status IN ?", Today(),
			[]TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusReview}).
		Count(&overdue).Error
	if err != nil {
		return nil, nil, nil, err
	}

	summary := &TaskSummary{CountsByStatus: counts, OverdueCount: overdue}
	return rows, pagination, summary, nil
}

type TaskBulkUpdate struct {
	Status     *TaskStatus `json:"status"`
	Priority   *Priority   `json:"priority"`
	AssigneeId *int        `json:"assigneeId"`
}

type BulkTaskInput struct {
	Ids    []int           `json:"ids" binding:"required,min=1"`
	Update *TaskBulkUpdate `json:"update"`
}

func BulkUpdateTasks(ctx context.Context, ids []int, update *TaskBulkUpdate) (int64, error) {
	if update == nil || (update.Status == nil && update.Priority == nil && update.AssigneeId == nil) {
		return 0, utils.NewValidationError("update", "no updatable fields provided")
	}

	updates := map[string]interface{}{}
	if update.Status != nil {
		if !update.Status.Valid() {
			return 0, utils.NewValidationError("status", fmt.Sprintf("%q is not a valid task status", *update.Status))
		}
		updates["Status"] = *update.Status
	}
	if update.Priority != nil {
		if !update.Priority.Valid() {
			return 0, utils.NewValidationError("priority", "must be one of LOW, MEDIUM, HIGH, URGENT")
		}
		updates["Priority"] = *update.Priority
	}
	if update.AssigneeId != nil {
		if *update.AssigneeId > 0 {
			if err := utils.ValidateResourceId[User](ctx, *update.AssigneeId); err != nil {
				return 0, utils.NewValidationError("assigneeId", "team member does not exist")
			}
		}
		updates["AssigneeId"] = update.AssigneeId
	}

	ids = utils.UniqueSlice(ids)
	if err := utils.ValidateResourcesId[Task](ctx, ids); err != nil {
		return 0, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	result := tx.Session(&gorm.Session{SkipHooks: true}).
		Model(&Task{}).
		Where("id IN ?", ids).
		Updates(updates)
	if result.Error != nil {
		tx.Rollback()
		return 0, result.Error
	}
	err := SaveActivityEvent(tx, ActivityTypeUpdate, "Task", 0, nil,
		map[string]interface{}{"ids": ids, "update": update},
		fmt.Sprintf("Bulk updated %d tasks.", result.RowsAffected))
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit().Error; err != nil {
		return 0, err
	}
	return result.RowsAffected, nil
}

// BulkDeleteTasks is all or nothing: when any task still has time
// entries the whole call conflicts, listing the blocked ids.
func BulkDeleteTasks(ctx context.Context, ids []int) (int64, error) {
	ids = utils.UniqueSlice(ids)
	if err := utils.ValidateResourcesId[Task](ctx, ids); err != nil {
		return 0, err
	}

	db := config.GetDB()
	var blockedIds []int
	err := db.WithContext(ctx).Model(&TimeEntry{}).
		Distinct("task_id").
		Where("task_id IN ?", ids).
		Pluck("task_id", &blockedIds).Error
	if err != nil {
		return 0, err
	}
	if len(blockedIds) > 0 {
		return 0, utils.NewConflictErrorWithDetails(
			"some tasks have logged time entries",
			map[string]interface{}{"blockedIds": blockedIds})
	}

	tx := db.WithContext(ctx).Begin()
	result := tx.Session(&gorm.Session{SkipHooks: true}).
		Where("id IN ?", ids).
		Delete(&Task{})
	if result.Error != nil {
		tx.Rollback()
		return 0, result.Error
	}
	err = SaveActivityEvent(tx, ActivityTypeDelete, "Task", 0,
		map[string]interface{}{"ids": ids}, nil,
		fmt.Sprintf("Bulk deleted %d tasks.", result.RowsAffected))
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit().Error; err != nil {
		return 0, err
	}
	return result.RowsAffected, nil
}
