package models

import (
	"context"
	"fmt"
	"time"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type Project struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Name         string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Description  string          `gorm:"type:text" json:"description"`
	ClientId     int             `gorm:"not null;index" json:"clientId" binding:"required"`
	Client       *Client         `gorm:"foreignKey:ClientId" json:"client,omitempty"`
	ManagerId    *int            `gorm:"index" json:"managerId"`
	Manager      *User           `gorm:"foreignKey:ManagerId" json:"manager,omitempty"`
	Status       ProjectStatus   `gorm:"size:20;not null;default:PLANNING;index" json:"status"`
	Priority     Priority        `gorm:"size:10;not null;default:MEDIUM" json:"priority"`
	StartDate    *Date           `json:"startDate"`
	EndDate      *Date           `json:"endDate"`
	BudgetAmount decimal.Decimal `gorm:"type:decimal(20,4)" json:"budgetAmount"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

type NewProject struct {
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	ClientId     int             `json:"clientId" binding:"required"`
	ManagerId    *int            `json:"managerId"`
	Status       ProjectStatus   `json:"status"`
	Priority     Priority        `json:"priority"`
	StartDate    *Date           `json:"startDate"`
	EndDate      *Date           `json:"endDate"`
	BudgetAmount decimal.Decimal `json:"budgetAmount"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewProject) validate(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Client](ctx, input.ClientId); err != nil {
		return utils.NewValidationError("clientId", "client does not exist")
	}
	if input.ManagerId != nil && *input.ManagerId > 0 {
		if err := utils.ValidateResourceId[User](ctx, *input.ManagerId); err != nil {
			return utils.NewValidationError("managerId", "team member does not exist")
		}
	}
	if input.Status == "" {
		input.Status = ProjectStatusPlanning
	}
	if !input.Status.Valid() {
		return utils.NewValidationError("status", fmt.Sprintf("%q is not a valid project status", input.Status))
	}
	if input.Priority == "" {
		input.Priority = PriorityMedium
	}
	if !input.Priority.Valid() {
		return utils.NewValidationError("priority", "must be one of LOW, MEDIUM, HIGH, URGENT")
	}
	if input.BudgetAmount.IsNegative() {
		return utils.NewValidationError("budgetAmount", "must not be negative")
	}
	if input.StartDate != nil && input.EndDate != nil &&
		!input.StartDate.IsZero() && !input.EndDate.IsZero() &&
		!input.EndDate.After(*input.StartDate) {
		return utils.NewValidationError("endDate", "must be after startDate")
	}
	return nil
}

func CreateProject(ctx context.Context, input *NewProject) (*Project, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	project := Project{
		Name:         input.Name,
		Description:  input.Description,
		ClientId:     input.ClientId,
		ManagerId:    input.ManagerId,
		Status:       input.Status,
		Priority:     input.Priority,
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		BudgetAmount: input.BudgetAmount,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&project).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &project, nil
}

func UpdateProject(ctx context.Context, id int, input *NewProject) (*Project, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	project, err := utils.FetchModel[Project](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	err = tx.Model(&project).Updates(map[string]interface{}{
		"Name":         input.Name,
		"Description":  input.Description,
		"ClientId":     input.ClientId,
		"ManagerId":    input.ManagerId,
		"Status":       input.Status,
		"Priority":     input.Priority,
		"StartDate":    input.StartDate,
		"EndDate":      input.EndDate,
		"BudgetAmount": input.BudgetAmount,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return project, nil
}

// DeleteProject refuses while the project still has open tasks.
func DeleteProject(ctx context.Context, id int) (*Project, error) {
	project, err := utils.FetchModel[Project](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var blockingTasks []BlockerRef
	err = db.WithContext(ctx).Model(&Task{}).
		Select("id, title as name").
		Where("project_id = ? AND status IN ?", id, []TaskStatus{TaskStatusTodo, TaskStatusInProgress, TaskStatusReview}).
		Scan(&blockingTasks).Error
	if err != nil {
		return nil, err
	}
	if len(blockingTasks) > 0 {
		return nil, utils.NewConflictErrorWithDetails(
			"project still has open tasks",
			map[string]interface{}{"tasks": blockingTasks})
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(&project).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return project, nil
}

type ProjectStats struct {
	TaskCounts        map[string]int64 `json:"taskCounts"`
	CompletionRate    float64          `json:"completionRate"`
	HoursLogged       decimal.Decimal  `json:"hoursLogged"`
	ExpensesTotal     decimal.Decimal  `json:"expensesTotal"`
	BudgetUtilization float64          `json:"budgetUtilization"`
}

type ProjectDetail struct {
	*Project
	Stats *ProjectStats `json:"stats"`
}

// CompletionRate is DONE over everything not CANCELLED; zero when the
// project has no countable tasks.
func CompletionRate(taskCounts map[string]int64) float64 {
	var done, total int64
	for status, count := range taskCounts {
		if status == string(TaskStatusCancelled) {
			continue
		}
		if status == string(TaskStatusDone) {
			done = count
		}
		total += count
	}
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total)
}

func GetProjectDetail(ctx context.Context, id int) (*ProjectDetail, error) {
	project, err := utils.FetchModel[Project](ctx, id, "Client", "Manager")
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	stats := ProjectStats{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := CountByColumn(db.WithContext(gctx).Model(&Task{}).Where("project_id = ?", id), "status")
		stats.TaskCounts = counts
		return err
	})
	g.Go(func() error {
		hours, err := SumColumn(db.WithContext(gctx).Model(&TimeEntry{}).Where("project_id = ?", id), "hours")
		stats.HoursLogged = hours
		return err
	})
	g.Go(func() error {
		total, err := SumColumn(
			db.WithContext(gctx).Model(&Expense{}).
				Where("project_id = ? AND status != ?", id, ExpenseStatusRejected),
			"amount")
		stats.ExpensesTotal = total
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.CompletionRate = CompletionRate(stats.TaskCounts)
	if project.BudgetAmount.IsPositive() {
		utilization, _ := stats.ExpensesTotal.Div(project.BudgetAmount).Float64()
		stats.BudgetUtilization = utilization
	}

	return &ProjectDetail{Project: project, Stats: &stats}, nil
}

type ProjectListQuery struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
	Search    string `form:"search"`
	Status    string `form:"status"`
	Priority  string `form:"priority"`
	ClientId  int    `form:"clientId"`
	ManagerId int    `form:"managerId"`
	DateFrom  string `form:"dateFrom"`
	DateTo    string `form:"dateTo"`
}

type ProjectSummary struct {
	CountsByStatus map[string]int64 `json:"countsByStatus"`
	TotalBudget    decimal.Decimal  `json:"totalBudget"`
}

var projectSortColumns = map[string]string{
	"name":         "name",
	"status":       "status",
	"priority":     "priority",
	"startDate":    "start_date",
	"endDate":      "end_date",
	"budgetAmount": "budget_amount",
	"createdAt":    "created_at",
}

func PaginateProjects(ctx context.Context, query *ProjectListQuery) ([]*Project, *Pagination, *ProjectSummary, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Project{})

	if query.Status != "" {
		if !ProjectStatus(query.Status).Valid() {
			return nil, nil, nil, utils.NewValidationError("status", fmt.Sprintf("%q is not a valid project status", query.Status))
		}
		dbCtx = dbCtx.Where("status = ?", query.Status)
	}
	if query.Priority != "" {
		if !Priority(query.Priority).Valid() {
			return nil, nil, nil, utils.NewValidationError("priority", "must be one of LOW, MEDIUM, HIGH, URGENT")
		}
		dbCtx = dbCtx.Where("priority = ?", query.Priority)
	}
	if query.ClientId > 0 {
		dbCtx = dbCtx.Where("client_id = ?", query.ClientId)
	}
	if query.ManagerId > 0 {
		dbCtx = dbCtx.Where("manager_id = ?", query.ManagerId)
	}
	dbCtx = ApplySearch(dbCtx, query.Search, "name", "description")

	dateFrom, err := ParseDateParam("dateFrom", query.DateFrom)
	if err != nil {
		return nil, nil, nil, err
	}
	dateTo, err := ParseDateParam("dateTo", query.DateTo)
	if err != nil {
		return nil, nil, nil, err
	}
	dbCtx = ApplyDateRange(dbCtx, "start_date", dateFrom, dateTo)

	order := ResolveSort(query.SortBy, query.SortOrder, projectSortColumns, "createdAt", "desc")
	rows, pagination, err := FetchPageOffset[Project](dbCtx.Preload("Client").Preload("Manager"), query.Page, query.Limit, order)
	if err != nil {
		return nil, nil, nil, err
	}

	counts, err := CountByColumn(dbCtx, "status")
	if err != nil {
		return nil, nil, nil, err
	}
	totalBudget, err := SumColumn(dbCtx, "budget_amount")
	if err != nil {
		return nil, nil, nil, err
	}

	summary := &ProjectSummary{CountsByStatus: counts, TotalBudget: totalBudget}
	return rows, pagination, summary, nil
}
