package models

import (
	"context"
	"fmt"
	"time"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/utils"
	"github.com/shopspring/decimal"
)

type Budget struct {
	ID          int              `gorm:"primary_key" json:"id"`
	Name        string           `gorm:"size:100;not null" json:"name" binding:"required"`
	Period      BudgetPeriod     `gorm:"size:20;not null;index" json:"period"`
	StartDate   Date             `gorm:"not null;index" json:"startDate"`
	EndDate     Date             `gorm:"not null" json:"endDate"`
	TotalAmount decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"totalAmount"`
	ProjectId   *int             `gorm:"index" json:"projectId"`
	Project     *Project         `gorm:"foreignKey:ProjectId" json:"project,omitempty"`
	ClientId    *int             `gorm:"index" json:"clientId"`
	Client      *Client          `gorm:"foreignKey:ClientId" json:"client,omitempty"`
	Notes       string           `gorm:"type:text" json:"notes"`
	Categories  []BudgetCategory `gorm:"foreignKey:BudgetId" json:"categories"`
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}

// BudgetCategory rows are owned by their budget and replaced wholesale
// on every update.
type BudgetCategory struct {
	ID              int             `gorm:"primary_key" json:"id"`
	BudgetId        int             `gorm:"not null;index" json:"budgetId"`
	Category        ExpenseCategory `gorm:"size:20;not null" json:"category"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"allocatedAmount"`
}

type NewBudgetCategory struct {
	Category        ExpenseCategory `json:"category" binding:"required"`
	AllocatedAmount decimal.Decimal `json:"allocatedAmount"`
}

type NewBudget struct {
	Name        string              `json:"name" binding:"required"`
	Period      BudgetPeriod        `json:"period" binding:"required"`
	StartDate   Date                `json:"startDate"`
	EndDate     Date                `json:"endDate"`
	TotalAmount decimal.Decimal     `json:"totalAmount"`
	ProjectId   *int                `json:"projectId"`
	ClientId    *int                `json:"clientId"`
	Notes       string              `json:"notes"`
	Categories  []NewBudgetCategory `json:"categories"`
}

// ValidateBudgetAllocations rejects category lists whose allocations
// exceed the budget total or repeat a category.
func ValidateBudgetAllocations(totalAmount decimal.Decimal, categories []NewBudgetCategory) error {
	seen := map[ExpenseCategory]bool{}
	allocated := decimal.Zero
	for _, category := range categories {
		if !category.Category.Valid() {
			return utils.NewValidationError("categories", fmt.Sprintf("%q is not a valid expense category", category.Category))
		}
		if seen[category.Category] {
			return utils.NewValidationError("categories", fmt.Sprintf("category %s appears more than once", category.Category))
		}
		seen[category.Category] = true
		if category.AllocatedAmount.IsNegative() {
			return utils.NewValidationError("categories", "allocated amounts must not be negative")
		}
		allocated = allocated.Add(category.AllocatedAmount)
	}
	if allocated.GreaterThan(totalAmount) {
		return utils.NewValidationError("categories",
			fmt.Sprintf("allocated total %s exceeds budget total %s", allocated.String(), totalAmount.String()))
	}
	return nil
}

// validate input for both create & update. (id = 0 for create)
func (input *NewBudget) validate(ctx context.Context, id int) error {
	if !input.Period.Valid() {
		return utils.NewValidationError("period", "must be one of MONTHLY, QUARTERLY, YEARLY, PROJECT")
	}
	if input.StartDate.IsZero() {
		return utils.NewValidationError("startDate", "is required")
	}
	if input.EndDate.IsZero() {
		return utils.NewValidationError("endDate", "is required")
	}
	if !input.EndDate.After(input.StartDate) {
		return utils.NewValidationError("endDate", "must be after the start date")
	}
	if !input.TotalAmount.IsPositive() {
		return utils.NewValidationError("totalAmount", "must be greater than zero")
	}
	if input.ProjectId != nil && *input.ProjectId > 0 {
		if err := utils.ValidateResourceId[Project](ctx, *input.ProjectId); err != nil {
			return utils.NewValidationError("projectId", "project does not exist")
		}
	}
	if input.ClientId != nil && *input.ClientId > 0 {
		if err := utils.ValidateResourceId[Client](ctx, *input.ClientId); err != nil {
			return utils.NewValidationError("clientId", "client does not exist")
		}
	}
	return ValidateBudgetAllocations(input.TotalAmount, input.Categories)
}

func (input *NewBudget) buildCategories(budgetId int) []BudgetCategory {
	categories := make([]BudgetCategory, 0, len(input.Categories))
	for _, category := range input.Categories {
		categories = append(categories, BudgetCategory{
			BudgetId:        budgetId,
			Category:        category.Category,
			AllocatedAmount: category.AllocatedAmount,
		})
	}
	return categories
}

func CreateBudget(ctx context.Context, input *NewBudget) (*Budget, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	budget := Budget{
		Name:        input.Name,
		Period:      input.Period,
		StartDate:   input.StartDate,
		EndDate:     input.EndDate,
		TotalAmount: input.TotalAmount,
		ProjectId:   input.ProjectId,
		ClientId:    input.ClientId,
		Notes:       input.Notes,
		Categories:  input.buildCategories(0),
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&budget).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &budget, nil
}

func UpdateBudget(ctx context.Context, id int, input *NewBudget) (*Budget, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	budget, err := utils.FetchModel[Budget](ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"Name":        input.Name,
		"Period":      input.Period,
		"StartDate":   input.StartDate,
		"EndDate":     input.EndDate,
		"TotalAmount": input.TotalAmount,
		"ProjectId":   input.ProjectId,
		"ClientId":    input.ClientId,
		"Notes":       input.Notes,
	}

	categories := input.buildCategories(id)

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Model(&budget).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Where("budget_id = ?", id).Delete(&BudgetCategory{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if len(categories) > 0 {
		if err := tx.Create(&categories).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	budget.Categories = categories
	return budget, nil
}

func DeleteBudget(ctx context.Context, id int) (*Budget, error) {
	budget, err := utils.FetchModel[Budget](ctx, id, "Categories")
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Where("budget_id = ?", id).Delete(&BudgetCategory{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(&budget).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return budget, nil
}

func GetBudget(ctx context.Context, id int) (*Budget, error) {
	return utils.FetchModel[Budget](ctx, id, "Categories", "Project", "Client")
}

type BudgetListQuery struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
	Period    string `form:"period"`
	ProjectId int    `form:"projectId"`
	ClientId  int    `form:"clientId"`
	Search    string `form:"search"`
	DateFrom  string `form:"dateFrom"`
	DateTo    string `form:"dateTo"`
}

var budgetSortColumns = map[string]string{
	"name":        "name",
	"period":      "period",
	"totalAmount": "total_amount",
	"startDate":   "start_date",
	"createdAt":   "created_at",
}

func PaginateBudgets(ctx context.Context, query *BudgetListQuery) ([]*Budget, *Pagination, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Budget{})

	if query.Period != "" {
		if !BudgetPeriod(query.Period).Valid() {
			return nil, nil, utils.NewValidationError("period", "invalid budget period")
		}
		dbCtx = dbCtx.Where("period = ?", query.Period)
	}
	if query.ProjectId > 0 {
		dbCtx = dbCtx.Where("project_id = ?", query.ProjectId)
	}
	if query.ClientId > 0 {
		dbCtx = dbCtx.Where("client_id = ?", query.ClientId)
	}
	dbCtx = ApplySearch(dbCtx, query.Search, "name")

	// date params select budgets whose window overlaps the given range
	dateFrom, err := ParseDateParam("dateFrom", query.DateFrom)
	if err != nil {
		return nil, nil, err
	}
	dateTo, err := ParseDateParam("dateTo", query.DateTo)
	if err != nil {
		return nil, nil, err
	}
	if dateFrom != nil {
		dbCtx = dbCtx.Where("end_date >= ?", dateFrom)
	}
	if dateTo != nil {
		dbCtx = dbCtx.Where("start_date <= ?", dateTo)
	}

	order := ResolveSort(query.SortBy, query.SortOrder, budgetSortColumns, "startDate", "desc")
	return FetchPageOffset[Budget](dbCtx.Preload("Project").Preload("Client"), query.Page, query.Limit, order)
}

// UtilizationRate is spent over total, zero when there is no total to
// measure against.
func UtilizationRate(spent, total decimal.Decimal) float64 {
	if !total.IsPositive() {
		return 0
	}
	rate, _ := spent.Div(total).Float64()
	return rate
}

type BudgetCategoryUtilization struct {
	Category        ExpenseCategory `json:"category"`
	AllocatedAmount decimal.Decimal `json:"allocatedAmount"`
	SpentAmount     decimal.Decimal `json:"spentAmount"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	UtilizationRate float64         `json:"utilizationRate"`
}

type BudgetUtilization struct {
	BudgetId        int                         `json:"budgetId"`
	Name            string                      `json:"name"`
	Period          BudgetPeriod                `json:"period"`
	StartDate       Date                        `json:"startDate"`
	EndDate         Date                        `json:"endDate"`
	TotalAmount     decimal.Decimal             `json:"totalAmount"`
	SpentAmount     decimal.Decimal             `json:"spentAmount"`
	RemainingAmount decimal.Decimal             `json:"remainingAmount"`
	UtilizationRate float64                     `json:"utilizationRate"`
	OverBudget      bool                        `json:"overBudget"`
	Categories      []BudgetCategoryUtilization `json:"categories"`
}

// budgetSpendByCategory sums approved and reimbursed expense amounts
// per category inside the budget window, scoped to the budget's
// project or client when one is set.
func budgetSpendByCategory(ctx context.Context, budget *Budget) (map[ExpenseCategory]decimal.Decimal, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Expense{}).
		Where("expenses.status IN ?", lockedExpenseStatuses).
		Where("expenses.date >= ? AND expenses.date <= ?", budget.StartDate, budget.EndDate)

	if budget.ProjectId != nil {
		dbCtx = dbCtx.Where("expenses.project_id = ?", *budget.ProjectId)
	} else if budget.ClientId != nil {
		dbCtx = dbCtx.
			Joins("JOIN projects ON projects.id = expenses.project_id").
			Where("projects.client_id = ?", *budget.ClientId)
	}

	var rows []struct {
		Category ExpenseCategory
		Total    decimal.Decimal
	}
	err := dbCtx.
		Select("expenses.category, coalesce(sum(expenses.amount), 0) as total").
		Group("expenses.category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	spend := map[ExpenseCategory]decimal.Decimal{}
	for _, row := range rows {
		spend[row.Category] = row.Total
	}
	return spend, nil
}

func GetBudgetUtilization(ctx context.Context, id int) (*BudgetUtilization, error) {
	budget, err := utils.FetchModel[Budget](ctx, id, "Categories")
	if err != nil {
		return nil, err
	}

	spend, err := budgetSpendByCategory(ctx, budget)
	if err != nil {
		return nil, err
	}

	categories := make([]BudgetCategoryUtilization, 0, len(budget.Categories))
	totalSpent := decimal.Zero
	for _, category := range budget.Categories {
		spent := spend[category.Category]
		totalSpent = totalSpent.Add(spent)
		delete(spend, category.Category)
		categories = append(categories, BudgetCategoryUtilization{
			Category:        category.Category,
			AllocatedAmount: category.AllocatedAmount,
			SpentAmount:     spent,
			RemainingAmount: category.AllocatedAmount.Sub(spent),
			UtilizationRate: UtilizationRate(spent, category.AllocatedAmount),
		})
	}
	// spend in categories the budget never allocated still counts
	for category, spent := range spend {
		totalSpent = totalSpent.Add(spent)
		categories = append(categories, BudgetCategoryUtilization{
			Category:        category,
			AllocatedAmount: decimal.Zero,
			SpentAmount:     spent,
			RemainingAmount: spent.Neg(),
		})
	}

	return &BudgetUtilization{
		BudgetId:        budget.ID,
		Name:            budget.Name,
		Period:          budget.Period,
		StartDate:       budget.StartDate,
		EndDate:         budget.EndDate,
		TotalAmount:     budget.TotalAmount,
		SpentAmount:     totalSpent,
		RemainingAmount: budget.TotalAmount.Sub(totalSpent),
		UtilizationRate: UtilizationRate(totalSpent, budget.TotalAmount),
		OverBudget:      totalSpent.GreaterThan(budget.TotalAmount),
		Categories:      categories,
	}, nil
}
