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

var lockedExpenseStatuses = []ExpenseStatus{ExpenseStatusApproved, ExpenseStatusReimbursed}

type Expense struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Description  string          `gorm:"size:255;not null" json:"description" binding:"required"`
	Category     ExpenseCategory `gorm:"size:20;not null;index" json:"category"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	TaxAmount    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"taxAmount"`
	Date         Date            `gorm:"not null;index" json:"date"`
	Vendor       string          `gorm:"size:100" json:"vendor"`
	Status       ExpenseStatus   `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	Reimbursable *bool           `gorm:"not null;default:false" json:"reimbursable"`
	ProjectId    *int            `gorm:"index" json:"projectId"`
	Project      *Project        `gorm:"foreignKey:ProjectId" json:"project,omitempty"`
	UserId       int             `gorm:"not null;index" json:"userId"`
	User         *User           `gorm:"foreignKey:UserId" json:"user,omitempty"`
	Notes        string          `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

// NewExpense carries no status on purpose; expenses start PENDING and
// move through approve/reject (or an admin bulk update).
type NewExpense struct {
	Description  string           `json:"description" binding:"required"`
	Category     ExpenseCategory  `json:"category" binding:"required"`
	Amount       decimal.Decimal  `json:"amount"`
	TaxAmount    *decimal.Decimal `json:"taxAmount"`
	Date         Date             `json:"date"`
	Vendor       string           `json:"vendor"`
	Reimbursable *bool            `json:"reimbursable"`
	ProjectId    *int             `json:"projectId"`
	UserId       *int             `json:"userId"`
	Notes        string           `json:"notes"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewExpense) validate(ctx context.Context, id int) error {
	if !input.Category.Valid() {
		return utils.NewValidationError("category", "invalid expense category")
	}
	if !input.Amount.IsPositive() {
		return utils.NewValidationError("amount", "must be greater than zero")
	}
	if input.TaxAmount != nil && input.TaxAmount.IsNegative() {
		return utils.NewValidationError("taxAmount", "must not be negative")
	}
	if input.Date.IsZero() {
		return utils.NewValidationError("date", "is required")
	}
	if input.ProjectId != nil && *input.ProjectId > 0 {
		if err := utils.ValidateResourceId[Project](ctx, *input.ProjectId); err != nil {
			return utils.NewValidationError("projectId", "project does not exist")
		}
	}
	if input.UserId != nil && *input.UserId > 0 {
		if err := utils.ValidateResourceId[User](ctx, *input.UserId); err != nil {
			return utils.NewValidationError("userId", "team member does not exist")
		}
	}
	return nil
}

// lockedForUser reports whether the current caller may still mutate the
// expense. Approved and reimbursed rows are read-only for non-admins.
func (expense *Expense) lockedForUser(ctx context.Context) bool {
	return expense.Status.Locked() && !utils.GetContextIsAdmin(ctx)
}

func CreateExpense(ctx context.Context, input *NewExpense) (*Expense, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	userId := utils.GetContextUserId(ctx)
	if input.UserId != nil && *input.UserId > 0 {
		userId = *input.UserId
	}

	taxAmount := decimal.Zero
	if input.TaxAmount != nil {
		taxAmount = *input.TaxAmount
	}

	reimbursable := utils.NewFalse()
	if input.Reimbursable != nil {
		reimbursable = input.Reimbursable
	}

	expense := Expense{
		Description:  input.Description,
		Category:     input.Category,
		Amount:       input.Amount,
		TaxAmount:    taxAmount,
		Date:         input.Date,
		Vendor:       input.Vendor,
		Status:       ExpenseStatusPending,
		Reimbursable: reimbursable,
		ProjectId:    input.ProjectId,
		UserId:       userId,
		Notes:        input.Notes,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&expense).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &expense, nil
}

func UpdateExpense(ctx context.Context, id int, input *NewExpense) (*Expense, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	expense, err := utils.FetchModel[Expense](ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.lockedForUser(ctx) {
		return nil, utils.NewConflictErrorWithDetails("expense is locked once approved",
			map[string]interface{}{"status": expense.Status})
	}

	updates := map[string]interface{}{
		"Description": input.Description,
		"Category":    input.Category,
		"Amount":      input.Amount,
		"Date":        input.Date,
		"Vendor":      input.Vendor,
		"ProjectId":   input.ProjectId,
		"Notes":       input.Notes,
	}
	if input.TaxAmount != nil {
		updates["TaxAmount"] = *input.TaxAmount
	}
	if input.Reimbursable != nil {
		updates["Reimbursable"] = input.Reimbursable
	}
	if input.UserId != nil && *input.UserId > 0 {
		updates["UserId"] = *input.UserId
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Model(&expense).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return expense, nil
}

func DeleteExpense(ctx context.Context, id int) (*Expense, error) {
	expense, err := utils.FetchModel[Expense](ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.lockedForUser(ctx) {
		return nil, utils.NewConflictErrorWithDetails("expense is locked once approved",
			map[string]interface{}{"status": expense.Status})
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(&expense).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return expense, nil
}

func GetExpense(ctx context.Context, id int) (*Expense, error) {
	return utils.FetchModel[Expense](ctx, id, "Project", "User")
}

// setExpenseStatus flips the status with hooks muted and records the
// event rather than a generic update.
func setExpenseStatus(ctx context.Context, expense *Expense, status ExpenseStatus, activityType ActivityType, description string) (*Expense, error) {
	before := *expense

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	err := tx.Session(&gorm.Session{SkipHooks: true}).
		Model(&Expense{}).
		Where("id = ?", expense.ID).
		Updates(map[string]interface{}{"Status": status}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	expense.Status = status
	if err := SaveActivityEvent(tx, activityType, "Expense", expense.ID, before, expense, description); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return expense, nil
}

func ApproveExpense(ctx context.Context, id int) (*Expense, error) {
	expense, err := utils.FetchModel[Expense](ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.Status != ExpenseStatusPending {
		return nil, utils.NewConflictErrorWithDetails("only pending expenses can be approved",
			map[string]interface{}{"status": expense.Status})
	}

	description := fmt.Sprintf("Expense %q approved.", expense.Description)
	return setExpenseStatus(ctx, expense, ExpenseStatusApproved, ActivityTypeApprove, description)
}

type RejectExpenseInput struct {
	Reason string `json:"reason"`
}

func RejectExpense(ctx context.Context, id int, input *RejectExpenseInput) (*Expense, error) {
	expense, err := utils.FetchModel[Expense](ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.Status != ExpenseStatusPending {
		return nil, utils.NewConflictErrorWithDetails("only pending expenses can be rejected",
			map[string]interface{}{"status": expense.Status})
	}

	description := fmt.Sprintf("Expense %q rejected.", expense.Description)
	if input != nil && input.Reason != "" {
		description = fmt.Sprintf("Expense %q rejected: %s", expense.Description, input.Reason)
	}
	return setExpenseStatus(ctx, expense, ExpenseStatusRejected, ActivityTypeReject, description)
}

type ExpenseListQuery struct {
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
	SortBy       string `form:"sortBy"`
	SortOrder    string `form:"sortOrder"`
	Category     string `form:"category"`
	Status       string `form:"status"`
	ProjectId    int    `form:"projectId"`
	UserId       int    `form:"userId"`
	Reimbursable *bool  `form:"reimbursable"`
	Search       string `form:"search"`
	DateFrom     string `form:"dateFrom"`
	DateTo       string `form:"dateTo"`
}

type ExpenseSummary struct {
	TotalAmount decimal.Decimal            `json:"totalAmount"`
	TotalTax    decimal.Decimal            `json:"totalTax"`
	ByCategory  map[string]decimal.Decimal `json:"byCategory"`
}

var expenseSortColumns = map[string]string{
	"date":      "date",
	"amount":    "amount",
	"category":  "category",
	"status":    "status",
	"createdAt": "created_at",
}

func buildExpenseFilter(ctx context.Context, query *ExpenseListQuery) (*gorm.DB, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Expense{})

	if query.Category != "" {
		if !ExpenseCategory(query.Category).Valid() {
			return nil, utils.NewValidationError("category", "invalid expense category")
		}
		dbCtx = dbCtx.Where("category = ?", query.Category)
	}
	if query.Status != "" {
		if !ExpenseStatus(query.Status).Valid() {
			return nil, utils.NewValidationError("status", "invalid expense status")
		}
		dbCtx = dbCtx.Where("status = ?", query.Status)
	}
	if query.ProjectId > 0 {
		dbCtx = dbCtx.Where("project_id = ?", query.ProjectId)
	}
	if query.UserId > 0 {
		dbCtx = dbCtx.Where("user_id = ?", query.UserId)
	}
	if query.Reimbursable != nil {
		dbCtx = dbCtx.Where("reimbursable = ?", *query.Reimbursable)
	}
	dbCtx = ApplySearch(dbCtx, query.Search, "description", "vendor")

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

func expenseSummary(dbCtx *gorm.DB) (*ExpenseSummary, error) {
	var totals struct {
		TotalAmount decimal.Decimal
		TotalTax    decimal.Decimal
	}
	err := dbCtx.Session(&gorm.Session{}).
		Select("coalesce(sum(amount), 0) as total_amount, coalesce(sum(tax_amount), 0) as total_tax").
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Category string
		Total    decimal.Decimal
	}
	err = dbCtx.Session(&gorm.Session{}).
		Select("category, coalesce(sum(amount), 0) as total").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byCategory := map[string]decimal.Decimal{}
	for _, row := range rows {
		byCategory[row.Category] = row.Total
	}

	return &ExpenseSummary{
		TotalAmount: totals.TotalAmount,
		TotalTax:    totals.TotalTax,
		ByCategory:  byCategory,
	}, nil
}

func PaginateExpenses(ctx context.Context, query *ExpenseListQuery) ([]*Expense, *Pagination, *ExpenseSummary, error) {
	dbCtx, err := buildExpenseFilter(ctx, query)
	if err != nil {
		return nil, nil, nil, err
	}

	order := ResolveSort(query.SortBy, query.SortOrder, expenseSortColumns, "date", "desc")
	rows, pagination, err := FetchPageOffset[Expense](dbCtx.Preload("Project").Preload("User"), query.Page, query.Limit, order)
	if err != nil {
		return nil, nil, nil, err
	}

	summary, err := expenseSummary(dbCtx)
	if err != nil {
		return nil, nil, nil, err
	}

	return rows, pagination, summary, nil
}

// FetchExpensesForExport returns every row matching the filter with
// relations loaded, ordered for the report.
func FetchExpensesForExport(ctx context.Context, query *ExpenseListQuery) ([]*Expense, error) {
	dbCtx, err := buildExpenseFilter(ctx, query)
	if err != nil {
		return nil, err
	}

	var rows []*Expense
	err = dbCtx.
		Preload("Project").Preload("User").
		Order("date, id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type ExpenseBulkUpdate struct {
	Status    *ExpenseStatus   `json:"status"`
	ProjectId *int             `json:"projectId"`
	Category  *ExpenseCategory `json:"category"`
}

type BulkExpenseInput struct {
	Ids    []int              `json:"ids" binding:"required,min=1"`
	Update *ExpenseBulkUpdate `json:"update"`
}

// lockedExpenseIds returns the subset of ids a non-admin may not touch.
func lockedExpenseIds(ctx context.Context, ids []int) ([]int, error) {
	if utils.GetContextIsAdmin(ctx) {
		return nil, nil
	}
	db := config.GetDB()
	var blockedIds []int
	err := db.WithContext(ctx).Model(&Expense{}).
		Where("id IN ? AND status IN ?", ids, lockedExpenseStatuses).
		Pluck("id", &blockedIds).Error
	if err != nil {
		return nil, err
	}
	return blockedIds, nil
}

func BulkUpdateExpenses(ctx context.Context, ids []int, update *ExpenseBulkUpdate) (int64, error) {
	if update == nil || (update.Status == nil && update.ProjectId == nil && update.Category == nil) {
		return 0, utils.NewValidationError("update", "no updatable fields provided")
	}

	updates := map[string]interface{}{}
	if update.Status != nil {
		if !utils.GetContextIsAdmin(ctx) {
			return 0, utils.ErrorForbidden
		}
		if !update.Status.Valid() {
			return 0, utils.NewValidationError("status", "invalid expense status")
		}
		updates["Status"] = *update.Status
	}
	if update.ProjectId != nil {
		if err := utils.ValidateResourceId[Project](ctx, *update.ProjectId); err != nil {
			return 0, utils.NewValidationError("projectId", "project does not exist")
		}
		updates["ProjectId"] = *update.ProjectId
	}
	if update.Category != nil {
		if !update.Category.Valid() {
			return 0, utils.NewValidationError("category", "invalid expense category")
		}
		updates["Category"] = *update.Category
	}

	ids = utils.UniqueSlice(ids)
	if err := utils.ValidateResourcesId[Expense](ctx, ids); err != nil {
		return 0, err
	}
	blockedIds, err := lockedExpenseIds(ctx, ids)
	if err != nil {
		return 0, err
	}
	if len(blockedIds) > 0 {
		return 0, utils.NewConflictErrorWithDetails("some expenses are locked once approved",
			map[string]interface{}{"blockedIds": blockedIds})
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	result := tx.Session(&gorm.Session{SkipHooks: true}).
		Model(&Expense{}).
		Where("id IN ?", ids).
		Updates(updates)
	if result.Error != nil {
		tx.Rollback()
		return 0, result.Error
	}

	err = SaveActivityEvent(tx, ActivityTypeUpdate, "Expense", 0, nil,
		map[string]interface{}{"ids": ids, "update": update},
		fmt.Sprintf("Bulk updated %d expenses.", result.RowsAffected))
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit().Error; err != nil {
		return 0, err
	}
	return result.RowsAffected, nil
}

func BulkDeleteExpenses(ctx context.Context, ids []int) (int64, error) {
	ids = utils.UniqueSlice(ids)
	if err := utils.ValidateResourcesId[Expense](ctx, ids); err != nil {
		return 0, err
	}
	blockedIds, err := lockedExpenseIds(ctx, ids)
	if err != nil {
		return 0, err
	}
	if len(blockedIds) > 0 {
		return 0, utils.NewConflictErrorWithDetails("some expenses are locked once approved",
			map[string]interface{}{"blockedIds": blockedIds})
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	result := tx.Session(&gorm.Session{SkipHooks: true}).
		Where("id IN ?", ids).
		Delete(&Expense{})
	if result.Error != nil {
		tx.Rollback()
		return 0, result.Error
	}

	err = SaveActivityEvent(tx, ActivityTypeDelete, "Expense", 0,
		map[string]interface{}{"ids": ids}, nil,
		fmt.Sprintf("Bulk deleted %d expenses.", result.RowsAffected))
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit().Error; err != nil {
		return 0, err
	}
	return result.RowsAffected, nil
}
