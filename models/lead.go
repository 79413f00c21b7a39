package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Lead struct {
	ID                int             `gorm:"primary_key" json:"id"`
	Name              string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Email             string          `gorm:"size:255" json:"email"`
	Phone             string          `gorm:"size:30" json:"phone"`
	Company           string          `gorm:"size:100" json:"company"`
	Position          string          `gorm:"size:100" json:"position"`
	Status            LeadStatus      `gorm:"size:20;not null;default:new;index" json:"status"`
	Source            LeadSource      `gorm:"size:20" json:"source"`
	Priority          LeadPriority    `gorm:"size:10;not null;default:medium" json:"priority"`
	EstimatedValue    decimal.Decimal `gorm:"type:decimal(20,4)" json:"estimatedValue"`
	AssignedToId      *int            `gorm:"index" json:"assignedToId"`
	AssignedTo        *User           `gorm:"foreignKey:AssignedToId" json:"assignedTo,omitempty"`
	Notes             string          `gorm:"type:text" json:"notes"`
	ConvertedClientId *int            `json:"convertedClientId"`
	ConvertedAt       *time.Time      `json:"convertedAt"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

type NewLead struct {
	Name           string          `json:"name" binding:"required"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	Company        string          `json:"company"`
	Position       string          `json:"position"`
	Status         LeadStatus      `json:"status"`
	Source         LeadSource      `json:"source"`
	Priority       LeadPriority    `json:"priority"`
	EstimatedValue decimal.Decimal `json:"estimatedValue"`
	AssignedToId   *int            `json:"assignedToId"`
	Notes          string          `json:"notes"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewLead) validate(ctx context.Context, id int) error {
	if input.Status == "" {
		input.Status = LeadStatusNew
	}
	if !input.Status.Valid() {
		return utils.NewValidationError("status", fmt.Sprintf("%q is not a valid lead status", input.Status))
	}
	if input.Source != "" && !input.Source.Valid() {
		return utils.NewValidationError("source", fmt.Sprintf("%q is not a valid lead source", input.Source))
	}
	if input.Priority == "" {
		input.Priority = LeadPriorityMedium
	}
	if !input.Priority.Valid() {
		return utils.NewValidationError("priority", "must be one of low, medium, high")
	}
	if input.EstimatedValue.IsNegative() {
		return utils.NewValidationError("estimatedValue", "must not be negative")
	}
	if input.Email != "" {
		input.Email = strings.ToLower(strings.TrimSpace(input.Email))
		if !utils.IsValidEmail(input.Email) {
			return utils.NewValidationError("email", "must be a valid email address")
		}
	}
	if input.Phone != "" && !utils.ValidatePhoneNumber(input.Phone) {
		return utils.NewValidationError("phone", "is not a valid phone number")
	}
	if input.AssignedToId != nil && *input.AssignedToId > 0 {
		if err := utils.ValidateResourceId[User](ctx, *input.AssignedToId); err != nil {
			return utils.NewValidationError("assignedToId", "team member does not exist")
		}
	}
	return nil
}

func CreateLead(ctx context.Context, input *NewLead) (*Lead, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	lead := Lead{
		Name:           input.Name,
		Email:          input.Email,
		Phone:          input.Phone,
		Company:        input.Company,
		Position:       input.Position,
		Status:         input.Status,
		Source:         input.Source,
		Priority:       input.Priority,
		EstimatedValue: input.EstimatedValue,
		AssignedToId:   input.AssignedToId,
		Notes:          input.Notes,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&lead).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &lead, nil
}

func UpdateLead(ctx context.Context, id int, input *NewLead) (*Lead, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	lead, err := utils.FetchModel[Lead](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	err = tx.Model(&lead).Updates(map[string]interface{}{
		"Name":           input.Name,
		"Email":          input.Email,
		"Phone":          input.Phone,
		"Company":        input.Company,
		"Position":       input.Position,
		"Status":         input.Status,
		"Source":         input.Source,
		"Priority":       input.Priority,
		"EstimatedValue": input.EstimatedValue,
		"AssignedToId":   input.AssignedToId,
		"Notes":          input.Notes,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return lead, nil
}

func DeleteLead(ctx context.Context, id int) (*Lead, error) {
	lead, err := utils.FetchModel[Lead](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(&lead).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return lead, nil
}

func GetLead(ctx context.Context, id int) (*Lead, error) {
	return utils.FetchModel[Lead](ctx, id, "AssignedTo")
}

type LeadListQuery struct {
	Page         int    `form:"page"`
	Limit        int    `form:"limit"`
	SortBy       string `form:"sortBy"`
	SortOrder    string `form:"sortOrder"`
	Search       string `form:"search"`
	Status       string `form:"status"`
	Source       string `form:"source"`
	Priority     string `form:"priority"`
	AssignedToId int    `form:"assignedToId"`
	DateFrom     string `form:"dateFrom"`
	DateTo       string `form:"dateTo"`
}

type LeadSummary struct {
	CountsByStatus map[string]int64 `json:"countsByStatus"`
	PipelineValue  decimal.Decimal  `json:"pipelineValue"`
	WeightedValue  decimal.Decimal  `json:"weightedValue"`
}

// Stage weights for the weighted pipeline; closed stages carry none.
var leadStageWeights = map[LeadStatus]decimal.Decimal{
	LeadStatusNew:         decimal.NewFromFloat(0.1),
	LeadStatusContacted:   decimal.NewFromFloat(0.2),
	LeadStatusQualified:   decimal.NewFromFloat(0.4),
	LeadStatusProposal:    decimal.NewFromFloat(0.6),
	LeadStatusNegotiation: decimal.NewFromFloat(0.8),
}

var leadSortColumns = map[string]string{
	"name":           "name",
	"status":         "status",
	"priority":       "priority",
	"estimatedValue": "estimated_value",
	"createdAt":      "created_at",
}

func PaginateLeads(ctx context.Context, query *LeadListQuery) ([]*Lead, *Pagination, *LeadSummary, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Lead{})

	if query.Status != "" {
		if !LeadStatus(query.Status).Valid() {
			return nil, nil, nil, utils.NewValidationError("status", fmt.Sprintf("%q is not a valid lead status", query.Status))
		}
		dbCtx = dbCtx.Where("status = ?", query.Status)
	}
	if query.Source != "" {
		if !LeadSource(query.Source).Valid() {
			return nil, nil, nil, utils.NewValidationError("source", fmt.Sprintf("%q is not a valid lead source", query.Source))
		}
		dbCtx = dbCtx.Where("source = ?", query.Source)
	}
	if query.Priority != "" {
		if !LeadPriority(query.Priority).Valid() {
			return nil, nil, nil, utils.NewValidationError("priority", "must be one of low, medium, high")
		}
		dbCtx = dbCtx.Where("priority = ?", query.Priority)
	}
	if query.AssignedToId > 0 {
		dbCtx = dbCtx.Where("assigned_to_id = ?", query.AssignedToId)
	}
	dbCtx = ApplySearch(dbCtx, query.Search, "name", "email", "company", "phone")

	dateFrom, err := ParseDateParam("dateFrom", query.DateFrom)
	if err != nil {
		return nil, nil, nil, err
	}
	dateTo, err := ParseDateParam("dateTo", query.DateTo)
	if err != nil {
		return nil, nil, nil, err
	}
	dbCtx = ApplyDateRange(dbCtx, "created_at", dateFrom, dateTo)

	order := ResolveSort(query.SortBy, query.SortOrder, leadSortColumns, "createdAt", "desc")
	rows, pagination, err := FetchPageOffset[Lead](dbCtx.Preload("AssignedTo"), query.Page, query.Limit, order)
	if err != nil {
		return nil, nil, nil, err
	}

	summary, err := leadSummary(dbCtx)
	if err != nil {
		return nil, nil, nil, err
	}

	return rows, pagination, summary, nil
}

func leadSummary(dbCtx *gorm.DB) (*LeadSummary, error) {
	counts, err := CountByColumn(dbCtx, "status")
	if err != nil {
		return nil, err
	}

	var rows []struct {
		Status LeadStatus
		Total  decimal.Decimal
	}
	err = dbCtx.Session(&gorm.Session{}).
		Select("status, coalesce(sum(estimated_value), 0) as total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summary := LeadSummary{
		CountsByStatus: counts,
		PipelineValue:  decimal.Zero,
		WeightedValue:  decimal.Zero,
	}
	for _, row := range rows {
		if row.Status.Closed() {
			continue
		}
		summary.PipelineValue = summary.PipelineValue.Add(row.Total)
		if weight, ok := leadStageWeights[row.Status]; ok {
			summary.WeightedValue = summary.WeightedValue.Add(row.Total.Mul(weight))
		}
	}
	summary.WeightedValue = summary.WeightedValue.Round(4)

	return &summary, nil
}

type LeadBulkUpdate struct {
	Status       *LeadStatus   `json:"status"`
	Priority     *LeadPriority `json:"priority"`
	AssignedToId *int          `json:"assignedToId"`
}

type BulkLeadInput struct {
	Ids    []int           `json:"ids" binding:"required,min=1"`
	Update *LeadBulkUpdate `json:"update"`
}

// BulkUpdateLeads applies a partial update to every given lead in one
// transaction and records a single bulk activity.
func BulkUpdateLeads(ctx context.Context, ids []int, update *LeadBulkUpdate) (int64, error) {
	if update == nil || (update.Status == nil && update.Priority == nil && update.AssignedToId == nil) {
		return 0, utils.NewValidationError("update", "no updatable fields provided")
	}

	updates := map[string]interface{}{}
	if update.Status != nil {
		if !update.Status.Valid() {
			return 0, utils.NewValidationError("status", fmt.Sprintf("%q is not a valid lead status", *update.Status))
		}
		updates["Status"] = *update.Status
	}
	if update.Priority != nil {
		if !update.Priority.Valid() {
			return 0, utils.NewValidationError("priority", "must be one of low, medium, high")
		}
		updates["Priority"] = *update.Priority
	}
	if update.AssignedToId != nil {
		if *update.AssignedToId > 0 {
			if err := utils.ValidateResourceId[User](ctx, *update.AssignedToId); err != nil {
				return 0, utils.NewValidationError("assignedToId", "team member does not exist")
			}
		}
		updates["AssignedToId"] = update.AssignedToId
	}

	ids = utils.UniqueSlice(ids)
	if err := utils.ValidateResourcesId[Lead](ctx, ids); err != nil {
		return 0, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	result := tx.Session(&gorm.Session{SkipHooks: true}).
		Model(&Lead{}).
		Where("id IN ?", ids).
		Updates(updates)
	if result.Error != nil {
		tx.Rollback()
		return 0, result.Error
	}
	err := SaveActivityEvent(tx, ActivityTypeUpdate, "Lead", 0, nil,
		map[string]interface{}{"ids": ids, "update": update},
		fmt.Sprintf("Bulk updated %d leads.", result.RowsAffected))
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit().Error; err != nil {
		return 0, err
	}
	return result.RowsAffected, nil
}

func BulkDeleteLeads(ctx context.Context, ids []int) (int64, error) {
	ids = utils.UniqueSlice(ids)
	if err := utils.ValidateResourcesId[Lead](ctx, ids); err != nil {
		return 0, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	result := tx.Session(&gorm.Session{SkipHooks: true}).
		Where("id IN ?", ids).
		Delete(&Lead{})
	if result.Error != nil {
		tx.Rollback()
		return 0, result.Error
	}
	err := SaveActivityEvent(tx, ActivityTypeDelete, "Lead", 0,
		map[string]interface{}{"ids": ids}, nil,
		fmt.Sprintf("Bulk deleted %d leads.", result.RowsAffected))
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit().Error; err != nil {
		return 0, err
	}
	return result.RowsAffected, nil
}

type ClientOverrides struct {
	Name          string           `json:"name"`
	CompanyName   string           `json:"companyName"`
	Email         string           `json:"email"`
	Phone         string           `json:"phone"`
	Address       string           `json:"address"`
	City          string           `json:"city"`
	Country       string           `json:"country"`
	Industry      string           `json:"industry"`
	ContractValue *decimal.Decimal `json:"contractValue"`
	Notes         string           `json:"notes"`
}

type ConvertLeadInput struct {
	ClientOverrides *ClientOverrides `json:"clientOverrides"`
}

// ConvertLead closes a lead as won and creates the client from its
// fields, all inside one transaction. A short redis lock keyed by the
// lead id keeps concurrent conversions of the same lead from racing
// past the closed-status check.
func ConvertLead(ctx context.Context, id int, input *ConvertLeadInput) (*Client, error) {
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, fmt.Sprintf("leads:convert:%d", id), 30*time.Second, nil)
		if err != nil {
			if err == redislock.ErrNotObtained {
				return nil, utils.NewConflictError("lead conversion already in progress")
			}
			return nil, err
		}
		defer lock.Release(ctx)
	}

	lead, err := utils.FetchModel[Lead](ctx, id)
	if err != nil {
		return nil, err
	}
	if lead.Status.Closed() {
		return nil, utils.NewConflictErrorWithDetails(
			"lead is already closed",
			map[string]interface{}{"status": string(lead.Status)})
	}
	before := *lead

	client := Client{
		Name:          lead.Name,
		CompanyName:   lead.Company,
		Email:         lead.Email,
		Phone:         lead.Phone,
		Status:        ClientStatusActive,
		ContractValue: lead.EstimatedValue,
		LeadId:        &lead.ID,
		Notes:         lead.Notes,
	}
	if input != nil && input.ClientOverrides != nil {
		o := input.ClientOverrides
		if o.Name != "" {
			client.Name = o.Name
		}
		if o.CompanyName != "" {
			client.CompanyName = o.CompanyName
		}
		if o.Email != "" {
			client.Email = strings.ToLower(strings.TrimSpace(o.Email))
		}
		if o.Phone != "" {
			client.Phone = o.Phone
		}
		if o.Address != "" {
			client.Address = o.Address
		}
		if o.City != "" {
			client.City = o.City
		}
		if o.Country != "" {
			client.Country = o.Country
		}
		if o.Industry != "" {
			client.Industry = o.Industry
		}
		if o.ContractValue != nil {
			client.ContractValue = *o.ContractValue
		}
		if o.Notes != "" {
			client.Notes = o.Notes
		}
	}
	if client.Email != "" && !utils.IsValidEmail(client.Email) {
		return nil, utils.NewValidationError("email", "must be a valid email address")
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	if err := tx.Create(&client).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	now := time.Now()
	err = tx.Session(&gorm.Session{SkipHooks: true}).Model(&Lead{}).
		Where("id = ?", lead.ID).
		Updates(map[string]interface{}{
			"Status":            LeadStatusClosedWon,
			"ConvertedClientId": client.ID,
			"ConvertedAt":       now,
		}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	lead.Status = LeadStatusClosedWon
	lead.ConvertedClientId = &client.ID
	lead.ConvertedAt = &now

	err = SaveActivityEvent(tx, ActivityTypeConvert, "Lead", lead.ID, before, lead,
		fmt.Sprintf("Lead %q converted to client %q.", lead.Name, client.Name))
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &client, nil
}
