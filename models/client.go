package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type Client struct {
	ID            int             `gorm:"primary_key" json:"id"`
	Name          string          `gorm:"size:100;not null" json:"name" binding:"required"`
	CompanyName   string          `gorm:"size:100" json:"companyName"`
	Email         string          `gorm:"size:255" json:"email"`
	Phone         string          `gorm:"size:30" json:"phone"`
	Address       string          `gorm:"size:255" json:"address"`
	City          string          `gorm:"size:100" json:"city"`
	Country       string          `gorm:"size:100" json:"country"`
	Industry      string          `gorm:"size:100" json:"industry"`
	Status        ClientStatus    `gorm:"size:20;not null;default:ACTIVE;index" json:"status"`
	ContractValue decimal.Decimal `gorm:"type:decimal(20,4)" json:"contractValue"`
	LeadId        *int            `json:"leadId"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

type NewClient struct {
	Name          string          `json:"name" binding:"required"`
	CompanyName   string          `json:"companyName"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	Address       string          `json:"address"`
	City          string          `json:"city"`
	Country       string          `json:"country"`
	Industry      string          `json:"industry"`
	Status        ClientStatus    `json:"status"`
	ContractValue decimal.Decimal `json:"contractValue"`
	Notes         string          `json:"notes"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewClient) validate(ctx context.Context, id int) error {
	if input.Status == "" {
		input.Status = ClientStatusActive
	}
	if !input.Status.Valid() {
		return utils.NewValidationError("status", "must be one of ACTIVE, INACTIVE, ARCHIVED")
	}
	if input.ContractValue.IsNegative() {
		return utils.NewValidationError("contractValue", "must not be negative")
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
	return nil
}

func CreateClient(ctx context.Context, input *NewClient) (*Client, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	client := Client{
		Name:          input.Name,
		CompanyName:   input.CompanyName,
		Email:         input.Email,
		Phone:         input.Phone,
		Address:       input.Address,
		City:          input.City,
		Country:       input.Country,
		Industry:      input.Industry,
		Status:        input.Status,
		ContractValue: input.ContractValue,
		Notes:         input.Notes,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&client).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &client, nil
}

func UpdateClient(ctx context.Context, id int, input *NewClient) (*Client, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	client, err := utils.FetchModel[Client](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	err = tx.Model(&client).Updates(map[string]interface{}{
		"Name":          input.Name,
		"CompanyName":   input.CompanyName,
		"Email":         input.Email,
		"Phone":         input.Phone,
		"Address":       input.Address,
		"City":          input.City,
		"Country":       input.Country,
		"Industry":      input.Industry,
		"Status":        input.Status,
		"ContractValue": input.ContractValue,
		"Notes":         input.Notes,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return client, nil
}

// DeleteClient refuses while any project of the client is still in
// PLANNING or IN_PROGRESS, listing the blockers in the conflict.
func DeleteClient(ctx context.Context, id int) (*Client, error) {
	client, err := utils.FetchModel[Client](ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	var blockingProjects []BlockerRef
	err = db.WithContext(ctx).Model(&Project{}).
		Select("id, name").
		Where("client_id = ? AND status IN ?", id, []ProjectStatus{ProjectStatusPlanning, ProjectStatusInProgress}).
		Scan(&blockingProjects).Error
	if err != nil {
		return nil, err
	}
	if len(blockingProjects) > 0 {
		return nil, utils.NewConflictErrorWithDetails(
			"client has projects in planning or in progress",
			map[string]interface{}{"projects": blockingProjects})
	}

	tx := db.WithContext(ctx).Begin()
	if err := tx.Delete(&client).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return client, nil
}

type ClientDetail struct {
	*Client
	ProjectCount int64 `json:"projectCount"`
	InvoiceCount int64 `json:"invoiceCount"`
}

func GetClientDetail(ctx context.Context, id int) (*ClientDetail, error) {
	client, err := utils.FetchModel[Client](ctx, id)
	if err != nil {
		return nil, err
	}

	detail := ClientDetail{Client: client}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		count, err := utils.ResourceCountWhere[Project](gctx, "client_id = ?", id)
		detail.ProjectCount = count
		return err
	})
	g.Go(func() error {
		count, err := utils.ResourceCountWhere[Invoice](gctx, "client_id = ?", id)
		detail.InvoiceCount = count
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &detail, nil
}

type ClientListQuery struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
	Search    string `form:"search"`
	Status    string `form:"status"`
	Industry  string `form:"industry"`
	DateFrom  string `form:"dateFrom"`
	DateTo    string `form:"dateTo"`
}

type ClientSummary struct {
	CountsByStatus     map[string]int64 `json:"countsByStatus"`
	TotalContractValue decimal.Decimal  `json:"totalContractValue"`
}

var clientSortColumns = map[string]string{
	"name":          "name",
	"companyName":   "company_name",
	"status":        "status",
	"contractValue": "contract_value",
	"createdAt":     "created_at",
}

func PaginateClients(ctx context.Context, query *ClientListQuery) ([]*Client, *Pagination, *ClientSummary, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Client{})

	if query.Status != "" {
		if !ClientStatus(query.Status).Valid() {
			return nil, nil, nil, utils.NewValidationError("status", "must be one of ACTIVE, INACTIVE, ARCHIVED")
		}
		dbCtx = dbCtx.Where("status = ?", query.Status)
	}
	if query.Industry != "" {
		dbCtx = dbCtx.Where("industry = ?", query.Industry)
	}
	dbCtx = ApplySearch(dbCtx, query.Search, "name", "company_name", "email")

	dateFrom, err := ParseDateParam("dateFrom", query.DateFrom)
	if err != nil {
		return nil, nil, nil, err
	}
	dateTo, err := ParseDateParam("dateTo", query.DateTo)
	if err != nil {
		return nil, nil, nil, err
	}
	dbCtx = ApplyDateRange(dbCtx, "created_at", dateFrom, dateTo)

	order := ResolveSort(query.SortBy, query.SortOrder, clientSortColumns, "name", "asc")
	rows, pagination, err := FetchPageOffset[Client](dbCtx, query.Page, query.Limit, order)
	if err != nil {
		return nil, nil, nil, err
	}

	counts, err := CountByColumn(dbCtx, "status")
	if err != nil {
		return nil, nil, nil, err
	}
	totalValue, err := SumColumn(dbCtx, "contract_value")
	if err != nil {
		return nil, nil, nil, err
	}

	summary := &ClientSummary{
		CountsByStatus:     counts,
		TotalContractValue: totalValue,
	}
	return rows, pagination, summary, nil
}

func describeClientCreated(client *Client) string {
	if client.LeadId != nil {
		return fmt.Sprintf("Client %q created from lead #%d.", client.Name, *client.LeadId)
	}
	return fmt.Sprintf("Client %q created.", client.Name)
}
