package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var oneHundred = decimal.NewFromInt(100)

type Invoice struct {
	ID            int              `gorm:"primary_key" json:"id"`
	InvoiceNumber string           `gorm:"size:20;not null;uniqueIndex" json:"invoiceNumber"`
	SequenceNo    int              `gorm:"not null;index" json:"-"`
	ClientId      int              `gorm:"not null;index" json:"clientId" binding:"required"`
	Client        *Client          `gorm:"foreignKey:ClientId" json:"client,omitempty"`
	ProjectId     *int             `gorm:"index" json:"projectId"`
	Project       *Project         `gorm:"foreignKey:ProjectId" json:"project,omitempty"`
	Status        InvoiceStatus    `gorm:"size:20;not null;default:DRAFT;index" json:"status"`
	IssueDate     Date             `gorm:"not null;index" json:"issueDate"`
	DueDate       Date             `gorm:"not null;index" json:"dueDate"`
	SubTotal      decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0" json:"subTotal"`
	TaxTotal      decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0" json:"taxTotal"`
	Total         decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0" json:"total"`
	PaidTotal     decimal.Decimal  `gorm:"type:decimal(20,4);not null;default:0" json:"paidTotal"`
	Notes         string           `gorm:"type:text" json:"notes"`
	Items         []InvoiceItem    `gorm:"foreignKey:InvoiceId" json:"items"`
	Payments      []InvoicePayment `gorm:"foreignKey:InvoiceId" json:"payments"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updatedAt"`
}

type InvoiceItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	InvoiceId   int             `gorm:"not null;index" json:"invoiceId"`
	Description string          `gorm:"size:255;not null" json:"description" binding:"required"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"unitPrice"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"taxRate"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"amount"`
}

type InvoicePayment struct {
	ID          int             `gorm:"primary_key" json:"id"`
	InvoiceId   int             `gorm:"not null;index" json:"invoiceId"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	PaymentDate Date            `gorm:"not null" json:"paymentDate"`
	Method      PaymentMethod   `gorm:"size:20;not null" json:"method"`
	Reference   string          `gorm:"size:100" json:"reference"`
	Notes       string          `gorm:"type:text" json:"notes"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"createdAt"`
}

type InvoiceTotals struct {
	SubTotal decimal.Decimal
	TaxTotal decimal.Decimal
	Total    decimal.Decimal
}

// ComputeInvoiceTotals derives line amounts plus the invoice sums.
// Line amount is quantity times unit price before tax; tax applies the
// line's rate as a percentage of that amount.
func ComputeInvoiceTotals(items []InvoiceItem) InvoiceTotals {
	totals := InvoiceTotals{SubTotal: decimal.Zero, TaxTotal: decimal.Zero, Total: decimal.Zero}
	for i := range items {
		amount := items[i].Quantity.Mul(items[i].UnitPrice)
		items[i].Amount = amount
		totals.SubTotal = totals.SubTotal.Add(amount)
		totals.TaxTotal = totals.TaxTotal.Add(amount.Mul(items[i].TaxRate).Div(oneHundred))
	}
	totals.Total = totals.SubTotal.Add(totals.TaxTotal)
	return totals
}

// DerivePaymentStatus keeps the payment-driven statuses consistent with
// the recorded amounts. CANCELLED is terminal; DRAFT and SENT survive
// until money arrives.
func DerivePaymentStatus(current InvoiceStatus, total, paidTotal decimal.Decimal) InvoiceStatus {
	if current == InvoiceStatusCancelled {
		return current
	}
	if paidTotal.IsPositive() {
		if paidTotal.GreaterThanOrEqual(total) {
			return InvoiceStatusPaid
		}
		return InvoiceStatusPartiallyPaid
	}
	if current == InvoiceStatusPaid || current == InvoiceStatusPartiallyPaid {
		return InvoiceStatusSent
	}
	return current
}

type NewInvoiceItem struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TaxRate     decimal.Decimal `json:"taxRate"`
}

type NewInvoice struct {
	ClientId  int              `json:"clientId" binding:"required"`
	ProjectId *int             `json:"projectId"`
	IssueDate Date             `json:"issueDate"`
	DueDate   Date             `json:"dueDate"`
	Notes     string           `json:"notes"`
	Items     []NewInvoiceItem `json:"items"`
}

// validate input for both create & update. (id = 0 for create)
func (input *NewInvoice) validate(ctx context.Context, id int) error {
	if err := utils.ValidateResourceId[Client](ctx, input.ClientId); err != nil {
		return utils.NewValidationError("clientId", "client does not exist")
	}
	if input.ProjectId != nil && *input.ProjectId > 0 {
		if err := utils.ValidateResourceId[Project](ctx, *input.ProjectId); err != nil {
			return utils.NewValidationError("projectId", "project does not exist")
		}
	}
	if input.IssueDate.IsZero() {
		return utils.NewValidationError("issueDate", "is required")
	}
	if input.DueDate.IsZero() {
		return utils.NewValidationError("dueDate", "is required")
	}
	if input.DueDate.Before(input.IssueDate) {
		return utils.NewValidationError("dueDate", "must not be before the issue date")
	}
	if len(input.Items) == 0 {
		return utils.NewValidationError("items", "at least one item is required")
	}
	for i, item := range input.Items {
		if item.Description == "" {
			return utils.NewValidationError(fmt.Sprintf("items[%d].description", i), "is required")
		}
		if !item.Quantity.IsPositive() {
			return utils.NewValidationError(fmt.Sprintf("items[%d].quantity", i), "must be greater than zero")
		}
		if item.UnitPrice.IsNegative() {
			return utils.NewValidationError(fmt.Sprintf("items[%d].unitPrice", i), "must not be negative")
		}
		if item.TaxRate.IsNegative() || item.TaxRate.GreaterThan(oneHundred) {
			return utils.NewValidationError(fmt.Sprintf("items[%d].taxRate", i), "must be between 0 and 100")
		}
	}
	return nil
}

func (input *NewInvoice) buildItems(invoiceId int) []InvoiceItem {
	items := make([]InvoiceItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, InvoiceItem{
			InvoiceId:   invoiceId,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TaxRate:     item.TaxRate,
		})
	}
	return items
}

func CreateInvoice(ctx context.Context, input *NewInvoice) (*Invoice, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	sequenceNo, err := utils.GetSequence[Invoice](ctx)
	if err != nil {
		return nil, err
	}

	items := input.buildItems(0)
	totals := ComputeInvoiceTotals(items)

	invoice := Invoice{
		InvoiceNumber: fmt.Sprintf("INV-%06d", sequenceNo),
		SequenceNo:    sequenceNo,
		ClientId:      input.ClientId,
		ProjectId:     input.ProjectId,
		Status:        InvoiceStatusDraft,
		IssueDate:     input.IssueDate,
		DueDate:       input.DueDate,
		SubTotal:      totals.SubTotal,
		TaxTotal:      totals.TaxTotal,
		Total:         totals.Total,
		PaidTotal:     decimal.Zero,
		Notes:         input.Notes,
		Items:         items,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Create(&invoice).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return &invoice, nil
}

func UpdateInvoice(ctx context.Context, id int, input *NewInvoice) (*Invoice, error) {
	invoice, err := utils.FetchModel[Invoice](ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status == InvoiceStatusPaid || invoice.Status == InvoiceStatusCancelled {
		return nil, utils.NewConflictErrorWithDetails("invoice can no longer be edited",
			map[string]interface{}{"status": invoice.Status})
	}

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	items := input.buildItems(id)
	totals := ComputeInvoiceTotals(items)
	status := DerivePaymentStatus(invoice.Status, totals.Total, invoice.PaidTotal)

	updates := map[string]interface{}{
		"ClientId":  input.ClientId,
		"ProjectId": input.ProjectId,
		"IssueDate": input.IssueDate,
		"DueDate":   input.DueDate,
		"Notes":     input.Notes,
		"SubTotal":  totals.SubTotal,
		"TaxTotal":  totals.TaxTotal,
		"Total":     totals.Total,
		"Status":    status,
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Model(&invoice).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Where("invoice_id = ?", id).Delete(&InvoiceItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Create(&items).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	invoice.Items = items
	return invoice, nil
}

func DeleteInvoice(ctx context.Context, id int) (*Invoice, error) {
	invoice, err := utils.FetchModel[Invoice](ctx, id)
	if err != nil {
		return nil, err
	}

	paymentCount, err := utils.ResourceCountWhere[InvoicePayment](ctx, "invoice_id = ?", id)
	if err != nil {
		return nil, err
	}
	if paymentCount > 0 {
		return nil, utils.NewConflictErrorWithDetails("invoice has recorded payments",
			map[string]interface{}{"paymentCount": paymentCount})
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if err := tx.Where("invoice_id = ?", id).Delete(&InvoiceItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(&invoice).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

func GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	return utils.FetchModel[Invoice](ctx, id, "Items", "Payments", "Client", "Project")
}

// SendInvoice moves a draft out the door; everything after that is
// driven by payments.
func SendInvoice(ctx context.Context, id int) (*Invoice, error) {
	invoice, err := utils.FetchModel[Invoice](ctx, id)
	if err != nil {
		return nil, err
	}
	if invoice.Status != InvoiceStatusDraft {
		return nil, utils.NewConflictErrorWithDetails("only draft invoices can be sent",
			map[string]interface{}{"status": invoice.Status})
	}

	before := *invoice

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	err = tx.Session(&gorm.Session{SkipHooks: true}).
		Model(&Invoice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"Status": InvoiceStatusSent}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	invoice.Status = InvoiceStatusSent
	err = SaveActivityEvent(tx, ActivityTypeStatusChange, "Invoice", id, before, invoice,
		fmt.Sprintf("Invoice %s sent.", invoice.InvoiceNumber))
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return invoice, nil
}

type NewInvoicePayment struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate Date            `json:"paymentDate"`
	Method      PaymentMethod   `json:"method" binding:"required"`
	Reference   string          `json:"reference"`
	Notes       string          `json:"notes"`
}

func (input *NewInvoicePayment) validate() error {
	if !input.Amount.IsPositive() {
		return utils.NewValidationError("amount", "must be greater than zero")
	}
	if input.PaymentDate.IsZero() {
		return utils.NewValidationError("paymentDate", "is required")
	}
	if !input.Method.Valid() {
		return utils.NewValidationError("method", "invalid payment method")
	}
	return nil
}

// RecordPayment applies a payment and re-derives the invoice status.
// The invoice row is locked for the duration of the transaction so two
// concurrent payments cannot both pass the balance check.
func RecordPayment(ctx context.Context, id int, input *NewInvoicePayment) (*Invoice, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()

	var invoice Invoice
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&invoice).Error
	if err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	if invoice.Status == InvoiceStatusCancelled {
		tx.Rollback()
		return nil, utils.NewConflictError("cannot record a payment on a cancelled invoice")
	}
	if invoice.Status == InvoiceStatusDraft {
		tx.Rollback()
		return nil, utils.NewConflictError("invoice must be sent before recording payments")
	}

	balanceDue := invoice.Total.Sub(invoice.PaidTotal)
	if input.Amount.GreaterThan(balanceDue) {
		tx.Rollback()
		return nil, utils.NewConflictErrorWithDetails("payment exceeds the balance due",
			map[string]interface{}{"balanceDue": balanceDue})
	}

	payment := InvoicePayment{
		InvoiceId:   id,
		Amount:      input.Amount,
		PaymentDate: input.PaymentDate,
		Method:      input.Method,
		Reference:   input.Reference,
		Notes:       input.Notes,
	}
	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	before := invoice
	paidTotal := invoice.PaidTotal.Add(input.Amount)
	status := DerivePaymentStatus(invoice.Status, invoice.Total, paidTotal)

	err = tx.Session(&gorm.Session{SkipHooks: true}).
		Model(&Invoice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"PaidTotal": paidTotal, "Status": status}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	invoice.PaidTotal = paidTotal
	invoice.Status = status
	err = SaveActivityEvent(tx, ActivityTypePayment, "Invoice", id, before, invoice,
		fmt.Sprintf("Payment of %s recorded on invoice %s.", input.Amount.String(), invoice.InvoiceNumber))
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	return GetInvoice(ctx, id)
}

type InvoiceListQuery struct {
	Page      int    `form:"page"`
	Limit     int    `form:"limit"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder"`
	Status    string `form:"status"`
	ClientId  int    `form:"clientId"`
	ProjectId int    `form:"projectId"`
	Search    string `form:"search"`
	DateFrom  string `form:"dateFrom"`
	DateTo    string `form:"dateTo"`
	Overdue   bool   `form:"overdue"`
}

type InvoiceSummary struct {
	TotalInvoiced decimal.Decimal `json:"totalInvoiced"`
	TotalPaid     decimal.Decimal `json:"totalPaid"`
	TotalDue      decimal.Decimal `json:"totalDue"`
	OverdueCount  int64           `json:"overdueCount"`
}

var invoiceSortColumns = map[string]string{
	"invoiceNumber": "invoices.invoice_number",
	"issueDate":     "invoices.issue_date",
	"dueDate":       "invoices.due_date",
	"total":         "invoices.total",
	"status":        "invoices.status",
	"createdAt":     "invoices.created_at",
}

func overdueInvoiceCondition() (string, []interface{}) {
	return "invoices.due_date < ? AND invoices.status NOT IN ?",
		[]interface{}{Today(), []InvoiceStatus{InvoiceStatusPaid, InvoiceStatusCancelled}}
}

func buildInvoiceFilter(ctx context.Context, query *InvoiceListQuery) (*gorm.DB, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Invoice{})

	if query.Status != "" {
		if !InvoiceStatus(query.Status).Valid() {
			return nil, utils.NewValidationError("status", "invalid invoice status")
		}
		dbCtx = dbCtx.Where("invoices.status = ?", query.Status)
	}
	if query.ClientId > 0 {
		dbCtx = dbCtx.Where("invoices.client_id = ?", query.ClientId)
	}
	if query.ProjectId > 0 {
		dbCtx = dbCtx.Where("invoices.project_id = ?", query.ProjectId)
	}
	if query.Search != "" {
		pattern := "%" + query.Search + "%"
		dbCtx = dbCtx.
			Joins("JOIN clients ON clients.id = invoices.client_id").
			Where("(invoices.invoice_number LIKE ? OR clients.name LIKE ?)", pattern, pattern)
	}
	if query.Overdue {
		condition, values := overdueInvoiceCondition()
		dbCtx = dbCtx.Where(condition, values...)
	}

	dateFrom, err := ParseDateParam("dateFrom", query.DateFrom)
	if err != nil {
		return nil, err
	}
	dateTo, err := ParseDateParam("dateTo", query.DateTo)
	if err != nil {
		return nil, err
	}
	dbCtx = ApplyDateRange(dbCtx, "invoices.issue_date", dateFrom, dateTo)

	return dbCtx, nil
}

func invoiceSummary(dbCtx *gorm.DB) (*InvoiceSummary, error) {
	condition, values := overdueInvoiceCondition()
	var result struct {
		TotalInvoiced decimal.Decimal
		TotalPaid     decimal.Decimal
		TotalDue      decimal.Decimal
		OverdueCount  int64
	}
	selectExpr := fmt.Sprintf(`coalesce(sum(invoices.total), 0) as total_invoiced,
		coalesce(sum(invoices.paid_total), 0) as total_paid,
		coalesce(sum(case when invoices.status <> 'CANCELLED' then invoices.total - invoices.paid_total else 0 end), 0) as total_due,
		coalesce(sum(case when %s then 1 else 0 end), 0) as overdue_count`, condition)
	err := dbCtx.Session(&gorm.Session{}).
		Select(selectExpr, values...).
		Scan(&result).Error
	if err != nil {
		return nil, err
	}
	return &InvoiceSummary{
		TotalInvoiced: result.TotalInvoiced,
		TotalPaid:     result.TotalPaid,
		TotalDue:      result.TotalDue,
		OverdueCount:  result.OverdueCount,
	}, nil
}

func PaginateInvoices(ctx context.Context, query *InvoiceListQuery) ([]*Invoice, *Pagination, *InvoiceSummary, error) {
	dbCtx, err := buildInvoiceFilter(ctx, query)
	if err != nil {
		return nil, nil, nil, err
	}

	order := ResolveSort(query.SortBy, query.SortOrder, invoiceSortColumns, "issueDate", "desc")
	rows, pagination, err := FetchPageOffset[Invoice](dbCtx.Preload("Client").Preload("Items"), query.Page, query.Limit, order)
	if err != nil {
		return nil, nil, nil, err
	}

	summary, err := invoiceSummary(dbCtx)
	if err != nil {
		return nil, nil, nil, err
	}

	return rows, pagination, summary, nil
}
