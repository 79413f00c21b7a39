package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/craftlane/agency_backend/utils"
)

type UserRole string

const (
	UserRoleAdmin   UserRole = "ADMIN"
	UserRoleManager UserRole = "MANAGER"
	UserRoleAgent   UserRole = "AGENT"
	UserRoleMember  UserRole = "MEMBER"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleAdmin, UserRoleManager, UserRoleAgent, UserRoleMember:
		return true
	}
	return false
}

// Lead enums keep the original wire casing (lower snake), unlike the rest.

type LeadStatus string

const (
	LeadStatusNew         LeadStatus = "new"
	LeadStatusContacted   LeadStatus = "contacted"
	LeadStatusQualified   LeadStatus = "qualified"
	LeadStatusProposal    LeadStatus = "proposal"
	LeadStatusNegotiation LeadStatus = "negotiation"
	LeadStatusClosedWon   LeadStatus = "closed_won"
	LeadStatusClosedLost  LeadStatus = "closed_lost"
)

func (s LeadStatus) Valid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusProposal, LeadStatusNegotiation,
		LeadStatusClosedWon, LeadStatusClosedLost:
		return true
	}
	return false
}

// Closed reports whether the lead reached a terminal status.
func (s LeadStatus) Closed() bool {
	return s == LeadStatusClosedWon || s == LeadStatusClosedLost
}

func AllLeadStatuses() []LeadStatus {
	return []LeadStatus{
		LeadStatusNew, LeadStatusContacted, LeadStatusQualified,
		LeadStatusProposal, LeadStatusNegotiation,
		LeadStatusClosedWon, LeadStatusClosedLost,
	}
}

type LeadSource string

const (
	LeadSourceWebsite       LeadSource = "website"
	LeadSourceReferral      LeadSource = "referral"
	LeadSourceSocialMedia   LeadSource = "social_media"
	LeadSourceEmailCampaign LeadSource = "email_campaign"
	LeadSourceColdCall      LeadSource = "cold_call"
	LeadSourceEvent         LeadSource = "event"
	LeadSourceOther         LeadSource = "other"
)

func (s LeadSource) Valid() bool {
	switch s {
	case LeadSourceWebsite, LeadSourceReferral, LeadSourceSocialMedia,
		LeadSourceEmailCampaign, LeadSourceColdCall, LeadSourceEvent, LeadSourceOther:
		return true
	}
	return false
}

type LeadPriority string

const (
	LeadPriorityLow    LeadPriority = "low"
	LeadPriorityMedium LeadPriority = "medium"
	LeadPriorityHigh   LeadPriority = "high"
)

func (p LeadPriority) Valid() bool {
	switch p {
	case LeadPriorityLow, LeadPriorityMedium, LeadPriorityHigh:
		return true
	}
	return false
}

type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "ACTIVE"
	ClientStatusInactive ClientStatus = "INACTIVE"
	ClientStatusArchived ClientStatus = "ARCHIVED"
)

func (s ClientStatus) Valid() bool {
	switch s {
	case ClientStatusActive, ClientStatusInactive, ClientStatusArchived:
		return true
	}
	return false
}

type ProjectStatus string

const (
	ProjectStatusPlanning   ProjectStatus = "PLANNING"
	ProjectStatusInProgress ProjectStatus = "IN_PROGRESS"
	ProjectStatusOnHold     ProjectStatus = "ON_HOLD"
	ProjectStatusCompleted  ProjectStatus = "COMPLETED"
	ProjectStatusCancelled  ProjectStatus = "CANCELLED"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusInProgress, ProjectStatusOnHold,
		ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

// Active marks the statuses that block deleting the client or its manager.
func (s ProjectStatus) Active() bool {
	return s == ProjectStatusPlanning || s == ProjectStatusInProgress
}

func AllProjectStatuses() []ProjectStatus {
	return []ProjectStatus{
		ProjectStatusPlanning, ProjectStatusInProgress, ProjectStatusOnHold,
		ProjectStatusCompleted, ProjectStatusCancelled,
	}
}

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusReview     TaskStatus = "REVIEW"
	TaskStatusDone       TaskStatus = "DONE"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusReview,
		TaskStatusDone, TaskStatusCancelled:
		return true
	}
	return false
}

func AllTaskStatuses() []TaskStatus {
	return []TaskStatus{
		TaskStatusTodo, TaskStatusInProgress, TaskStatusReview,
		TaskStatusDone, TaskStatusCancelled,
	}
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type ExpenseCategory string

const (
	ExpenseCategoryTravel         ExpenseCategory = "TRAVEL"
	ExpenseCategoryMeals          ExpenseCategory = "MEALS"
	ExpenseCategorySoftware       ExpenseCategory = "SOFTWARE"
	ExpenseCategoryEquipment      ExpenseCategory = "EQUIPMENT"
	ExpenseCategoryOfficeSupplies ExpenseCategory = "OFFICE_SUPPLIES"
	ExpenseCategoryMarketing      ExpenseCategory = "MARKETING"
	ExpenseCategoryTraining       ExpenseCategory = "TRAINING"
	ExpenseCategoryOther          ExpenseCategory = "OTHER"
)

func (c ExpenseCategory) Valid() bool {
	switch c {
	case ExpenseCategoryTravel, ExpenseCategoryMeals, ExpenseCategorySoftware,
		ExpenseCategoryEquipment, ExpenseCategoryOfficeSupplies,
		ExpenseCategoryMarketing, ExpenseCategoryTraining, ExpenseCategoryOther:
		return true
	}
	return false
}

type ExpenseStatus string

const (
	ExpenseStatusPending    ExpenseStatus = "PENDING"
	ExpenseStatusApproved   ExpenseStatus = "APPROVED"
	ExpenseStatusRejected   ExpenseStatus = "REJECTED"
	ExpenseStatusReimbursed ExpenseStatus = "REIMBURSED"
)

func (s ExpenseStatus) Valid() bool {
	switch s {
	case ExpenseStatusPending, ExpenseStatusApproved,
		ExpenseStatusRejected, ExpenseStatusReimbursed:
		return true
	}
	return false
}

// Locked expenses cannot be edited or deleted by non-admins.
func (s ExpenseStatus) Locked() bool {
	return s == ExpenseStatusApproved || s == ExpenseStatusReimbursed
}

type BudgetPeriod string

const (
	BudgetPeriodMonthly   BudgetPeriod = "MONTHLY"
	BudgetPeriodQuarterly BudgetPeriod = "QUARTERLY"
	BudgetPeriodYearly    BudgetPeriod = "YEARLY"
	BudgetPeriodProject   BudgetPeriod = "PROJECT"
)

func (p BudgetPeriod) Valid() bool {
	switch p {
	case BudgetPeriodMonthly, BudgetPeriodQuarterly, BudgetPeriodYearly, BudgetPeriodProject:
		return true
	}
	return false
}

type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusSent          InvoiceStatus = "SENT"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
)

func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPartiallyPaid,
		InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodCash,
		PaymentMethodCheck, PaymentMethodOther:
		return true
	}
	return false
}

type ActivityType string

const (
	ActivityTypeCreate       ActivityType = "CREATE"
	ActivityTypeUpdate       ActivityType = "UPDATE"
	ActivityTypeDelete       ActivityType = "DELETE"
	ActivityTypeStatusChange ActivityType = "STATUS_CHANGE"
	ActivityTypeConvert      ActivityType = "CONVERT"
	ActivityTypeApprove      ActivityType = "APPROVE"
	ActivityTypeReject       ActivityType = "REJECT"
	ActivityTypePayment      ActivityType = "PAYMENT"
	ActivityTypeNote         ActivityType = "NOTE"
)

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityTypeCreate, ActivityTypeUpdate, ActivityTypeDelete,
		ActivityTypeStatusChange, ActivityTypeConvert, ActivityTypeApprove,
		ActivityTypeReject, ActivityTypePayment, ActivityTypeNote:
		return true
	}
	return false
}

type AttachmentEntityType string

const (
	AttachmentEntityExpense AttachmentEntityType = "EXPENSE"
	AttachmentEntityClient  AttachmentEntityType = "CLIENT"
	AttachmentEntityProject AttachmentEntityType = "PROJECT"
	AttachmentEntityInvoice AttachmentEntityType = "INVOICE"
	AttachmentEntityUser    AttachmentEntityType = "USER"
)

func (t AttachmentEntityType) Valid() bool {
	switch t {
	case AttachmentEntityExpense, AttachmentEntityClient, AttachmentEntityProject,
		AttachmentEntityInvoice, AttachmentEntityUser:
		return true
	}
	return false
}

const dateLayout = "2006-01-02"

// Date is a calendar date serialized as "2006-01-02" and stored in a
// DATE column.
type Date time.Time

func NewDate(year int, month time.Month, day int) Date {
	return Date(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// Today is the current calendar date.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), now.Month(), now.Day())
}

func (d Date) Time() time.Time {
	return time.Time(d)
}

func (d Date) IsZero() bool {
	return time.Time(d).IsZero()
}

func (d Date) String() string {
	return time.Time(d).Format(dateLayout)
}

func (d Date) After(other Date) bool {
	return time.Time(d).After(time.Time(other))
}

func (d Date) Before(other Date) bool {
	return time.Time(d).Before(time.Time(other))
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(d).Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	str := strings.Trim(string(data), `"`)
	if str == "" || str == "null" {
		*d = Date{}
		return nil
	}
	// Tolerate full timestamps from older clients.
	parsed, err := time.Parse(dateLayout, str)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, str)
		if err != nil {
			return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", str)
		}
	}
	*d = Date(parsed.UTC().Truncate(24 * time.Hour))
	return nil
}

func (d Date) Value() (driver.Value, error) {
	if time.Time(d).IsZero() {
		return nil, nil
	}
	return time.Time(d).Format(dateLayout), nil
}

func (d *Date) Scan(value interface{}) error {
	if value == nil {
		*d = Date{}
		return nil
	}
	switch v := value.(type) {
	case time.Time:
		*d = Date(v)
		return nil
	case []byte:
		parsed, err := time.Parse(dateLayout, string(v))
		if err != nil {
			return err
		}
		*d = Date(parsed)
		return nil
	case string:
		parsed, err := time.Parse(dateLayout, v)
		if err != nil {
			return err
		}
		*d = Date(parsed)
		return nil
	}
	return errors.New("unsupported date column type")
}

func (Date) GormDataType() string {
	return "date"
}

// ParseDateParam parses an optional YYYY-MM-DD query parameter, naming
// the offending field on failure.
func ParseDateParam(field, value string) (*Date, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, utils.NewValidationError(field, "must be a date formatted YYYY-MM-DD")
	}
	d := Date(parsed)
	return &d, nil
}
