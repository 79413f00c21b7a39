package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/models"
	"github.com/craftlane/agency_backend/utils"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type DashboardLeads struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"byStatus"`
	ConversionRate float64          `json:"conversionRate"`
}

type DashboardProjects struct {
	ByStatus map[string]int64 `json:"byStatus"`
	Active   int64            `json:"active"`
}

type DashboardTasks struct {
	CompletionRate float64 `json:"completionRate"`
	Overdue        int64   `json:"overdue"`
}

type DashboardFinance struct {
	TotalInvoiced       decimal.Decimal `json:"totalInvoiced"`
	TotalPaid           decimal.Decimal `json:"totalPaid"`
	Outstanding         decimal.Decimal `json:"outstanding"`
	ExpensesMonthToDate decimal.Decimal `json:"expensesMonthToDate"`
}

type DashboardReport struct {
	Leads          DashboardLeads    `json:"leads"`
	Projects       DashboardProjects `json:"projects"`
	Tasks          DashboardTasks    `json:"tasks"`
	Finance        DashboardFinance  `json:"finance"`
	HoursThisMonth decimal.Decimal   `json:"hoursThisMonth"`
}

// fillStatuses guarantees a bucket for every known status so report
// payloads keep a stable shape. Values outside the known set pass
// through untouched.
func fillStatuses[S ~string](counts map[string]int64, statuses []S) map[string]int64 {
	filled := make(map[string]int64, len(statuses))
	for _, status := range statuses {
		filled[string(status)] = counts[string(status)]
	}
	for value, count := range counts {
		if _, ok := filled[value]; !ok {
			filled[value] = count
		}
	}
	return filled
}

// GetDashboardReport assembles the landing page numbers in one shot.
// Every section reads the live tables; with ENABLE_REPORT_CACHE set the
// whole payload is served from redis for a couple of minutes.
func GetDashboardReport(ctx context.Context) (*DashboardReport, error) {
	start := time.Now()
	defer logSlowReport(ctx, "dashboard", start)

	cacheKey := fmt.Sprintf("Report:dashboard:%s", time.Now().Format("2006-01-02"))
	if config.ReportCacheEnabled() {
		var cached *DashboardReport
		if ok, err := cacheGet(cacheKey, &cached); err == nil && ok && cached != nil {
			return cached, nil
		}
	}

	report, err := buildDashboardReport(ctx)
	if err != nil {
		return nil, err
	}

	if config.ReportCacheEnabled() {
		_ = cacheSet(cacheKey, report, reportCacheTTL())
	}
	return report, nil
}

func buildDashboardReport(ctx context.Context) (*DashboardReport, error) {
	db := config.GetDB()
	monthStart, monthEnd := utils.GetThisMonthRange()

	report := DashboardReport{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := models.CountByColumn(db.WithContext(gctx).Model(&models.Lead{}), "status")
		if err != nil {
			return err
		}
		byStatus := fillStatuses(counts, models.AllLeadStatuses())
		var total int64
		for _, count := range byStatus {
			total += count
		}
		report.Leads = DashboardLeads{
			Total:          total,
			ByStatus:       byStatus,
			ConversionRate: leadConversionRate(byStatus, total),
		}
		return nil
	})
	g.Go(func() error {
		counts, err := models.CountByColumn(db.WithContext(gctx).Model(&models.Project{}), "status")
		if err != nil {
			return err
		}
		byStatus := fillStatuses(counts, models.AllProjectStatuses())
		var active int64
		for _, status := range models.AllProjectStatuses() {
			if status.Active() {
				active += byStatus[string(status)]
			}
		}
		report.Projects = DashboardProjects{ByStatus: byStatus, Active: active}
		return nil
	})
	g.Go(func() error {
		counts, err := models.CountByColumn(db.WithContext(gctx).Model(&models.Task{}), "status")
		if err != nil {
			return err
		}
		report.Tasks.CompletionRate = models.CompletionRate(counts)
		return nil
	})
	g.Go(func() error {
		return db.WithContext(gctx).Model(&models.Task{}).
			Where("due_date < ? AND status IN ?", models.Today(),
				[]models.TaskStatus{models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusReview}).
			Count(&report.Tasks.Overdue).Error
	})
	g.Go(func() error {
		var result struct {
			TotalInvoiced decimal.Decimal
			TotalPaid     decimal.Decimal
			Outstanding   decimal.Decimal
		}
		err := db.WithContext(gctx).Raw(`
			SELECT
				COALESCE(SUM(total), 0) AS total_invoiced,
				COALESCE(SUM(paid_total), 0) AS total_paid,
				COALESCE(SUM(CASE WHEN status <> 'CANCELLED' THEN total - paid_total ELSE 0 END), 0) AS outstanding
			FROM invoices`).Scan(&result).Error
		if err != nil {
			return err
		}
		report.Finance.TotalInvoiced = result.TotalInvoiced
		report.Finance.TotalPaid = result.TotalPaid
		report.Finance.Outstanding = result.Outstanding
		return nil
	})
	g.Go(func() error {
		total, err := models.SumColumn(
			db.WithContext(gctx).Model(&models.Expense{}).
				Where("status != ?", models.ExpenseStatusRejected).
				Where("date >= ? AND date < ?", models.Date(monthStart), models.Date(monthEnd)),
			"amount")
		report.Finance.ExpensesMonthToDate = total
		return err
	})
	g.Go(func() error {
		hours, err := models.SumColumn(
			db.WithContext(gctx).Model(&models.TimeEntry{}).
				Where("date >= ? AND date < ?", models.Date(monthStart), models.Date(monthEnd)),
			"hours")
		report.HoursThisMonth = hours
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &report, nil
}
