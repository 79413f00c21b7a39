package reports

import (
	"context"
	"time"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/models"
	"github.com/shopspring/decimal"
)

type BudgetUtilizationRow struct {
	BudgetId        int                 `json:"budgetId"`
	Name            string              `json:"name"`
	Period          models.BudgetPeriod `json:"period"`
	StartDate       models.Date         `json:"startDate"`
	EndDate         models.Date         `json:"endDate"`
	TotalAmount     decimal.Decimal     `json:"totalAmount"`
	SpentAmount     decimal.Decimal     `json:"spentAmount"`
	RemainingAmount decimal.Decimal     `json:"remainingAmount"`
	UtilizationRate float64             `json:"utilizationRate"`
	OverBudget      bool                `json:"overBudget"`
}

// GetBudgetUtilizationReport computes spend against every budget.
// Spend follows the same rules as the per-budget endpoint: approved and
// reimbursed expenses dated inside the budget window, scoped to the
// budget's project or client when one is set.
func GetBudgetUtilizationReport(ctx context.Context) ([]*BudgetUtilizationRow, error) {
	start := time.Now()
	defer logSlowReport(ctx, "budget_utilization", start)

	db := config.GetDB()
	query := `
		SELECT
			budgets.id AS budget_id,
			budgets.name,
			budgets.period,
			budgets.start_date,
			budgets.end_date,
			budgets.total_amount,
			COALESCE((
				SELECT SUM(expenses.amount)
				FROM expenses
				LEFT JOIN projects ON projects.id = expenses.project_id
				WHERE expenses.status IN ('APPROVED', 'REIMBURSED')
					AND expenses.date >= budgets.start_date
					AND expenses.date <= budgets.end_date
					AND (budgets.project_id IS NULL OR expenses.project_id = budgets.project_id)
					AND (budgets.client_id IS NULL OR projects.client_id = budgets.client_id)
			), 0) AS spent_amount
		FROM budgets
		ORDER BY budgets.start_date DESC, budgets.id DESC`

	results := make([]*BudgetUtilizationRow, 0)
	if err := db.WithContext(ctx).Raw(query).Scan(&results).Error; err != nil {
		return nil, err
	}

	for _, row := range results {
		row.RemainingAmount = row.TotalAmount.Sub(row.SpentAmount)
		row.UtilizationRate = models.UtilizationRate(row.SpentAmount, row.TotalAmount)
		row.OverBudget = row.SpentAmount.GreaterThan(row.TotalAmount)
	}
	return results, nil
}
