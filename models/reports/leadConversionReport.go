package reports

import (
	"context"

	"github.com/craftlane/agency_backend/config"
	"github.com/craftlane/agency_backend/models"
)

type LeadConversionReport struct {
	Total          int64            `json:"total"`
	ByStatus       map[string]int64 `json:"byStatus"`
	ConversionRate float64          `json:"conversionRate"`
}

func leadConversionRate(byStatus map[string]int64, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(byStatus[string(models.LeadStatusClosedWon)]) / float64(total)
}

// GetLeadConversionReport counts leads per status, optionally limited
// to leads created inside the given range. Both bounds are inclusive
// calendar dates.
func GetLeadConversionReport(ctx context.Context, dateFrom, dateTo *models.Date) (*LeadConversionReport, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&models.Lead{})
	if dateFrom != nil {
		dbCtx = dbCtx.Where("created_at >= ?", dateFrom.Time())
	}
	if dateTo != nil {
		dbCtx = dbCtx.Where("created_at < ?", dateTo.Time().AddDate(0, 0, 1))
	}

	counts, err := models.CountByColumn(dbCtx, "status")
	if err != nil {
		return nil, err
	}

	byStatus := fillStatuses(counts, models.AllLeadStatuses())
	var total int64
	for _, count := range byStatus {
		total += count
	}
	return &LeadConversionReport{
		Total:          total,
		ByStatus:       byStatus,
		ConversionRate: leadConversionRate(byStatus, total),
	}, nil
}
