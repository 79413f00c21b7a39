package models

import (
	"context"

	"github.com/craftlane/agency_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GetResource reads one row through the redis cache. Mutation paths
// call InvalidateResource so stale copies never outlive an update.
func GetResource[T any](ctx context.Context, id int) (*T, error) {
	cached, _ := utils.RetrieveRedis[T](id)
	if cached != nil {
		return cached, nil
	}

	resource, err := utils.FetchModel[T](ctx, id)
	if err != nil {
		return nil, err
	}

	// cache failure is not worth failing the read
	_ = utils.StoreRedis(id, resource)

	return resource, nil
}

// InvalidateResource drops the cached copy under key, which is the id
// for GetResource reads and the email for the user-by-email path.
func InvalidateResource[T any](key interface{}) {
	_ = utils.RemoveRedis[T](key)
}

// BlockerRef identifies a row that blocks a delete, carried in the
// conflict response details.
type BlockerRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type valueCountRow struct {
	Value string
	Count int64
}

// CountByColumn returns grouped counts for the rows matched by dbCtx.
// Runs on a forked session so the caller's chain stays reusable.
func CountByColumn(dbCtx *gorm.DB, column string) (map[string]int64, error) {
	var rows []valueCountRow
	err := dbCtx.Session(&gorm.Session{}).
		Select(column + " as value, count(*) as count").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Value] = row.Count
	}
	return counts, nil
}

// SumColumn totals one numeric column over the rows matched by dbCtx.
func SumColumn(dbCtx *gorm.DB, column string) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := dbCtx.Session(&gorm.Session{}).
		Select("coalesce(sum(" + column + "), 0) as total").
		Scan(&result).Error
	if err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}
