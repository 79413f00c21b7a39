package models

import (
	"strings"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

func NormalizePageLimit(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

func NewPagination(page, limit int, total int64) *Pagination {
	page, limit = NormalizePageLimit(page, limit)
	pages := int((total + int64(limit) - 1) / int64(limit))
	return &Pagination{
		Page:    page,
		Limit:   limit,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1 && total > 0,
	}
}

// ResolveSort maps an exposed sort field through the resource's
// whitelist, falling back to the default pair on anything unknown.
func ResolveSort(sortBy, sortOrder string, allowed map[string]string, defaultField, defaultOrder string) string {
	column, ok := allowed[sortBy]
	if !ok {
		column = allowed[defaultField]
		sortOrder = defaultOrder
	}
	order := strings.ToLower(strings.TrimSpace(sortOrder))
	if order != "asc" && order != "desc" {
		order = defaultOrder
	}
	return column + " " + order
}

// FetchPageOffset runs the page query and the total count concurrently
// against independent sessions cloned from dbCtx's conditions.
func FetchPageOffset[T any](dbCtx *gorm.DB, page, limit int, orderExpr string) ([]*T, *Pagination, error) {
	page, limit = NormalizePageLimit(page, limit)

	g, ctx := errgroup.WithContext(dbCtx.Statement.Context)
	countDB := dbCtx.WithContext(ctx)
	pageDB := dbCtx.WithContext(ctx)

	var total int64
	g.Go(func() error {
		var model T
		return countDB.Model(&model).Count(&total).Error
	})

	var rows []*T
	g.Go(func() error {
		return pageDB.Order(orderExpr).
			Offset((page - 1) * limit).
			Limit(limit).
			Find(&rows).Error
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if rows == nil {
		rows = []*T{}
	}
	return rows, NewPagination(page, limit, total), nil
}

// ApplySearch adds a case-insensitive substring match across columns.
func ApplySearch(dbCtx *gorm.DB, search string, columns ...string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" || len(columns) == 0 {
		return dbCtx
	}
	pattern := "%" + search + "%"
	clauses := make([]string, len(columns))
	values := make([]interface{}, len(columns))
	for i, column := range columns {
		clauses[i] = column + " LIKE ?"
		values[i] = pattern
	}
	return dbCtx.Where("("+strings.Join(clauses, " OR ")+")", values...)
}

// ApplyDateRange bounds column inclusively. The end bound is expressed
// as "< to+1d" so it also covers datetime columns.
func ApplyDateRange(dbCtx *gorm.DB, column string, from *Date, to *Date) *gorm.DB {
	if from != nil && !from.IsZero() {
		dbCtx = dbCtx.Where(column+" >= ?", from.Time())
	}
	if to != nil && !to.IsZero() {
		dbCtx = dbCtx.Where(column+" < ?", to.Time().AddDate(0, 0, 1))
	}
	return dbCtx
}
