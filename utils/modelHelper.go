package utils

import (
	"context"
	"errors"

	"github.com/craftlane/agency_backend/config"
	"gorm.io/gorm"
)

// FetchModel loads one row of T by id with the given associations
// preloaded, mapping gorm.ErrRecordNotFound to ErrorRecordNotFound.
func FetchModel[T any](ctx context.Context, id int, associations ...string) (*T, error) {
	var model T
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	for _, association := range associations {
		dbCtx = dbCtx.Preload(association)
	}
	err := dbCtx.First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &model, nil
}
