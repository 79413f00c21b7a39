package utils

import (
	"context"
	"fmt"

	"github.com/craftlane/agency_backend/config"
)

// ValidateResourceId confirms a referenced row exists, returning
// ErrorRecordNotFound otherwise. T names the model type.
func ValidateResourceId[T any](ctx context.Context, id int) error {
	if id == 0 {
		return ErrorRecordNotFound
	}

	var count int64
	db := config.GetDB()
	var model T
	dbCtx := db.WithContext(ctx).Model(&model)
	err := dbCtx.Where("id = ?", id).Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrorRecordNotFound
	}
	return nil
}

// ValidateResourcesId checks that every id in ids exists for model T.
func ValidateResourcesId[T any](ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	unique := UniqueSlice(ids)

	var count int64
	db := config.GetDB()
	var model T
	dbCtx := db.WithContext(ctx).Model(&model)
	err := dbCtx.Where("id IN ?", unique).Count(&count).Error
	if err != nil {
		return err
	}
	if count != int64(len(unique)) {
		return ErrorRecordNotFound
	}
	return nil
}

// ValidateUnique enforces a unique column value for model T, excluding
// exceptId on updates. Returns a descriptive error when taken.
func ValidateUnique[T any](ctx context.Context, column string, value interface{}, exceptId int) error {
	var count int64
	db := config.GetDB()
	var model T
	dbCtx := db.WithContext(ctx).Model(&model)
	dbCtx = dbCtx.Where(fmt.Sprintf("%s = ?", column), value)
	if exceptId > 0 {
		dbCtx = dbCtx.Where("id != ?", exceptId)
	}
	err := dbCtx.Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%s already exists", column)
	}
	return nil
}

// ResourceCountWhere counts rows of model T matching the condition.
func ResourceCountWhere[T any](ctx context.Context, condition string, values ...interface{}) (int64, error) {
	var count int64
	db := config.GetDB()
	var model T
	dbCtx := db.WithContext(ctx).Model(&model)
	err := dbCtx.Where(condition, values...).Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}
