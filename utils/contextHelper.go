package utils

import (
	"context"

	"github.com/craftlane/agency_backend/appctx"
)

func GetContextToken(ctx context.Context) string {
	return appctx.GetString(ctx, appctx.Token)
}

func SetContextToken(ctx context.Context, token string) context.Context {
	return appctx.Set(ctx, appctx.Token, token)
}

func GetContextUserEmail(ctx context.Context) string {
	return appctx.GetString(ctx, appctx.UserEmail)
}

func SetContextUserEmail(ctx context.Context, email string) context.Context {
	return appctx.Set(ctx, appctx.UserEmail, email)
}

func GetContextUserId(ctx context.Context) int {
	return appctx.GetInt(ctx, appctx.UserId)
}

func SetContextUserId(ctx context.Context, userId int) context.Context {
	return appctx.Set(ctx, appctx.UserId, userId)
}

func GetContextUserName(ctx context.Context) string {
	return appctx.GetString(ctx, appctx.UserName)
}

func SetContextUserName(ctx context.Context, userName string) context.Context {
	return appctx.Set(ctx, appctx.UserName, userName)
}

func GetContextUserRole(ctx context.Context) string {
	return appctx.GetString(ctx, appctx.UserRole)
}

func SetContextUserRole(ctx context.Context, role string) context.Context {
	return appctx.Set(ctx, appctx.UserRole, role)
}

func GetContextIsAdmin(ctx context.Context) bool {
	return appctx.GetBool(ctx, appctx.IsAdmin)
}

func SetContextIsAdmin(ctx context.Context, isAdmin bool) context.Context {
	return appctx.Set(ctx, appctx.IsAdmin, isAdmin)
}

func GetContextCorrelationId(ctx context.Context) string {
	return appctx.GetString(ctx, appctx.CorrelationId)
}

func SetContextCorrelationId(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, appctx.CorrelationId, correlationId)
}
