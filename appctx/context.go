package appctx

import "context"

// ContextKey is the shared type for all request context keys in this
// codebase. Keeping it in a tiny package avoids an import cycle
// between config and utils.
type ContextKey string

func (c ContextKey) String() string { return string(c) }

var (
	Token         = ContextKey("Token")
	UserEmail     = ContextKey("UserEmail")
	UserId        = ContextKey("UserId")
	UserName      = ContextKey("UserName")
	UserRole      = ContextKey("UserRole")
	CorrelationId = ContextKey("CorrelationId")

	// IsAdmin is true for ADMIN users. Gates sensitive mutations.
	IsAdmin = ContextKey("IsAdmin")
)

func GetString(ctx context.Context, key ContextKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

func GetBool(ctx context.Context, key ContextKey) bool {
	v, _ := ctx.Value(key).(bool)
	return v
}

func GetInt(ctx context.Context, key ContextKey) int {
	v, _ := ctx.Value(key).(int)
	return v
}

func Set(ctx context.Context, key ContextKey, value any) context.Context {
	return context.WithValue(ctx, key, value)
}
