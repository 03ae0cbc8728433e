package utils

import (
	"context"
	"time"

	"equipment-manager/pkg/contextkeys"

	"github.com/labstack/echo/v4"
)

func ContextWithTimeout(ctx echo.Context, timeout int) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request().Context(), time.Duration(timeout)*time.Second)
}

// EditorFromContext - подпись редактора, положенная AuthMiddleware.
func EditorFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(contextkeys.EditorNameKey).(string); ok && name != "" {
		return name
	}
	email, _ := ctx.Value(contextkeys.EditorEmailKey).(string)
	return email
}
