package logger

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ctxKey is unexported so only this package can place a logger in a context
type ctxKey struct{}

// WithContext returns a context carrying the given logger
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger carried by the context, falling back to the
// global one
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	return GetLogger()
}

// FromEcho returns the request-scoped logger the HTTP middleware stored in
// the echo context, falling back to the global one
func FromEcho(c echo.Context) *zap.Logger {
	if l, ok := c.Get("logger").(*zap.Logger); ok && l != nil {
		return l
	}
	return GetLogger()
}
