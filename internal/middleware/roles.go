package middleware

import (
	"chatflow-service/internal/apperr"
	"chatflow-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequireRoles rejects authenticated callers whose role is not in the allowed
// set. A role mismatch is reported as a conflict, not a 403.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims := ClaimsFromEcho(c)
			if claims == nil {
				return apperr.Respond(c, apperr.Unauthorizedf("Access token required"))
			}
			if _, ok := allowed[claims.Role]; !ok {
				logger.FromEcho(c).Warn("Role not allowed for route",
					zap.String("role", claims.Role),
					zap.String("path", c.Path()))
				return apperr.Respond(c, apperr.Conflictf("You do not have permission"))
			}
			return next(c)
		}
	}
}
