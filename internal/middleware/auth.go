package middleware

import (
	"strings"

	"chatflow-service/internal/apperr"
	"chatflow-service/pkg/jwtutil"
	"chatflow-service/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const userContextKey = "user"

// JWTAuthMiddleware validates the bearer token and stores the verified claims
// in the echo context under "user"
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing access token")
				return apperr.Respond(c, apperr.Unauthorizedf("Access token required"))
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("Invalid token scheme", zap.String("scheme", strings.Split(authHeader, " ")[0]))
				return apperr.Respond(c, apperr.Unauthorizedf("Token must use Bearer scheme"))
			}

			claims, err := jwtUtil.ValidateToken(authHeader[7:])
			if err != nil {
				log.Warn("Token validation failed", zap.Error(err))
				return apperr.Respond(c, apperr.Unauthorizedf("Invalid or expired token"))
			}

			c.Set(userContextKey, claims)

			log = log.With(
				zap.String("subject", claims.Subject),
				zap.String("role", claims.Role),
			)
			c.Set("logger", log)

			return next(c)
		}
	}
}

// ClaimsFromEcho returns the verified claims stored by JWTAuthMiddleware,
// or nil when the request is unauthenticated
func ClaimsFromEcho(c echo.Context) *jwtutil.UserClaims {
	claims, ok := c.Get(userContextKey).(*jwtutil.UserClaims)
	if !ok {
		return nil
	}
	return claims
}
