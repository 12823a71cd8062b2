package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bharathj0410/leadrabbit/pkg/auth"
	"github.com/bharathj0410/leadrabbit/pkg/domain"
	"github.com/bharathj0410/leadrabbit/pkg/models"
)

// Context keys set by the session middleware.
const (
	AuthContextKey = "auth_context"
	TokenKey       = "token"
)

// SessionCookieName is the HTTP-only cookie carrying the session token.
const SessionCookieName = "session"

// Session authenticates every request through the resolver and stashes the
// resolved AuthContext for handlers. The token is read from the session
// cookie, falling back to a Bearer header for non-browser clients.
func Session(resolver *auth.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			ac, err := resolver.ResolveAuthenticatedUser(ctx, token)
			if err != nil {
				return c.JSON(domain.HTTPStatus(err), models.ErrorResponse{
					Error:   domain.GetErrorCode(err),
					Message: domain.PublicMessage(err),
				})
			}

			c.Set(AuthContextKey, ac)
			c.Set(TokenKey, token)

			return next(c)
		}
	}
}

// RequireAdmin rejects non-admin callers. Must run after Session.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ac := GetAuthContext(c)
			if ac == nil || ac.Role != models.RoleAdmin {
				err := domain.NewForbiddenError("admin access required")
				return c.JSON(domain.HTTPStatus(err), models.ErrorResponse{
					Error:   domain.GetErrorCode(err),
					Message: domain.PublicMessage(err),
				})
			}
			return next(c)
		}
	}
}

// GetAuthContext returns the AuthContext stored by Session, or nil.
func GetAuthContext(c echo.Context) *auth.AuthContext {
	ac, _ := c.Get(AuthContextKey).(*auth.AuthContext)
	return ac
}

func extractToken(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}
