package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const userIDContextKey = "authenticated_user_id"

// RequireUser consumes the authenticated user id set by the upstream
// identity provider. This service only trusts the id; credential
// validation and role claims are the provider's job.
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := c.Request().Header.Get("X-User-ID")
			if userID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			c.Set(userIDContextKey, userID)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id stored by RequireUser.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDContextKey).(string)
	return id
}
