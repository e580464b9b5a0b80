package middleware

import (
	"github.com/labstack/echo/v4"

	"churchadmin/internal/access"
)

// RequireAuthorization rejects the request unless the caller's identity
// satisfies req. It must run after Authenticate.
func RequireAuthorization(req access.Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := access.Check(Identity(c), req); err != nil {
				return err
			}
			return next(c)
		}
	}
}
