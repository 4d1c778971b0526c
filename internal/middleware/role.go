package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecocharge-reservation/internal/model"
)

// RequireRole rejects callers whose session role is not one of roles. It
// must run after JWTAuth.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, ok := SessionFrom(c)
			if !ok {
				return deny(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
			}
			if !allowed[s.Role] {
				return deny(c, http.StatusForbidden, "FORBIDDEN", "forbidden")
			}
			return next(c)
		}
	}
}
