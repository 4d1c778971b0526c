package middleware // package middleware holds the Echo middleware shared by route groups

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ecocharge-reservation/internal/model"
	"github.com/iliyamo/ecocharge-reservation/internal/session"
	"github.com/iliyamo/ecocharge-reservation/internal/utils"
)

const sessionKey = "session"

// JWTAuth validates a Bearer access token and stores the caller as a
// session.Session on the context. The user id and role are also set under
// "user_id" and "role" for the rate limiter and request logs.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return deny(c, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			}
			claims, err := utils.ParseAccessToken(secret, strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
			if err != nil {
				return deny(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
			}
			role := model.Role(claims.Role)
			if !role.Valid() {
				return deny(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
			}

			c.Set(sessionKey, session.Session{UserID: claims.UserID, Role: role})
			c.Set("user_id", strconv.FormatUint(claims.UserID, 10))
			c.Set("role", string(role))
			return next(c)
		}
	}
}

// SessionFrom returns the session stored by JWTAuth.
func SessionFrom(c echo.Context) (session.Session, bool) {
	s, ok := c.Get(sessionKey).(session.Session)
	return s, ok && s.UserID != 0
}

// deny writes the standard error envelope.
func deny(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, echo.Map{
		"success": false,
		"error":   echo.Map{"code": code, "message": msg},
	})
}
