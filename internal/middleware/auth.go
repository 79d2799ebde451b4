// Package middleware contains the Echo middleware used by the HTTP
// layer: bearer-token authentication, a Redis response cache for the
// film listing endpoints and a fixed-window rate limiter.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lmarsden/film-catalog/internal/auth"
)

// userIDKey is the context key handlers read the authenticated user id
// from. Set only after a token has been verified.
const userIDKey = "user_id"

// RequireAuth validates a Bearer access token and stores the subject
// user id in the request context. Requests without a valid token get
// 401 and never reach the handler.
func RequireAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			userID, err := auth.VerifyAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(userIDKey, userID)
			return next(c)
		}
	}
}

// OptionalAuth sets the user id when a valid Bearer token is present
// and otherwise lets the request through anonymously. Used by routes
// whose response shape depends on who is asking, such as the user
// profile view that only shows the email to its owner.
func OptionalAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw, ok := bearerToken(c); ok {
				if userID, err := auth.VerifyAccessToken(secret, raw); err == nil {
					c.Set(userIDKey, userID)
				}
			}
			return next(c)
		}
	}
}

// UserID returns the authenticated user id from the context, or false
// when the request is anonymous.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(userIDKey).(uint64)
	return id, ok
}

func bearerToken(c echo.Context) (string, bool) {
	h := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	raw := strings.TrimPrefix(h, "Bearer ")
	return raw, raw != ""
}
