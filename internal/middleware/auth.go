// Package middleware contains reusable HTTP middleware. The bearer
// guard here fronts every protected route.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/healthtrack/sync-server/internal/model"
	"github.com/healthtrack/sync-server/internal/utils"
)

// Context keys under which the guard stores the resolved identity.
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
)

// AccessVerifier validates an access token string and returns its claims.
type AccessVerifier interface {
	VerifyAccess(raw string) (*utils.Claims, error)
}

// UserLoader resolves a user by id. The guard re-checks existence so a
// token that outlives its user (e.g. after account deletion) stops
// working immediately.
type UserLoader interface {
	GetByID(ctx context.Context, id string) (model.User, error)
}

type errorBody struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Authenticate returns an Echo middleware that validates a Bearer
// access token, confirms the referenced user still exists, and injects
// the identity into the request context for downstream handlers.
func Authenticate(verifier AccessVerifier, users UserLoader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, errorBody{
					Code: http.StatusUnauthorized, Message: "Access token required",
				})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := verifier.VerifyAccess(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorBody{
					Code: http.StatusUnauthorized, Message: "Invalid or expired token",
				})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			user, err := users.GetByID(ctx, claims.UserID)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, errorBody{
					Code: http.StatusUnauthorized, Message: "User not found",
				})
			}

			c.Set(ContextUserID, user.ID)
			c.Set(ContextUserEmail, user.Email)
			return next(c)
		}
	}
}
