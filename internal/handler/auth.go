package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/healthtrack/sync-server/internal/middleware"
	"github.com/healthtrack/sync-server/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

// Register: create user and return a session immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	session, err := h.Auth.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		if err == service.ErrEmailTaken {
			return fail(c, http.StatusBadRequest, "Email already registered")
		}
		return fail(c, http.StatusInternalServerError, "Registration failed")
	}
	return ok(c, http.StatusCreated, session)
}

// Login: verify credentials and return a new session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	session, err := h.Auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		if err == service.ErrInvalidCredentials {
			return fail(c, http.StatusUnauthorized, "Invalid email or password")
		}
		return fail(c, http.StatusInternalServerError, "Login failed")
	}
	return ok(c, http.StatusOK, session)
}

// Refresh: rotate the refresh token and return a new session. The
// presented token is consumed whether or not rotation succeeds.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "Refresh token is required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	session, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		switch err {
		case service.ErrRefreshTokenExpired:
			return fail(c, http.StatusUnauthorized, "Refresh token expired")
		case service.ErrInvalidRefreshToken:
			return fail(c, http.StatusUnauthorized, "Invalid refresh token")
		}
		return fail(c, http.StatusInternalServerError, "Refresh failed")
	}
	return ok(c, http.StatusOK, session)
}

// Logout: revoke the supplied refresh token. Idempotent; an absent or
// already-removed token is not an error.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Auth.Logout(ctx, strings.TrimSpace(req.RefreshToken)); err != nil {
		return fail(c, http.StatusInternalServerError, "Logout failed")
	}
	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Code:    http.StatusOK,
		Message: "Logged out successfully",
	})
}

// Verify: protected probe returning the identity the guard resolved.
func (h *AuthHandler) Verify(c echo.Context) error {
	return c.JSON(http.StatusOK, envelope{
		Success: true,
		Code:    http.StatusOK,
		Message: "Token is valid",
		Data: map[string]any{
			"userId": c.Get(middleware.ContextUserID),
			"email":  c.Get(middleware.ContextUserEmail),
		},
	})
}
