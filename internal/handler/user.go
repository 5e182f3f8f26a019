package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/healthtrack/sync-server/internal/model"
	"github.com/healthtrack/sync-server/internal/repository"
	"github.com/healthtrack/sync-server/internal/utils"
)

// UserHandler exposes user administration endpoints. All routes sit
// behind the bearer guard.
type UserHandler struct {
	Users      *repository.UserRepo
	BcryptCost int
}

func NewUserHandler(users *repository.UserRepo, bcryptCost int) *UserHandler {
	return &UserHandler{Users: users, BcryptCost: bcryptCost}
}

type createUserReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// GetByID returns one user without credential material.
func (h *UserHandler) GetByID(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.Users.GetByID(ctx, c.Param("id"))
	if err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusNotFound, "User not found")
		}
		return fail(c, http.StatusInternalServerError, "Query failed")
	}
	return c.JSON(http.StatusOK, user.Response())
}

// List returns all users.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Query failed")
	}
	out := make([]model.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.Response())
	}
	return c.JSON(http.StatusOK, out)
}

// Create adds a user without issuing a session, unlike register.
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, "Email and password are required")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Create user failed")
	}
	user, err := h.Users.Create(ctx, req.Email, hash, req.Name)
	if err != nil {
		if err == repository.ErrEmailExists {
			return fail(c, http.StatusBadRequest, "Email already exists")
		}
		return fail(c, http.StatusInternalServerError, "Create user failed")
	}
	return c.JSON(http.StatusCreated, user.Response())
}

// Delete removes a user by id.
func (h *UserHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	deleted, err := h.Users.Delete(ctx, c.Param("id"))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Delete failed")
	}
	if !deleted {
		return fail(c, http.StatusNotFound, "User not found")
	}
	return c.NoContent(http.StatusNoContent)
}
