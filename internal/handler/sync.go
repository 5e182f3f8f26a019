package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/healthtrack/sync-server/internal/middleware"
	"github.com/healthtrack/sync-server/internal/model"
	"github.com/healthtrack/sync-server/internal/repository"
	"github.com/healthtrack/sync-server/internal/service"
)

// defaultChangesLimit caps a changes page when the client does not ask
// for a specific size.
const defaultChangesLimit = 100

// SyncHandler exposes backup and incremental sync endpoints. Ownership
// of backups is enforced here, at the controller boundary; the stores
// themselves are ownership-agnostic.
type SyncHandler struct {
	Sync *service.SyncService
}

func NewSyncHandler(sync *service.SyncService) *SyncHandler {
	return &SyncHandler{Sync: sync}
}

// callerID returns the authenticated user id attached by the guard.
func callerID(c echo.Context) string {
	id, _ := c.Get(middleware.ContextUserID).(string)
	return id
}

// UploadBackup stores a full snapshot and returns its metadata summary.
func (h *SyncHandler) UploadBackup(c echo.Context) error {
	payload, err := io.ReadAll(c.Request().Body)
	if err != nil || !json.Valid(payload) {
		return fail(c, http.StatusBadRequest, "Invalid backup payload")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	backup, err := h.Sync.CreateBackup(ctx, callerID(c), payload, c.Request().Header.Get("X-Device-Info"))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Backup failed")
	}
	return c.JSON(http.StatusCreated, backup.Response())
}

// DownloadBackup returns the full snapshot of one backup. A backup
// belonging to someone else fails closed with 403, distinct from 404.
func (h *SyncHandler) DownloadBackup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	backup, err := h.Sync.Backup(ctx, c.Param("id"))
	if err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusNotFound, "Backup not found")
		}
		return fail(c, http.StatusInternalServerError, "Query failed")
	}
	if backup.UserID != callerID(c) {
		return fail(c, http.StatusForbidden, "Access denied")
	}
	return c.JSON(http.StatusOK, backup.DataResponse())
}

// ListBackups returns the caller's backups newest first, metadata only.
func (h *SyncHandler) ListBackups(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	backups, err := h.Sync.Backups(ctx, callerID(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Query failed")
	}
	out := make([]model.BackupResponse, 0, len(backups))
	for _, b := range backups {
		out = append(out, b.Response())
	}
	return c.JSON(http.StatusOK, out)
}

// DeleteBackup removes one of the caller's backups.
func (h *SyncHandler) DeleteBackup(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	backup, err := h.Sync.Backup(ctx, c.Param("id"))
	if err != nil {
		if err == repository.ErrNotFound {
			return fail(c, http.StatusNotFound, "Backup not found")
		}
		return fail(c, http.StatusInternalServerError, "Query failed")
	}
	if backup.UserID != callerID(c) {
		return fail(c, http.StatusForbidden, "Access denied")
	}
	if _, err := h.Sync.DeleteBackup(ctx, backup); err != nil {
		return fail(c, http.StatusInternalServerError, "Delete failed")
	}
	return c.NoContent(http.StatusNoContent)
}

// SyncIncremental appends the client's local change batch to the log.
func (h *SyncHandler) SyncIncremental(c echo.Context) error {
	var req model.IncrementalSyncRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "Invalid request body")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	result, err := h.Sync.SubmitIncremental(ctx, callerID(c), req)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Sync failed")
	}
	return c.JSON(http.StatusOK, result)
}

// GetChanges answers a cursor query: everything newer than ?since, up
// to ?limit entries, partitioned by data type. An absent or unparsable
// cursor means the epoch (fetch everything).
func (h *SyncHandler) GetChanges(c echo.Context) error {
	since := time.Time{}
	if raw := c.QueryParam("since"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			since = ts
		}
	}
	limit := defaultChangesLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	resp, err := h.Sync.ChangesSince(ctx, callerID(c), since, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Query failed")
	}
	return c.JSON(http.StatusOK, resp)
}

// GetSyncStatus reports the caller's most recent change timestamp.
func (h *SyncHandler) GetSyncStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	status, err := h.Sync.Status(ctx, callerID(c))
	if err != nil {
		return fail(c, http.StatusInternalServerError, "Query failed")
	}
	return c.JSON(http.StatusOK, status)
}
