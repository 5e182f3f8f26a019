package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthtrack/sync-server/internal/middleware"
	"github.com/healthtrack/sync-server/internal/model"
	"github.com/healthtrack/sync-server/internal/repository"
	"github.com/healthtrack/sync-server/internal/service"
)

// --- in-memory stores ---

type memChanges struct {
	changes []model.SyncChange
	base    time.Time
}

func newMemChanges() *memChanges {
	return &memChanges{base: time.Now().UTC().Add(-time.Hour)}
}

func (m *memChanges) Append(_ context.Context, userID string, dataType model.DataType, action model.ActionType, data json.RawMessage) (model.SyncChange, error) {
	seq := int64(len(m.changes) + 1)
	c := model.SyncChange{
		ID: fmt.Sprintf("ch-%d", seq), Seq: seq, UserID: userID,
		DataType: dataType, Action: action, Data: data,
		Timestamp: m.base.Add(time.Duration(seq) * time.Second),
	}
	m.changes = append(m.changes, c)
	return c, nil
}

func (m *memChanges) ListSince(_ context.Context, userID string, since time.Time) ([]model.SyncChange, error) {
	out := make([]model.SyncChange, 0)
	for _, c := range m.changes {
		if c.UserID == userID && c.Timestamp.After(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memChanges) LastChangeAt(_ context.Context, userID string) (time.Time, bool, error) {
	var last time.Time
	found := false
	for _, c := range m.changes {
		if c.UserID == userID && c.Timestamp.After(last) {
			last = c.Timestamp
			found = true
		}
	}
	return last, found, nil
}

type memBackups struct {
	backups map[string]model.Backup
	nextID  int
}

func newMemBackups() *memBackups { return &memBackups{backups: map[string]model.Backup{}} }

func (m *memBackups) Create(_ context.Context, b model.Backup) (model.Backup, error) {
	m.nextID++
	b.ID = fmt.Sprintf("bk-%d", m.nextID)
	m.backups[b.ID] = b
	return b, nil
}

func (m *memBackups) GetByID(_ context.Context, id string) (model.Backup, error) {
	b, ok := m.backups[id]
	if !ok {
		return model.Backup{}, repository.ErrNotFound
	}
	return b, nil
}

func (m *memBackups) ListByUser(_ context.Context, userID string) ([]model.Backup, error) {
	out := make([]model.Backup, 0)
	for _, b := range m.backups {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBackups) Delete(_ context.Context, id string) (bool, error) {
	_, ok := m.backups[id]
	delete(m.backups, id)
	return ok, nil
}

func newTestSyncHandler() *SyncHandler {
	return NewSyncHandler(service.NewSyncService(newMemChanges(), newMemBackups(), nil))
}

// request builds an echo context pre-authenticated as userID.
func request(t *testing.T, method, target, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextUserID, userID)
	return c, rec
}

// --- tests ---

func TestBackupLifecycle(t *testing.T) {
	t.Parallel()
	h := newTestSyncHandler()
	payload := `{"diaries":[{"id":1}]}`

	// Upload.
	c, rec := request(t, http.MethodPost, "/api/v1/sync/backup", payload, "u1")
	require.NoError(t, h.UploadBackup(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created model.BackupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(len(payload)), created.FileSize)
	assert.True(t, strings.HasPrefix(created.FileName, "backup_"))

	// List shows exactly one entry with matching size.
	c, rec = request(t, http.MethodGet, "/api/v1/sync/backups", "", "u1")
	require.NoError(t, h.ListBackups(c))
	var listed []model.BackupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.FileSize, listed[0].FileSize)

	// Download returns the snapshot collections.
	c, rec = request(t, http.MethodGet, "/api/v1/sync/backup/"+created.ID, "", "u1")
	c.SetParamNames("id")
	c.SetParamValues(created.ID)
	require.NoError(t, h.DownloadBackup(c))
	require.Equal(t, http.StatusOK, rec.Code)
	var data model.BackupDataResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	require.Len(t, data.Diaries, 1)

	// Delete, then the list is empty again.
	c, rec = request(t, http.MethodDelete, "/api/v1/sync/backup/"+created.ID, "", "u1")
	c.SetParamNames("id")
	c.SetParamValues(created.ID)
	require.NoError(t, h.DeleteBackup(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, rec = request(t, http.MethodGet, "/api/v1/sync/backups", "", "u1")
	require.NoError(t, h.ListBackups(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Empty(t, listed)
}

// Cross-user access fails closed with 403, never 404 or success.
func TestBackupOwnershipIsolation(t *testing.T) {
	t.Parallel()
	h := newTestSyncHandler()

	c, rec := request(t, http.MethodPost, "/api/v1/sync/backup", `{"diaries":[]}`, "owner")
	require.NoError(t, h.UploadBackup(c))
	var created model.BackupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	c, rec = request(t, http.MethodGet, "/api/v1/sync/backup/"+created.ID, "", "intruder")
	c.SetParamNames("id")
	c.SetParamValues(created.ID)
	require.NoError(t, h.DownloadBackup(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Access denied")

	c, rec = request(t, http.MethodDelete, "/api/v1/sync/backup/"+created.ID, "", "intruder")
	c.SetParamNames("id")
	c.SetParamValues(created.ID)
	require.NoError(t, h.DeleteBackup(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// A genuinely absent backup is a 404, distinct from denial.
	c, rec = request(t, http.MethodGet, "/api/v1/sync/backup/ghost", "", "intruder")
	c.SetParamNames("id")
	c.SetParamValues("ghost")
	require.NoError(t, h.DownloadBackup(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIncrementalThenChanges(t *testing.T) {
	t.Parallel()
	h := newTestSyncHandler()

	body := `{"local_changes":{"diaries":[{"id":"d1"}],"symptoms":[],"deleted_ids":["d2"]},"device_id":"dev-1"}`
	c, rec := request(t, http.MethodPost, "/api/v1/sync/incremental", body, "u1")
	require.NoError(t, h.SyncIncremental(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var result model.SyncResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.SyncedCount)
	assert.Equal(t, 0, result.ConflictCount)

	// Both entries surface as diary changes.
	c, rec = request(t, http.MethodGet, "/api/v1/sync/changes", "", "u1")
	require.NoError(t, h.GetChanges(c))
	var changes model.SyncChangesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &changes))
	assert.Len(t, changes.Diaries, 2)
	assert.Empty(t, changes.Symptoms)
	assert.False(t, changes.HasMore)
}

func TestGetChanges_SinceAndLimit(t *testing.T) {
	t.Parallel()
	h := newTestSyncHandler()

	body := `{"local_changes":{"diaries":[{"id":"d1"},{"id":"d2"},{"id":"d3"}],"symptoms":[],"deleted_ids":[]}}`
	c, _ := request(t, http.MethodPost, "/api/v1/sync/incremental", body, "u1")
	require.NoError(t, h.SyncIncremental(c))

	c, rec := request(t, http.MethodGet, "/api/v1/sync/changes?limit=2", "", "u1")
	require.NoError(t, h.GetChanges(c))
	var page model.SyncChangesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Diaries, 2)
	assert.True(t, page.HasMore)

	// A future cursor matches nothing.
	since := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	c, rec = request(t, http.MethodGet, "/api/v1/sync/changes?since="+since, "", "u1")
	require.NoError(t, h.GetChanges(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Empty(t, page.Diaries)
	assert.False(t, page.HasMore)
}

func TestGetSyncStatus(t *testing.T) {
	t.Parallel()
	h := newTestSyncHandler()

	c, rec := request(t, http.MethodGet, "/api/v1/sync/status", "", "u1")
	require.NoError(t, h.GetSyncStatus(c))
	var status model.SyncStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Nil(t, status.LastSyncTime)
	assert.Equal(t, 0, status.PendingChanges)
	assert.False(t, status.IsSyncing)

	body := `{"local_changes":{"diaries":[{"id":"d1"}],"symptoms":[],"deleted_ids":[]}}`
	c, _ = request(t, http.MethodPost, "/api/v1/sync/incremental", body, "u1")
	require.NoError(t, h.SyncIncremental(c))

	c, rec = request(t, http.MethodGet, "/api/v1/sync/status", "", "u1")
	require.NoError(t, h.GetSyncStatus(c))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.NotNil(t, status.LastSyncTime)
}

func TestUploadBackup_InvalidJSON(t *testing.T) {
	t.Parallel()
	h := newTestSyncHandler()

	c, rec := request(t, http.MethodPost, "/api/v1/sync/backup", `{"diaries":`, "u1")
	require.NoError(t, h.UploadBackup(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
