package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthtrack/sync-server/internal/model"
)

func newChangeRepo(t *testing.T) (*SyncChangeRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSyncChangeRepo(db), mock
}

func TestSyncChangeRepo_Append(t *testing.T) {
	repo, mock := newChangeRepo(t)
	data := json.RawMessage(`{"id":"d1"}`)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO sync_changes (id, user_id, data_type, action, data, timestamp) VALUES (?,?,?,?,?,?)")).
		WithArgs(sqlmock.AnyArg(), "u1", model.DataTypeDiary, model.ActionUpdate, []byte(data), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	change, err := repo.Append(context.Background(), "u1", model.DataTypeDiary, model.ActionUpdate, data)
	require.NoError(t, err)

	assert.NotEmpty(t, change.ID)
	assert.Equal(t, "u1", change.UserID)
	assert.Equal(t, model.DataTypeDiary, change.DataType)
	assert.False(t, change.Timestamp.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncChangeRepo_ListSince(t *testing.T) {
	repo, mock := newChangeRepo(t)
	base := time.Now().UTC().Add(-time.Hour)
	since := base.Add(30 * time.Minute)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id,seq,user_id,data_type,action,data,timestamp FROM sync_changes WHERE user_id=? AND timestamp>? ORDER BY timestamp ASC, seq ASC")).
		WithArgs("u1", since).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seq", "user_id", "data_type", "action", "data", "timestamp"}).
			AddRow("ch-1", 1, "u1", "diary", "update", []byte(`{"id":"d1"}`), base.Add(40*time.Minute)).
			AddRow("ch-2", 2, "u1", "symptom", "update", []byte(`{"id":"s1"}`), base.Add(50*time.Minute)))

	changes, err := repo.ListSince(context.Background(), "u1", since)
	require.NoError(t, err)
	require.Len(t, changes, 2)

	assert.Equal(t, model.DataTypeDiary, changes[0].DataType)
	assert.Equal(t, model.DataTypeSymptom, changes[1].DataType)
	assert.JSONEq(t, `{"id":"d1"}`, string(changes[0].Data))
	assert.True(t, changes[0].Timestamp.Before(changes[1].Timestamp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncChangeRepo_LastChangeAt_Empty(t *testing.T) {
	repo, mock := newChangeRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT timestamp FROM sync_changes WHERE user_id=? ORDER BY timestamp DESC, seq DESC LIMIT 1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"timestamp"}))

	_, ok, err := repo.LastChangeAt(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSyncChangeRepo_LastChangeAt(t *testing.T) {
	repo, mock := newChangeRepo(t)
	ts := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT timestamp FROM sync_changes WHERE user_id=? ORDER BY timestamp DESC, seq DESC LIMIT 1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"timestamp"}).AddRow(ts))

	got, ok, err := repo.LastChangeAt(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, ts, got)
}
