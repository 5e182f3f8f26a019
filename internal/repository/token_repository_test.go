package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*TokenRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewTokenRepo(db), mock
}

func TestTokenRepo_Store(t *testing.T) {
	repo, mock := newMockDB(t)
	exp := time.Now().UTC().Add(30 * 24 * time.Hour)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at) VALUES (?,?,?,?,?)")).
		WithArgs(sqlmock.AnyArg(), "u1", "tok-1", exp, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Store(context.Background(), "u1", "tok-1", exp)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_Find(t *testing.T) {
	repo, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id,user_id,token,expires_at,created_at FROM refresh_tokens WHERE token=? LIMIT 1")).
		WithArgs("tok-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at"}).
			AddRow("rt-1", "u1", "tok-1", now.Add(time.Hour), now))

	rec, err := repo.Find(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.UserID)
	assert.Equal(t, "tok-1", rec.Token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_Find_NotFound(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id,user_id,token,expires_at,created_at FROM refresh_tokens WHERE token=? LIMIT 1")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at"}))

	_, err := repo.Find(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

// Delete reports whether a row was removed so callers can detect a lost
// rotation race.
func TestTokenRepo_Delete_AffectedCount(t *testing.T) {
	repo, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE token=?")).
		WithArgs("tok-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE token=?")).
		WithArgs("tok-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.Delete(context.Background(), "tok-1")
	require.NoError(t, err)
	second, err := repo.Delete(context.Background(), "tok-1")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRepo_DeleteExpired(t *testing.T) {
	repo, mock := newMockDB(t)
	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens WHERE expires_at < ?")).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
