package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/healthtrack/sync-server/internal/model"
)

// TokenRepo persists refresh tokens. The full signed token string is
// stored because refresh looks records up by exact string match before
// verifying the signature.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a refresh token row bound to its owner and expiry.
func (r *TokenRepo) Store(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at) VALUES (?,?,?,?,?)",
		uuid.NewString(), userID, token, expiresAt, time.Now().UTC())
	return err
}

// Find returns the record matching the exact token string.
func (r *TokenRepo) Find(ctx context.Context, token string) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,user_id,token,expires_at,created_at FROM refresh_tokens WHERE token=? LIMIT 1",
		token).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return model.RefreshToken{}, ErrNotFound
	}
	return t, err
}

// Delete removes the record for a token string. The affected-row count
// is reported so that of two concurrent rotations of the same token,
// only the one whose delete landed proceeds.
func (r *TokenRepo) Delete(ctx context.Context, token string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE token=?", token)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteExpired reaps all records whose expiry has passed.
func (r *TokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at < ?", now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
