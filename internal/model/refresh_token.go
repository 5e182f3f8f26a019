package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table. Each
// record binds one issued refresh token string to its owner and
// expiry. Exactly one record exists per issued token until it is
// consumed by rotation, revoked by logout, or reaped after expiry.
//
// Fields:
//  ID        – primary key identifier (uuid).
//  UserID    – owner of the token.
//  Token     – the signed token string, unique across all rows.
//  ExpiresAt – expiration timestamp of the token.
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        string    // refresh_tokens.id
	UserID    string    // refresh_tokens.user_id
	Token     string    // refresh_tokens.token
	ExpiresAt time.Time // refresh_tokens.expires_at
	CreatedAt time.Time // refresh_tokens.created_at
}
