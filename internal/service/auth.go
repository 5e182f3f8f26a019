package service

import (
	"context"
	"errors"
	"time"

	"github.com/healthtrack/sync-server/internal/model"
	"github.com/healthtrack/sync-server/internal/repository"
	"github.com/healthtrack/sync-server/internal/utils"
)

// UserStore is the slice of user persistence the auth service needs.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash, name string) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id string) (model.User, error)
}

// TokenStore persists refresh token records.
type TokenStore interface {
	Store(ctx context.Context, userID, token string, expiresAt time.Time) error
	Find(ctx context.Context, token string) (model.RefreshToken, error)
	Delete(ctx context.Context, token string) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// AuthService manages password verification and the access/refresh
// token pair. Access tokens are stateless; refresh tokens are stored
// and strictly single-use.
type AuthService struct {
	users      UserStore
	tokens     TokenStore
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	bcryptCost int
}

func NewAuthService(users UserStore, tokens TokenStore, secret string, accessTTL, refreshTTL time.Duration, bcryptCost int) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		bcryptCost: bcryptCost,
	}
}

// Register creates a user with a bcrypt-hashed password and issues a
// fresh session. A duplicate email fails with ErrEmailTaken whether it
// is caught by the pre-check or by the unique constraint.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (model.AuthSession, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return model.AuthSession{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.AuthSession{}, err
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return model.AuthSession{}, err
	}
	user, err := s.users.Create(ctx, email, hash, name)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.AuthSession{}, ErrEmailTaken
		}
		return model.AuthSession{}, err
	}
	return s.issueSession(ctx, user)
}

// Login verifies credentials and issues a fresh session. Unknown email
// and wrong password are externally indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.AuthSession, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.AuthSession{}, ErrInvalidCredentials
		}
		return model.AuthSession{}, err
	}
	if !utils.VerifyPassword(user.PasswordHash, password) {
		return model.AuthSession{}, ErrInvalidCredentials
	}
	return s.issueSession(ctx, user)
}

// Refresh exchanges a stored refresh token for a new session. The
// consumed record is deleted before the new session is issued, so a
// replayed token always fails; any verification failure also deletes
// the record so a bad token cannot linger.
func (s *AuthService) Refresh(ctx context.Context, raw string) (model.AuthSession, error) {
	rec, err := s.tokens.Find(ctx, raw)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.AuthSession{}, ErrInvalidRefreshToken
		}
		return model.AuthSession{}, err
	}

	if time.Now().UTC().After(rec.ExpiresAt) {
		_, _ = s.tokens.Delete(ctx, raw)
		return model.AuthSession{}, ErrRefreshTokenExpired
	}

	claims, err := utils.ParseToken(s.secret, raw)
	if err != nil || claims.Type != utils.TokenTypeRefresh {
		_, _ = s.tokens.Delete(ctx, raw)
		return model.AuthSession{}, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_, _ = s.tokens.Delete(ctx, raw)
			return model.AuthSession{}, ErrInvalidRefreshToken
		}
		return model.AuthSession{}, err
	}

	// Consume the record. Of two concurrent refreshes with the same
	// token, only the one whose delete removed the row may proceed.
	deleted, err := s.tokens.Delete(ctx, raw)
	if err != nil {
		return model.AuthSession{}, err
	}
	if !deleted {
		return model.AuthSession{}, ErrInvalidRefreshToken
	}

	return s.issueSession(ctx, user)
}

// Logout revokes the supplied refresh token. A missing record or an
// empty token string is not an error.
func (s *AuthService) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	_, err := s.tokens.Delete(ctx, raw)
	return err
}

// VerifyAccess checks signature, expiry and that the token really is an
// access token. Storage is never touched: access tokens have no
// revocation list.
func (s *AuthService) VerifyAccess(raw string) (*utils.Claims, error) {
	claims, err := utils.ParseToken(s.secret, raw)
	if err != nil || claims.Type != utils.TokenTypeAccess {
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}

// ReapExpiredTokens deletes refresh token records whose expiry has
// passed. Called periodically from the janitor loop.
func (s *AuthService) ReapExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx, time.Now().UTC())
}

// issueSession mints the access/refresh pair, persists the refresh
// record, and builds the response. The advertised expires_in and the
// stored refresh expiry both come from the configured TTLs.
func (s *AuthService) issueSession(ctx context.Context, user model.User) (model.AuthSession, error) {
	access, err := utils.NewSignedToken(s.secret, user.ID, user.Email, utils.TokenTypeAccess, s.accessTTL)
	if err != nil {
		return model.AuthSession{}, err
	}
	refresh, err := utils.NewSignedToken(s.secret, user.ID, user.Email, utils.TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return model.AuthSession{}, err
	}
	if err := s.tokens.Store(ctx, user.ID, refresh.Token, refresh.Exp); err != nil {
		return model.AuthSession{}, err
	}
	return model.AuthSession{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.accessTTL.Seconds()),
		User: model.AuthUserPart{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
		},
	}, nil
}
