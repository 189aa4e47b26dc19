package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rollcall-admin/rollcall/internal/apperr"
	"github.com/rollcall-admin/rollcall/internal/db/controller/session"
	"github.com/rollcall-admin/rollcall/internal/db/models"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Identity  Identity
	Token     string
	ExpiresAt time.Time
}

// SessionService manages the persisted token lifecycle.
type SessionService struct {
	db        *gorm.DB
	codec     *Codec
	local     *LocalProvider
	rehydrate bool
	now       func() time.Time
}

// NewSessionService creates a session service. With rehydrate the identity is
// reloaded from the store on every Resolve instead of trusting the token snapshot.
func NewSessionService(db *gorm.DB, codec *Codec, rehydrate bool) *SessionService {
	return &SessionService{
		db:        db,
		codec:     codec,
		local:     NewLocalProvider(db),
		rehydrate: rehydrate,
		now:       time.Now,
	}
}

// Login checks the credentials, issues a token and stores its session row.
func (s *SessionService) Login(ctx context.Context, username, password, platform string) (LoginResult, error) {
	u, err := s.local.Authenticate(ctx, username, password)
	if err != nil {
		return LoginResult{}, err
	}

	id := IdentityOf(u)

	token, expires, err := s.open(ctx, id, platform)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{Identity: id, Token: token, ExpiresAt: expires}, nil
}

// Resolve verifies the token and requires its session row.
func (s *SessionService) Resolve(ctx context.Context, token string) (Identity, error) {
	claims, err := s.codec.Verify(token)
	if errors.Is(err, ErrTokenExpired) {
		if errDel := session.DeleteByToken(s.db.WithContext(ctx), token); errDel != nil {
			log.Warn().Err(errDel).Str("user", claims.Username).Msg("failed to remove expired session")
		}

		return Identity{}, ErrTokenExpired
	}

	if err != nil {
		return Identity{}, err
	}

	if _, err := session.GetByToken(s.db.WithContext(ctx), token); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return Identity{}, ErrTokenRevoked
		}

		return Identity{}, fmt.Errorf("%w: %v", apperr.ErrUpstream, err) //nolint: errorlint
	}

	if !s.rehydrate {
		return claims.Identity, nil
	}

	u, err := s.local.Lookup(ctx, claims.Username)
	if errors.Is(err, ErrUserNotFound) {
		return Identity{}, ErrTokenRevoked
	}

	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", apperr.ErrUpstream, err) //nolint: errorlint
	}

	return IdentityOf(u), nil
}

// Logout removes the session row of the token.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	return session.DeleteByToken(s.db.WithContext(ctx), token)
}

// RevokeAll removes every session of username.
func (s *SessionService) RevokeAll(ctx context.Context, username string) (int64, error) {
	return session.DeleteByUsername(s.db.WithContext(ctx), username)
}

// Reissue replaces oldToken by a token carrying the updated identity.
func (s *SessionService) Reissue(ctx context.Context, oldToken string, id Identity) (string, time.Time, error) {
	platform := ""
	if old, err := session.GetByToken(s.db.WithContext(ctx), oldToken); err == nil {
		platform = old.Platform
	}

	token, expires, err := s.codec.Issue(id)
	if err != nil {
		return "", time.Time{}, err
	}

	next := &models.Session{
		Username:  id.Username,
		Token:     token,
		Platform:  platform,
		ExpiresAt: expires,
	}

	if err := session.Replace(s.db.WithContext(ctx), oldToken, next); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", apperr.ErrUpstream, err) //nolint: errorlint
	}

	return token, expires, nil
}

// PurgeExpired removes session rows whose token has expired.
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return session.DeleteExpired(s.db.WithContext(ctx), s.now())
}

func (s *SessionService) open(ctx context.Context, id Identity, platform string) (string, time.Time, error) {
	token, expires, err := s.codec.Issue(id)
	if err != nil {
		return "", time.Time{}, err
	}

	row := &models.Session{
		Username:  id.Username,
		Token:     token,
		Platform:  platform,
		ExpiresAt: expires,
	}

	if err := session.Create(s.db.WithContext(ctx), row); err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", apperr.ErrUpstream, err) //nolint: errorlint
	}

	return token, expires, nil
}
