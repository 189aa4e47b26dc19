package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rollcall-admin/rollcall/internal/apperr"
	"github.com/rollcall-admin/rollcall/internal/db/controller/user"
	"github.com/rollcall-admin/rollcall/internal/db/models"
)

// LocalProvider handles local database authentication.
type LocalProvider struct {
	db *gorm.DB
}

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db: db,
	}
}

// Authenticate authenticates a user against the local database.
func (p *LocalProvider) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	u, err := user.Get(p.db.WithContext(ctx), username)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("%w: failed to query user: %v", apperr.ErrUpstream, err) //nolint: errorlint
	}

	// Verify password
	if !u.VerifyPassword(password) {
		return nil, ErrInvalidPassword
	}

	// imported bcrypt hashes are upgraded on first login
	if u.NeedsRehash() {
		hashed := models.HashPassword(password)
		if _, err := user.Update(p.db.WithContext(ctx), username, user.Patch{Password: &hashed}); err != nil {
			log.Warn().Err(err).Str("user", username).Msg("failed to upgrade password hash")
		}
	}

	return u, nil
}

// Lookup loads the current row of a user.
func (p *LocalProvider) Lookup(ctx context.Context, username string) (*models.User, error) {
	u, err := user.Get(p.db.WithContext(ctx), username)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}

	return u, err
}
