package auth

import (
	"errors"
	"fmt"

	"github.com/rollcall-admin/rollcall/internal/apperr"
)

var (
	// ErrTokenExpired is returned when the token expiry has passed.
	ErrTokenExpired = fmt.Errorf("%w: session expired", apperr.ErrUnauthorized)

	// ErrTokenInvalid is returned when the token signature, algorithm or shape is wrong.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenRevoked is returned for a well signed token whose session row is gone.
	ErrTokenRevoked = fmt.Errorf("%w: session revoked", apperr.ErrUnauthorized)

	// ErrMissingCredentials is returned when username or password is empty.
	ErrMissingCredentials = fmt.Errorf("%w: username and password are required", apperr.ErrValidation)

	// ErrInvalidPassword is returned when the provided password is incorrect during authentication.
	ErrInvalidPassword = fmt.Errorf("%w: invalid password", apperr.ErrUnauthorized)

	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = fmt.Errorf("user %w", apperr.ErrNotFound)
)
