package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

var (
	// UsernamePattern restricts usernames to lowercase letters.
	UsernamePattern = regexp.MustCompile(`^[a-z]+$`)

	// NamePattern restricts display names to letters, spaces, apostrophes, dots and hyphens.
	NamePattern = regexp.MustCompile(`^\p{L}[\p{L} '.-]*$`)
)

// User represents a staff account.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey" json:"-"`
	// Username is the unique login name, lowercase letters only.
	Username string `gorm:"uniqueIndex;size:100;not null" json:"username"`
	// Name is the display name, stored uppercase.
	Name string `gorm:"size:255;not null" json:"name"`
	// Email is optional but unique when set.
	Email *string `gorm:"uniqueIndex;size:255" json:"email,omitempty"`
	// Password is the Argon2id hashed password.
	Password string `gorm:"size:255;not null" json:"-"`
	// Role is one of root, admin or operator.
	Role Role `gorm:"type:varchar(20);not null;default:'operator'" json:"role"`
	// Avatar is the object storage key of the avatar image.
	Avatar string `gorm:"size:255" json:"avatar,omitempty"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// EmailAddress returns the email or an empty string.
func (u *User) EmailAddress() string {
	if u.Email == nil {
		return ""
	}

	return *u.Email
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hash.
// Bcrypt hashes carried over from imported accounts are accepted as well.
func (u *User) VerifyPassword(password string) bool {
	if isBcryptHash(u.Password) {
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
	}

	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}

// NeedsRehash reports whether the stored hash is not argon2id.
func (u *User) NeedsRehash() bool {
	return isBcryptHash(u.Password)
}

func isBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}
