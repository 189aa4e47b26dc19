// Package session persists issued tokens so they can be revoked server side.
package session

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rollcall-admin/rollcall/internal/apperr"
	"github.com/rollcall-admin/rollcall/internal/db/models"
)

const (
	tokenQueryPattern    = "token = ?"
	usernameQueryPattern = "username = ?"
)

var (
	// ErrSessionNotFound is returned when no row exists for a token.
	ErrSessionNotFound = fmt.Errorf("session %w", apperr.ErrNotFound)
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Create stores a session row.
func Create(db *gorm.DB, s *models.Session) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Create(s).Error
}

// GetByToken returns the session row of a raw token.
func GetByToken(db *gorm.DB, token string) (*models.Session, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var s models.Session
	result := db.Where(tokenQueryPattern, token).First(&s)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, result.Error
	}

	return &s, nil
}

// GetByUsername returns all session rows of a user.
func GetByUsername(db *gorm.DB, username string) ([]models.Session, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var sessions []models.Session
	if err := db.Where(usernameQueryPattern, username).Find(&sessions).Error; err != nil {
		return nil, err
	}

	return sessions, nil
}

// DeleteByToken removes the row of a raw token. Missing rows are not an error.
func DeleteByToken(db *gorm.DB, token string) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Where(tokenQueryPattern, token).Delete(&models.Session{}).Error
}

// DeleteByUsername removes every row of a user and returns how many were removed.
func DeleteByUsername(db *gorm.DB, username string) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	result := db.Where(usernameQueryPattern, username).Delete(&models.Session{})

	return result.RowsAffected, result.Error
}

// DeleteExpired removes rows that expired before now.
func DeleteExpired(db *gorm.DB, now time.Time) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	result := db.Where("expires_at < ?", now).Delete(&models.Session{})

	return result.RowsAffected, result.Error
}

// Replace swaps the row of oldToken for next in one transaction.
func Replace(db *gorm.DB, oldToken string, next *models.Session) error {
	if db == nil {
		return ErrDBNil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(tokenQueryPattern, oldToken).Delete(&models.Session{}).Error; err != nil {
			return err
		}

		return tx.Create(next).Error
	})
}
