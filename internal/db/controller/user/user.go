// Package user provides CRUD operations for staff accounts.
package user

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/rollcall-admin/rollcall/internal/apperr"
	"github.com/rollcall-admin/rollcall/internal/db/models"
)

const (
	usernameQueryPattern = "username = ?"
)

var (
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = fmt.Errorf("user %w", apperr.ErrNotFound)
	// ErrUsernameEmpty is returned when a username is required but empty.
	ErrUsernameEmpty = fmt.Errorf("%w: username cannot be empty", apperr.ErrValidation)
	// ErrUserAlreadyExists is returned when username or email collides with an existing user.
	ErrUserAlreadyExists = fmt.Errorf("user %w", apperr.ErrConflict)
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

// Patch holds the mutable fields of a user. Nil fields are left untouched.
type Patch struct {
	Name     *string
	Email    *string
	Password *string // already hashed
	Role     *models.Role
	Avatar   *string
}

// Get retrieves a user by username.
func Get(db *gorm.DB, username string) (*models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}
	if username == "" {
		return nil, ErrUsernameEmpty
	}

	var u models.User
	result := db.Where(usernameQueryPattern, username).First(&u)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}

	return &u, nil
}

// GetAll retrieves all users ordered by username.
func GetAll(db *gorm.DB) ([]models.User, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var users []models.User
	result := db.Order("username").Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}

	return users, nil
}

// Create inserts a new user.
func Create(db *gorm.DB, u *models.User) error {
	if db == nil {
		return ErrDBNil
	}
	if u.Username == "" {
		return ErrUsernameEmpty
	}

	if err := db.Create(u).Error; err != nil {
		return translate(err)
	}

	return nil
}

// CreateBatch inserts all users with a single statement. Callers wrap it in a
// transaction when they need all-or-nothing semantics across side effects.
func CreateBatch(db *gorm.DB, users []models.User) error {
	if db == nil {
		return ErrDBNil
	}
	if len(users) == 0 {
		return nil
	}

	if err := db.Create(&users).Error; err != nil {
		return translate(err)
	}

	return nil
}

// Update applies the patch to the user identified by username.
func Update(db *gorm.DB, username string, p Patch) (*models.User, error) {
	u, err := Get(db, username)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Email != nil {
		if *p.Email == "" {
			updates["email"] = nil
		} else {
			updates["email"] = *p.Email
		}
	}
	if p.Password != nil {
		updates["password"] = *p.Password
	}
	if p.Role != nil {
		updates["role"] = *p.Role
	}
	if p.Avatar != nil {
		updates["avatar"] = *p.Avatar
	}

	if len(updates) == 0 {
		return u, nil
	}

	if err := db.Model(u).Updates(updates).Error; err != nil {
		return nil, translate(err)
	}

	return Get(db, username)
}

// Delete removes the user and every session it owns in one transaction.
func Delete(db *gorm.DB, username string) (*models.User, error) {
	u, err := Get(db, username)
	if err != nil {
		return nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(usernameQueryPattern, username).Delete(&models.Session{}).Error; err != nil {
			return err
		}

		return tx.Delete(u).Error
	})
	if err != nil {
		return nil, err
	}

	return u, nil
}

func translate(err error) error {
	if apperr.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrUserAlreadyExists, err) //nolint: errorlint
	}

	return err
}
