package daemon

import (
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/rollcall-admin/rollcall/internal/db/controller/user"
	"github.com/rollcall-admin/rollcall/internal/db/models"
	"github.com/rollcall-admin/rollcall/internal/random"
)

const (
	rootUsername = "root"
	rootName     = "ROOT"
	rootPassLen  = 16
)

// seed creates the root account when it is missing. The generated password is
// logged once.
func seed(db *gorm.DB) error {
	_, err := user.Get(db, rootUsername)
	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrUserNotFound) {
		return err
	}

	password := random.Password(rootPassLen)

	if err := user.Create(db, &models.User{
		Username: rootUsername,
		Name:     rootName,
		Password: models.HashPassword(password),
		Role:     models.RoleRoot,
	}); err != nil {
		return err
	}

	log.Warn().
		Str("username", rootUsername).
		Str("password", password).
		Msg("root account created, change the password after the first login")

	return nil
}
