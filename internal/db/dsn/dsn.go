// Package dsn builds database connection strings and gorm dialectors from the configuration.
package dsn

import (
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rollcall-admin/rollcall/internal/config"
)

// Create builds the Data Source Name for the configured engine.
func Create(db *config.DB) (string, error) {
	switch db.Engine {
	case config.EngineSQLite, "":
		if db.Path == "" {
			return ":memory:", nil
		}

		if db.Extras != "" && !strings.Contains(db.Path, "?") {
			return db.Path + "?" + db.Extras, nil
		}

		return db.Path, nil
	case config.EngineMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			db.User,
			db.Password,
			db.Host,
			db.Port,
			db.Name,
			db.Extras,
		), nil
	case config.EnginePostgres:
		out := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
			db.Host,
			db.Port,
			db.User,
			db.Password,
			db.Name,
		)
		if db.Extras != "" {
			out += " " + db.Extras
		}

		return out, nil
	default:
		return "", config.ErrUnknownDBEngine
	}
}

// Dialector returns the gorm dialector for the configured engine.
func Dialector(db *config.DB) (gorm.Dialector, error) {
	source, err := Create(db)
	if err != nil {
		return nil, err
	}

	switch db.Engine {
	case config.EngineMySQL:
		return mysql.Open(source), nil
	case config.EnginePostgres:
		return postgres.Open(source), nil
	default:
		return sqlite.Open(source), nil
	}
}
