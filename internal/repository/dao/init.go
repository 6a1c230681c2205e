package dao

import (
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Event{},
		&EventParticipant{},
		&Registration{},
		&Notification{},
		&OutboxMessage{},
	)
}

// isUniqueViolation reports whether err is a postgres unique violation on
// the given constraint. An empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return false
	}

	return constraint == "" || strings.Contains(pgErr.Message, `"`+constraint+`"`) || pgErr.ConstraintName == constraint
}

var forUpdate = clause.Locking{Strength: "UPDATE"}
