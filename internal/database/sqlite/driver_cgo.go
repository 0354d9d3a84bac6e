//go:build cgo

package sqlite

import (
	"errors"

	"github.com/dbcourse/app1/internal/database/common"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// DefaultDriver is mattn/go-sqlite3 when cgo is available.
const DefaultDriver = "sqlite3"

func classifyCgoError(err error) (error, bool) {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return nil, false
	}
	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
		return common.Constraint(common.ErrDuplicateKey, err), true
	case sqlite3.ErrConstraintForeignKey:
		return common.Constraint(common.ErrForeignKey, err), true
	}
	return err, true
}
