package database

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// UniqueViolation describes which UNIQUE constraint rejected a write.
type UniqueViolation struct {
	Table  string
	Column string
}

// AsUniqueViolation reports whether err is a SQLite UNIQUE constraint failure
// and, if so, which column fired. For composite constraints the first column
// is reported.
//
// SQLite reports the constraint as "UNIQUE constraint failed: table.column".
func AsUniqueViolation(err error) (UniqueViolation, bool) {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return UniqueViolation{}, false
	}
	if sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique &&
		sqliteErr.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
		return UniqueViolation{}, false
	}

	msg := sqliteErr.Error()
	const marker = "constraint failed: "
	idx := strings.Index(msg, marker)
	if idx < 0 {
		return UniqueViolation{}, true
	}

	target := msg[idx+len(marker):]
	target, _, _ = strings.Cut(target, ",")
	table, column, found := strings.Cut(strings.TrimSpace(target), ".")
	if !found {
		return UniqueViolation{Column: table}, true
	}
	return UniqueViolation{Table: table, Column: column}, true
}

// IsForeignKeyViolation reports whether err is a SQLite FOREIGN KEY failure.
func IsForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}
