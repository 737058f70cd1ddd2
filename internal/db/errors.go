package db

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// IsUniqueViolation reports whether err is a UNIQUE constraint failure on column, given as
// "table.column". An empty column matches any UNIQUE failure.
func IsUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return false
	}

	// remote libsql errors only carry the message
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return column == "" || strings.Contains(msg, column)
}
