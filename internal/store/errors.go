package store

import (
	"errors"
	"strings"

	"docman/internal/models"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

func sqliteCode(err error) (int, bool) {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code(), true
	}
	return 0, false
}

func isUniqueConstraint(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqliteCode(err); ok {
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyConstraint(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := sqliteCode(err); ok {
		return code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// uniqueField names the column a unique violation refers to.
func uniqueField(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "document.document_number"):
		return "document number"
	case strings.Contains(msg, "attachment.reference_number"):
		return "reference number"
	case strings.Contains(msg, "page.attachment_id"), strings.Contains(msg, "page.page_index"):
		return "page index"
	default:
		return "value"
	}
}

// mapWriteError translates constraint failures into domain errors. value is
// the user-supplied identifier reported back in a DuplicateError.
func mapWriteError(err error, value string) error {
	if err == nil {
		return nil
	}
	if isUniqueConstraint(err) {
		return &models.DuplicateError{Field: uniqueField(err), Value: value}
	}
	return err
}
