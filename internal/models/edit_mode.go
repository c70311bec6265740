package models

import (
	"fmt"
	"strings"
)

// EditMode describes which commit path an attachment edit session takes.
type EditMode string

const (
	// EditViewing has no pending edits.
	EditViewing EditMode = "viewing"
	// EditDetailsOnly changes reference number or comment; page bytes stay as stored.
	EditDetailsOnly EditMode = "details_only"
	// EditPages replaces the page byte set, regardless of detail changes.
	EditPages EditMode = "pages"
)

var validEditModes = map[EditMode]struct{}{
	EditViewing:     {},
	EditDetailsOnly: {},
	EditPages:       {},
}

// ParseEditMode validates and normalizes an edit mode name.
func ParseEditMode(raw string) (EditMode, error) {
	value := EditMode(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return "", fmt.Errorf("edit mode is required")
	}
	if _, ok := validEditModes[value]; !ok {
		return "", fmt.Errorf("invalid edit mode: %s", value)
	}
	return value, nil
}

// WithDetails returns the mode after a detail edit. Page edits are sticky.
func (m EditMode) WithDetails() EditMode {
	if m == EditPages {
		return EditPages
	}
	return EditDetailsOnly
}

// WithPages returns the mode after a page-set edit.
func (m EditMode) WithPages() EditMode {
	return EditPages
}
