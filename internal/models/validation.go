package models

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxNameLength bounds document and reference numbers; both become path components.
const MaxNameLength = 128

// DocumentDetails is the user-editable part of a Document.
type DocumentDetails struct {
	Number  string
	Type    string
	Comment string
}

// AttachmentDetails is the user-editable part of an Attachment.
type AttachmentDetails struct {
	ReferenceNumber string
	Comment         string
}

// Normalize trims surrounding whitespace from every field.
func (d DocumentDetails) Normalize() DocumentDetails {
	return DocumentDetails{
		Number:  strings.TrimSpace(d.Number),
		Type:    strings.TrimSpace(d.Type),
		Comment: strings.TrimSpace(d.Comment),
	}
}

// Validate checks the details; failures are ValidationErrors.
func (d DocumentDetails) Validate() error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.Number,
			validation.Required,
			validation.Length(1, MaxNameLength),
			validation.By(pathComponent),
		),
		validation.Field(&d.Type, validation.Length(0, 256)),
	)
	return NewValidationError(err)
}

// Normalize trims surrounding whitespace from every field.
func (d AttachmentDetails) Normalize() AttachmentDetails {
	return AttachmentDetails{
		ReferenceNumber: strings.TrimSpace(d.ReferenceNumber),
		Comment:         strings.TrimSpace(d.Comment),
	}
}

// Validate checks the details; failures are ValidationErrors.
func (d AttachmentDetails) Validate() error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.ReferenceNumber,
			validation.Required,
			validation.Length(1, MaxNameLength),
			validation.By(pathComponent),
		),
	)
	return NewValidationError(err)
}

// pathComponent rejects values that cannot serve as a single directory name.
func pathComponent(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if s == "." || s == ".." {
		return errors.New("must not be a relative directory reference")
	}
	if strings.ContainsAny(s, `/\`+"\x00") {
		return errors.New("must not contain path separators")
	}
	return nil
}
