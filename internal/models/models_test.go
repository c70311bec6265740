package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestParseEditMode(t *testing.T) {
	got, err := ParseEditMode(" DETAILS_ONLY ")
	if err != nil {
		t.Fatalf("parse edit mode: %v", err)
	}
	if got != EditDetailsOnly {
		t.Fatalf("expected %q, got %q", EditDetailsOnly, got)
	}

	if _, err := ParseEditMode("rewrite"); err == nil {
		t.Fatal("expected invalid edit mode error")
	}
	if _, err := ParseEditMode(""); err == nil {
		t.Fatal("expected required edit mode error")
	}
}

func TestEditModeTransitions(t *testing.T) {
	if got := EditViewing.WithDetails(); got != EditDetailsOnly {
		t.Fatalf("viewing + details: expected %q, got %q", EditDetailsOnly, got)
	}
	if got := EditDetailsOnly.WithPages(); got != EditPages {
		t.Fatalf("details + pages: expected %q, got %q", EditPages, got)
	}
	if got := EditPages.WithDetails(); got != EditPages {
		t.Fatalf("pages must be sticky, got %q", got)
	}
}

func TestDocumentDetailsValidate(t *testing.T) {
	tests := []struct {
		name    string
		details DocumentDetails
		wantErr bool
	}{
		{name: "ok", details: DocumentDetails{Number: "D-100", Type: "invoice"}},
		{name: "blank", details: DocumentDetails{Number: "   "}.Normalize(), wantErr: true},
		{name: "separator", details: DocumentDetails{Number: "D/100"}, wantErr: true},
		{name: "backslash", details: DocumentDetails{Number: `D\100`}, wantErr: true},
		{name: "dotdot", details: DocumentDetails{Number: ".."}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.details.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("validate: %v", err)
			}
		})
	}
}

func TestAttachmentDetailsValidate(t *testing.T) {
	if err := (AttachmentDetails{ReferenceNumber: "A-1"}).Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	err := AttachmentDetails{ReferenceNumber: "  ", Comment: "x"}.Normalize().Validate()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	dup := fmt.Errorf("create: %w", &DuplicateError{Field: "document number", Value: "D-1"})
	if !errors.Is(dup, ErrDuplicate) {
		t.Fatal("expected duplicate to match ErrDuplicate")
	}

	partial := &PartialRenameError{Renamed: []string{"a"}, Failed: "b", Err: errors.New("boom")}
	if !errors.Is(partial, ErrPartialRename) || !errors.Is(partial, ErrIO) {
		t.Fatal("expected partial rename to match ErrPartialRename and ErrIO")
	}

	missing := &NotFoundError{Entity: "attachment", ID: int64(3)}
	if !errors.Is(missing, ErrNotFound) {
		t.Fatal("expected not found to match ErrNotFound")
	}
	if missing.Error() != "attachment 3 not found" {
		t.Fatalf("unexpected message %q", missing.Error())
	}
}
