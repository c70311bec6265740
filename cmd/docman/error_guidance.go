package main

import (
	"context"
	"errors"
	"os/exec"

	"docman/internal/codec"
	"docman/internal/models"
	"docman/internal/scan"
)

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	switch {
	case errors.Is(err, models.ErrPartialRename):
		var partial *models.PartialRenameError
		if errors.As(err, &partial) && partial.Failed != "" {
			lines = append(lines, "hint: renaming stopped at "+partial.Failed+"; the directory holds old and new names.")
		}
		lines = append(lines, "hint: rename the remaining files by hand, then check with: docman verify")
	case errors.Is(err, models.ErrIO):
		lines = append(lines,
			"hint: the database was updated but the data directory was not; check permissions and free space.",
			"hint: list disagreements with: docman verify",
		)
	case errors.Is(err, models.ErrConsistency):
		lines = append(lines, "hint: a page file is missing or corrupt; list affected pages with: docman verify")
	case errors.Is(err, models.ErrDuplicate):
		lines = append(lines, "hint: document and reference numbers must be unique; pick another value.")
	case errors.Is(err, models.ErrNotFound):
		lines = append(lines, "hint: list documents and their attachments with: docman doc list")
	case errors.Is(err, models.ErrValidation):
		lines = append(lines, "hint: numbers must be non-empty and usable as directory names.")
	case errors.Is(err, codec.ErrDecode):
		lines = append(lines, "hint: supported inputs are PNG, JPEG, WEBP, BMP, TIFF, GIF and PDF.")
	}

	if errors.Is(err, scan.ErrCancelled) {
		lines = append(lines, "hint: the scan was cancelled before the device returned an image.")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: the scanner did not answer in time; raise scan.timeout_seconds.")
	}
	if errors.Is(err, exec.ErrNotFound) {
		lines = append(lines, "hint: install SANE's scanimage or point scan.command at your scanner tool.")
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
