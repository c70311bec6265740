package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disiqueira/gotree/v3"

	"docman/internal/format"
	"docman/internal/models"
	"docman/internal/synchronizer"
)

var (
	outputFormatter format.Formatter = format.JSONFormatter{}
	stdout          io.Writer        = os.Stdout
)

func writeStructured(payload any) error {
	return outputFormatter.Write(stdout, payload)
}

func writePlain(format string, args ...any) error {
	_, err := fmt.Fprintf(stdout, format, args...)
	return err
}

func writeDocumentList(docs []models.Document) error {
	if len(docs) == 0 {
		return writePlain("No documents.\n")
	}
	for _, doc := range docs {
		if err := writePlain("%s\n", formatDocumentLine(doc)); err != nil {
			return err
		}
	}
	return nil
}

// writeDocumentTree renders the data directory as documents, attachments and
// page file names, as deep as the query loaded them.
func writeDocumentTree(root string, docs []models.Document) error {
	tree := gotree.New(root)
	for _, doc := range docs {
		docNode := tree.Add(formatDocumentLine(doc))
		for _, attachment := range doc.Attachments {
			label := attachment.ReferenceNumber
			if attachment.Comment != "" {
				label += " - " + attachment.Comment
			}
			attachmentNode := docNode.Add(label)
			for _, page := range attachment.Pages {
				attachmentNode.Add(filepath.Base(page.FilePath))
			}
		}
	}
	return writePlain("%s", tree.Print())
}

func formatDocumentLine(doc models.Document) string {
	line := doc.Number
	if doc.Type != "" {
		line += fmt.Sprintf(" [%s]", doc.Type)
	}
	if doc.Attachments != nil {
		line += fmt.Sprintf(" (%d attachment%s)", len(doc.Attachments), plural(len(doc.Attachments)))
	}
	if doc.Comment != "" {
		line += " - " + doc.Comment
	}
	return line
}

func writeDocumentDetail(doc models.Document) error {
	lines := []string{
		fmt.Sprintf("number: %s", doc.Number),
		fmt.Sprintf("id: %d", doc.ID),
		fmt.Sprintf("created_at: %s", formatTime(doc.CreatedAt)),
	}
	if doc.Type != "" {
		lines = append(lines, fmt.Sprintf("type: %s", doc.Type))
	}
	if doc.Comment != "" {
		lines = append(lines, fmt.Sprintf("comment: %s", doc.Comment))
	}
	if len(doc.Attachments) > 0 {
		lines = append(lines, "attachments:")
		for _, attachment := range doc.Attachments {
			lines = append(lines, fmt.Sprintf("  - %s (%d page%s)", attachment.ReferenceNumber, len(attachment.Pages), plural(len(attachment.Pages))))
		}
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

// attachmentView is an attachment with the health of each page file.
type attachmentView struct {
	models.Attachment `yaml:",inline"`

	DocumentNumber string      `json:"document_number" yaml:"document_number"`
	Faults         []pageFault `json:"faults,omitempty" yaml:"faults,omitempty"`
}

type pageFault struct {
	PageID int64  `json:"page_id" yaml:"page_id"`
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"reason" yaml:"reason"`
}

func newAttachmentView(doc models.Document, attachment models.Attachment, loaded synchronizer.LoadedPages) attachmentView {
	view := attachmentView{Attachment: attachment, DocumentNumber: doc.Number}
	for _, fault := range loaded.Faults() {
		view.Faults = append(view.Faults, pageFault{PageID: fault.PageID, Path: fault.Path, Reason: fault.Reason})
	}
	return view
}

func writeAttachmentDetail(view attachmentView) error {
	faulty := make(map[int64]string, len(view.Faults))
	for _, fault := range view.Faults {
		faulty[fault.PageID] = fault.Reason
	}

	lines := []string{
		fmt.Sprintf("reference: %s", view.ReferenceNumber),
		fmt.Sprintf("document: %s", view.DocumentNumber),
		fmt.Sprintf("id: %d", view.ID),
		fmt.Sprintf("created_at: %s", formatTime(view.CreatedAt)),
	}
	if view.Comment != "" {
		lines = append(lines, fmt.Sprintf("comment: %s", view.Comment))
	}
	lines = append(lines, fmt.Sprintf("pages: %d", len(view.Pages)))
	for _, page := range view.Pages {
		status := "ok"
		if reason, ok := faulty[page.ID]; ok {
			status = reason
		}
		lines = append(lines, fmt.Sprintf("  %d. %s (%s)", page.Index, page.FilePath, status))
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func writeIngestFaults(faults []synchronizer.IngestFault) {
	for _, fault := range faults {
		fmt.Fprintf(os.Stderr, "warning: %v; stored a placeholder page\n", fault)
	}
}

func writeReconcileReport(report synchronizer.ReconcileReport) error {
	if report.Clean() {
		return writePlain("Data directory matches the database.\n")
	}
	var lines []string
	for _, page := range report.DanglingPages {
		lines = append(lines, fmt.Sprintf("dangling page %d: %s (%s)", page.PageID, page.Path, page.Reason))
	}
	for _, path := range report.OrphanFiles {
		lines = append(lines, fmt.Sprintf("orphan file: %s", path))
	}
	for _, dir := range report.StaleDirs {
		lines = append(lines, fmt.Sprintf("stale directory: %s", dir))
	}
	if report.DryRun {
		if len(report.OrphanFiles)+len(report.StaleDirs) > 0 {
			lines = append(lines, "Run with --apply to remove orphan files and empty stale directories.")
		}
	} else {
		lines = append(lines, fmt.Sprintf("Removed %d file(s) and %d directory(ies); %d failure(s).",
			report.RemovedFiles, report.RemovedDirs, report.FailedCount))
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}

func formatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
