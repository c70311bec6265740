package synchronizer

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"docman/internal/models"
	"docman/internal/pagefs"
	"docman/internal/store"
)

// DanglingPage is a page row whose file is missing or undecodable.
type DanglingPage struct {
	PageID       int64  `json:"page_id" yaml:"page_id"`
	AttachmentID int64  `json:"attachment_id" yaml:"attachment_id"`
	Path         string `json:"path" yaml:"path"`
	Reason       string `json:"reason" yaml:"reason"`
}

// ReconcileReport lists disagreements between the store and the data directory.
type ReconcileReport struct {
	DanglingPages []DanglingPage `json:"dangling_pages" yaml:"dangling_pages"`
	OrphanFiles   []string       `json:"orphan_files" yaml:"orphan_files"`
	StaleDirs     []string       `json:"stale_dirs" yaml:"stale_dirs"`
	RemovedFiles  int            `json:"removed_files" yaml:"removed_files"`
	RemovedDirs   int            `json:"removed_dirs" yaml:"removed_dirs"`
	FailedCount   int            `json:"failed_count" yaml:"failed_count"`
	DryRun        bool           `json:"dry_run" yaml:"dry_run"`
}

// Clean reports whether no disagreement was found.
func (r ReconcileReport) Clean() bool {
	return len(r.DanglingPages) == 0 && len(r.OrphanFiles) == 0 && len(r.StaleDirs) == 0
}

// Reconcile compares page rows with the files under the data directory.
// Only page-shaped and temp files inside attachment directories count as
// orphans; anything else under the root is left alone. With apply, orphan
// files and empty stale directories are removed; dangling rows are only
// reported.
func (s *Synchronizer) Reconcile(ctx context.Context, apply bool) (ReconcileReport, error) {
	report := ReconcileReport{
		DanglingPages: []DanglingPage{},
		OrphanFiles:   []string{},
		StaleDirs:     []string{},
		DryRun:        !apply,
	}

	docs, err := s.store.ListDocuments(ctx, store.DocumentQuery{Depth: store.DepthPages})
	if err != nil {
		return report, err
	}

	referenced := map[string]struct{}{}
	expectedDirs := map[string]struct{}{}
	for _, doc := range docs {
		expectedDirs[pathKey(s.paths.DocumentDir(doc.Number))] = struct{}{}
		for _, attachment := range doc.Attachments {
			expectedDirs[pathKey(s.paths.AttachmentDir(doc.Number, attachment.ReferenceNumber))] = struct{}{}
			for _, page := range attachment.Pages {
				referenced[pathKey(page.FilePath)] = struct{}{}
				if _, fault := s.readPage(ctx, page); fault != nil {
					if err := ctx.Err(); err != nil {
						return report, err
					}
					report.DanglingPages = append(report.DanglingPages, danglingFrom(page, fault))
				}
			}
		}
	}

	root := s.paths.RootDir()
	entries, err := s.files.Walk(ctx, root)
	if err != nil {
		return report, err
	}
	for _, entry := range entries {
		key := pathKey(entry.Path)
		if entry.IsDir {
			if _, ok := expectedDirs[key]; !ok {
				report.StaleDirs = append(report.StaleDirs, entry.Path)
			}
			continue
		}
		if _, ok := referenced[key]; !ok && s.ownsFile(entry.Path) {
			report.OrphanFiles = append(report.OrphanFiles, entry.Path)
		}
	}

	if !apply {
		return report, nil
	}

	for _, path := range report.OrphanFiles {
		if err := s.files.Remove(ctx, path); err != nil {
			s.logger.Warn("could not remove orphan file", "path", path, "err", err)
			report.FailedCount++
			continue
		}
		report.RemovedFiles++
	}

	// Deepest first so a parent empties out before it is tried.
	dirs := append([]string(nil), report.StaleDirs...)
	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})
	for _, dir := range dirs {
		removed, err := s.files.RemoveEmptyDir(ctx, dir)
		if err != nil {
			s.logger.Warn("could not remove stale directory", "path", dir, "err", err)
			report.FailedCount++
			continue
		}
		if removed {
			report.RemovedDirs++
		}
	}

	s.logger.Info("reconciled data directory",
		"dangling_pages", len(report.DanglingPages),
		"orphan_files", len(report.OrphanFiles),
		"stale_dirs", len(report.StaleDirs),
		"removed_files", report.RemovedFiles,
		"removed_dirs", report.RemovedDirs,
		"failed", report.FailedCount,
	)
	return report, nil
}

// ownsFile reports whether path is a file this package could have written.
func (s *Synchronizer) ownsFile(path string) bool {
	if !s.paths.IsAttachmentLevel(path) {
		return false
	}
	name := filepath.Base(path)
	return s.paths.IsPageFileName(name) || pagefs.IsTempName(name) || isRenameTemp(name)
}

func danglingFrom(page models.Page, fault *models.ConsistencyError) DanglingPage {
	return DanglingPage{PageID: page.ID, AttachmentID: page.AttachmentID, Path: page.FilePath, Reason: fault.Reason}
}

func pathKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
