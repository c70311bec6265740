package synchronizer

import (
	"context"
	"fmt"

	"docman/internal/models"
)

// CreateAttachment stores a new attachment with pages under a document.
// Page rows are inserted before any file is written.
func (s *Synchronizer) CreateAttachment(ctx context.Context, documentID int64, details models.AttachmentDetails, pages [][]byte) (*models.Attachment, error) {
	details = details.Normalize()
	if err := details.Validate(); err != nil {
		return nil, err
	}
	if err := requirePages(pages); err != nil {
		return nil, err
	}

	doc, err := s.store.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	prepared := s.preparePages(pages)
	paths := s.paths.PagePaths(doc.Number, details.ReferenceNumber, len(prepared))

	attachment := &models.Attachment{
		ReferenceNumber: details.ReferenceNumber,
		Comment:         details.Comment,
		DocumentID:      documentID,
	}
	if _, err := s.store.CreateAttachment(ctx, attachment, paths); err != nil {
		return nil, err
	}

	dir := s.paths.AttachmentDir(doc.Number, details.ReferenceNumber)
	if err := s.writePages(ctx, dir, paths, prepared); err != nil {
		return attachment, err
	}
	s.logger.Info("created attachment", "attachment_id", attachment.ID, "reference", attachment.ReferenceNumber, "pages", len(paths))
	return attachment, nil
}

// Commit applies a session's pending edits and resets it to EditViewing.
func (s *Synchronizer) Commit(ctx context.Context, session *EditSession) (*models.Attachment, error) {
	if session == nil {
		return nil, fmt.Errorf("edit session is required")
	}

	var (
		updated *models.Attachment
		err     error
	)
	switch session.mode {
	case models.EditViewing:
		current := session.attachment
		return &current, nil
	case models.EditDetailsOnly:
		updated, err = s.commitDetails(ctx, session)
	case models.EditPages:
		updated, err = s.commitPages(ctx, session)
	default:
		return nil, fmt.Errorf("unknown edit mode %q", session.mode)
	}
	if err != nil {
		return nil, err
	}
	session.reset(*updated)
	return updated, nil
}

// commitDetails moves the attachment directory and renames its page files
// without touching their bytes.
func (s *Synchronizer) commitDetails(ctx context.Context, session *EditSession) (*models.Attachment, error) {
	details := session.details
	if err := details.Validate(); err != nil {
		return nil, err
	}
	current := session.attachment
	if err := s.store.UpdateAttachmentDetails(ctx, current.ID, details); err != nil {
		return nil, err
	}

	oldDir := s.paths.AttachmentDir(session.documentNumber, current.ReferenceNumber)
	newDir := s.paths.AttachmentDir(session.documentNumber, details.ReferenceNumber)
	if err := s.moveDir(ctx, oldDir, newDir); err != nil {
		return nil, err
	}
	var renamed []string
	if oldDir != newDir {
		renamed = append(renamed, newDir)
	}

	mv, err := s.pageMoves(newDir, current.Pages, session.documentNumber, details.ReferenceNumber)
	if err != nil {
		return nil, err
	}
	if _, err := s.applyMoves(ctx, mv); err != nil {
		return nil, partialRename(renamed, err)
	}

	pages, err := s.store.ReplaceAttachmentPages(ctx, current.ID, mv.targets())
	if err != nil {
		return nil, err
	}
	s.logger.Info("renamed attachment", "attachment_id", current.ID, "from", current.ReferenceNumber, "to", details.ReferenceNumber, "pages", len(pages))

	current.ReferenceNumber = details.ReferenceNumber
	current.Comment = details.Comment
	current.Pages = pages
	return &current, nil
}

// commitPages rebuilds the attachment directory from the staged pages. The
// pages are already in memory, so both the old and new directories are
// cleared before writing.
func (s *Synchronizer) commitPages(ctx context.Context, session *EditSession) (*models.Attachment, error) {
	details := session.details
	if err := details.Validate(); err != nil {
		return nil, err
	}
	if err := requirePages(session.pages); err != nil {
		return nil, err
	}
	prepared := s.preparePages(session.pages)

	current := session.attachment
	if err := s.store.UpdateAttachmentDetails(ctx, current.ID, details); err != nil {
		return nil, err
	}

	oldDir := s.paths.AttachmentDir(session.documentNumber, current.ReferenceNumber)
	newDir := s.paths.AttachmentDir(session.documentNumber, details.ReferenceNumber)
	if err := s.files.RemoveAll(ctx, oldDir); err != nil {
		return nil, err
	}
	// Reference numbers are unique, so anything already under newDir is a
	// leftover and must not survive next to the rebuilt pages.
	if newDir != oldDir {
		if err := s.files.RemoveAll(ctx, newDir); err != nil {
			return nil, err
		}
	}
	paths := s.paths.PagePaths(session.documentNumber, details.ReferenceNumber, len(prepared))
	if err := s.writePages(ctx, newDir, paths, prepared); err != nil {
		return nil, err
	}

	pages, err := s.store.ReplaceAttachmentPages(ctx, current.ID, paths)
	if err != nil {
		return nil, err
	}
	s.logger.Info("rewrote attachment pages", "attachment_id", current.ID, "reference", details.ReferenceNumber, "old_pages", len(current.Pages), "pages", len(pages))

	current.ReferenceNumber = details.ReferenceNumber
	current.Comment = details.Comment
	current.Pages = pages
	return &current, nil
}

// DeleteAttachment deletes the attachment row, which cascades to its pages,
// then removes the attachment directory.
func (s *Synchronizer) DeleteAttachment(ctx context.Context, id int64) error {
	attachment, err := s.store.GetAttachment(ctx, id)
	if err != nil {
		return err
	}
	doc, err := s.store.GetDocument(ctx, attachment.DocumentID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAttachment(ctx, id); err != nil {
		return err
	}
	if err := s.files.RemoveAll(ctx, s.paths.AttachmentDir(doc.Number, attachment.ReferenceNumber)); err != nil {
		return err
	}
	s.logger.Info("deleted attachment", "attachment_id", id, "reference", attachment.ReferenceNumber)
	return nil
}
