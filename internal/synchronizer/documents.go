package synchronizer

import (
	"context"
	"errors"
	"path/filepath"

	"docman/internal/models"
)

// CreateDocument inserts a document and creates its directory.
func (s *Synchronizer) CreateDocument(ctx context.Context, details models.DocumentDetails) (*models.Document, error) {
	details = details.Normalize()
	if err := details.Validate(); err != nil {
		return nil, err
	}

	doc := &models.Document{Number: details.Number, Type: details.Type, Comment: details.Comment}
	if _, err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.files.MkdirAll(ctx, s.paths.DocumentDir(doc.Number)); err != nil {
		return doc, err
	}
	s.logger.Info("created document", "document_id", doc.ID, "number", doc.Number)
	return doc, nil
}

// UpdateDocument changes a document's details. A new number moves the
// document directory and renames every page file below it to match.
func (s *Synchronizer) UpdateDocument(ctx context.Context, id int64, details models.DocumentDetails) (*models.Document, error) {
	details = details.Normalize()
	if err := details.Validate(); err != nil {
		return nil, err
	}

	current, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	attachments, err := s.store.ListAttachments(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateDocumentDetails(ctx, id, details); err != nil {
		return nil, err
	}
	updated := &models.Document{
		ID:        id,
		Number:    details.Number,
		Type:      details.Type,
		Comment:   details.Comment,
		CreatedAt: current.CreatedAt,
	}
	if current.Number == details.Number {
		return updated, nil
	}

	oldDir := s.paths.DocumentDir(current.Number)
	newDir := s.paths.DocumentDir(details.Number)
	if err := s.moveDir(ctx, oldDir, newDir); err != nil {
		return nil, err
	}

	renamed := []string{newDir}
	sets := make(map[int64][]string, len(attachments))
	for _, attachment := range attachments {
		dir := s.paths.AttachmentDir(details.Number, attachment.ReferenceNumber)
		mv, err := s.pageMoves(dir, attachment.Pages, details.Number, attachment.ReferenceNumber)
		if err != nil {
			return nil, err
		}
		done, err := s.applyMoves(ctx, mv)
		if err != nil {
			return nil, partialRename(renamed, err)
		}
		renamed = append(renamed, done...)
		sets[attachment.ID] = mv.targets()
	}

	if err := s.store.ReplacePageSets(ctx, sets); err != nil {
		return nil, err
	}
	s.logger.Info("renumbered document", "document_id", id, "from", current.Number, "to", details.Number, "attachments", len(attachments))
	return updated, nil
}

// DeleteDocument deletes the document row, which cascades to attachments and
// pages, then removes the document directory.
func (s *Synchronizer) DeleteDocument(ctx context.Context, id int64) error {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	if err := s.files.RemoveAll(ctx, s.paths.DocumentDir(doc.Number)); err != nil {
		return err
	}
	s.logger.Info("deleted document", "document_id", id, "number", doc.Number)
	return nil
}

// moveDir renames oldDir to newDir. A missing oldDir just creates newDir.
func (s *Synchronizer) moveDir(ctx context.Context, oldDir, newDir string) error {
	if filepath.Clean(oldDir) == filepath.Clean(newDir) {
		return nil
	}
	exists, err := s.files.Exists(ctx, oldDir)
	if err != nil {
		return err
	}
	if !exists {
		s.logger.Warn("directory missing, creating target instead of moving", "from", oldDir, "to", newDir)
		return s.files.MkdirAll(ctx, newDir)
	}
	return s.files.Rename(ctx, oldDir, newDir)
}

func partialRename(renamed []string, err error) error {
	var pre *models.PartialRenameError
	if errors.As(err, &pre) {
		pre.Renamed = append(append([]string{}, renamed...), pre.Renamed...)
		return pre
	}
	return &models.PartialRenameError{Renamed: renamed, Err: err}
}
