package store

import (
	"context"
	"database/sql"
	"fmt"

	"docman/internal/models"
)

const attachmentColumns = "attachment_id, reference_number, comment, date_added, document_id"

// CreateAttachment inserts the attachment row and one page row per path, in
// order, in a single transaction. It sets attachment.ID, CreatedAt and Pages.
func (s *Store) CreateAttachment(ctx context.Context, attachment *models.Attachment, pagePaths []string) (int64, error) {
	if attachment == nil {
		return 0, fmt.Errorf("attachment is required")
	}

	var pages []models.Page
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			INSERT INTO attachment (reference_number, comment, document_id)
			VALUES (?, ?, ?)
			RETURNING attachment_id, date_added
		`, attachment.ReferenceNumber, nullIfEmpty(attachment.Comment), attachment.DocumentID)
		if err := row.Scan(&attachment.ID, &attachment.CreatedAt); err != nil {
			if isForeignKeyConstraint(err) {
				return &models.NotFoundError{Entity: "document", ID: attachment.DocumentID}
			}
			return mapWriteError(err, attachment.ReferenceNumber)
		}

		inserted, err := insertPagesTx(ctx, tx, attachment.ID, pagePaths)
		if err != nil {
			return err
		}
		pages = inserted
		return nil
	})
	if err != nil {
		attachment.ID = 0
		attachment.CreatedAt = 0
		return 0, err
	}
	attachment.Pages = pages
	return attachment.ID, nil
}

// GetAttachment returns one attachment with its pages in order.
func (s *Store) GetAttachment(ctx context.Context, id int64) (*models.Attachment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attachmentColumns+` FROM attachment WHERE attachment_id = ?`, id)
	return s.attachmentWithPages(ctx, row, id)
}

// GetAttachmentByReference looks an attachment up by its unique reference number.
func (s *Store) GetAttachmentByReference(ctx context.Context, reference string) (*models.Attachment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+attachmentColumns+` FROM attachment WHERE reference_number = ?`, reference)
	return s.attachmentWithPages(ctx, row, reference)
}

func (s *Store) attachmentWithPages(ctx context.Context, row *sql.Row, key any) (*models.Attachment, error) {
	attachment, err := scanAttachment(row)
	if err != nil {
		return nil, err
	}
	if attachment == nil {
		return nil, &models.NotFoundError{Entity: "attachment", ID: key}
	}
	pages, err := s.ListPages(ctx, attachment.ID)
	if err != nil {
		return nil, err
	}
	attachment.Pages = pages
	return attachment, nil
}

// ListAttachments lists a document's attachments with their pages.
func (s *Store) ListAttachments(ctx context.Context, documentID int64) ([]models.Attachment, error) {
	attachments, err := s.listAttachmentsFor(ctx, []int64{documentID})
	if err != nil {
		return nil, err
	}
	if err := s.loadPages(ctx, attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}

// UpdateAttachmentDetails overwrites the reference number and comment.
func (s *Store) UpdateAttachmentDetails(ctx context.Context, id int64, details models.AttachmentDetails) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE attachment SET reference_number = ?, comment = ?
		WHERE attachment_id = ?
	`, details.ReferenceNumber, nullIfEmpty(details.Comment), id)
	if err != nil {
		return mapWriteError(err, details.ReferenceNumber)
	}
	return requireAffected(res, "attachment", id)
}

// DeleteAttachment deletes one attachment; its pages cascade.
func (s *Store) DeleteAttachment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM attachment WHERE attachment_id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, "attachment", id)
}

// listAttachmentsFor returns the attachments of the given documents ordered
// by document and attachment id. Pages are not loaded.
func (s *Store) listAttachmentsFor(ctx context.Context, documentIDs []int64) ([]models.Attachment, error) {
	attachments := []models.Attachment{}
	for _, batch := range chunkIDs(documentIDs) {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+attachmentColumns+` FROM attachment WHERE document_id IN (`+placeholders(len(batch))+`) ORDER BY document_id, attachment_id`,
			idArgs(batch)...)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			attachment, err := scanAttachment(rows)
			if err != nil {
				rows.Close()
				return nil, err
			}
			if attachment != nil {
				attachments = append(attachments, *attachment)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return attachments, nil
}

func scanAttachment(scanner interface {
	Scan(dest ...any) error
}) (*models.Attachment, error) {
	var attachment models.Attachment
	var comment sql.NullString
	if err := scanner.Scan(
		&attachment.ID,
		&attachment.ReferenceNumber,
		&comment,
		&attachment.CreatedAt,
		&attachment.DocumentID,
	); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	attachment.Comment = comment.String
	return &attachment, nil
}
