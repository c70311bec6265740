package synchronizer

import (
	"context"
	"fmt"

	"docman/internal/models"
)

// EditSession collects pending edits to one attachment. It starts in
// EditViewing; SetDetails moves it to EditDetailsOnly and any page change
// moves it to EditPages for the rest of the session.
type EditSession struct {
	attachment     models.Attachment
	documentNumber string
	details        models.AttachmentDetails
	pages          [][]byte
	mode           models.EditMode
	load           func(ctx context.Context) ([][]byte, error)
}

// Open starts an edit session on an attachment.
func (s *Synchronizer) Open(ctx context.Context, attachmentID int64) (*EditSession, error) {
	attachment, err := s.store.GetAttachment(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	doc, err := s.store.GetDocument(ctx, attachment.DocumentID)
	if err != nil {
		return nil, err
	}
	session := &EditSession{documentNumber: doc.Number}
	session.reset(*attachment)
	session.load = func(ctx context.Context) ([][]byte, error) {
		loaded, err := s.LoadPages(ctx, session.attachment.ID)
		if err != nil {
			return nil, err
		}
		if faults := loaded.Faults(); len(faults) > 0 {
			return nil, faults[0]
		}
		return loaded.Data(), nil
	}
	return session, nil
}

func (e *EditSession) reset(attachment models.Attachment) {
	e.attachment = attachment
	e.details = models.AttachmentDetails{ReferenceNumber: attachment.ReferenceNumber, Comment: attachment.Comment}
	e.pages = nil
	e.mode = models.EditViewing
}

// Mode reports which commit path the session will take.
func (e *EditSession) Mode() models.EditMode { return e.mode }

// Attachment returns the attachment as last loaded or committed.
func (e *EditSession) Attachment() models.Attachment { return e.attachment }

// Details returns the pending details.
func (e *EditSession) Details() models.AttachmentDetails { return e.details }

// SetDetails stages a new reference number and comment.
func (e *EditSession) SetDetails(details models.AttachmentDetails) {
	e.details = details.Normalize()
	e.mode = e.mode.WithDetails()
}

// ReplacePages stages a new page sequence, in order.
func (e *EditSession) ReplacePages(pages [][]byte) {
	e.pages = append([][]byte(nil), pages...)
	e.mode = e.mode.WithPages()
}

// AppendPages stages the current pages followed by pages. Stored pages are
// read on first use; a missing or corrupt stored page fails with a
// ConsistencyError and leaves the session unchanged.
func (e *EditSession) AppendPages(ctx context.Context, pages [][]byte) error {
	if e.mode != models.EditPages {
		if e.load == nil {
			return fmt.Errorf("edit session cannot load stored pages")
		}
		current, err := e.load(ctx)
		if err != nil {
			return err
		}
		e.pages = current
	}
	e.pages = append(e.pages, pages...)
	e.mode = e.mode.WithPages()
	return nil
}
