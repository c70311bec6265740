package synchronizer

import (
	"context"
	"fmt"

	"docman/internal/codec"
	"docman/internal/models"
)

// LoadedPage is one page's bytes as read from disk. When the file is
// missing or undecodable, Data is the placeholder and Fault says why.
type LoadedPage struct {
	Page  models.Page
	Data  []byte
	Fault *models.ConsistencyError
}

// LoadedPages is an attachment's pages in order.
type LoadedPages []LoadedPage

// Data returns the page bytes in order.
func (l LoadedPages) Data() [][]byte {
	out := make([][]byte, len(l))
	for i, page := range l {
		out[i] = page.Data
	}
	return out
}

// Faults returns the consistency faults found while loading.
func (l LoadedPages) Faults() []*models.ConsistencyError {
	var out []*models.ConsistencyError
	for _, page := range l {
		if page.Fault != nil {
			out = append(out, page.Fault)
		}
	}
	return out
}

// LoadPages reads an attachment's page files. Missing or corrupt files do
// not fail the read; they come back as placeholders with a fault attached.
func (s *Synchronizer) LoadPages(ctx context.Context, attachmentID int64) (LoadedPages, error) {
	pages, err := s.store.ListPages(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		if _, err := s.store.GetAttachment(ctx, attachmentID); err != nil {
			return nil, err
		}
	}

	out := make(LoadedPages, 0, len(pages))
	for _, page := range pages {
		data, fault := s.readPage(ctx, page)
		if fault != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Warn("page unreadable, showing placeholder", "page_id", page.ID, "path", page.FilePath, "reason", fault.Reason)
			data = codec.Placeholder()
		}
		out = append(out, LoadedPage{Page: page, Data: data, Fault: fault})
	}
	return out, nil
}

// readPage reads and decode-checks one page file.
func (s *Synchronizer) readPage(ctx context.Context, page models.Page) ([]byte, *models.ConsistencyError) {
	data, err := s.files.ReadFile(ctx, page.FilePath)
	if err != nil {
		return nil, &models.ConsistencyError{PageID: page.ID, Path: page.FilePath, Reason: "file missing or unreadable", Err: err}
	}
	if _, err := codec.DecodeConfig(data); err != nil {
		return nil, &models.ConsistencyError{PageID: page.ID, Path: page.FilePath, Reason: "file is not a decodable image", Err: err}
	}
	return data, nil
}

// ExportPDF writes an attachment's pages to outPath as one PDF. Any missing
// or undecodable page aborts the export.
func (s *Synchronizer) ExportPDF(ctx context.Context, attachmentID int64, outPath string) error {
	attachment, err := s.store.GetAttachment(ctx, attachmentID)
	if err != nil {
		return err
	}
	if len(attachment.Pages) == 0 {
		return fmt.Errorf("attachment %s has no pages", attachment.ReferenceNumber)
	}

	pages := make([][]byte, 0, len(attachment.Pages))
	for _, page := range attachment.Pages {
		data, fault := s.readPage(ctx, page)
		if fault != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fault
		}
		pages = append(pages, data)
	}

	if err := s.exporter.Export(ctx, pages, outPath); err != nil {
		return fmt.Errorf("export %s: %w", attachment.ReferenceNumber, err)
	}
	s.logger.Info("exported attachment", "attachment_id", attachmentID, "path", outPath, "pages", len(pages))
	return nil
}
