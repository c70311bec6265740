package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"docman/internal/models"
)

const pageColumns = "page_id, file_path, page_index, attachment_id"

// ListPages returns an attachment's pages ordered by page index.
func (s *Store) ListPages(ctx context.Context, attachmentID int64) ([]models.Page, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pageColumns+` FROM page WHERE attachment_id = ? ORDER BY page_index`, attachmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPages(rows)
}

// ListAllPages returns every page row, ordered by attachment and index.
func (s *Store) ListAllPages(ctx context.Context) ([]models.Page, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+pageColumns+` FROM page ORDER BY attachment_id, page_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPages(rows)
}

// ReplaceAttachmentPages swaps an attachment's page rows for pagePaths, in
// order, in one transaction.
func (s *Store) ReplaceAttachmentPages(ctx context.Context, attachmentID int64, pagePaths []string) ([]models.Page, error) {
	var pages []models.Page
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		inserted, err := replacePagesTx(ctx, tx, attachmentID, pagePaths)
		pages = inserted
		return err
	})
	if err != nil {
		return nil, err
	}
	return pages, nil
}

// ReplacePageSets replaces the page rows of several attachments in one
// transaction. Either every set is written or none is.
func (s *Store) ReplacePageSets(ctx context.Context, sets map[int64][]string) error {
	ids := make([]int64, 0, len(sets))
	for id := range sets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := replacePagesTx(ctx, tx, id, sets[id]); err != nil {
				return err
			}
		}
		return nil
	})
}

func replacePagesTx(ctx context.Context, tx *sql.Tx, attachmentID int64, pagePaths []string) ([]models.Page, error) {
	var exists int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM attachment WHERE attachment_id = ?", attachmentID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Entity: "attachment", ID: attachmentID}
	}
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM page WHERE attachment_id = ?", attachmentID); err != nil {
		return nil, err
	}
	return insertPagesTx(ctx, tx, attachmentID, pagePaths)
}

// insertPagesTx inserts pagePaths as pages 1..N of attachmentID.
func insertPagesTx(ctx context.Context, tx *sql.Tx, attachmentID int64, pagePaths []string) ([]models.Page, error) {
	pages := make([]models.Page, 0, len(pagePaths))
	if len(pagePaths) == 0 {
		return pages, nil
	}

	values := make([]string, len(pagePaths))
	args := make([]any, 0, len(pagePaths)*3)
	for i, path := range pagePaths {
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("page %d: file path is required", i+1)
		}
		values[i] = "(?, ?, ?)"
		args = append(args, path, i+1, attachmentID)
	}

	rows, err := tx.QueryContext(ctx,
		"INSERT INTO page (file_path, page_index, attachment_id) VALUES "+strings.Join(values, ",")+" RETURNING "+pageColumns,
		args...)
	if err != nil {
		return nil, mapWriteError(err, "")
	}
	defer rows.Close()

	inserted, err := collectPages(rows)
	if err != nil {
		return nil, mapWriteError(err, "")
	}
	// RETURNING order is unspecified.
	sort.Slice(inserted, func(i, j int) bool { return inserted[i].Index < inserted[j].Index })
	return inserted, nil
}

// loadPages fills Pages for every attachment with one query per batch.
func (s *Store) loadPages(ctx context.Context, attachments []models.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	ids := make([]int64, len(attachments))
	index := make(map[int64]int, len(attachments))
	for i := range attachments {
		ids[i] = attachments[i].ID
		index[attachments[i].ID] = i
	}

	for _, batch := range chunkIDs(ids) {
		rows, err := s.db.QueryContext(ctx,
			`SELECT `+pageColumns+` FROM page WHERE attachment_id IN (`+placeholders(len(batch))+`) ORDER BY attachment_id, page_index`,
			idArgs(batch)...)
		if err != nil {
			return err
		}
		pages, err := collectPages(rows)
		rows.Close()
		if err != nil {
			return err
		}
		for _, page := range pages {
			if i, ok := index[page.AttachmentID]; ok {
				attachments[i].Pages = append(attachments[i].Pages, page)
			}
		}
	}
	return nil
}

func collectPages(rows *sql.Rows) ([]models.Page, error) {
	pages := []models.Page{}
	for rows.Next() {
		var page models.Page
		if err := rows.Scan(&page.ID, &page.FilePath, &page.Index, &page.AttachmentID); err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}
