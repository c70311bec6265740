package store

import (
	"context"
	"database/sql"
	"fmt"

	"docman/internal/models"
)

const documentColumns = "document_id, document_number, document_type, comment, date_added"

// Depth selects how much of the document tree a listing loads.
type Depth int

const (
	// DepthDocuments loads document rows only.
	DepthDocuments Depth = iota
	// DepthAttachments also loads each document's attachments.
	DepthAttachments
	// DepthPages loads documents, attachments and pages.
	DepthPages
)

// DocumentQuery filters and pages a document listing.
type DocumentQuery struct {
	Depth  Depth
	Search string
	Type   string
	Limit  int
	Offset int
}

// CreateDocument inserts doc and sets its ID and CreatedAt from the stored row.
func (s *Store) CreateDocument(ctx context.Context, doc *models.Document) (int64, error) {
	if doc == nil {
		return 0, fmt.Errorf("document is required")
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO document (document_number, document_type, comment)
		VALUES (?, ?, ?)
		RETURNING document_id, date_added
	`, doc.Number, nullIfEmpty(doc.Type), nullIfEmpty(doc.Comment))
	if err := row.Scan(&doc.ID, &doc.CreatedAt); err != nil {
		return 0, mapWriteError(err, doc.Number)
	}
	return doc.ID, nil
}

// GetDocument returns one document row without its attachments.
func (s *Store) GetDocument(ctx context.Context, id int64) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM document WHERE document_id = ?`, id)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &models.NotFoundError{Entity: "document", ID: id}
	}
	return doc, nil
}

// GetDocumentByNumber looks a document up by its unique number.
func (s *Store) GetDocumentByNumber(ctx context.Context, number string) (*models.Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM document WHERE document_number = ?`, number)
	doc, err := scanDocument(row)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &models.NotFoundError{Entity: "document", ID: number}
	}
	return doc, nil
}

// UpdateDocumentDetails overwrites the user-editable document fields.
func (s *Store) UpdateDocumentDetails(ctx context.Context, id int64, details models.DocumentDetails) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE document SET document_number = ?, document_type = ?, comment = ?
		WHERE document_id = ?
	`, details.Number, nullIfEmpty(details.Type), nullIfEmpty(details.Comment), id)
	if err != nil {
		return mapWriteError(err, details.Number)
	}
	return requireAffected(res, "document", id)
}

// DeleteDocument deletes a document; attachments and pages cascade.
func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM document WHERE document_id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, "document", id)
}

// ReadAllDocuments loads every document with its attachments and pages.
func (s *Store) ReadAllDocuments(ctx context.Context) ([]models.Document, error) {
	return s.ListDocuments(ctx, DocumentQuery{Depth: DepthPages})
}

// ListDocuments returns documents ordered by id, loading children down to
// query.Depth. Each level is fetched with one set query.
func (s *Store) ListDocuments(ctx context.Context, query DocumentQuery) ([]models.Document, error) {
	sqlText, args := buildDocumentQuery(query)
	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			continue
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if query.Depth < DepthAttachments || len(docs) == 0 {
		return docs, nil
	}

	docIDs := make([]int64, len(docs))
	for i := range docs {
		docIDs[i] = docs[i].ID
	}
	attachments, err := s.listAttachmentsFor(ctx, docIDs)
	if err != nil {
		return nil, err
	}
	if query.Depth >= DepthPages {
		if err := s.loadPages(ctx, attachments); err != nil {
			return nil, err
		}
	}

	index := make(map[int64]int, len(docs))
	for i := range docs {
		index[docs[i].ID] = i
	}
	for _, attachment := range attachments {
		if i, ok := index[attachment.DocumentID]; ok {
			docs[i].Attachments = append(docs[i].Attachments, attachment)
		}
	}
	return docs, nil
}

func scanDocument(scanner interface {
	Scan(dest ...any) error
}) (*models.Document, error) {
	var doc models.Document
	var docType, comment sql.NullString
	if err := scanner.Scan(&doc.ID, &doc.Number, &docType, &comment, &doc.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	doc.Type = docType.String
	doc.Comment = comment.String
	return &doc, nil
}

func requireAffected(res sql.Result, entity string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &models.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}
