package store

import (
	"context"

	"docman/internal/models"
)

// DocumentStore abstracts document persistence.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *models.Document) (int64, error)
	GetDocument(ctx context.Context, id int64) (*models.Document, error)
	GetDocumentByNumber(ctx context.Context, number string) (*models.Document, error)
	UpdateDocumentDetails(ctx context.Context, id int64, details models.DocumentDetails) error
	DeleteDocument(ctx context.Context, id int64) error
	ReadAllDocuments(ctx context.Context) ([]models.Document, error)
	ListDocuments(ctx context.Context, query DocumentQuery) ([]models.Document, error)
}

// AttachmentStore is the persistence surface for attachments and their pages.
//
// Page rows are only written together with their attachment or as a whole
// ordered set, so a reader never sees a partially replaced page list.
type AttachmentStore interface {
	CreateAttachment(ctx context.Context, attachment *models.Attachment, pagePaths []string) (int64, error)
	GetAttachment(ctx context.Context, id int64) (*models.Attachment, error)
	GetAttachmentByReference(ctx context.Context, reference string) (*models.Attachment, error)
	ListAttachments(ctx context.Context, documentID int64) ([]models.Attachment, error)
	UpdateAttachmentDetails(ctx context.Context, id int64, details models.AttachmentDetails) error
	DeleteAttachment(ctx context.Context, id int64) error

	ListPages(ctx context.Context, attachmentID int64) ([]models.Page, error)
	ReplaceAttachmentPages(ctx context.Context, attachmentID int64, pagePaths []string) ([]models.Page, error)
	ReplacePageSets(ctx context.Context, sets map[int64][]string) error
	ListAllPages(ctx context.Context) ([]models.Page, error)
}

// MetadataStore is everything the synchronizer needs.
type MetadataStore interface {
	DocumentStore
	AttachmentStore
}

var _ MetadataStore = (*Store)(nil)
