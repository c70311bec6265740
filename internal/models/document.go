package models

// Document is a top-level record identified by a unique document number.
type Document struct {
	ID          int64        `json:"id" yaml:"id"`
	Number      string       `json:"number" yaml:"number"`
	Type        string       `json:"type,omitempty" yaml:"type,omitempty"`
	Comment     string       `json:"comment,omitempty" yaml:"comment,omitempty"`
	CreatedAt   int64        `json:"created_at" yaml:"created_at"`
	Attachments []Attachment `json:"attachments,omitempty" yaml:"attachments,omitempty"`
}

// Attachment groups an ordered set of page images under one document.
type Attachment struct {
	ID              int64  `json:"id" yaml:"id"`
	ReferenceNumber string `json:"reference_number" yaml:"reference_number"`
	Comment         string `json:"comment,omitempty" yaml:"comment,omitempty"`
	CreatedAt       int64  `json:"created_at" yaml:"created_at"`
	DocumentID      int64  `json:"document_id" yaml:"document_id"`
	Pages           []Page `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// Page points at one encoded page image on disk.
//
// Index is 1-based and contiguous within the owning attachment.
type Page struct {
	ID           int64  `json:"id" yaml:"id"`
	FilePath     string `json:"file_path" yaml:"file_path"`
	Index        int    `json:"index" yaml:"index"`
	AttachmentID int64  `json:"attachment_id" yaml:"attachment_id"`
}

// PagePaths returns the file paths of pages in page order.
func (a Attachment) PagePaths() []string {
	out := make([]string, 0, len(a.Pages))
	for _, page := range a.Pages {
		out = append(out, page.FilePath)
	}
	return out
}

// FindAttachment returns the attachment with id, if loaded.
func (d Document) FindAttachment(id int64) (Attachment, bool) {
	for _, attachment := range d.Attachments {
		if attachment.ID == id {
			return attachment, true
		}
	}
	return Attachment{}, false
}
