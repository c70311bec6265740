package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"docman/internal/models"
)

func TestCreateDocumentMakesDirectory(t *testing.T) {
	h := newHarness(t)
	doc := h.createDocument(t, " D-5 ")
	if doc.Number != "D-5" {
		t.Fatalf("expected trimmed number, got %q", doc.Number)
	}
	info, err := os.Stat(filepath.Join(h.root, "D-5"))
	if err != nil || !info.IsDir() {
		t.Fatalf("expected document directory, err=%v", err)
	}

	_, err = h.sync.CreateDocument(context.Background(), models.DocumentDetails{Number: "D-5"})
	if !errors.Is(err, models.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	_, err = h.sync.CreateDocument(context.Background(), models.DocumentDetails{Number: ".."})
	if !errors.Is(err, models.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestDeleteDocumentRemovesEverything(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.createDocument(t, "D-1")
	other := h.createDocument(t, "D-2")
	h.createAttachment(t, doc.ID, "A-1", 3)
	h.createAttachment(t, doc.ID, "A-2", 1)
	h.createAttachment(t, other.ID, "B-1", 1)

	if err := h.sync.DeleteDocument(ctx, doc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	assertMissing(t, filepath.Join(h.root, "D-1"))
	if _, err := h.store.GetDocument(ctx, doc.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected document row gone, got %v", err)
	}
	for _, ref := range []string{"A-1", "A-2"} {
		if _, err := h.store.GetAttachmentByReference(ctx, ref); !errors.Is(err, models.ErrNotFound) {
			t.Fatalf("expected attachment %s gone, got %v", ref, err)
		}
	}
	pages, err := h.store.ListAllPages(ctx)
	if err != nil {
		t.Fatalf("list pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected only the other document's page, got %d", len(pages))
	}
	if files := listFiles(t, filepath.Join(h.root, "D-2")); len(files) != 1 {
		t.Fatalf("other document files must survive, got %v", files)
	}
}

func TestUpdateDocumentRenumbersFilesAndRows(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.createDocument(t, "D-1")
	a := h.createAttachment(t, doc.ID, "A-1", 2)
	b := h.createAttachment(t, doc.ID, "A-2", 1)

	updated, err := h.sync.UpdateDocument(ctx, doc.ID, models.DocumentDetails{Number: "D-9", Type: "contract"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Number != "D-9" || updated.Type != "contract" {
		t.Fatalf("unexpected document: %#v", updated)
	}

	assertMissing(t, filepath.Join(h.root, "D-1"))
	files := listFiles(t, filepath.Join(h.root, "D-9"))
	if fmt.Sprint(files) != "[A-1/D-9_A-1_1.png A-1/D-9_A-1_2.png A-2/D-9_A-2_1.png]" {
		t.Fatalf("unexpected files: %v", files)
	}

	for _, id := range []int64{a.ID, b.ID} {
		attachment, err := h.store.GetAttachment(ctx, id)
		if err != nil {
			t.Fatalf("get attachment: %v", err)
		}
		for i, page := range attachment.Pages {
			want := filepath.Join(h.root, "D-9", attachment.ReferenceNumber, fmt.Sprintf("D-9_%s_%d.png", attachment.ReferenceNumber, i+1))
			if page.FilePath != want {
				t.Fatalf("page row not rewritten: got %s want %s", page.FilePath, want)
			}
		}
	}
}

func TestUpdateDocumentDetailsOnlyKeepsFiles(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	doc := h.createDocument(t, "D-1")
	h.createAttachment(t, doc.ID, "A-1", 1)
	before := listFiles(t, h.root)

	if _, err := h.sync.UpdateDocument(ctx, doc.ID, models.DocumentDetails{Number: "D-1", Comment: "filed"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if fmt.Sprint(before) != fmt.Sprint(listFiles(t, h.root)) {
		t.Fatal("comment change must not move files")
	}
	got, err := h.store.GetDocument(ctx, doc.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Comment != "filed" {
		t.Fatalf("comment not stored: %#v", got)
	}
}

func TestUpdateDocumentDuplicateNumber(t *testing.T) {
	h := newHarness(t)
	doc := h.createDocument(t, "D-1")
	h.createDocument(t, "D-2")

	_, err := h.sync.UpdateDocument(context.Background(), doc.ID, models.DocumentDetails{Number: "D-2"})
	if !errors.Is(err, models.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(h.root, "D-1")); err != nil {
		t.Fatalf("document directory must stay: %v", err)
	}
}
