package synchronizer

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"docman/internal/codec"
	"docman/internal/models"
	"docman/internal/pagefs"
	"docman/internal/pagepath"
	"docman/internal/store"
)

// fakeRasterizer treats every "/Page\n" marker in a PDF as one page and
// renders page i as a (200+i)x50 image.
type fakeRasterizer struct{}

func (fakeRasterizer) Rasterize(_ context.Context, data []byte, _ codec.Resolution) ([][]byte, error) {
	n := bytes.Count(data, []byte("/Page\n"))
	if n == 0 {
		return nil, codec.ErrDecode
	}
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, encodeTestPNG(200+i, 50))
	}
	return out, nil
}

func fakePDF(pages int) []byte {
	return []byte("%PDF-1.4\n" + strings.Repeat("/Page\n", pages) + "%%EOF\n")
}

func encodeTestPNG(w, h int) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: uint8(w), A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// testPages returns n pages whose widths are 10, 11, ... so order is checkable.
func testPages(n int) [][]byte {
	out := make([][]byte, n)
	for i := range out {
		out[i] = encodeTestPNG(10+i, 8)
	}
	return out
}

type harness struct {
	sync  *Synchronizer
	store *store.Store
	root  string
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithFS(t, pagefs.NewLocal())
}

func newHarnessWithFS(t *testing.T, files pagefs.FS) *harness {
	t.Helper()
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	root := filepath.Join(dir, "data")
	sync, err := New(Deps{
		Store: st,
		Files: files,
		Codec: codec.NewAdapter(fakeRasterizer{}, codec.Resolution{Width: 20, Height: 30}),
		Paths: pagepath.New(root),
	})
	if err != nil {
		t.Fatalf("new synchronizer: %v", err)
	}
	return &harness{sync: sync, store: st, root: root}
}

func (h *harness) createDocument(t *testing.T, number string) *models.Document {
	t.Helper()
	doc, err := h.sync.CreateDocument(context.Background(), models.DocumentDetails{Number: number})
	if err != nil {
		t.Fatalf("create document %s: %v", number, err)
	}
	return doc
}

func (h *harness) createAttachment(t *testing.T, documentID int64, ref string, pages int) *models.Attachment {
	t.Helper()
	attachment, err := h.sync.CreateAttachment(context.Background(), documentID, models.AttachmentDetails{ReferenceNumber: ref}, testPages(pages))
	if err != nil {
		t.Fatalf("create attachment %s: %v", ref, err)
	}
	return attachment
}

// listFiles returns every regular file under dir, relative to dir.
func listFiles(t *testing.T, dir string) []string {
	t.Helper()
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(dir, path)
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("walk %s: %v", dir, err)
	}
	sort.Strings(out)
	return out
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be absent, stat err=%v", path, err)
	}
}

func pngWidth(t *testing.T, data []byte) int {
	t.Helper()
	cfg, err := codec.DecodeConfig(data)
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	return cfg.Width
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}
