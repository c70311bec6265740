package pagepath

import (
	"path/filepath"
	"testing"
)

func TestPagePathCanonicalForm(t *testing.T) {
	b := New("./data")
	got, err := b.PagePath("D-100", "A-1", 2)
	if err != nil {
		t.Fatalf("page path: %v", err)
	}
	want := filepath.Join("data", "D-100", "A-1", "D-100_A-1_2.png")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestPagePathDeterministicAndInjective(t *testing.T) {
	b := Builder{Root: t.TempDir(), Ext: ".png"}
	seen := map[string]int{}
	for i := 1; i <= 50; i++ {
		first, err := b.PagePath("D", "R", i)
		if err != nil {
			t.Fatalf("page path %d: %v", i, err)
		}
		second, _ := b.PagePath("D", "R", i)
		if first != second {
			t.Fatalf("expected deterministic path for %d: %q vs %q", i, first, second)
		}
		if prev, ok := seen[first]; ok {
			t.Fatalf("index %d collides with %d at %q", i, prev, first)
		}
		seen[first] = i
		if filepath.Dir(first) != b.AttachmentDir("D", "R") {
			t.Fatalf("page %d outside attachment dir: %q", i, first)
		}
	}
}

func TestPagePathRejectsZeroIndex(t *testing.T) {
	if _, err := New("").PagePath("D", "R", 0); err == nil {
		t.Fatal("expected error for page index 0")
	}
}

func TestDefaults(t *testing.T) {
	var b Builder
	if got := b.DocumentDir("D"); got != filepath.Join("data", "D") {
		t.Fatalf("unexpected default document dir %q", got)
	}
	paths := b.PagePaths("D", "R", 3)
	if len(paths) != 3 || filepath.Base(paths[2]) != "D_R_3.png" {
		t.Fatalf("unexpected paths %v", paths)
	}
}

func TestIsPageFileName(t *testing.T) {
	b := New("data")
	cases := map[string]bool{
		"D-1_A-1_1.png":  true,
		"D_1_A_1_12.png": true,
		"D-1_A-1_0.png":  false,
		"D-1_A-1_01.png": false,
		"D-1_A-1_x.png":  false,
		"D-1_A-1_1.jpg":  false,
		"A-1_1.png":      false,
		"docman.db":      false,
		"docman.db-wal":  false,
		"_A-1_1.png":     false,
		"D-1__1.png":     false,
	}
	for name, want := range cases {
		if got := b.IsPageFileName(name); got != want {
			t.Fatalf("IsPageFileName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestIsAttachmentLevel(t *testing.T) {
	root := t.TempDir()
	b := New(root)
	if !b.IsAttachmentLevel(filepath.Join(root, "D-1", "A-1", "D-1_A-1_1.png")) {
		t.Fatal("expected page inside attachment dir to be at attachment level")
	}
	for _, path := range []string{
		filepath.Join(root, "docman.db"),
		filepath.Join(root, "D-1", "x.png"),
		filepath.Join(root, "D-1", "A-1", "sub", "x.png"),
		filepath.Join(filepath.Dir(root), "D-1", "A-1", "x.png"),
	} {
		if b.IsAttachmentLevel(path) {
			t.Fatalf("expected %q not at attachment level", path)
		}
	}
}
