// Package pagepath maps document and attachment names to page file locations.
package pagepath

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// DefaultRoot is the data directory used when none is configured.
	DefaultRoot = "./data"
	// DefaultExt is the extension of the canonical storage format.
	DefaultExt = "png"
)

// Builder computes canonical page paths. It holds no state beyond its settings,
// so identical inputs always produce identical paths.
type Builder struct {
	Root string
	Ext  string
}

// New returns a Builder rooted at root with the default extension.
func New(root string) Builder {
	return Builder{Root: root, Ext: DefaultExt}
}

func (b Builder) root() string {
	if strings.TrimSpace(b.Root) == "" {
		return DefaultRoot
	}
	return b.Root
}

func (b Builder) ext() string {
	ext := strings.TrimPrefix(strings.TrimSpace(b.Ext), ".")
	if ext == "" {
		return DefaultExt
	}
	return ext
}

// RootDir returns the data directory.
func (b Builder) RootDir() string {
	return filepath.Clean(b.root())
}

// DocumentDir returns <root>/<documentNumber>.
func (b Builder) DocumentDir(documentNumber string) string {
	return filepath.Join(b.root(), documentNumber)
}

// AttachmentDir returns <root>/<documentNumber>/<referenceNumber>.
func (b Builder) AttachmentDir(documentNumber, referenceNumber string) string {
	return filepath.Join(b.root(), documentNumber, referenceNumber)
}

// FileName returns <documentNumber>_<referenceNumber>_<pageIndex>.<ext>.
func (b Builder) FileName(documentNumber, referenceNumber string, pageIndex int) (string, error) {
	if pageIndex < 1 {
		return "", fmt.Errorf("page index must be >= 1, got %d", pageIndex)
	}
	return fmt.Sprintf("%s_%s_%d.%s", documentNumber, referenceNumber, pageIndex, b.ext()), nil
}

// PagePath returns the canonical path of one page. pageIndex is 1-based.
func (b Builder) PagePath(documentNumber, referenceNumber string, pageIndex int) (string, error) {
	name, err := b.FileName(documentNumber, referenceNumber, pageIndex)
	if err != nil {
		return "", err
	}
	return filepath.Join(b.AttachmentDir(documentNumber, referenceNumber), name), nil
}

// PagePaths returns the canonical paths of pages 1..count.
func (b Builder) PagePaths(documentNumber, referenceNumber string, count int) []string {
	out := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		path, _ := b.PagePath(documentNumber, referenceNumber, i)
		out = append(out, path)
	}
	return out
}

// IsPageFileName reports whether name has the <doc>_<ref>_<n>.<ext> shape
// with a positive index. It does not check which document or attachment the
// name belongs to.
func (b Builder) IsPageFileName(name string) bool {
	stem, ok := strings.CutSuffix(name, "."+b.ext())
	if !ok {
		return false
	}
	cut := strings.LastIndex(stem, "_")
	if cut <= 0 {
		return false
	}
	index, err := strconv.Atoi(stem[cut+1:])
	if err != nil || index < 1 || strconv.Itoa(index) != stem[cut+1:] {
		return false
	}
	owner := stem[:cut]
	sep := strings.Index(owner, "_")
	return sep > 0 && sep < len(owner)-1
}

// IsAttachmentLevel reports whether path sits directly inside an attachment
// directory, i.e. exactly <root>/<doc>/<ref>/<name>.
func (b Builder) IsAttachmentLevel(path string) bool {
	rel, err := filepath.Rel(b.RootDir(), filepath.Clean(path))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return false
	}
	return len(strings.Split(rel, string(filepath.Separator))) == 3
}
