// Package pagefs stores page image files on the local filesystem.
package pagefs

import "context"

// Entry is one node found by Walk.
type Entry struct {
	Path  string
	IsDir bool
}

// FS is the file layer used by the synchronizer. Paths are used as given;
// the caller decides where pages live.
type FS interface {
	WriteFile(ctx context.Context, path string, data []byte) error
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Rename(ctx context.Context, from, to string) error
	Remove(ctx context.Context, path string) error
	RemoveAll(ctx context.Context, path string) error
	RemoveEmptyDir(ctx context.Context, path string) (bool, error)
	MkdirAll(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	Walk(ctx context.Context, root string) ([]Entry, error)
}
