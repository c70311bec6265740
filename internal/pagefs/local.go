package pagefs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"docman/internal/models"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
	tmpGlob  = ".page-*.tmp"
)

// IsTempName reports whether name is a leftover temp file from WriteFile.
func IsTempName(name string) bool {
	return strings.HasPrefix(name, ".page-") && strings.HasSuffix(name, ".tmp")
}

// Local implements FS with the os package.
type Local struct{}

// NewLocal returns a local filesystem FS.
func NewLocal() *Local {
	return &Local{}
}

func ioErr(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var ioe *models.IOError
	if errors.As(err, &ioe) {
		return err
	}
	return &models.IOError{Op: op, Path: path, Err: err}
}

func checkPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is required")
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains NUL")
	}
	return nil
}

// WriteFile writes data to a temp file beside path and renames it into place,
// so readers see either the old contents or the new ones.
func (l *Local) WriteFile(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkPath(path); err != nil {
		return ioErr("write", path, err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return ioErr("mkdir", dir, err)
	}

	tmp, err := os.CreateTemp(dir, tmpGlob)
	if err != nil {
		return ioErr("write", path, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return ioErr("write", path, err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		cleanup()
		return ioErr("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return ioErr("write", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return ioErr("write", path, err)
	}
	return nil
}

// ReadFile returns the contents of path.
func (l *Local) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkPath(path); err != nil {
		return nil, ioErr("read", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ioErr("read", path, err)
	}
	return data, nil
}

// Rename moves from to to. It refuses to replace an existing destination.
func (l *Local) Rename(ctx context.Context, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkPath(from); err != nil {
		return ioErr("rename", from, err)
	}
	if err := checkPath(to); err != nil {
		return ioErr("rename", to, err)
	}
	if filepath.Clean(from) == filepath.Clean(to) {
		return nil
	}
	if _, err := os.Lstat(to); err == nil {
		return ioErr("rename", to, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return ioErr("rename", to, err)
	}
	if err := os.MkdirAll(filepath.Dir(to), dirPerm); err != nil {
		return ioErr("mkdir", filepath.Dir(to), err)
	}
	if err := os.Rename(from, to); err != nil {
		return ioErr("rename", from, err)
	}
	return nil
}

// Remove deletes one file. Missing files are ignored.
func (l *Local) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkPath(path); err != nil {
		return ioErr("remove", path, err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ioErr("remove", path, err)
	}
	return nil
}

// RemoveAll deletes path and everything below it. Missing paths are ignored.
func (l *Local) RemoveAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkPath(path); err != nil {
		return ioErr("remove", path, err)
	}
	if err := os.RemoveAll(path); err != nil {
		return ioErr("remove", path, err)
	}
	return nil
}

// RemoveEmptyDir deletes path only if it is an empty directory. It reports
// whether anything was removed.
func (l *Local) RemoveEmptyDir(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := checkPath(path); err != nil {
		return false, ioErr("rmdir", path, err)
	}
	entries, err := os.ReadDir(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, ioErr("rmdir", path, err)
	}
	if len(entries) > 0 {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTEMPTY) {
			return false, nil
		}
		return false, ioErr("rmdir", path, err)
	}
	return true, nil
}

// MkdirAll creates path and any missing parents.
func (l *Local) MkdirAll(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkPath(path); err != nil {
		return ioErr("mkdir", path, err)
	}
	if err := os.MkdirAll(path, dirPerm); err != nil {
		return ioErr("mkdir", path, err)
	}
	return nil
}

// Exists reports whether path exists.
func (l *Local) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := checkPath(path); err != nil {
		return false, ioErr("stat", path, err)
	}
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, ioErr("stat", path, err)
}

// Walk lists every file and directory below root, excluding root itself,
// sorted by path. A missing root yields no entries.
func (l *Local) Walk(ctx context.Context, root string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkPath(root); err != nil {
		return nil, ioErr("walk", root, err)
	}
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var out []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		out = append(out, Entry{Path: path, IsDir: d.IsDir()})
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, ioErr("walk", root, err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

var _ FS = (*Local)(nil)
