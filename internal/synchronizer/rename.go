package synchronizer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"docman/internal/models"
)

const renameTempPattern = ".rename-%d.tmp"

func isRenameTemp(name string) bool {
	return strings.HasPrefix(name, ".rename-") && strings.HasSuffix(name, ".tmp")
}

type move struct {
	from string
	to   string
}

type moves []move

func (m moves) targets() []string {
	out := make([]string, len(m))
	for i, mv := range m {
		out[i] = mv.to
	}
	return out
}

// pageMoves maps each page, assumed to already sit in dir, to its canonical
// name for (documentNumber, referenceNumber). Pages keep their order.
func (s *Synchronizer) pageMoves(dir string, pages []models.Page, documentNumber, referenceNumber string) (moves, error) {
	out := make(moves, 0, len(pages))
	for i, page := range pages {
		to, err := s.paths.PagePath(documentNumber, referenceNumber, i+1)
		if err != nil {
			return nil, err
		}
		out = append(out, move{from: filepath.Join(dir, filepath.Base(page.FilePath)), to: to})
	}
	return out, nil
}

// applyMoves renames files in order and returns the targets reached. When a
// target name is also a pending source, every file goes through a temporary
// name first. Failures are PartialRenameErrors; nothing is undone.
func (s *Synchronizer) applyMoves(ctx context.Context, all moves) ([]string, error) {
	pending := make(moves, 0, len(all))
	sources := make(map[string]struct{}, len(all))
	for _, mv := range all {
		if filepath.Clean(mv.from) == filepath.Clean(mv.to) {
			continue
		}
		pending = append(pending, mv)
		sources[filepath.Clean(mv.from)] = struct{}{}
	}

	collides := false
	for _, mv := range pending {
		if _, ok := sources[filepath.Clean(mv.to)]; ok {
			collides = true
			break
		}
	}

	var done []string
	if collides {
		staged := make(moves, len(pending))
		for i, mv := range pending {
			tmp := filepath.Join(filepath.Dir(mv.to), fmt.Sprintf(renameTempPattern, i+1))
			if err := s.files.Rename(ctx, mv.from, tmp); err != nil {
				return done, &models.PartialRenameError{Renamed: done, Failed: mv.from, Err: err}
			}
			done = append(done, tmp)
			staged[i] = move{from: tmp, to: mv.to}
		}
		pending = staged
	}

	for _, mv := range pending {
		if err := s.files.Rename(ctx, mv.from, mv.to); err != nil {
			return done, &models.PartialRenameError{Renamed: done, Failed: mv.from, Err: err}
		}
		done = append(done, mv.to)
	}
	return done, nil
}
