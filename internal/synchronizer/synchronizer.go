// Package synchronizer keeps attachment metadata and page files in step.
//
// Every operation writes the metadata store first and the filesystem second.
// There is no cross-resource rollback: a filesystem fault after a successful
// store write is returned to the caller and can be found later with Reconcile.
package synchronizer

import (
	"context"
	"fmt"
	"log/slog"

	"docman/internal/codec"
	"docman/internal/models"
	"docman/internal/pagefs"
	"docman/internal/pagepath"
	"docman/internal/pdfexport"
	"docman/internal/store"
)

// Exporter writes an ordered page sequence to a single output file.
type Exporter interface {
	Export(ctx context.Context, pages [][]byte, outPath string) error
}

// Deps wires a Synchronizer. Only Store is required.
type Deps struct {
	Store    store.MetadataStore
	Files    pagefs.FS
	Codec    *codec.Adapter
	Paths    pagepath.Builder
	Exporter Exporter
	Logger   *slog.Logger
}

// Synchronizer runs the document and attachment workflows.
type Synchronizer struct {
	store    store.MetadataStore
	files    pagefs.FS
	codec    *codec.Adapter
	paths    pagepath.Builder
	exporter Exporter
	logger   *slog.Logger
}

// New constructs a Synchronizer, filling unset dependencies with the local
// filesystem, the MuPDF-backed codec and the A4 PDF exporter.
func New(deps Deps) (*Synchronizer, error) {
	if deps.Store == nil {
		return nil, fmt.Errorf("synchronizer: store is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Synchronizer{
		store:    deps.Store,
		files:    deps.Files,
		codec:    deps.Codec,
		paths:    deps.Paths,
		exporter: deps.Exporter,
		logger:   logger.With("component", "synchronizer"),
	}
	if s.files == nil {
		s.files = pagefs.NewLocal()
	}
	if s.codec == nil {
		s.codec = codec.NewAdapter(codec.FitzRasterizer{Logger: logger}, codec.Resolution{})
	}
	if s.exporter == nil {
		s.exporter = pdfexport.New(pdfexport.DefaultDPI, logger)
	}
	return s, nil
}

// Paths returns the path builder in use.
func (s *Synchronizer) Paths() pagepath.Builder {
	return s.paths
}

// preparePages normalizes and compresses pages for storage. A page that
// cannot be decoded is stored as the placeholder image.
func (s *Synchronizer) preparePages(pages [][]byte) [][]byte {
	out := make([][]byte, len(pages))
	for i, page := range pages {
		prepared, err := s.codec.Prepare(page)
		if err != nil {
			s.logger.Warn("page could not be decoded, storing placeholder", "page", i+1, "err", err)
			prepared = codec.Placeholder()
		}
		out[i] = prepared
	}
	return out
}

// writePages creates dir and writes pages to paths in order.
func (s *Synchronizer) writePages(ctx context.Context, dir string, paths []string, pages [][]byte) error {
	if err := s.files.MkdirAll(ctx, dir); err != nil {
		return err
	}
	for i, path := range paths {
		if err := s.files.WriteFile(ctx, path, pages[i]); err != nil {
			return err
		}
	}
	return nil
}

func requirePages(pages [][]byte) error {
	if len(pages) == 0 {
		return &models.ValidationError{Message: "at least one page is required"}
	}
	return nil
}
