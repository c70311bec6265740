// Package pdfexport writes an ordered page sequence to a multi-page A4 PDF.
package pdfexport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"

	"docman/internal/codec"
)

const (
	// DefaultDPI is the pixel density assumed for stored pages.
	DefaultDPI = 300.0

	pointsPerInch = 72.0
)

// ErrNoPages is returned when there is nothing to export.
var ErrNoPages = errors.New("no pages to export")

// Exporter renders pages onto A4 portrait pages, one image per page, centred.
type Exporter struct {
	DPI    float64
	Logger *slog.Logger
}

// New returns an Exporter assuming dpi; a non-positive dpi selects DefaultDPI.
func New(dpi float64, logger *slog.Logger) *Exporter {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{DPI: dpi, Logger: logger.With("component", "pdfexport")}
}

// Placement is where one image lands on the output page, in points.
type Placement struct {
	X, Y, Width, Height float64
}

// Place sizes a pixel image at dpi and centres it on a pageW x pageH page,
// shrinking it proportionally when it would not fit.
func Place(pixelW, pixelH int, dpi, pageW, pageH float64) Placement {
	w := float64(pixelW) * pointsPerInch / dpi
	h := float64(pixelH) * pointsPerInch / dpi
	if w > pageW || h > pageH {
		scale := min(pageW/w, pageH/h)
		w *= scale
		h *= scale
	}
	return Placement{X: (pageW - w) / 2, Y: (pageH - h) / 2, Width: w, Height: h}
}

type preparedPage struct {
	data   []byte
	width  int
	height int
}

// Export writes pages to outPath. Any undecodable page aborts the export and
// no file is left at outPath.
func (e *Exporter) Export(ctx context.Context, pages [][]byte, outPath string) error {
	if len(pages) == 0 {
		return ErrNoPages
	}
	if outPath == "" {
		return fmt.Errorf("output path is required")
	}

	dpi := e.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	prepared := make([]preparedPage, 0, len(pages))
	for i, raw := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := preparePage(raw)
		if err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
		prepared = append(prepared, page)
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("docman", true)
	pageW, pageH := pdf.GetPageSize()

	for i, page := range prepared {
		name := fmt.Sprintf("page-%d", i+1)
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(page.data))
		if err := pdf.Error(); err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}

		at := Place(page.width, page.height, dpi, pageW, pageH)
		pdf.AddPage()
		pdf.ImageOptions(name, at.X, at.Y, at.Width, at.Height, false, opts, 0, "")
	}
	if err := pdf.Error(); err != nil {
		return err
	}

	if err := writeAtomic(outPath, pdf); err != nil {
		return err
	}
	logger.Info("exported pdf", "path", outPath, "pages", len(prepared), "dpi", dpi)
	return nil
}

func preparePage(raw []byte) (preparedPage, error) {
	normalized, err := codec.NormalizeToStorageFormat(raw)
	if err != nil {
		return preparedPage{}, err
	}
	compressed, err := codec.Compress(normalized, codec.ProfileExport)
	if err != nil {
		return preparedPage{}, err
	}
	cfg, err := codec.DecodeConfig(compressed)
	if err != nil {
		return preparedPage{}, err
	}
	return preparedPage{data: compressed, width: cfg.Width, height: cfg.Height}, nil
}

func writeAtomic(outPath string, pdf *fpdf.Fpdf) error {
	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".export-*.pdf")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if err := pdf.Output(tmp); err != nil {
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
