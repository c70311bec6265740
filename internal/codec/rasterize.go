package codec

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/image/draw"
)

// Resolution is a fixed raster size in pixels for portrait pages.
type Resolution struct {
	Width  int
	Height int
}

// DefaultResolution is A4 at 300 dpi.
var DefaultResolution = Resolution{Width: 2480, Height: 3508}

func (r Resolution) valid() bool {
	return r.Width > 0 && r.Height > 0
}

// forPage orients r to match a page of the given bounds.
func (r Resolution) forPage(bounds image.Rectangle) Resolution {
	if bounds.Dx() > bounds.Dy() && r.Width < r.Height {
		return Resolution{Width: r.Height, Height: r.Width}
	}
	return r
}

// Rasterizer renders every page of a multi-page document to a PNG.
type Rasterizer interface {
	Rasterize(ctx context.Context, data []byte, target Resolution) ([][]byte, error)
}

// FitzRasterizer renders PDF pages with MuPDF.
type FitzRasterizer struct {
	Logger *slog.Logger
}

// Rasterize returns one PNG per source page, in source order.
func (r FitzRasterizer) Rasterize(ctx context.Context, data []byte, target Resolution) ([][]byte, error) {
	if !target.valid() {
		return nil, fmt.Errorf("invalid raster resolution %dx%d", target.Width, target.Height)
	}
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %v", ErrDecode, err)
	}
	defer doc.Close()

	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pages := make([][]byte, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bounds, err := doc.Bound(i)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d bounds: %v", ErrDecode, i+1, err)
		}
		size := target.forPage(bounds)
		dpi := 72.0
		if bounds.Dx() > 0 {
			dpi = 72.0 * float64(size.Width) / float64(bounds.Dx())
		}

		rendered, err := doc.ImageDPI(i, dpi)
		if err != nil {
			return nil, fmt.Errorf("%w: render page %d: %v", ErrDecode, i+1, err)
		}
		page := fitTo(rendered, size)

		encoded, err := encodePNG(page, png.DefaultCompression)
		if err != nil {
			return nil, err
		}
		logger.Debug("rasterized pdf page", "page", i+1, "width", size.Width, "height", size.Height, "dpi", dpi)
		pages = append(pages, encoded)
	}
	return pages, nil
}

// fitTo scales img to exactly size.
func fitTo(img image.Image, size Resolution) image.Image {
	b := img.Bounds()
	if b.Dx() == size.Width && b.Dy() == size.Height {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
