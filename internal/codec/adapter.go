package codec

import (
	"context"
	"fmt"
)

// Adapter bundles the codec operations with a configured Rasterizer.
type Adapter struct {
	rasterizer Rasterizer
	resolution Resolution
}

// NewAdapter returns an Adapter. A nil rasterizer selects FitzRasterizer and a
// zero resolution selects DefaultResolution.
func NewAdapter(rasterizer Rasterizer, resolution Resolution) *Adapter {
	if rasterizer == nil {
		rasterizer = FitzRasterizer{}
	}
	if !resolution.valid() {
		resolution = DefaultResolution
	}
	return &Adapter{rasterizer: rasterizer, resolution: resolution}
}

// Resolution returns the raster size used for multi-page sources.
func (a *Adapter) Resolution() Resolution {
	return a.resolution
}

// DetectFormat sniffs data.
func (a *Adapter) DetectFormat(data []byte) Format {
	return DetectFormat(data)
}

// Rasterize expands a multi-page document into single-page PNGs.
func (a *Adapter) Rasterize(ctx context.Context, data []byte) ([][]byte, error) {
	if format := DetectFormat(data); !format.IsMultiPage() {
		return nil, fmt.Errorf("%w: expected pdf, got %s", ErrDecode, format)
	}
	return a.rasterizer.Rasterize(ctx, data, a.resolution)
}

// NormalizeToStorageFormat converts data to the canonical format.
func (a *Adapter) NormalizeToStorageFormat(data []byte) ([]byte, error) {
	return NormalizeToStorageFormat(data)
}

// Compress shrinks a canonical-format image.
func (a *Adapter) Compress(data []byte, profile QualityProfile) ([]byte, error) {
	return Compress(data, profile)
}

// Prepare normalizes and compresses one page for storage.
func (a *Adapter) Prepare(data []byte) ([]byte, error) {
	normalized, err := NormalizeToStorageFormat(data)
	if err != nil {
		return nil, err
	}
	return Compress(normalized, ProfileStorage)
}
