// Package codec converts page sources into the canonical PNG storage format.
package codec

import (
	"github.com/gabriel-vasile/mimetype"
)

// Format identifies a source buffer kind by content, not by file name.
type Format string

const (
	FormatPNG     Format = "png"
	FormatJPEG    Format = "jpeg"
	FormatWEBP    Format = "webp"
	FormatBMP     Format = "bmp"
	FormatTIFF    Format = "tiff"
	FormatGIF     Format = "gif"
	FormatPDF     Format = "pdf"
	FormatUnknown Format = "unknown"
)

// StorageFormat is the canonical on-disk page format.
const StorageFormat = FormatPNG

// StorageExt is the file extension used for StorageFormat.
const StorageExt = "png"

var mimeFormats = map[string]Format{
	"image/png":       FormatPNG,
	"image/jpeg":      FormatJPEG,
	"image/webp":      FormatWEBP,
	"image/bmp":       FormatBMP,
	"image/tiff":      FormatTIFF,
	"image/gif":       FormatGIF,
	"application/pdf": FormatPDF,
}

// DetectFormat sniffs data and reports its Format.
func DetectFormat(data []byte) Format {
	if len(data) == 0 {
		return FormatUnknown
	}
	for mt := mimetype.Detect(data); mt != nil; mt = mt.Parent() {
		if format, ok := mimeFormats[mt.String()]; ok {
			return format
		}
	}
	return FormatUnknown
}

// IsRaster reports whether the format decodes to a single image.
func (f Format) IsRaster() bool {
	switch f {
	case FormatPNG, FormatJPEG, FormatWEBP, FormatBMP, FormatTIFF, FormatGIF:
		return true
	default:
		return false
	}
}

// IsMultiPage reports whether the format must be rasterized page by page.
func (f Format) IsMultiPage() bool {
	return f == FormatPDF
}
