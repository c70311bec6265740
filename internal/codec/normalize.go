package codec

import (
	"fmt"
	"image/png"
)

// NormalizeToStorageFormat returns data as a PNG. PNG input passes through
// unchanged; any other raster format is decoded and re-encoded.
func NormalizeToStorageFormat(data []byte) ([]byte, error) {
	format := DetectFormat(data)
	if format == StorageFormat {
		return data, nil
	}
	if format.IsMultiPage() {
		return nil, fmt.Errorf("%w: %s must be rasterized first", ErrDecode, format)
	}
	img, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if is16Bit(img) {
		img = toNRGBA(img)
	}
	return encodePNG(img, png.DefaultCompression)
}
