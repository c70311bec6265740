package codec

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/png"

	"golang.org/x/image/draw"
)

// QualityProfile selects the size/fidelity trade-off of Compress.
type QualityProfile int

const (
	// ProfileStorage is lossless apart from reducing 16-bit samples to 8 bits.
	ProfileStorage QualityProfile = iota
	// ProfileExport favours file size: pages are flattened and dithered to 256 colours.
	ProfileExport
)

func (p QualityProfile) String() string {
	switch p {
	case ProfileStorage:
		return "storage"
	case ProfileExport:
		return "export"
	default:
		return fmt.Sprintf("profile(%d)", int(p))
	}
}

const maxPaletteColors = 256

// Compress re-encodes a canonical-format image to a smaller PNG. Pixel
// dimensions never change.
func Compress(data []byte, profile QualityProfile) ([]byte, error) {
	src, err := Decode(data)
	if err != nil {
		return nil, err
	}

	var reduced image.Image
	switch profile {
	case ProfileStorage:
		reduced = reduceLossless(toNRGBA(src))
	case ProfileExport:
		reduced = quantize(flatten(src))
	default:
		return nil, fmt.Errorf("unknown quality profile %s", profile)
	}

	out, err := encodePNG(reduced, png.BestCompression)
	if err != nil {
		return nil, err
	}
	if profile == ProfileStorage && DetectFormat(data) == FormatPNG && len(data) <= len(out) && !is16Bit(src) {
		return data, nil
	}
	return out, nil
}

// reduceLossless picks the smallest colour model that represents img exactly.
func reduceLossless(img *image.NRGBA) image.Image {
	gray := true
	colors := make(map[color.NRGBA]uint8, maxPaletteColors)
	pal := make(color.Palette, 0, maxPaletteColors)
	overflow := false

	for i := 0; i+3 < len(img.Pix); i += 4 {
		c := color.NRGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: img.Pix[i+3]}
		if gray && (c.A != 0xff || c.R != c.G || c.G != c.B) {
			gray = false
		}
		if !overflow {
			if _, ok := colors[c]; !ok {
				if len(pal) == maxPaletteColors {
					overflow = true
				} else {
					colors[c] = uint8(len(pal))
					pal = append(pal, c)
				}
			}
		}
		if !gray && overflow {
			return img
		}
	}

	bounds := img.Bounds()
	if gray {
		dst := image.NewGray(bounds)
		for i, j := 0, 0; i+3 < len(img.Pix); i, j = i+4, j+1 {
			dst.Pix[j] = img.Pix[i]
		}
		return dst
	}
	if overflow {
		return img
	}

	dst := image.NewPaletted(bounds, pal)
	for i, j := 0, 0; i+3 < len(img.Pix); i, j = i+4, j+1 {
		c := color.NRGBA{R: img.Pix[i], G: img.Pix[i+1], B: img.Pix[i+2], A: img.Pix[i+3]}
		dst.Pix[j] = colors[c]
	}
	return dst
}

// quantize dithers img onto a fixed 256-colour palette.
func quantize(img image.Image) *image.Paletted {
	b := img.Bounds()
	dst := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.Plan9)
	draw.FloydSteinberg.Draw(dst, dst.Bounds(), img, b.Min)
	return dst
}
