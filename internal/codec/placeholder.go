package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

const (
	placeholderWidth  = 600
	placeholderHeight = 800
	placeholderStroke = 6
)

var placeholderPNG = sync.OnceValue(func() []byte {
	img := image.NewNRGBA(image.Rect(0, 0, placeholderWidth, placeholderHeight))
	background := color.NRGBA{R: 0xe6, G: 0xe6, B: 0xe6, A: 0xff}
	mark := color.NRGBA{R: 0xc6, G: 0x28, B: 0x28, A: 0xff}

	for y := 0; y < placeholderHeight; y++ {
		for x := 0; x < placeholderWidth; x++ {
			img.SetNRGBA(x, y, background)
		}
	}
	// Cross from corner to corner.
	for y := 0; y < placeholderHeight; y++ {
		x := y * placeholderWidth / placeholderHeight
		for d := -placeholderStroke / 2; d <= placeholderStroke/2; d++ {
			img.SetNRGBA(x+d, y, mark)
			img.SetNRGBA(placeholderWidth-1-x+d, y, mark)
		}
	}

	data, err := encodePNG(img, png.BestCompression)
	if err != nil {
		panic("codec: encode placeholder: " + err.Error())
	}
	return data
})

// Placeholder returns a PNG shown in place of an unreadable page.
// Callers must not modify the returned slice.
func Placeholder() []byte {
	return placeholderPNG()
}

// IsPlaceholder reports whether data is the placeholder image.
func IsPlaceholder(data []byte) bool {
	return bytes.Equal(data, placeholderPNG())
}
