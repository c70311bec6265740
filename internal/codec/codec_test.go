package codec

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 7), G: uint8(y * 5), B: uint8((x + y) * 3), A: 0xff})
		}
	}
	return img
}

func encodeWith(t *testing.T, img image.Image, enc func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, enc(&buf, img))
	return buf.Bytes()
}

func pngBytes(t *testing.T, img image.Image) []byte {
	return encodeWith(t, img, func(b *bytes.Buffer, i image.Image) error { return png.Encode(b, i) })
}

func TestDetectFormat(t *testing.T) {
	img := gradient(8, 8)
	cases := map[Format][]byte{
		FormatPNG:  pngBytes(t, img),
		FormatJPEG: encodeWith(t, img, func(b *bytes.Buffer, i image.Image) error { return jpeg.Encode(b, i, nil) }),
		FormatBMP:  encodeWith(t, img, func(b *bytes.Buffer, i image.Image) error { return bmp.Encode(b, i) }),
		FormatTIFF: encodeWith(t, img, func(b *bytes.Buffer, i image.Image) error { return tiff.Encode(b, i, nil) }),
		FormatPDF:  []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n"),
	}
	for want, data := range cases {
		assert.Equal(t, want, DetectFormat(data), "format %s", want)
	}
	assert.Equal(t, FormatUnknown, DetectFormat(nil))
	assert.Equal(t, FormatUnknown, DetectFormat([]byte("plain text, not an image")))

	assert.True(t, FormatWEBP.IsRaster())
	assert.True(t, FormatPDF.IsMultiPage())
	assert.False(t, FormatPDF.IsRaster())
}

func TestNormalizePassesPNGThrough(t *testing.T) {
	data := pngBytes(t, gradient(16, 9))
	out, err := NormalizeToStorageFormat(data)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestNormalizeReencodesJPEG(t *testing.T) {
	data := encodeWith(t, gradient(20, 10), func(b *bytes.Buffer, i image.Image) error { return jpeg.Encode(b, i, nil) })
	out, err := NormalizeToStorageFormat(data)
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, DetectFormat(out))

	cfg, err := DecodeConfig(out)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Width)
	assert.Equal(t, 10, cfg.Height)
}

func TestNormalizeRejectsCorruptInput(t *testing.T) {
	_, err := NormalizeToStorageFormat([]byte{0xff, 0xd8, 0xff, 0x00, 0x01})
	require.ErrorIs(t, err, ErrDecode)

	_, err = NormalizeToStorageFormat([]byte("%PDF-1.7\n"))
	require.ErrorIs(t, err, ErrDecode)
}

func TestCompressStorageKeepsPixels(t *testing.T) {
	src := gradient(40, 30)
	data, err := encodePNG(src, png.NoCompression)
	require.NoError(t, err)

	out, err := Compress(data, ProfileStorage)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(out), len(data))

	decoded, err := Decode(out)
	require.NoError(t, err)
	require.Equal(t, src.Bounds().Size(), decoded.Bounds().Size())
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			want := src.NRGBAAt(x, y)
			got := color.NRGBAModel.Convert(decoded.At(x, y)).(color.NRGBA)
			require.Equal(t, want, got, "pixel %d,%d", x, y)
		}
	}
}

func TestCompressStorageReducesGrayAndPalette(t *testing.T) {
	gray := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for i := 0; i < len(gray.Pix); i += 4 {
		v := uint8(i / 64)
		gray.Pix[i], gray.Pix[i+1], gray.Pix[i+2], gray.Pix[i+3] = v, v, v, 0xff
	}
	assert.IsType(t, &image.Gray{}, reduceLossless(gray))

	few := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			few.SetNRGBA(x, y, color.NRGBA{R: uint8(x % 3 * 80), G: 10, B: 200, A: 0xff})
		}
	}
	assert.IsType(t, &image.Paletted{}, reduceLossless(few))

	assert.IsType(t, &image.NRGBA{}, reduceLossless(gradient(64, 64)))
}

func TestCompressExportKeepsDimensions(t *testing.T) {
	data := pngBytes(t, gradient(33, 21))
	out, err := Compress(data, ProfileExport)
	require.NoError(t, err)

	cfg, err := DecodeConfig(out)
	require.NoError(t, err)
	assert.Equal(t, 33, cfg.Width)
	assert.Equal(t, 21, cfg.Height)
}

func TestCompressCorrupt(t *testing.T) {
	_, err := Compress([]byte("nope"), ProfileStorage)
	require.ErrorIs(t, err, ErrDecode)
}

func TestPlaceholderDecodes(t *testing.T) {
	data := Placeholder()
	assert.True(t, IsPlaceholder(data))
	cfg, err := DecodeConfig(data)
	require.NoError(t, err)
	assert.Equal(t, placeholderWidth, cfg.Width)
	assert.False(t, IsPlaceholder(pngBytes(t, gradient(2, 2))))
}

type fakeRasterizer struct {
	pages int
	got   Resolution
}

func (f *fakeRasterizer) Rasterize(_ context.Context, _ []byte, target Resolution) ([][]byte, error) {
	f.got = target
	out := make([][]byte, 0, f.pages)
	for i := 0; i < f.pages; i++ {
		var buf bytes.Buffer
		if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, target.Width, target.Height))); err != nil {
			return nil, err
		}
		out = append(out, buf.Bytes())
	}
	return out, nil
}

func TestAdapterRasterizeUsesConfiguredResolution(t *testing.T) {
	fake := &fakeRasterizer{pages: 2}
	adapter := NewAdapter(fake, Resolution{Width: 12, Height: 17})

	pages, err := adapter.Rasterize(context.Background(), []byte("%PDF-1.4\n%%EOF\n"))
	require.NoError(t, err)
	assert.Len(t, pages, 2)
	assert.Equal(t, Resolution{Width: 12, Height: 17}, fake.got)

	_, err = adapter.Rasterize(context.Background(), pngBytes(t, gradient(2, 2)))
	require.ErrorIs(t, err, ErrDecode)
}

func TestAdapterDefaults(t *testing.T) {
	adapter := NewAdapter(nil, Resolution{})
	assert.Equal(t, DefaultResolution, adapter.Resolution())
}

func TestAdapterPrepare(t *testing.T) {
	data := encodeWith(t, gradient(12, 12), func(b *bytes.Buffer, i image.Image) error { return bmp.Encode(b, i) })
	out, err := NewAdapter(&fakeRasterizer{}, Resolution{}).Prepare(data)
	require.NoError(t, err)
	assert.Equal(t, FormatPNG, DetectFormat(out))
}
