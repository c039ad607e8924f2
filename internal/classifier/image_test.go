package classifier

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipkeep/clipkeepd/internal/domain"
)

func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 0, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessImageDecodesAndReencodesAsPNG(t *testing.T) {
	c := New()
	data := encodeTestPNG(t, 4, 3)

	p, err := c.ProcessImage(data, "public.png")
	require.NoError(t, err)
	assert.Equal(t, domain.DataTypeImage, p.DataType)
	require.NotNil(t, p.PreviewText)
	assert.Equal(t, "4x3 image", *p.PreviewText)
	assert.False(t, p.IsSensitive)

	decoded, err := png.Decode(bytes.NewReader(p.Blob))
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Bounds().Dx())
	assert.Equal(t, 3, decoded.Bounds().Dy())
}

func TestProcessImageInvalidDataFails(t *testing.T) {
	c := New()
	_, err := c.ProcessImage([]byte("not an image"), "public.png")
	assert.ErrorIs(t, err, domain.ErrImageDecode)
}

func TestProcessImageMetadataRecordsDimensionsAndFormat(t *testing.T) {
	c := New()
	data := encodeTestPNG(t, 10, 20)

	p, err := c.ProcessImage(data, "public.tiff")
	require.NoError(t, err)
	require.NotNil(t, p.Metadata)
	assert.Contains(t, *p.Metadata, `"width":10`)
	assert.Contains(t, *p.Metadata, `"height":20`)
	assert.Contains(t, *p.Metadata, `"format":"TIFF"`)
}
