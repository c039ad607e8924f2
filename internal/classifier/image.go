package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/clipkeep/clipkeepd/internal/domain"
)

// ProcessImage decodes a raw image payload (TIFF, PNG, JPEG, GIF, or
// BMP, detected by content rather than trusted solely from utiType),
// re-encodes it as PNG, and reports its dimensions. Image payloads are
// never marked sensitive.
func (c *Classifier) ProcessImage(data []byte, utiType string) (domain.Processed, error) {
	sourceFormat := detectImageFormat(utiType)

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return domain.Processed{}, fmt.Errorf("%w: %v", domain.ErrImageDecode, err)
	}

	pngBytes, err := encodePNG(img)
	if err != nil {
		return domain.Processed{}, fmt.Errorf("%w: %v", domain.ErrImageDecode, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	preview := fmt.Sprintf("%dx%d image", width, height)
	metadata := createImageMetadata(width, height, sourceFormat)

	return domain.Processed{
		DataType:    domain.DataTypeImage,
		Blob:        pngBytes,
		PreviewText: &preview,
		IsSensitive: false,
		Metadata:    &metadata,
	}, nil
}

// detectImageFormat names the source format from its UTI tag token,
// purely for the metadata document — decoding itself is format-sniffed,
// not driven by this value.
func detectImageFormat(uti string) string {
	lower := strings.ToLower(uti)
	switch {
	case strings.Contains(lower, "tiff"):
		return "TIFF"
	case strings.Contains(lower, "jpeg"), strings.Contains(lower, "jpg"):
		return "JPEG"
	case strings.Contains(lower, "png"):
		return "PNG"
	case strings.Contains(lower, "gif"):
		return "GIF"
	case strings.Contains(lower, "bmp"):
		return "BMP"
	default:
		return "Unknown"
	}
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type imageMetadata struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

func createImageMetadata(width, height int, format string) string {
	data, err := json.Marshal(imageMetadata{Width: width, Height: height, Format: format})
	if err != nil {
		return fmt.Sprintf(`{"width":%d,"height":%d,"format":"%s"}`, width, height, format)
	}
	return string(data)
}
