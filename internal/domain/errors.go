package domain

import "errors"

// ErrImageDecode indicates the classifier could not decode raster
// clipboard bytes as any supported image format.
var ErrImageDecode = errors.New("failed to decode image payload")
