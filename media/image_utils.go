package media

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// DecodeDimensions reads the pixel dimensions of an encoded image without
// fully decoding it. Importing imaging registers the decoders for all the
// raster formats accepted at upload.
func DecodeDimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode image dimensions: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// ResizeToWidth decodes the image and scales it down to the given width,
// preserving aspect ratio, re-encoded as JPEG. Images already narrower than
// the target are re-encoded unscaled.
func ResizeToWidth(data []byte, width int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	if width > 0 && img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	var out bytes.Buffer
	if err := imaging.Encode(&out, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return out.Bytes(), nil
}
