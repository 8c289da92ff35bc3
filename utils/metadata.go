package utils

import (
	"bytes"

	"github.com/rwcarlsen/goexif/exif"
)

// TakenAtFromEXIF extracts the original capture time from the image's EXIF
// block as a Unix timestamp. Returns nil when the image carries no usable
// EXIF data; a photo without a capture time is perfectly fine.
func TakenAtFromEXIF(data []byte) *int64 {
	exifData, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	taken, err := exifData.DateTime()
	if err != nil {
		return nil
	}
	ts := taken.Unix()
	return &ts
}
