package source

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"

	// Formats beyond the stdlib set.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// decodeRaster applies the EXIF orientation so phone photos are upright.
func decodeRaster(data []byte) (image.Image, error) {
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}
