package source

import (
	"fmt"
	"image"
	"math"

	"github.com/gen2brain/go-fitz"
)

// renderPDF rasterizes the first page of a PDF document. The page size at dpi
// is checked against maxPixels before rendering.
func renderPDF(data []byte, dpi int, maxPixels int64) (image.Image, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("document has no pages")
	}

	// Bound is in points (1/72 inch).
	bound, err := doc.Bound(0)
	if err != nil {
		return nil, err
	}
	scale := float64(dpi) / 72
	w := int(math.Ceil(float64(bound.Dx()) * scale))
	h := int(math.Ceil(float64(bound.Dy()) * scale))
	if err := checkSize(w, h, maxPixels); err != nil {
		return nil, err
	}
	return doc.ImageDPI(0, float64(dpi))
}
