// Package source loads the still image a clip is made from.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrInvalidImage is returned for content that is not a decodable raster,
// or decodes to an image without pixels.
var ErrInvalidImage = errors.New("invalid image")

// DefaultDPI is used to rasterize PDF pages when no density is given.
const DefaultDPI = 150

// DefaultMaxPixels bounds the decoded size of a source (100 MP).
const DefaultMaxPixels = 100_000_000

// Image is a decoded source raster. It is read-only once loaded.
type Image struct {
	img    image.Image
	Width  int
	Height int
	// Format is the sniffed MIME type of the original content.
	Format string
}

// Raster returns the decoded pixels.
func (i *Image) Raster() image.Image {
	return i.img
}

// Close drops the decoded pixels.
func (i *Image) Close() error {
	i.img = nil
	return nil
}

// Options controls decoding.
type Options struct {
	// DPI is the density used when the content is a PDF document.
	DPI int
	// MaxPixels rejects sources whose declared size is larger, before any
	// pixels are allocated. Zero means DefaultMaxPixels.
	MaxPixels int64
}

func (o Options) dpi() int {
	if o.DPI <= 0 {
		return DefaultDPI
	}
	return o.DPI
}

func (o Options) maxPixels() int64 {
	if o.MaxPixels <= 0 {
		return DefaultMaxPixels
	}
	return o.MaxPixels
}

func checkSize(w, h int, limit int64) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: zero-sized image %dx%d", ErrInvalidImage, w, h)
	}
	if int64(w)*int64(h) > limit {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrInvalidImage, w, h, limit)
	}
	return nil
}

// Open loads the file at path.
func Open(path string, opts Options) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		return nil, fmt.Errorf("read source: %w", err)
	}
	return decodeBytes(data, opts)
}

// Decode loads an image from a byte stream.
func Decode(r io.Reader, opts Options) (*Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return decodeBytes(data, opts)
}

// FromImage wraps an already decoded raster.
func FromImage(img image.Image) (*Image, error) {
	return wrap(img, "image/x-raw")
}

// Sniff returns the MIME type of data and whether it can be used as a source.
func Sniff(data []byte) (string, bool) {
	mt := mimetype.Detect(data)
	return mt.String(), isSupported(mt)
}

func isSupported(mt *mimetype.MIME) bool {
	return mt.Is("application/pdf") || strings.HasPrefix(mt.String(), "image/")
}

func decodeBytes(data []byte, opts Options) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidImage)
	}

	mt := mimetype.Detect(data)
	switch {
	case mt.Is("application/pdf"):
		img, err := renderPDF(data, opts.dpi(), opts.maxPixels())
		if err != nil {
			if errors.Is(err, ErrInvalidImage) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		return wrap(img, mt.String())
	case strings.HasPrefix(mt.String(), "image/"):
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: decode %s header: %v", ErrInvalidImage, mt.String(), err)
		}
		if err := checkSize(cfg.Width, cfg.Height, opts.maxPixels()); err != nil {
			return nil, err
		}
		img, err := decodeRaster(data)
		if err != nil {
			return nil, fmt.Errorf("%w: decode %s: %v", ErrInvalidImage, mt.String(), err)
		}
		return wrap(img, mt.String())
	default:
		return nil, fmt.Errorf("%w: unsupported content type %s", ErrInvalidImage, mt.String())
	}
}

func wrap(img image.Image, format string) (*Image, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: no image", ErrInvalidImage)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: zero-sized image %dx%d", ErrInvalidImage, b.Dx(), b.Dy())
	}
	return &Image{img: img, Width: b.Dx(), Height: b.Dy(), Format: format}, nil
}
