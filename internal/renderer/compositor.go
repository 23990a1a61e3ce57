package renderer

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/ivlev/photo2video/internal/config"
)

// Composer renders the canvas for any instant of the clip. The source is
// scaled once; every frame is a translated copy of that raster.
type Composer struct {
	motion     Motion
	scaled     *image.RGBA
	background color.RGBA
	opaque     bool
}

// MaxScaledPixels bounds the pre-scaled source a Composer holds in memory.
const MaxScaledPixels = 120_000_000

// checkScaledSize fails before allocation when the scaled source would be too
// large. If the image is too large even without zoom its aspect ratio is at
// fault, otherwise the zoom is.
func checkScaledSize(iw, ih int, m Motion) error {
	if int64(m.ScaledWidth)*int64(m.ScaledHeight) <= MaxScaledPixels {
		return nil
	}
	fw := max(m.CanvasWidth, int(math.Round(float64(iw)*m.ScaleFit)))
	fh := max(m.CanvasHeight, int(math.Round(float64(ih)*m.ScaleFit)))
	if int64(fw)*int64(fh) > MaxScaledPixels {
		return fmt.Errorf("%w: %dx%d cannot cover %dx%d within %d pixels",
			ErrInvalidImage, iw, ih, m.CanvasWidth, m.CanvasHeight, MaxScaledPixels)
	}
	return fmt.Errorf("%w: zoom_scale %.2f scales the source to %dx%d, over %d pixels",
		config.ErrInvalidSpec, m.BaseScale/m.ScaleFit, m.ScaledWidth, m.ScaledHeight, MaxScaledPixels)
}

// NewComposer prepares img for the canvas described by spec.
func NewComposer(img image.Image, spec config.OutputSpec) (*Composer, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: no image", ErrInvalidImage)
	}

	b := img.Bounds()
	m, err := NewMotion(b.Dx(), b.Dy(), spec)
	if err != nil {
		return nil, err
	}

	if err := checkScaledSize(b.Dx(), b.Dy(), m); err != nil {
		return nil, err
	}

	bg, err := spec.BackgroundColor()
	if err != nil {
		return nil, err
	}

	scaled := image.NewRGBA(image.Rect(0, 0, m.ScaledWidth, m.ScaledHeight))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, draw.Src, nil)

	return &Composer{
		motion:     m,
		scaled:     scaled,
		background: bg,
		opaque:     scaled.Opaque(),
	}, nil
}

// Motion returns the camera move of the clip.
func (c *Composer) Motion() Motion {
	return c.motion
}

// Bounds is the canvas rectangle.
func (c *Composer) Bounds() image.Rectangle {
	return image.Rect(0, 0, c.motion.CanvasWidth, c.motion.CanvasHeight)
}

// State returns the motion state at t.
func (c *Composer) State(t float64) MotionState {
	return c.motion.State(t)
}

// RenderFrame draws the frame at t into dst, which must be canvas-sized.
func (c *Composer) RenderFrame(dst *image.RGBA, t float64) {
	st := c.motion.State(t)
	r := dst.Bounds()

	// Offsets stay inside [canvas-scaled, 0] after rounding because the
	// envelope is a whole number of pixels.
	ox := int(math.Round(st.OffsetX))
	oy := int(math.Round(st.OffsetY))
	sp := image.Pt(-ox, -oy)

	if c.opaque {
		draw.Draw(dst, r, c.scaled, sp, draw.Src)
	} else {
		draw.Draw(dst, r, image.NewUniform(c.background), image.Point{}, draw.Src)
		draw.Draw(dst, r, c.scaled, sp, draw.Over)
	}

	applyOpacity(dst, st.Opacity)
}

// Frame allocates a new canvas holding the frame at t.
func (c *Composer) Frame(t float64) *image.RGBA {
	dst := image.NewRGBA(c.Bounds())
	c.RenderFrame(dst, t)
	return dst
}

// Close drops the scaled raster.
func (c *Composer) Close() error {
	c.scaled = nil
	return nil
}

// applyOpacity attenuates RGB towards black; alpha is left untouched.
func applyOpacity(img *image.RGBA, opacity float64) {
	if opacity >= 1 {
		return
	}
	k := uint32(math.Round(clamp01(opacity) * 256))

	r := img.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		off := img.PixOffset(r.Min.X, y)
		row := img.Pix[off : off+r.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			row[i] = uint8(uint32(row[i]) * k >> 8)
			row[i+1] = uint8(uint32(row[i+1]) * k >> 8)
			row[i+2] = uint8(uint32(row[i+2]) * k >> 8)
		}
	}
}
