package renderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/photo2video/internal/config"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -2 && d <= 2
}

func TestComposerFillsCanvas(t *testing.T) {
	red := color.RGBA{R: 200, A: 255}
	spec := specFor(64, 36, 2, 10, 1.2)
	spec.FadeDuration = 0

	c, err := NewComposer(solid(120, 90, red), spec)
	require.NoError(t, err)
	defer c.Close()

	for _, tt := range []float64{0, 0.5, 1, 2} {
		frame := c.Frame(tt)
		require.Equal(t, image.Rect(0, 0, 64, 36), frame.Bounds())
		for y := 0; y < 36; y++ {
			for x := 0; x < 64; x++ {
				p := frame.RGBAAt(x, y)
				if !near(p.R, 200) || p.G != 0 || p.A != 255 {
					t.Fatalf("t=%.1f pixel (%d,%d) = %v, want image coverage", tt, x, y, p)
				}
			}
		}
	}
}

func TestComposerPansDownTheImage(t *testing.T) {
	// 4x8 source on a 4x4 canvas at zoom 1: scale is exactly 1, envelope is 4 rows.
	src := image.NewRGBA(image.Rect(0, 0, 4, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 4; x++ {
			src.SetRGBA(x, y, color.RGBA{R: uint8(y * 30), A: 255})
		}
	}
	spec := specFor(4, 4, 1, 10, 1.0)
	spec.FadeDuration = 0

	c, err := NewComposer(src, spec)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Motion().MaxDY)
	assert.Equal(t, 0, c.Motion().MaxDX)

	// -0.8 rounds to -1: row 1 at the top.
	assert.True(t, near(c.Frame(0).RGBAAt(0, 0).R, 30), "got %v", c.Frame(0).RGBAAt(0, 0))
	// -3.2 rounds to -3: row 3 at the top.
	assert.True(t, near(c.Frame(1).RGBAAt(0, 0).R, 90), "got %v", c.Frame(1).RGBAAt(0, 0))
}

func TestComposerAppliesFade(t *testing.T) {
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	spec := specFor(16, 16, 1, 10, 1.0)
	spec.FadeDuration = 0.6

	c, err := NewComposer(solid(16, 16, white), spec)
	require.NoError(t, err)

	assert.Equal(t, uint8(0), c.Frame(0).RGBAAt(8, 8).R)
	mid := c.Frame(0.25).RGBAAt(8, 8)
	assert.InDelta(t, 128, int(mid.R), 2)
	assert.Equal(t, uint8(255), mid.A)
	assert.True(t, near(c.Frame(0.5).RGBAAt(8, 8).R, 255))
}

func TestComposerBackgroundShowsThroughTransparency(t *testing.T) {
	spec := specFor(8, 8, 1, 10, 1.0)
	spec.FadeDuration = 0
	spec.Background = "#00ff00"

	c, err := NewComposer(image.NewRGBA(image.Rect(0, 0, 8, 8)), spec)
	require.NoError(t, err)

	p := c.Frame(0.5).RGBAAt(4, 4)
	assert.Equal(t, color.RGBA{G: 255, A: 255}, p)
}

func TestComposerRejectsNilAndEmpty(t *testing.T) {
	_, err := NewComposer(nil, specFor(8, 8, 1, 10, 1))
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = NewComposer(image.NewRGBA(image.Rect(0, 0, 0, 0)), specFor(8, 8, 1, 10, 1))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestComposerRejectsOversizedScale(t *testing.T) {
	// A 1px wide strip must be scaled to tens of gigapixels to cover 16:9.
	strip := image.NewGray(image.Rect(0, 0, 1, 20000))
	_, err := NewComposer(strip, specFor(1920, 1080, 2, 10, 1.15))
	require.ErrorIs(t, err, ErrInvalidImage)

	// Fits at zoom one, not at zoom four on an 8K canvas.
	_, err = NewComposer(image.NewGray(image.Rect(0, 0, 400, 225)), specFor(7680, 4320, 2, 10, 4))
	require.ErrorIs(t, err, config.ErrInvalidSpec)
	assert.NotErrorIs(t, err, ErrInvalidImage)
}

func TestRenderFrameIsPure(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 50, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 50; x++ {
			src.SetRGBA(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 8), B: 40, A: 255})
		}
	}
	c, err := NewComposer(src, specFor(20, 20, 3, 10, 1.4))
	require.NoError(t, err)

	dst := image.NewRGBA(c.Bounds())
	c.RenderFrame(dst, 2.0)
	c.RenderFrame(dst, 0.4)
	assert.Equal(t, c.Frame(0.4).Pix, dst.Pix)
}
