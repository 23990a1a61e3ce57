package renderer

import (
	"errors"
	"fmt"
	"math"

	"github.com/ivlev/photo2video/internal/config"
)

// ErrInvalidImage is returned for sources without pixels.
var ErrInvalidImage = errors.New("invalid image")

// MotionState is the visual state of the frame at one instant.
// OffsetX/OffsetY are the position of the scaled image's top-left corner
// relative to the canvas; they are never positive.
type MotionState struct {
	Time         float64
	Scale        float64
	ScaledWidth  int
	ScaledHeight int
	OffsetX      float64
	OffsetY      float64
	Opacity      float64
}

// Covers reports whether the scaled image at the state's offset covers a
// canvas of w x h.
func (s MotionState) Covers(w, h int) bool {
	if s.ScaledWidth < w || s.ScaledHeight < h {
		return false
	}
	minX := float64(w - s.ScaledWidth)
	minY := float64(h - s.ScaledHeight)
	return s.OffsetX <= 0 && s.OffsetX >= minX && s.OffsetY <= 0 && s.OffsetY >= minY
}

// PanPath places the image inside the pan envelope: the clip starts Start of
// the way into the envelope and travels Travel of it.
type PanPath struct {
	Start  float64
	Travel float64
}

// KenBurnsPath leaves a 20% margin at both ends of the envelope.
var KenBurnsPath = PanPath{Start: 0.2, Travel: 0.6}

// Offset returns the corner position for an envelope of maxD pixels at eased
// progress e.
func (p PanPath) Offset(maxD int, e float64) float64 {
	d := float64(maxD)
	return -(p.Start * d) - (p.Travel*d)*e
}

// Motion is the closed-form camera move of one clip. State is a pure function
// of time.
type Motion struct {
	CanvasWidth  int
	CanvasHeight int
	Duration     float64

	ScaleFit     float64
	BaseScale    float64
	ScaledWidth  int
	ScaledHeight int
	MaxDX        int
	MaxDY        int

	Path PanPath
	Fade Fade
}

// NewMotion computes the move of an iw x ih image over the canvas of spec.
func NewMotion(iw, ih int, spec config.OutputSpec) (Motion, error) {
	if iw <= 0 || ih <= 0 {
		return Motion{}, fmt.Errorf("%w: %dx%d", ErrInvalidImage, iw, ih)
	}
	if err := spec.Validate(); err != nil {
		return Motion{}, err
	}

	w, h := spec.Width, spec.Height
	scaleFit := math.Max(float64(w)/float64(iw), float64(h)/float64(ih))
	base := scaleFit * spec.ZoomScale

	// Rounding may land one pixel short of the canvas in the limiting dimension.
	sw := max(w, int(math.Round(float64(iw)*base)))
	sh := max(h, int(math.Round(float64(ih)*base)))

	return Motion{
		CanvasWidth:  w,
		CanvasHeight: h,
		Duration:     spec.Duration,
		ScaleFit:     scaleFit,
		BaseScale:    base,
		ScaledWidth:  sw,
		ScaledHeight: sh,
		MaxDX:        max(0, sw-w),
		MaxDY:        max(0, sh-h),
		Path:         KenBurnsPath,
		Fade:         NewFade(spec.FadeDuration, spec.Duration),
	}, nil
}

// State returns the frame state at t seconds.
func (m Motion) State(t float64) MotionState {
	e := Ease(Progress(t, m.Duration))
	return MotionState{
		Time:         t,
		Scale:        m.BaseScale,
		ScaledWidth:  m.ScaledWidth,
		ScaledHeight: m.ScaledHeight,
		OffsetX:      m.Path.Offset(m.MaxDX, e),
		OffsetY:      m.Path.Offset(m.MaxDY, e),
		Opacity:      m.Fade.Opacity(t),
	}
}

// Progress maps t to [0,1] over duration.
func Progress(t, duration float64) float64 {
	if duration <= 0 {
		return 1
	}
	return clamp01(t / duration)
}

// Ease is a cosine S-curve: zero velocity at both ends, fastest at p=0.5.
func Ease(p float64) float64 {
	return 0.5 * (1 - math.Cos(math.Pi*clamp01(p)))
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
