package renderer

import "math"

// Fade is a linear fade from black at the start and to black at the end.
type Fade struct {
	In       float64
	Out      float64
	Duration float64
}

// NewFade clamps each window to half the clip so the two never overlap.
func NewFade(fadeDuration, duration float64) Fade {
	w := math.Min(math.Max(fadeDuration, 0), duration/2)
	return Fade{In: w, Out: w, Duration: duration}
}

// Opacity returns the luminance factor at t, in [0,1].
func (f Fade) Opacity(t float64) float64 {
	o := 1.0
	if f.In > 0 && t < f.In {
		o = math.Min(o, t/f.In)
	}
	if f.Out > 0 && t > f.Duration-f.Out {
		o = math.Min(o, (f.Duration-t)/f.Out)
	}
	return clamp01(o)
}
