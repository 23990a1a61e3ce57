// Package plan records the motion of a clip frame by frame so a render can be
// inspected or compared without encoding it.
package plan

import (
	"github.com/ivlev/photo2video/internal/config"
	"github.com/ivlev/photo2video/internal/renderer"
	"github.com/ivlev/photo2video/internal/video"
)

// Version of the plan file layout.
const Version = "1.0"

// Plan is the full camera move of one clip.
type Plan struct {
	Version string            `yaml:"version"`
	Source  Source            `yaml:"source"`
	Spec    config.OutputSpec `yaml:"spec"`
	Motion  Envelope          `yaml:"motion"`
	Samples []Sample          `yaml:"samples"`
}

// Source identifies the still the plan was computed for.
type Source struct {
	Input  string `yaml:"input,omitempty"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// Envelope holds the per-clip constants of the move.
type Envelope struct {
	ScaleFit     float64 `yaml:"scale_fit"`
	BaseScale    float64 `yaml:"base_scale"`
	ScaledWidth  int     `yaml:"scaled_width"`
	ScaledHeight int     `yaml:"scaled_height"`
	MaxDX        int     `yaml:"max_dx"`
	MaxDY        int     `yaml:"max_dy"`
	FadeIn       float64 `yaml:"fade_in"`
	FadeOut      float64 `yaml:"fade_out"`
}

// Sample is the state of a single frame.
type Sample struct {
	Frame   int     `yaml:"frame"`
	Time    float64 `yaml:"time"`
	OffsetX float64 `yaml:"x"`
	OffsetY float64 `yaml:"y"`
	Opacity float64 `yaml:"opacity"`
}

// Build samples m at every frame time of spec.
func Build(src Source, m renderer.Motion, spec config.OutputSpec) *Plan {
	total := video.FrameCount(spec.Duration, spec.FrameRate)
	samples := make([]Sample, 0, total)
	for i := 0; i < total; i++ {
		st := m.State(video.SampleTime(i, spec.FrameRate, spec.Duration))
		samples = append(samples, Sample{
			Frame:   i,
			Time:    st.Time,
			OffsetX: st.OffsetX,
			OffsetY: st.OffsetY,
			Opacity: st.Opacity,
		})
	}

	return &Plan{
		Version: Version,
		Source:  src,
		Spec:    spec,
		Motion: Envelope{
			ScaleFit:     m.ScaleFit,
			BaseScale:    m.BaseScale,
			ScaledWidth:  m.ScaledWidth,
			ScaledHeight: m.ScaledHeight,
			MaxDX:        m.MaxDX,
			MaxDY:        m.MaxDY,
			FadeIn:       m.Fade.In,
			FadeOut:      m.Fade.Out,
		},
		Samples: samples,
	}
}

// Frames returns the number of sampled frames.
func (p *Plan) Frames() int {
	return len(p.Samples)
}
