package server

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/photo2video/internal/config"
	"github.com/ivlev/photo2video/internal/engine"
	"github.com/ivlev/photo2video/internal/video"
)

// Renderer turns the image at in into a video at out.
type Renderer interface {
	Render(ctx context.Context, in, out string, duration float64, progress func(done, total int)) (frames int, err error)
}

// EngineRenderer renders with engine.VideoProject using Spec for everything
// but the duration.
type EngineRenderer struct {
	Spec    config.OutputSpec
	Encoder video.Encoder
	Logger  logrus.FieldLogger
}

func (r *EngineRenderer) Render(ctx context.Context, in, out string, duration float64, progress func(done, total int)) (int, error) {
	spec := r.Spec
	spec.Duration = duration

	p := engine.NewVideoProject(spec, in, out, r.Encoder, r.Logger)
	p.Progress = progress

	res, err := p.Run(ctx)
	if err != nil {
		return 0, err
	}
	return res.Frames, nil
}
