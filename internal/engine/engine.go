// Package engine runs one still image through the composer and the encoder
// driver.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/photo2video/internal/config"
	"github.com/ivlev/photo2video/internal/plan"
	"github.com/ivlev/photo2video/internal/renderer"
	"github.com/ivlev/photo2video/internal/source"
	"github.com/ivlev/photo2video/internal/system"
	"github.com/ivlev/photo2video/internal/video"
)

// VideoProject is one image-to-video job.
type VideoProject struct {
	Spec config.OutputSpec

	// InputPath is read when Input is nil.
	InputPath string
	Input     io.Reader

	OutputPath string
	Encoder    video.Encoder
	Logger     logrus.FieldLogger
	Progress   func(done, total int)
}

// Result describes a finished run.
type Result struct {
	OutputPath   string
	Frames       int
	Bytes        int64
	SourceWidth  int
	SourceHeight int

	DecodeTime time.Duration
	EncodeTime time.Duration
	TotalTime  time.Duration
	// FPS is frames produced per wall-clock second of rendering and encoding.
	FPS float64
	// RSS is the resident set size sampled right after encoding.
	RSS uint64
}

// NewVideoProject returns a job converting the image at inputPath into a clip
// at outputPath. A nil logger uses the standard logrus logger.
func NewVideoProject(spec config.OutputSpec, inputPath, outputPath string, enc video.Encoder, logger logrus.FieldLogger) *VideoProject {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &VideoProject{
		Spec:       spec,
		InputPath:  inputPath,
		OutputPath: outputPath,
		Encoder:    enc,
		Logger:     logger,
	}
}

// Run renders the clip. The spec is validated before the image is decoded,
// so an invalid spec never touches the input. Every returned error is an
// *Error.
func (p *VideoProject) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	res := Result{OutputPath: p.OutputPath}

	if err := p.Spec.Validate(); err != nil {
		return res, classify(err)
	}
	if p.OutputPath == "" {
		return res, &Error{Kind: KindInvalidSpec, Err: fmt.Errorf("%w: output path is empty", config.ErrInvalidSpec)}
	}
	if p.Encoder == nil {
		return res, &Error{Kind: KindEncodingFailure, Err: fmt.Errorf("%w: no encoder configured", video.ErrEncodingFailure)}
	}

	log := p.logger().WithField("output", filepath.Base(p.OutputPath))

	img, err := p.open()
	if err != nil {
		return res, classify(err)
	}
	defer img.Close()

	res.SourceWidth, res.SourceHeight = img.Width, img.Height
	res.DecodeTime = time.Since(start)
	log.WithFields(logrus.Fields{
		"format": img.Format,
		"source": fmt.Sprintf("%dx%d", img.Width, img.Height),
		"decode": res.DecodeTime.Round(time.Millisecond),
	}).Info("source decoded")

	composer, err := renderer.NewComposer(img.Raster(), p.Spec)
	if err != nil {
		return res, classify(err)
	}
	defer composer.Close()

	driver := video.NewDriver(p.Encoder, log)
	driver.Progress = p.Progress

	stats, err := driver.Render(ctx, composer, p.Spec, p.OutputPath)
	if err != nil {
		return res, classify(err)
	}

	res.Frames = stats.Frames
	res.Bytes = stats.Bytes
	res.EncodeTime = stats.Elapsed
	res.TotalTime = time.Since(start)
	if secs := stats.Elapsed.Seconds(); secs > 0 {
		res.FPS = float64(stats.Frames) / secs
	}
	if rss, err := system.ProcessRSS(); err == nil {
		res.RSS = rss
	}

	log.WithFields(logrus.Fields{
		"frames":  res.Frames,
		"elapsed": res.TotalTime.Round(time.Millisecond),
	}).Info("video written")
	return res, nil
}

// Plan computes the motion of the clip without encoding it.
func (p *VideoProject) Plan() (*plan.Plan, error) {
	if err := p.Spec.Validate(); err != nil {
		return nil, classify(err)
	}

	img, err := p.open()
	if err != nil {
		return nil, classify(err)
	}
	defer img.Close()

	m, err := renderer.NewMotion(img.Width, img.Height, p.Spec)
	if err != nil {
		return nil, classify(err)
	}

	src := plan.Source{Input: p.InputPath, Width: img.Width, Height: img.Height}
	return plan.Build(src, m, p.Spec), nil
}

func (p *VideoProject) open() (*source.Image, error) {
	opts := source.Options{DPI: p.Spec.DPI}
	if p.Input != nil {
		return source.Decode(p.Input, opts)
	}
	if p.InputPath == "" {
		return nil, fmt.Errorf("%w: no input", source.ErrInvalidImage)
	}
	return source.Open(p.InputPath, opts)
}

func (p *VideoProject) logger() logrus.FieldLogger {
	if p.Logger == nil {
		return logrus.StandardLogger()
	}
	return p.Logger
}

// IsCancelled reports whether err came from a cancelled context.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
