package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/photo2video/internal/config"
)

// FrameSource renders the canvas for an instant of the clip.
type FrameSource interface {
	Bounds() image.Rectangle
	RenderFrame(dst *image.RGBA, t float64)
}

// Stats describes a finished encode.
type Stats struct {
	Path    string
	Frames  int
	Bytes   int64
	Elapsed time.Duration
}

// Driver samples a FrameSource at the spec frame rate and hands each frame to
// an encoder writer. It owns no motion logic.
type Driver struct {
	Encoder Encoder
	Logger  logrus.FieldLogger
	// Progress, when set, is called after every written frame.
	Progress func(done, total int)
}

// NewDriver returns a Driver writing through enc.
func NewDriver(enc Encoder, logger logrus.FieldLogger) *Driver {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Driver{Encoder: enc, Logger: logger}
}

// FrameCount is the number of frames of a clip: one per 1/fps tick starting at 0.
func FrameCount(duration float64, fps int) int {
	n := int(math.Round(duration * float64(fps)))
	if n < 1 {
		n = 1
	}
	return n
}

// SampleTime is the instant of frame i. It never exceeds duration.
func SampleTime(i, fps int, duration float64) float64 {
	t := float64(i) / float64(fps)
	if t > duration {
		return duration
	}
	return t
}

// Render writes the clip to outPath. Frames are produced one at a time into a
// single reused canvas. On any failure the partial output is removed and the
// error wraps ErrEncodingFailure.
func (d *Driver) Render(ctx context.Context, src FrameSource, spec config.OutputSpec, outPath string) (Stats, error) {
	start := time.Now()
	stats := Stats{Path: outPath}

	if err := ctx.Err(); err != nil {
		return stats, fmt.Errorf("%w: %w", ErrEncodingFailure, err)
	}

	bounds := src.Bounds()
	if bounds.Dx() != spec.Width || bounds.Dy() != spec.Height {
		return stats, fmt.Errorf("%w: frame source is %dx%d, spec is %s", ErrEncodingFailure, bounds.Dx(), bounds.Dy(), spec.Resolution())
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return stats, fmt.Errorf("%w: create output directory: %v", ErrEncodingFailure, err)
	}

	w, err := d.Encoder.Open(ctx, outPath, ParamsFromSpec(spec))
	if err != nil {
		removePartial(outPath)
		return stats, fmt.Errorf("%w: open encoder: %v", ErrEncodingFailure, err)
	}

	canvas := getCanvas(bounds)
	defer putCanvas(canvas)

	total := FrameCount(spec.Duration, spec.FrameRate)
	log := d.Logger.WithFields(logrus.Fields{
		"output": outPath,
		"frames": total,
		"fps":    spec.FrameRate,
	})
	log.Debug("encoding started")

	fail := func(cause error) (Stats, error) {
		if aerr := w.Abort(); aerr != nil {
			log.WithError(aerr).Warn("abort encoder")
		}
		removePartial(outPath)
		return stats, fmt.Errorf("%w: %w", ErrEncodingFailure, cause)
	}

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return fail(fmt.Errorf("cancelled at frame %d/%d: %w", i, total, err))
		}

		src.RenderFrame(canvas, SampleTime(i, spec.FrameRate, spec.Duration))
		if err := w.WriteFrame(canvas); err != nil {
			return fail(fmt.Errorf("frame %d/%d: %w", i, total, err))
		}
		stats.Frames++

		if d.Progress != nil {
			d.Progress(i+1, total)
		}
	}

	if err := w.Finalize(); err != nil {
		return fail(fmt.Errorf("finalize: %w", err))
	}

	if info, err := os.Stat(outPath); err == nil {
		stats.Bytes = info.Size()
	}
	stats.Elapsed = time.Since(start)

	log.WithField("elapsed", stats.Elapsed.Round(time.Millisecond)).Debug("encoding finished")
	return stats, nil
}

func removePartial(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.WithError(err).WithField("path", path).Warn("remove partial output")
	}
}
