// Package video samples a frame source at a fixed rate and streams the frames
// into an encoder.
package video

import (
	"context"
	"errors"
	"image"

	"github.com/ivlev/photo2video/internal/config"
)

// ErrEncodingFailure wraps every error raised while producing the output file.
var ErrEncodingFailure = errors.New("encoding failure")

// Params configures an encoder writer.
type Params struct {
	Width     int
	Height    int
	FrameRate int
	Codec     string
	Bitrate   string
	Preset    string
	Threads   int
}

// ParamsFromSpec extracts the encoder settings of spec.
func ParamsFromSpec(spec config.OutputSpec) Params {
	return Params{
		Width:     spec.Width,
		Height:    spec.Height,
		FrameRate: spec.FrameRate,
		Codec:     spec.Codec,
		Bitrate:   spec.Bitrate,
		Preset:    spec.Preset,
		Threads:   spec.Threads,
	}
}

// Encoder opens writers for output files.
type Encoder interface {
	Open(ctx context.Context, path string, p Params) (Writer, error)
}

// Writer receives frames in presentation order. Finalize flushes and closes
// the container after the last frame; Abort stops the writer and discards
// whatever was written. Calling Abort after Finalize only removes the file.
type Writer interface {
	WriteFrame(frame *image.RGBA) error
	Finalize() error
	Abort() error
}
