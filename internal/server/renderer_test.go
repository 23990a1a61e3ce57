package server

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/photo2video/internal/config"
	"github.com/ivlev/photo2video/internal/engine"
	"github.com/ivlev/photo2video/internal/video"
)

type countingEncoder struct{ frames int }

func (e *countingEncoder) Open(_ context.Context, path string, _ video.Params) (video.Writer, error) {
	return &countingWriter{enc: e, path: path}, nil
}

type countingWriter struct {
	enc  *countingEncoder
	path string
}

func (w *countingWriter) WriteFrame(*image.RGBA) error { w.enc.frames++; return nil }
func (w *countingWriter) Finalize() error            { return os.WriteFile(w.path, []byte("mp4"), 0644) }
func (w *countingWriter) Abort() error               { return os.Remove(w.path) }

func TestEngineRendererOverridesDuration(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	require.NoError(t, os.WriteFile(in, pngData(t), 0644))

	spec := config.Default()
	spec.Width, spec.Height = 32, 24
	logger, _ := test.NewNullLogger()
	enc := &countingEncoder{}
	r := &EngineRenderer{Spec: spec, Encoder: enc, Logger: logger}

	var calls int
	frames, err := r.Render(context.Background(), in, filepath.Join(dir, "out.mp4"), 1, func(done, total int) {
		calls++
		assert.Equal(t, 15, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 15, frames)
	assert.Equal(t, 15, enc.frames)
	assert.Equal(t, 15, calls)

	_, err = r.Render(context.Background(), in, filepath.Join(dir, "bad.mp4"), 0, func(int, int) {})
	assert.Equal(t, engine.KindInvalidSpec, engine.KindOf(err))
}
