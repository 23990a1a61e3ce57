package config

import (
	"context"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	spec := Default()
	require.NoError(t, spec.Validate())
	assert.Equal(t, "1920x1080", spec.Resolution())
	assert.Equal(t, 15, spec.FrameRate)
	assert.InDelta(t, 0.6, spec.FadeDuration, 1e-9)
}

func TestValidateRejectsBadSpecs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*OutputSpec)
	}{
		{"zero duration", func(s *OutputSpec) { s.Duration = 0 }},
		{"negative duration", func(s *OutputSpec) { s.Duration = -1 }},
		{"nan duration", func(s *OutputSpec) { s.Duration = math.NaN() }},
		{"infinite duration", func(s *OutputSpec) { s.Duration = math.Inf(1) }},
		{"zero frame rate", func(s *OutputSpec) { s.FrameRate = 0 }},
		{"zero width", func(s *OutputSpec) { s.Width = 0 }},
		{"negative height", func(s *OutputSpec) { s.Height = -720 }},
		{"zoom below one", func(s *OutputSpec) { s.ZoomScale = 0.9 }},
		{"zoom too large", func(s *OutputSpec) { s.ZoomScale = 1000 }},
		{"nan zoom", func(s *OutputSpec) { s.ZoomScale = math.NaN() }},
		{"width too large", func(s *OutputSpec) { s.Width = 100000 }},
		{"duration too long", func(s *OutputSpec) { s.Duration = 1e12 }},
		{"frame rate too high", func(s *OutputSpec) { s.FrameRate = 10000 }},
		{"dpi too high", func(s *OutputSpec) { s.DPI = 100000 }},
		{"negative fade", func(s *OutputSpec) { s.FadeDuration = -0.1 }},
		{"missing codec", func(s *OutputSpec) { s.Codec = "" }},
		{"bad background", func(s *OutputSpec) { s.Background = "black" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := Default()
			tt.mutate(&spec)
			err := spec.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSpec)
		})
	}
}

func TestZoomScaleOneIsValid(t *testing.T) {
	spec := Default()
	spec.ZoomScale = 1.0
	spec.FadeDuration = 0
	assert.NoError(t, spec.Validate())
}

func TestParseHexColor(t *testing.T) {
	c, err := ParseHexColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x80, B: 0x00, A: 0xff}, c)

	c, err = ParseHexColor("#fff")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, c)

	c, err = ParseHexColor("")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{A: 0xff}, c)

	_, err = ParseHexColor("#12")
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestLoadPresetOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "square.yaml")
	require.NoError(t, os.WriteFile(path, []byte("width: 1080\nheight: 1080\nduration: 10\n"), 0644))

	spec, err := LoadPreset(path)
	require.NoError(t, err)
	assert.Equal(t, 1080, spec.Width)
	assert.Equal(t, 1080, spec.Height)
	assert.InDelta(t, 10.0, spec.Duration, 1e-9)
	assert.Equal(t, DefaultCodec, spec.Codec)
	assert.InDelta(t, DefaultZoomScale, spec.ZoomScale, 1e-9)
}

func TestWritePresetThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preset.yaml")
	spec := Default()
	spec.Background = "#ffffff"
	spec.FrameRate = 30

	require.NoError(t, WritePreset(spec, path))
	loaded, err := LoadPreset(path)
	require.NoError(t, err)
	assert.Equal(t, spec, loaded)
}

func TestLoadPresetErrors(t *testing.T) {
	_, err := LoadPreset(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("width: [1, 2\n"), 0644))
	_, err = LoadPreset(path)
	assert.ErrorIs(t, err, ErrInvalidSpec)
}

func TestLoadServerDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "UPLOAD_DIR", "OUTPUT_DIR", "WORKERS", "MAX_UPLOAD_MB", "DEFAULT_DURATION", "MAX_DURATION", "S3_BUCKET", "S3_REGION", "LOG_FORMAT", "LOG_LEVEL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	cfg, err := LoadServer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, "outputs", cfg.OutputDir)
	assert.Equal(t, int64(20<<20), cfg.MaxUploadBytes())
	assert.InDelta(t, 12.0, cfg.DefaultDuration, 1e-9)
	assert.InDelta(t, 300.0, cfg.MaxDuration, 1e-9)
	assert.False(t, cfg.S3Enabled())
}

func TestLoadServerFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("WORKERS", "3")
	t.Setenv("S3_BUCKET", "clips")
	t.Setenv("S3_REGION", "eu-west-1")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "very-secret")

	cfg, err := LoadServer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.S3Enabled())
	assert.NotContains(t, cfg.String(), "very-secret")
}

func TestNewLogger(t *testing.T) {
	l := NewLogger("debug", "json")
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	_, isJSON := l.Formatter.(*logrus.JSONFormatter)
	assert.True(t, isJSON)

	l = NewLogger("nonsense", "text")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
}
