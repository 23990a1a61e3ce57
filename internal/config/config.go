// Package config holds the output specification of a conversion job and the
// settings of the hosts (CLI and HTTP server) that run jobs.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidSpec is returned when an OutputSpec cannot describe a video.
var ErrInvalidSpec = errors.New("invalid output spec")

// Defaults of a new OutputSpec.
const (
	DefaultWidth        = 1920
	DefaultHeight       = 1080
	DefaultDuration     = 12.0
	DefaultFrameRate    = 15
	DefaultZoomScale    = 1.15
	DefaultFadeDuration = 0.6
	DefaultCodec        = "libx264"
	DefaultBitrate      = "2500k"
	DefaultPreset       = "ultrafast"
	DefaultThreads      = 4
	DefaultBackground   = "#000000"
	DefaultDPI          = 150
)

// CodecAuto lets the host pick the best H.264 encoder available.
const CodecAuto = "auto"

// OutputSpec describes the video produced from one still image.
type OutputSpec struct {
	Width        int     `yaml:"width" json:"width" validate:"gt=0,lte=8192"`
	Height       int     `yaml:"height" json:"height" validate:"gt=0,lte=8192"`
	Duration     float64 `yaml:"duration" json:"duration" validate:"gt=0,lte=3600"`
	FrameRate    int     `yaml:"frame_rate" json:"frame_rate" validate:"gt=0,lte=120"`
	ZoomScale    float64 `yaml:"zoom_scale" json:"zoom_scale" validate:"gte=1,lte=10"`
	FadeDuration float64 `yaml:"fade_duration" json:"fade_duration" validate:"gte=0"`
	Codec        string  `yaml:"codec" json:"codec" validate:"required"`
	Bitrate      string  `yaml:"bitrate" json:"bitrate" validate:"required"`
	Preset       string  `yaml:"preset" json:"preset"`
	Threads      int     `yaml:"threads" json:"threads" validate:"gte=0"`
	Background   string  `yaml:"background" json:"background" validate:"omitempty,hexcolor"`
	DPI          int     `yaml:"dpi" json:"dpi" validate:"gt=0,lte=1200"`
}

// Default returns the spec used for e-commerce preview clips.
func Default() OutputSpec {
	return OutputSpec{
		Width:        DefaultWidth,
		Height:       DefaultHeight,
		Duration:     DefaultDuration,
		FrameRate:    DefaultFrameRate,
		ZoomScale:    DefaultZoomScale,
		FadeDuration: DefaultFadeDuration,
		Codec:        DefaultCodec,
		Bitrate:      DefaultBitrate,
		Preset:       DefaultPreset,
		Threads:      DefaultThreads,
		Background:   DefaultBackground,
		DPI:          DefaultDPI,
	}
}

var validate = validator.New()

// Validate reports every violated constraint wrapped in ErrInvalidSpec.
func (s OutputSpec) Validate() error {
	if math.IsInf(s.Duration, 0) || math.IsInf(s.ZoomScale, 0) || math.IsInf(s.FadeDuration, 0) {
		return fmt.Errorf("%w: duration, zoom_scale and fade_duration must be finite", ErrInvalidSpec)
	}

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s (got %v)", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s (got %v)", fe.Field(), fe.Tag(), fe.Value()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidSpec, strings.Join(msgs, "; "))
}

// Resolution returns the canvas size as "WxH".
func (s OutputSpec) Resolution() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// BackgroundColor parses Background. An empty value is opaque black.
func (s OutputSpec) BackgroundColor() (color.RGBA, error) {
	return ParseHexColor(s.Background)
}

// ParseHexColor parses "#rgb" or "#rrggbb".
func ParseHexColor(hex string) (color.RGBA, error) {
	black := color.RGBA{A: 0xff}
	if hex == "" {
		return black, nil
	}

	h := strings.TrimPrefix(hex, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return black, fmt.Errorf("%w: bad color %q", ErrInvalidSpec, hex)
	}

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return black, fmt.Errorf("%w: bad color %q", ErrInvalidSpec, hex)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
