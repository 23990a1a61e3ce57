package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ivlev/photo2video/internal/config"
	"github.com/ivlev/photo2video/internal/video"
)

// specFlags binds every OutputSpec option to a command flag.
type specFlags struct {
	presetFile string
	spec       config.OutputSpec
}

func addSpecFlags(cmd *cobra.Command, o *specFlags) {
	d := config.Default()
	o.spec = d

	f := cmd.Flags()
	f.IntVar(&o.spec.Width, "width", d.Width, "Output width in pixels")
	f.IntVar(&o.spec.Height, "height", d.Height, "Output height in pixels")
	f.Float64VarP(&o.spec.Duration, "duration", "d", d.Duration, "Clip length in seconds")
	f.IntVar(&o.spec.FrameRate, "fps", d.FrameRate, "Frames per second")
	f.Float64Var(&o.spec.ZoomScale, "zoom", d.ZoomScale, "Zoom over the cover fit (>= 1.0)")
	f.Float64Var(&o.spec.FadeDuration, "fade", d.FadeDuration, "Fade in/out length in seconds (0 disables)")
	f.StringVar(&o.spec.Codec, "codec", d.Codec, "Video codec, or \"auto\" to pick the best H.264 encoder")
	f.StringVar(&o.spec.Bitrate, "bitrate", d.Bitrate, "Target bitrate, e.g. 2500k")
	f.StringVar(&o.spec.Preset, "preset", d.Preset, "x264 speed preset")
	f.IntVar(&o.spec.Threads, "threads", d.Threads, "Encoder threads (0 lets ffmpeg decide)")
	f.StringVar(&o.spec.Background, "background", d.Background, "Background color behind transparent pixels")
	f.IntVar(&o.spec.DPI, "dpi", d.DPI, "Density for PDF sources")
	f.StringVar(&o.presetFile, "preset-file", "", "YAML preset; explicit flags override it")
}

// resolve returns the spec: preset file (if any) with explicitly set flags
// laid on top.
func (o *specFlags) resolve(cmd *cobra.Command) (config.OutputSpec, error) {
	if o.presetFile == "" {
		return o.spec, nil
	}

	spec, err := config.LoadPreset(o.presetFile)
	if err != nil {
		return spec, err
	}

	overrides := map[string]func(){
		"width":      func() { spec.Width = o.spec.Width },
		"height":     func() { spec.Height = o.spec.Height },
		"duration":   func() { spec.Duration = o.spec.Duration },
		"fps":        func() { spec.FrameRate = o.spec.FrameRate },
		"zoom":       func() { spec.ZoomScale = o.spec.ZoomScale },
		"fade":       func() { spec.FadeDuration = o.spec.FadeDuration },
		"codec":      func() { spec.Codec = o.spec.Codec },
		"bitrate":    func() { spec.Bitrate = o.spec.Bitrate },
		"preset":     func() { spec.Preset = o.spec.Preset },
		"threads":    func() { spec.Threads = o.spec.Threads },
		"background": func() { spec.Background = o.spec.Background },
		"dpi":        func() { spec.DPI = o.spec.DPI },
	}
	for name, apply := range overrides {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	return spec, nil
}

// resolveCodec replaces "auto" with the best encoder the local ffmpeg has.
func resolveCodec(ctx context.Context, w io.Writer, spec config.OutputSpec, ffmpegPath string) config.OutputSpec {
	if spec.Codec == config.CodecAuto {
		spec.Codec = video.BestH264Encoder(ctx, ffmpegPath)
		if spec.Codec != "libx264" {
			spec.Preset = ""
		}
		fmt.Fprintf(w, "[*] Encoder: %s\n", spec.Codec)
	}
	return spec
}
