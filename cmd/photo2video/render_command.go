package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ivlev/photo2video/internal/engine"
	"github.com/ivlev/photo2video/internal/system"
	"github.com/ivlev/photo2video/internal/video"
)

const (
	defaultInputDir  = "input/images"
	defaultOutputDir = "output"
	benchmarkLog     = "benchmark.log"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var flags specFlags
	var output string
	var stats bool

	cmd := &cobra.Command{
		Use:   "render [image]",
		Short: "Render a photo into a video",
		Long: "Render a photo into a video. Without an image argument the newest file in " +
			defaultInputDir + " is used.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			spec, err := flags.resolve(cmd)
			if err != nil {
				return err
			}

			input, err := pickInput(out, args)
			if err != nil {
				return err
			}
			if output == "" {
				output = defaultOutputPath(input, time.Now())
			}

			if _, err := system.CheckFFmpeg(ctx.ffmpegPath); err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			spec = resolveCodec(runCtx, out, spec, ctx.ffmpegPath)

			fmt.Fprintln(out, "--- [PROJECT: PHOTO2VIDEO] ---")
			fmt.Fprintf(out, "[*] Source: %s\n", input)
			fmt.Fprintf(out, "[*] Resolution: %s @ %d FPS | %.1fs | zoom %.2f\n", spec.Resolution(), spec.FrameRate, spec.Duration, spec.ZoomScale)
			fmt.Fprintln(out, "------------------------------")

			p := engine.NewVideoProject(spec, input, output, video.NewFFmpegEncoder(ctx.ffmpegPath), ctx.log())
			p.Progress = progressPrinter(out)

			res, err := p.Run(runCtx)
			if err != nil {
				if engine.IsCancelled(err) {
					fmt.Fprintln(out, "\n[!] Cancelled, partial output removed")
				}
				return err
			}

			fmt.Fprintf(out, "[+++] Done! Video saved: %s\n", res.OutputPath)
			if stats {
				printReport(out, res)
				if err := appendBenchmark(benchmarkLog, input, res, time.Now()); err != nil {
					fmt.Fprintf(out, "[!] Could not write %s: %v\n", benchmarkLog, err)
				}
			}
			return nil
		},
	}

	addSpecFlags(cmd, &flags)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output video path (default: "+defaultOutputDir+"/<name>_<time>.mp4)")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print a performance report and append it to "+benchmarkLog)

	return cmd
}

func pickInput(out io.Writer, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	latest, err := system.FindLatestImage(defaultInputDir)
	if err != nil {
		return "", fmt.Errorf("%w. Put a photo into %s/", err, defaultInputDir)
	}
	fmt.Fprintf(out, "[*] Selected file: %s\n", latest)
	return latest, nil
}

func defaultOutputPath(input string, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(defaultOutputDir, fmt.Sprintf("%s_%s.mp4", base, now.Format("2006-01-02_15-04-05")))
}

// progressPrinter reports every tenth of the clip.
func progressPrinter(out io.Writer) func(done, total int) {
	last := -1
	return func(done, total int) {
		step := done * 10 / total
		if step == last && done != total {
			return
		}
		last = step
		fmt.Fprintf(out, "[>] Frames: %d/%d\n", done, total)
	}
}

func appendBenchmark(path, input string, res engine.Result, now time.Time) error {
	entry := fmt.Sprintf("[%s] Input: %s | Frames: %d | Decode: %.2fs | Encode: %.2fs | Total: %.2fs | FPS: %.2f\n",
		now.Format("2006-01-02 15:04:05"),
		filepath.Base(input),
		res.Frames,
		res.DecodeTime.Seconds(),
		res.EncodeTime.Seconds(),
		res.TotalTime.Seconds(),
		res.FPS,
	)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(entry); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
