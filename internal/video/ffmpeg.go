package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpegEncoder pipes raw RGBA frames into an ffmpeg process.
type FFmpegEncoder struct {
	// Binary is the ffmpeg executable. Defaults to "ffmpeg" on PATH.
	Binary string
}

// NewFFmpegEncoder returns an encoder using the ffmpeg binary at path.
func NewFFmpegEncoder(path string) *FFmpegEncoder {
	if path == "" {
		path = "ffmpeg"
	}
	return &FFmpegEncoder{Binary: path}
}

// Args returns the ffmpeg command line for writing path.
func (e *FFmpegEncoder) Args(path string, p Params) []string {
	in := ffmpeg.KwArgs{
		"f":       "rawvideo",
		"pix_fmt": "rgba",
		"s":       fmt.Sprintf("%dx%d", p.Width, p.Height),
		"r":       strconv.Itoa(p.FrameRate),
	}

	out := ffmpeg.KwArgs{
		"map":      "0:v",
		"an":       "",
		"c:v":      p.Codec,
		"b:v":      p.Bitrate,
		"r":        strconv.Itoa(p.FrameRate),
		"pix_fmt":  "yuv420p",
		"movflags": "+faststart",
		"f":        "mp4",
	}
	if p.Preset != "" && p.Codec == "libx264" {
		out["preset"] = p.Preset
	}
	if p.Threads > 0 {
		out["threads"] = strconv.Itoa(p.Threads)
	}

	return ffmpeg.Input("pipe:0", in).
		Output(path, out).
		OverWriteOutput().
		GetArgs()
}

// Open starts ffmpeg writing to path.
func (e *FFmpegEncoder) Open(ctx context.Context, path string, p Params) (Writer, error) {
	bin := e.Binary
	if bin == "" {
		bin = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, bin, e.Args(path, p)...)
	stderr := &tailBuffer{max: 8 << 10}
	cmd.Stderr = stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}

	return &ffmpegWriter{
		cmd:    cmd,
		stdin:  stdin,
		stderr: stderr,
		path:   path,
		width:  p.Width,
		height: p.Height,
	}, nil
}

type ffmpegWriter struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *tailBuffer
	path   string
	width  int
	height int

	waited bool
}

func (w *ffmpegWriter) WriteFrame(frame *image.RGBA) error {
	if w.waited {
		return errors.New("writer already closed")
	}
	b := frame.Bounds()
	if b.Dx() != w.width || b.Dy() != w.height {
		return fmt.Errorf("frame is %dx%d, writer expects %dx%d", b.Dx(), b.Dy(), w.width, w.height)
	}
	if err := writeRawRGBA(w.stdin, frame); err != nil {
		return fmt.Errorf("write raw error: %w (ffmpeg: %s)", err, w.stderr.String())
	}
	return nil
}

func (w *ffmpegWriter) Finalize() error {
	if w.waited {
		return errors.New("writer already closed")
	}
	_ = w.stdin.Close()
	w.waited = true
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w\nLog: %s", err, w.stderr.String())
	}

	info, err := os.Stat(w.path)
	if err != nil {
		return fmt.Errorf("output not created: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("output has zero size")
	}
	return nil
}

func (w *ffmpegWriter) Abort() error {
	if !w.waited {
		_ = w.stdin.Close()
		if w.cmd.Process != nil {
			_ = w.cmd.Process.Kill()
		}
		_ = w.cmd.Wait()
		w.waited = true
	}
	if err := os.Remove(w.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove partial output: %w", err)
	}
	return nil
}

// writeRawRGBA writes the pixels row-contiguous, copying when the stride has padding.
func writeRawRGBA(w io.Writer, img *image.RGBA) error {
	bounds := img.Bounds()
	rgba := img
	if rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		rgba = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}
	_, err := w.Write(rgba.Pix[:bounds.Dx()*bounds.Dy()*4])
	return err
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
