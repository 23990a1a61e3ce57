package video

import (
	"context"
	"os/exec"
	"strings"
)

// BestH264Encoder returns the preferred H.264 encoder the local ffmpeg offers:
// VideoToolbox on macOS, NVENC on NVIDIA hosts, libx264 otherwise.
func BestH264Encoder(ctx context.Context, binary string) string {
	if binary == "" {
		binary = "ffmpeg"
	}

	out, err := exec.CommandContext(ctx, binary, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}

	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), name) {
			return name
		}
	}
	return "libx264"
}
