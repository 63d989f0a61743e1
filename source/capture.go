package source

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"sync"

	"github.com/charmbracelet/log"

	"ntsccrt/config"
	"ntsccrt/video"
)

// Frame is the latest captured image, shared between the capture goroutine
// and whoever modulates it.
type Frame struct {
	mu     sync.RWMutex
	w, h   int
	pix    []uint32
	frames int
}

// NewFrame allocates a black frame of w by h pixels.
func NewFrame(w, h int) *Frame {
	return &Frame{w: w, h: h, pix: make([]uint32, w*h)}
}

// Size returns the frame geometry.
func (f *Frame) Size() (w, h int) {
	return f.w, f.h
}

// Update replaces the frame with fill applied to its pixels.
func (f *Frame) Update(fill func(pix []uint32)) {
	f.mu.Lock()
	fill(f.pix)
	f.frames++
	f.mu.Unlock()
}

// Copy copies the current frame into dst and returns how many frames have
// been captured so far.
func (f *Frame) Copy(dst []uint32) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	copy(dst, f.pix)
	return f.frames
}

// ReadFrames reads raw rgb24 frames from r into f until r is exhausted.
func ReadFrames(r io.Reader, f *Frame) error {
	raw := make([]byte, 3*f.w*f.h)
	for {
		if _, err := io.ReadFull(r, raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading frame: %w", err)
		}
		f.Update(func(pix []uint32) {
			video.Packed(pix, raw)
		})
	}
}

// StartFFmpegCapture starts an FFmpeg process capturing the camera named by
// device into f, scaled to the frame size at the NTSC frame rate.
func StartFFmpegCapture(device string, f *Frame) (*exec.Cmd, error) {
	var ffmpegArgs []string

	switch runtime.GOOS {
	case "linux":
		if device == "" {
			device = "/dev/video0"
		}
		ffmpegArgs = []string{"-f", "v4l2", "-i", device}
	case "darwin":
		if device == "" {
			device = "0"
		}
		ffmpegArgs = []string{"-f", "avfoundation", "-i", device}
	case "windows":
		if device == "" {
			device = "Integrated Webcam"
		}
		ffmpegArgs = []string{"-f", "dshow", "-i", "video=" + device}
	default:
		return nil, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}

	ffmpegArgs = append(ffmpegArgs,
		"-hide_banner", "-loglevel", "error",
		"-fflags", "nobuffer", "-flags", "low_delay",
		"-probesize", "32", "-analyzeduration", "0",
		"-threads", "1", "-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-vf", fmt.Sprintf("scale=%d:%d,fps=%.4f", f.w, f.h, config.FrameRate),
		"-",
	)
	ffmpegCmd := exec.Command("ffmpeg", ffmpegArgs...)

	stdout, err := ffmpegCmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get FFmpeg stdout pipe: %w", err)
	}
	if err := ffmpegCmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start FFmpeg: %w", err)
	}
	log.Info("ffmpeg capture started", "device", device)

	go func() {
		if err := ReadFrames(stdout, f); err != nil {
			log.Error("capture stopped", "err", err)
		}
	}()
	return ffmpegCmd, nil
}
