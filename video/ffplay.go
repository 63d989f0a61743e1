package video

import (
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/charmbracelet/log"
)

// Player is an ffplay process showing a raw rgb24 stream.
type Player struct {
	w, h int
	buf  []byte
	pipe io.WriteCloser
	cmd  *exec.Cmd
}

// StartPlayer launches ffplay for frames of w by h pixels at fps.
func StartPlayer(w, h int, fps float64, title string) (*Player, error) {
	ffplayPath, err := exec.LookPath("ffplay")
	if err != nil {
		return nil, fmt.Errorf("ffplay not found in your PATH")
	}

	args := []string{
		"-f", "rawvideo",
		"-pixel_format", "rgb24",
		"-video_size", fmt.Sprintf("%dx%d", w, h),
		"-framerate", fmt.Sprintf("%f", fps),
		"-i", "-",
		"-window_title", title,
		"-fflags", "nobuffer",
		"-flags", "low_delay",
		"-loglevel", "error",
	}

	cmd := exec.Command(ffplayPath, args...)
	pipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting ffplay: %w", err)
	}
	log.Info("ffplay started", "size", fmt.Sprintf("%dx%d", w, h), "fps", fps)
	return &Player{w: w, h: h, buf: make([]byte, 3*w*h), pipe: pipe, cmd: cmd}, nil
}

// WriteFrame sends one frame of packed pixels.
func (p *Player) WriteFrame(frame []uint32) error {
	if len(frame) < p.w*p.h {
		return fmt.Errorf("frame holds %d pixels, need %d", len(frame), p.w*p.h)
	}
	RGB24(p.buf, frame[:p.w*p.h])
	_, err := p.pipe.Write(p.buf)
	return err
}

// Wait blocks until the viewer window is closed.
func (p *Player) Wait() error {
	p.pipe.Close()
	return p.cmd.Wait()
}

// Stop terminates the player.
func (p *Player) Stop() {
	p.pipe.Close()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.cmd.Wait()
}
