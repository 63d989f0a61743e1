// Command ntsccrt passes images through a simulated NTSC composite link and
// writes what a CRT television would show.
//
//	ntsccrt [flags] INPUT OUTPUT
//	ntsccrt [flags] --out-dir DIR INPUT...
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"ntsccrt/config"
	"ntsccrt/crt"
	"ntsccrt/ppm"
	"ntsccrt/preview"
	"ntsccrt/video"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	pathStyle = lipgloss.NewStyle().Bold(true)
)

type modes struct {
	preview     bool
	play        bool
	testPattern bool
}

func (m *modes) flags(fs *pflag.FlagSet, _ *config.Config) {
	fs.BoolVar(&m.preview, "preview", false, "Show the result live in the terminal")
	fs.BoolVar(&m.play, "play", false, "Show the result live in an ffplay window")
	fs.BoolVarP(&m.testPattern, "test-pattern", "t", false, "Use SMPTE color bars as the input")
}

func main() {
	var m modes
	cfg, args, err := config.Parse("ntsccrt", os.Args[1:], config.RenderFlags, m.flags)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := cfg.Logger(os.Stderr, "ntsccrt")
	if err != nil {
		log.Fatal("bad configuration", "err", err)
	}
	log.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if m.preview || m.play {
		img, err := source(&m, args)
		if err != nil {
			logger.Fatal("loading input", "err", err)
		}
		if m.preview {
			err = preview.Run(preview.Still(img), cfg)
		} else {
			err = play(ctx, img, cfg, logger)
		}
		if err != nil {
			logger.Fatal("live view", "err", err)
		}
		return
	}

	if m.testPattern {
		if len(args) != 1 {
			logger.Fatal("expected OUTPUT with --test-pattern")
		}
		img := colorBars()
		out, s := render(img, cfg.Render, logger)
		if err := ppm.WriteFile(args[0], out); err != nil {
			logger.Fatal("writing output", "err", err)
		}
		summary(result{job: job{in: "color bars", out: args[0]}, w: out.Width, h: out.Height, sync: s})
		return
	}

	js, err := jobs(args, cfg.OutDir)
	if err != nil {
		logger.Fatal("bad arguments", "err", err)
	}
	if cfg.OutDir != "" {
		if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
			logger.Fatal("creating output directory", "err", err)
		}
	}

	start := time.Now()
	results, err := batch(ctx, js, cfg, logger)
	if err != nil {
		logger.Fatal("processing failed", "err", err)
	}
	for _, r := range results {
		summary(r)
	}
	logger.Info("done", "images", len(results), "elapsed", time.Since(start).Round(time.Millisecond))
}

func colorBars() *ppm.Image {
	img := ppm.New(config.FrameWidth, config.FrameHeight)
	video.FillColorBars(img.Pix, img.Width, img.Height)
	return img
}

// source loads the image shown by the live views.
func source(m *modes, args []string) (*ppm.Image, error) {
	if m.testPattern {
		return colorBars(), nil
	}
	if len(args) < 1 {
		return nil, fmt.Errorf("expected INPUT")
	}
	return ppm.ReadFile(args[0])
}

// play streams continuously decoded fields to ffplay until the window is
// closed or ctx ends.
func play(ctx context.Context, img *ppm.Image, cfg *config.Config, logger *log.Logger) error {
	w, h := cfg.Render.Width, cfg.Render.Height
	if w == 0 {
		w = img.Width
	}
	if h == 0 {
		h = img.Height
	}
	out := make([]uint32, w*h)
	d := crt.New(w, h, out, crt.WithLogger(logger))
	d.SetCalibration(cfg.Render.Calibration)
	d.SetBloom(cfg.Render.Bloom)

	p, err := video.StartPlayer(w, h, config.FrameRate, "ntsccrt")
	if err != nil {
		return err
	}
	defer p.Stop()

	ticker := time.NewTicker(time.Second * 1001 / 30000)
	defer ticker.Stop()

	field := cfg.Render.Field()
	for {
		d.Modulate(crt.FieldSettings{Image: img.Pix, Width: img.Width, Height: img.Height, Color: !cfg.Render.Mono, Field: field})
		d.Decode(cfg.Render.Noise)
		if err := p.WriteFrame(out); err != nil {
			logger.Info("player closed")
			return nil
		}
		if !cfg.Render.Progressive {
			field ^= 1
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func summary(r result) {
	lock := okStyle.Render(fmt.Sprintf("locked field %d", r.sync.Field))
	if !r.sync.VLocked {
		lock = warnStyle.Render("no vertical lock")
	}
	fmt.Printf("%s -> %s  %dx%d  %s\n", r.in, pathStyle.Render(r.out), r.w, r.h, lock)
}
