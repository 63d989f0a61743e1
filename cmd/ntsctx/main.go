// Command ntsctx transmits NTSC composite video with a HackRF: color bars,
// a webcam, or a still image.
//
//	ntsctx [flags] [IMAGE.ppm]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/samuel/go-hackrf/hackrf"
	"github.com/spf13/pflag"

	"ntsccrt/config"
	"ntsccrt/crt"
	"ntsccrt/ppm"
	"ntsccrt/preview"
	"ntsccrt/sdr"
	"ntsccrt/source"
	"ntsccrt/video"
)

func main() {
	cfg, args, err := config.Parse("ntsctx", os.Args[1:], config.TXFlags)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger, err := cfg.Logger(os.Stderr, "ntsctx")
	if err != nil {
		log.Fatal("bad configuration", "err", err)
	}
	log.SetDefault(logger)

	src, stop, err := open(cfg, args)
	if err != nil {
		logger.Fatal("video source", "err", err)
	}
	defer stop()

	if err := hackrf.Init(); err != nil {
		logger.Fatal("hackrf init failed", "err", err)
	}
	defer hackrf.Exit()

	dev, err := hackrf.Open()
	if err != nil {
		logger.Fatal("hackrf open failed", "err", err)
	}
	defer dev.Close()

	w, h := src.Size()
	img := make([]uint32, w*h)
	d := crt.New(1, 1, make([]uint32, 1), crt.WithLogger(logger))
	tx := sdr.NewTransmitter()

	modulate := func(field int) {
		src.Copy(img)
		d.Modulate(crt.FieldSettings{Image: img, Width: w, Height: h, Color: !cfg.Render.Mono, Field: field})
		tx.Update(d)
	}
	modulate(0)

	if err := sdr.Transmit(dev, cfg.TX, tx); err != nil {
		logger.Fatal("transmission failed", "err", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("transmission is live, press Ctrl+C to stop")
	ticker := time.NewTicker(time.Second * 1001 / 60000)
	defer ticker.Stop()

	field := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return
		case <-ticker.C:
			field ^= 1
			modulate(field)
		}
	}
}

// open picks the video source: a still image, color bars or the camera.
func open(cfg *config.Config, args []string) (preview.Source, func(), error) {
	switch {
	case len(args) > 0:
		img, err := ppm.ReadFile(args[0])
		if err != nil {
			return nil, nil, err
		}
		log.Info("transmitting still image", "file", args[0])
		return preview.Still(img), func() {}, nil
	case cfg.TX.Test:
		f := source.NewFrame(config.FrameWidth, config.FrameHeight)
		f.Update(func(pix []uint32) {
			video.FillColorBars(pix, config.FrameWidth, config.FrameHeight)
		})
		log.Info("transmitting SMPTE color bars")
		return f, func() {}, nil
	}

	f := source.NewFrame(config.FrameWidth, config.FrameHeight)
	cmd, err := source.StartFFmpegCapture(cfg.TX.Device, f)
	if err != nil {
		return nil, nil, err
	}
	return f, func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}, nil
}
