package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"ntsccrt/config"
	"ntsccrt/crt"
	"ntsccrt/ppm"
)

// job is one image to pass through the signal chain.
type job struct {
	in, out string
}

// result reports how a job's last field was received.
type result struct {
	job
	w, h int
	sync crt.SyncStatus
}

// render modulates and decodes img the number of fields cfg asks for and
// returns the last decoded picture.
func render(img *ppm.Image, cfg config.Render, logger *log.Logger) (*ppm.Image, crt.SyncStatus) {
	w, h := cfg.Width, cfg.Height
	if w == 0 {
		w = img.Width
	}
	if h == 0 {
		h = img.Height
	}
	out := ppm.New(w, h)

	d := crt.New(w, h, out.Pix, crt.WithLogger(logger))
	d.SetCalibration(cfg.Calibration)
	d.SetBloom(cfg.Bloom)

	field := cfg.Field()
	for i := 0; i < cfg.Fields; i++ {
		d.Modulate(crt.FieldSettings{
			Image:  img.Pix,
			Width:  img.Width,
			Height: img.Height,
			Color:  !cfg.Mono,
			Field:  field,
		})
		d.Decode(cfg.Noise)
		if !cfg.Progressive {
			field ^= 1
		}
	}
	return out, d.Sync()
}

func process(j job, cfg config.Render, logger *log.Logger) (result, error) {
	img, err := ppm.ReadFile(j.in)
	if err != nil {
		return result{}, err
	}
	logger.Debug("loaded", "size", fmt.Sprintf("%dx%d", img.Width, img.Height))

	out, s := render(img, cfg, logger)
	if err := ppm.WriteFile(j.out, out); err != nil {
		return result{}, err
	}
	return result{job: j, w: out.Width, h: out.Height, sync: s}, nil
}

// jobs pairs inputs with outputs: INPUT OUTPUT, or any number of inputs
// written under outDir with their own names.
func jobs(args []string, outDir string) ([]job, error) {
	if outDir == "" {
		if len(args) != 2 {
			return nil, fmt.Errorf("expected INPUT OUTPUT, or --out-dir with several inputs")
		}
		return []job{{in: args[0], out: args[1]}}, nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("no input images")
	}
	js := make([]job, len(args))
	for i, in := range args {
		js[i] = job{in: in, out: filepath.Join(outDir, filepath.Base(in))}
	}
	return js, nil
}

// batch runs the jobs with at most cfg.Jobs in flight, one Device each.
func batch(ctx context.Context, js []job, cfg *config.Config, logger *log.Logger) ([]result, error) {
	results := make([]result, len(js))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Jobs)

	for i, j := range js {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := process(j, cfg.Render, logger.With("file", j.in))
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
