package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"ntsccrt/crt"
)

// Video source resolution for live capture and test bars.
const (
	FrameWidth  = 640
	FrameHeight = 480
	FrameRate   = 30000.0 / 1001.0
)

// SampleRate is the composite sample rate shared by the engine and the
// transmitter, in samples per second.
const SampleRate = 14_318_181

// Render holds the settings of one encode/decode pass.
type Render struct {
	Width       int             `yaml:"width"`  // output width, 0 keeps the input width
	Height      int             `yaml:"height"` // output height, 0 keeps the input height
	Noise       int             `yaml:"noise"`
	Mono        bool            `yaml:"mono"`
	Odd         bool            `yaml:"odd"`         // start on the odd field
	Progressive bool            `yaml:"progressive"` // repeat one field instead of alternating
	Fields      int             `yaml:"fields"`      // fields decoded per image
	Bloom       bool            `yaml:"bloom"`
	Calibration crt.Calibration `yaml:"calibration"`
}

// TX holds the HackRF transmitter settings.
type TX struct {
	Frequency float64 `yaml:"frequency"` // MHz
	Gain      int     `yaml:"gain"`      // TX VGA gain, 0-47
	Amp       bool    `yaml:"amp"`
	Device    string  `yaml:"device"` // capture device name or index
	Test      bool    `yaml:"test"`   // transmit color bars instead of the camera
}

// Config holds all application configuration values.
type Config struct {
	Render   Render `yaml:"render"`
	TX       TX     `yaml:"tx"`
	Jobs     int    `yaml:"jobs"`
	OutDir   string `yaml:"out_dir"`
	Snapshot string `yaml:"snapshot"` // strftime pattern for preview snapshots
	LogLevel string `yaml:"log_level"`

	// Path is the configuration file the values were read from, if any.
	Path string `yaml:"-"`
}

// Default returns the configuration used when neither a file nor flags
// say otherwise.
func Default() Config {
	return Config{
		Render: Render{
			Fields:      2,
			Calibration: crt.DefaultCalibration(),
		},
		TX: TX{
			Frequency: 1280,
			Gain:      30,
		},
		Jobs:     1,
		Snapshot: "ntsccrt-%Y%m%d-%H%M%S.ppm",
		LogLevel: "info",
	}
}

// Load reads a YAML file over cfg. Keys absent from the file keep their
// current values.
func Load(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.Path = path
	return cfg.validate()
}

func (c *Config) validate() error {
	r := &c.Render
	if r.Width < 0 || r.Height < 0 {
		return fmt.Errorf("config: negative output size %dx%d", r.Width, r.Height)
	}
	if r.Fields < 1 {
		return fmt.Errorf("config: fields must be at least 1, got %d", r.Fields)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("config: jobs must be at least 1, got %d", c.Jobs)
	}
	if c.TX.Gain < 0 || c.TX.Gain > 47 {
		return fmt.Errorf("config: tx gain %d outside 0-47", c.TX.Gain)
	}
	return nil
}

// Field is the first field to modulate.
func (r Render) Field() int {
	if r.Odd {
		return 1
	}
	return 0
}

// RenderFlags registers the encode/decode flags, bound to cfg.
func RenderFlags(fs *pflag.FlagSet, cfg *Config) {
	r := &cfg.Render
	fs.IntVarP(&r.Width, "width", "W", r.Width, "Output width in pixels (0 keeps the input width)")
	fs.IntVarP(&r.Height, "height", "H", r.Height, "Output height in pixels (0 keeps the input height)")
	fs.IntVarP(&r.Noise, "noise", "n", r.Noise, "Noise added to the signal, in IRE peak to peak")
	fs.BoolVarP(&r.Mono, "mono", "m", r.Mono, "Transmit luma only, without color burst")
	fs.BoolVar(&r.Odd, "odd", r.Odd, "Start on the odd field")
	fs.BoolVarP(&r.Progressive, "progressive", "p", r.Progressive, "Repeat one field instead of alternating")
	fs.IntVarP(&r.Fields, "fields", "f", r.Fields, "Fields to modulate and decode per image")
	fs.BoolVarP(&r.Bloom, "bloom", "b", r.Bloom, "Simulate beam bloom")

	c := &r.Calibration
	fs.IntVar(&c.Brightness, "brightness", c.Brightness, "Brightness offset in IRE")
	fs.IntVar(&c.Contrast, "contrast", c.Contrast, "Contrast in percent")
	fs.IntVar(&c.Saturation, "saturation", c.Saturation, "Saturation in percent")
	fs.IntVar(&c.BlackPoint, "black", c.BlackPoint, "Black point in IRE")
	fs.IntVar(&c.WhitePoint, "white", c.WhitePoint, "White point in IRE")
	fs.IntVar(&c.Hue, "hue", c.Hue, "Hue rotation in degrees")

	fs.IntVarP(&cfg.Jobs, "jobs", "j", cfg.Jobs, "Images processed in parallel")
	fs.StringVarP(&cfg.OutDir, "out-dir", "o", cfg.OutDir, "Directory for outputs when several inputs are given")
	fs.StringVar(&cfg.Snapshot, "snapshot", cfg.Snapshot, "strftime pattern for preview snapshot names")
}

// TXFlags registers the transmitter flags, bound to cfg.
func TXFlags(fs *pflag.FlagSet, cfg *Config) {
	t := &cfg.TX
	fs.Float64Var(&t.Frequency, "freq", t.Frequency, "Transmit frequency in MHz")
	fs.IntVar(&t.Gain, "gain", t.Gain, "TX VGA gain (0-47)")
	fs.BoolVar(&t.Amp, "amp", t.Amp, "Enable the RF amplifier")
	fs.StringVar(&t.Device, "device", t.Device, "Video device name or index (OS-dependent)")
	fs.BoolVar(&t.Test, "test", t.Test, "Transmit color bars instead of the camera")
	fs.BoolVarP(&cfg.Render.Mono, "mono", "m", cfg.Render.Mono, "Transmit luma only, without color burst")
}

// Parse builds the configuration for a command from its arguments. Values
// come from Default, then the file named by --config, then any flag given
// explicitly. It returns the remaining positional arguments.
func Parse(name string, args []string, register ...func(*pflag.FlagSet, *Config)) (*Config, []string, error) {
	flagged := Default()
	fs := newFlagSet(name, &flagged, register)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if flagged.Path == "" {
		return &flagged, fs.Args(), flagged.validate()
	}

	cfg := Default()
	if err := Load(flagged.Path, &cfg); err != nil {
		return nil, nil, err
	}
	// replay the flags given on the command line over the file
	replay := newFlagSet(name, &cfg, register)
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err == nil {
			err = replay.Set(f.Name, f.Value.String())
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return &cfg, fs.Args(), cfg.validate()
}

func newFlagSet(name string, cfg *Config, register []func(*pflag.FlagSet, *Config)) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	fs.StringVarP(&cfg.Path, "config", "c", cfg.Path, "YAML configuration file")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	for _, r := range register {
		r(fs, cfg)
	}
	return fs
}

// Logger builds the command logger writing to w at the configured level.
func (c *Config) Logger(w io.Writer, prefix string) (*log.Logger, error) {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: log level %q: %w", c.LogLevel, err)
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          prefix,
		Level:           level,
	}), nil
}
