// Package crt converts digital RGB images into a simulated analog NTSC
// composite signal and decodes that signal back into an image, the way a
// CRT television would. All signal processing is done in integer arithmetic.
//
// A Device is not safe for concurrent use. Independent Devices share no
// state.
package crt

import (
	"fmt"

	"github.com/charmbracelet/log"
)

// NoiseSeed is the initial state of the noise generator of every Device.
const NoiseSeed = 194

// Device holds one analog field and the receiver state that persists
// between calls.
type Device struct {
	analog [InputSize]int8 // sampled at 14.31818 MHz
	inp    [InputSize]int8 // receiver input, possibly noisy

	// offsets from nominal timing, carried between fields like a
	// receiver's flywheel
	hsync, vsync int
	field        int

	rn uint32 // noise generator state

	cal   Calibration
	bloom bool

	outw, outh int
	out        []uint32 // borrowed, packed 0x00RRGGBB

	status SyncStatus
	logger *log.Logger
}

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the logger used for sync diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(d *Device) {
		d.logger = l
	}
}

// New creates a Device decoding into out, an image of w by h pixels.
func New(w, h int, out []uint32, opts ...Option) *Device {
	d := &Device{}
	d.Init(w, h, out)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Init binds the output geometry and buffer, clears the signal and sync
// state and restores the default calibration.
func (d *Device) Init(w, h int, out []uint32) {
	logger := d.logger
	*d = Device{}
	d.logger = logger
	if d.logger == nil {
		d.logger = log.Default()
	}
	d.rn = NoiseSeed
	d.Resize(w, h, out)
	d.Reset()
}

// Resize rebinds the output geometry and buffer. Signal and sync state are
// left alone so decoding continues seamlessly.
func (d *Device) Resize(w, h int, out []uint32) {
	d.outw = w
	d.outh = h
	d.out = out
}

// Reset restores the default calibration. Sync history is kept.
func (d *Device) Reset() {
	d.cal = DefaultCalibration()
	d.bloom = false
}

// Calibration returns the current monitor controls.
func (d *Device) Calibration() Calibration {
	return d.cal
}

// SetCalibration replaces the monitor controls, clamping them to range.
func (d *Device) SetCalibration(c Calibration) {
	d.cal = c.Clamped()
}

// SetBloom enables or disables the bloom pass.
func (d *Device) SetBloom(on bool) {
	d.bloom = on
}

// Bloom reports whether the bloom pass is enabled.
func (d *Device) Bloom() bool {
	return d.bloom
}

// Size returns the bound output geometry.
func (d *Device) Size() (w, h int) {
	return d.outw, d.outh
}

// Sync returns the outcome of the last decode's sync tracking.
func (d *Device) Sync() SyncStatus {
	return d.status
}

// CopyAnalog copies the modulated field into dst and returns the number of
// samples copied.
func (d *Device) CopyAnalog(dst []int8) int {
	return copy(dst, d.analog[:])
}

func (d *Device) checkOutput() {
	if d.outw <= 0 || d.outh <= 0 {
		panic(fmt.Sprintf("crt: invalid output size %dx%d", d.outw, d.outh))
	}
	if len(d.out) < d.outw*d.outh {
		panic(fmt.Sprintf("crt: output buffer holds %d pixels, need %d", len(d.out), d.outw*d.outh))
	}
}
