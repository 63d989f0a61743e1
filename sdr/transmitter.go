package sdr

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/samuel/go-hackrf/hackrf"

	"ntsccrt/config"
	"ntsccrt/crt"
)

// Signal is a source of modulated composite fields.
type Signal interface {
	CopyAnalog(dst []int8) int
}

// Negative modulation: the sync tip is full carrier, white is 12.5%.
const (
	peakAmplitude  = 127
	whiteAmplitude = peakAmplitude / 8
)

// amplitudes maps a composite sample in IRE to the 8-bit I amplitude.
var amplitudes = func() (t [256]int8) {
	for i := range t {
		ire := i - 128
		a := whiteAmplitude + (crt.WhiteLevel-ire)*(peakAmplitude-whiteAmplitude)/(crt.WhiteLevel-crt.SyncLevel)
		if a < 0 {
			a = 0
		}
		if a > peakAmplitude {
			a = peakAmplitude
		}
		t[i] = int8(a)
	}
	return t
}()

// Amplitude returns the carrier amplitude sent for a composite sample.
func Amplitude(ire int8) int8 {
	return amplitudes[int(ire)+128]
}

// Transmitter loops over the latest field while the HackRF drains it.
type Transmitter struct {
	mu    sync.Mutex
	field [crt.InputSize]int8
	pos   int
}

// NewTransmitter returns a Transmitter sending a blank field.
func NewTransmitter() *Transmitter {
	return &Transmitter{}
}

// Update replaces the field being sent. The field in flight is swapped at
// the next buffer boundary.
func (t *Transmitter) Update(s Signal) {
	t.mu.Lock()
	s.CopyAnalog(t.field[:])
	t.mu.Unlock()
}

// fill writes interleaved I/Q bytes for the next len(buf)/2 samples.
func (t *Transmitter) fill(buf []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := 0; i+1 < len(buf); i += 2 {
		buf[i] = byte(Amplitude(t.field[t.pos]))
		buf[i+1] = 0
		t.pos++
		if t.pos == len(t.field) {
			t.pos = 0
		}
	}
	return nil
}

// Transmit configures an open HackRF device and starts streaming t.
// StartTX returns immediately; the device keeps pulling samples until it
// is stopped.
func Transmit(dev *hackrf.Device, cfg config.TX, t *Transmitter) error {
	txFrequencyHz := uint64(cfg.Frequency * 1_000_000)

	if err := dev.SetFreq(txFrequencyHz); err != nil {
		return err
	}
	if err := dev.SetSampleRate(config.SampleRate); err != nil {
		return err
	}
	if err := dev.SetTXVGAGain(cfg.Gain); err != nil {
		return err
	}
	if err := dev.SetAmpEnable(cfg.Amp); err != nil {
		return err
	}

	log.Info("starting transmission",
		"freq_mhz", float64(txFrequencyHz)/1e6,
		"rate_msps", float64(config.SampleRate)/1e6,
		"gain", cfg.Gain)

	return dev.StartTX(t.fill)
}
