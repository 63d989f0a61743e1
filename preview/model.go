// Package preview shows the decoded picture live in the terminal, with
// knobs for the signal and the monitor controls.
package preview

import (
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lestrrat-go/strftime"

	"ntsccrt/config"
	"ntsccrt/crt"
	"ntsccrt/ppm"
)

// Source provides the picture to modulate.
type Source interface {
	Size() (w, h int)
	Copy(dst []uint32) int
}

type still struct {
	img *ppm.Image
}

func (s still) Size() (int, int) { return s.img.Width, s.img.Height }

func (s still) Copy(dst []uint32) int {
	copy(dst, s.img.Pix)
	return 1
}

// Still wraps a fixed image as a Source.
func Still(img *ppm.Image) Source {
	return still{img: img}
}

const frameInterval = time.Second * 1001 / 30000

// knob is one adjustable monitor control.
type knob struct {
	name     string
	step     int
	get      func(*crt.Calibration) *int
	min, max int
}

var knobs = []knob{
	{"brightness", 2, func(c *crt.Calibration) *int { return &c.Brightness }, crt.MinBrightness, crt.MaxBrightness},
	{"contrast", 5, func(c *crt.Calibration) *int { return &c.Contrast }, crt.MinContrast, crt.MaxContrast},
	{"saturation", 5, func(c *crt.Calibration) *int { return &c.Saturation }, crt.MinSaturation, crt.MaxSaturation},
	{"black", 1, func(c *crt.Calibration) *int { return &c.BlackPoint }, crt.MinBlackPoint, crt.MaxBlackPoint},
	{"white", 1, func(c *crt.Calibration) *int { return &c.WhitePoint }, crt.MinWhitePoint, crt.MaxWhitePoint},
	{"hue", 5, func(c *crt.Calibration) *int { return &c.Hue }, crt.MinHue, crt.MaxHue},
}

type tickMsg time.Time

// Model is the bubbletea model of the preview.
type Model struct {
	dev  *crt.Device
	src  Source
	img  []uint32
	out  []uint32
	cols int
	rows int // pixel rows, two per terminal line

	noise       int
	color       bool
	field       int
	progressive bool
	knob        int

	snapshot string // strftime pattern
	status   string
	now      func() time.Time
}

// New builds a preview of src using the render settings in cfg.
func New(src Source, cfg *config.Config) *Model {
	w, h := src.Size()
	m := &Model{
		src:         src,
		img:         make([]uint32, w*h),
		cols:        80,
		rows:        48,
		noise:       cfg.Render.Noise,
		color:       !cfg.Render.Mono,
		field:       cfg.Render.Field(),
		progressive: cfg.Render.Progressive,
		snapshot:    cfg.Snapshot,
		now:         time.Now,
	}
	m.out = make([]uint32, m.cols*m.rows)
	m.dev = crt.New(m.cols, m.rows, m.out)
	m.dev.SetCalibration(cfg.Render.Calibration)
	m.dev.SetBloom(cfg.Render.Bloom)
	return m
}

// Run shows the preview until the user quits.
func Run(src Source, cfg *config.Config) error {
	_, err := tea.NewProgram(New(src, cfg), tea.WithAltScreen()).Run()
	return err
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Init() tea.Cmd {
	m.render()
	return tick()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, (msg.Height-2)*2)
		m.render()
		return m, nil
	case tickMsg:
		if !m.progressive {
			m.field ^= 1
		}
		m.render()
		return m, tick()
	case tea.KeyMsg:
		return m, m.key(msg.String())
	}
	return m, nil
}

func (m *Model) key(k string) tea.Cmd {
	cal := m.dev.Calibration()
	kn := knobs[m.knob]

	switch k {
	case "q", "ctrl+c", "esc":
		return tea.Quit
	case "+", "=":
		m.noise = min(m.noise+4, 200)
	case "-", "_":
		m.noise = max(m.noise-4, 0)
	case "c":
		m.color = !m.color
	case "b":
		m.dev.SetBloom(!m.dev.Bloom())
	case "f":
		m.field ^= 1
	case "i":
		m.progressive = !m.progressive
	case "tab", "down":
		m.knob = (m.knob + 1) % len(knobs)
	case "shift+tab", "up":
		m.knob = (m.knob + len(knobs) - 1) % len(knobs)
	case "right", "l":
		v := kn.get(&cal)
		*v = min(*v+kn.step, kn.max)
		m.dev.SetCalibration(cal)
	case "left", "h":
		v := kn.get(&cal)
		*v = max(*v-kn.step, kn.min)
		m.dev.SetCalibration(cal)
	case "r":
		m.dev.Reset()
	case "p":
		name, err := m.save()
		if err != nil {
			m.status = "snapshot failed: " + err.Error()
		} else {
			m.status = "saved " + name
		}
	}
	m.render()
	return nil
}

func (m *Model) resize(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 2 {
		h = 2
	}
	if w == m.cols && h == m.rows {
		return
	}
	m.cols, m.rows = w, h
	m.out = make([]uint32, w*h)
	m.dev.Resize(w, h, m.out)
}

func (m *Model) render() {
	w, h := m.src.Size()
	m.src.Copy(m.img)
	m.dev.Modulate(crt.FieldSettings{Image: m.img, Width: w, Height: h, Color: m.color, Field: m.field})
	m.dev.Decode(m.noise)
}

// save writes the current picture to a file named by the snapshot pattern.
func (m *Model) save() (string, error) {
	name, err := strftime.Format(m.snapshot, m.now())
	if err != nil {
		return "", fmt.Errorf("snapshot pattern %q: %w", m.snapshot, err)
	}
	img := &ppm.Image{Width: m.cols, Height: m.rows, Pix: m.out}
	if err := ppm.WriteFile(name, img); err != nil {
		return "", err
	}
	return filepath.Base(name), nil
}
