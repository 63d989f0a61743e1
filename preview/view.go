package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	activeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func hex(p uint32) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%06x", p&0xffffff))
}

// picture draws two pixel rows per terminal line with upper half blocks.
func (m *Model) picture() string {
	var b strings.Builder
	for y := 0; y+1 < m.rows; y += 2 {
		top := m.out[y*m.cols : (y+1)*m.cols]
		bot := m.out[(y+1)*m.cols : (y+2)*m.cols]
		for x := range top {
			b.WriteString(lipgloss.NewStyle().
				Foreground(hex(top[x])).
				Background(hex(bot[x])).
				Render("▀"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m *Model) statusLine() string {
	cal := m.dev.Calibration()
	s := m.dev.Sync()

	parts := make([]string, 0, len(knobs)+1)
	for i, k := range knobs {
		txt := fmt.Sprintf("%s %d", k.name, *k.get(&cal))
		if i == m.knob {
			txt = activeStyle.Render(txt)
		}
		parts = append(parts, txt)
	}

	lock := "no sync"
	switch {
	case s.VLocked:
		lock = fmt.Sprintf("locked f%d", s.Field)
	case s.HLocked:
		lock = "h only"
	}
	parts = append(parts, fmt.Sprintf("noise %d  %s", m.noise, lock))
	return statusStyle.Render(strings.Join(parts, "  "))
}

func (m *Model) View() string {
	help := "+/- noise  c color  b bloom  f field  i interlace  tab/←/→ knobs  r reset  p snapshot  q quit"
	if m.status != "" {
		help = m.status
	}
	return m.picture() + m.statusLine() + "\n" + helpStyle.Render(help)
}
