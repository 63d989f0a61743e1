package crt

// beam models a CRT electron beam whose horizontal deflection weakens as
// the lines it draws get brighter. Bright content spreads and the raster is
// wider than the active line, leaving a dark border.
type beam struct {
	maxE  int // approximate maximum energy in a line
	prevE int // filtered energy of the previous lines
}

func newBeam(noise int) beam {
	if noise < 0 {
		noise = 0
	}
	return beam{
		maxE:  (128 + noise/2) * AVLen,
		prevE: 16384 / 8,
	}
}

// width returns where the scan starts relative to the active line and how
// many samples it covers, given the raw samples of the line.
func (b *beam) width(active []int) (scanL, lineW int) {
	e := 0
	for _, s := range active {
		e += s
	}
	b.prevE = b.prevE*123/128 + ((b.maxE>>1)-e)<<10/b.maxE

	lineW = clamp(AVLen*136/128+b.prevE>>9, AVLen/2, 2*AVLen)
	return (AVLen - lineW) / 2, lineW
}

// soften lets bright samples bleed into darker neighbours, more so the
// brighter they are.
func (b *beam) soften(l *yiqLine) {
	prev := l.y[0]
	for x := range l.y {
		cur := l.y[x]
		next := cur
		if x+1 < AVLen {
			next = l.y[x+1]
		}
		spill := prev
		if next > spill {
			spill = next
		}
		if spill > cur {
			// 0..3 eighths depending on the brightness of the spill
			k := spill >> 14
			l.y[x] = cur + (spill-cur)*k/8
		}
		prev = cur
	}
}
