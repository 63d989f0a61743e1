package crt

// Inverse color matrix, 12 fractional bits.
const (
	riCoef, rqCoef = 3916, 2544
	giCoef, gqCoef = -1114, -2650
	biCoef, bqCoef = -4530, 6975
)

// burstNominal is the reference amplitude of a clean burst as measured over
// one line. Below a quarter of it the color killer turns chroma off.
const (
	burstNominal = 2 * cbCycles * BurstLevel
	killBelow    = burstNominal / 4
)

// yiqLine holds one demodulated line, calibrated and scaled to 0..255 with
// 8 fractional bits.
type yiqLine struct {
	y, i, q [AVLen]int
}

// burstLock tracks the phase of the color burst across the lines of a field.
type burstLock struct {
	ref    [CBFreq]int
	primed bool
}

// update folds the burst of one line into the reference. sig holds the line
// and ph0 the carrier phase of its first sample.
func (b *burstLock) update(sig *[HRes]int, ph0 int) {
	var cur [CBFreq]int
	for c := CBBeg; c < CBBeg+cbLen; c++ {
		cur[(ph0+c)&(CBFreq-1)] += sig[c]
	}
	if !b.primed {
		b.ref = cur
		b.primed = true
		return
	}
	for k := range b.ref {
		b.ref[k] = (b.ref[k]*3 + cur[k] + 2) >> 2
	}
}

// carriers returns the I and Q reference carriers for the four phases, with
// 12 fractional bits, rotated by rot (a 14-bit phase). ok is false when the
// burst is too weak to decode color.
func (b *burstLock) carriers(rot int) (refI, refQ [CBFreq]int, ok bool) {
	a0 := b.ref[0] - b.ref[2]
	a1 := b.ref[1] - b.ref[3]
	amp := isqrt(a0*a0 + a1*a1)
	if amp < killBelow {
		return refI, refQ, false
	}
	// the burst is -sin(psi + 90k): recover psi
	sinPsi := -a0 * 32768 / amp
	cosPsi := -a1 * 32768 / amp

	sr, cr := SinCos14(rot)
	c := (cosPsi*cr - sinPsi*sr) >> 18
	s := (sinPsi*cr + cosPsi*sr) >> 18

	refI = [CBFreq]int{c, -s, -c, s}
	refQ = [CBFreq]int{s, c, -s, -c}
	return refI, refQ, true
}

// Decode adds noise to the modulated field, tracks its sync and draws the
// result into the bound output buffer. It always produces a full frame.
func (d *Device) Decode(noise int) {
	d.checkOutput()
	d.InjectNoise(noise)
	offsets, vshift := d.track()

	cal := d.cal.Clamped()
	rot := Degrees(iAxisPhase + cal.Hue)
	lo := (BlackLevel + cal.BlackPoint) << 8
	span := cal.WhitePoint - BlackLevel - cal.BlackPoint

	var (
		sig    [HRes]int
		line   yiqLine
		burst  burstLock
		filter = newLineFilters()
		beam   = newBeam(noise)
	)

	shift := 0
	if d.field == 1 {
		shift = d.outh / Lines / 2
	}

	for y := 0; y < Lines; y++ {
		n := posmod(Top+y+vshift, VRes)
		base := n*HRes + offsets[n]
		for c := range sig {
			sig[c] = int(d.inp[posmod(base+c, InputSize)])
		}
		ph0 := posmod(base, CBFreq)

		burst.update(&sig, ph0)
		refI, refQ, color := burst.carriers(rot)

		active := sig[AVBeg : AVBeg+AVLen]
		for x := 0; x < AVLen; x++ {
			// four samples span one carrier cycle, which nulls the
			// subcarrier in luma and the double-frequency terms in chroma
			w := x
			if w > AVLen-CBFreq {
				w = AVLen - CBFreq
			}
			var ys, is, qs int
			for j := w; j < w+CBFreq; j++ {
				s := active[j]
				k := (ph0 + AVBeg + j) & (CBFreq - 1)
				ys += s
				is += s * refI[k]
				qs += s * refQ[k]
			}
			fy, fi, fq := ys<<6, is>>5, qs>>5
			if !color {
				fi, fq = 0, 0
			}
			if x == 0 {
				filter.prime(fy, fi, fq)
			}
			fy, fi, fq = filter.next(fy, fi, fq)

			// contrast, brightness, saturation, then black and white point
			fy = BlackLevel<<8 + (fy-BlackLevel<<8)*cal.Contrast/100 + cal.Brightness<<8
			fi = fi * cal.Saturation / 100
			fq = fq * cal.Saturation / 100

			line.y[x] = clamp((fy-lo)*255/span, 0, 255<<8)
			line.i[x] = fi * 255 / span
			line.q[x] = fq * 255 / span
		}

		scanL, lineW := 0, AVLen-1
		if d.bloom {
			beam.soften(&line)
			scanL, lineW = beam.width(active)
		}

		beg := y*d.outh/Lines + shift
		end := (y+1)*d.outh/Lines + shift
		if y == 0 {
			beg = 0
		}
		if y == Lines-1 || end > d.outh {
			end = d.outh
		}
		if beg >= end {
			continue
		}
		row := d.out[beg*d.outw : (beg+1)*d.outw]
		d.drawRow(row, &line, scanL, lineW)
		for r := beg + 1; r < end; r++ {
			copy(d.out[r*d.outw:(r+1)*d.outw], row)
		}
	}
}

// drawRow resamples a line into an output row, linearly interpolating in
// 20.12 fixed point. Positions outside the active line are drawn black.
func (d *Device) drawRow(row []uint32, l *yiqLine, scanL, lineW int) {
	dx := (lineW << 12) / d.outw
	pos := scanL << 12
	for x := range row {
		s := pos >> 12
		if pos < 0 || s >= AVLen-1 {
			row[x] = 0
			pos += dx
			continue
		}
		fr := pos & 0xfff
		fl := 0x1000 - fr
		y := (l.y[s]*fl + l.y[s+1]*fr) >> 12
		i := (l.i[s]*fl + l.i[s+1]*fr) >> 12
		q := (l.q[s]*fl + l.q[s+1]*fr) >> 12
		row[x] = pack(y, i, q)
		pos += dx
	}
}

// pack converts calibrated YIQ with 8 fractional bits to 0x00RRGGBB.
func pack(y, i, q int) uint32 {
	r := y + (riCoef*i+rqCoef*q)>>12
	g := y + (giCoef*i+gqCoef*q)>>12
	b := y + (biCoef*i+bqCoef*q)>>12
	return uint32(to8(r))<<16 | uint32(to8(g))<<8 | uint32(to8(b))
}

func to8(v int) int {
	return clamp((v+128)>>8, 0, 255)
}
