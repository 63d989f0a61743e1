package crt

import "fmt"

// FieldSettings describes one field to modulate. None of it is retained
// after Modulate returns.
type FieldSettings struct {
	Image  []uint32 // packed 0x00RRGGBB, row major, top-left origin
	Width  int
	Height int
	Color  bool // false transmits luma only, without a color burst
	Field  int  // 0 for the even field, 1 for the odd field
}

// carrier holds the subcarrier and burst for each of the four sample phases.
type carrier struct {
	cos, sin [CBFreq]int // I and Q axes, 15-bit fixed point
	burst    [CBFreq]int // IRE
}

func newCarrier() carrier {
	var c carrier
	for k := 0; k < CBFreq; k++ {
		c.sin[k], c.cos[k] = SinCos14(Degrees(iAxisPhase + k*90))
		s, _ := SinCos14(Degrees(k * 90))
		c.burst[k] = -((BurstLevel*s + 1<<14) >> 15)
	}
	return c
}

// phase is the carrier phase index of an absolute sample position. The odd
// field is shifted half a carrier cycle.
func phase(pos, field int) int {
	return (pos + 2*field) & (CBFreq - 1)
}

// Modulate synthesizes one field of composite video from s into the
// Device's analog buffer.
func (d *Device) Modulate(s FieldSettings) {
	if s.Width <= 0 || s.Height <= 0 || len(s.Image) < s.Width*s.Height {
		panic(fmt.Sprintf("crt: image of %d pixels does not hold %dx%d", len(s.Image), s.Width, s.Height))
	}
	field := s.Field & 1
	cc := newCarrier()

	for n := 0; n < VRes; n++ {
		line := d.analog[n*HRes : (n+1)*HRes]
		switch {
		case n < vsyncLine || (n >= eqAfter && n < eqEnd):
			pulses(line, eqPulse)
		case n < eqAfter:
			if field == 1 {
				pulses(line, broadOdd)
			} else {
				pulses(line, broadEven)
			}
		default:
			fill(line[:SyncBeg], BlankLevel)
			fill(line[SyncBeg:BWBeg], SyncLevel)
			fill(line[BWBeg:], BlankLevel)
			if s.Color {
				for t := CBBeg; t < CBBeg+cbLen; t++ {
					line[t] = int8(BlankLevel + cc.burst[phase(n*HRes+t, field)])
				}
			}
		}
	}

	filters := newLineFilters()
	step := (s.Width << 16) / AVLen

	for y := 0; y < Lines; y++ {
		sy := ((2*y + field) * s.Height) / (2 * Lines)
		if sy >= s.Height {
			sy = s.Height - 1
		}
		row := s.Image[sy*s.Width : (sy+1)*s.Width]
		base := (Top+y)*HRes + AVBeg

		acc := step / 2
		for x := 0; x < AVLen; x++ {
			fy, fi, fq := yiq(row[acc>>16])
			acc += step
			if !s.Color {
				fi, fq = 0, 0
			}
			if x == 0 {
				filters.prime(fy, fi, fq)
			}
			fy, fi, fq = filters.next(fy, fi, fq)

			k := phase(base+x, field)
			chroma := (fi*cc.cos[k] + fq*cc.sin[k]) >> 15
			ire := BlackLevel<<8 + (fy+chroma)*(WhiteLevel-BlackLevel)/255
			d.analog[base+x] = int8(clamp((ire+128)>>8, compositeMin, compositeMax))
		}
	}
}

// yiq converts a packed pixel to luma and chroma with 8 fractional bits, in
// the 0..255 scale of the source.
func yiq(p uint32) (y, i, q int) {
	r := int(p >> 16 & 0xff)
	g := int(p >> 8 & 0xff)
	b := int(p & 0xff)
	y = (4899*r + 9617*g + 1868*b) >> 6
	i = (9765*r - 4489*g - 5276*b) >> 6
	q = (3457*r - 8569*g + 5112*b) >> 6
	return y, i, q
}

// pulses writes sync from 0 to edge[0], blank to edge[1], sync to edge[2]
// and blank to edge[3], edges given in percent of the line.
func pulses(line []int8, edge [4]int) {
	t := 0
	for i, e := range edge {
		level := int8(SyncLevel)
		if i&1 == 1 {
			level = BlankLevel
		}
		end := e * HRes / 100
		fill(line[t:end], level)
		t = end
	}
}

func fill(s []int8, v int8) {
	for i := range s {
		s[i] = v
	}
}
