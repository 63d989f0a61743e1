package crt

// Bandwidths, in units of 10 Hz so the full sample rate fits the same scale.
const (
	lineFreq = 1431818 // 14.31818 MHz
	yFreq    = 420000  // luma (Y) 4.2 MHz
	iFreq    = 150000  // chroma (I) 1.5 MHz
	qFreq    = 55000   // chroma (Q) 0.55 MHz
)

// iirLP is a one-pole infinite impulse response low-pass filter.
type iirLP struct {
	c int // coefficient, expP fractional bits
	h int // history
}

// newIIR builds a filter passing limit out of a total bandwidth of freq.
func newIIR(freq, limit int) iirLP {
	rate := (freq << 9) / limit
	return iirLP{c: expOne - expx(-((expPi << 9) / rate))}
}

// prime sets the history so a constant input s passes through unchanged
// from the first sample.
func (f *iirLP) prime(s int) {
	f.h = s
}

func (f *iirLP) next(s int) int {
	f.h += (s - f.h) * f.c >> expP
	return f.h
}

// lineFilters band-limits the three components of one scanline.
type lineFilters struct {
	y, i, q iirLP
}

func newLineFilters() lineFilters {
	return lineFilters{
		y: newIIR(lineFreq, yFreq),
		i: newIIR(lineFreq, iFreq),
		q: newIIR(lineFreq, qFreq),
	}
}

func (l *lineFilters) prime(y, i, q int) {
	l.y.prime(y)
	l.i.prime(i)
	l.q.prime(q)
}

func (l *lineFilters) next(y, i, q int) (int, int, int) {
	return l.y.next(y), l.i.next(i), l.q.next(q)
}
