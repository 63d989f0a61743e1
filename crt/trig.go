package crt

// Phase is a 14-bit angle: T14TwoPi is a full turn.
const (
	T14TwoPi = 16384
	t14Mask  = T14TwoPi - 1
	t14Pi    = T14TwoPi / 2
	t14Half  = T14TwoPi / 4
)

// quarterSine holds sin(k * 90/16 degrees) as 15-bit fixed point. The extra
// entry past 90 degrees lets the interpolation read one element ahead.
var quarterSine = [18]int{
	0,
	3212, 6393, 9512, 12540, 15447, 18205, 20788, 23170,
	25330, 27246, 28899, 30274, 31357, 32138, 32610, 32768,
	32610,
}

// quarter returns sin for n in [0, t14Half], interpolating between table
// entries with an 8-bit fraction.
func quarter(n int) int {
	f := n & 0xff
	i := n >> 8 & 0xff
	a := quarterSine[i]
	b := quarterSine[i+1]
	return a + ((b - a) * f >> 8)
}

// SinCos14 returns the sine and cosine of a 14-bit phase, scaled so that
// 1.0 == 32768.
func SinCos14(n int) (s, c int) {
	n &= t14Mask
	h := n & (t14Pi - 1)

	if h > t14Half-1 {
		c = -quarter(h - t14Half)
		s = quarter(t14Pi - h)
	} else {
		c = quarter(t14Half - h)
		s = quarter(h)
	}
	if n > t14Pi-1 {
		c, s = -c, -s
	}
	return s, c
}

// Degrees converts an angle in degrees to a 14-bit phase.
func Degrees(deg int) int {
	return deg * T14TwoPi / 360
}

// Fixed-point exponential, 11 fractional bits.
const (
	expP    = 11
	expOne  = 1 << expP
	expMask = expOne - 1
	expPi   = 6434
)

// e^0 .. e^4
var expInt = [5]int{expOne, 5567, 15133, 41135, 111817}

func expMul(x, y int) int { return x * y >> expP }

// expx computes e^(n/2048) with a Taylor series for the fractional part.
func expx(n int) int {
	if n == 0 {
		return expOne
	}
	neg := n < 0
	if neg {
		n = -n
	}
	idx := n >> expP
	res := expOne
	for i := 0; i < idx/4; i++ {
		res = expMul(res, expInt[4])
	}
	if idx&3 > 0 {
		res = expMul(res, expInt[idx&3])
	}

	n &= expMask
	term, acc, fact := expOne, 0, 1
	for i := 1; i < 17; i++ {
		acc += term / fact
		term = expMul(term, n)
		fact *= i
		if fact > term || term <= 0 || fact <= 0 {
			break
		}
	}
	res = expMul(res, acc)

	if neg {
		res = (expOne << expP) / res
	}
	return res
}

// isqrt is the integer square root of a non-negative n.
func isqrt(n int) int {
	if n <= 0 {
		return 0
	}
	x := n
	y := (x + 1) / 2
	for y < x {
		x = y
		y = (x + n/x) / 2
	}
	return x
}
