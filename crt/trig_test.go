package crt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestSinCos14MatchesMath(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(-2*T14TwoPi, 2*T14TwoPi).Draw(t, "phase")
		s, c := SinCos14(n)

		rad := float64(n) * 2 * math.Pi / T14TwoPi
		assert.InDelta(t, math.Sin(rad)*32768, float64(s), 48, "sin of %d", n)
		assert.InDelta(t, math.Cos(rad)*32768, float64(c), 48, "cos of %d", n)
	})
}

func TestSinCos14Quadrants(t *testing.T) {
	cases := []struct {
		deg  int
		s, c int
	}{
		{0, 0, 32768},
		{90, 32768, 0},
		{180, 0, -32768},
		{270, -32768, 0},
		{-90, -32768, 0},
	}
	for _, tc := range cases {
		s, c := SinCos14(Degrees(tc.deg))
		assert.Equal(t, tc.s, s, "sin %d", tc.deg)
		assert.Equal(t, tc.c, c, "cos %d", tc.deg)
	}
}

func TestExpx(t *testing.T) {
	for _, x := range []float64{-3.5, -1, -0.25, 0, 0.5, 1, 2.75} {
		got := float64(expx(int(x*expOne))) / expOne
		assert.InEpsilon(t, math.Exp(x), got, 0.03, "e^%v", x)
	}
}

func TestIsqrt(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 1<<40).Draw(t, "n")
		r := isqrt(n)
		assert.LessOrEqual(t, r*r, n)
		assert.Greater(t, (r+1)*(r+1), n)
	})
}

func TestIIRPassesDC(t *testing.T) {
	for _, f := range []iirLP{newIIR(lineFreq, yFreq), newIIR(lineFreq, iFreq), newIIR(lineFreq, qFreq)} {
		assert.Greater(t, f.c, 0)
		assert.Less(t, f.c, expOne)

		f.prime(12345)
		for i := 0; i < 100; i++ {
			assert.Equal(t, 12345, f.next(12345))
		}
	}

	// a narrower band responds more slowly to a step
	y, q := newIIR(lineFreq, yFreq), newIIR(lineFreq, qFreq)
	assert.Greater(t, y.next(1<<16), q.next(1<<16))
}
