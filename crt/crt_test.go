package crt

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const (
	red     = 0xff0000
	green   = 0x00ff00
	blue    = 0x0000ff
	yellow  = 0xffff00
	cyan    = 0x00ffff
	magenta = 0xff00ff
	white   = 0xffffff
	gray    = 0x808080
	black   = 0x000000
)

func uniform(w, h int, c uint32) []uint32 {
	img := make([]uint32, w*h)
	for i := range img {
		img[i] = c
	}
	return img
}

func channels(p uint32) [3]int {
	return [3]int{int(p >> 16 & 0xff), int(p >> 8 & 0xff), int(p & 0xff)}
}

// maxDiff is the largest per-channel difference between any pixel and want.
func maxDiff(out []uint32, want uint32) int {
	w := channels(want)
	worst := 0
	for _, p := range out {
		for k, v := range channels(p) {
			if d := abs(v - w[k]); d > worst {
				worst = d
			}
		}
	}
	return worst
}

// meanDiff is the mean per-channel difference between the pixels and want.
func meanDiff(out []uint32, want uint32) float64 {
	w := channels(want)
	total := 0
	for _, p := range out {
		for k, v := range channels(p) {
			total += abs(v - w[k])
		}
	}
	return float64(total) / float64(3*len(out))
}

func roundTrip(t *testing.T, w, h int, c uint32, field int) []uint32 {
	t.Helper()
	out := make([]uint32, w*h)
	d := New(w, h, out)
	d.Modulate(FieldSettings{Image: uniform(16, 12, c), Width: 16, Height: 12, Color: true, Field: field})
	d.Decode(0)
	return out
}

// rotate shifts the analog field later by n samples, wrapping around.
func rotate(d *Device, n int) {
	src := d.analog
	for i, s := range src {
		d.analog[posmod(i+n, InputSize)] = s
	}
}

// scramble overwrites the active video of every line with random samples.
func scramble(d *Device, r *rand.Rand) {
	for y := Top; y < Bot; y++ {
		for x := AVBeg; x < AVBeg+AVLen; x++ {
			d.analog[y*HRes+x] = int8(r.Intn(256) - 128)
		}
	}
}

func TestRoundTripColors(t *testing.T) {
	for _, c := range []uint32{red, green, blue, yellow, cyan, magenta, white, gray, black} {
		for field := 0; field < 2; field++ {
			out := roundTrip(t, 40, 30, c, field)
			assert.LessOrEqual(t, maxDiff(out, c), 20, "color %06x field %d", c, field)
		}
	}
}

func TestRoundTripExactExtremes(t *testing.T) {
	assert.Equal(t, 0, maxDiff(roundTrip(t, 64, 48, white, 0), white))
	assert.Equal(t, 0, maxDiff(roundTrip(t, 64, 48, black, 0), black))
}

func TestRoundTripAnySize(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.IntRange(1, 700).Draw(t, "w")
		h := rapid.IntRange(1, 520).Draw(t, "h")
		c := rapid.Uint32Range(0, 0xffffff).Draw(t, "color")
		field := rapid.IntRange(0, 1).Draw(t, "field")

		out := make([]uint32, w*h)
		d := New(w, h, out)
		d.Modulate(FieldSettings{Image: uniform(3, 2, c), Width: 3, Height: 2, Color: true, Field: field})
		d.Decode(0)

		assert.LessOrEqual(t, maxDiff(out, c), 20, "color %06x at %dx%d", c, w, h)
	})
}

func TestMonochromeIsGray(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.IntRange(1, 16).Draw(t, "w")
		h := rapid.IntRange(1, 16).Draw(t, "h")
		img := rapid.SliceOfN(rapid.Uint32Range(0, 0xffffff), w*h, w*h).Draw(t, "img")

		out := make([]uint32, 80*60)
		d := New(80, 60, out)
		d.Modulate(FieldSettings{Image: img, Width: w, Height: h, Color: false})
		d.Decode(0)

		for i, p := range out {
			ch := channels(p)
			if ch[0] != ch[1] || ch[1] != ch[2] {
				t.Fatalf("pixel %d is %06x", i, p)
			}
		}
	})
}

func TestDeterministic(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	img := make([]uint32, 32*24)
	for i := range img {
		img[i] = uint32(r.Intn(0x1000000))
	}

	run := func() []uint32 {
		out := make([]uint32, 120*90)
		d := New(120, 90, out)
		d.SetBloom(true)
		for field := 0; field < 2; field++ {
			d.Modulate(FieldSettings{Image: img, Width: 32, Height: 24, Color: true, Field: field})
			d.Decode(40)
		}
		return out
	}
	assert.Equal(t, run(), run())
}

func TestNoiseDegradesMonotonically(t *testing.T) {
	var errs []float64
	for _, noise := range []int{0, 24, 96} {
		out := make([]uint32, 160*120)
		d := New(160, 120, out)
		d.Modulate(FieldSettings{Image: uniform(8, 8, gray), Width: 8, Height: 8, Color: true})
		d.Decode(noise)
		errs = append(errs, meanDiff(out, gray))
	}
	assert.Less(t, errs[0], errs[1])
	assert.Less(t, errs[1], errs[2])
}

func TestNoiseSequenceIsSeeded(t *testing.T) {
	a := New(8, 8, make([]uint32, 64))
	b := New(8, 8, make([]uint32, 64))
	a.InjectNoise(50)
	b.InjectNoise(50)
	assert.Equal(t, a.inp, b.inp)

	// the generator advances between calls
	first := a.inp
	a.InjectNoise(50)
	assert.NotEqual(t, first, a.inp)

	a.Seed(NoiseSeed)
	a.InjectNoise(50)
	assert.Equal(t, first, a.inp)
}

func TestResizeIsIdempotent(t *testing.T) {
	img := uniform(10, 10, magenta)

	once := make([]uint32, 64*48)
	a := New(64, 48, once)
	a.Modulate(FieldSettings{Image: img, Width: 10, Height: 10, Color: true})
	a.Decode(30)

	twice := make([]uint32, 64*48)
	b := New(32, 24, make([]uint32, 32*24))
	b.Resize(64, 48, twice)
	b.Resize(64, 48, twice)
	b.Modulate(FieldSettings{Image: img, Width: 10, Height: 10, Color: true})
	b.Decode(30)

	assert.Equal(t, once, twice)
	w, h := b.Size()
	assert.Equal(t, 64, w)
	assert.Equal(t, 48, h)
}

func TestSyncLocksOnCleanSignal(t *testing.T) {
	for field := 0; field < 2; field++ {
		d := New(64, 48, make([]uint32, 64*48))
		d.Modulate(FieldSettings{Image: uniform(4, 4, gray), Width: 4, Height: 4, Color: true, Field: field})
		d.Decode(0)

		s := d.Sync()
		assert.True(t, s.HLocked)
		assert.True(t, s.VLocked)
		assert.Equal(t, LockedField, s.State)
		assert.Equal(t, 0, s.HSync)
		assert.Equal(t, 0, s.VSync)
		assert.Equal(t, field, s.Field)
		assert.GreaterOrEqual(t, s.Found, Lines)
	}
}

func TestSyncIgnoresActiveVideo(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for field := 0; field < 2; field++ {
		d := New(64, 48, make([]uint32, 64*48))
		d.Modulate(FieldSettings{Image: uniform(4, 4, gray), Width: 4, Height: 4, Color: true, Field: field})
		scramble(d, r)
		d.Decode(0)

		s := d.Sync()
		assert.True(t, s.VLocked)
		assert.Equal(t, 0, s.HSync)
		assert.Equal(t, 0, s.VSync)
		assert.Equal(t, field, s.Field)
		assert.GreaterOrEqual(t, s.Found, Lines)
	}
}

func TestSyncHoldsUnderNoise(t *testing.T) {
	d := New(64, 48, make([]uint32, 64*48))
	img := uniform(4, 4, gray)
	for i := 0; i < 40; i++ {
		field := i & 1
		d.Modulate(FieldSettings{Image: img, Width: 4, Height: 4, Color: true, Field: field})
		d.Decode(30)

		s := d.Sync()
		require.True(t, s.VLocked, "field %d", i)
		assert.Equal(t, 0, s.VSync, "field %d", i)
		assert.Equal(t, field, s.Field, "field %d", i)
	}
}

func TestLockFieldWithEarlyLine(t *testing.T) {
	cases := []struct {
		name  string
		broad int
		field int
	}{
		{"even on time", vsyncLine * HRes, 0},
		{"even one sample early", vsyncLine*HRes - 1, 0},
		{"odd one sample early", vsyncLine*HRes + HRes/2 - 1, 1},
		{"even one sample late", vsyncLine*HRes + 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// hphase follows the hsync pulses, which share the broad pulse timing
			tr := tracker{hphase: posmod(tc.broad-vsyncLine*HRes-tc.field*HRes/2, HRes), firstBroad: tc.broad}
			tr.lockField()
			assert.True(t, tr.vLocked)
			assert.Equal(t, vsyncLine, tr.vline)
			assert.Equal(t, tc.field, tr.field)
		})
	}
}

func TestSyncFollowsShiftedSignal(t *testing.T) {
	for field := 0; field < 2; field++ {
		out := make([]uint32, 80*60)
		d := New(80, 60, out)
		d.Modulate(FieldSettings{Image: uniform(4, 4, red), Width: 4, Height: 4, Color: true, Field: field})
		rotate(d, 5*HRes+7)
		d.Decode(0)

		s := d.Sync()
		require.True(t, s.VLocked)
		assert.Equal(t, 7, s.HSync)
		assert.Equal(t, 5, s.VSync)
		assert.Equal(t, field, s.Field)
		assert.LessOrEqual(t, maxDiff(out, red), 20)
	}
}

func TestSyncFallsBackOnPureNoise(t *testing.T) {
	r := rand.New(rand.NewSource(3))

	out := make([]uint32, 40*30)
	d := New(40, 30, out)
	d.Modulate(FieldSettings{Image: uniform(4, 4, red), Width: 4, Height: 4, Color: true})
	rotate(d, 5*HRes+7)
	d.Decode(0)
	require.True(t, d.Sync().VLocked)

	for i := range d.analog {
		d.analog[i] = int8(r.Intn(81) - 40)
	}
	assert.NotPanics(t, func() { d.Decode(0) })

	s := d.Sync()
	assert.False(t, s.VLocked)
	assert.False(t, s.HLocked)
	assert.Equal(t, 0, s.Found)
	// the last timing that worked is kept
	assert.Equal(t, 7, s.HSync)
	assert.Equal(t, 5, s.VSync)
}

func TestResetKeepsSync(t *testing.T) {
	d := New(40, 30, make([]uint32, 40*30))
	d.Modulate(FieldSettings{Image: uniform(4, 4, gray), Width: 4, Height: 4, Color: true, Field: 1})
	rotate(d, 3*HRes+2)
	d.Decode(0)
	before := d.Sync()

	d.SetCalibration(Calibration{Brightness: 10, Contrast: 150, Saturation: 50, WhitePoint: 90, Hue: 20})
	d.SetBloom(true)
	d.Reset()

	assert.Equal(t, DefaultCalibration(), d.Calibration())
	assert.False(t, d.Bloom())
	assert.Equal(t, before, d.Sync())
	assert.Equal(t, 3, d.Sync().VSync)
}

func TestCalibrationClamped(t *testing.T) {
	d := New(8, 8, make([]uint32, 64))
	d.SetCalibration(Calibration{
		Brightness: 999,
		Contrast:   -5,
		Saturation: 1000,
		BlackPoint: -100,
		WhitePoint: 10,
		Hue:        720,
	})
	assert.Equal(t, Calibration{
		Brightness: MaxBrightness,
		Contrast:   MinContrast,
		Saturation: MaxSaturation,
		BlackPoint: MinBlackPoint,
		WhitePoint: MinWhitePoint,
		Hue:        MaxHue,
	}, d.Calibration())
}

func TestCalibrationControls(t *testing.T) {
	decode := func(c uint32, cal Calibration) uint32 {
		out := make([]uint32, 32*24)
		d := New(32, 24, out)
		d.SetCalibration(cal)
		d.Modulate(FieldSettings{Image: uniform(4, 4, c), Width: 4, Height: 4, Color: true})
		d.Decode(0)
		return out[12*32+16]
	}

	base := channels(decode(gray, DefaultCalibration()))

	bright := DefaultCalibration()
	bright.Brightness = 20
	assert.Greater(t, channels(decode(gray, bright))[0], base[0])

	flat := DefaultCalibration()
	flat.Contrast = 50
	assert.Less(t, channels(decode(gray, flat))[0], base[0])

	noSat := DefaultCalibration()
	noSat.Saturation = 0
	ch := channels(decode(red, noSat))
	assert.Equal(t, ch[0], ch[1])
	assert.Equal(t, ch[1], ch[2])

	flipped := DefaultCalibration()
	flipped.Hue = 180
	ch = channels(decode(red, flipped))
	assert.Less(t, ch[0], 40)
	assert.Greater(t, ch[1], 100)
	assert.Greater(t, ch[2], 100)
}

func TestBloomDarkensBorder(t *testing.T) {
	out := make([]uint32, 64*48)
	d := New(64, 48, out)
	d.SetBloom(true)
	d.Modulate(FieldSettings{Image: uniform(4, 4, white), Width: 4, Height: 4, Color: true})
	d.Decode(0)

	for y := 0; y < 48; y++ {
		row := out[y*64 : (y+1)*64]
		assert.Equal(t, uint32(0), row[0], "row %d left", y)
		assert.Equal(t, uint32(0), row[63], "row %d right", y)
		assert.Equal(t, uint32(white), row[32], "row %d middle", y)
	}
}

func TestInvalidSizesPanic(t *testing.T) {
	d := New(8, 8, make([]uint32, 10))
	assert.Panics(t, func() { d.Decode(0) })

	d = New(8, 8, make([]uint32, 64))
	assert.Panics(t, func() {
		d.Modulate(FieldSettings{Image: make([]uint32, 3), Width: 2, Height: 2})
	})
	assert.Panics(t, func() {
		d.Modulate(FieldSettings{Width: 0, Height: 4})
	})
}

func TestCopyAnalog(t *testing.T) {
	d := New(8, 8, make([]uint32, 64))
	d.Modulate(FieldSettings{Image: uniform(2, 2, white), Width: 2, Height: 2, Color: true})

	buf := make([]int8, InputSize)
	require.Equal(t, InputSize, d.CopyAnalog(buf))

	line := buf[(Top+10)*HRes : (Top+11)*HRes]
	assert.Equal(t, int8(SyncLevel), line[SyncBeg])
	assert.Equal(t, int8(BlankLevel), line[SyncBeg-1])
	assert.Equal(t, int8(WhiteLevel), line[AVBeg+AVLen/2])
	// burst at the four carrier phases
	var seen [4]bool
	for _, s := range line[CBBeg : CBBeg+cbLen] {
		switch s {
		case 0:
			seen[0] = true
		case BurstLevel:
			seen[1] = true
		case -BurstLevel:
			seen[2] = true
		default:
			seen[3] = true
		}
	}
	assert.Equal(t, [4]bool{true, true, true, false}, seen)
}
