package crt

// Calibration holds the monitor controls applied while decoding. Values
// outside their range are clamped when used.
type Calibration struct {
	Brightness int `yaml:"brightness"` // IRE offset added to luma
	Contrast   int `yaml:"contrast"`   // percent gain on luma above black
	Saturation int `yaml:"saturation"` // percent gain on I and Q
	BlackPoint int `yaml:"black_point"`
	WhitePoint int `yaml:"white_point"`
	Hue        int `yaml:"hue"` // degrees
}

// Ranges of the calibration controls.
const (
	MinBrightness, MaxBrightness = -50, 50
	MinContrast, MaxContrast     = 0, 400
	MinSaturation, MaxSaturation = 0, 400
	MinBlackPoint, MaxBlackPoint = -20, 50
	MinWhitePoint, MaxWhitePoint = 60, 127
	MinHue, MaxHue               = -180, 180
)

// DefaultCalibration returns the controls of a freshly reset monitor.
func DefaultCalibration() Calibration {
	return Calibration{
		Brightness: 0,
		Contrast:   100,
		Saturation: 100,
		BlackPoint: 0,
		WhitePoint: 100,
		Hue:        0,
	}
}

// Clamped returns a copy with every control inside its range.
func (c Calibration) Clamped() Calibration {
	c.Brightness = clamp(c.Brightness, MinBrightness, MaxBrightness)
	c.Contrast = clamp(c.Contrast, MinContrast, MaxContrast)
	c.Saturation = clamp(c.Saturation, MinSaturation, MaxSaturation)
	c.BlackPoint = clamp(c.BlackPoint, MinBlackPoint, MaxBlackPoint)
	c.WhitePoint = clamp(c.WhitePoint, MinWhitePoint, MaxWhitePoint)
	c.Hue = clamp(c.Hue, MinHue, MaxHue)
	return c
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func posmod(x, n int) int {
	x %= n
	if x < 0 {
		x += n
	}
	return x
}
