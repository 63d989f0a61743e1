package crt

// InjectNoise copies the analog field to the receiver input, adding a
// uniform deviation of up to noise/2 IRE to every sample. The generator is
// a linear congruential sequence whose state lives in the Device, so the
// same history of calls always yields the same input.
func (d *Device) InjectNoise(noise int) {
	if noise <= 0 {
		copy(d.inp[:], d.analog[:])
		return
	}
	rn := d.rn
	for i, a := range d.analog {
		rn = 214019*rn + 140327895
		s := int(a) + ((int(rn>>16&0xff)-0x7f)*noise)>>8
		d.inp[i] = int8(clamp(s, -127, 127))
	}
	d.rn = rn
}

// Seed resets the noise generator.
func (d *Device) Seed(seed uint32) {
	d.rn = seed
}
