package sdr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ntsccrt/crt"
)

type constSignal int8

func (c constSignal) CopyAnalog(dst []int8) int {
	for i := range dst {
		dst[i] = int8(c)
	}
	return len(dst)
}

func TestAmplitude(t *testing.T) {
	assert.Equal(t, int8(peakAmplitude), Amplitude(crt.SyncLevel))
	assert.Equal(t, int8(whiteAmplitude), Amplitude(crt.WhiteLevel))
	assert.Equal(t, int8(0), Amplitude(127))
	assert.Equal(t, int8(peakAmplitude), Amplitude(-128))

	// brighter is always less carrier
	for ire := -127; ire <= 127; ire++ {
		assert.LessOrEqual(t, Amplitude(int8(ire)), Amplitude(int8(ire-1)))
	}
}

func TestFillWrapsAroundField(t *testing.T) {
	tx := NewTransmitter()
	tx.Update(constSignal(crt.SyncLevel))

	buf := make([]byte, 2*1000)
	for i := 0; i < crt.InputSize/1000+1; i++ {
		require.NoError(t, tx.fill(buf))
	}
	assert.Equal(t, (crt.InputSize/1000+1)*1000%crt.InputSize, tx.pos)
	assert.Equal(t, byte(peakAmplitude), buf[0])
	assert.Equal(t, byte(0), buf[1])
}

func TestFillWhileUpdating(t *testing.T) {
	tx := NewTransmitter()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			tx.Update(constSignal(crt.WhiteLevel))
			tx.Update(constSignal(crt.SyncLevel))
		}
	}()

	buf := make([]byte, 2*4096)
	for i := 0; i < 20; i++ {
		require.NoError(t, tx.fill(buf))
	}
	<-done

	require.NoError(t, tx.fill(buf))
	for i := 0; i < len(buf); i += 2 {
		assert.Equal(t, byte(peakAmplitude), buf[i])
	}
}

func TestFillStreamsModulatedField(t *testing.T) {
	d := crt.New(8, 8, make([]uint32, 64))
	img := make([]uint32, 4)
	d.Modulate(crt.FieldSettings{Image: img, Width: 2, Height: 2, Color: true})

	tx := NewTransmitter()
	tx.Update(d)

	buf := make([]byte, 2*crt.HRes)
	require.NoError(t, tx.fill(buf))
	// the first line opens with an equalizing pulse
	assert.Equal(t, byte(peakAmplitude), buf[0])
	assert.Equal(t, byte(Amplitude(crt.BlankLevel)), buf[2*(crt.HRes-1)])
}
