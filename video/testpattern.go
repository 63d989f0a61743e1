package video

// barColors are the seven 75% SMPTE color bars, left to right.
var barColors = [7]uint32{
	0xc0c0c0, // gray
	0xc0c000, // yellow
	0x00c0c0, // cyan
	0x00c000, // green
	0xc000c0, // magenta
	0xc00000, // red
	0x0000c0, // blue
}

// FillColorBars fills a w by h image of packed pixels with SMPTE color bars.
// The bottom quarter carries the reversed blue bars and a black to white
// step for checking calibration.
func FillColorBars(img []uint32, w, h int) {
	barWidth := w / 7
	if barWidth == 0 {
		barWidth = 1
	}
	split := h * 3 / 4
	for y := 0; y < h; y++ {
		row := img[y*w : (y+1)*w]
		for x := range row {
			idx := x / barWidth
			if idx >= 7 {
				idx = 6
			}
			if y < split {
				row[x] = barColors[idx]
				continue
			}
			// castellations below the main bars
			if y < split+h/12 {
				if idx&1 == 0 {
					row[x] = barColors[6-idx]
				} else {
					row[x] = 0
				}
				continue
			}
			v := uint32(x * 255 / max(w-1, 1))
			row[x] = v<<16 | v<<8 | v
		}
	}
}

// Fill sets every pixel of img to c.
func Fill(img []uint32, c uint32) {
	for i := range img {
		img[i] = c
	}
}

// RGB24 packs pixels into 3-byte rgb24 samples. dst must hold 3*len(src)
// bytes.
func RGB24(dst []byte, src []uint32) {
	for i, p := range src {
		dst[3*i] = byte(p >> 16)
		dst[3*i+1] = byte(p >> 8)
		dst[3*i+2] = byte(p)
	}
}

// Packed converts rgb24 samples to packed 0x00RRGGBB pixels. dst must hold
// len(src)/3 pixels.
func Packed(dst []uint32, src []byte) {
	for i := range dst {
		if 3*i+2 >= len(src) {
			return
		}
		dst[i] = uint32(src[3*i])<<16 | uint32(src[3*i+1])<<8 | uint32(src[3*i+2])
	}
}
