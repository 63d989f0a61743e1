// Package ppm reads and writes binary (P6) portable pixmaps as packed
// 0x00RRGGBB pixels.
package ppm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

var (
	// ErrInvalidFormat is returned for a header that is not a valid P6 pixmap.
	ErrInvalidFormat = errors.New("ppm: invalid format")
	// ErrTruncated is returned when the pixel data ends early.
	ErrTruncated = errors.New("ppm: truncated pixel data")
	// ErrTooLarge is returned when the image would need more than MaxPixels.
	ErrTooLarge = errors.New("ppm: image too large")
)

// MaxPixels bounds the size of images Read will allocate.
const MaxPixels = 1 << 26

// Image is a row-major, top-left origin image of packed 0x00RRGGBB pixels.
type Image struct {
	Width, Height int
	Pix           []uint32
}

// New allocates a black image.
func New(w, h int) *Image {
	return &Image{Width: w, Height: h, Pix: make([]uint32, w*h)}
}

// Read decodes a P6 pixmap. Comments starting with '#' may appear anywhere
// in the header. Samples are scaled to 0..255 when the maximum value is
// lower.
func Read(r io.Reader) (*Image, error) {
	br := bufio.NewReader(r)

	magic, err := token(br)
	if err != nil {
		return nil, err
	}
	if magic != "P6" {
		return nil, fmt.Errorf("%w: magic %q", ErrInvalidFormat, magic)
	}

	var hdr [3]int
	for i, name := range []string{"width", "height", "max value"} {
		tok, err := token(br)
		if err != nil {
			return nil, err
		}
		v, err := strconv.Atoi(tok)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("%w: %s %q", ErrInvalidFormat, name, tok)
		}
		hdr[i] = v
	}
	w, h, maxval := hdr[0], hdr[1], hdr[2]
	if maxval > 0xff {
		return nil, fmt.Errorf("%w: max value %d exceeds 255", ErrInvalidFormat, maxval)
	}
	if w > MaxPixels/h {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, w, h)
	}

	img := New(w, h)
	row := make([]byte, 3*w)
	for y := 0; y < h; y++ {
		if _, err := io.ReadFull(br, row); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, fmt.Errorf("%w: row %d of %d", ErrTruncated, y, h)
			}
			return nil, fmt.Errorf("ppm: reading pixels: %w", err)
		}
		pix := img.Pix[y*w : (y+1)*w]
		for x := range pix {
			r, g, b := scale(row[3*x], maxval), scale(row[3*x+1], maxval), scale(row[3*x+2], maxval)
			pix[x] = r<<16 | g<<8 | b
		}
	}
	return img, nil
}

func scale(v byte, maxval int) uint32 {
	if maxval == 0xff {
		return uint32(v)
	}
	s := int(v) * 0xff / maxval
	if s > 0xff {
		s = 0xff
	}
	return uint32(s)
}

// token returns the next whitespace separated header field, skipping
// comments. The single whitespace byte ending the field is consumed.
func token(br *bufio.Reader) (string, error) {
	var tok []byte
	for {
		c, err := br.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(tok) > 0 {
					return string(tok), nil
				}
				return "", fmt.Errorf("%w: header ends early", ErrInvalidFormat)
			}
			return "", fmt.Errorf("ppm: reading header: %w", err)
		}
		switch {
		case c == '#' && len(tok) == 0:
			if _, err := br.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
				return "", fmt.Errorf("ppm: reading header: %w", err)
			}
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, c)
			if len(tok) > 32 {
				return "", fmt.Errorf("%w: header field too long", ErrInvalidFormat)
			}
		}
	}
}

// ReadFile reads a P6 pixmap from the named file.
func ReadFile(name string) (*Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return img, nil
}

// Write encodes img as a P6 pixmap with a maximum value of 255.
func Write(w io.Writer, img *Image) error {
	if img.Width <= 0 || img.Height <= 0 || len(img.Pix) < img.Width*img.Height {
		return fmt.Errorf("%w: %dx%d image with %d pixels", ErrInvalidFormat, img.Width, img.Height, len(img.Pix))
	}
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P6\n%d %d\n255\n", img.Width, img.Height); err != nil {
		return err
	}
	row := make([]byte, 3*img.Width)
	for y := 0; y < img.Height; y++ {
		for x, p := range img.Pix[y*img.Width : (y+1)*img.Width] {
			row[3*x] = byte(p >> 16)
			row[3*x+1] = byte(p >> 8)
			row[3*x+2] = byte(p)
		}
		if _, err := bw.Write(row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes img to the named file, replacing it.
func WriteFile(name string, img *Image) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := Write(f, img); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	return f.Close()
}
