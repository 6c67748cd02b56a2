// Package pid decodes PID images: paletted bitmaps with one of two
// run-length pixel encodings and an optional embedded palette.
package pid

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const (
	// HeaderSize is the fixed size of the image header.
	HeaderSize = 24

	// PaletteSize is the size of an embedded or stand-alone palette:
	// 256 RGB triples.
	PaletteSize = 256 * 3
)

var (
	// ErrTruncatedHeader is returned when data is shorter than HeaderSize.
	ErrTruncatedHeader = errors.New("truncated image header")

	// ErrTruncatedPalette is returned when fewer than PaletteSize bytes
	// follow the pixel stream of an image that declares a palette.
	ErrTruncatedPalette = fmt.Errorf("%w: truncated palette", ErrCorruptCompressedStream)
)

// Header is the fixed part of an image record.
type Header struct {
	ID         int32
	Flags      Flags
	Width      uint32
	Height     uint32
	UserValues [4]int32 // application defined
}

// PixelCount returns Width*Height, or an error if it does not fit in an int.
func (h Header) PixelCount() (int, error) {
	n := uint64(h.Width) * uint64(h.Height)
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %dx%d image is too large", ErrCorruptCompressedStream, h.Width, h.Height)
	}
	return int(n), nil
}

// ReadHeader decodes the 24-byte image header at the start of data.
func ReadHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: need %d bytes, got %d", ErrTruncatedHeader, HeaderSize, len(data))
	}

	le := binary.LittleEndian
	h := Header{
		ID:     int32(le.Uint32(data[0:])),
		Flags:  Flags(le.Uint32(data[4:])),
		Width:  le.Uint32(data[8:]),
		Height: le.Uint32(data[12:]),
	}
	for i := range h.UserValues {
		h.UserValues[i] = int32(le.Uint32(data[16+4*i:]))
	}
	return h, nil
}

// RGB is one palette entry.
type RGB struct {
	R, G, B uint8
}

// Palette maps pixel indices to colors.
type Palette [256]RGB

// ReadPalette decodes 256 RGB triples from the start of data.
func ReadPalette(data []byte) (*Palette, error) {
	if len(data) < PaletteSize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrTruncatedPalette, PaletteSize, len(data))
	}

	p := &Palette{}
	for i := range p {
		p[i] = RGB{R: data[3*i], G: data[3*i+1], B: data[3*i+2]}
	}
	return p, nil
}

// Image is a decoded PID image.
type Image struct {
	Header

	// Pixels holds Width*Height palette indices, row major.
	Pixels []byte

	// Palette is nil unless the palette flag is set.
	Palette *Palette

	// End is the offset just past the last byte read from the input.
	End int
}

// Decode decodes a complete image record. Pixels are always freshly
// allocated; data is never modified.
func Decode(data []byte) (*Image, error) {
	h, err := ReadHeader(data)
	if err != nil {
		return nil, err
	}

	count, err := h.PixelCount()
	if err != nil {
		return nil, err
	}

	method := h.Flags.Compression()
	pixels, n, err := Decompress(method, data[HeaderSize:], count)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %dx%d %s image: %w", h.Width, h.Height, method, err)
	}

	img := &Image{
		Header: h,
		Pixels: pixels,
		End:    HeaderSize + n,
	}

	if h.Flags.HasPalette() {
		img.Palette, err = ReadPalette(data[img.End:])
		if err != nil {
			return nil, err
		}
		img.End += PaletteSize
	}

	return img, nil
}
