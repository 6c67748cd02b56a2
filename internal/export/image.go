// Package export turns decoded archive content into files other tools
// understand: PNG images and a YAML manifest.
package export

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"

	"github.com/ossyrian/rezparse/internal/pid"
)

// Options control how a PID image is rendered.
type Options struct {
	// Fallback is used for images without an embedded palette. A nil
	// fallback renders those images as a grayscale ramp.
	Fallback *pid.Palette

	// ApplyFlip mirrors the pixels according to the image's flip flags.
	ApplyFlip bool
}

// Paletted converts img to an image.Paletted. When the transparency flag
// is set, index 0 is fully transparent.
func Paletted(img *pid.Image, opts Options) *image.Paletted {
	w, h := int(img.Width), int(img.Height)
	dst := image.NewPaletted(image.Rect(0, 0, w, h), colorPalette(img, opts.Fallback))

	flipH := opts.ApplyFlip && img.Flags.FlipHorizontal()
	flipV := opts.ApplyFlip && img.Flags.FlipVertical()

	for y := range h {
		sy := y
		if flipV {
			sy = h - 1 - y
		}
		row := img.Pixels[sy*w : sy*w+w]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		if !flipH {
			copy(out, row)
			continue
		}
		for x := range w {
			out[x] = row[w-1-x]
		}
	}

	return dst
}

func colorPalette(img *pid.Image, fallback *pid.Palette) color.Palette {
	src := img.Palette
	if src == nil {
		src = fallback
	}

	pal := make(color.Palette, len(pid.Palette{}))
	for i := range pal {
		if src == nil {
			pal[i] = color.NRGBA{R: uint8(i), G: uint8(i), B: uint8(i), A: 0xFF}
			continue
		}
		c := src[i]
		pal[i] = color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xFF}
	}

	if img.Flags.UseTransparency() {
		pal[0] = color.NRGBA{}
	}
	return pal
}

// WritePNG encodes img as PNG. A scale above 1 enlarges it with
// nearest-neighbour sampling so pixel edges stay sharp.
func WritePNG(w io.Writer, img *image.Paletted, scale int) error {
	out := img
	if scale > 1 {
		b := img.Bounds()
		out = image.NewPaletted(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale), img.Palette)
		xdraw.NearestNeighbor.Scale(out, out.Bounds(), img, b, xdraw.Src, nil)
	}

	if err := png.Encode(w, out); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
