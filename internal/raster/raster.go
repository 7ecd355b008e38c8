// Package raster turns source images into the packed 1-bit bitmap a
// print job embeds: grayscale with contrast correction, rotated to the
// long side, scaled to the label and Floyd-Steinberg dithered.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"
	"log/slog"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/mzyy94/nelprint/internal/tspl"
)

// Target print area on the 14x40 mm stock.
const (
	TargetWidth  = 8 * tspl.BitmapRowBytes // 96 dots across
	TargetHeight = tspl.BitmapRows         // 284 rows
)

// Produce renders an image into the printer's bitmap format: row-major,
// MSB first, white bits set. The result is always exactly
// tspl.BitmapSize bytes; area below the image is padded with 0xFF so
// the printer leaves the tail of the label blank instead of black.
func Produce(r io.Reader) ([]byte, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	slog.Debug("image decoded", "format", format,
		"width", src.Bounds().Dx(), "height", src.Bounds().Dy())

	gray := toGray(src)
	autocontrast(gray)
	adjustContrast(gray, 2.0)

	if gray.Bounds().Dx() > gray.Bounds().Dy() {
		gray = rotateCCW(gray)
	}
	gray = fit(gray, TargetWidth, TargetHeight)

	return pack(dither(gray)), nil
}

// toGray flattens any decoded image to 8-bit grayscale.
func toGray(src image.Image) *image.Gray {
	b := src.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// autocontrast stretches the histogram so the darkest occupied level
// maps to 0 and the lightest to 255. Flat images are left alone.
func autocontrast(img *image.Gray) {
	lo, hi := 255, 0
	for _, p := range img.Pix {
		if int(p) < lo {
			lo = int(p)
		}
		if int(p) > hi {
			hi = int(p)
		}
	}
	if lo >= hi {
		return
	}
	scale := 255.0 / float64(hi-lo)
	for i, p := range img.Pix {
		img.Pix[i] = uint8(float64(int(p)-lo)*scale + 0.5)
	}
}

// adjustContrast scales each pixel's distance from the image mean by
// factor, clamped to the 8-bit range.
func adjustContrast(img *image.Gray, factor float64) {
	if len(img.Pix) == 0 {
		return
	}
	var sum int
	for _, p := range img.Pix {
		sum += int(p)
	}
	mean := float64(sum) / float64(len(img.Pix))
	for i, p := range img.Pix {
		v := mean + (float64(p)-mean)*factor
		switch {
		case v < 0:
			v = 0
		case v > 255:
			v = 255
		}
		img.Pix[i] = uint8(v + 0.5)
	}
}

// rotateCCW turns a landscape image 90 degrees counterclockwise so its
// long side runs down the label.
func rotateCCW(img *image.Gray) *image.Gray {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	dst := image.NewGray(image.Rect(0, 0, h, w))
	for y := range h {
		for x := range w {
			dst.SetGray(y, w-1-x, img.GrayAt(x, y))
		}
	}
	return dst
}

// fit scales the image down to fit within maxW x maxH, preserving
// aspect ratio. Images that already fit are returned unchanged; small
// sources are never upscaled. Nearest-neighbor keeps edges hard for
// the dither stage.
func fit(img *image.Gray, maxW, maxH int) *image.Gray {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w <= maxW && h <= maxH {
		return img
	}
	scale := min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := min(maxW, max(1, int(float64(w)*scale+0.5)))
	nh := min(maxH, max(1, int(float64(h)*scale+0.5)))

	dst := image.NewGray(image.Rect(0, 0, nw, nh))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst
}

// dither centers the image on a full-width white canvas and
// Floyd-Steinberg dithers it to black and white. Keeping the canvas at
// the full 96 dots means every packed row is exactly 12 bytes, so a
// narrow image cannot shear the bitmap.
func dither(img *image.Gray) *image.Paletted {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	canvas := image.NewGray(image.Rect(0, 0, TargetWidth, h))
	for i := range canvas.Pix {
		canvas.Pix[i] = 0xFF
	}
	offset := (TargetWidth - w) / 2
	draw.Draw(canvas, image.Rect(offset, 0, offset+w, h), img, img.Bounds().Min, draw.Src)

	mono := image.NewPaletted(canvas.Bounds(), color.Palette{color.Black, color.White})
	draw.FloydSteinberg.Draw(mono, mono.Bounds(), canvas, image.Point{})
	return mono
}

// pack serialises the dithered rows MSB first with white as 1, then
// leaves the remaining rows at 0xFF.
func pack(mono *image.Paletted) []byte {
	buf := make([]byte, tspl.BitmapSize)
	for i := range buf {
		buf[i] = 0xFF
	}
	h := min(mono.Bounds().Dy(), TargetHeight)
	for y := range h {
		for x := range TargetWidth {
			if mono.ColorIndexAt(x, y) == 0 { // black
				buf[y*tspl.BitmapRowBytes+x/8] &^= 0x80 >> (x % 8)
			}
		}
	}
	return buf
}
