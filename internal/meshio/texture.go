// SPDX-License-Identifier: Unlicense OR MIT

package meshio

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// maxTextureDim caps the resolution a loaded texture is downscaled to
// before it reaches the rasterizer's bilinear sampler; asset textures
// routinely ship larger than any benefit a software rasterizer gets
// from them.
const maxTextureDim = 2048

// LoadTexture decodes the image at path, downscales it if either
// dimension exceeds maxTextureDim, and flips it vertically so texel
// (0,0) is the bottom-left corner, matching the uv convention
// described in spec.md §6.
func LoadTexture(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("meshio: open texture %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("meshio: decode texture %s: %w", path, err)
	}

	img = downscale(img, maxTextureDim)
	return flipVertical(img), nil
}

// downscale shrinks img with a bilinear filter so neither dimension
// exceeds max, preserving aspect ratio. It is a no-op if img already
// fits.
func downscale(img image.Image, max int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= max && h <= max {
		return img
	}
	scale := float64(max) / float64(w)
	if hs := float64(max) / float64(h); hs < scale {
		scale = hs
	}
	dw, dh := int(float64(w)*scale), int(float64(h)*scale)
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// flipVertical copies img into a new NRGBA with rows in reverse
// order.
func flipVertical(img image.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		srcY := b.Min.Y + h - 1 - y
		for x := 0; x < w; x++ {
			out.Set(x, y, img.At(b.Min.X+x, srcY))
		}
	}
	return out
}
