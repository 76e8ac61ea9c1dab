// SPDX-License-Identifier: Unlicense OR MIT

package render

import "image"

// Texture is an immutable, bilinearly-sampled RGBA image. Construct it
// once per loaded model asset and share it across every instance and
// cut of that model; it does no allocation at sample time.
type Texture struct {
	w, h int
	pix  []linearRGB // row-major, converted to linear light once at construction
}

// NewTexture converts img to the renderer's internal linear-light
// format. Conversion happens once here rather than per-sample so that
// sample stays allocation-free on the hot rasterizer path.
func NewTexture(img image.Image) *Texture {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	t := &Texture{w: w, h: h, pix: make([]linearRGB, w*h)}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r16, g16, b16, a16 := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			t.pix[y*w+x] = fromSRGB8(uint8(r16>>8), uint8(g16>>8), uint8(b16>>8), uint8(a16>>8))
		}
	}
	return t
}

func (t *Texture) at(x, y int) linearRGB {
	if x < 0 {
		x = 0
	} else if x >= t.w {
		x = t.w - 1
	}
	if y < 0 {
		y = 0
	} else if y >= t.h {
		y = t.h - 1
	}
	return t.pix[y*t.w+x]
}

// sample bilinearly filters the texture at normalised uv coordinates,
// wrapping u/v into [0,1) first (textures tile).
func (t *Texture) sample(u, v float32) linearRGB {
	if t == nil || t.w == 0 || t.h == 0 {
		return linearRGB{R: 1, G: 1, B: 1, A: 1}
	}
	u -= float32(int(u))
	if u < 0 {
		u++
	}
	v -= float32(int(v))
	if v < 0 {
		v++
	}

	fx := u*float32(t.w) - 0.5
	fy := v*float32(t.h) - 0.5
	x0, y0 := int(floor32(fx)), int(floor32(fy))
	tx, ty := fx-floor32(fx), fy-floor32(fy)

	c00 := t.at(x0, y0)
	c10 := t.at(x0+1, y0)
	c01 := t.at(x0, y0+1)
	c11 := t.at(x0+1, y0+1)

	top := lerp(c00, c10, tx)
	bottom := lerp(c01, c11, tx)
	return lerp(top, bottom, ty)
}

func floor32(f float32) float32 {
	i := float32(int(f))
	if f < 0 && i != f {
		return i - 1
	}
	return i
}
