// SPDX-License-Identifier: Unlicense OR MIT

package render

import "math"

// srgbToLinear converts one sRGB-encoded channel (0..1) to linear
// light, the space triangle shading and bilinear filtering should
// happen in to avoid darkening edges.
func srgbToLinear(c float32) float32 {
	if c <= 0.04045 {
		return c / 12.92
	}
	return float32(math.Pow(float64((c+0.055)/1.055), 2.4))
}

// linearToSRGB is the inverse of srgbToLinear.
func linearToSRGB(c float32) float32 {
	if c <= 0.0031308 {
		return c * 12.92
	}
	return float32(1.055*math.Pow(float64(c), 1/2.4) - 0.055)
}

// linearRGB is a straight-alpha colour in linear light, the
// interpolation and shading space the rasterizer works in.
type linearRGB struct {
	R, G, B, A float32
}

// fromSRGB8 unpacks a straight-alpha 8-bit sRGB colour into linear
// light.
func fromSRGB8(r, g, b, a uint8) linearRGB {
	return linearRGB{
		R: srgbToLinear(float32(r) / 255),
		G: srgbToLinear(float32(g) / 255),
		B: srgbToLinear(float32(b) / 255),
		A: float32(a) / 255,
	}
}

// toSRGB8 packs a linear-light colour back to straight-alpha 8-bit
// sRGB, clamping out-of-range components.
func (c linearRGB) toSRGB8() (r, g, b, a uint8) {
	clamp := func(v float32) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint8(v*255 + 0.5)
	}
	return clamp(linearToSRGB(c.R)), clamp(linearToSRGB(c.G)), clamp(linearToSRGB(c.B)), clamp(c.A)
}

// scale multiplies every channel but alpha by a shading intensity.
func (c linearRGB) scale(intensity float32) linearRGB {
	return linearRGB{R: c.R * intensity, G: c.G * intensity, B: c.B * intensity, A: c.A}
}

// lerp linearly interpolates two colours by t in [0,1].
func lerp(a, b linearRGB, t float32) linearRGB {
	return linearRGB{
		R: a.R + (b.R-a.R)*t,
		G: a.G + (b.G-a.G)*t,
		B: a.B + (b.B-a.B)*t,
		A: a.A + (b.A-a.A)*t,
	}
}
