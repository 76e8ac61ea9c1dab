// SPDX-License-Identifier: Unlicense OR MIT

// Package render draws a cut's triangle soup to a CPU framebuffer.
// gio's own GPU device code (gpu/backend, gpu/gl, gpu/internal/driver)
// ships no working Linux/desktop context in this snapshot, so the 3D
// scene is rasterized in software and handed to gio only as a 2D
// image for its compositor to blit.
package render

import (
	"image"
	"math"

	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

// Renderer is the draw-surface contract ClusterRenderer targets: it
// accepts one triangle-list's worth of buffers plus a texture, issues
// one draw, and exposes the result for framebuffer readback (e.g. for
// screenshots).
type Renderer interface {
	// Resize reallocates the framebuffer and depth buffer if the
	// requested size differs from the current one.
	Resize(w, h int)
	// Clear resets the colour and depth buffers for a new frame.
	Clear()
	// SetViewProjection installs the combined view-projection matrix
	// used to transform every subsequent DrawTriangles call this frame.
	SetViewProjection(viewProj vecmath.Mat4)
	// DrawTriangles issues one triangle-list draw over verts/normals/uv
	// (3 aligned entries per triangle, as produced by ClusterRenderer),
	// sampling tex for colour and shading diffusely against a fixed
	// light direction. A nil tex draws flat white.
	DrawTriangles(verts, normals []vecmath.Vec3, uv [][2]float32, tex *Texture)
	// Framebuffer returns the current frame's colour buffer. The
	// returned image is owned by the Renderer and is only valid until
	// the next Clear.
	Framebuffer() *image.NRGBA
}

// lightDir is the fixed key-light direction used for diffuse shading,
// matching the original tool's single directional GL_LIGHT0 at
// GL_POSITION (0,0,10,0) — a w=0 position is a direction, here
// pointing down +Z.
var lightDir = vecmath.Vec3{X: 0, Y: 0, Z: 1}

// SoftwareRasterizer is a depth-buffered, perspective-correct,
// bilinearly-textured triangle-list rasterizer. Its scanline loop
// (signed edge coefficients, incremental barycentric walk over a
// clamped bounding box, backface cull via the sign of the doubled
// triangle area) follows the taigrr-trophy rasterizer's optimized
// edge-function path.
type SoftwareRasterizer struct {
	w, h       int
	fb         *image.NRGBA
	zbuffer    []float32
	viewProj   vecmath.Mat4
	CullBackfaces bool
}

// NewSoftwareRasterizer returns a rasterizer sized w x h with backface
// culling enabled.
func NewSoftwareRasterizer(w, h int) *SoftwareRasterizer {
	r := &SoftwareRasterizer{CullBackfaces: true}
	r.Resize(w, h)
	return r
}

func (r *SoftwareRasterizer) Resize(w, h int) {
	if w == r.w && h == r.h && r.fb != nil {
		return
	}
	r.w, r.h = w, h
	r.fb = image.NewNRGBA(image.Rect(0, 0, w, h))
	r.zbuffer = make([]float32, w*h)
}

func (r *SoftwareRasterizer) Clear() {
	for i := range r.zbuffer {
		r.zbuffer[i] = float32(math.Inf(1))
	}
	// Matches the original tool's glClearColor(0.25, 0.25, 0.25, 1.0).
	bg := linearRGB{R: 0.25, G: 0.25, B: 0.25, A: 1}
	cr, cg, cb, ca := bg.toSRGB8()
	for i := 0; i < len(r.fb.Pix); i += 4 {
		r.fb.Pix[i+0] = cr
		r.fb.Pix[i+1] = cg
		r.fb.Pix[i+2] = cb
		r.fb.Pix[i+3] = ca
	}
}

func (r *SoftwareRasterizer) SetViewProjection(viewProj vecmath.Mat4) {
	r.viewProj = viewProj
}

func (r *SoftwareRasterizer) Framebuffer() *image.NRGBA {
	return r.fb
}

type screenVertex struct {
	x, y, z, invW float32
	u, v          float32
	intensity     float32
}

func (r *SoftwareRasterizer) DrawTriangles(verts, normals []vecmath.Vec3, uv [][2]float32, tex *Texture) {
	n := len(verts) / 3
	for t := 0; t < n; t++ {
		i0, i1, i2 := t*3, t*3+1, t*3+2
		r.drawTriangle(verts[i0], verts[i1], verts[i2],
			normals[i0], normals[i1], normals[i2],
			uvAt(uv, i0), uvAt(uv, i1), uvAt(uv, i2), tex)
	}
}

func uvAt(uv [][2]float32, i int) [2]float32 {
	if i < len(uv) {
		return uv[i]
	}
	return [2]float32{}
}

func (r *SoftwareRasterizer) drawTriangle(p0, p1, p2, n0, n1, n2 vecmath.Vec3, uv0, uv1, uv2 [2]float32, tex *Texture) {
	var sv [3]screenVertex
	positions := [3]vecmath.Vec3{p0, p1, p2}
	normals := [3]vecmath.Vec3{n0, n1, n2}
	uvs := [3][2]float32{uv0, uv1, uv2}

	allBehind := true
	for i := 0; i < 3; i++ {
		clip := r.viewProj.MulVec4(vecmath.V4FromV3(positions[i], 1))
		if clip.W > 0 {
			allBehind = false
		}
		var invW float32
		var ndcX, ndcY, ndcZ float32
		if clip.W != 0 {
			invW = 1 / clip.W
			ndcX, ndcY, ndcZ = clip.X*invW, clip.Y*invW, clip.Z*invW
		}
		sv[i] = screenVertex{
			x:     (ndcX + 1) * 0.5 * float32(r.w),
			y:     (1 - ndcY) * 0.5 * float32(r.h),
			z:     ndcZ,
			invW:  invW,
			u:     uvs[i][0],
			v:     uvs[i][1],
			intensity: 0.25 + 0.75*clamp01(normals[i].Normalize().Dot(lightDir)),
		}
	}
	if allBehind {
		return
	}

	e1x, e1y := sv[1].x-sv[0].x, sv[1].y-sv[0].y
	e2x, e2y := sv[2].x-sv[0].x, sv[2].y-sv[0].y
	area2 := e1x*e2y - e1y*e2x
	if area2 == 0 {
		return
	}
	// Screen y points down, so a counter-clockwise (front-facing)
	// triangle in NDC has a negative screen-space area.
	if area2 > 0 && r.CullBackfaces {
		return
	}

	minX := clampInt(int(floor32(min3(sv[0].x, sv[1].x, sv[2].x))), 0, r.w-1)
	maxX := clampInt(int(ceil32(max3(sv[0].x, sv[1].x, sv[2].x))), 0, r.w-1)
	minY := clampInt(int(floor32(min3(sv[0].y, sv[1].y, sv[2].y))), 0, r.h-1)
	maxY := clampInt(int(ceil32(max3(sv[0].y, sv[1].y, sv[2].y))), 0, r.h-1)
	if minX > maxX || minY > maxY {
		return
	}

	a0, b0, c0 := edgeCoeffs(sv[1].x, sv[1].y, sv[2].x, sv[2].y)
	a1, b1, c1 := edgeCoeffs(sv[2].x, sv[2].y, sv[0].x, sv[0].y)
	a2, b2, c2 := edgeCoeffs(sv[0].x, sv[0].y, sv[1].x, sv[1].y)
	invArea := 1 / area2

	px, py := float32(minX)+0.5, float32(minY)+0.5
	w0Row := edgeFunc(a0, b0, c0, px, py)
	w1Row := edgeFunc(a1, b1, c1, px, py)
	w2Row := edgeFunc(a2, b2, c2, px, py)

	for y := minY; y <= maxY; y++ {
		w0, w1, w2 := w0Row, w1Row, w2Row
		rowOffset := y * r.w
		for x := minX; x <= maxX; x++ {
			inside := (w0 >= 0 && w1 >= 0 && w2 >= 0) || (w0 <= 0 && w1 <= 0 && w2 <= 0)
			if inside {
				bc0, bc1, bc2 := w0*invArea, w1*invArea, w2*invArea
				z := bc0*sv[0].z + bc1*sv[1].z + bc2*sv[2].z
				idx := rowOffset + x
				if z < r.zbuffer[idx] {
					pw0, pw1, pw2 := bc0*sv[0].invW, bc1*sv[1].invW, bc2*sv[2].invW
					oneOverW := pw0 + pw1 + pw2
					if oneOverW != 0 {
						invOneOverW := 1 / oneOverW
						u := (pw0*sv[0].u + pw1*sv[1].u + pw2*sv[2].u) * invOneOverW
						v := (pw0*sv[0].v + pw1*sv[1].v + pw2*sv[2].v) * invOneOverW
						intensity := (pw0*sv[0].intensity + pw1*sv[1].intensity + pw2*sv[2].intensity) * invOneOverW

						col := tex.sample(u, v).scale(intensity)
						r.zbuffer[idx] = z
						cr, cg, cb, ca := col.toSRGB8()
						pi := idx * 4
						r.fb.Pix[pi+0] = cr
						r.fb.Pix[pi+1] = cg
						r.fb.Pix[pi+2] = cb
						r.fb.Pix[pi+3] = ca
					}
				}
			}
			w0 += a0
			w1 += a1
			w2 += a2
		}
		w0Row += b0
		w1Row += b1
		w2Row += b2
	}
}

func edgeCoeffs(x0, y0, x1, y1 float32) (a, b, c float32) {
	return y0 - y1, x1 - x0, x0*y1 - x1*y0
}

func edgeFunc(a, b, c, x, y float32) float32 {
	return a*x + b*y + c
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min3(a, b, c float32) float32 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func max3(a, b, c float32) float32 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func ceil32(f float32) float32 {
	i := floor32(f)
	if i == f {
		return i
	}
	return i + 1
}
