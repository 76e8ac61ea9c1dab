// SPDX-License-Identifier: Unlicense OR MIT

package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

func identityMVP() vecmath.Mat4 {
	// An orthographic-ish identity transform: clip coordinates equal
	// input coordinates, w stays 1, so NDC == input xy directly.
	return vecmath.Identity4()
}

func TestDrawTrianglesFillsInteriorPixels(t *testing.T) {
	r := NewSoftwareRasterizer(8, 8)
	r.Clear()
	r.SetViewProjection(identityMVP())

	verts := []vecmath.Vec3{
		{X: -1, Y: -1, Z: 0},
		{X: 1, Y: -1, Z: 0},
		{X: 0, Y: 1, Z: 0},
	}
	normals := []vecmath.Vec3{{Y: 0, Z: 1}, {Y: 0, Z: 1}, {Y: 0, Z: 1}}
	uv := [][2]float32{{0, 0}, {1, 0}, {0.5, 1}}

	r.DrawTriangles(verts, normals, uv, nil)

	fb := r.Framebuffer()
	cx, cy := 4, 4
	pi := (cy*8 + cx) * 4
	bgR, bgG, bgB := fb.Pix[0], fb.Pix[1], fb.Pix[2]
	assert.False(t, fb.Pix[pi] == bgR && fb.Pix[pi+1] == bgG && fb.Pix[pi+2] == bgB,
		"centre pixel should have been painted by the triangle, not left at the clear colour")
}

func TestDrawTrianglesCullsBackfaces(t *testing.T) {
	r := NewSoftwareRasterizer(8, 8)
	require.True(t, r.CullBackfaces)
	r.Clear()
	r.SetViewProjection(identityMVP())

	// Same triangle as above but with the opposite winding order.
	verts := []vecmath.Vec3{
		{X: -1, Y: -1, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 1, Y: -1, Z: 0},
	}
	normals := []vecmath.Vec3{{Y: 0, Z: 1}, {Y: 0, Z: 1}, {Y: 0, Z: 1}}
	uv := [][2]float32{{0, 0}, {0.5, 1}, {1, 0}}

	before := append([]byte(nil), r.Framebuffer().Pix...)
	r.DrawTriangles(verts, normals, uv, nil)
	after := r.Framebuffer().Pix

	assert.Equal(t, before, after, "a backfacing triangle must not touch the framebuffer")
}

func TestDrawTrianglesRespectsDepthTest(t *testing.T) {
	r := NewSoftwareRasterizer(8, 8)
	r.Clear()
	r.SetViewProjection(identityMVP())

	near := []vecmath.Vec3{{X: -1, Y: -1, Z: 0}, {X: 1, Y: -1, Z: 0}, {X: 0, Y: 1, Z: 0}}
	far := []vecmath.Vec3{{X: -1, Y: -1, Z: 0.9}, {X: 1, Y: -1, Z: 0.9}, {X: 0, Y: 1, Z: 0.9}}
	normals := []vecmath.Vec3{{Y: 0, Z: 1}, {Y: 0, Z: 1}, {Y: 0, Z: 1}}
	uv := [][2]float32{{0, 0}, {1, 0}, {0.5, 1}}

	r.DrawTriangles(near, normals, uv, nil)
	painted := append([]byte(nil), r.Framebuffer().Pix...)

	r.DrawTriangles(far, normals, uv, nil)
	assert.Equal(t, painted, r.Framebuffer().Pix, "a triangle behind an already-drawn one must not overwrite it")
}

func TestTextureSampleBilinearAveragesNeighbours(t *testing.T) {
	img := newSolidQuadrantImage()
	tex := NewTexture(img)

	center := tex.sample(0.5, 0.5)
	corner := tex.sample(0.001, 0.001)

	assert.NotEqual(t, corner, center, "the centre of a 4-colour checker should differ from a corner sample")
}
