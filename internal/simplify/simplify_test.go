// SPDX-License-Identifier: Unlicense OR MIT

package simplify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

// an nxn grid of quads (2*n*n triangles) with a clean interior to
// collapse and a rectangular border that must survive untouched.
func gridMesh(n int) ([]vecmath.Vec3, [][3]int32) {
	var verts []vecmath.Vec3
	index := func(x, y int) int32 { return int32(y*(n+1) + x) }
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			verts = append(verts, vecmath.Vec3{X: float32(x), Y: 0, Z: float32(y)})
		}
	}
	var tris [][3]int32
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			a, b, c, d := index(x, y), index(x+1, y), index(x+1, y+1), index(x, y+1)
			tris = append(tris, [3]int32{a, b, c})
			tris = append(tris, [3]int32{a, c, d})
		}
	}
	return verts, tris
}

func TestSimplifyReducesTriangleCount(t *testing.T) {
	verts, tris := gridMesh(6)
	s := NewQuadricCollapser()
	target := len(tris) / 2

	outVerts, outTris, normals, err := s.Simplify(verts, tris, target)
	require.NoError(t, err)
	assert.Less(t, len(outTris), len(tris))
	assert.NotEmpty(t, outVerts)
	assert.Len(t, normals, len(outTris))
}

func TestSimplifyNoOpWhenTargetAboveInputCount(t *testing.T) {
	verts, tris := gridMesh(2)
	s := NewQuadricCollapser()
	outVerts, outTris, _, err := s.Simplify(verts, tris, len(tris)+10)
	require.NoError(t, err)
	assert.Equal(t, len(verts), len(outVerts))
	assert.Equal(t, len(tris), len(outTris))
}

func TestSimplifyPreservesBorderVertexCount(t *testing.T) {
	// A single quad (2 tris): every edge is a border edge, so no
	// collapse is legal and the mesh must pass through unchanged.
	verts := []vecmath.Vec3{
		{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 1}, {X: 0, Y: 0, Z: 1},
	}
	tris := [][3]int32{{0, 1, 2}, {0, 2, 3}}
	s := NewQuadricCollapser()
	outVerts, outTris, _, err := s.Simplify(verts, tris, 1)
	require.NoError(t, err)
	assert.Equal(t, 4, len(outVerts))
	assert.Equal(t, 2, len(outTris))
}
