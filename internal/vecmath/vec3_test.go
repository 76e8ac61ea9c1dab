// SPDX-License-Identifier: Unlicense OR MIT

package vecmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVec3Basics(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	assert.Equal(t, Vec3{5, 7, 9}, a.Add(b))
	assert.Equal(t, Vec3{-3, -3, -3}, a.Sub(b))
	assert.Equal(t, Vec3{2, 4, 6}, a.Scale(2))
	assert.InDelta(t, 32, a.Dot(b), 1e-6)
}

func TestNormalizeZeroFallsBackToUnitY(t *testing.T) {
	require.Equal(t, Vec3{0, 1, 0}, Vec3{}.Normalize())
}

func TestBoundingSphereContainsAllPoints(t *testing.T) {
	verts := []Vec3{{0, 0, 0}, {2, 0, 0}, {0, 2, 0}, {0, 0, 2}}
	s := BoundingSphere(verts)
	for _, v := range verts {
		assert.LessOrEqual(t, float64(v.Sub(s.Center).Len()), float64(s.Radius)+1e-5)
	}
}

func TestMergeSpheresContainment(t *testing.T) {
	spheres := []Sphere{
		{Center: Vec3{0, 0, 0}, Radius: 1},
		{Center: Vec3{5, 0, 0}, Radius: 1},
		{Center: Vec3{2, 2, 0}, Radius: 0.5},
	}
	merged := MergeSpheres(spheres)
	for _, s := range spheres {
		d := s.Center.Sub(merged.Center).Len()
		assert.LessOrEqual(t, float64(d+s.Radius), float64(merged.Radius)+1e-4)
	}
}

func TestMergeSpheresNestedReturnsOuter(t *testing.T) {
	outer := Sphere{Center: Vec3{0, 0, 0}, Radius: 10}
	inner := Sphere{Center: Vec3{1, 0, 0}, Radius: 1}
	merged := MergeSpheres([]Sphere{outer, inner})
	assert.Equal(t, outer, merged)
}
