// SPDX-License-Identifier: Unlicense OR MIT

package camera

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

func TestNewFacesPositiveZ(t *testing.T) {
	c := New()
	assert.InDelta(t, 0, c.Forward.X, 1e-5)
	assert.InDelta(t, 0, c.Forward.Y, 1e-5)
	assert.InDelta(t, 1, c.Forward.Z, 1e-5)
}

func TestUpdateMovesForwardAlongCurrentForward(t *testing.T) {
	c := New()
	start := c.Position
	c.Update(vecmath.Vec3{Z: 1}, [2]float32{})
	assert.InDelta(t, start.Z+1, c.Position.Z, 1e-4)
	assert.InDelta(t, start.X, c.Position.X, 1e-4)
}

func TestUpdateRotatesLookAngleAndForward(t *testing.T) {
	c := New()
	before := c.Forward
	c.Update(vecmath.Vec3{}, [2]float32{1, 0})
	assert.NotEqual(t, before, c.Forward)
}

func TestInFrontRejectsPointsBehindCamera(t *testing.T) {
	c := New() // at (0,0.5,-4), facing +Z
	points := []vecmath.Vec3{
		{X: 0, Y: 0.5, Z: 10},  // straight ahead
		{X: 0, Y: 0.5, Z: -10}, // straight behind
	}
	got := c.InFront(points)
	assert.True(t, got[0])
	assert.False(t, got[1])
}
