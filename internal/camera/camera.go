// SPDX-License-Identifier: Unlicense OR MIT

// Package camera holds the runtime camera pose each instance's cut
// selection and rendering is evaluated against.
package camera

import (
	"math"

	"github.com/oOo0oOo/gonanite/internal/vecmath"
)

// CosHalfFOV is cos(fov/2) for a fixed 90 degree field of view (§4.8).
var CosHalfFOV = float32(math.Cos(math.Pi / 4))

// Camera is a position plus a yaw/pitch look angle. Forward is kept
// precomputed (rather than derived on every read) since it is read
// once per instance per frame by CutSelector.
type Camera struct {
	Position vecmath.Vec3
	// LookAngle is [yaw, pitch] in radians.
	LookAngle [2]float32
	Forward   vecmath.Vec3
}

// New returns a camera at the original tool's start pose.
func New() *Camera {
	c := &Camera{
		Position:  vecmath.Vec3{X: 0, Y: 0.5, Z: -4},
		LookAngle: [2]float32{math.Pi, 0},
	}
	c.Forward = forwardVector(c.LookAngle)
	return c
}

// forwardVector matches camera.py's spherical parametrisation exactly:
// yaw rotates around Y, pitch tilts the view up/down.
func forwardVector(lookAngle [2]float32) vecmath.Vec3 {
	yaw, pitch := float64(lookAngle[0]), float64(lookAngle[1])
	return vecmath.Vec3{
		X: float32(-math.Sin(yaw) * math.Cos(pitch)),
		Y: float32(math.Sin(pitch)),
		Z: float32(-math.Cos(yaw) * math.Cos(pitch)),
	}
}

// Update moves the camera by deltaPos (in the camera's own right/up/
// forward basis, not world space) and rotates its look angle by
// deltaAngle, then recomputes Forward. Called once per frame from the
// input handler before any instance steps its cut or draws.
func (c *Camera) Update(deltaPos vecmath.Vec3, deltaAngle [2]float32) {
	right := c.Forward.Cross(vecmath.Vec3{Y: 1}).Normalize()
	up := right.Cross(c.Forward).Normalize()
	world := right.Scale(deltaPos.X).Add(up.Scale(deltaPos.Y)).Add(c.Forward.Scale(deltaPos.Z))
	c.Position = c.Position.Add(world)

	c.LookAngle[0] -= deltaAngle[0]
	c.LookAngle[1] -= deltaAngle[1]
	c.Forward = forwardVector(c.LookAngle)
}

// ViewMatrix returns the current look-at view matrix.
func (c *Camera) ViewMatrix() vecmath.Mat4 {
	return vecmath.LookAt(c.Position, c.Position.Add(c.Forward), vecmath.Vec3{Y: 1})
}

// InFront reports, for each of points, whether it lies within the 90
// degree forward cone: dot(normalise(point-position), forward) >
// cos(fov/2).
func (c *Camera) InFront(points []vecmath.Vec3) []bool {
	out := make([]bool, len(points))
	for i, p := range points {
		dir := p.Sub(c.Position).Normalize()
		out[i] = dir.Dot(c.Forward) > CosHalfFOV
	}
	return out
}
