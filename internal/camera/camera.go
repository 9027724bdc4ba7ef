// Package camera carries the view state threaded through every engine
// call. There is no ambient "current camera"; callers pass one explicitly.
package camera

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a position plus the matrices needed to build a frustum.
type Camera struct {
	Position mgl32.Vec3
	View     mgl32.Mat4
	Proj     mgl32.Mat4
}

// LookAt builds a camera at eye looking toward target with the given
// perspective parameters (fovy in radians).
func LookAt(eye, target mgl32.Vec3, fovy, aspect, near, far float32) Camera {
	return Camera{
		Position: eye,
		View:     mgl32.LookAtV(eye, target, mgl32.Vec3{0, 1, 0}),
		Proj:     mgl32.Perspective(fovy, aspect, near, far),
	}
}

// Clip returns the combined projection * view matrix.
func (c Camera) Clip() mgl32.Mat4 {
	return c.Proj.Mul4(c.View)
}

// AABBVisible tests a world-space AABB against the camera frustum using
// clip-space half-space tests. margin inflates the box before testing so
// instances poking out of their chunk don't pop at the frustum edge.
func AABBVisible(min, max mgl32.Vec3, clip mgl32.Mat4, margin float32) bool {
	min = mgl32.Vec3{min.X() - margin, min.Y() - margin, min.Z() - margin}
	max = mgl32.Vec3{max.X() + margin, max.Y() + margin, max.Z() + margin}

	corners := [8]mgl32.Vec4{
		{min.X(), min.Y(), min.Z(), 1},
		{max.X(), min.Y(), min.Z(), 1},
		{min.X(), max.Y(), min.Z(), 1},
		{max.X(), max.Y(), min.Z(), 1},
		{min.X(), min.Y(), max.Z(), 1},
		{max.X(), min.Y(), max.Z(), 1},
		{min.X(), max.Y(), max.Z(), 1},
		{max.X(), max.Y(), max.Z(), 1},
	}
	var v [8]mgl32.Vec4
	for i := range corners {
		v[i] = clip.Mul4x1(corners[i])
	}

	// A box is culled when all eight corners sit outside one plane.
	// Plane k of the canonical clip volume: sign*component - w <= 0.
	outsidePlane := func(component func(mgl32.Vec4) float32, sign float32) bool {
		for i := range v {
			if sign*component(v[i])-v[i].W() <= 0 {
				return false
			}
		}
		return true
	}

	x := func(p mgl32.Vec4) float32 { return p.X() }
	y := func(p mgl32.Vec4) float32 { return p.Y() }
	z := func(p mgl32.Vec4) float32 { return p.Z() }

	if outsidePlane(x, 1) || outsidePlane(x, -1) ||
		outsidePlane(y, 1) || outsidePlane(y, -1) ||
		outsidePlane(z, 1) || outsidePlane(z, -1) {
		return false
	}
	return true
}
