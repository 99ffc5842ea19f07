// Package camera is an orbiting perspective camera that turns screen
// positions into world-space picking rays.
//
// The world is Z-up. Screen coordinates have their origin at the top-left
// corner, as delivered by GLFW cursor callbacks.
package camera

import (
	"math"

	"github.com/chazu/sculpt/pkg/interactor"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	defaultFovY     = 45.0
	defaultDistance = 5.0
	defaultYaw      = -90.0
	defaultPitch    = 35.0

	minDistance = 0.1
	maxDistance = 1000.0
	maxPitch    = 89.0

	zoomStep = 1.1
)

// Camera orbits Target at Distance. Yaw and Pitch are in degrees.
type Camera struct {
	Target   mgl64.Vec3
	Distance float64
	Yaw      float64
	Pitch    float64
	FovY     float64
	Near     float64
	Far      float64

	width, height int
}

// New returns a camera looking at the origin from the -Y side, slightly
// above the XY plane.
func New(width, height int) *Camera {
	c := &Camera{
		Distance: defaultDistance,
		Yaw:      defaultYaw,
		Pitch:    defaultPitch,
		FovY:     defaultFovY,
		Near:     0.01,
		Far:      100,
	}
	c.SetViewport(width, height)
	return c
}

// SetViewport records the framebuffer size. Sizes below 1 are clamped.
func (c *Camera) SetViewport(width, height int) {
	c.width, c.height = max(width, 1), max(height, 1)
}

// Viewport returns the framebuffer size.
func (c *Camera) Viewport() (width, height int) {
	return c.width, c.height
}

// Eye returns the camera position.
func (c *Camera) Eye() mgl64.Vec3 {
	yaw := mgl64.DegToRad(c.Yaw)
	pitch := mgl64.DegToRad(c.Pitch)
	dir := mgl64.Vec3{
		math.Cos(pitch) * math.Cos(yaw),
		math.Cos(pitch) * math.Sin(yaw),
		math.Sin(pitch),
	}
	return c.Target.Add(dir.Mul(c.Distance))
}

// View returns the world-to-camera matrix.
func (c *Camera) View() mgl64.Mat4 {
	return mgl64.LookAtV(c.Eye(), c.Target, mgl64.Vec3{0, 0, 1})
}

// Projection returns the perspective matrix for the current viewport.
func (c *Camera) Projection() mgl64.Mat4 {
	aspect := float64(c.width) / float64(c.height)
	return mgl64.Perspective(mgl64.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// ViewProjection returns Projection · View as float32 for upload to GL.
func (c *Camera) ViewProjection() [16]float32 {
	m := c.Projection().Mul4(c.View())
	var out [16]float32
	for k, v := range m {
		out[k] = float32(v)
	}
	return out
}

// Ray returns the picking ray through screen position (x, y).
func (c *Camera) Ray(x, y float64) interactor.Ray {
	view, proj := c.View(), c.Projection()
	wy := float64(c.height) - y
	near, errNear := mgl64.UnProject(mgl64.Vec3{x, wy, 0}, view, proj, 0, 0, c.width, c.height)
	far, errFar := mgl64.UnProject(mgl64.Vec3{x, wy, 1}, view, proj, 0, 0, c.width, c.height)
	if errNear != nil || errFar != nil {
		eye := c.Eye()
		return interactor.Ray{Origin: toVec(eye), Direction: toVec(c.Target.Sub(eye))}
	}
	return interactor.Ray{Origin: toVec(near), Direction: toVec(far.Sub(near).Normalize())}
}

// Project returns the screen position of a world point.
func (c *Camera) Project(p v3.Vec) (x, y float64) {
	w := mgl64.Project(fromVec(p), c.View(), c.Projection(), 0, 0, c.width, c.height)
	return w.X(), float64(c.height) - w.Y()
}

// Orbit rotates the camera around Target. Pitch stays within ±89°.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw = math.Mod(c.Yaw+dYaw, 360)
	c.Pitch = mgl64.Clamp(c.Pitch+dPitch, -maxPitch, maxPitch)
}

// Zoom moves toward Target for positive steps and away for negative ones.
func (c *Camera) Zoom(steps float64) {
	c.Distance = mgl64.Clamp(c.Distance*math.Pow(zoomStep, -steps), minDistance, maxDistance)
}

// Frame centers the camera on the box [min, max] at a distance that fits
// it in view.
func (c *Camera) Frame(min, max v3.Vec) {
	c.Target = fromVec(min.Add(max).MulScalar(0.5))
	radius := max.Sub(min).Length() / 2
	if radius == 0 {
		radius = 1
	}
	half := mgl64.DegToRad(c.FovY) / 2
	c.Distance = mgl64.Clamp(radius/math.Sin(half), minDistance, maxDistance)
	c.Far = math.Max(100, 4*c.Distance)
}

func toVec(v mgl64.Vec3) v3.Vec {
	return v3.Vec{X: v.X(), Y: v.Y(), Z: v.Z()}
}

func fromVec(v v3.Vec) mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}
