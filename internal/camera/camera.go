// Package camera holds the render camera state and its Halton-sequence
// jitter sequence, generalized from rt/core/camera.go's CameraState (a
// yaw/pitch fly camera producing a view matrix and frustum planes) to
// the config-driven startup pose spec.md §6 (Camera.*) requires, plus
// the shadow-map projection original_source's SvoTracer keeps
// alongside it.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a yaw/pitch fly camera, the primary view used by every
// tracer pass.
type Camera struct {
	Position    mgl32.Vec3
	Yaw         float32
	Pitch       float32
	VFov        float32
	Speed       float32
	SpeedBoost  float32
	Sensitivity float32
}

// New builds a Camera at its configured startup pose (spec.md §6:
// Camera.{initPosition,initYaw,initPitch,vFov,movementSpeed,
// movementSpeedBoost,mouseSensitivity}).
func New(initPosition mgl32.Vec3, initYaw, initPitch, vFov, movementSpeed, movementSpeedBoost, mouseSensitivity float32) *Camera {
	return &Camera{
		Position:    initPosition,
		Yaw:         initYaw,
		Pitch:       initPitch,
		VFov:        vFov,
		Speed:       movementSpeed,
		SpeedBoost:  movementSpeedBoost,
		Sensitivity: mouseSensitivity,
	}
}

// Forward returns the camera's look direction (Z-up).
func (c *Camera) Forward() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(math.Cos(float64(c.Pitch)) * math.Sin(float64(c.Yaw))),
		float32(-math.Cos(float64(c.Pitch)) * math.Cos(float64(c.Yaw))),
		float32(math.Sin(float64(c.Pitch))),
	}
}

// Right returns the camera's right vector (Z-up).
func (c *Camera) Right() mgl32.Vec3 {
	return mgl32.Vec3{
		float32(-math.Cos(float64(c.Yaw))),
		float32(-math.Sin(float64(c.Yaw))),
		0,
	}
}

// ViewMatrix returns the camera's world-to-view transform.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	eye := c.Position
	target := eye.Add(c.Forward())
	up := mgl32.Vec3{0, 0, 1}
	return mgl32.LookAtV(eye, target, up)
}

// ProjectionMatrix returns the camera's perspective projection for the
// given viewport aspect ratio.
func (c *Camera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.VFov), aspect, 0.05, 4000.0)
}

// JitteredProjectionMatrix applies a sub-pixel offset (in NDC units,
// [-1,1]) to the projection matrix, used by the tracer's TAA pass
// (spec.md §4.5.1: "jittered using a Halton sequence of length
// taaSamplingOffsetSize").
func (c *Camera) JitteredProjectionMatrix(aspect float32, jitterX, jitterY float32) mgl32.Mat4 {
	proj := c.ProjectionMatrix(aspect)
	proj[2*4+0] += jitterX
	proj[2*4+1] += jitterY
	return proj
}

// ExtractFrustum returns the view-projection matrix's six clip planes
// (Left, Right, Bottom, Top, Near, Far), each as Ax+By+Cz+D=0.
func ExtractFrustum(vp mgl32.Mat4) [6]mgl32.Vec4 {
	var planes [6]mgl32.Vec4
	planes[0] = mgl32.Vec4{vp.At(3, 0) + vp.At(0, 0), vp.At(3, 1) + vp.At(0, 1), vp.At(3, 2) + vp.At(0, 2), vp.At(3, 3) + vp.At(0, 3)}
	planes[1] = mgl32.Vec4{vp.At(3, 0) - vp.At(0, 0), vp.At(3, 1) - vp.At(0, 1), vp.At(3, 2) - vp.At(0, 2), vp.At(3, 3) - vp.At(0, 3)}
	planes[2] = mgl32.Vec4{vp.At(3, 0) + vp.At(1, 0), vp.At(3, 1) + vp.At(1, 1), vp.At(3, 2) + vp.At(1, 2), vp.At(3, 3) + vp.At(1, 3)}
	planes[3] = mgl32.Vec4{vp.At(3, 0) - vp.At(1, 0), vp.At(3, 1) - vp.At(1, 1), vp.At(3, 2) - vp.At(1, 2), vp.At(3, 3) - vp.At(1, 3)}
	planes[4] = mgl32.Vec4{vp.At(3, 0) + vp.At(2, 0), vp.At(3, 1) + vp.At(2, 1), vp.At(3, 2) + vp.At(2, 2), vp.At(3, 3) + vp.At(2, 3)}
	planes[5] = mgl32.Vec4{vp.At(3, 0) - vp.At(2, 0), vp.At(3, 1) - vp.At(2, 1), vp.At(3, 2) - vp.At(2, 2), vp.At(3, 3) - vp.At(2, 3)}
	for i := range planes {
		length := float32(math.Sqrt(float64(planes[i][0]*planes[i][0] + planes[i][1]*planes[i][1] + planes[i][2]*planes[i][2])))
		if length > 0 {
			planes[i] = planes[i].Mul(1.0 / length)
		}
	}
	return planes
}

// ShadowMapCamera is the directional-light camera used by the shadow
// map pass (original_source's SvoTracer keeps a ShadowMapCamera
// distinct from the main Camera, since it reframes around the scene
// bounds toward the sun rather than following the player).
type ShadowMapCamera struct {
	Center mgl32.Vec3
	Extent float32 // half-width of the orthographic frustum
	SunDir mgl32.Vec3
}

// NewShadowMapCamera builds a ShadowMapCamera framed on center with the
// given half-extent, looking toward -sunDir.
func NewShadowMapCamera(center mgl32.Vec3, extent float32, sunDir mgl32.Vec3) *ShadowMapCamera {
	return &ShadowMapCamera{Center: center, Extent: extent, SunDir: sunDir}
}

// ViewMatrix returns the shadow camera's world-to-view transform.
func (s *ShadowMapCamera) ViewMatrix() mgl32.Mat4 {
	eye := s.Center.Add(s.SunDir.Mul(s.Extent * 2))
	up := mgl32.Vec3{0, 0, 1}
	if math.Abs(float64(s.SunDir[2])) > 0.999 {
		up = mgl32.Vec3{0, 1, 0}
	}
	return mgl32.LookAtV(eye, s.Center, up)
}

// ProjectionMatrix returns the shadow camera's orthographic projection.
func (s *ShadowMapCamera) ProjectionMatrix() mgl32.Mat4 {
	return mgl32.Ortho(-s.Extent, s.Extent, -s.Extent, s.Extent, 0.05, s.Extent*4)
}
