package camera

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestNewCameraAppliesConfiguredPose(t *testing.T) {
	c := New(mgl32.Vec3{1, 2, 3}, 0.5, -0.2, 60, 5, 10, 0.003)
	require.Equal(t, mgl32.Vec3{1, 2, 3}, c.Position)
	require.Equal(t, float32(0.5), c.Yaw)
	require.Equal(t, float32(60), c.VFov)
}

func TestForwardIsUnitLength(t *testing.T) {
	c := New(mgl32.Vec3{}, 0.7, 0.3, 60, 1, 1, 1)
	f := c.Forward()
	require.InDelta(t, 1.0, f.Len(), 1e-5)
}

// spec.md §8 invariant 6: the mean of N consecutive Halton jitter
// offsets is within 1/N of zero.
func TestTAAJitterSequenceMeanNearZero(t *testing.T) {
	const n = 64
	seq := TAAJitterSequence(n)
	require.Len(t, seq, n)

	var sumX, sumY float64
	for _, j := range seq {
		sumX += float64(j.X)
		sumY += float64(j.Y)
	}
	meanX := sumX / n
	meanY := sumY / n

	require.Less(t, math.Abs(meanX), 1.0/n)
	require.Less(t, math.Abs(meanY), 1.0/n)
}

func TestHaltonSequenceBase2FirstValues(t *testing.T) {
	require.InDelta(t, 0.5, HaltonSequence(1, 2), 1e-6)
	require.InDelta(t, 0.25, HaltonSequence(2, 2), 1e-6)
	require.InDelta(t, 0.75, HaltonSequence(3, 2), 1e-6)
}

func TestShadowMapCameraFramesTowardSun(t *testing.T) {
	sun := mgl32.Vec3{0, 0, -1}
	s := NewShadowMapCamera(mgl32.Vec3{0, 0, 0}, 50, sun)
	view := s.ViewMatrix()
	require.False(t, view == mgl32.Mat4{})
}
