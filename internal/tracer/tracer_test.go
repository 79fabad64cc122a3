package tracer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

// Every binding constant in bindings.go must be unique: spec.md §9
// "the descriptor bundle must preserve them exactly, not re-number
// compactly", and reusing a number would silently alias two inputs.
func TestBindingNumbersAreUnique(t *testing.T) {
	seen := map[uint32]bool{}
	for _, b := range []uint32{
		BindingRenderInfo, BindingEnvironmentInfo, BindingTweakableParameters,
		BindingTemporalFilterInfo, BindingSpatialFilterInfo,
		BindingTransmittanceLut, BindingMultiScatterLut, BindingSkyViewLut, BindingShadowMap,
		BindingBackground, BindingBeamDepth, BindingRaw, BindingGodRay, BindingDepth, BindingHit,
		BindingHistLength, BindingMotion, BindingNormal, BindingLastNormal, BindingPosition,
		BindingLastPosition, BindingVoxHash, BindingLastVoxHash, BindingAccumed, BindingLastAccumed,
		BindingGodRayAccumed, BindingLastGodRayAccumed, BindingATrousPing, BindingATrousPong,
		BindingATrousIterationBuf, BindingTaa, BindingLastTaa, BindingRenderTarget, BindingOctreeBuffer,
		BindingChunkIndices, BindingChunksInfo, BindingBlitted, BindingOctreeVisualization,
		BindingStratumOffset, BindingPerStratumLocking, BindingVisibility, BindingSeedVisibility,
		BindingGradientNormPing, BindingGradientNormPong, BindingBlueNoiseScalar, BindingBlueNoiseVec2,
		BindingBlueNoiseVec3, BindingBlueNoiseCosine, BindingDefaultSampler,
	} {
		require.Falsef(t, seen[b], "binding %d used twice", b)
		seen[b] = true
		require.LessOrEqual(t, b, uint32(48))
	}
}

// The appended octree buffer binding is called out by name in spec.md
// §6 ("binding 33 = appended octree buffer") and must not drift.
func TestAppendedOctreeBufferBindingIsThirtyThree(t *testing.T) {
	require.Equal(t, uint32(33), BindingOctreeBuffer)
}

func TestResolutionDerivesLowResFromUpscaleRatio(t *testing.T) {
	res := NewResolution(1920, 1080, 2.0)
	require.Equal(t, uint32(960), res.LowWidth)
	require.Equal(t, uint32(540), res.LowHeight)
	require.Equal(t, uint32(1920), res.HighWidth)
	require.Equal(t, uint32(1080), res.HighHeight)
}

func TestUniformByteLayoutsMatchDeclaredSizes(t *testing.T) {
	ri := &RenderInfo{}
	require.Len(t, ri.Bytes(), RenderInfoSize)

	ei := &EnvironmentInfo{}
	require.Len(t, ei.Bytes(), EnvironmentInfoSize)

	tp := &TweakableParameters{}
	require.Len(t, tp.Bytes(), TweakableParametersSize)

	tf := &TemporalFilterInfo{}
	require.Len(t, tf.Bytes(), TemporalFilterInfoSize)

	sf := &SpatialFilterInfo{}
	require.Len(t, sf.Bytes(), SpatialFilterInfoSize)
}

func readF32(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}

func TestRenderInfoRoundTripsCameraPositionAndScalars(t *testing.T) {
	ri := &RenderInfo{CamPos: mgl32.Vec3{1, 2, 3}, VFov: 70, CurrentSample: 5, Time: 1.5}
	buf := ri.Bytes()

	require.InDelta(t, float32(1), readF32(buf, 0), 1e-6)
	require.InDelta(t, float32(2), readF32(buf, 4), 1e-6)
	require.InDelta(t, float32(3), readF32(buf, 8), 1e-6)

	vfovOff := RenderInfoSize - 12
	require.InDelta(t, float32(70), readF32(buf, vfovOff), 1e-6)
	require.Equal(t, uint32(5), binary.LittleEndian.Uint32(buf[vfovOff+4:]))
	require.InDelta(t, float32(1.5), readF32(buf, vfovOff+8), 1e-6)
}

func TestSunDirFromAnglesIsUnitLength(t *testing.T) {
	dir := SunDirFromAngles(mgl32.DegToRad(45), mgl32.DegToRad(90))
	require.InDelta(t, float32(1), dir.Len(), 1e-4)
}

func TestTweakableParametersPacksBoolsAsU32(t *testing.T) {
	tp := &TweakableParameters{Taa: true, VisualizeOctree: true}
	buf := tp.Bytes()

	require.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[0:]))  // VisualizeOctree
	require.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[4:]))  // VisualizeChunks
	require.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[16:])) // Taa (5th flag)
}

// Exposure feeds the postProcessing pass's tone-map knob (spec.md
// §4.5.2 step 11), sourced from SvoTracerTweakingData.explosure.
func TestTweakableParametersPacksExposureAsTrailingFloat(t *testing.T) {
	tp := &TweakableParameters{Exposure: 2.5}
	buf := tp.Bytes()
	require.InDelta(t, float32(2.5), readF32(buf, TweakableParametersSize-4), 1e-6)
}
