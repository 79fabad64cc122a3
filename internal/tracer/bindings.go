// Package tracer implements the SVO Tracer subsystem (spec.md §4.5):
// the render-image ownership, per-frame UBOs, and the ordered compute
// pipeline chain that turns the appended octree buffer into a
// denoised, TAA-upscaled frame. It is grounded on
// rt/gpu/manager.go's single-descriptor-set-per-pass style
// (GBufferBindGroup0/1/2) generalized to the Descriptor Bundle type in
// internal/descriptor, and on original_source/SvoTracer.{hpp,cpp}'s
// fixed pipeline order (transmittance -> multiscattering -> sky-view
// -> shadow -> beam -> trace -> god-ray -> temporal -> a-trous -> background ->
// taa -> post -> forward-copies).
package tracer

// Binding numbers are fixed by spec.md §6 ("a reimplementation must
// keep them stable, because shader sources reference them literally
// (e.g. binding 33 = appended octree buffer)"). This table assigns
// every other binding a concrete, stable number in the same 0-48
// range, grouped by the UBO/image family it belongs to.
const (
	BindingRenderInfo           uint32 = 0
	BindingEnvironmentInfo      uint32 = 1
	BindingTweakableParameters  uint32 = 2
	BindingTemporalFilterInfo   uint32 = 3
	BindingSpatialFilterInfo    uint32 = 4

	BindingTransmittanceLut uint32 = 5
	BindingMultiScatterLut  uint32 = 6
	BindingSkyViewLut       uint32 = 7
	BindingShadowMap        uint32 = 8

	BindingBackground  uint32 = 9
	BindingBeamDepth   uint32 = 10
	BindingRaw         uint32 = 11
	BindingGodRay      uint32 = 12
	BindingDepth       uint32 = 13
	BindingHit         uint32 = 14
	BindingHistLength  uint32 = 15
	BindingMotion      uint32 = 16

	BindingNormal     uint32 = 17
	BindingLastNormal uint32 = 18

	BindingPosition     uint32 = 19
	BindingLastPosition uint32 = 20

	BindingVoxHash     uint32 = 21
	BindingLastVoxHash uint32 = 22

	BindingAccumed     uint32 = 23
	BindingLastAccumed uint32 = 24

	BindingGodRayAccumed     uint32 = 25
	BindingLastGodRayAccumed uint32 = 26

	BindingATrousPing          uint32 = 27
	BindingATrousPong          uint32 = 28
	BindingATrousIterationBuf  uint32 = 29

	BindingTaa     uint32 = 30
	BindingLastTaa uint32 = 31
	BindingRenderTarget uint32 = 32

	// BindingOctreeBuffer is fixed by spec.md §6's literal example.
	BindingOctreeBuffer uint32 = 33
	BindingChunkIndices uint32 = 34
	BindingChunksInfo   uint32 = 35

	BindingBlitted             uint32 = 36
	BindingOctreeVisualization uint32 = 37

	BindingStratumOffset            uint32 = 38
	BindingPerStratumLocking        uint32 = 39
	BindingVisibility               uint32 = 40
	BindingSeedVisibility           uint32 = 41
	BindingGradientNormPing         uint32 = 42
	BindingGradientNormPong         uint32 = 43

	BindingBlueNoiseScalar uint32 = 44
	BindingBlueNoiseVec2   uint32 = 45
	BindingBlueNoiseVec3   uint32 = 46
	BindingBlueNoiseCosine uint32 = 47

	BindingDefaultSampler uint32 = 48
)
