package tracer

import (
	"encoding/binary"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/svoray/internal/descriptor"
	"github.com/gekko3d/svoray/internal/gpures"
	"github.com/gekko3d/svoray/internal/pipeline"
)

// Stage names the fixed pipeline-chain order spec.md §4.5.2 requires.
// Declared as constants (not iota-derived magic numbers) so a shader
// directory layout and log lines can name a stage by the same string
// used to build it.
const (
	StageTransmittanceLut = "transmittanceLut"
	StageMultiScatterLut  = "multiScatteringLut"
	StageSkyViewLut       = "skyViewLut"
	StageShadowMap        = "shadowMap"
	StageCoarseBeam       = "svoCoarseBeam"
	StageTracing          = "svoTracing"
	StageGodRay           = "godRay"
	StageTemporalFilter   = "temporalFilter"
	StageATrous           = "aTrous"
	StageBackgroundBlit   = "backgroundBlit"
	StageTaaUpscaling     = "taaUpscaling"
	StagePostProcessing   = "postProcessing"
)

// stageOrder is the sequence RecordFrame dispatches in, matching
// spec.md §4.5.2 steps 1-11 (the à-trous loop and forward copies are
// handled separately since they are not 1:1 with a single pipeline).
var stageOrder = []string{
	StageTransmittanceLut, StageMultiScatterLut, StageSkyViewLut, StageShadowMap,
	StageCoarseBeam, StageTracing, StageGodRay, StageTemporalFilter,
	StageBackgroundBlit, StageTaaUpscaling, StagePostProcessing,
}

// ShaderSet resolves a stage name to its compiled source path, the
// seam between this package and the on-disk shader source layout (and the
// file hot-reload watcher in internal/hotreload, which watches these
// same paths).
type ShaderSet map[string]string

// Config fixes the structural parameters the tracer was built for
// (spec.md §6: SvoTracer.*).
type Config struct {
	FramesInFlight  int
	ATrousSizeMax   int
	BeamResolution  uint32
	ShadowMapRes    uint32
	UpscaleRatio    float32
}

// Tracer owns every render-target image, the multi-frame UBOs, the
// descriptor bundle shared by every compute pass, and the ordered
// pipeline chain (spec.md §4.5 / §2 row 6).
type Tracer struct {
	device *wgpu.Device
	queue  *wgpu.Queue
	cfg    Config
	res    Resolution

	Images *Images
	Bundle *descriptor.Bundle

	renderInfo          *gpures.UniformBufferBundle
	environmentInfo     *gpures.UniformBufferBundle
	tweakableParameters *gpures.UniformBufferBundle
	temporalFilterInfo  *gpures.UniformBufferBundle
	spatialFilterInfo   *gpures.UniformBufferBundle

	aTrousIterationBuf    *gpures.Buffer // device-resident current iteration index
	aTrousIterationStage  *gpures.Buffer // staging buffer CopyBufferToBuffer reads from

	pipelines map[string]*pipeline.Compute
}

// Deps bundles the externally-owned GPU resources the tracer binds but
// does not own: the appended octree buffer and chunk-index directory
// the SVO Builder publishes into, and the blue-noise textures loaded
// once at startup (spec.md §4.4's "appended octree buffer" is written
// by the builder and read here; C.1 "blue-noise-driven sampling").
type Deps struct {
	AppendedOctreeBuffer *gpures.Buffer
	ChunkIndicesBuffer   *gpures.Buffer
	ChunksInfoBuffer     *gpures.Buffer
	BlueNoiseScalar      *gpures.Image
	BlueNoiseVec2        *gpures.Image
	BlueNoiseVec3        *gpures.Image
	BlueNoiseCosine      *gpures.Image
}

// New allocates every render image and UBO, wires the shared
// descriptor bundle at the fixed binding numbers (internal/tracer
// bindings.go), and builds every pipeline in shaders. Every entry in
// shaders must resolve (startup compile failures are fatal, spec.md
// §7).
func New(device *wgpu.Device, queue *wgpu.Queue, cfg Config, highWidth, highHeight uint32, deps Deps, shaders ShaderSet) (*Tracer, error) {
	res := NewResolution(highWidth, highHeight, cfg.UpscaleRatio)
	beamTilesX := (res.LowWidth+cfg.BeamResolution-1)/cfg.BeamResolution + 1
	beamTilesY := (res.LowHeight+cfg.BeamResolution-1)/cfg.BeamResolution + 1

	images, err := NewImages(device, res, cfg.ShadowMapRes, beamTilesX, beamTilesY)
	if err != nil {
		return nil, err
	}

	t := &Tracer{
		device: device,
		queue:  queue,
		cfg:    cfg,
		res:    res,
		Images: images,
	}

	if err := t.createUniforms(); err != nil {
		images.Release()
		return nil, err
	}

	aTrousIterBuf, err := gpures.CreateBuffer(device, "aTrousIterationBuffer", 4,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	if err != nil {
		images.Release()
		return nil, fmt.Errorf("tracer: create a-trous iteration buffer: %w", err)
	}
	t.aTrousIterationBuf = aTrousIterBuf

	stageBuf, err := gpures.CreateBuffer(device, "aTrousIterationStaging", 4*uint64(max(cfg.ATrousSizeMax, 1)), wgpu.BufferUsageCopySrc|wgpu.BufferUsageCopyDst)
	if err != nil {
		images.Release()
		return nil, fmt.Errorf("tracer: create a-trous staging buffer: %w", err)
	}
	t.aTrousIterationStage = stageBuf

	if err := t.buildBundle(deps); err != nil {
		return nil, err
	}

	if err := t.buildPipelines(shaders); err != nil {
		return nil, err
	}

	return t, nil
}

func (t *Tracer) createUniforms() error {
	var err error
	if t.renderInfo, err = gpures.CreateUniformBufferBundle(t.device, "renderInfo", RenderInfoSize, t.cfg.FramesInFlight); err != nil {
		return fmt.Errorf("tracer: create RenderInfo uniforms: %w", err)
	}
	if t.environmentInfo, err = gpures.CreateUniformBufferBundle(t.device, "environmentInfo", EnvironmentInfoSize, t.cfg.FramesInFlight); err != nil {
		return fmt.Errorf("tracer: create EnvironmentInfo uniforms: %w", err)
	}
	if t.tweakableParameters, err = gpures.CreateUniformBufferBundle(t.device, "tweakableParameters", TweakableParametersSize, t.cfg.FramesInFlight); err != nil {
		return fmt.Errorf("tracer: create TweakableParameters uniforms: %w", err)
	}
	if t.temporalFilterInfo, err = gpures.CreateUniformBufferBundle(t.device, "temporalFilterInfo", TemporalFilterInfoSize, t.cfg.FramesInFlight); err != nil {
		return fmt.Errorf("tracer: create TemporalFilterInfo uniforms: %w", err)
	}
	if t.spatialFilterInfo, err = gpures.CreateUniformBufferBundle(t.device, "spatialFilterInfo", SpatialFilterInfoSize, t.cfg.FramesInFlight); err != nil {
		return fmt.Errorf("tracer: create SpatialFilterInfo uniforms: %w", err)
	}
	return nil
}

func (t *Tracer) buildBundle(deps Deps) error {
	b := descriptor.New(t.device, t.cfg.FramesInFlight)

	must := func(err error) error {
		if err != nil {
			return fmt.Errorf("tracer: descriptor bundle: %w", err)
		}
		return nil
	}

	if err := must(b.BindUniformBufferBundle(BindingRenderInfo, t.renderInfo)); err != nil {
		return err
	}
	if err := must(b.BindUniformBufferBundle(BindingEnvironmentInfo, t.environmentInfo)); err != nil {
		return err
	}
	if err := must(b.BindUniformBufferBundle(BindingTweakableParameters, t.tweakableParameters)); err != nil {
		return err
	}
	if err := must(b.BindUniformBufferBundle(BindingTemporalFilterInfo, t.temporalFilterInfo)); err != nil {
		return err
	}
	if err := must(b.BindUniformBufferBundle(BindingSpatialFilterInfo, t.spatialFilterInfo)); err != nil {
		return err
	}

	images := []struct {
		binding uint32
		img     *gpures.Image
	}{
		{BindingTransmittanceLut, t.Images.TransmittanceLut},
		{BindingMultiScatterLut, t.Images.MultiScatterLut},
		{BindingSkyViewLut, t.Images.SkyViewLut},
		{BindingShadowMap, t.Images.ShadowMap},
		{BindingBackground, t.Images.Background},
		{BindingBeamDepth, t.Images.BeamDepth},
		{BindingRaw, t.Images.Raw},
		{BindingGodRay, t.Images.GodRay},
		{BindingDepth, t.Images.Depth},
		{BindingHit, t.Images.Hit},
		{BindingHistLength, t.Images.TemporalHistLength},
		{BindingMotion, t.Images.Motion},
		{BindingNormal, t.Images.Normal},
		{BindingLastNormal, t.Images.LastNormal},
		{BindingPosition, t.Images.Position},
		{BindingLastPosition, t.Images.LastPosition},
		{BindingVoxHash, t.Images.VoxHash},
		{BindingLastVoxHash, t.Images.LastVoxHash},
		{BindingAccumed, t.Images.Accumed},
		{BindingLastAccumed, t.Images.LastAccumed},
		{BindingGodRayAccumed, t.Images.GodRayAccumed},
		{BindingLastGodRayAccumed, t.Images.LastGodRayAccumed},
		{BindingATrousPing, t.Images.ATrousPing},
		{BindingATrousPong, t.Images.ATrousPong},
		{BindingTaa, t.Images.Taa},
		{BindingRenderTarget, t.Images.RenderTarget},
		{BindingBlitted, t.Images.Blitted},
		{BindingOctreeVisualization, t.Images.OctreeVisualization},
		{BindingStratumOffset, t.Images.StratumOffset},
		{BindingPerStratumLocking, t.Images.PerStratumLocking},
		{BindingVisibility, t.Images.Visibility},
		{BindingSeedVisibility, t.Images.SeedVisibility},
		{BindingGradientNormPing, t.Images.TemporalGradientNormalizationPing},
		{BindingGradientNormPong, t.Images.TemporalGradientNormalizationPong},
	}
	for _, e := range images {
		if err := must(b.BindStorageImage(e.binding, e.img)); err != nil {
			return err
		}
	}

	if err := must(b.BindSampledImage(BindingLastTaa, t.Images.LastTaa)); err != nil {
		return err
	}
	if err := must(b.BindSampledImage(BindingBlueNoiseScalar, deps.BlueNoiseScalar)); err != nil {
		return err
	}
	if err := must(b.BindSampledImage(BindingBlueNoiseVec2, deps.BlueNoiseVec2)); err != nil {
		return err
	}
	if err := must(b.BindSampledImage(BindingBlueNoiseVec3, deps.BlueNoiseVec3)); err != nil {
		return err
	}
	if err := must(b.BindSampledImage(BindingBlueNoiseCosine, deps.BlueNoiseCosine)); err != nil {
		return err
	}
	if err := must(b.BindSampler(BindingDefaultSampler, t.Images.DefaultSampler)); err != nil {
		return err
	}

	if err := must(b.BindStorageBuffer(BindingOctreeBuffer, deps.AppendedOctreeBuffer)); err != nil {
		return err
	}
	if err := must(b.BindStorageBuffer(BindingChunkIndices, deps.ChunkIndicesBuffer)); err != nil {
		return err
	}
	if err := must(b.BindStorageBuffer(BindingChunksInfo, deps.ChunksInfoBuffer)); err != nil {
		return err
	}
	if err := must(b.BindStorageBuffer(BindingATrousIterationBuf, t.aTrousIterationBuf)); err != nil {
		return err
	}

	if err := b.Create(); err != nil {
		return fmt.Errorf("tracer: create descriptor bundle: %w", err)
	}
	t.Bundle = b
	return nil
}

func (t *Tracer) buildPipelines(shaders ShaderSet) error {
	t.pipelines = make(map[string]*pipeline.Compute, len(stageOrder)+1)

	build := func(name string, wg pipeline.WorkGroupSize) error {
		src, ok := shaders[name]
		if !ok {
			return fmt.Errorf("tracer: no shader source registered for stage %q", name)
		}
		p := pipeline.New(t.device, name, src, wg, t.Bundle)
		if _, err := p.CompileAndCacheShaderModule(false); err != nil {
			return err
		}
		if err := p.Build(); err != nil {
			return err
		}
		t.pipelines[name] = p
		return nil
	}

	wg8 := pipeline.WorkGroupSize{X: 8, Y: 8, Z: 1}
	for _, name := range stageOrder {
		if err := build(name, wg8); err != nil {
			return err
		}
	}
	return build(StageATrous, wg8)
}

// FrameUniforms bundles one frame's dynamic uniform data (spec.md §4.5.1).
type FrameUniforms struct {
	Render   RenderInfo
	Env      EnvironmentInfo
	Tweak    TweakableParameters
	Temporal TemporalFilterInfo
	Spatial  SpatialFilterInfo
}

// writeUniforms uploads frame i's data, the "host writes to UBOs" step
// of spec.md §5 (host-visible, coherent, sequential-write) -- webgpu's
// WriteBuffer via the queue plays the role of the
// HOST_WRITE -> SHADER_READ barrier the GPU scheduler inserts
// automatically at submit time.
func (t *Tracer) writeUniforms(frame int, u FrameUniforms) {
	t.renderInfo.Write(t.queue, frame, u.Render.Bytes())
	t.environmentInfo.Write(t.queue, frame, u.Env.Bytes())
	t.tweakableParameters.Write(t.queue, frame, u.Tweak.Bytes())
	t.temporalFilterInfo.Write(t.queue, frame, u.Temporal.Bytes())
	t.spatialFilterInfo.Write(t.queue, frame, u.Spatial.Bytes())
}

// RecordFrame builds the frame's trace command buffer: every pass in
// spec.md §4.5.2 steps 1-11, the à-trous loop, and the history
// forward-copies (step 12). Every pass is separated by webgpu's
// automatic resource-usage tracking, which plays the role of the
// SHADER_WRITE -> SHADER_READ|WRITE barriers spec.md describes
// explicitly for the Vulkan original.
func (t *Tracer) RecordFrame(frame int, u FrameUniforms, iterationCount int) (*wgpu.CommandBuffer, error) {
	t.writeUniforms(frame, u)

	encoder, err := t.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("tracer: create command encoder: %w", err)
	}

	low := t.res.LowWidth
	lowH := t.res.LowHeight
	high := t.res.HighWidth
	highH := t.res.HighHeight

	t.dispatch(encoder, frame, StageTransmittanceLut, transmittanceLutWidth, transmittanceLutHeight, 1)
	t.dispatch(encoder, frame, StageMultiScatterLut, multiScatterLutSize, multiScatterLutSize, 1)
	t.dispatch(encoder, frame, StageSkyViewLut, skyViewLutSize, skyViewLutSize, 1)
	t.dispatch(encoder, frame, StageShadowMap, t.cfg.ShadowMapRes, t.cfg.ShadowMapRes, 1)
	t.dispatch(encoder, frame, StageCoarseBeam, t.Images.BeamDepth.Width, t.Images.BeamDepth.Height, 1)
	t.dispatch(encoder, frame, StageTracing, low, lowH, 1)
	t.dispatch(encoder, frame, StageGodRay, low, lowH, 1)
	t.dispatch(encoder, frame, StageTemporalFilter, low, lowH, 1)

	if err := t.recordATrous(encoder, frame, low, lowH, iterationCount); err != nil {
		return nil, err
	}

	t.dispatch(encoder, frame, StageBackgroundBlit, low, lowH, 1)
	t.dispatch(encoder, frame, StageTaaUpscaling, high, highH, 1)
	t.dispatch(encoder, frame, StagePostProcessing, high, highH, 1)

	t.Images.RecordForwardCopies(encoder)

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("tracer: finish trace command buffer: %w", err)
	}
	return cmd, nil
}

func (t *Tracer) dispatch(encoder *wgpu.CommandEncoder, frame int, stage string, nx, ny, nz uint32) {
	p := t.pipelines[stage]
	pass := encoder.BeginComputePass(nil)
	p.RecordCommand(pass, frame, nx, ny, nz)
	pass.End()
}

// recordATrous runs the edge-aware 5x5 loop, ping-ponging ATrousPing/
// ATrousPong. The staging buffer is pre-filled with every iteration
// index 0..iterationCount-1 (one queue write, which lands before the
// command buffer runs), and each pass is preceded by a copy of its own
// index into aTrousIterationBuffer (spec.md §4.5.2 step 8: "copy
// iteration index into aTrousIterationBuffer via a pre-filled staging
// buffer + vkCmdCopyBuffer + TRANSFER->COMPUTE barrier").
func (t *Tracer) recordATrous(encoder *wgpu.CommandEncoder, frame int, nx, ny uint32, iterationCount int) error {
	if iterationCount > t.cfg.ATrousSizeMax {
		return fmt.Errorf("tracer: a-trous iteration count %d exceeds configured max %d", iterationCount, t.cfg.ATrousSizeMax)
	}
	if iterationCount <= 0 {
		return nil
	}
	indices := make([]byte, 4*iterationCount)
	for i := 0; i < iterationCount; i++ {
		binary.LittleEndian.PutUint32(indices[i*4:], uint32(i))
	}
	t.aTrousIterationStage.Write(t.queue, 0, indices)

	p := t.pipelines[StageATrous]
	for i := 0; i < iterationCount; i++ {
		encoder.CopyBufferToBuffer(t.aTrousIterationStage.Handle(), uint64(i)*4, t.aTrousIterationBuf.Handle(), 0, 4)

		pass := encoder.BeginComputePass(nil)
		p.RecordCommand(pass, frame, nx, ny, 1)
		pass.End()
	}
	return nil
}

// Pipelines exposes the tracer's named pipeline chain so a caller can
// register each one with internal/hotreload for shader hot-reload
// (spec.md §4.3/§7); the tracer itself has no opinion on file watching.
func (t *Tracer) Pipelines() map[string]*pipeline.Compute { return t.pipelines }

// Resize recreates every resolution-dependent image and rebuilds the
// descriptor bundle's bind groups against the new image handles
// (spec.md §4.5.3). Pipeline layouts are unaffected (same binding
// types, same count), so pipelines are not rebuilt; since this package
// records a fresh command buffer every frame rather than caching one,
// there is nothing further to re-record.
func (t *Tracer) Resize(highWidth, highHeight uint32) error {
	res := NewResolution(highWidth, highHeight, t.cfg.UpscaleRatio)
	beamTilesX := (res.LowWidth+t.cfg.BeamResolution-1)/t.cfg.BeamResolution + 1
	beamTilesY := (res.LowHeight+t.cfg.BeamResolution-1)/t.cfg.BeamResolution + 1

	if err := t.Images.Resize(res, beamTilesX, beamTilesY); err != nil {
		return err
	}
	t.res = res

	if err := t.Bundle.Create(); err != nil {
		return fmt.Errorf("tracer: rebuild descriptor bundle after resize: %w", err)
	}
	return nil
}

// Deliver records the per-swapchain-image command buffer that blits
// RenderTarget into the acquired swapchain image (spec.md §4.5.2's
// "separate per-swapchain-image delivery command buffer").
func (t *Tracer) Deliver(swapchainTexture *wgpu.Texture, width, height uint32) (*wgpu.CommandBuffer, error) {
	encoder, err := t.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("tracer: create deliver command encoder: %w", err)
	}
	size := wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1}
	encoder.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{Texture: t.Images.RenderTarget.Texture},
		&wgpu.ImageCopyTexture{Texture: swapchainTexture},
		&size,
	)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("tracer: finish deliver command buffer: %w", err)
	}
	return cmd, nil
}

// Release destroys every GPU resource the tracer owns.
func (t *Tracer) Release() {
	for _, p := range t.pipelines {
		p.Release()
	}
	t.Images.Release()
	t.renderInfo.Release()
	t.environmentInfo.Release()
	t.tweakableParameters.Release()
	t.temporalFilterInfo.Release()
	t.spatialFilterInfo.Release()
	t.aTrousIterationBuf.Release()
	t.aTrousIterationStage.Release()
}
