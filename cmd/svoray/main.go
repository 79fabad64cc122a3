// Command svoray is the renderer's entrypoint: it wires GLFW window
// and input, webgpu device/surface bring-up, the SVO Builder, the SVO
// Tracer and the Application Loop together, mirroring
// voxelrt/rt_main.go's window-creation-plus-callbacks shape extended
// with the config/logging/hot-reload machinery spec.md §6/§7 add.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/svoray/internal/app"
	"github.com/gekko3d/svoray/internal/bluenoise"
	"github.com/gekko3d/svoray/internal/camera"
	"github.com/gekko3d/svoray/internal/config"
	"github.com/gekko3d/svoray/internal/descriptor"
	"github.com/gekko3d/svoray/internal/hotreload"
	"github.com/gekko3d/svoray/internal/logging"
	"github.com/gekko3d/svoray/internal/pipeline"
	"github.com/gekko3d/svoray/internal/scheduler"
	"github.com/gekko3d/svoray/internal/svobuilder"
	"github.com/gekko3d/svoray/internal/tracer"
	"github.com/gekko3d/svoray/internal/voxel"
)

func init() {
	runtime.LockOSThread()
}

const shaderDir = "assets/shaders"
const blueNoiseDir = "assets/textures/stbn"

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log := logging.New("svoray", *debug)

	cfg, err := config.Load("DefaultConfig.toml", "CustomConfig.toml")
	if err != nil {
		log.Errorf("load config: %v", err)
		os.Exit(1)
	}

	if err := glfw.Init(); err != nil {
		log.Errorf("glfw init: %v", err)
		os.Exit(1)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1280, 720, "svoray", nil, nil)
	if err != nil {
		log.Errorf("create window: %v", err)
		os.Exit(1)
	}
	defer window.Destroy()

	r, err := newRenderer(window, cfg, log)
	if err != nil {
		log.Errorf("init renderer: %v", err)
		os.Exit(1)
	}
	defer r.shutdown()

	wireInput(window, r)

	for !window.ShouldClose() && !r.loop.Closing() {
		glfw.PollEvents()
		r.update()
		if _, err := r.loop.RunOnce(r.lowRes(), r.highRes()); err != nil {
			log.Errorf("render frame: %v", err)
			break
		}
	}
}

// renderer owns every GPU-backed subsystem and the per-frame state
// the Application Loop's FrameSource hook reads.
type renderer struct {
	window *glfw.Window
	device *wgpu.Device
	queue  *wgpu.Queue
	surface *wgpu.Surface
	surfaceCfg *wgpu.SurfaceConfiguration
	adapter *wgpu.Adapter

	cfg *config.Config
	log logging.Logger

	sched    *scheduler.Scheduler
	watcher  *hotreload.Watcher
	builder  *svobuilder.Builder
	tracer   *tracer.Tracer
	loop     *app.Loop

	dims voxel.GridDims

	cam          *camera.Camera
	shadowCenter mgl32.Vec3
	jitter       []struct{ X, Y float32 }

	prevV, prevP mgl32.Mat4

	lastMouseX, lastMouseY float64
	mouseCaptured          bool
	keys                   map[glfw.Key]bool

	startTime  time.Time
	lastUpdate time.Time

	windowStyle int // 0 windowed, 1 maximized, 2 fullscreen on the primary monitor

	stopWatch chan struct{}
}

func newRenderer(window *glfw.Window, cfg *config.Config, log logging.Logger) (*renderer, error) {
	instance := wgpu.CreateInstance(nil)
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(window))

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	queue := device.GetQueue()

	width, height := window.GetFramebufferSize()
	caps := surface.GetCapabilities(adapter)
	surfaceCfg := &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopyDst,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, device, surfaceCfg)

	sched := scheduler.New()
	watcher, err := hotreload.New(sched, func(path string, err error) {
		log.Warnf("hot-reload: rebuild of %s failed: %v", path, err)
	})
	if err != nil {
		return nil, fmt.Errorf("create hot-reload watcher: %w", err)
	}

	dims := voxel.GridDims{X: cfg.SvoBuilder.ChunkDim[0], Y: cfg.SvoBuilder.ChunkDim[1], Z: cfg.SvoBuilder.ChunkDim[2]}
	builder, err := newBuilder(device, queue, cfg, dims, watcher)
	if err != nil {
		return nil, fmt.Errorf("init svo builder: %w", err)
	}
	builder.SetLogger(log)

	blueNoise, err := bluenoise.LoadAll(blueNoiseDir)
	if err != nil {
		return nil, fmt.Errorf("load blue noise: %w", err)
	}
	scalarImg, err := blueNoise[bluenoise.Scalar].Upload(device, queue, "blueNoiseScalar")
	if err != nil {
		return nil, err
	}
	vec2Img, err := blueNoise[bluenoise.Vec2].Upload(device, queue, "blueNoiseVec2")
	if err != nil {
		return nil, err
	}
	vec3Img, err := blueNoise[bluenoise.Vec3].Upload(device, queue, "blueNoiseVec3")
	if err != nil {
		return nil, err
	}
	cosineImg, err := blueNoise[bluenoise.WeightedCosine].Upload(device, queue, "blueNoiseCosine")
	if err != nil {
		return nil, err
	}

	tCfg := tracer.Config{
		FramesInFlight: cfg.Application.FramesInFlight,
		ATrousSizeMax:  cfg.SvoTracer.ATrousSizeMax,
		BeamResolution: uint32(cfg.SvoTracer.BeamResolution),
		ShadowMapRes:   uint32(cfg.SvoTracer.ShadowMapResolution),
		UpscaleRatio:   cfg.SvoTracer.UpscaleRatio,
	}
	deps := tracer.Deps{
		AppendedOctreeBuffer: builder.OctreeBuffer(),
		ChunkIndicesBuffer:   builder.ChunkIndicesBuffer(),
		ChunksInfoBuffer:     builder.ChunksInfoBuffer(),
		BlueNoiseScalar:      scalarImg,
		BlueNoiseVec2:        vec2Img,
		BlueNoiseVec3:        vec3Img,
		BlueNoiseCosine:      cosineImg,
	}
	tr, err := tracer.New(device, queue, tCfg, uint32(width), uint32(height), deps, traceShaderSet())
	if err != nil {
		return nil, fmt.Errorf("init svo tracer: %w", err)
	}
	for _, p := range tr.Pipelines() {
		if err := watcher.Watch(p.SourcePath, p); err != nil {
			return nil, fmt.Errorf("watch tracer shader %s: %w", p.SourcePath, err)
		}
	}

	cam := camera.New(
		cfg.Camera.InitPositionVec3(), cfg.Camera.InitYaw, cfg.Camera.InitPitch,
		cfg.Camera.VFov, cfg.Camera.MovementSpeed, cfg.Camera.MovementSpeedBoost, cfg.Camera.MouseSensitivity,
	)

	r := &renderer{
		window: window, device: device, queue: queue, surface: surface, surfaceCfg: surfaceCfg, adapter: adapter,
		cfg: cfg, log: log,
		sched: sched, watcher: watcher, builder: builder, tracer: tr,
		dims:   dims,
		cam:    cam,
		jitter: camera.TAAJitterSequence(uint32(cfg.SvoTracer.TaaSamplingOffsetSize)),
		keys:   make(map[glfw.Key]bool),
	}
	r.loop = app.New(device, queue, tr, &surfaceSwapchain{surface: surface}, r, sched, log, cfg.Application.FramesInFlight)

	r.startTime = timeNow()
	r.lastUpdate = r.startTime
	r.prevV = r.cam.ViewMatrix()
	r.prevP = r.cam.ProjectionMatrix(float32(width) / float32(height))

	r.stopWatch = make(chan struct{})
	go r.watcher.Run(r.stopWatch)

	if err := r.buildInitialScene(); err != nil {
		return nil, fmt.Errorf("build initial scene: %w", err)
	}

	return r, nil
}

// timeNow exists so the one non-deterministic call in this file is
// isolated to a single line.
func timeNow() time.Time { return time.Now() }

// newBuilder constructs the builder's three compute stages sharing one
// descriptor bundle (the scratch fragment-list/count/edit-info buffers
// every stage's shader binds), the way SvoBuilder.cpp's build and edit
// passes reuse a single pipeline layout across field construction,
// field modification and voxelization.
func newBuilder(device *wgpu.Device, queue *wgpu.Queue, cfg *config.Config, dims voxel.GridDims, watcher *hotreload.Watcher) (*svobuilder.Builder, error) {
	fragmentCountBuf, fragmentListBuf, editInfoBuf, err := svobuilder.NewScratchBuffers(device, cfg.SvoBuilder.ChunkVoxelDim)
	if err != nil {
		return nil, err
	}

	bundle := descriptor.New(device, 1)
	if err := bundle.BindStorageBuffer(0, fragmentCountBuf); err != nil {
		return nil, err
	}
	if err := bundle.BindStorageBuffer(1, fragmentListBuf); err != nil {
		return nil, err
	}
	if err := bundle.BindStorageBuffer(2, editInfoBuf); err != nil {
		return nil, err
	}
	if err := bundle.Create(); err != nil {
		return nil, fmt.Errorf("create builder descriptor bundle: %w", err)
	}

	fieldConstruction := pipeline.New(device, "fieldConstruction", filepath.Join(shaderDir, "build", "fieldConstruction.comp"), pipeline.WorkGroupSize{X: 8, Y: 8, Z: 8}, bundle)
	voxelization := pipeline.New(device, "voxelization", filepath.Join(shaderDir, "build", "voxelization.comp"), pipeline.WorkGroupSize{X: 8, Y: 8, Z: 8}, bundle)
	fieldModification := pipeline.New(device, "fieldModification", filepath.Join(shaderDir, "build", "fieldModification.comp"), pipeline.WorkGroupSize{X: 8, Y: 8, Z: 8}, bundle)

	for _, p := range []*pipeline.Compute{fieldConstruction, voxelization, fieldModification} {
		if _, err := p.CompileAndCacheShaderModule(false); err != nil {
			return nil, err
		}
		if err := p.Build(); err != nil {
			return nil, err
		}
		if err := watcher.Watch(p.SourcePath, p); err != nil {
			return nil, err
		}
	}

	chunkVoxelDim := cfg.SvoBuilder.ChunkVoxelDim
	maxFragments := uint64(chunkVoxelDim) * uint64(chunkVoxelDim) * uint64(chunkVoxelDim)
	// Every fragment can become at most one leaf plus one internal node
	// per octree level on the path to the root; doubling maxFragments
	// is a generous upper bound on the words a single chunk's octree
	// needs (BuildAndPublishOctree almost always uses far less).
	octreeWordsPerChunk := maxFragments * 2
	octreeBytes := uint64(dims.Count()) * octreeWordsPerChunk * 4

	return svobuilder.New(device, queue, svobuilder.Config{Dims: dims, ChunkVoxelDim: chunkVoxelDim},
		fieldConstruction, voxelization, fieldModification,
		fragmentCountBuf, fragmentListBuf, editInfoBuf, octreeBytes)
}

func traceShaderSet() tracer.ShaderSet {
	set := tracer.ShaderSet{}
	for _, stage := range []string{
		tracer.StageTransmittanceLut, tracer.StageMultiScatterLut, tracer.StageSkyViewLut, tracer.StageShadowMap,
		tracer.StageCoarseBeam, tracer.StageTracing, tracer.StageGodRay, tracer.StageTemporalFilter,
		tracer.StageATrous, tracer.StageBackgroundBlit, tracer.StageTaaUpscaling, tracer.StagePostProcessing,
	} {
		set[stage] = filepath.Join(shaderDir, "trace", stage+".comp")
	}
	return set
}

// buildInitialScene builds every chunk in the configured grid once at
// startup (spec.md §4.4's "build scene"), grounded on
// SvoBuilder.cpp's buildScene iterating the full chunkDim grid.
func (r *renderer) buildInitialScene() error {
	cfg := r.cfg.SvoBuilder
	for z := uint32(0); z < cfg.ChunkDim[2]; z++ {
		for y := uint32(0); y < cfg.ChunkDim[1]; y++ {
			for x := uint32(0); x < cfg.ChunkDim[0]; x++ {
				if err := r.builder.BuildChunk(voxel.ChunkCoord{X: x, Y: y, Z: z}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *renderer) lowRes() [2]uint32 {
	res := tracer.NewResolution(r.surfaceCfg.Width, r.surfaceCfg.Height, r.cfg.SvoTracer.UpscaleRatio)
	return [2]uint32{res.LowWidth, res.LowHeight}
}

func (r *renderer) highRes() [2]uint32 {
	return [2]uint32{r.surfaceCfg.Width, r.surfaceCfg.Height}
}

// update advances the camera from held keys, the per-frame host-side
// work spec.md §5 lists before NextFrame fills the UBOs.
func (r *renderer) update() {
	now := timeNow()
	dt := float32(now.Sub(r.lastUpdate).Seconds())
	r.lastUpdate = now

	speed := r.cam.Speed
	if r.keys[glfw.KeyLeftShift] {
		speed *= r.cam.SpeedBoost
	}

	move := mgl32.Vec3{}
	if r.keys[glfw.KeyW] {
		move = move.Add(r.cam.Forward())
	}
	if r.keys[glfw.KeyS] {
		move = move.Sub(r.cam.Forward())
	}
	if r.keys[glfw.KeyD] {
		move = move.Add(r.cam.Right())
	}
	if r.keys[glfw.KeyA] {
		move = move.Sub(r.cam.Right())
	}
	if r.keys[glfw.KeySpace] {
		move = move.Add(mgl32.Vec3{0, 0, 1})
	}
	if r.keys[glfw.KeyLeftControl] {
		move = move.Sub(mgl32.Vec3{0, 0, 1})
	}
	if move.Len() > 0 {
		r.cam.Position = r.cam.Position.Add(move.Normalize().Mul(speed * dt))
	}
}

// editReachDistance and editBrushRadius are expressed in chunk-grid
// space, the same units as camera.Camera.Position and
// svobuilder.BrushStroke (spec.md §4.4.2).
const (
	editReachDistance = 2.0
	editBrushRadius   = 0.3
)

// editAtCrosshair casts the stroke's center out along the camera's
// forward axis and applies it to every chunk it touches (spec.md
// §4.4.2), the mouse-click entry point into the edit path that
// wireInput's SetMouseButtonCallback drives.
func (r *renderer) editAtCrosshair(op svobuilder.Operation) {
	stroke := svobuilder.BrushStroke{
		Pos:       r.cam.Position.Add(r.cam.Forward().Mul(editReachDistance)),
		Radius:    editBrushRadius,
		Operation: op,
	}
	for _, c := range stroke.EditingChunks(r.dims) {
		if err := r.builder.EditChunk(c, stroke); err != nil {
			r.log.Errorf("edit chunk %+v: %v", c, err)
		}
	}
}

// NextFrame implements app.FrameSource: it fills every UBO field for
// frameIndex (spec.md §4.5.1).
func (r *renderer) NextFrame(frameIndex uint64, lowRes, highRes [2]uint32) tracer.FrameUniforms {
	aspect := float32(highRes[0]) / float32(highRes[1])
	jit := r.jitter[int(frameIndex)%len(r.jitter)]

	v := r.cam.ViewMatrix()
	p := r.cam.JitteredProjectionMatrix(aspect, jit.X/float32(highRes[0]), jit.Y/float32(highRes[1]))
	vp := p.Mul4(v)
	vpPrev := r.prevP.Mul4(r.prevV)

	sunDir := tracer.SunDirFromAngles(mgl32.DegToRad(r.cfg.SvoTracer.SunAltitude), mgl32.DegToRad(r.cfg.SvoTracer.SunAzimuth))
	shadowCam := camera.NewShadowMapCamera(r.shadowCenter, 64, sunDir)
	vpShadow := shadowCam.ProjectionMatrix().Mul4(shadowCam.ViewMatrix())

	render := tracer.RenderInfo{
		CamPos:       r.cam.Position,
		ShadowCamPos: shadowCam.Center,
		SubpixJitter: mgl32.Vec2{jit.X, jit.Y},
		V:            v, VInv: v.Inv(), VPrev: r.prevV, VPrevInv: r.prevV.Inv(),
		P: p, PInv: p.Inv(), PPrev: r.prevP, PPrevInv: r.prevP.Inv(),
		VP: vp, VPInv: vp.Inv(), VPPrev: vpPrev, VPPrevInv: vpPrev.Inv(),
		VPShadow: vpShadow, VPShadowInv: vpShadow.Inv(),
		LowRes: mgl32.Vec2{float32(lowRes[0]), float32(lowRes[1])}, InvLowRes: mgl32.Vec2{1 / float32(lowRes[0]), 1 / float32(lowRes[1])},
		HighRes: mgl32.Vec2{float32(highRes[0]), float32(highRes[1])}, InvHighRes: mgl32.Vec2{1 / float32(highRes[0]), 1 / float32(highRes[1])},
		VFov: r.cam.VFov, CurrentSample: uint32(frameIndex), Time: float32(timeNow().Sub(r.startTime).Seconds()),
	}

	r.prevV, r.prevP = v, p

	env := tracer.EnvironmentInfo{
		SunDir:                 sunDir,
		RayleighScatteringBase: mgl32.Vec3{r.cfg.SvoTracer.RayleighScatteringBase[0], r.cfg.SvoTracer.RayleighScatteringBase[1], r.cfg.SvoTracer.RayleighScatteringBase[2]},
		MieScatteringBase:      r.cfg.SvoTracer.MieScatteringBase,
		MieAbsorptionBase:      r.cfg.SvoTracer.MieAbsorptionBase,
		OzoneAbsorptionBase:    mgl32.Vec3{r.cfg.SvoTracer.OzoneAbsorptionBase[0], r.cfg.SvoTracer.OzoneAbsorptionBase[1], r.cfg.SvoTracer.OzoneAbsorptionBase[2]},
		SunLuminance:           r.cfg.SvoTracer.SunLuminance,
		AtmosLuminance:         r.cfg.SvoTracer.AtmosLuminance,
		SunSize:                r.cfg.SvoTracer.SunSize,
	}

	tweak := tracer.TweakableParameters{
		VisualizeOctree:  r.cfg.SvoTracer.VisualizeOctree,
		VisualizeChunks:  r.cfg.SvoTracer.VisualizeChunks,
		BeamOptimization: r.cfg.SvoTracer.BeamOptimization,
		TraceIndirectRay: r.cfg.SvoTracer.TraceIndirectRay,
		Taa:              r.cfg.SvoTracer.Taa,
		DebugI1:          int32(r.cfg.SvoTracer.DebugI1),
		DebugF1:          r.cfg.SvoTracer.DebugF1,
		DebugC1:          mgl32.Vec3{r.cfg.SvoTracer.DebugC1[0], r.cfg.SvoTracer.DebugC1[1], r.cfg.SvoTracer.DebugC1[2]},
		Exposure:         r.cfg.SvoTracer.Explosure,
	}

	temporal := tracer.TemporalFilterInfo{Alpha: r.cfg.SvoTracer.TemporalAlpha, PositionPhi: r.cfg.SvoTracer.TemporalPositionPhi}
	spatial := tracer.SpatialFilterInfo{
		IterationCount: uint32(r.cfg.SvoTracer.ATrousIterationCount),
		PhiC:           r.cfg.SvoTracer.PhiC, PhiN: r.cfg.SvoTracer.PhiN, PhiP: r.cfg.SvoTracer.PhiP,
		MinPhiZ: r.cfg.SvoTracer.MinPhiZ, MaxPhiZ: r.cfg.SvoTracer.MaxPhiZ,
		PhiZStableSampleCount: r.cfg.SvoTracer.PhiZStableSampleCount,
		ChangingLuminancePhi:  r.cfg.SvoTracer.ChangingLuminancePhi,
	}

	return tracer.FrameUniforms{Render: render, Env: env, Tweak: tweak, Temporal: temporal, Spatial: spatial}
}

// ATrousIterationCount implements app.FrameSource.
func (r *renderer) ATrousIterationCount() int { return r.cfg.SvoTracer.ATrousIterationCount }

func (r *renderer) shutdown() {
	r.loop.Shutdown()
	close(r.stopWatch)
	if err := r.watcher.Close(); err != nil {
		r.log.Warnf("close hot-reload watcher: %v", err)
	}
	r.tracer.Release()
	r.builder.Release()
}

// surfaceSwapchain adapts a wgpu.Surface to app.Swapchain.
type surfaceSwapchain struct {
	surface *wgpu.Surface
}

func (s *surfaceSwapchain) AcquireNextImage() (app.AcquiredImage, error) {
	tex, err := s.surface.GetCurrentTexture()
	if err != nil {
		return app.AcquiredImage{}, app.ErrSwapchainOutOfDate
	}
	return app.AcquiredImage{Texture: tex, Width: tex.GetWidth(), Height: tex.GetHeight()}, nil
}

func (s *surfaceSwapchain) Present(img app.AcquiredImage) error {
	s.surface.Present()
	return nil
}

func wireInput(window *glfw.Window, r *renderer) {
	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		if width <= 0 || height <= 0 {
			return
		}
		r.surfaceCfg.Width = uint32(width)
		r.surfaceCfg.Height = uint32(height)
		r.surface.Configure(r.adapter, r.device, r.surfaceCfg)
		if err := r.loop.Resize(uint32(width), uint32(height)); err != nil {
			r.log.Errorf("resize: %v", err)
		}
	})

	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		if !r.mouseCaptured {
			return
		}
		dx := float32(xpos - r.lastMouseX)
		dy := float32(ypos - r.lastMouseY)
		r.lastMouseX, r.lastMouseY = xpos, ypos

		r.cam.Yaw -= dx * r.cam.Sensitivity
		r.cam.Pitch -= dy * r.cam.Sensitivity
	})

	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch button {
		case glfw.MouseButtonLeft:
			r.editAtCrosshair(svobuilder.OperationAdd)
		case glfw.MouseButtonRight:
			r.editAtCrosshair(svobuilder.OperationRemove)
		}
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		switch action {
		case glfw.Press:
			r.keys[key] = true
		case glfw.Release:
			r.keys[key] = false
		}

		if key == glfw.KeyTab && action == glfw.Press {
			r.mouseCaptured = !r.mouseCaptured
			if r.mouseCaptured {
				w.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
				r.lastMouseX, r.lastMouseY = w.GetCursorPos()
			} else {
				w.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
			}
		}
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
		if key == glfw.KeyF && action == glfw.Press {
			cycleWindowStyle(w, r)
		}
	})
}

// cycleWindowStyle steps through fullscreen/maximized/windowed
// (spec.md §6: "F cycles window style"), the closest GLFW-native
// equivalents available without a custom platform layer.
func cycleWindowStyle(w *glfw.Window, r *renderer) {
	r.windowStyle = (r.windowStyle + 1) % 3
	switch r.windowStyle {
	case 0:
		w.Restore()
	case 1:
		w.Maximize()
	case 2:
		monitor := glfw.GetPrimaryMonitor()
		mode := monitor.GetVideoMode()
		w.SetMonitor(monitor, 0, 0, mode.Width, mode.Height, mode.RefreshRate)
	}
}

