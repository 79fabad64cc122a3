package tracer

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Resolution pairs a low-res (traced) extent with the high-res
// (presented) extent it upscales into (spec.md §3: "lowRes = highRes /
// upscaleRatio").
type Resolution struct {
	LowWidth, LowHeight   uint32
	HighWidth, HighHeight uint32
}

// NewResolution derives both extents from a presented size and the
// configured upscale ratio.
func NewResolution(highWidth, highHeight uint32, upscaleRatio float32) Resolution {
	return Resolution{
		LowWidth:   uint32(float32(highWidth) / upscaleRatio),
		LowHeight:  uint32(float32(highHeight) / upscaleRatio),
		HighWidth:  highWidth,
		HighHeight: highHeight,
	}
}

func putF32(buf []byte, off int, v float32) { binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v)) }
func putU32(buf []byte, off int, v uint32)  { binary.LittleEndian.PutUint32(buf[off:], v) }
func putVec2(buf []byte, off int, v mgl32.Vec2) {
	putF32(buf, off, v[0])
	putF32(buf, off+4, v[1])
}
func putVec3(buf []byte, off int, v mgl32.Vec3) {
	putF32(buf, off, v[0])
	putF32(buf, off+4, v[1])
	putF32(buf, off+8, v[2])
}
func putMat4(buf []byte, off int, m mgl32.Mat4) {
	for i := 0; i < 16; i++ {
		putF32(buf, off+i*4, m[i])
	}
}

// RenderInfo is the per-frame camera/time UBO (spec.md §4.5.1). Matrix
// fields are laid out column-major, matching mgl32.Mat4's native
// layout and the teacher's uniform-buffer packing convention
// (rt/gpu/manager.go's writeUint32/writeFloat32 helpers, here inlined
// as putF32/putMat4).
type RenderInfo struct {
	CamPos, ShadowCamPos mgl32.Vec3
	SubpixJitter         mgl32.Vec2

	V, VInv, VPrev, VPrevInv                 mgl32.Mat4
	P, PInv, PPrev, PPrevInv                 mgl32.Mat4
	VP, VPInv, VPPrev, VPPrevInv             mgl32.Mat4
	VPShadow, VPShadowInv                    mgl32.Mat4

	LowRes, InvLowRes   mgl32.Vec2
	HighRes, InvHighRes mgl32.Vec2

	VFov          float32
	CurrentSample uint32
	Time          float32
}

// RenderInfoSize is the packed byte size of RenderInfo, sized for the
// uniform buffer CreateUniformBufferBundle allocates it into: two vec3
// (24B) + one vec2 jitter (8B) + fourteen mat4 (14*64=896B) + four
// vec2 resolution fields (32B) + vFov/currentSample/time (12B).
const RenderInfoSize = 24 + 8 + 14*64 + 32 + 12

// Bytes packs RenderInfo into the wire layout the shader's binding 0
// uniform block expects.
func (r *RenderInfo) Bytes() []byte {
	buf := make([]byte, RenderInfoSize)
	off := 0
	putVec3(buf, off, r.CamPos)
	off += 12
	putVec3(buf, off, r.ShadowCamPos)
	off += 12
	putVec2(buf, off, r.SubpixJitter)
	off += 8

	mats := []mgl32.Mat4{
		r.V, r.VInv, r.VPrev, r.VPrevInv,
		r.P, r.PInv, r.PPrev, r.PPrevInv,
		r.VP, r.VPInv, r.VPPrev, r.VPPrevInv,
		r.VPShadow, r.VPShadowInv,
	}
	for _, m := range mats {
		putMat4(buf, off, m)
		off += 64
	}

	putVec2(buf, off, r.LowRes)
	off += 8
	putVec2(buf, off, r.InvLowRes)
	off += 8
	putVec2(buf, off, r.HighRes)
	off += 8
	putVec2(buf, off, r.InvHighRes)
	off += 8

	putF32(buf, off, r.VFov)
	off += 4
	putU32(buf, off, r.CurrentSample)
	off += 4
	putF32(buf, off, r.Time)
	off += 4

	return buf
}

// EnvironmentInfo is the atmosphere/sun UBO (spec.md §4.5.1).
type EnvironmentInfo struct {
	SunDir                 mgl32.Vec3
	RayleighScatteringBase mgl32.Vec3
	MieScatteringBase      float32
	MieAbsorptionBase      float32
	OzoneAbsorptionBase    mgl32.Vec3
	SunLuminance           float32
	AtmosLuminance         float32
	SunSize                float32
}

// SunDirFromAngles derives the sun direction from altitude/azimuth in
// radians, the form spec.md §4.5.1 names ("sunDir from
// (altitude, azimuth)").
func SunDirFromAngles(altitude, azimuth float32) mgl32.Vec3 {
	ca, sa := float32(math.Cos(float64(altitude))), float32(math.Sin(float64(altitude)))
	cz, sz := float32(math.Cos(float64(azimuth))), float32(math.Sin(float64(azimuth)))
	return mgl32.Vec3{ca * cz, ca * sz, sa}.Normalize()
}

const EnvironmentInfoSize = 12 + 12 + 4 + 4 + 12 + 4 + 4 + 4

func (e *EnvironmentInfo) Bytes() []byte {
	buf := make([]byte, EnvironmentInfoSize)
	off := 0
	putVec3(buf, off, e.SunDir)
	off += 12
	putVec3(buf, off, e.RayleighScatteringBase)
	off += 12
	putF32(buf, off, e.MieScatteringBase)
	off += 4
	putF32(buf, off, e.MieAbsorptionBase)
	off += 4
	putVec3(buf, off, e.OzoneAbsorptionBase)
	off += 12
	putF32(buf, off, e.SunLuminance)
	off += 4
	putF32(buf, off, e.AtmosLuminance)
	off += 4
	putF32(buf, off, e.SunSize)
	off += 4
	return buf
}

// TweakableParameters mirrors the TweakableParameters UBO (spec.md
// §4.5.1). _useStratumFiltering/_useVarianceEstimation are retained as
// inert fields per spec.md §9's open-question decision: written into
// the UBO, read by no Go-side logic.
type TweakableParameters struct {
	VisualizeOctree  bool
	VisualizeChunks  bool
	BeamOptimization bool
	TraceIndirectRay bool
	Taa              bool
	UseStratumFiltering  bool
	UseVarianceEstimation bool
	DebugI1 int32
	DebugF1 float32
	DebugC1 mgl32.Vec3
	// Exposure is the tone-map exposure knob postProcessing (spec.md
	// §4.5.2 step 11) reads, sourced from
	// SvoTracerTweakingData.explosure.
	Exposure float32
}

const TweakableParametersSize = 7*4 + 4 + 4 + 12 + 4

func boolToU32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func (t *TweakableParameters) Bytes() []byte {
	buf := make([]byte, TweakableParametersSize)
	off := 0
	for _, flag := range []bool{
		t.VisualizeOctree, t.VisualizeChunks, t.BeamOptimization,
		t.TraceIndirectRay, t.Taa, t.UseStratumFiltering, t.UseVarianceEstimation,
	} {
		putU32(buf, off, boolToU32(flag))
		off += 4
	}
	putU32(buf, off, uint32(t.DebugI1))
	off += 4
	putF32(buf, off, t.DebugF1)
	off += 4
	putVec3(buf, off, t.DebugC1)
	off += 12
	putF32(buf, off, t.Exposure)
	off += 4
	return buf
}

// TemporalFilterInfo configures step 7's reprojection blend (spec.md
// §4.5.2).
type TemporalFilterInfo struct {
	Alpha       float32
	PositionPhi float32
}

const TemporalFilterInfoSize = 8

func (t *TemporalFilterInfo) Bytes() []byte {
	buf := make([]byte, TemporalFilterInfoSize)
	putF32(buf, 0, t.Alpha)
	putF32(buf, 4, t.PositionPhi)
	return buf
}

// SpatialFilterInfo configures the a-trous loop's edge stops (spec.md
// §4.5.2 step 8).
type SpatialFilterInfo struct {
	IterationCount       uint32
	PhiC, PhiN, PhiP     float32
	MinPhiZ, MaxPhiZ     float32
	PhiZStableSampleCount float32
	ChangingLuminancePhi bool
}

const SpatialFilterInfoSize = 4 + 4*3 + 4*2 + 4 + 4

func (s *SpatialFilterInfo) Bytes() []byte {
	buf := make([]byte, SpatialFilterInfoSize)
	off := 0
	putU32(buf, off, s.IterationCount)
	off += 4
	putF32(buf, off, s.PhiC)
	off += 4
	putF32(buf, off, s.PhiN)
	off += 4
	putF32(buf, off, s.PhiP)
	off += 4
	putF32(buf, off, s.MinPhiZ)
	off += 4
	putF32(buf, off, s.MaxPhiZ)
	off += 4
	putF32(buf, off, s.PhiZStableSampleCount)
	off += 4
	putU32(buf, off, boolToU32(s.ChangingLuminancePhi))
	off += 4
	return buf
}
