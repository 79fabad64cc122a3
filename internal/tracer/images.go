package tracer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/svoray/internal/gpures"
)

const (
	transmittanceLutWidth, transmittanceLutHeight = 256, 64
	multiScatterLutSize                           = 32
	skyViewLutSize                                = 200
)

// storageFormat is the single render-target pixel format used across
// every low/high-res image; the teacher's G-buffer targets
// (rt/gpu/manager.go) are similarly homogeneous per role, here
// collapsed to one format since every image here is an intermediate
// compute-storage target, not a final presented surface.
const storageFormat = wgpu.TextureFormatRGBA16Float

// Images owns every render target the SVO Tracer reads or writes
// across a frame (spec.md §3 "Render images"), plus the
// history-forwarding pairs that turn this frame's outputs into the
// next frame's reprojection inputs.
type Images struct {
	device *wgpu.Device
	res    Resolution

	// LUTs: fixed resolution, independent of res.
	TransmittanceLut *gpures.Image
	MultiScatterLut  *gpures.Image
	SkyViewLut       *gpures.Image
	ShadowMap        *gpures.Image

	// Low-res family.
	Background         *gpures.Image
	BeamDepth          *gpures.Image
	Raw                *gpures.Image
	GodRay             *gpures.Image
	Depth              *gpures.Image
	Hit                *gpures.Image
	TemporalHistLength *gpures.Image
	Motion             *gpures.Image

	Normal     *gpures.Image
	LastNormal *gpures.Image

	Position     *gpures.Image
	LastPosition *gpures.Image

	VoxHash     *gpures.Image
	LastVoxHash *gpures.Image

	Accumed     *gpures.Image
	LastAccumed *gpures.Image

	GodRayAccumed     *gpures.Image
	LastGodRayAccumed *gpures.Image

	ATrousPing *gpures.Image
	ATrousPong *gpures.Image

	Blitted             *gpures.Image
	OctreeVisualization *gpures.Image

	// Per-stratum family (lowRes/3).
	StratumOffset                     *gpures.Image
	PerStratumLocking                 *gpures.Image
	Visibility                        *gpures.Image
	SeedVisibility                    *gpures.Image
	TemporalGradientNormalizationPing *gpures.Image
	TemporalGradientNormalizationPong *gpures.Image

	// High-res family.
	Taa          *gpures.Image
	LastTaa      *gpures.Image
	RenderTarget *gpures.Image

	DefaultSampler *gpures.Sampler

	// Forwarding pairs (spec.md §3 "Image-forwarding pair", §4.5.2
	// step 12).
	ForwardNormal        *gpures.ForwardingPair
	ForwardPosition      *gpures.ForwardingPair
	ForwardVoxHash       *gpures.ForwardingPair
	ForwardAccumed       *gpures.ForwardingPair
	ForwardGodRayAccumed *gpures.ForwardingPair
	ForwardTaa           *gpures.ForwardingPair
}

func storageImage(device *wgpu.Device, label string, w, h uint32) (*gpures.Image, error) {
	return gpures.CreateImage(device, gpures.ImageDescriptor{
		Label:  label,
		Width:  w,
		Height: h,
		Format: storageFormat,
		Usage:  wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst,
	})
}

// NewImages allocates every image at the given resolution and
// shadow-map side length. beamTilesX/Y is spec.md §3's beamDepth
// sizing: ceil(lowRes/beamResolution)+1.
func NewImages(device *wgpu.Device, res Resolution, shadowMapRes uint32, beamTilesX, beamTilesY uint32) (*Images, error) {
	im := &Images{device: device, res: res}

	type alloc struct {
		dst       **gpures.Image
		label     string
		w, h      uint32
	}
	allocs := []alloc{
		{&im.TransmittanceLut, "transmittanceLut", transmittanceLutWidth, transmittanceLutHeight},
		{&im.MultiScatterLut, "multiScatteringLut", multiScatterLutSize, multiScatterLutSize},
		{&im.SkyViewLut, "skyViewLut", skyViewLutSize, skyViewLutSize},
		{&im.ShadowMap, "shadowMap", shadowMapRes, shadowMapRes},

		{&im.Background, "background", res.LowWidth, res.LowHeight},
		{&im.BeamDepth, "beamDepth", beamTilesX, beamTilesY},
		{&im.Raw, "raw", res.LowWidth, res.LowHeight},
		{&im.GodRay, "godRay", res.LowWidth, res.LowHeight},
		{&im.Depth, "depth", res.LowWidth, res.LowHeight},
		{&im.Hit, "hit", res.LowWidth, res.LowHeight},
		{&im.TemporalHistLength, "temporalHistLength", res.LowWidth, res.LowHeight},
		{&im.Motion, "motion", res.LowWidth, res.LowHeight},

		{&im.Normal, "normal", res.LowWidth, res.LowHeight},
		{&im.LastNormal, "lastNormal", res.LowWidth, res.LowHeight},
		{&im.Position, "position", res.LowWidth, res.LowHeight},
		{&im.LastPosition, "lastPosition", res.LowWidth, res.LowHeight},
		{&im.VoxHash, "voxHash", res.LowWidth, res.LowHeight},
		{&im.LastVoxHash, "lastVoxHash", res.LowWidth, res.LowHeight},
		{&im.Accumed, "accumed", res.LowWidth, res.LowHeight},
		{&im.LastAccumed, "lastAccumed", res.LowWidth, res.LowHeight},
		{&im.GodRayAccumed, "godRayAccumed", res.LowWidth, res.LowHeight},
		{&im.LastGodRayAccumed, "lastGodRayAccumed", res.LowWidth, res.LowHeight},

		{&im.ATrousPing, "aTrousPing", res.LowWidth, res.LowHeight},
		{&im.ATrousPong, "aTrousPong", res.LowWidth, res.LowHeight},
		{&im.Blitted, "blitted", res.LowWidth, res.LowHeight},
		{&im.OctreeVisualization, "octreeVisualization", res.LowWidth, res.LowHeight},

		{&im.StratumOffset, "stratumOffset", res.LowWidth / 3, res.LowHeight / 3},
		{&im.PerStratumLocking, "perStratumLocking", res.LowWidth / 3, res.LowHeight / 3},
		{&im.Visibility, "visibility", res.LowWidth / 3, res.LowHeight / 3},
		{&im.SeedVisibility, "seedVisibility", res.LowWidth / 3, res.LowHeight / 3},
		{&im.TemporalGradientNormalizationPing, "temporalGradientNormalizationPing", res.LowWidth / 3, res.LowHeight / 3},
		{&im.TemporalGradientNormalizationPong, "temporalGradientNormalizationPong", res.LowWidth / 3, res.LowHeight / 3},

		{&im.Taa, "taa", res.HighWidth, res.HighHeight},
		{&im.LastTaa, "lastTaa", res.HighWidth, res.HighHeight},
		{&im.RenderTarget, "renderTarget", res.HighWidth, res.HighHeight},
	}

	for _, a := range allocs {
		img, err := storageImage(device, a.label, a.w, a.h)
		if err != nil {
			im.Release()
			return nil, fmt.Errorf("tracer: allocate image %q: %w", a.label, err)
		}
		*a.dst = img
	}

	sampler, err := gpures.CreateSampler(device, "tracerDefaultSampler", &wgpu.SamplerDescriptor{
		AddressModeU: wgpu.AddressModeClampToEdge,
		AddressModeV: wgpu.AddressModeClampToEdge,
		MagFilter:    wgpu.FilterModeLinear,
		MinFilter:    wgpu.FilterModeLinear,
	})
	if err != nil {
		im.Release()
		return nil, fmt.Errorf("tracer: create default sampler: %w", err)
	}
	im.DefaultSampler = sampler

	im.ForwardNormal = gpures.NewForwardingPair("normal->lastNormal", im.Normal, im.LastNormal)
	im.ForwardPosition = gpures.NewForwardingPair("position->lastPosition", im.Position, im.LastPosition)
	im.ForwardVoxHash = gpures.NewForwardingPair("voxHash->lastVoxHash", im.VoxHash, im.LastVoxHash)
	im.ForwardAccumed = gpures.NewForwardingPair("accumed->lastAccumed", im.Accumed, im.LastAccumed)
	im.ForwardGodRayAccumed = gpures.NewForwardingPair("godRayAccumed->lastGodRayAccumed", im.GodRayAccumed, im.LastGodRayAccumed)
	im.ForwardTaa = gpures.NewForwardingPair("taa->lastTaa", im.Taa, im.LastTaa)

	return im, nil
}

// RecordForwardCopies appends every history forward-copy to encoder
// (spec.md §4.5.2 step 12), turning this frame's outputs into next
// frame's reprojection inputs.
func (im *Images) RecordForwardCopies(encoder *wgpu.CommandEncoder) {
	for _, p := range []*gpures.ForwardingPair{
		im.ForwardNormal, im.ForwardPosition, im.ForwardVoxHash,
		im.ForwardAccumed, im.ForwardGodRayAccumed, im.ForwardTaa,
	} {
		p.Record(encoder)
	}
}

// Resize recreates every resolution-dependent image in place (spec.md
// §4.5.3); LUTs and the shadow map are untouched since their size is
// fixed/config-driven, not swapchain-driven.
func (im *Images) Resize(res Resolution, beamTilesX, beamTilesY uint32) error {
	im.res = res
	lowRes := []struct {
		img  *gpures.Image
		w, h uint32
	}{
		{im.Background, res.LowWidth, res.LowHeight},
		{im.BeamDepth, beamTilesX, beamTilesY},
		{im.Raw, res.LowWidth, res.LowHeight},
		{im.GodRay, res.LowWidth, res.LowHeight},
		{im.Depth, res.LowWidth, res.LowHeight},
		{im.Hit, res.LowWidth, res.LowHeight},
		{im.TemporalHistLength, res.LowWidth, res.LowHeight},
		{im.Motion, res.LowWidth, res.LowHeight},
		{im.Normal, res.LowWidth, res.LowHeight},
		{im.LastNormal, res.LowWidth, res.LowHeight},
		{im.Position, res.LowWidth, res.LowHeight},
		{im.LastPosition, res.LowWidth, res.LowHeight},
		{im.VoxHash, res.LowWidth, res.LowHeight},
		{im.LastVoxHash, res.LowWidth, res.LowHeight},
		{im.Accumed, res.LowWidth, res.LowHeight},
		{im.LastAccumed, res.LowWidth, res.LowHeight},
		{im.GodRayAccumed, res.LowWidth, res.LowHeight},
		{im.LastGodRayAccumed, res.LowWidth, res.LowHeight},
		{im.ATrousPing, res.LowWidth, res.LowHeight},
		{im.ATrousPong, res.LowWidth, res.LowHeight},
		{im.Blitted, res.LowWidth, res.LowHeight},
		{im.OctreeVisualization, res.LowWidth, res.LowHeight},
		{im.StratumOffset, res.LowWidth / 3, res.LowHeight / 3},
		{im.PerStratumLocking, res.LowWidth / 3, res.LowHeight / 3},
		{im.Visibility, res.LowWidth / 3, res.LowHeight / 3},
		{im.SeedVisibility, res.LowWidth / 3, res.LowHeight / 3},
		{im.TemporalGradientNormalizationPing, res.LowWidth / 3, res.LowHeight / 3},
		{im.TemporalGradientNormalizationPong, res.LowWidth / 3, res.LowHeight / 3},
		{im.Taa, res.HighWidth, res.HighHeight},
		{im.LastTaa, res.HighWidth, res.HighHeight},
		{im.RenderTarget, res.HighWidth, res.HighHeight},
	}
	for _, e := range lowRes {
		if err := e.img.Resize(im.device, e.w, e.h); err != nil {
			return fmt.Errorf("tracer: resize image %q: %w", e.img.Label, err)
		}
	}
	return nil
}

// Release destroys every image and the sampler this struct owns.
func (im *Images) Release() {
	for _, img := range []*gpures.Image{
		im.TransmittanceLut, im.MultiScatterLut, im.SkyViewLut, im.ShadowMap,
		im.Background, im.BeamDepth, im.Raw, im.GodRay, im.Depth, im.Hit,
		im.TemporalHistLength, im.Motion, im.Normal, im.LastNormal,
		im.Position, im.LastPosition, im.VoxHash, im.LastVoxHash,
		im.Accumed, im.LastAccumed, im.GodRayAccumed, im.LastGodRayAccumed,
		im.ATrousPing, im.ATrousPong, im.Blitted, im.OctreeVisualization,
		im.StratumOffset, im.PerStratumLocking, im.Visibility, im.SeedVisibility,
		im.TemporalGradientNormalizationPing, im.TemporalGradientNormalizationPong,
		im.Taa, im.LastTaa, im.RenderTarget,
	} {
		if img != nil {
			img.Release()
		}
	}
	if im.DefaultSampler != nil {
		im.DefaultSampler.Release()
	}
}
