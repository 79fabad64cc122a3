// Package descriptor implements the Descriptor Bundle: a collector of
// per-frame uniform-buffer bundles, storage buffers, storage images
// and sampled images by binding number, which materializes into one
// bind-group layout and framesInFlight bind groups. It mirrors
// DescriptorSetBundle from original_source/src/material/
// DescriptorSetBundle.hpp and the bindUniformBufferBundle/
// bindStorageImage/bindStorageBuffer call pattern rt/gpu/manager_edit.go
// uses when wiring the edit pipeline's bind groups, generalized from a
// fixed two-or-three-group layout to an arbitrary binding table.
//
// Vulkan descriptor sets and webgpu bind groups serve the same role;
// this package uses the teacher's webgpu vocabulary (BindGroup,
// BindGroupLayout) while keeping the spec's binding-number-preserving
// contract (spec.md §9 "Descriptor-binding numbering").
package descriptor

import (
	"fmt"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/svoray/internal/gpures"
)

// DuplicateBinding is returned when a binding number is bound twice in
// the same bundle.
type DuplicateBinding struct {
	Binding uint32
}

func (e *DuplicateBinding) Error() string {
	return fmt.Sprintf("descriptor bundle: binding %d already bound", e.Binding)
}

type uniformBinding struct {
	binding uint32
	bundle  *gpures.UniformBufferBundle
}

type storageBufferBinding struct {
	binding uint32
	buffer  *gpures.Buffer
}

type storageImageBinding struct {
	binding uint32
	image   *gpures.Image
}

type sampledImageBinding struct {
	binding uint32
	image   *gpures.Image
}

type samplerBinding struct {
	binding uint32
	sampler *gpures.Sampler
}

// Bundle collects bindings for one pipeline (or family of pipelines
// that share a layout) and produces framesInFlight bind groups.
type Bundle struct {
	device         *wgpu.Device
	framesInFlight int

	bound map[uint32]struct{}

	uniforms       []uniformBinding
	storageBuffers []storageBufferBinding
	storageImages  []storageImageBinding
	sampledImages  []sampledImageBinding
	samplers       []samplerBinding

	Layout *wgpu.BindGroupLayout
	Sets   []*wgpu.BindGroup
}

// New creates an empty bundle. Call the Bind* methods to configure it,
// then Create to materialize the layout, pool-equivalent and sets.
func New(device *wgpu.Device, framesInFlight int) *Bundle {
	return &Bundle{
		device:         device,
		framesInFlight: framesInFlight,
		bound:          make(map[uint32]struct{}),
	}
}

func (b *Bundle) claim(binding uint32) error {
	if _, taken := b.bound[binding]; taken {
		return &DuplicateBinding{Binding: binding}
	}
	b.bound[binding] = struct{}{}
	return nil
}

// BindUniformBufferBundle registers a per-frame uniform bundle at
// bindingNo. Fails with *DuplicateBinding on a repeated binding number.
func (b *Bundle) BindUniformBufferBundle(bindingNo uint32, bundle *gpures.UniformBufferBundle) error {
	if err := b.claim(bindingNo); err != nil {
		return err
	}
	b.uniforms = append(b.uniforms, uniformBinding{binding: bindingNo, bundle: bundle})
	return nil
}

// BindStorageBuffer registers a shared (not per-frame) storage buffer.
func (b *Bundle) BindStorageBuffer(bindingNo uint32, buf *gpures.Buffer) error {
	if err := b.claim(bindingNo); err != nil {
		return err
	}
	b.storageBuffers = append(b.storageBuffers, storageBufferBinding{binding: bindingNo, buffer: buf})
	return nil
}

// BindStorageImage registers a shared storage image.
func (b *Bundle) BindStorageImage(bindingNo uint32, img *gpures.Image) error {
	if err := b.claim(bindingNo); err != nil {
		return err
	}
	b.storageImages = append(b.storageImages, storageImageBinding{binding: bindingNo, image: img})
	return nil
}

// BindSampledImage registers a shared sampled image input. WebGPU has
// no combined image-sampler binding (unlike Vulkan); the sampler that
// reads this image must be registered separately with BindSampler at
// its own binding number.
func (b *Bundle) BindSampledImage(bindingNo uint32, img *gpures.Image) error {
	if err := b.claim(bindingNo); err != nil {
		return err
	}
	b.sampledImages = append(b.sampledImages, sampledImageBinding{binding: bindingNo, image: img})
	return nil
}

// BindSampler registers a sampler at its own binding number, the
// teacher's rt/app/app.go pattern (binding 3's
// wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
// alongside the texture bindings it samples).
func (b *Bundle) BindSampler(bindingNo uint32, sampler *gpures.Sampler) error {
	if err := b.claim(bindingNo); err != nil {
		return err
	}
	b.samplers = append(b.samplers, samplerBinding{binding: bindingNo, sampler: sampler})
	return nil
}

// Create emits the bind-group layout and one bind group per in-flight
// frame. Each set i sees the i-th buffer of every uniform bundle;
// storage buffers and images are shared across all sets. Create may be
// called again later (tracer.Resize rebuilds bind groups against new
// image handles on swapchain resize, spec.md §4.5.3); the previous
// layout and sets are released first so nothing leaks (spec.md §8
// boundary case: "no descriptor sets leak").
func (b *Bundle) Create() error {
	b.releasePrior()

	entries := b.layoutEntries()
	layout, err := b.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("descriptor bundle: create layout: %w", err)
	}
	b.Layout = layout

	b.Sets = make([]*wgpu.BindGroup, b.framesInFlight)
	for i := 0; i < b.framesInFlight; i++ {
		set, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Layout:  layout,
			Entries: b.setEntries(i),
		})
		if err != nil {
			return fmt.Errorf("descriptor bundle: create set %d: %w", i, err)
		}
		b.Sets[i] = set
	}
	return nil
}

// releasePrior destroys a previously-created layout and sets, if any,
// before Create replaces them.
func (b *Bundle) releasePrior() {
	for _, set := range b.Sets {
		if set != nil {
			set.Release()
		}
	}
	b.Sets = nil
	if b.Layout != nil {
		b.Layout.Release()
		b.Layout = nil
	}
}

func (b *Bundle) layoutEntries() []wgpu.BindGroupLayoutEntry {
	var entries []wgpu.BindGroupLayoutEntry
	for _, u := range b.uniforms {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    u.binding,
			Visibility: wgpu.ShaderStageCompute,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform},
		})
	}
	for _, sb := range b.storageBuffers {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    sb.binding,
			Visibility: wgpu.ShaderStageCompute,
			Buffer:     wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage},
		})
	}
	for _, si := range b.storageImages {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:      si.binding,
			Visibility:   wgpu.ShaderStageCompute,
			StorageTexture: wgpu.StorageTextureBindingLayout{Access: wgpu.StorageTextureAccessReadWrite, Format: si.image.Format},
		})
	}
	for _, sm := range b.sampledImages {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    sm.binding,
			Visibility: wgpu.ShaderStageCompute,
			Texture:    wgpu.TextureBindingLayout{SampleType: wgpu.TextureSampleTypeFloat},
		})
	}
	for _, s := range b.samplers {
		entries = append(entries, wgpu.BindGroupLayoutEntry{
			Binding:    s.binding,
			Visibility: wgpu.ShaderStageCompute,
			Sampler:    wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering},
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
	return entries
}

func (b *Bundle) setEntries(frame int) []wgpu.BindGroupEntry {
	var entries []wgpu.BindGroupEntry
	for _, u := range b.uniforms {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: u.binding,
			Buffer:  u.bundle.At(frame).Handle(),
			Size:    wgpu.WholeSize,
		})
	}
	for _, sb := range b.storageBuffers {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: sb.binding,
			Buffer:  sb.buffer.Handle(),
			Size:    wgpu.WholeSize,
		})
	}
	for _, si := range b.storageImages {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding:     si.binding,
			TextureView: si.image.View,
		})
	}
	for _, sm := range b.sampledImages {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding:     sm.binding,
			TextureView: sm.image.View,
		})
	}
	for _, s := range b.samplers {
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: s.binding,
			Sampler: s.sampler.Handle,
		})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Binding < entries[j].Binding })
	return entries
}

// Set returns the bind group for frame i, for a Compute Pipeline to
// bind before dispatch.
func (b *Bundle) Set(frame int) *wgpu.BindGroup { return b.Sets[frame] }
