package gpures

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Image wraps a wgpu.Texture plus the single TextureView the renderer
// binds it through. Layered images (e.g. shadow-map cascades) set
// Layers > 1.
type Image struct {
	Label  string
	Width  uint32
	Height uint32
	Layers uint32
	Format wgpu.TextureFormat
	Usage  wgpu.TextureUsage

	Texture *wgpu.Texture
	View    *wgpu.TextureView
}

// ImageDescriptor configures CreateImage.
type ImageDescriptor struct {
	Label  string
	Width  uint32
	Height uint32
	Layers uint32 // 0 and 1 both mean "not layered"
	Format wgpu.TextureFormat
	Usage  wgpu.TextureUsage
}

// CreateImage allocates a 2-D (optionally layered) storage/sampled
// image, matching the texture-then-view pairing every image field in
// rt/gpu/manager.go follows (GBufferDepth/DepthView, etc).
func CreateImage(device *wgpu.Device, desc ImageDescriptor) (*Image, error) {
	layers := desc.Layers
	if layers == 0 {
		layers = 1
	}

	dim := wgpu.TextureDimension2D
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     desc.Label,
		Size:      wgpu.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: layers},
		Dimension: dim,
		Format:    desc.Format,
		Usage:     desc.Usage,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("gpures: create image %q: %w", desc.Label, err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("gpures: create view for image %q: %w", desc.Label, err)
	}

	return &Image{
		Label:   desc.Label,
		Width:   desc.Width,
		Height:  desc.Height,
		Layers:  layers,
		Format:  desc.Format,
		Usage:   desc.Usage,
		Texture: tex,
		View:    view,
	}, nil
}

// Resize recreates the image at a new width/height, keeping label,
// format, layer count and usage. Used on swapchain resize (spec.md
// §4.5.3) for every low- and high-res render target.
func (img *Image) Resize(device *wgpu.Device, width, height uint32) error {
	replacement, err := CreateImage(device, ImageDescriptor{
		Label: img.Label, Width: width, Height: height,
		Layers: img.Layers, Format: img.Format, Usage: img.Usage,
	})
	if err != nil {
		return err
	}
	img.Release()
	*img = *replacement
	return nil
}

// CreateImage3D allocates a 3-D volume image, the layout
// rt/gpu/manager.go uses for VoxelPayloadAtlas and which the SVO
// Builder's per-chunk density field (spec.md §3: "a 3-D image of
// (chunkVoxelDim+1)³ 16-bit cells") needs in place of CreateImage's 2-D
// texture.
func CreateImage3D(device *wgpu.Device, desc ImageDescriptor) (*Image, error) {
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         desc.Label,
		Size:          wgpu.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: desc.Layers},
		Dimension:     wgpu.TextureDimension3D,
		Format:        desc.Format,
		Usage:         desc.Usage,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("gpures: create 3d image %q: %w", desc.Label, err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("gpures: create view for 3d image %q: %w", desc.Label, err)
	}

	return &Image{
		Label:   desc.Label,
		Width:   desc.Width,
		Height:  desc.Height,
		Layers:  desc.Layers,
		Format:  desc.Format,
		Usage:   desc.Usage,
		Texture: tex,
		View:    view,
	}, nil
}

// Release destroys the view and texture.
func (img *Image) Release() {
	if img.View != nil {
		img.View.Release()
		img.View = nil
	}
	if img.Texture != nil {
		img.Texture.Release()
		img.Texture = nil
	}
}

// Sampler wraps a wgpu.Sampler with the label it was created with.
type Sampler struct {
	Label   string
	Handle  *wgpu.Sampler
}

// CreateSampler creates a sampler, e.g. the "default" linear-clamp
// sampler and the sky-LUT wrap sampler the tracer needs.
func CreateSampler(device *wgpu.Device, label string, desc *wgpu.SamplerDescriptor) (*Sampler, error) {
	desc.Label = label
	h, err := device.CreateSampler(desc)
	if err != nil {
		return nil, fmt.Errorf("gpures: create sampler %q: %w", label, err)
	}
	return &Sampler{Label: label, Handle: h}, nil
}

func (s *Sampler) Release() {
	if s.Handle != nil {
		s.Handle.Release()
		s.Handle = nil
	}
}
