package gpures

import "github.com/cogentcore/webgpu/wgpu"

// ForwardingPair turns last frame's output image into this frame's
// history input with one copy, per spec.md §3 "Image-forwarding pair".
// webgpu tracks resource usage/layout transitions itself (there is no
// explicit VkImageMemoryBarrier equivalent to record), so this type's
// contribution over a bare CopyTextureToTexture call is purely the
// src/dst pairing and the record-a-forward-copy-into-this-encoder
// entry point every per-frame command-buffer assembly uses identically
// for normal/position/voxHash/accumed/godRayAccumed/taa.
type ForwardingPair struct {
	Label string
	Src   *Image
	Dst   *Image
}

// NewForwardingPair pairs src and dst. It does not compare their
// dimensions; Record copies src's full extent into dst.
func NewForwardingPair(label string, src, dst *Image) *ForwardingPair {
	return &ForwardingPair{Label: label, Src: src, Dst: dst}
}

// Record appends the copy to an already-open command encoder. Callers
// batch several ForwardingPair.Record calls into the single encoder
// used to build a frame's command buffer (spec.md §4.5.2 step 12).
func (p *ForwardingPair) Record(encoder *wgpu.CommandEncoder) {
	size := wgpu.Extent3D{Width: p.Src.Width, Height: p.Src.Height, DepthOrArrayLayers: p.Src.Layers}
	encoder.CopyTextureToTexture(
		&wgpu.ImageCopyTexture{Texture: p.Src.Texture},
		&wgpu.ImageCopyTexture{Texture: p.Dst.Texture},
		&size,
	)
}

// Resize recreates both src and dst at the new resolution. Used by the
// tracer's swapchain-resize path alongside every other low/high-res
// image.
func (p *ForwardingPair) Resize(device *wgpu.Device, width, height uint32) error {
	if err := p.Src.Resize(device, width, height); err != nil {
		return err
	}
	return p.Dst.Resize(device, width, height)
}
