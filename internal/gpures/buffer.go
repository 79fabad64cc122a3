// Package gpures wraps webgpu buffers, images and samplers with the
// typed, label-carrying conventions rt/gpu/manager.go uses throughout
// the teacher codebase, plus the image-forwarding-pair idiom used to
// turn last frame's outputs into this frame's history inputs.
package gpures

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Buffer is a thin, labeled wrapper around a wgpu.Buffer that tracks
// its own size and usage so callers can grow-or-recreate instead of
// re-deriving that bookkeeping at every call site.
type Buffer struct {
	Label string
	Usage wgpu.BufferUsage
	Size  uint64

	handle *wgpu.Buffer
}

// CreateBuffer allocates a new GPU buffer of the given size and usage.
func CreateBuffer(device *wgpu.Device, label string, size uint64, usage wgpu.BufferUsage) (*Buffer, error) {
	h, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpures: create buffer %q: %w", label, err)
	}
	return &Buffer{Label: label, Usage: usage, Size: size, handle: h}, nil
}

// Handle returns the underlying wgpu.Buffer for binding/writes.
func (b *Buffer) Handle() *wgpu.Buffer { return b.handle }

// EnsureCapacity grows the buffer (recreating it) if its current size
// is smaller than needed, mirroring the
// "if m.EditCommandBuf == nil || m.EditCommandBuf.GetSize() < neededSize"
// pattern used for edit-command buffers in the teacher.
func (b *Buffer) EnsureCapacity(device *wgpu.Device, needed uint64) error {
	if b.handle != nil && b.Size >= needed {
		return nil
	}
	if b.handle != nil {
		b.handle.Release()
	}
	h, err := device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: b.Label,
		Size:  needed,
		Usage: b.Usage,
	})
	if err != nil {
		return fmt.Errorf("gpures: grow buffer %q to %d bytes: %w", b.Label, needed, err)
	}
	b.handle = h
	b.Size = needed
	return nil
}

// Write uploads bytes at the given offset via the device queue.
func (b *Buffer) Write(queue *wgpu.Queue, offset uint64, data []byte) {
	queue.WriteBuffer(b.handle, offset, data)
}

// Release destroys the underlying GPU buffer.
func (b *Buffer) Release() {
	if b.handle != nil {
		b.handle.Release()
		b.handle = nil
	}
}

// UniformBufferBundle holds one buffer per in-flight frame so the
// i-th descriptor set sees the i-th buffer, per spec.md §4.2.
type UniformBufferBundle struct {
	Label   string
	Buffers []*Buffer
}

// CreateUniformBufferBundle allocates framesInFlight independent
// uniform buffers, each of size.
func CreateUniformBufferBundle(device *wgpu.Device, label string, size uint64, framesInFlight int) (*UniformBufferBundle, error) {
	bundle := &UniformBufferBundle{Label: label, Buffers: make([]*Buffer, framesInFlight)}
	for i := 0; i < framesInFlight; i++ {
		b, err := CreateBuffer(device, fmt.Sprintf("%s[%d]", label, i), size, wgpu.BufferUsageUniform|wgpu.BufferUsageCopyDst)
		if err != nil {
			return nil, err
		}
		bundle.Buffers[i] = b
	}
	return bundle, nil
}

// At returns the buffer owned by frame slot i.
func (u *UniformBufferBundle) At(i int) *Buffer { return u.Buffers[i] }

// Write uploads data into frame slot i's buffer.
func (u *UniformBufferBundle) Write(queue *wgpu.Queue, i int, data []byte) {
	u.Buffers[i].Write(queue, 0, data)
}

// Release destroys every buffer in the bundle.
func (u *UniformBufferBundle) Release() {
	for _, b := range u.Buffers {
		b.Release()
	}
}
