// Package svobuilder implements the SVO Builder subsystem (spec.md
// §4.4): per-chunk density-field construction, voxelization, octree
// construction and publish, and brush-stroke edits. It composes
// pipeline.Compute stages for the GPU-bound field/voxelization passes
// with the pure-CPU octree engine in internal/voxel, the way
// SvoBuilder.cpp's buildScene/editExistingChunk drive a mix of GPU
// dispatches and host-side bookkeeping around a shared scratch buffer.
package svobuilder

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/svoray/internal/alloc"
	"github.com/gekko3d/svoray/internal/gpures"
	"github.com/gekko3d/svoray/internal/logging"
	"github.com/gekko3d/svoray/internal/pipeline"
	"github.com/gekko3d/svoray/internal/voxel"
)

// Config fixes the grid and per-chunk dimensions the builder was
// constructed for (spec.md §6: SvoBuilder.chunkDim, chunkVoxelDim).
type Config struct {
	Dims          voxel.GridDims
	ChunkVoxelDim uint32
}

// Builder owns the appended octree buffer, its allocator, the
// chunk-index directory, the per-chunk field cache, and the compute
// pipelines that fill a chunk's scratch fragment list.
type Builder struct {
	device *wgpu.Device
	queue  *wgpu.Queue
	cfg    Config

	Directory *Directory
	Fields    *FieldCache
	octreeBuf *gpures.Buffer
	octreeAlloc *alloc.ChunkBufferAllocator

	fieldConstruction *pipeline.Compute
	voxelization      *pipeline.Compute
	fieldModification *pipeline.Compute

	fragmentCountBuf *gpures.Buffer // fragmentListInfo.voxelFragmentCount, one uint32
	fragmentListBuf  *gpures.Buffer // scratch (packedCoord, packedMaterial) pairs
	readbackBuf      *gpures.Buffer // staging buffer MapAsync reads from
	editInfoBuf      *gpures.Buffer // chunkEditingInfo: pos, radius, operation

	chunkIndicesBuf *gpures.Buffer // GPU mirror of Directory, the tracer's chunkIndices binding
	chunksInfoBuf   *gpures.Buffer // chunksInfo: {chunksDim, currentlyWritingChunk}

	maxFragments uint32

	log logging.Logger

	// readBuffer copies count bytes out of src via a staging buffer.
	// Overridden in tests so the builder's host-side logic is testable
	// without a real device.
	readBuffer func(src *gpures.Buffer, byteCount uint64) ([]byte, error)
}

// SetLogger installs the logger AllocFailed warnings are written to
// (spec.md §7: "logged as warning"). A nil or never-called SetLogger
// falls back to a no-op logger.
func (b *Builder) SetLogger(l logging.Logger) {
	if l == nil {
		l = logging.NewNop()
	}
	b.log = l
}

// NewScratchBuffers creates the fragment-count, fragment-list and
// edit-info buffers the builder's three compute pipelines bind
// through a shared descriptor.Bundle (spec.md §4.4.1's scratch
// volumes). Callers must create these before building the pipelines
// passed to New, since the pipelines' bind group references them
// directly.
func NewScratchBuffers(device *wgpu.Device, chunkVoxelDim uint32) (fragmentCount, fragmentList, editInfo *gpures.Buffer, err error) {
	maxFragments := uint64(chunkVoxelDim) * uint64(chunkVoxelDim) * uint64(chunkVoxelDim)

	fragmentCount, err = gpures.CreateBuffer(device, "fragmentListInfo.voxelFragmentCount", 4,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("svobuilder: create fragment count buffer: %w", err)
	}

	fragmentList, err = gpures.CreateBuffer(device, "chunkFragmentList", maxFragments*8,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("svobuilder: create fragment list buffer: %w", err)
	}

	editInfo, err = gpures.CreateBuffer(device, "chunkEditingInfo", 20, // vec3 pos + f32 radius + u32 op
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("svobuilder: create chunk editing info buffer: %w", err)
	}
	return fragmentCount, fragmentList, editInfo, nil
}

// New constructs a Builder. fieldConstruction, voxelization and
// fieldModification must already be Build() and ready to dispatch,
// sharing a descriptor.Bundle bound to fragmentCountBuf, fragmentListBuf
// and editInfoBuf (see NewScratchBuffers). octreeBytes sizes the
// appended octree buffer the Chunk Buffer Allocator suballocates from.
func New(
	device *wgpu.Device,
	queue *wgpu.Queue,
	cfg Config,
	fieldConstruction, voxelization, fieldModification *pipeline.Compute,
	fragmentCountBuf, fragmentListBuf, editInfoBuf *gpures.Buffer,
	octreeBytes uint64,
) (*Builder, error) {
	maxFragments := cfg.ChunkVoxelDim * cfg.ChunkVoxelDim * cfg.ChunkVoxelDim

	octreeBuf, err := gpures.CreateBuffer(device, "appendedOctreeBuffer", octreeBytes,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst|wgpu.BufferUsageCopySrc)
	if err != nil {
		return nil, fmt.Errorf("svobuilder: create appended octree buffer: %w", err)
	}

	readbackBuf, err := gpures.CreateBuffer(device, "builderReadback", uint64(maxFragments)*8,
		wgpu.BufferUsageCopyDst|wgpu.BufferUsageMapRead)
	if err != nil {
		return nil, fmt.Errorf("svobuilder: create readback staging buffer: %w", err)
	}

	chunkIndicesBuf, err := gpures.CreateBuffer(device, "chunkIndices", uint64(cfg.Dims.Count())*4,
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("svobuilder: create chunk indices buffer: %w", err)
	}

	chunksInfoBuf, err := gpures.CreateBuffer(device, "chunksInfo", 16, // vec3<u32> chunksDim + u32 currentlyWritingChunk
		wgpu.BufferUsageStorage|wgpu.BufferUsageCopyDst)
	if err != nil {
		return nil, fmt.Errorf("svobuilder: create chunks info buffer: %w", err)
	}
	var dimsWord [12]byte
	binary.LittleEndian.PutUint32(dimsWord[0:], cfg.Dims.X)
	binary.LittleEndian.PutUint32(dimsWord[4:], cfg.Dims.Y)
	binary.LittleEndian.PutUint32(dimsWord[8:], cfg.Dims.Z)
	chunksInfoBuf.Write(queue, 0, dimsWord[:])

	b := &Builder{
		device:            device,
		queue:             queue,
		cfg:               cfg,
		Directory:         NewDirectory(cfg.Dims),
		Fields:            NewFieldCache(),
		octreeBuf:         octreeBuf,
		octreeAlloc:       alloc.New(octreeBytes),
		fieldConstruction: fieldConstruction,
		voxelization:      voxelization,
		fieldModification: fieldModification,
		fragmentCountBuf:  fragmentCountBuf,
		fragmentListBuf:   fragmentListBuf,
		readbackBuf:       readbackBuf,
		editInfoBuf:       editInfoBuf,
		chunkIndicesBuf:   chunkIndicesBuf,
		chunksInfoBuf:     chunksInfoBuf,
		maxFragments:      maxFragments,
		log:               logging.NewNop(),
	}
	b.readBuffer = b.defaultReadBuffer
	return b, nil
}

// OctreeBuffer returns the appended octree buffer the tracer binds at
// BindingOctreeBuffer (spec.md §6: fixed binding 33).
func (b *Builder) OctreeBuffer() *gpures.Buffer { return b.octreeBuf }

// ChunkIndicesBuffer returns the GPU mirror of Directory that the
// tracer binds at BindingChunkIndices; syncChunkIndex keeps it current.
func (b *Builder) ChunkIndicesBuffer() *gpures.Buffer { return b.chunkIndicesBuf }

// ChunksInfoBuffer returns the {chunksDim, currentlyWritingChunk}
// storage buffer the tracer binds at BindingChunksInfo.
func (b *Builder) ChunksInfoBuffer() *gpures.Buffer { return b.chunksInfoBuf }

// syncChunkIndex writes c's single chunkIndices word to the GPU mirror
// buffer (spec.md §4.4.1 step 6's "chunkIndicesBufferUpdater" analogue,
// here a host-side write instead of a single-thread GPU dispatch since
// the Directory is authoritative on the CPU).
func (b *Builder) syncChunkIndex(c voxel.ChunkCoord) {
	var word [4]byte
	binary.LittleEndian.PutUint32(word[:], b.Directory.Get(c))
	b.chunkIndicesBuf.Write(b.queue, uint64(b.cfg.Dims.Index(c))*4, word[:])
}

// writeCurrentlyWritingChunk records which chunk the in-flight build
// pass is constructing, the chunksInfo.currentlyWritingChunk field the
// field-construction/voxelization shaders read to address their
// scratch volumes (spec.md §4.4.1 step 1).
func (b *Builder) writeCurrentlyWritingChunk(c voxel.ChunkCoord) {
	var word [4]byte
	binary.LittleEndian.PutUint32(word[:], b.cfg.Dims.Index(c))
	b.chunksInfoBuf.Write(b.queue, 12, word[:])
}

// resetScratch zeroes the fragment counter, the step 1 reset of
// spec.md §4.4.1.
func (b *Builder) resetScratch() {
	var zero [4]byte
	b.fragmentCountBuf.Write(b.queue, 0, zero[:])
}

// BuildChunk runs the full initial build of chunk c (spec.md §4.4.1):
// field construction, voxelization, the fragment-list early-out, and
// CPU-side octree construction and publish over the read-back
// fragments.
func (b *Builder) BuildChunk(c voxel.ChunkCoord) error {
	if !b.cfg.Dims.Contains(c) {
		return fmt.Errorf("svobuilder: chunk %+v outside grid %+v", c, b.cfg.Dims)
	}

	b.resetScratch()
	b.writeCurrentlyWritingChunk(c)

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("svobuilder: create command encoder: %w", err)
	}

	dim := b.cfg.ChunkVoxelDim
	b.dispatch(encoder, b.fieldConstruction, dim+1, dim+1, dim+1)
	b.dispatch(encoder, b.voxelization, dim, dim, dim)

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("svobuilder: finish command buffer: %w", err)
	}
	b.queue.Submit(cmd)

	fragments, err := b.readFragments()
	if err != nil {
		return fmt.Errorf("svobuilder: read back fragment list: %w", err)
	}

	if len(fragments) == 0 {
		// Early-out: the chunk is empty. Not an error (spec.md §4.4.3).
		b.Directory.Clear(c)
		b.syncChunkIndex(c)
		return nil
	}

	return b.publish(c, fragments)
}

// publish builds the octree for fragments on the CPU, allocates a
// region for it, copies the region into the appended octree buffer,
// and updates the directory (spec.md §4.4.1 steps 5-6). Allocation
// failure aborts only this chunk's publish, leaving chunkIndices[C] at
// its previous value (spec.md §4.4.3).
func (b *Builder) publish(c voxel.ChunkCoord, fragments []voxel.Fragment) error {
	levelCount := voxel.VoxelLevelCount(b.cfg.ChunkVoxelDim)
	region, _ := voxel.BuildAndPublishOctree(fragments, levelCount)

	byteSize := uint64(len(region)) * 4
	alloced, err := b.octreeAlloc.Allocate(byteSize)
	if err != nil {
		var failed *alloc.AllocFailed
		if errors.As(err, &failed) {
			b.log.Warnf("svobuilder: chunk %+v publish aborted: %v (chunkIndices unchanged)", c, failed)
			return nil
		}
		return fmt.Errorf("svobuilder: allocate octree region for chunk %+v: %w", c, err)
	}

	if prior := b.Directory.PriorRegion(c); prior.Size > 0 {
		b.octreeAlloc.Deallocate(prior)
	}

	data := make([]byte, byteSize)
	for i, w := range region {
		binary.LittleEndian.PutUint32(data[i*4:], w)
	}
	b.octreeBuf.Write(b.queue, alloced.Offset, data)

	b.Directory.Publish(c, alloced.Offset, alloced)
	b.syncChunkIndex(c)
	return nil
}

// EditChunk applies a brush stroke to the one chunk c (spec.md §4.4.2;
// callers enumerate the touched chunks with BrushStroke.EditingChunks):
// it runs field construction unless Fields holds an entry for c, then
// field modification and voxelization, and re-runs the publish step.
// A cached entry only causes field construction to be skipped: no
// cached image is copied into the field the passes read, and the
// edited field is not stored into Fields.
func (b *Builder) EditChunk(c voxel.ChunkCoord, stroke BrushStroke) error {
	if !b.cfg.Dims.Contains(c) {
		return fmt.Errorf("svobuilder: chunk %+v outside grid %+v", c, b.cfg.Dims)
	}

	b.resetScratch()
	b.writeEditInfo(stroke)
	b.writeCurrentlyWritingChunk(c)

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("svobuilder: create command encoder: %w", err)
	}

	dim := b.cfg.ChunkVoxelDim
	if _, cached := b.Fields.Get(b.cfg.Dims, c); !cached {
		b.dispatch(encoder, b.fieldConstruction, dim+1, dim+1, dim+1)
	}
	b.dispatch(encoder, b.fieldModification, dim+1, dim+1, dim+1)
	b.dispatch(encoder, b.voxelization, dim, dim, dim)

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("svobuilder: finish command buffer: %w", err)
	}
	b.queue.Submit(cmd)

	fragments, err := b.readFragments()
	if err != nil {
		return fmt.Errorf("svobuilder: read back fragment list: %w", err)
	}

	if len(fragments) == 0 {
		if prior := b.Directory.Clear(c); prior.Size > 0 {
			b.octreeAlloc.Deallocate(prior)
		}
		b.Fields.Delete(b.cfg.Dims, c)
		b.syncChunkIndex(c)
		return nil
	}

	return b.publish(c, fragments)
}

// writeEditInfo uploads stroke into chunkEditingInfo using the 20-byte
// layout NewScratchBuffers sizes: vec3 pos, f32 radius, u32 operation.
func (b *Builder) writeEditInfo(stroke BrushStroke) {
	var buf [20]byte
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(stroke.Pos[0]))
	binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(stroke.Pos[1]))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(stroke.Pos[2]))
	binary.LittleEndian.PutUint32(buf[12:], math.Float32bits(stroke.Radius))
	binary.LittleEndian.PutUint32(buf[16:], uint32(stroke.Operation))
	b.editInfoBuf.Write(b.queue, 0, buf[:])
}

func (b *Builder) dispatch(encoder *wgpu.CommandEncoder, p *pipeline.Compute, nx, ny, nz uint32) {
	pass := encoder.BeginComputePass(nil)
	p.RecordCommand(pass, 0, nx, ny, nz)
	pass.End()
}

// readFragments copies fragmentListInfo.voxelFragmentCount fragments
// out of the scratch fragment-list buffer (spec.md §4.4.1 step 4).
func (b *Builder) readFragments() ([]voxel.Fragment, error) {
	countBytes, err := b.readBuffer(b.fragmentCountBuf, 4)
	if err != nil {
		return nil, err
	}
	count := binary.LittleEndian.Uint32(countBytes)
	if count == 0 {
		return nil, nil
	}
	if count > b.maxFragments {
		count = b.maxFragments
	}

	raw, err := b.readBuffer(b.fragmentListBuf, uint64(count)*8)
	if err != nil {
		return nil, err
	}

	fragments := make([]voxel.Fragment, count)
	for i := uint32(0); i < count; i++ {
		coordWord := binary.LittleEndian.Uint32(raw[i*8:])
		materialWord := binary.LittleEndian.Uint32(raw[i*8+4:])
		fragments[i] = voxel.FragmentFromWords(coordWord, materialWord)
	}
	return fragments, nil
}

// defaultReadBuffer copies byteCount bytes from src into the staging
// buffer and maps it, following the CopyBufferToBuffer + MapAsync +
// Device.Poll + GetMappedRange + Unmap sequence rt/gpu/manager_hiz.go
// uses for its HiZ readback.
func (b *Builder) defaultReadBuffer(src *gpures.Buffer, byteCount uint64) ([]byte, error) {
	if byteCount == 0 {
		return nil, nil
	}

	encoder, err := b.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("create readback encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(src.Handle(), 0, b.readbackBuf.Handle(), 0, byteCount)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("finish readback command buffer: %w", err)
	}
	b.queue.Submit(cmd)

	var mapErr error
	mapped := false
	b.readbackBuf.Handle().MapAsync(wgpu.MapModeRead, 0, byteCount, func(status wgpu.BufferMapAsyncStatus) {
		if status == wgpu.BufferMapAsyncStatusSuccess {
			mapped = true
		} else {
			mapErr = fmt.Errorf("map readback buffer: status %d", status)
		}
	})

	const maxPolls = 10000
	for i := 0; !mapped && mapErr == nil && i < maxPolls; i++ {
		b.device.Poll(true, nil)
	}
	if mapErr != nil {
		return nil, mapErr
	}
	if !mapped {
		return nil, fmt.Errorf("readback buffer never mapped")
	}

	view := b.readbackBuf.Handle().GetMappedRange(0, uint(byteCount))
	out := make([]byte, byteCount)
	copy(out, view)
	b.readbackBuf.Handle().Unmap()
	return out, nil
}

// Release destroys every GPU resource the builder owns directly (the
// pipelines and field cache images are owned by their callers/cache).
func (b *Builder) Release() {
	b.octreeBuf.Release()
	b.fragmentCountBuf.Release()
	b.fragmentListBuf.Release()
	b.readbackBuf.Release()
	b.editInfoBuf.Release()
	b.chunkIndicesBuf.Release()
	b.chunksInfoBuf.Release()
}
