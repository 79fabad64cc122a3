// Package svobuilder implements the SVO Builder: the per-chunk
// construction and editing pipeline of spec.md §4.4, grounded on
// original_source/application/svo-builder/SvoBuilder.cpp's
// buildScene/handleCursorHit/_editExistingChunk flow and on
// rt/gpu/manager_edit.go's QueueEdit/FlushEdits pattern for batching
// GPU-bound edit commands.
package svobuilder

import (
	"github.com/gekko3d/svoray/internal/alloc"
	"github.com/gekko3d/svoray/internal/voxel"
)

// Directory is the CPU-visible mirror of chunkIndices (spec.md §3): for
// every chunk slot, either 0 (empty, no octree bytes published) or
// byteOffset/4+1 into the appended octree buffer (spec.md §4.4.1 step
// 6's "+1" so that 0 stays reserved as the empty sentinel across every
// chunk, not just the first one in the buffer).
type Directory struct {
	dims    voxel.GridDims
	indices []uint32
	regions []alloc.Region // the allocator region backing each non-empty slot, for Deallocate on re-edit
}

// NewDirectory allocates a Directory sized for dims, every slot
// starting empty.
func NewDirectory(dims voxel.GridDims) *Directory {
	return &Directory{
		dims:    dims,
		indices: make([]uint32, dims.Count()),
		regions: make([]alloc.Region, dims.Count()),
	}
}

// Get returns the published chunkIndices value for c (0 if empty or out
// of range).
func (d *Directory) Get(c voxel.ChunkCoord) uint32 {
	if !d.dims.Contains(c) {
		return 0
	}
	return d.indices[d.dims.Index(c)]
}

// Publish records that c's octree region was copied to byteOffset
// (bytes) within the appended octree buffer, backed by region (so a
// later re-edit or clear can free it).
func (d *Directory) Publish(c voxel.ChunkCoord, byteOffset uint64, region alloc.Region) {
	i := d.dims.Index(c)
	d.indices[i] = uint32(byteOffset/4) + 1
	d.regions[i] = region
}

// Clear marks c empty, returning the region that was backing it (the
// zero Region if it was already empty) so the caller can deallocate it.
func (d *Directory) Clear(c voxel.ChunkCoord) alloc.Region {
	i := d.dims.Index(c)
	prev := d.regions[i]
	d.indices[i] = 0
	d.regions[i] = alloc.Region{}
	return prev
}

// PriorRegion returns the allocator region currently backing c, the
// zero Region if c is empty. Used when re-publishing a chunk: publish
// allocates the new region first and frees this one only once that
// allocation succeeds, so a failed allocation keeps the old region.
func (d *Directory) PriorRegion(c voxel.ChunkCoord) alloc.Region {
	return d.regions[d.dims.Index(c)]
}

// IsEmpty reports whether c currently has no published octree (spec.md
// §4.4.1 step 4's early-out outcome, or a chunk that became empty after
// an edit).
func (d *Directory) IsEmpty(c voxel.ChunkCoord) bool {
	return d.Get(c) == 0
}
