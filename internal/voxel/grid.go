// Package voxel holds the pure-CPU data model shared by the SVO
// Builder and SVO Tracer: chunk grid addressing, the fragment-list
// wire format, and the octree node word encoding described in
// spec.md §3. None of this needs a GPU device, so it is kept separate
// from internal/gpures; its octree construction is unit tested in
// octree_test.go.
package voxel

import "fmt"

// ChunkCoord addresses one chunk in the world grid.
type ChunkCoord struct {
	X, Y, Z uint32
}

// GridDims is the chunk grid's extent in chunks per axis
// (SvoBuilder.chunkDim in spec.md §6).
type GridDims struct {
	X, Y, Z uint32
}

// Count returns the total number of chunk slots in the grid.
func (d GridDims) Count() uint32 { return d.X * d.Y * d.Z }

// Index returns the dense x-major array index chunkIndices uses for c,
// matching spec.md §3's "chunkIndices[z*Dx*Dy + y*Dx + x]".
func (d GridDims) Index(c ChunkCoord) uint32 {
	return c.Z*d.X*d.Y + c.Y*d.X + c.X
}

// Contains reports whether c lies within the grid.
func (d GridDims) Contains(c ChunkCoord) bool {
	return c.X < d.X && c.Y < d.Y && c.Z < d.Z
}

// VoxelLevelCount returns log2(chunkVoxelDim), the number of octree
// levels a chunk's voxel grid expands into. chunkVoxelDim must be a
// power of two (spec.md §3 invariant, enforced by config validation).
func VoxelLevelCount(chunkVoxelDim uint32) uint32 {
	levels := uint32(0)
	for v := chunkVoxelDim; v > 1; v >>= 1 {
		levels++
	}
	return levels
}

// IsPowerOfTwo reports whether v is a power of two (and nonzero).
func IsPowerOfTwo(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}

// ValidateChunkVoxelDim returns an error if dim is not a positive
// power of two, per spec.md §3/§6.
func ValidateChunkVoxelDim(dim uint32) error {
	if !IsPowerOfTwo(dim) {
		return fmt.Errorf("voxel: chunkVoxelDim must be a power of two, got %d", dim)
	}
	return nil
}
