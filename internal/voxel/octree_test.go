package voxel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildOctreeEmptyChunkOccupiesZeroWords(t *testing.T) {
	scratch, counter := BuildOctree(nil, 2)
	require.Nil(t, scratch)
	require.Zero(t, counter)
}

// Boundary case from spec.md §8: chunkVoxelDim=1 produces an octree of
// depth 0, the root itself a leaf.
func TestBuildOctreeChunkVoxelDimOneIsDepthZeroLeaf(t *testing.T) {
	require.Equal(t, uint32(0), VoxelLevelCount(1))

	frags := []Fragment{{X: 0, Y: 0, Z: 0, PaletteIndex: 7}}
	scratch, counter := BuildOctree(frags, VoxelLevelCount(1))
	require.Equal(t, []uint32{7}, scratch)
	require.Equal(t, uint32(1), counter)

	region, publishedCounter := BuildAndPublishOctree(frags, VoxelLevelCount(1))
	require.Equal(t, []uint32{7}, region)
	require.Equal(t, uint32(1), publishedCounter)

	decoded := DecodeRegion(region, VoxelLevelCount(1), 1)
	require.Equal(t, frags, decoded)
}

// Scenario from spec.md §8: chunkVoxelDim=2 (one level), a single solid
// voxel at (0,0,0). counter ends at 9 (the reserved null word plus the
// root's unconditionally pre-reserved 8-word child group), and exactly
// one word in the region holds a palette index.
func TestBuildOctreeSingleVoxelSmallestChunk(t *testing.T) {
	chunkVoxelDim := uint32(2)
	levelCount := VoxelLevelCount(chunkVoxelDim)
	require.Equal(t, uint32(1), levelCount)

	frags := []Fragment{{X: 0, Y: 0, Z: 0, PaletteIndex: 5}}
	scratch, counter := BuildOctree(frags, levelCount)
	require.Equal(t, uint32(9), counter)
	require.Len(t, scratch, 9)

	nonZero := 0
	for _, w := range scratch {
		if w != 0 {
			nonZero++
		}
	}
	require.Equal(t, 1, nonZero)

	region, publishedCounter := BuildAndPublishOctree(frags, levelCount)
	require.Equal(t, uint32(9), publishedCounter)
	require.Len(t, region, 8)
	require.Equal(t, uint32(5), region[0], "root is the first word (spec.md §3)")

	decoded := DecodeRegion(region, levelCount, chunkVoxelDim)
	require.Equal(t, frags, decoded)
}

// Invariant 1 (spec.md §8): decoding the octree yields exactly the set
// of solid voxels the builder was given, for a chunk deep enough to
// exercise multiple internal-node levels.
func TestBuildOctreeRoundTripsMultipleVoxelsAcrossLevels(t *testing.T) {
	chunkVoxelDim := uint32(8)
	levelCount := VoxelLevelCount(chunkVoxelDim)
	require.Equal(t, uint32(3), levelCount)

	frags := []Fragment{
		{X: 0, Y: 0, Z: 0, PaletteIndex: 1},
		{X: 7, Y: 7, Z: 7, PaletteIndex: 2},
		{X: 3, Y: 5, Z: 1, PaletteIndex: 3},
		{X: 1, Y: 0, Z: 6, PaletteIndex: 4},
	}

	region, counter := BuildAndPublishOctree(frags, levelCount)
	require.NotZero(t, counter)

	decoded := DecodeRegion(region, levelCount, chunkVoxelDim)
	require.ElementsMatch(t, frags, decoded)
}

// Invariant 3 (spec.md §8): the builder's word-allocation cursor always
// ends at 1 (the reserved null word) plus 8 for every group it handed
// out, including the root's unconditional group.
func TestBuildOctreeCounterMatchesGroupsAllocated(t *testing.T) {
	chunkVoxelDim := uint32(16)
	levelCount := VoxelLevelCount(chunkVoxelDim)

	frags := []Fragment{
		{X: 0, Y: 0, Z: 0, PaletteIndex: 1},
		{X: 15, Y: 15, Z: 15, PaletteIndex: 2},
		{X: 8, Y: 1, Z: 9, PaletteIndex: 3},
	}

	scratch, counter := BuildOctree(frags, levelCount)
	require.Equal(t, uint32(len(scratch)), counter)
	require.Equal(t, uint32(1), counter%8, "counter is always 1 + 8*groupsAllocated")
}

func TestEncodeDecodeInternalNodeRoundTrips(t *testing.T) {
	word := EncodeInternalNode(0b10100001, 12345)
	mask, offset := DecodeInternalNode(word)
	require.Equal(t, uint8(0b10100001), mask)
	require.Equal(t, uint32(12345), offset)
}
