package svobuilder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gekko3d/svoray/internal/alloc"
	"github.com/gekko3d/svoray/internal/voxel"
)

func TestDirectoryStartsAllEmpty(t *testing.T) {
	dims := voxel.GridDims{X: 2, Y: 2, Z: 2}
	d := NewDirectory(dims)
	require.True(t, d.IsEmpty(voxel.ChunkCoord{X: 1, Y: 1, Z: 1}))
	require.Zero(t, d.Get(voxel.ChunkCoord{X: 0, Y: 0, Z: 0}))
}

func TestPublishEncodesBytesOffsetPlusOne(t *testing.T) {
	dims := voxel.GridDims{X: 1, Y: 1, Z: 1}
	d := NewDirectory(dims)
	c := voxel.ChunkCoord{X: 0, Y: 0, Z: 0}

	region := alloc.Region{Offset: 32, Size: 16}
	d.Publish(c, 32, region)

	require.Equal(t, uint32(32/4+1), d.Get(c))
	require.False(t, d.IsEmpty(c))
	require.Equal(t, region, d.PriorRegion(c))
}

func TestClearResetsSlotAndReturnsPriorRegion(t *testing.T) {
	dims := voxel.GridDims{X: 1, Y: 1, Z: 1}
	d := NewDirectory(dims)
	c := voxel.ChunkCoord{X: 0, Y: 0, Z: 0}
	region := alloc.Region{Offset: 8, Size: 8}
	d.Publish(c, 8, region)

	freed := d.Clear(c)
	require.Equal(t, region, freed)
	require.True(t, d.IsEmpty(c))
	require.Equal(t, alloc.Region{}, d.PriorRegion(c))
}

func TestGetOutOfRangeIsZero(t *testing.T) {
	dims := voxel.GridDims{X: 1, Y: 1, Z: 1}
	d := NewDirectory(dims)
	require.Zero(t, d.Get(voxel.ChunkCoord{X: 5, Y: 0, Z: 0}))
}
