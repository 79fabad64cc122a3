package svobuilder

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gekko3d/svoray/internal/gpures"
	"github.com/gekko3d/svoray/internal/voxel"
)

func TestFieldCachePutThenGet(t *testing.T) {
	dims := voxel.GridDims{X: 2, Y: 2, Z: 2}
	c := voxel.ChunkCoord{X: 1, Y: 0, Z: 1}
	cache := NewFieldCache()

	_, ok := cache.Get(dims, c)
	require.False(t, ok)

	img := &gpures.Image{Label: "field"}
	cache.Put(dims, c, img)

	got, ok := cache.Get(dims, c)
	require.True(t, ok)
	require.Same(t, img, got)
	require.Equal(t, 1, cache.Len())
}

func TestFieldCacheDeleteForgetsChunk(t *testing.T) {
	dims := voxel.GridDims{X: 1, Y: 1, Z: 1}
	c := voxel.ChunkCoord{X: 0, Y: 0, Z: 0}
	cache := NewFieldCache()
	cache.Put(dims, c, &gpures.Image{Label: "field"})

	cache.Delete(dims, c)
	_, ok := cache.Get(dims, c)
	require.False(t, ok)
	require.Zero(t, cache.Len())
}
