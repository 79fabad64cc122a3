package svobuilder

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"

	"github.com/gekko3d/svoray/internal/voxel"
)

func TestEditingChunksSingleChunkGrid(t *testing.T) {
	dims := voxel.GridDims{X: 1, Y: 1, Z: 1}
	stroke := BrushStroke{Pos: mgl32.Vec3{0.5, 0.5, 0.5}, Radius: 0.1, Operation: OperationAdd}

	chunks := stroke.EditingChunks(dims)
	require.Equal(t, []voxel.ChunkCoord{{X: 0, Y: 0, Z: 0}}, chunks)
}

func TestEditingChunksSpansMultipleChunks(t *testing.T) {
	dims := voxel.GridDims{X: 4, Y: 4, Z: 4}
	stroke := BrushStroke{Pos: mgl32.Vec3{2, 2, 2}, Radius: 1.5, Operation: OperationRemove}

	chunks := stroke.EditingChunks(dims)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		require.True(t, dims.Contains(c))
	}
	// the stroke's AABB [0.5,3.5] in every axis should cover chunks 0..3
	require.Contains(t, chunks, voxel.ChunkCoord{X: 0, Y: 0, Z: 0})
	require.Contains(t, chunks, voxel.ChunkCoord{X: 3, Y: 3, Z: 3})
}

func TestEditingChunksClampsToGridBounds(t *testing.T) {
	dims := voxel.GridDims{X: 2, Y: 2, Z: 2}
	stroke := BrushStroke{Pos: mgl32.Vec3{0, 0, 0}, Radius: 10, Operation: OperationAdd}

	chunks := stroke.EditingChunks(dims)
	for _, c := range chunks {
		require.True(t, dims.Contains(c))
	}
	require.Len(t, chunks, 8) // clamped to the full 2x2x2 grid, no out-of-range coords
}

func TestEditingChunksNegativePositionClampsToZero(t *testing.T) {
	dims := voxel.GridDims{X: 3, Y: 3, Z: 3}
	stroke := BrushStroke{Pos: mgl32.Vec3{-5, -5, -5}, Radius: 1, Operation: OperationAdd}

	chunks := stroke.EditingChunks(dims)
	require.Contains(t, chunks, voxel.ChunkCoord{X: 0, Y: 0, Z: 0})
	for _, c := range chunks {
		require.True(t, dims.Contains(c))
	}
}
