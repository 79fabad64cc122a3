package svobuilder

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/svoray/internal/voxel"
)

// Operation is the effect a BrushStroke has on the density field
// (original_source/svo-builder/SvoBuilder.cpp's "operation = 0 for
// deletion, 1 for addition").
type Operation uint32

const (
	OperationRemove Operation = 0
	OperationAdd    Operation = 1
)

// BrushStroke is one cursor-hit edit (spec.md §4.4.2): a sphere in
// chunk-grid space that either adds or removes material.
type BrushStroke struct {
	Pos       mgl32.Vec3
	Radius    float32
	Operation Operation
}

// EditingChunks enumerates every chunk whose unit-cube AABB intersects
// the stroke's sphere, clamped to dims (spec.md §4.4.2 step 1),
// grounded on SvoBuilder.cpp's _getEditingChunks (a conservative AABB
// test against the sphere's bounding box, not an exact sphere-cube
// intersection, matching the original's behavior).
func (s BrushStroke) EditingChunks(dims voxel.GridDims) []voxel.ChunkCoord {
	minPos := s.Pos.Sub(mgl32.Vec3{s.Radius, s.Radius, s.Radius})
	maxPos := s.Pos.Add(mgl32.Vec3{s.Radius, s.Radius, s.Radius})

	minChunk := clampToGrid(floorToUint(minPos), dims)
	maxChunk := clampToGrid(floorToUint(maxPos), dims)

	var chunks []voxel.ChunkCoord
	for z := minChunk.Z; z <= maxChunk.Z; z++ {
		for y := minChunk.Y; y <= maxChunk.Y; y++ {
			for x := minChunk.X; x <= maxChunk.X; x++ {
				chunks = append(chunks, voxel.ChunkCoord{X: x, Y: y, Z: z})
			}
		}
	}
	return chunks
}

func floorToUint(v mgl32.Vec3) voxel.ChunkCoord {
	clampNonNeg := func(f float32) uint32 {
		if f < 0 {
			return 0
		}
		return uint32(f)
	}
	return voxel.ChunkCoord{X: clampNonNeg(v.X()), Y: clampNonNeg(v.Y()), Z: clampNonNeg(v.Z())}
}

func clampToGrid(c voxel.ChunkCoord, dims voxel.GridDims) voxel.ChunkCoord {
	clamp := func(v, max uint32) uint32 {
		if max == 0 {
			return 0
		}
		if v > max-1 {
			return max - 1
		}
		return v
	}
	return voxel.ChunkCoord{
		X: clamp(c.X, dims.X),
		Y: clamp(c.Y, dims.Y),
		Z: clamp(c.Z, dims.Z),
	}
}
