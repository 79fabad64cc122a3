package svobuilder

import (
	"github.com/gekko3d/svoray/internal/gpures"
	"github.com/gekko3d/svoray/internal/voxel"
)

// FieldCache mirrors SvoBuilder.cpp's
// _chunkIndexToFieldImagesMap: a per-chunk 3-D density-field image kept
// on the device so an edit can blit the cached field instead of
// re-running the procedural noise pass (spec.md §3: "cached on-device
// in a map keyed by chunk index"). Builder.EditChunk consults it only
// to skip field construction and does not copy the cached image or
// store new entries.
type FieldCache struct {
	images map[uint32]*gpures.Image
}

// NewFieldCache returns an empty cache.
func NewFieldCache() *FieldCache {
	return &FieldCache{images: make(map[uint32]*gpures.Image)}
}

// Get returns the cached field image for c, and whether one exists.
func (f *FieldCache) Get(dims voxel.GridDims, c voxel.ChunkCoord) (*gpures.Image, bool) {
	img, ok := f.images[dims.Index(c)]
	return img, ok
}

// Put stores img as c's cached field, releasing any image it replaces.
func (f *FieldCache) Put(dims voxel.GridDims, c voxel.ChunkCoord, img *gpures.Image) {
	key := dims.Index(c)
	if prev, ok := f.images[key]; ok && prev != img {
		prev.Release()
	}
	f.images[key] = img
}

// Delete releases and forgets c's cached field, if any (called when a
// chunk becomes empty after an edit).
func (f *FieldCache) Delete(dims voxel.GridDims, c voxel.ChunkCoord) {
	key := dims.Index(c)
	if img, ok := f.images[key]; ok {
		img.Release()
		delete(f.images, key)
	}
}

// Len reports how many chunks currently have a cached field image.
func (f *FieldCache) Len() int { return len(f.images) }
