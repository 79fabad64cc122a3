package voxel

// Fragment is one entry of the per-chunk fragment list: a solid
// voxel's local coordinate plus its palette index, produced by the
// voxelization pass and consumed by octree construction (spec.md §3,
// §4.4.1 step 3).
type Fragment struct {
	X, Y, Z      uint32
	PaletteIndex uint32
}

// PackCoord packs (x,y,z) into the first fragment-list word, 10 bits
// per axis (chunkVoxelDim is never larger than 1024 in any configured
// grid spec.md allows).
func PackCoord(x, y, z uint32) uint32 {
	return (x & 0x3FF) | ((y & 0x3FF) << 10) | ((z & 0x3FF) << 20)
}

// UnpackCoord reverses PackCoord.
func UnpackCoord(packed uint32) (x, y, z uint32) {
	return packed & 0x3FF, (packed >> 10) & 0x3FF, (packed >> 20) & 0x3FF
}

// PackMaterial packs the palette index into the second fragment-list
// word. Only the low byte is used for the palette index today; the
// remaining bits are reserved (spec.md §3: "(palette_index, …)").
func PackMaterial(paletteIndex uint32) uint32 {
	return paletteIndex & 0xFF
}

// UnpackMaterial reverses PackMaterial.
func UnpackMaterial(packed uint32) uint32 {
	return packed & 0xFF
}

// ToWords packs a Fragment into the (coord, material) word pair
// written by the voxelization pass.
func (f Fragment) ToWords() (coordWord, materialWord uint32) {
	return PackCoord(f.X, f.Y, f.Z), PackMaterial(f.PaletteIndex)
}

// FragmentFromWords unpacks a (coord, material) word pair back into a
// Fragment.
func FragmentFromWords(coordWord, materialWord uint32) Fragment {
	x, y, z := UnpackCoord(coordWord)
	return Fragment{X: x, Y: y, Z: z, PaletteIndex: UnpackMaterial(materialWord)}
}
