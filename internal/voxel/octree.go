package voxel

// Node word layout (spec.md §3): an internal node is one word whose
// high 8 bits are a child-existence mask and whose low 24 bits are the
// word offset, relative to the region base, of the first of its up to
// eight children (packed consecutively). A leaf stores its palette
// index directly with no mask/offset encoding at all; which
// interpretation applies to a given word is determined by the level at
// which it was written during construction, exactly as in
// original_source/application/svo-builder/SvoBuilder.cpp's
// initNode/tagNode/allocNode passes.
const (
	nodeMaskShift  = 24
	nodeOffsetMask = 0x00FFFFFF
)

// EncodeInternalNode packs an 8-bit child-existence mask and a
// region-relative word offset into one node word.
func EncodeInternalNode(mask uint8, childOffset uint32) uint32 {
	return uint32(mask)<<nodeMaskShift | (childOffset & nodeOffsetMask)
}

// DecodeInternalNode unpacks a node word into its mask and offset.
func DecodeInternalNode(word uint32) (mask uint8, childOffset uint32) {
	return uint8(word >> nodeMaskShift), word & nodeOffsetMask
}

// EncodeLeaf returns the word a leaf stores: the palette index,
// unmodified.
func EncodeLeaf(paletteIndex uint32) uint32 { return paletteIndex }

func octant(f Fragment, shift uint32) uint8 {
	var o uint8
	if (f.X>>shift)&1 != 0 {
		o |= 1
	}
	if (f.Y>>shift)&1 != 0 {
		o |= 2
	}
	if (f.Z>>shift)&1 != 0 {
		o |= 4
	}
	return o
}

func partitionByLevel(frags []Fragment, voxelLevelCount, level uint32) [8][]Fragment {
	shift := voxelLevelCount - 1 - level
	var buckets [8][]Fragment
	for _, f := range frags {
		o := octant(f, shift)
		buckets[o] = append(buckets[o], f)
	}
	return buckets
}

func maskFromBuckets(buckets [8][]Fragment) uint8 {
	var mask uint8
	for i, b := range buckets {
		if len(b) > 0 {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// BuildOctree runs the per-chunk octree construction algorithm
// (spec.md §4.4.1 step 5) entirely on the CPU: a software-model
// reference implementation of the init/tag/alloc level-by-level
// dispatch sequence, used for testing the construction invariants
// (spec.md §8). It returns the words written into the per-chunk
// scratch buffer (including the reserved null word at index 0) and the
// final counter value.
//
// BuildAndPublishOctree runs the same construction and returns the
// published region (the words actually copied into the appended octree
// buffer); it is the path the SVO Builder uses.
func BuildOctree(fragments []Fragment, voxelLevelCount uint32) (scratch []uint32, counter uint32) {
	scratch, counter, _ = buildOctreeWithLevels(fragments, voxelLevelCount)
	return scratch, counter
}

// buildOctreeWithLevels is BuildOctree plus a parallel slice recording,
// for every scratch word, the tree level it was written at: leaves
// record voxelLevelCount-1, and the reserved null word and unwritten
// words record 0. BuildAndPublishOctree uses this to tell internal
// nodes, whose offsets need rebasing, from leaves.
func buildOctreeWithLevels(fragments []Fragment, voxelLevelCount uint32) (scratch []uint32, counter uint32, levels []uint32) {
	if len(fragments) == 0 {
		return nil, 0, nil
	}

	if voxelLevelCount == 0 {
		// Boundary case (spec.md §8): chunkVoxelDim=1, the root is a
		// leaf, and the build loop runs zero iterations.
		return []uint32{EncodeLeaf(fragments[0].PaletteIndex)}, 1, []uint32{0}
	}

	scratch = make([]uint32, 1, 9) // index 0 reserved/null
	levels = make([]uint32, 1, 9)
	counter = 1

	allocGroup := func() uint32 {
		offset := counter
		scratch = append(scratch, 0, 0, 0, 0, 0, 0, 0, 0)
		levels = append(levels, 0, 0, 0, 0, 0, 0, 0, 0)
		counter += 8
		return offset
	}

	var fillGroup func(groupOffset uint32, frags []Fragment, level uint32)
	fillGroup = func(groupOffset uint32, frags []Fragment, level uint32) {
		buckets := partitionByLevel(frags, voxelLevelCount, level)
		leafLevel := level == voxelLevelCount-1
		for i := 0; i < 8; i++ {
			if len(buckets[i]) == 0 {
				continue
			}
			if leafLevel {
				scratch[groupOffset+uint32(i)] = EncodeLeaf(buckets[i][0].PaletteIndex)
				levels[groupOffset+uint32(i)] = level
				continue
			}
			childGroupOffset := allocGroup()
			grandBuckets := partitionByLevel(buckets[i], voxelLevelCount, level+1)
			mask := maskFromBuckets(grandBuckets)
			scratch[groupOffset+uint32(i)] = EncodeInternalNode(mask, childGroupOffset)
			levels[groupOffset+uint32(i)] = level
			fillGroup(childGroupOffset, buckets[i], level+1)
		}
	}

	rootGroupOffset := allocGroup() // unconditional pre-reservation, deterministically offset 1
	fillGroup(rootGroupOffset, fragments, 0)

	return scratch, counter, levels
}

// BuildAndPublishOctree runs BuildOctree and returns the region actually
// copied into the appended octree buffer: the reserved null word
// dropped, and every internal node's child offset rebased from
// scratch-relative to region-relative (spec.md §3: "the offset ...
// relative to the allocated region's base").
func BuildAndPublishOctree(fragments []Fragment, voxelLevelCount uint32) (region []uint32, counter uint32) {
	scratch, counter, levels := buildOctreeWithLevels(fragments, voxelLevelCount)
	if len(scratch) <= 1 {
		if len(scratch) == 1 {
			return scratch, counter // voxelLevelCount==0: single leaf word, nothing to rebase
		}
		return nil, counter
	}

	region = make([]uint32, len(scratch)-1)
	copy(region, scratch[1:])

	for i := range region {
		lvl := levels[i+1]
		if lvl == voxelLevelCount-1 || region[i] == 0 {
			continue // leaf or empty slot: no offset to rebase
		}
		mask, offset := DecodeInternalNode(region[i])
		region[i] = EncodeInternalNode(mask, offset-1)
	}
	return region, counter
}

// DecodeRegion walks a published region from word 0 and returns every
// solid voxel's local coordinate and palette index. voxelLevelCount
// must match the value BuildOctree was called with. Used to verify
// spec.md §8 invariant 1 ("decoding the octree yields exactly the set
// of voxels whose density function changed sign").
func DecodeRegion(region []uint32, voxelLevelCount, chunkVoxelDim uint32) []Fragment {
	if len(region) == 0 {
		return nil
	}
	if voxelLevelCount == 0 {
		return []Fragment{{X: 0, Y: 0, Z: 0, PaletteIndex: region[0]}}
	}

	var out []Fragment
	var walk func(groupOffset uint32, level uint32, baseX, baseY, baseZ uint32, cellSize uint32)
	walk = func(groupOffset uint32, level uint32, baseX, baseY, baseZ uint32, cellSize uint32) {
		half := cellSize / 2
		for i := uint32(0); i < 8; i++ {
			idx := groupOffset + i
			if idx >= uint32(len(region)) {
				continue
			}
			word := region[idx]
			if word == 0 {
				continue
			}
			cx := baseX + (i&1)*half
			cy := baseY + ((i>>1)&1)*half
			cz := baseZ + ((i>>2)&1)*half

			if level == voxelLevelCount-1 {
				out = append(out, Fragment{X: cx, Y: cy, Z: cz, PaletteIndex: word})
				continue
			}
			_, offset := DecodeInternalNode(word)
			walk(offset, level+1, cx, cy, cz, half)
		}
	}
	walk(0, 0, 0, 0, 0, chunkVoxelDim)
	return out
}
