// Package alloc implements the chunk buffer allocator: a single-owner
// best-fit suballocator over one large GPU buffer, used to place each
// chunk's octree region inside the appended octree buffer.
package alloc

import (
	"fmt"
	"sort"
)

// Region is a byte-addressed interval handed back by Allocate. It is
// the token a caller must present to Deallocate.
type Region struct {
	Offset uint64
	Size   uint64
}

// Stats summarizes the allocator's current state.
type Stats struct {
	Total       uint64
	InUse       uint64
	Free        uint64
	LargestFree uint64
}

type freeInterval struct {
	offset uint64
	size   uint64
}

// ChunkBufferAllocator is a best-fit allocator over [0, totalBytes): it
// hands out the smallest free interval that satisfies a request.
// It is not safe for concurrent use: the design note in spec.md §5
// says it is touched only from the main thread between submits.
type ChunkBufferAllocator struct {
	total uint64
	free  []freeInterval // kept sorted by offset
	inUse uint64
}

// AllocFailed is returned by Allocate when no free interval is large
// enough to satisfy the request.
type AllocFailed struct {
	Requested uint64
}

func (e *AllocFailed) Error() string {
	return fmt.Sprintf("chunk buffer allocator: no free interval large enough for %d bytes", e.Requested)
}

// New creates an allocator owning a single interval [0, totalBytes).
func New(totalBytes uint64) *ChunkBufferAllocator {
	a := &ChunkBufferAllocator{total: totalBytes}
	if totalBytes > 0 {
		a.free = []freeInterval{{offset: 0, size: totalBytes}}
	}
	return a
}

// Allocate returns the smallest free interval whose size is at least
// size, splitting it and leaving the remainder free. Fails with
// *AllocFailed when no interval is large enough.
func (a *ChunkBufferAllocator) Allocate(size uint64) (Region, error) {
	if size == 0 {
		return Region{}, fmt.Errorf("chunk buffer allocator: cannot allocate zero bytes")
	}

	best := -1
	for i, f := range a.free {
		if f.size < size {
			continue
		}
		if best == -1 || f.size < a.free[best].size {
			best = i
		}
	}
	if best == -1 {
		return Region{}, &AllocFailed{Requested: size}
	}

	chosen := a.free[best]
	region := Region{Offset: chosen.offset, Size: size}

	if chosen.size == size {
		a.free = append(a.free[:best], a.free[best+1:]...)
	} else {
		a.free[best] = freeInterval{offset: chosen.offset + size, size: chosen.size - size}
	}

	a.inUse += size
	return region, nil
}

// Deallocate releases a previously allocated region and coalesces it
// with any adjacent free neighbors. Coalescing is mandatory: the
// allocator never leaves two free intervals touching.
func (a *ChunkBufferAllocator) Deallocate(r Region) {
	if r.Size == 0 {
		return
	}

	idx := sort.Search(len(a.free), func(i int) bool { return a.free[i].offset >= r.offset() })
	a.free = append(a.free, freeInterval{})
	copy(a.free[idx+1:], a.free[idx:])
	a.free[idx] = freeInterval{offset: r.Offset, size: r.Size}

	a.coalesceAround(idx)
	a.inUse -= r.Size
}

func (r Region) offset() uint64 { return r.Offset }

func (a *ChunkBufferAllocator) coalesceAround(idx int) {
	// merge with next
	for idx+1 < len(a.free) && a.free[idx].offset+a.free[idx].size == a.free[idx+1].offset {
		a.free[idx].size += a.free[idx+1].size
		a.free = append(a.free[:idx+1], a.free[idx+2:]...)
	}
	// merge with previous
	for idx > 0 && a.free[idx-1].offset+a.free[idx-1].size == a.free[idx].offset {
		a.free[idx-1].size += a.free[idx].size
		a.free = append(a.free[:idx], a.free[idx+1:]...)
		idx--
	}
}

// FreeAll resets the allocator to a single free interval spanning the
// whole buffer, discarding every outstanding allocation.
func (a *ChunkBufferAllocator) FreeAll() {
	a.inUse = 0
	if a.total == 0 {
		a.free = nil
		return
	}
	a.free = []freeInterval{{offset: 0, size: a.total}}
}

// Stats reports total, in-use, free and largest-free-interval byte
// counts.
func (a *ChunkBufferAllocator) Stats() Stats {
	var largest uint64
	var free uint64
	for _, f := range a.free {
		free += f.size
		if f.size > largest {
			largest = f.size
		}
	}
	return Stats{
		Total:       a.total,
		InUse:       a.inUse,
		Free:        free,
		LargestFree: largest,
	}
}
