package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllocateSplitsFreeInterval(t *testing.T) {
	a := New(1024)

	r, err := a.Allocate(256)
	require.NoError(t, err)
	require.Equal(t, uint64(0), r.Offset)
	require.Equal(t, uint64(256), r.Size)

	stats := a.Stats()
	require.Equal(t, uint64(1024), stats.Total)
	require.Equal(t, uint64(256), stats.InUse)
	require.Equal(t, uint64(768), stats.Free)
}

func TestAllocateBestFitPicksSmallestSufficientInterval(t *testing.T) {
	a := New(100)

	big, err := a.Allocate(80)
	require.NoError(t, err)
	_ = big

	// 20 bytes remain; request more than available should fail.
	_, err = a.Allocate(21)
	require.Error(t, err)
	var failed *AllocFailed
	require.ErrorAs(t, err, &failed)

	// Free intervals of 30 bytes at 0, 20 at 40 and 30 at 70: a 15-byte
	// request takes the 20-byte interval, not the first one.
	b := New(100)
	r1, err := b.Allocate(30) // [0,30)
	require.NoError(t, err)
	_, err = b.Allocate(10) // [30,40)
	require.NoError(t, err)
	r3, err := b.Allocate(20) // [40,60)
	require.NoError(t, err)
	_, err = b.Allocate(10) // [60,70); [70,100) stays free
	require.NoError(t, err)
	b.Deallocate(r1)
	b.Deallocate(r3)

	r, err := b.Allocate(15)
	require.NoError(t, err)
	require.Equal(t, uint64(40), r.Offset)
}

func TestDeallocateCoalescesAdjacentFreeIntervals(t *testing.T) {
	a := New(300)

	r1, err := a.Allocate(100)
	require.NoError(t, err)
	r2, err := a.Allocate(100)
	require.NoError(t, err)
	r3, err := a.Allocate(100)
	require.NoError(t, err)

	a.Deallocate(r1)
	a.Deallocate(r3)
	a.Deallocate(r2)

	stats := a.Stats()
	require.Equal(t, uint64(0), stats.InUse)
	require.Equal(t, uint64(300), stats.Free)
	require.Equal(t, uint64(300), stats.LargestFree, "coalescing must merge all three freed intervals back into one")
}

func TestFreeAllResetsToSingleInterval(t *testing.T) {
	a := New(64)
	_, err := a.Allocate(64)
	require.NoError(t, err)

	a.FreeAll()

	stats := a.Stats()
	require.Equal(t, uint64(0), stats.InUse)
	require.Equal(t, uint64(64), stats.LargestFree)
}

func TestAllocateFailsWhenExhausted(t *testing.T) {
	a := New(16)
	_, err := a.Allocate(16)
	require.NoError(t, err)

	_, err = a.Allocate(1)
	require.Error(t, err)
}

func TestReuseAfterFree(t *testing.T) {
	a := New(128)

	r1, err := a.Allocate(64)
	require.NoError(t, err)
	a.Deallocate(r1)

	r2, err := a.Allocate(64)
	require.NoError(t, err)
	require.Equal(t, r1.Offset, r2.Offset, "freed interval should be reused")
}
