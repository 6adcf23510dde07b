package threadalloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightpaw/slabcore/pageprovider"
	"github.com/lightpaw/slabcore/sizeclass"
)

func newTestAllocator(t *testing.T) *Allocator {
	t.Helper()
	pp := pageprovider.NewArena(8 << 20)
	a, err := New(pp, 0)
	require.NoError(t, err)
	t.Cleanup(func() { a.Deinit() })
	return a
}

// S1 — bucket fill and drain: 50 ranges of length 2000 allocated in order,
// freed in allocation order; after the last free no slab is attached.
func TestS1BucketFillAndDrain(t *testing.T) {
	a := newTestAllocator(t)
	const n = 50
	ranges := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		b, err := a.Alloc(2000)
		require.NoError(t, err)
		ranges = append(ranges, b)
	}
	for _, b := range ranges {
		require.NoError(t, a.Free(b))
	}
	idx, _ := sizeclass.Index(2000)
	assert.Equal(t, sizeclass.LargestAlloc, sizeclass.Size(idx))
	assert.Equal(t, 0, a.buckets[idx].SlabCount())
}

// S3 — small-to-large resize copies content.
func TestS3SmallToLargeResizeCopiesContent(t *testing.T) {
	a := newTestAllocator(t)

	first, err := a.Alloc(1000)
	require.NoError(t, err)
	for i := range first {
		first[i] = 0x01
	}

	second, err := a.Alloc(1000)
	require.NoError(t, err)
	for i := range second {
		second[i] = 0x02
	}

	grown, err := a.Resize(first, 10000)
	require.NoError(t, err)
	require.Len(t, grown, 10000)
	for i := 0; i < 1000; i++ {
		assert.Equal(t, byte(0x01), grown[i])
	}
	for i := range second {
		assert.Equal(t, byte(0x02), second[i])
	}
}

// S5 — same-slot resize preserves the pointer within a size class.
func TestS5SameSlotResizePreservesPointer(t *testing.T) {
	a := newTestAllocator(t)

	b, err := a.Alloc(1)
	require.NoError(t, err)
	b[0] = 0x12

	b2, err := a.Resize(b, 2)
	require.NoError(t, err)
	assert.Same(t, &b[0], &b2[0])
	b2[1] = 0x34

	b3, err := a.Resize(b2, 17)
	require.NoError(t, err)
	require.Len(t, b3, 17)
	assert.Equal(t, byte(0x12), b3[0])
	assert.Equal(t, byte(0x34), b3[1])
}

// S6 — shrink within regime never moves data.
func TestS6ShrinkWithinRegime(t *testing.T) {
	a := newTestAllocator(t)

	b, err := a.Alloc(20)
	require.NoError(t, err)
	for i := range b {
		b[i] = 0x11
	}

	b, err = a.Resize(b, 17)
	require.NoError(t, err)
	require.Len(t, b, 17)
	for _, v := range b {
		assert.Equal(t, byte(0x11), v)
	}

	b, err = a.Resize(b, 16)
	require.NoError(t, err)
	require.Len(t, b, 16)
	for _, v := range b {
		assert.Equal(t, byte(0x11), v)
	}
}

// S2 — a large-to-small resize crosses the regime boundary; the core
// reports the synthetic boundary length rather than settling immediately.
func TestS2LargeToSmallResizeCrossesRegime(t *testing.T) {
	a := newTestAllocator(t)

	b, err := a.Alloc(10000)
	require.NoError(t, err)

	shrunk, err := a.Resize(b, 1000)
	require.NoError(t, err)
	assert.Len(t, shrunk, sizeclass.LargestAlloc+1)

	require.NoError(t, a.Free(shrunk))
}

func TestAllocZeroReturnsCanonicalEmptyRange(t *testing.T) {
	a := newTestAllocator(t)
	b, err := a.Alloc(0)
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestAllocAboveLargestBypassesBuckets(t *testing.T) {
	a := newTestAllocator(t)
	b, err := a.Alloc(10000)
	require.NoError(t, err)
	require.Len(t, b, 10000)
	for _, bucket := range a.buckets {
		assert.Equal(t, 0, bucket.SlabCount())
	}
	require.NoError(t, a.Free(b))
}

func TestZeroingInvariantAcrossAllocFreeCycles(t *testing.T) {
	a := newTestAllocator(t)
	for i := 0; i < 8; i++ {
		b, err := a.Alloc(100)
		require.NoError(t, err)
		for j := range b {
			assert.Equal(t, byte(0), b[j], "chunk must come back zeroed")
			b[j] = 0xFF
		}
		require.NoError(t, a.Free(b))
	}
}
