// Package threadalloc implements the per-thread allocator: the six size
// class buckets, the slab pool, alloc/free/resize entry points, and the
// bucket-selection and resize policy that sit above them.
package threadalloc

import (
	"fmt"

	"github.com/lightpaw/slabcore/internal/bucket"
	"github.com/lightpaw/slabcore/internal/lostfound"
	"github.com/lightpaw/slabcore/internal/slab"
	"github.com/lightpaw/slabcore/internal/slabpool"
	"github.com/lightpaw/slabcore/pageprovider"
	"github.com/lightpaw/slabcore/sizeclass"
)

// ErrOutOfMemory is returned when the page provider cannot satisfy a
// request for a fresh slab or an external-size chunk.
var ErrOutOfMemory = pageprovider.ErrOutOfMemory

// boundaryLength is the synthetic length reported by a resize that crosses
// from the external regime down into the size-class regime. The resized
// range stays with the page provider: being longer than
// sizeclass.LargestAlloc, a later Free hands it back to the page provider,
// and a later Resize is handled by the external cases, so it is never moved
// into a bucket. See DESIGN.md for why this is preserved rather than
// resolved away.
const boundaryLength = sizeclass.LargestAlloc + 1

var empty = []byte{}

// Allocator is one thread's private allocator instance: six buckets, a slab
// pool, and a back-reference to the page provider and the process-wide
// lost-and-found.
type Allocator struct {
	buckets [sizeclass.Count]*bucket.Bucket
	pool    *slabpool.Pool
	pp      pageprovider.Provider
	lf      *lostfound.Store
}

// New constructs a thread allocator backed by pp, pre-seeding initialSlabs
// empty slabs obtained directly from pp into the slab pool.
func New(pp pageprovider.Provider, initialSlabs int) (*Allocator, error) {
	lf := lostfound.Acquire()
	pool := slabpool.New(pp)

	a := &Allocator{pool: pool, pp: pp, lf: lf}
	for i, sz := range sizeclass.Sizes {
		a.buckets[i] = bucket.New(sz, i, pool, lf)
	}

	for i := 0; i < initialSlabs; i++ {
		data, err := pp.Alloc(slab.DataSize)
		if err != nil {
			lf.Release()
			return nil, fmt.Errorf("threadalloc: pre-seed slab %d: %w", i, err)
		}
		pool.Seed(slab.New(data))
	}

	return a, nil
}

// Deinit tears down every bucket (draining lost-and-found for its size
// class first), releases pooled slabs through the page provider, and
// decrements the process-wide lost-and-found reference count.
func (a *Allocator) Deinit() error {
	for _, b := range a.buckets {
		b.Teardown()
	}
	if err := a.pool.Drain(); err != nil {
		return fmt.Errorf("threadalloc: deinit: %w", err)
	}
	if err := a.lf.Release(); err != nil {
		return fmt.Errorf("threadalloc: deinit: %w", err)
	}
	return nil
}

// Alloc services a request of length bytes.
func (a *Allocator) Alloc(length int) ([]byte, error) {
	if length == 0 {
		return empty, nil
	}
	if length > sizeclass.LargestAlloc {
		b, err := a.pp.Alloc(length)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
		}
		return b, nil
	}
	idx, _ := sizeclass.Index(length)
	c, err := a.buckets[idx].NewChunk()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	return c[:length], nil
}

// Free releases b, previously returned by Alloc or Resize.
func (a *Allocator) Free(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if len(b) > sizeclass.LargestAlloc {
		return a.pp.Free(b)
	}
	idx, _ := sizeclass.Index(len(b))
	// A miss is not an error here: the bucket has already deposited the
	// chunk in lost-and-found for its owning thread to reclaim.
	a.buckets[idx].FreeChunk(b, false)
	return nil
}

// Resize implements the case table of spec.md §4.3, keyed on whether old
// and new lengths fall inside or outside the size-class window.
func (a *Allocator) Resize(old []byte, newLen int) ([]byte, error) {
	oldLen := len(old)

	switch {
	case oldLen == 0 && newLen == 0:
		return empty, nil

	case oldLen == 0 && newLen <= sizeclass.LargestAlloc:
		return a.Alloc(newLen)

	case oldLen == 0:
		b, err := a.pp.Alloc(newLen)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
		}
		return b, nil

	case oldLen <= sizeclass.LargestAlloc && newLen == 0:
		if err := a.Free(old); err != nil {
			return nil, err
		}
		return empty, nil

	case oldLen <= sizeclass.LargestAlloc && newLen <= sizeclass.LargestAlloc:
		return a.resizeWithinClasses(old, newLen)

	case oldLen <= sizeclass.LargestAlloc:
		nb, err := a.pp.Alloc(newLen)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
		}
		copy(nb, old)
		if err := a.Free(old); err != nil {
			return nil, err
		}
		return nb, nil

	case newLen > sizeclass.LargestAlloc:
		b, err := a.pp.Resize(old, newLen)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
		}
		return b, nil

	case newLen > 0:
		// Crossing down from the external regime into the size-class
		// window: keep the range with the page provider, see boundaryLength.
		b, err := a.pp.Resize(old, boundaryLength)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
		}
		return b, nil

	default: // newLen == 0, oldLen > largest
		if err := a.pp.Free(old); err != nil {
			return nil, err
		}
		return empty, nil
	}
}

func (a *Allocator) resizeWithinClasses(old []byte, newLen int) ([]byte, error) {
	oldIdx, _ := sizeclass.Index(len(old))
	newIdx, _ := sizeclass.Index(newLen)

	if oldIdx == newIdx {
		// Same bucket: no data movement, the pointer is preserved.
		return old[:newLen], nil
	}

	nb, err := a.Alloc(newLen)
	if err != nil {
		return nil, err
	}
	n := len(old)
	if newLen < n {
		n = newLen
	}
	copy(nb, old[:n])
	if err := a.Free(old); err != nil {
		return nil, err
	}
	return nb, nil
}
