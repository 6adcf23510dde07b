// Package bucket implements the per-size-class collection of slabs that
// satisfies allocations and frees for one chunk size within a thread
// allocator.
package bucket

import (
	"github.com/lightpaw/slabcore/internal/lostfound"
	"github.com/lightpaw/slabcore/internal/slab"
)

// SlabSource supplies fresh or pooled slabs bound to a chunk size, and
// reclaims slabs a bucket has drained to Empty. It is implemented by the
// thread allocator's slab pool.
type SlabSource interface {
	Take(chunkSize int) (*slab.Slab, error)
	Return(s *slab.Slab)
}

// Bucket owns an ordered collection of slabs for one size class.
type Bucket struct {
	chunkSize int
	classIdx  int
	slabs     []*slab.Slab
	pool      SlabSource
	lf        *lostfound.Store
}

// New constructs a bucket for chunkSize, backed by pool for fresh slabs and
// lf for cross-thread hand-off of that size class's chunks.
func New(chunkSize, classIdx int, pool SlabSource, lf *lostfound.Store) *Bucket {
	return &Bucket{chunkSize: chunkSize, classIdx: classIdx, pool: pool, lf: lf}
}

// ChunkSize returns the bucket's immutable size class.
func (b *Bucket) ChunkSize() int { return b.chunkSize }

// SlabCount reports the number of slabs currently attached, for tests.
func (b *Bucket) SlabCount() int { return len(b.slabs) }

// NewChunk walks attached slabs in insertion order and returns the first
// chunk yielded. If none has room, a slab is pulled from the pool, bound to
// this bucket's chunk size, attached, and allocated from.
func (b *Bucket) NewChunk() ([]byte, error) {
	for _, s := range b.slabs {
		if c, ok := s.NextChunk(); ok {
			return c, nil
		}
	}

	s, err := b.pool.Take(b.chunkSize)
	if err != nil {
		return nil, err
	}
	b.slabs = append(b.slabs, s)
	c, ok := s.NextChunk()
	if !ok {
		panic("bucket: freshly attached slab yielded no chunk")
	}
	return c, nil
}

// FreeChunk frees c. When remote is false the call originated on this
// thread: the bucket first opportunistically drains its slice of the
// lost-and-found list, then scans its own slabs, and on a miss deposits c
// into lost-and-found for its owning thread to reclaim later. When remote
// is true, c is being retried out of a drain already in progress; a miss
// leaves it in the list.
func (b *Bucket) FreeChunk(c []byte, remote bool) bool {
	if !remote {
		b.tryDrain()
	}

	if b.freeFromOwnSlabs(c) {
		return true
	}

	if !remote {
		b.lf.Deposit(b.classIdx, c)
	}
	return false
}

// Teardown performs a blocking drain of this bucket's lost-and-found list
// (so no listed chunk still references memory about to be released), then
// returns every attached slab to the pool.
func (b *Bucket) Teardown() {
	b.lf.BlockingDrain(b.classIdx, b.freeFromOwnSlabs)
	for _, s := range b.slabs {
		b.pool.Return(s)
	}
	b.slabs = nil
}

func (b *Bucket) tryDrain() {
	b.lf.TryDrain(b.classIdx, b.freeFromOwnSlabs)
}

// freeFromOwnSlabs scans attached slabs in order; the first whose FreeChunk
// claims c wins. A slab that drains to Empty is detached and pooled.
func (b *Bucket) freeFromOwnSlabs(c []byte) bool {
	for i, s := range b.slabs {
		if s.FreeChunk(c) {
			if s.State() == slab.Empty {
				b.slabs = append(b.slabs[:i], b.slabs[i+1:]...)
				b.pool.Return(s)
			}
			return true
		}
	}
	return false
}
