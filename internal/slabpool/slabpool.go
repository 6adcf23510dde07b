// Package slabpool implements the per-thread cache of empty slabs that
// buckets push to and pull from, so that a thread's typical allocation
// bursts don't each pay for a fresh page-provider round trip.
package slabpool

import (
	"github.com/lightpaw/slabcore/internal/slab"
)

// Capacity is the maximum number of empty slabs a pool holds idle. Beyond
// this, a returned slab is handed straight back to the page provider.
const Capacity = 20

// Provider is the subset of the page provider contract the pool needs.
type Provider interface {
	Alloc(length int) ([]byte, error)
	Free(b []byte) error
}

// Pool is a per-thread cache of up to Capacity empty slabs. It is only ever
// touched by the thread allocator that owns it, so it needs no locking.
type Pool struct {
	pp    Provider
	slabs []*slab.Slab
}

// New constructs an empty pool backed by pp.
func New(pp Provider) *Pool {
	return &Pool{pp: pp}
}

// Seed adds a freshly page-provider-backed, unbound slab directly to the
// pool, for InitWith's initialSlabs pre-seeding.
func (p *Pool) Seed(s *slab.Slab) {
	p.slabs = append(p.slabs, s)
}

// Take returns a slab bound to chunkSize, preferring a pooled slab over a
// fresh page-provider allocation.
func (p *Pool) Take(chunkSize int) (*slab.Slab, error) {
	if n := len(p.slabs); n > 0 {
		s := p.slabs[n-1]
		p.slabs = p.slabs[:n-1]
		s.Bind(chunkSize)
		return s, nil
	}
	data, err := p.pp.Alloc(slab.DataSize)
	if err != nil {
		return nil, err
	}
	s := slab.New(data)
	s.Bind(chunkSize)
	return s, nil
}

// Return accepts a slab that a bucket has drained to Empty. If the pool is
// already at Capacity, the slab is released to the page provider instead of
// being held idle.
func (p *Pool) Return(s *slab.Slab) {
	if len(p.slabs) >= Capacity {
		p.pp.Free(s.RawData())
		return
	}
	p.slabs = append(p.slabs, s)
}

// Len reports the number of pooled slabs, for tests.
func (p *Pool) Len() int { return len(p.slabs) }

// Drain releases every pooled slab to the page provider and empties the
// pool. Used at thread-allocator teardown.
func (p *Pool) Drain() error {
	for _, s := range p.slabs {
		if err := p.pp.Free(s.RawData()); err != nil {
			return err
		}
	}
	p.slabs = nil
	return nil
}
