package slabpool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lightpaw/slabcore/internal/slab"
)

type fakeProvider struct {
	allocs int
	frees  int
}

func (p *fakeProvider) Alloc(length int) ([]byte, error) {
	p.allocs++
	return make([]byte, length), nil
}

func (p *fakeProvider) Free(b []byte) error {
	p.frees++
	return nil
}

func TestTakeAllocatesFreshWhenEmpty(t *testing.T) {
	pp := &fakeProvider{}
	p := New(pp)

	s, err := p.Take(64)
	require.NoError(t, err)
	assert.Equal(t, 1, pp.allocs)
	assert.Equal(t, 64, s.ChunkSize())
}

func TestReturnThenTakeReusesSlab(t *testing.T) {
	pp := &fakeProvider{}
	p := New(pp)

	s, err := p.Take(64)
	require.NoError(t, err)
	p.Return(s)
	assert.Equal(t, 1, p.Len())

	s2, err := p.Take(128)
	require.NoError(t, err)
	assert.Equal(t, 1, pp.allocs, "a pooled slab must be rebound, not reallocated")
	assert.Equal(t, 128, s2.ChunkSize())
	assert.Equal(t, 0, p.Len())
}

func TestReturnOverflowReleasesToProvider(t *testing.T) {
	pp := &fakeProvider{}
	p := New(pp)

	for i := 0; i < Capacity; i++ {
		p.Return(slab.New(make([]byte, slab.DataSize)))
	}
	assert.Equal(t, Capacity, p.Len())
	assert.Equal(t, 0, pp.frees)

	p.Return(slab.New(make([]byte, slab.DataSize)))
	assert.Equal(t, Capacity, p.Len(), "capacity is never exceeded")
	assert.Equal(t, 1, pp.frees, "the overflow slab is released to the provider")
}

func TestDrainReleasesEverything(t *testing.T) {
	pp := &fakeProvider{}
	p := New(pp)
	for i := 0; i < 5; i++ {
		p.Return(slab.New(make([]byte, slab.DataSize)))
	}

	require.NoError(t, p.Drain())
	assert.Equal(t, 0, p.Len())
	assert.Equal(t, 5, pp.frees)
}
