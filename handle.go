package slabcore

import (
	"fmt"
	"sync"

	"github.com/lightpaw/slabcore/internal/goroutineid"
	"github.com/lightpaw/slabcore/internal/threadalloc"
	"github.com/lightpaw/slabcore/pageprovider"
	"github.com/lightpaw/slabcore/sizeclass"
)

// LargestAlloc is the largest request the core services itself; longer
// requests are forwarded verbatim to the page provider.
const LargestAlloc = sizeclass.LargestAlloc

// PageProvider is the contract the core needs from a lower-level block
// allocator: see the pageprovider package for the production default and a
// deterministic test double.
type PageProvider = pageprovider.Provider

// Handle is a thread allocator's handle, obtained by Init or InitWith and
// bound to the goroutine that created it. Passing a Handle to another
// goroutine and calling any method on it there is a usage error and panics,
// matching the core's "not thread-safe as an instance" contract; use Free
// from the other goroutine instead, which is always safe.
type Handle struct {
	a   *threadalloc.Allocator
	gid int64
}

var registry sync.Map // goroutineid.Current() -> *Handle

// Init attaches to (or creates) the calling goroutine's allocator instance,
// using the default system page provider and no pre-seeded slabs.
func Init() (*Handle, error) {
	return InitWith(pageprovider.DefaultSystem(), 0)
}

// InitWith attaches to (or creates) the calling goroutine's allocator
// instance, using pp as the page provider. initialSlabs empty slabs are
// pre-seeded via pp on first construction; the parameter is ignored on a
// call that merely returns an already-constructed instance.
//
// The first call to InitWith on any goroutine in the process also
// initializes the process-wide lost-and-found structure. Its lists grow as
// ordinary Go slices; pp is not used for them.
func InitWith(pp PageProvider, initialSlabs int) (*Handle, error) {
	gid := goroutineid.Current()
	if v, ok := registry.Load(gid); ok {
		return v.(*Handle), nil
	}

	a, err := threadalloc.New(pp, initialSlabs)
	if err != nil {
		return nil, fmt.Errorf("slabcore: init: %w", err)
	}
	h := &Handle{a: a, gid: gid}
	registry.Store(gid, h)
	logger().Debugf("slabcore: goroutine %d attached, %d pre-seeded slabs", gid, initialSlabs)
	return h, nil
}

// Deinit releases the calling goroutine's allocator instance. It must be
// called from the same goroutine that created it.
func (h *Handle) Deinit() error {
	h.checkOwner()
	registry.Delete(h.gid)
	if err := h.a.Deinit(); err != nil {
		return fmt.Errorf("slabcore: deinit: %w", err)
	}
	logger().Debugf("slabcore: goroutine %d detached", h.gid)
	return nil
}

// Alloc returns a byte range of at least length bytes. Alignment matches
// the chunk size class's natural (power-of-two) alignment for requests up
// to LargestAlloc; larger requests get whatever alignment the page
// provider guarantees.
func (h *Handle) Alloc(length int) ([]byte, error) {
	h.checkOwner()
	return h.a.Alloc(length)
}

// Free releases b. b need not have been returned by this Handle: every
// Handle's Free first tries to match b against its own slabs, and on a
// miss hands b off to the process-wide lost-and-found for its owning
// thread to reclaim later. This is the mechanism a goroutine uses to
// safely free a chunk it received from another goroutine — by freeing it
// through its own Handle, never by reaching into someone else's.
func (h *Handle) Free(b []byte) error {
	h.checkOwner()
	return h.a.Free(b)
}

// Resize grows or shrinks old to newLength. Within one size class the same
// chunk is returned at the new length; across size classes, or from the
// size-class window up past LargestAlloc, the data is relocated and
// min(len(old), newLength) bytes are copied. Ranges above LargestAlloc are
// resized by the page provider; shrinking one into the size-class window
// yields a page-provider range of LargestAlloc+1 bytes. A newLength of 0
// frees old. It must be called from the same goroutine that owns this
// Handle.
func (h *Handle) Resize(old []byte, newLength int) ([]byte, error) {
	h.checkOwner()
	return h.a.Resize(old, newLength)
}

func (h *Handle) checkOwner() {
	if cur := goroutineid.Current(); cur != h.gid {
		panic("slabcore: usage error: handle used from a goroutine other than its owner")
	}
}
