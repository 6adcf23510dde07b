// Package lostfound implements the process-wide, per-size-class hand-off
// lists used to reclaim chunks that are freed on a thread other than the
// one that allocated them.
package lostfound

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/lightpaw/slabcore/sizeclass"
)

// ErrNotEmptyOnTeardown is a UsageError-class invariant violation: the last
// thread allocator tore down while a list still held an unreclaimed chunk.
var ErrNotEmptyOnTeardown = errors.New("lostfound: list non-empty at teardown")

// spinlock is a one-byte-semantics spin lock, held as 0 and available as 1,
// manipulated with atomic exchanges.
type spinlock struct {
	state atomic.Uint32
}

func newSpinlock() *spinlock {
	l := &spinlock{}
	l.state.Store(1)
	return l
}

// TryLock is a single, non-blocking exchange; it succeeds iff it observes
// the lock available.
func (l *spinlock) TryLock() bool {
	return l.state.Swap(0) == 1
}

// Lock spins until the exchange observes the lock available.
func (l *spinlock) Lock() {
	for !l.TryLock() {
		runtime.Gosched()
	}
}

// Unlock releases the lock with an atomic store.
func (l *spinlock) Unlock() {
	l.state.Store(1)
}

type list struct {
	lock   *spinlock
	chunks [][]byte
}

// Store is the process-wide lost-and-found: six lock-protected lists, one
// per size class, plus a reference count of live thread allocators.
type Store struct {
	lists    [sizeclass.Count]list
	refCount atomic.Int64
}

var (
	globalMu sync.Mutex
	global   *Store
)

// Acquire returns the process-wide Store, creating it on the first call and
// bumping its reference count on every call (including the first).
func Acquire() *Store {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		s := &Store{}
		for i := range s.lists {
			s.lists[i].lock = newSpinlock()
		}
		global = s
	}
	global.refCount.Add(1)
	return global
}

// Release decrements the reference count, tearing the Store down when it
// reaches zero. Teardown asserts every list is empty; a non-empty list at
// that point means some thread leaked a cross-thread free that was never
// reclaimed, which is a usage error in the owning thread's bookkeeping, not
// in this Store.
func (s *Store) Release() error {
	globalMu.Lock()
	defer globalMu.Unlock()
	if s.refCount.Add(-1) != 0 {
		return nil
	}
	for i := range s.lists {
		s.lists[i].lock.Lock()
		empty := len(s.lists[i].chunks) == 0
		s.lists[i].lock.Unlock()
		if !empty {
			global = nil
			return ErrNotEmptyOnTeardown
		}
	}
	global = nil
	return nil
}

// Deposit appends a foreign chunk to the list for classIdx. Blocks until the
// spin lock is acquired.
func (s *Store) Deposit(classIdx int, chunk []byte) {
	l := &s.lists[classIdx]
	l.lock.Lock()
	l.chunks = append(l.chunks, chunk)
	l.lock.Unlock()
}

// match is called once per listed chunk; it should attempt to reclaim the
// chunk into the caller's own slabs and report whether it succeeded.
type match func(chunk []byte) bool

// TryDrain makes a single, non-blocking attempt to acquire classIdx's lock
// and remove every chunk that match claims. Reports whether the lock was
// acquired at all; a false result means the caller should proceed without
// draining.
func (s *Store) TryDrain(classIdx int, claim match) bool {
	l := &s.lists[classIdx]
	if !l.lock.TryLock() {
		return false
	}
	drain(l, claim)
	l.lock.Unlock()
	return true
}

// BlockingDrain spins to acquire classIdx's lock, then removes every chunk
// that claim claims. Used only at thread-allocator teardown, so that no
// listed chunk still references memory about to be released.
func (s *Store) BlockingDrain(classIdx int, claim match) {
	l := &s.lists[classIdx]
	l.lock.Lock()
	drain(l, claim)
	l.lock.Unlock()
}

func drain(l *list, claim match) {
	if len(l.chunks) == 0 {
		return
	}
	kept := l.chunks[:0]
	for _, c := range l.chunks {
		if !claim(c) {
			kept = append(kept, c)
		}
	}
	l.chunks = kept
}
