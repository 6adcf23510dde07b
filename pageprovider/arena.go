package pageprovider

import "fmt"

// Arena is a deterministic, non-OS-backed Provider for tests: a single
// preallocated buffer carved by bump allocation, with a per-length free
// list for reuse. It exists so the allocator's scenario tests (fill-and-
// drain, cross-thread hand-off, regime-crossing resize) don't depend on
// real mmap behavior or GC-driven heap placement.
type Arena struct {
	buf  []byte
	off  int
	free map[int][][]byte
}

// NewArena preallocates a size-byte backing buffer.
func NewArena(size int) *Arena {
	return &Arena{buf: make([]byte, size), free: make(map[int][][]byte)}
}

func (a *Arena) Alloc(length int) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("pageprovider: arena: invalid length %d", length)
	}
	if stack := a.free[length]; len(stack) > 0 {
		b := stack[len(stack)-1]
		a.free[length] = stack[:len(stack)-1]
		for i := range b {
			b[i] = 0
		}
		return b, nil
	}
	if a.off+length > len(a.buf) {
		return nil, fmt.Errorf("pageprovider: arena exhausted: %w", ErrOutOfMemory)
	}
	b := a.buf[a.off : a.off+length : a.off+length]
	a.off += length
	return b, nil
}

func (a *Arena) Free(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	n := len(b)
	a.free[n] = append(a.free[n], b)
	return nil
}

func (a *Arena) Resize(b []byte, newLength int) ([]byte, error) {
	nb, err := a.Alloc(newLength)
	if err != nil {
		return nil, err
	}
	copy(nb, b)
	if err := a.Free(b); err != nil {
		return nil, err
	}
	return nb, nil
}
