//go:build linux || darwin

package pageprovider

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// pageSize is the OS page size, queried once at package init.
var pageSize = unix.Getpagesize()

// System is the production default Provider: raw anonymous mappings
// obtained directly from the kernel via mmap/munmap, bypassing the Go heap
// and its garbage collector entirely for slab-sized and larger requests.
type System struct{}

// DefaultSystem returns the platform's production Provider.
func DefaultSystem() Provider { return System{} }

func pageAlign(n int) int {
	if rem := n % pageSize; rem != 0 {
		n += pageSize - rem
	}
	return n
}

func (System) Alloc(length int) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("pageprovider: invalid length %d", length)
	}
	b, err := unix.Mmap(-1, 0, pageAlign(length), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("pageprovider: mmap: %w: %w", err, ErrOutOfMemory)
	}
	return b[:length], nil
}

func (System) Free(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := unix.Munmap(b[:cap(b)]); err != nil {
		return fmt.Errorf("pageprovider: munmap: %w", err)
	}
	return nil
}

// Resize always relocates: mmap'd regions are not guaranteed contiguous
// with their neighbors, so an in-place grow can't be proven safe without
// tracking reservation sizes the core never asks for. This matches the
// contract's "otherwise equivalent to alloc-copy-free" fallback.
func (s System) Resize(b []byte, newLength int) ([]byte, error) {
	nb, err := s.Alloc(newLength)
	if err != nil {
		return nil, err
	}
	copy(nb, b)
	if err := s.Free(b); err != nil {
		return nil, err
	}
	return nb, nil
}
