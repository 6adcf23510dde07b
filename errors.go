package slabcore

import "github.com/lightpaw/slabcore/pageprovider"

// ErrOutOfMemory is returned when the page provider cannot satisfy a
// request for a fresh slab or an external-size chunk. Resize relocates
// whenever it cannot keep a range in place, so it fails only when the page
// provider does, and that failure is also surfaced as ErrOutOfMemory; see
// Resize.
var ErrOutOfMemory = pageprovider.ErrOutOfMemory
