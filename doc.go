// Package slabcore is a general-purpose slab allocator optimized for fast
// allocation and release of small objects in multi-threaded programs.
//
// Each goroutine that calls Init or InitWith obtains its own private
// allocator instance, keyed by goroutine ID (see internal/goroutineid);
// cross-goroutine frees are handled by a process-wide hand-off so that a
// goroutine never has to synchronize with another on its own allocation
// hot path. Callers that want a literal one-goroutine-per-OS-thread
// mapping should pin with runtime.LockOSThread for the lifetime of their
// Handle.
//
// Requests from 1 to LargestAlloc bytes are served out of one of six fixed
// size-class buckets (64, 128, 256, 512, 1024, 2048); larger requests are
// forwarded verbatim to the configured page provider.
package slabcore
