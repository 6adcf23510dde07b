// Package sizeclass holds the fixed, compile-time ordered list of chunk
// sizes the allocator buckets are keyed on.
package sizeclass

// Sizes is the ordered list of chunk sizes the core buckets on. It is fixed
// at compile time: nothing ever appends to or reorders it.
var Sizes = [...]int{64, 128, 256, 512, 1024, 2048}

// Count is the number of size classes.
const Count = 6

// LargestAlloc is the largest request the core services itself; anything
// bigger is forwarded verbatim to the page provider.
const LargestAlloc = 2048

// Index returns the index into Sizes of the smallest class able to hold
// length bytes, and false if length exceeds LargestAlloc.
func Index(length int) (int, bool) {
	for i, s := range Sizes {
		if length <= s {
			return i, true
		}
	}
	return -1, false
}

// Size returns the chunk size for a given class index.
func Size(idx int) int {
	return Sizes[idx]
}
