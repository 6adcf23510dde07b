// Package goroutineid gives the thread allocator registry something to key
// on. Go gives user code no OS-thread-local storage, so a "one allocator
// instance per thread" design is approximated here by keying on the calling
// goroutine's ID instead: callers that want a literal one-goroutine-per-OS-
// thread mapping should pin with runtime.LockOSThread for as long as they
// hold a Handle.
package goroutineid

import (
	"bytes"
	"runtime"
	"strconv"
)

// Current parses the current goroutine's ID out of a runtime.Stack dump.
// The "goroutine N [state]:" header is the only part of the format this
// relies on; it has been stable across Go releases for long enough to rely
// on here.
func Current() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	const prefix = "goroutine "
	b = bytes.TrimPrefix(b, []byte(prefix))
	sp := bytes.IndexByte(b, ' ')
	if sp < 0 {
		panic("goroutineid: unexpected runtime.Stack format")
	}
	id, err := strconv.ParseInt(string(b[:sp]), 10, 64)
	if err != nil {
		panic("goroutineid: unexpected runtime.Stack format: " + err.Error())
	}
	return id
}
