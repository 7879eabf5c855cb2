package crumbz

import (
	"io"
	"reflect"
	"sync"
)

const sinkStripeBits = 6

// sinkLocks is a fixed table of render locks. A writer maps to one stripe by
// the address it refers to, so concurrent renders to the same writer never
// interleave and the table never grows. Unrelated writers may share a stripe.
var sinkLocks [1 << sinkStripeBits]sync.Mutex

// fallbackSinkLock guards writers that carry no address of their own.
var fallbackSinkLock sync.Mutex

// lockSink acquires the mutex for w and returns its release.
func lockSink(w io.Writer) func() {
	mu := sinkMutex(w)
	mu.Lock()
	return mu.Unlock
}

func sinkMutex(w io.Writer) *sync.Mutex {
	if w == nil {
		return &fallbackSinkLock
	}
	v := reflect.ValueOf(w)
	switch v.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.Map, reflect.UnsafePointer:
		return &sinkLocks[sinkStripe(v.Pointer())]
	default:
		return &fallbackSinkLock
	}
}

// sinkStripe spreads addresses over the table with Fibonacci hashing.
func sinkStripe(addr uintptr) uint64 {
	return (uint64(addr) * 0x9E3779B97F4A7C15) >> (64 - sinkStripeBits)
}
