package host

import "runtime"

// RuntimeHeap reports the heap the Go runtime has obtained from the OS.
type RuntimeHeap struct{}

// NativeHeapSize returns HeapSys in bytes.
func (RuntimeHeap) NativeHeapSize() (uint64, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapSys, nil
}

// HeapFunc adapts a function to HeapReporter.
type HeapFunc func() (uint64, error)

// NativeHeapSize calls f.
func (f HeapFunc) NativeHeapSize() (uint64, error) {
	return f()
}
