// Package host provides the OS capabilities the sampler reads from.
//
// The interfaces are deliberately narrow so the sampler can be exercised
// without a live OS. ProcManager reads the proc filesystem and the sysinfo
// syscall, GopsutilManager goes through gopsutil on any platform, and
// RuntimeHeap reports the Go runtime's heap.
package host

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/danpilch/perfmon/pkg/procfs"
)

//go:generate mockgen -destination=mock_host/mock_host.go -package=mock_host . MemoryManager,HeapReporter

// ErrUnsupported is returned when a capability does not exist on the platform.
var ErrUnsupported = errors.New("not supported on this platform")

// Backend names accepted by NewMemoryManager.
const (
	BackendAuto     = "auto"
	BackendProcfs   = "procfs"
	BackendGopsutil = "gopsutil"
	BackendNone     = "none"
)

// SystemMemory mirrors the OS memory-info structure. Values are bytes.
type SystemMemory struct {
	TotalMem uint64
	AvailMem uint64
}

// ProcessMemory is the memory record of one process. TotalPSS is in KiB.
type ProcessMemory struct {
	PID      int
	TotalPSS uint64
}

// MemoryManager answers system and per-process memory queries.
type MemoryManager interface {
	// MemoryInfo returns system memory totals.
	MemoryInfo() (SystemMemory, error)

	// ProcessMemoryInfo returns one record per live pid; pids that no longer
	// exist are left out, so the result may be empty.
	ProcessMemoryInfo(pids []int) ([]ProcessMemory, error)
}

// HeapReporter reports the size of the native allocator's heap in bytes.
type HeapReporter interface {
	NativeHeapSize() (uint64, error)
}

// NewMemoryManager builds the manager for backend. BackendNone returns a nil
// manager, which callers treat as "not attached".
func NewMemoryManager(backend, procRoot string) (MemoryManager, error) {
	switch backend {
	case BackendNone:
		return nil, nil
	case BackendProcfs:
		return NewProcManager(procfs.NewFS(procRoot)), nil
	case BackendGopsutil:
		return NewGopsutilManager(), nil
	case BackendAuto, "":
		if runtime.GOOS == "linux" || runtime.GOOS == "android" {
			return NewProcManager(procfs.NewFS(procRoot)), nil
		}
		return NewGopsutilManager(), nil
	default:
		return nil, fmt.Errorf("unknown host backend %q", backend)
	}
}
