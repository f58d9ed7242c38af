package host

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/danpilch/perfmon/pkg/procfs"
)

// RAMFunc returns total and free physical memory in bytes.
type RAMFunc func() (total, free uint64, err error)

// ProcManager answers memory queries from a proc tree, with totals from the
// sysinfo syscall where the platform has it.
type ProcManager struct {
	fs  procfs.FS
	ram RAMFunc
}

// NewProcManager returns a manager reading from fsys.
func NewProcManager(fsys procfs.FS) *ProcManager {
	return &ProcManager{
		fs:  fsys,
		ram: sysinfoRAM,
	}
}

// WithRAM replaces the sysinfo source. Used to run against recorded trees.
func (m *ProcManager) WithRAM(fn RAMFunc) *ProcManager {
	m.ram = fn
	return m
}

// MemoryInfo returns total RAM from sysinfo and available RAM from
// MemAvailable, falling back to meminfo when sysinfo is unsupported.
func (m *ProcManager) MemoryInfo() (SystemMemory, error) {
	info, infoErr := m.fs.MemInfo()

	total, free, err := m.ram()
	if err != nil {
		if !errors.Is(err, ErrUnsupported) {
			return SystemMemory{}, fmt.Errorf("sysinfo: %w", err)
		}
		if infoErr != nil {
			return SystemMemory{}, fmt.Errorf("meminfo: %w", infoErr)
		}
		total = info.Total * 1024
		free = info.Free * 1024
	}

	mem := SystemMemory{TotalMem: total, AvailMem: free}
	if infoErr == nil {
		mem.AvailMem = info.Available * 1024
	}
	return mem, nil
}

// ProcessMemoryInfo reads the PSS of each pid.
func (m *ProcManager) ProcessMemoryInfo(pids []int) ([]ProcessMemory, error) {
	out := make([]ProcessMemory, 0, len(pids))
	for _, pid := range pids {
		pss, err := m.fs.ProcessPSS(pid)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("pid %d: %w", pid, err)
		}
		out = append(out, ProcessMemory{PID: pid, TotalPSS: pss})
	}
	return out, nil
}
