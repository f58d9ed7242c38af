package host

import (
	"errors"
	"fmt"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// GopsutilManager answers memory queries through gopsutil. Where the platform
// has no PSS accounting, RSS stands in for it.
type GopsutilManager struct{}

// NewGopsutilManager returns a gopsutil-backed manager.
func NewGopsutilManager() *GopsutilManager {
	return &GopsutilManager{}
}

// MemoryInfo returns total and available RAM.
func (m *GopsutilManager) MemoryInfo() (SystemMemory, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return SystemMemory{}, fmt.Errorf("virtual memory: %w", err)
	}
	return SystemMemory{TotalMem: vm.Total, AvailMem: vm.Available}, nil
}

// ProcessMemoryInfo returns the PSS (or RSS) of each live pid in KiB.
func (m *GopsutilManager) ProcessMemoryInfo(pids []int) ([]ProcessMemory, error) {
	out := make([]ProcessMemory, 0, len(pids))
	for _, pid := range pids {
		p, err := process.NewProcess(int32(pid))
		if errors.Is(err, process.ErrorProcessNotRunning) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("pid %d: %w", pid, err)
		}

		kb, err := processPSS(p)
		if err != nil {
			return nil, fmt.Errorf("pid %d: %w", pid, err)
		}
		out = append(out, ProcessMemory{PID: pid, TotalPSS: kb})
	}
	return out, nil
}

func processPSS(p *process.Process) (uint64, error) {
	if maps, err := p.MemoryMaps(true); err == nil && maps != nil && len(*maps) > 0 {
		return (*maps)[0].Pss, nil
	}
	info, err := p.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return info.RSS / 1024, nil
}
