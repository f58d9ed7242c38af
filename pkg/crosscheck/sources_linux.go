//go:build linux

package crosscheck

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/danpilch/perfmon/pkg/reading"
)

func platformProbes() []Probe {
	return []Probe{
		{Metric: reading.RowTotalMemory, Name: "sysinfo", Unit: "bytes", Read: sysinfoTotal},
	}
}

func sysinfoTotal() (float64, error) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, err
	}
	total := uint64(info.Totalram) * uint64(info.Unit)
	if total == 0 {
		return 0, fmt.Errorf("total RAM is 0")
	}
	return float64(total), nil
}
