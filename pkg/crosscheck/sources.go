package crosscheck

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/danpilch/perfmon/pkg/reading"
)

// MetricProcessRSS is the resident set of the sampled process. It is not
// cross-checked; sanity checks use it as an upper bound for PSS.
const MetricProcessRSS = "memory.process_rss"

// Probe reads one metric from a source independent of the sampler.
type Probe struct {
	Metric string
	Name   string
	Unit   string
	Read   func() (float64, error)
}

// Gather runs every probe and groups the answers by metric. Failing probes
// are left out.
func Gather(probes []Probe) map[string][]Source {
	out := make(map[string][]Source)
	for _, p := range probes {
		v, err := p.Read()
		if err != nil {
			continue
		}
		out[p.Metric] = append(out[p.Metric], Source{Name: p.Name, Value: v, Unit: p.Unit})
	}
	return out
}

// DefaultProbes returns the gopsutil probes plus whatever the platform adds.
func DefaultProbes(pid int) []Probe {
	probes := []Probe{
		{Metric: reading.RowTotalMemory, Name: "gopsutil", Unit: "bytes", Read: gopsutilTotal},
		{Metric: reading.RowMemoryUsed, Name: "gopsutil", Unit: "%", Read: gopsutilUsedPercent},
		{Metric: reading.RowCPUUsage, Name: "gopsutil", Unit: "%", Read: gopsutilCPUSinceBoot},
		{Metric: MetricProcessRSS, Name: "gopsutil", Unit: "bytes", Read: func() (float64, error) {
			return gopsutilRSS(pid)
		}},
	}
	return append(probes, platformProbes()...)
}

func gopsutilTotal() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return float64(vm.Total), nil
}

func gopsutilUsedPercent() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	if vm.Total == 0 {
		return 0, fmt.Errorf("total memory is 0")
	}
	used := vm.Total - min(vm.Available, vm.Total)
	return float64(used) / float64(vm.Total) * 100, nil
}

// gopsutilCPUSinceBoot computes the same busy share as the sampler's
// cumulative mode from gopsutil's aggregate times.
func gopsutilCPUSinceBoot() (float64, error) {
	times, err := cpu.Times(false)
	if err != nil {
		return 0, err
	}
	if len(times) == 0 {
		return 0, fmt.Errorf("no cpu times")
	}
	t := times[0]
	total := t.User + t.Nice + t.System + t.Idle + t.Iowait + t.Irq + t.Softirq
	if total == 0 {
		return 0, nil
	}
	return (total - t.Idle) / total * 100, nil
}

func gopsutilRSS(pid int) (float64, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return 0, err
	}
	info, err := p.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return float64(info.RSS), nil
}
