package procfs

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// cpuCounters is the number of tick counters read from a cpu line.
const cpuCounters = 7

// CPUStat holds cumulative tick counters of one cpu line of /proc/stat.
type CPUStat struct {
	User    uint64
	Nice    uint64
	System  uint64
	Idle    uint64
	IOWait  uint64
	IRQ     uint64
	SoftIRQ uint64
}

// CoreStat is a per-core line of /proc/stat.
type CoreStat struct {
	Name string
	CPUStat
}

// Total returns the sum of all counters.
func (s CPUStat) Total() uint64 {
	return s.User + s.Nice + s.System + s.Idle + s.IOWait + s.IRQ + s.SoftIRQ
}

// Busy returns the non-idle time.
func (s CPUStat) Busy() uint64 {
	return s.Total() - s.Idle
}

// Percent returns Busy/Total as a percentage, 0 when Total is 0.
func (s CPUStat) Percent() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return float64(s.Busy()) / float64(total) * 100.0
}

// Sub returns the per-counter difference s - prev. ok is false when any
// counter went backwards, which happens after a counter reset.
func (s CPUStat) Sub(prev CPUStat) (delta CPUStat, ok bool) {
	cur := s.values()
	old := prev.values()
	var out [cpuCounters]uint64
	for i := range cur {
		if cur[i] < old[i] {
			return CPUStat{}, false
		}
		out[i] = cur[i] - old[i]
	}
	return fromValues(out), true
}

func (s CPUStat) values() [cpuCounters]uint64 {
	return [cpuCounters]uint64{s.User, s.Nice, s.System, s.Idle, s.IOWait, s.IRQ, s.SoftIRQ}
}

func fromValues(v [cpuCounters]uint64) CPUStat {
	return CPUStat{
		User:    v[0],
		Nice:    v[1],
		System:  v[2],
		Idle:    v[3],
		IOWait:  v[4],
		IRQ:     v[5],
		SoftIRQ: v[6],
	}
}

// ParseCPULine parses the aggregate "cpu " line. It needs at least seven
// numeric counters after the label; extra columns (steal, guest) are ignored.
func ParseCPULine(line string) (CPUStat, error) {
	if !strings.HasPrefix(line, "cpu ") {
		return CPUStat{}, fmt.Errorf("not an aggregate cpu line: %w", ErrFormat)
	}
	fields := strings.Fields(line)
	if len(fields) < cpuCounters+1 {
		return CPUStat{}, fmt.Errorf("cpu line has %d counters: %w", len(fields)-1, ErrFormat)
	}
	return parseCounters(fields[1:], cpuCounters)
}

// ParseCoreLines parses every cpuN line of stat-formatted text. A core line
// needs at least four counters; missing iowait, irq and softirq count as zero.
func ParseCoreLines(r io.Reader) ([]CoreStat, error) {
	var cores []CoreStat
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 || fields[0] == "cpu" || !strings.HasPrefix(fields[0], "cpu") {
			continue
		}
		stat, err := parseCounters(fields[1:], 4)
		if err != nil {
			continue
		}
		cores = append(cores, CoreStat{Name: fields[0], CPUStat: stat})
	}
	return cores, scanner.Err()
}

// parseCounters parses up to seven counters, requiring at least min.
func parseCounters(fields []string, min int) (CPUStat, error) {
	if len(fields) < min {
		return CPUStat{}, fmt.Errorf("%d counters, need %d: %w", len(fields), min, ErrFormat)
	}
	var v [cpuCounters]uint64
	for i := 0; i < cpuCounters && i < len(fields); i++ {
		n, err := strconv.ParseUint(fields[i], 10, 64)
		if err != nil {
			return CPUStat{}, fmt.Errorf("counter %d %q: %w", i, fields[i], ErrFormat)
		}
		v[i] = n
	}
	return fromValues(v), nil
}
