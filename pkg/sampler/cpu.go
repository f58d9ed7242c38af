package sampler

import (
	"fmt"
	"sync"
	"time"

	"github.com/danpilch/perfmon/pkg/procfs"
	"github.com/danpilch/perfmon/pkg/reading"
)

// CPUMode selects how CPUUsage turns tick counters into a percentage.
type CPUMode string

const (
	// CPUCumulative reports the busy share of all ticks since boot.
	CPUCumulative CPUMode = "cumulative"
	// CPUInterval reports the busy share of ticks since the previous call.
	// The first call after startup or Reset reports the since-boot share.
	CPUInterval CPUMode = "interval"
)

// ParseCPUMode validates a mode name.
func ParseCPUMode(name string) (CPUMode, error) {
	switch CPUMode(name) {
	case CPUCumulative, "":
		return CPUCumulative, nil
	case CPUInterval:
		return CPUInterval, nil
	default:
		return "", fmt.Errorf("unknown cpu mode %q", name)
	}
}

type cpuSample struct {
	stat procfs.CPUStat
	at   time.Time
}

// cpuState is the retained sample for interval mode.
type cpuState struct {
	mu   sync.Mutex
	last *cpuSample
	// prev is the last interval value, repeated when no ticks elapsed.
	prev *reading.Percent
}

// CPUUsage returns aggregate CPU utilization from the first line of stat.
func (s *Sampler) CPUUsage() reading.Percent {
	stat, err := s.fs.AggregateCPU()
	if err != nil {
		s.logger.WithField("op", "CPUUsage").WithError(err).Warn("Reading cpu counters failed")
		return reading.UnavailablePercent(SourceStat)
	}

	if s.mode != CPUInterval {
		return sinceBoot(stat)
	}
	return s.intervalUsage(stat, s.now())
}

func sinceBoot(stat procfs.CPUStat) reading.Percent {
	return reading.Percent{
		Value:  stat.Percent(),
		Source: SourceStat,
		Status: reading.StatusOK,
	}
}

func (s *Sampler) intervalUsage(stat procfs.CPUStat, now time.Time) reading.Percent {
	s.cpu.mu.Lock()
	defer s.cpu.mu.Unlock()

	prev := s.cpu.last
	s.cpu.last = &cpuSample{stat: stat, at: now}
	if prev == nil {
		return sinceBoot(stat)
	}

	delta, ok := stat.Sub(prev.stat)
	if !ok {
		s.logger.WithField("op", "CPUUsage").Debug("Counters went backwards, reporting since boot")
		s.cpu.prev = nil
		return sinceBoot(stat)
	}
	if delta.Total() == 0 {
		if s.cpu.prev != nil {
			return *s.cpu.prev
		}
		return sinceBoot(stat)
	}

	p := reading.Percent{
		Value:  delta.Percent(),
		Source: SourceStat,
		Status: reading.StatusOK,
		Window: now.Sub(prev.at),
	}
	s.cpu.prev = &p
	return p
}

// Reset drops the retained CPU sample.
func (s *Sampler) Reset() {
	s.cpu.mu.Lock()
	defer s.cpu.mu.Unlock()
	s.cpu.last = nil
	s.cpu.prev = nil
}

// PerCoreCPU returns the since-boot utilization of every core line of stat.
func (s *Sampler) PerCoreCPU() []reading.Percent {
	cores, err := s.fs.PerCPU()
	if err != nil {
		s.logger.WithField("op", "PerCoreCPU").WithError(err).Warn("Reading per-core counters failed")
		return nil
	}

	out := make([]reading.Percent, 0, len(cores))
	for _, c := range cores {
		out = append(out, reading.Percent{
			Value:  c.Percent(),
			Source: SourceStat + ":" + c.Name,
			Status: reading.StatusOK,
		})
	}
	return out
}
