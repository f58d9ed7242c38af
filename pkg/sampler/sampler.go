// Package sampler reads process memory, system memory and CPU utilization.
//
// None of the read operations return errors. A failing source degrades the
// result to a zero value tagged reading.StatusUnavailable, so callers can
// tell "measured zero" apart from "could not measure".
package sampler

import (
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/danpilch/perfmon/pkg/host"
	"github.com/danpilch/perfmon/pkg/procfs"
	"github.com/danpilch/perfmon/pkg/reading"
)

// Reading sources.
const (
	SourcePSS           = "pss"
	SourceNativeHeap    = "native-heap"
	SourceMemoryManager = "memory-manager"
	SourceMeminfo       = "/proc/meminfo"
	SourceStat          = "/proc/stat"
)

// Option configures a Sampler.
type Option func(*Sampler)

// WithLogger sets the logger. A nil logger keeps the default.
func WithLogger(l *logrus.Logger) Option {
	return func(s *Sampler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPID sets the process whose memory is reported. Defaults to the caller.
func WithPID(pid int) Option {
	return func(s *Sampler) {
		if pid > 0 {
			s.pid = pid
		}
	}
}

// WithHeap sets the native heap reporter used as the memory fallback.
func WithHeap(h host.HeapReporter) Option {
	return func(s *Sampler) {
		s.heap = h
	}
}

// WithCPUMode selects cumulative or interval CPU sampling.
func WithCPUMode(m CPUMode) Option {
	return func(s *Sampler) {
		s.mode = m
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sampler) {
		s.now = now
	}
}

// WithMemoryManager attaches m at construction.
func WithMemoryManager(m host.MemoryManager) Option {
	return func(s *Sampler) {
		s.manager = m
	}
}

// Sampler answers the read operations. It is safe for concurrent use.
type Sampler struct {
	fs     procfs.FS
	pid    int
	heap   host.HeapReporter
	mode   CPUMode
	now    func() time.Time
	logger *logrus.Logger

	mu      sync.RWMutex
	manager host.MemoryManager

	cpu cpuState
}

// New creates a sampler reading counters from fsys.
func New(fsys procfs.FS, opts ...Option) *Sampler {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	s := &Sampler{
		fs:     fsys,
		pid:    os.Getpid(),
		heap:   host.RuntimeHeap{},
		mode:   CPUCumulative,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach installs the memory manager. It may be called again at any time
// to swap the manager.
func (s *Sampler) Attach(m host.MemoryManager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manager = m
}

// Detach removes the memory manager; subsequent reads use the fallbacks.
func (s *Sampler) Detach() {
	s.Attach(nil)
}

// Attached reports whether a memory manager is installed.
func (s *Sampler) Attached() bool {
	return s.memoryManager() != nil
}

// Mode returns the CPU sampling mode.
func (s *Sampler) Mode() CPUMode {
	return s.mode
}

func (s *Sampler) memoryManager() host.MemoryManager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.manager
}

// MemoryUsage returns the PSS of the sampled process in bytes, the native
// heap size when the manager has no record for it or is detached, and an
// unavailable zero reading on failure.
func (s *Sampler) MemoryUsage() reading.Bytes {
	log := s.logger.WithField("op", "MemoryUsage")

	if m := s.memoryManager(); m != nil {
		infos, err := m.ProcessMemoryInfo([]int{s.pid})
		if err != nil {
			log.WithError(err).Warn("Process memory query failed")
			return reading.UnavailableBytes(SourcePSS)
		}
		if len(infos) > 0 {
			return reading.Bytes{
				Value:  infos[0].TotalPSS * 1024,
				Source: SourcePSS,
				Status: reading.StatusOK,
			}
		}
		log.WithField("pid", s.pid).Debug("No process memory record, using native heap")
	}

	if s.heap == nil {
		log.Warn("No native heap reporter")
		return reading.UnavailableBytes(SourceNativeHeap)
	}
	size, err := s.heap.NativeHeapSize()
	if err != nil {
		log.WithError(err).Warn("Native heap query failed")
		return reading.UnavailableBytes(SourceNativeHeap)
	}
	return reading.Bytes{
		Value:  size,
		Source: SourceNativeHeap,
		Status: reading.StatusFallback,
	}
}

// TotalMemory returns physical RAM in bytes from the memory manager, or from
// MemTotal in meminfo while detached.
func (s *Sampler) TotalMemory() reading.Bytes {
	log := s.logger.WithField("op", "TotalMemory")

	if m := s.memoryManager(); m != nil {
		info, err := m.MemoryInfo()
		if err != nil {
			log.WithError(err).Warn("Memory info query failed")
			return reading.UnavailableBytes(SourceMemoryManager)
		}
		return reading.Bytes{
			Value:  info.TotalMem,
			Source: SourceMemoryManager,
			Status: reading.StatusOK,
		}
	}

	kb, err := s.fs.MemTotal()
	if err != nil {
		log.WithError(err).Warn("Reading MemTotal failed")
		return reading.UnavailableBytes(SourceMeminfo)
	}
	return reading.Bytes{
		Value:  kb * 1024,
		Source: SourceMeminfo,
		Status: reading.StatusFallback,
	}
}

// MemoryInfo returns total, available and used system memory.
func (s *Sampler) MemoryInfo() reading.Memory {
	log := s.logger.WithField("op", "MemoryInfo")

	var (
		total, avail uint64
		source       string
		status       reading.Status
	)
	if m := s.memoryManager(); m != nil {
		info, err := m.MemoryInfo()
		if err != nil {
			log.WithError(err).Warn("Memory info query failed")
			return unavailableMemory(SourceMemoryManager)
		}
		total, avail = info.TotalMem, info.AvailMem
		source, status = SourceMemoryManager, reading.StatusOK
	} else {
		info, err := s.fs.MemInfo()
		if err != nil {
			log.WithError(err).Warn("Reading meminfo failed")
			return unavailableMemory(SourceMeminfo)
		}
		total, avail = info.Total*1024, info.Available*1024
		source, status = SourceMeminfo, reading.StatusFallback
	}

	if avail > total {
		avail = total
	}
	used := total - avail
	var pct float64
	if total > 0 {
		pct = float64(used) / float64(total) * 100.0
	}

	return reading.Memory{
		Total:       reading.Bytes{Value: total, Source: source, Status: status},
		Available:   reading.Bytes{Value: avail, Source: source, Status: status},
		Used:        reading.Bytes{Value: used, Source: source, Status: status},
		PercentUsed: reading.Percent{Value: pct, Source: source, Status: status},
	}
}

func unavailableMemory(source string) reading.Memory {
	return reading.Memory{
		Total:       reading.UnavailableBytes(source),
		Available:   reading.UnavailableBytes(source),
		Used:        reading.UnavailableBytes(source),
		PercentUsed: reading.UnavailablePercent(source),
	}
}
