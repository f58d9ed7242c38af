package channel

import (
	"context"
	"fmt"

	"github.com/danpilch/perfmon/pkg/reading"
)

// Method names answered by Bind.
const (
	MethodMemoryUsage = "getAndroidMemoryUsage"
	MethodCPUUsage    = "getAndroidCPUUsage"
	MethodTotalMemory = "getAndroidTotalMemory"
	MethodMemoryInfo  = "getMemoryInfo"
	MethodCPUInfo     = "getCpuUsage"
)

// Sampler is the set of readings the channel exposes.
type Sampler interface {
	MemoryUsage() reading.Bytes
	CPUUsage() reading.Percent
	TotalMemory() reading.Bytes
	MemoryInfo() reading.Memory
	PerCoreCPU() []reading.Percent
}

// BindOptions controls how readings are turned into results.
type BindOptions struct {
	// Strict reports unavailable readings as UNAVAILABLE errors instead of zero.
	Strict bool
}

// Bind registers the sampler's methods on ch.
func Bind(ch *Channel, s Sampler, opts BindOptions) {
	ch.Register(MethodMemoryUsage, func(context.Context, Call) (any, error) {
		r := s.MemoryUsage()
		if err := opts.check("memory usage", r.Available(), r.Source); err != nil {
			return nil, err
		}
		return int64(r.Value), nil
	})

	ch.Register(MethodCPUUsage, func(context.Context, Call) (any, error) {
		r := s.CPUUsage()
		if err := opts.check("cpu usage", r.Available(), r.Source); err != nil {
			return nil, err
		}
		return r.Value, nil
	})

	ch.Register(MethodTotalMemory, func(context.Context, Call) (any, error) {
		r := s.TotalMemory()
		if err := opts.check("total memory", r.Available(), r.Source); err != nil {
			return nil, err
		}
		return int64(r.Value), nil
	})

	ch.Register(MethodMemoryInfo, func(context.Context, Call) (any, error) {
		m := s.MemoryInfo()
		if err := opts.check("memory info", m.Total.Available(), m.Total.Source); err != nil {
			return nil, err
		}
		return map[string]any{
			"totalMemory":     int64(m.Total.Value),
			"availableMemory": int64(m.Available.Value),
			"usedMemory":      int64(m.Used.Value),
			"percentUsed":     m.PercentUsed.Value,
		}, nil
	})

	ch.Register(MethodCPUInfo, func(context.Context, Call) (any, error) {
		cores := s.PerCoreCPU()
		perCore := make([]float64, 0, len(cores))
		var sum float64
		for _, c := range cores {
			perCore = append(perCore, c.Value)
			sum += c.Value
		}

		var total float64
		if len(perCore) > 0 {
			total = sum / float64(len(perCore))
		} else {
			r := s.CPUUsage()
			if err := opts.check("cpu usage", r.Available(), r.Source); err != nil {
				return nil, err
			}
			total = r.Value
		}
		return map[string]any{
			"totalUsage":   total,
			"perCoreUsage": perCore,
		}, nil
	})
}

func (o BindOptions) check(what string, available bool, source string) error {
	if !o.Strict || available {
		return nil
	}
	return &CodedError{
		Code:    CodeUnavailable,
		Message: fmt.Sprintf("%s unavailable", what),
		Details: source,
	}
}
