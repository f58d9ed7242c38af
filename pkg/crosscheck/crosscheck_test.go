package crosscheck

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/perfmon/pkg/reading"
)

func TestCrossCheck(t *testing.T) {
	v := NewValidator()

	res := v.CrossCheck("m", nil)
	assert.Equal(t, StatusSkipped, res.Status)

	res = v.CrossCheck("m", []Source{{Name: "a", Value: 42}})
	assert.Equal(t, StatusSkipped, res.Status)
	assert.Equal(t, 42.0, res.Consensus)

	res = v.CrossCheck("m", []Source{{Value: 100}, {Value: 101}, {Value: 99}})
	assert.Equal(t, StatusValid, res.Status)
	assert.Equal(t, 100.0, res.Consensus)
	assert.InDelta(t, 1.0, res.MaxDeviation, 1e-9)

	res = v.CrossCheck("m", []Source{{Value: 100}, {Value: 112}})
	assert.Equal(t, StatusSuspect, res.Status)
	assert.Equal(t, 106.0, res.Consensus)

	res = v.CrossCheck("m", []Source{{Value: 100}, {Value: 100}, {Value: 120}})
	assert.Equal(t, StatusConflict, res.Status)
	assert.InDelta(t, 20.0, res.MaxDeviation, 1e-9)

	res = v.CrossCheck("m", []Source{{Value: 0}, {Value: 0}, {Value: 1}})
	assert.Equal(t, StatusConflict, res.Status)

	v.Floor = 10
	res = v.CrossCheck("m", []Source{{Value: 0}, {Value: 0}, {Value: 0.1}})
	assert.Equal(t, StatusValid, res.Status)
}

func TestMedianDoesNotReorderSources(t *testing.T) {
	sources := []Source{{Name: "b", Value: 3}, {Name: "a", Value: 1}}
	res := NewValidator().CrossCheck("m", sources)
	assert.Equal(t, "b", res.Sources[0].Name)
}

func TestGather(t *testing.T) {
	got := Gather([]Probe{
		{Metric: "x", Name: "one", Read: func() (float64, error) { return 1, nil }},
		{Metric: "x", Name: "broken", Read: func() (float64, error) { return 0, errors.New("nope") }},
		{Metric: "y", Name: "two", Read: func() (float64, error) { return 2, nil }},
	})
	assert.Equal(t, []Source{{Name: "one", Value: 1}}, got["x"])
	assert.Len(t, got["y"], 1)
}

func okBytes(v uint64) reading.Bytes {
	return reading.Bytes{Value: v, Source: "/proc/meminfo", Status: reading.StatusFallback}
}

func healthySnapshot() reading.Snapshot {
	return reading.Snapshot{
		MemoryUsage: reading.Bytes{Value: 100 << 20, Source: "pss", Status: reading.StatusOK},
		CPUUsage:    reading.Percent{Value: 15, Source: "/proc/stat", Status: reading.StatusOK},
		TotalMemory: okBytes(8 << 30),
		Memory: reading.Memory{
			Total:       okBytes(8 << 30),
			Available:   okBytes(2 << 30),
			Used:        okBytes(6 << 30),
			PercentUsed: reading.Percent{Value: 75, Source: "/proc/meminfo", Status: reading.StatusFallback},
		},
		Cores: []reading.Percent{{Value: 20, Source: "/proc/stat:cpu0", Status: reading.StatusOK}},
	}
}

func TestRunSanityChecks_Healthy(t *testing.T) {
	results := RunSanityChecks(healthySnapshot(), 200<<20)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.True(t, r.Passed, "%s: %s", r.Check, r.Details)
	}
}

func TestRunSanityChecks_Violations(t *testing.T) {
	snap := healthySnapshot()
	snap.CPUUsage.Value = 120
	snap.Memory.Available = okBytes(9 << 30)
	snap.TotalMemory = reading.UnavailableBytes("memory-manager")

	failed := map[string]bool{}
	for _, r := range RunSanityChecks(snap, 50<<20) {
		if !r.Passed {
			failed[r.Check] = true
		}
	}
	assert.True(t, failed["cpu.usage in [0, 100]"])
	assert.True(t, failed["available <= total"])
	assert.True(t, failed["pss <= rss"])
	assert.True(t, failed["memory.total available"])
	assert.False(t, failed["cpu.cpu0 in [0, 100]"])
}

func probe(metric string, v float64) Probe {
	return Probe{Metric: metric, Name: "fake", Read: func() (float64, error) { return v, nil }}
}

func TestRun(t *testing.T) {
	snap := healthySnapshot()
	res := Run(NewValidator(), snap, []Probe{
		probe(reading.RowTotalMemory, float64(8<<30)),
		probe(reading.RowMemoryUsed, 74),
		probe(reading.RowCPUUsage, 40),
		probe(MetricProcessRSS, float64(200<<20)),
	})

	require.Len(t, res.Validations, 3)
	byMetric := map[string]ValidationResult{}
	for _, v := range res.Validations {
		byMetric[v.Metric] = v
	}
	assert.Equal(t, StatusValid, byMetric[reading.RowTotalMemory].Status)
	assert.Equal(t, StatusValid, byMetric[reading.RowMemoryUsed].Status)
	assert.Equal(t, StatusConflict, byMetric[reading.RowCPUUsage].Status)
	assert.Equal(t, "/proc/stat", byMetric[reading.RowCPUUsage].Sources[0].Name)
	assert.True(t, res.Failed())

	// interval readings are not comparable with since-boot sources
	snap.CPUUsage.Window = time.Second
	res = Run(NewValidator(), snap, []Probe{probe(reading.RowCPUUsage, 40)})
	assert.Empty(t, res.Validations)
	assert.False(t, res.Failed())
}

func TestReport(t *testing.T) {
	res := Run(NewValidator(), healthySnapshot(), []Probe{probe(reading.RowTotalMemory, float64(8<<30))})

	var buf bytes.Buffer
	Report(&buf, res)
	assert.Contains(t, buf.String(), "memory.total")
	assert.Contains(t, buf.String(), "8.0 GiB")
	assert.Contains(t, buf.String(), "sanity checks passed")

	buf.Reset()
	require.NoError(t, ReportJSON(&buf, res))
	var decoded Result
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, res.Validations, decoded.Validations)
}

func TestDefaultProbes(t *testing.T) {
	probes := DefaultProbes(os.Getpid())
	require.NotEmpty(t, probes)
	for _, p := range probes {
		assert.NotEmpty(t, p.Metric)
		assert.NotNil(t, p.Read)
	}
}
