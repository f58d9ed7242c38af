package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/perfmon/pkg/reading"
)

func snapshot(cpu float64) reading.Snapshot {
	return reading.Snapshot{
		Time:        time.Unix(1700000000, 0).UTC(),
		MemoryUsage: reading.Bytes{Value: 1 << 20, Source: "pss", Status: reading.StatusOK},
		CPUUsage:    reading.Percent{Value: cpu, Source: "/proc/stat", Status: reading.StatusOK},
		TotalMemory: reading.UnavailableBytes("/proc/meminfo"),
		Memory: reading.Memory{
			Available:   reading.Bytes{Value: 512, Status: reading.StatusFallback},
			PercentUsed: reading.Percent{Value: 50, Status: reading.StatusFallback},
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestRender_TSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTSV, &buf).Render(snapshot(15)))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "READING\tVALUE\tRAW_VALUE\tSOURCE\tSTATUS\tLEVEL", lines[0])
	assert.Equal(t, "cpu.usage\t15.0%\t15.0000\t/proc/stat\tok\tok", lines[2])
	assert.Contains(t, lines[3], "unavailable\tunknown")
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON, &buf).Render(snapshot(95)))

	var out struct {
		Rows    []reading.Row `json:"rows"`
		Summary Summary       `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Len(t, out.Rows, 5)
	assert.Equal(t, Summary{OK: 3, Errors: 1, Unknown: 1}, out.Summary)
}

func TestRender_TableWithSparkline(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(FormatTable, &buf)
	tracker := NewSparklineTracker(5)
	f.SetSparklineTracker(tracker)
	f.SetShowScore(true)

	require.NoError(t, f.Render(snapshot(10)))
	require.NoError(t, f.Render(snapshot(80)))

	out := buf.String()
	assert.Contains(t, out, "READING")
	assert.Contains(t, out, "TREND")
	assert.Contains(t, out, "Health Score")
	assert.Equal(t, []float64{10, 80}, tracker.Values(reading.RowCPUUsage))
}

func TestRender_AI(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatAI, &buf).Render(snapshot(92)))

	out := buf.String()
	assert.Contains(t, out, "Issues Detected")
	assert.Contains(t, out, "**92.0%**")
	assert.Contains(t, out, "perfmon watch --cpu-mode interval")
	assert.Contains(t, out, "perfmon check")
}

func TestHealthScore(t *testing.T) {
	rows := []reading.Row{
		{Level: reading.LevelError, Status: reading.StatusOK},
		{Level: reading.LevelWarning, Status: reading.StatusOK},
		{Level: reading.LevelUnknown, Status: reading.StatusUnavailable},
		{Level: reading.LevelOK, Status: reading.StatusFallback},
	}
	assert.Equal(t, 76, HealthScore(rows))
	assert.Equal(t, "Degraded", ScoreLabel(76))
	assert.Equal(t, "Healthy", ScoreLabel(100))
	assert.Equal(t, "Critical", ScoreLabel(10))

	many := make([]reading.Row, 10)
	for i := range many {
		many[i].Level = reading.LevelError
	}
	assert.Zero(t, HealthScore(many))
}

func TestSparkline(t *testing.T) {
	s := NewSparklineTracker(3)
	assert.Empty(t, s.Sparkline("cpu"))

	for _, v := range []float64{0, 1, 2, 3} {
		s.Record("cpu", v)
	}
	assert.Equal(t, []float64{1, 2, 3}, s.Values("cpu"))
	assert.Equal(t, "▁▄█", s.Sparkline("cpu"))

	s.SetBounds("cpu", 0, 100)
	assert.Equal(t, "▁▁▁", s.Sparkline("cpu"))

	s.Record("flat", 5)
	s.Record("flat", 5)
	assert.Equal(t, "▁▁", s.Sparkline("flat"))
}

func TestDrillDown(t *testing.T) {
	assert.Nil(t, DrillDown(reading.Row{Name: reading.RowCPUUsage, Level: reading.LevelOK}))

	s := DrillDown(reading.Row{Name: reading.RowTotalMemory, Level: reading.LevelUnknown})
	require.Len(t, s, 2)
	assert.Contains(t, s[1].Command, "getAndroidTotalMemory")

	s = DrillDown(reading.Row{Name: reading.RowMemoryUsed, Level: reading.LevelWarning})
	require.NotEmpty(t, s)
	assert.Equal(t, "perfmon", s[0].Tool)
}
