package baseline

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/perfmon/pkg/reading"
)

func snap(cpu float64, avail uint64) reading.Snapshot {
	return reading.Snapshot{
		Time:        time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		MemoryUsage: reading.Bytes{Value: 1000, Source: "pss", Status: reading.StatusOK},
		CPUUsage:    reading.Percent{Value: cpu, Source: "/proc/stat", Status: reading.StatusOK},
		TotalMemory: reading.Bytes{Value: 8000, Source: "/proc/meminfo", Status: reading.StatusFallback},
		Memory: reading.Memory{
			Total:       reading.Bytes{Value: 8000, Status: reading.StatusFallback},
			Available:   reading.Bytes{Value: avail, Status: reading.StatusFallback},
			Used:        reading.Bytes{Value: 8000 - avail, Status: reading.StatusFallback},
			PercentUsed: reading.Percent{Value: float64(8000-avail) / 80, Status: reading.StatusFallback},
		},
	}
}

func TestSaveLoadList(t *testing.T) {
	dir := t.TempDir()

	names, err := List(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, names)

	b := New("idle", snap(10, 4000), reading.DefaultThresholds())
	b.Metadata = map[string]string{"build": "42"}
	require.NoError(t, b.Save(dir))
	require.NoError(t, New("busy", snap(80, 1000), reading.DefaultThresholds()).Save(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	names, err = List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"busy", "idle"}, names)

	loaded, err := Load("idle", dir)
	require.NoError(t, err)
	assert.Equal(t, b.Rows, loaded.Rows)
	assert.Equal(t, b.ID, loaded.ID)
	_, err = uuid.Parse(loaded.ID)
	assert.NoError(t, err)
	assert.Equal(t, "42", loaded.Metadata["build"])
	assert.True(t, b.Timestamp.Equal(loaded.Timestamp))

	require.NoError(t, Delete("busy", dir))
	_, err = Load("busy", dir)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestInvalidNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"", "../escape", "a/b", ".hidden"} {
		_, err := Load(name, dir)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
	assert.ErrorIs(t, (&Baseline{Name: "../x"}).Save(dir), ErrInvalidName)
}

func TestCompare(t *testing.T) {
	th := reading.DefaultThresholds()
	b := New("idle", snap(10, 4000), th)

	current := snap(50, 2000)
	current.MemoryUsage.Value = 1040
	current.TotalMemory = reading.UnavailableBytes("/proc/meminfo")

	got := map[string]Comparison{}
	for _, c := range Compare(b, current.Rows(th)) {
		got[c.Name] = c
	}

	assert.Equal(t, SeverityNone, got[reading.RowMemoryUsage].Severity)
	assert.InDelta(t, 4.0, got[reading.RowMemoryUsage].DeltaPct, 1e-9)
	assert.Equal(t, SeverityRegress, got[reading.RowCPUUsage].Severity)
	assert.InDelta(t, 400.0, got[reading.RowCPUUsage].DeltaPct, 1e-9)
	assert.Equal(t, SeverityRegress, got[reading.RowAvailable].Severity, "less available memory is worse")
	assert.Equal(t, SeverityLost, got[reading.RowTotalMemory].Severity)
	assert.True(t, got[reading.RowTotalMemory].Regression())

	var buf bytes.Buffer
	assert.Equal(t, 4, RenderComparison(&buf, b, Compare(b, current.Rows(th))))
	assert.Contains(t, buf.String(), "REGRESSION")
	assert.Contains(t, buf.String(), "LOST")
}

func TestClassifySeverity(t *testing.T) {
	assert.Equal(t, SeverityNone, classifySeverity(reading.RowCPUUsage, -4.9))
	assert.Equal(t, SeverityMinor, classifySeverity(reading.RowCPUUsage, 10))
	assert.Equal(t, SeverityModerate, classifySeverity(reading.RowCPUUsage, -20))
	assert.Equal(t, SeverityMajor, classifySeverity(reading.RowCPUUsage, -50))
	assert.Equal(t, SeverityMajor, classifySeverity(reading.RowAvailable, 50))
}
