package procfs

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/perfmon/pkg/procfs/procfstest"
)

const sampleStat = `cpu  100 0 50 850 0 0 0 0 0 0
cpu0 60 0 20 420 0 0 0 0 0 0
cpu1 40 0 30 430 0 0 0 0 0 0
intr 1234 0 0
ctxt 98765
`

const sampleMeminfo = `MemTotal:        3881780 kB
MemFree:          181340 kB
MemAvailable:    1640244 kB
Buffers:           65916 kB
Cached:          1388220 kB
MemTotal:        9999999 kB
`

func testFS(t *testing.T, files map[string]string) FS {
	return NewFS(procfstest.Dir(t, files))
}

func TestParseCPULine(t *testing.T) {
	stat, err := ParseCPULine("cpu  100 0 50 850 0 0 0")
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), stat.Total())
	assert.Equal(t, uint64(150), stat.Busy())
	assert.InDelta(t, 15.0, stat.Percent(), 1e-9)
}

func TestParseCPULine_Malformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"per-core line", "cpu0 100 0 50 850 0 0 0"},
		{"no space after label", "cpu100 0 50 850 0 0 0"},
		{"too few counters", "cpu  100 0 50 850 0 0"},
		{"non-numeric counter", "cpu  100 0 abc 850 0 0 0"},
		{"negative counter", "cpu  100 0 -5 850 0 0 0"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCPULine(tt.line)
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestCPUStat_PercentZeroTotal(t *testing.T) {
	assert.Equal(t, 0.0, CPUStat{}.Percent())
}

func TestCPUStat_Sub(t *testing.T) {
	prev := CPUStat{User: 100, System: 50, Idle: 850}
	cur := CPUStat{User: 150, System: 60, Idle: 890}

	delta, ok := cur.Sub(prev)
	require.True(t, ok)
	assert.Equal(t, CPUStat{User: 50, System: 10, Idle: 40}, delta)

	_, ok = prev.Sub(cur)
	assert.False(t, ok, "decreasing counters must be reported")
}

func TestAggregateCPU_ReadsFirstLineOnly(t *testing.T) {
	fsys := testFS(t, map[string]string{"stat": sampleStat})
	stat, err := fsys.AggregateCPU()
	require.NoError(t, err)
	assert.Equal(t, uint64(850), stat.Idle)

	// aggregate line not first: only the first line is considered
	fsys = testFS(t, map[string]string{"stat": "intr 1 2 3\ncpu  100 0 50 850 0 0 0\n"})
	_, err = fsys.AggregateCPU()
	assert.ErrorIs(t, err, ErrFormat)
}

func TestAggregateCPU_Missing(t *testing.T) {
	_, err := testFS(t, nil).AggregateCPU()
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = testFS(t, map[string]string{"stat": ""}).AggregateCPU()
	assert.ErrorIs(t, err, ErrFormat)
}

func TestPerCPU(t *testing.T) {
	fsys := testFS(t, map[string]string{"stat": sampleStat + "cpu2 1 2 x 4\ncpu3 10 0 10\ncpu4 10 0 10 80\n"})
	cores, err := fsys.PerCPU()
	require.NoError(t, err)
	require.Len(t, cores, 3)
	assert.Equal(t, "cpu0", cores[0].Name)
	assert.InDelta(t, 16.0, cores[0].Percent(), 1e-9)
	assert.Equal(t, "cpu4", cores[2].Name)
	assert.InDelta(t, 20.0, cores[2].Percent(), 1e-9)
}

func TestScanMemTotal_StopsAtFirstMatch(t *testing.T) {
	kb, err := ScanMemTotal(strings.NewReader(sampleMeminfo))
	require.NoError(t, err)
	assert.Equal(t, uint64(3881780), kb)
}

func TestScanMemTotal_Errors(t *testing.T) {
	_, err := ScanMemTotal(strings.NewReader("MemFree: 10 kB\n"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = ScanMemTotal(strings.NewReader("MemTotal: lots kB\n"))
	assert.ErrorIs(t, err, ErrFormat)

	kb, err := ScanMemTotal(strings.NewReader("MemTotal:\nMemTotal: 42 kB\n"))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), kb)
}

func TestMemInfo(t *testing.T) {
	info, err := testFS(t, map[string]string{"meminfo": sampleMeminfo}).MemInfo()
	require.NoError(t, err)
	assert.Equal(t, uint64(1640244), info.Available)
	assert.True(t, info.HasAvailable)
	assert.Equal(t, uint64(65916), info.Buffers)
	assert.Equal(t, uint64(181340), info.Free)
}

func TestMemInfo_DuplicateKeyKeepsFirst(t *testing.T) {
	fsys := testFS(t, map[string]string{"meminfo": sampleMeminfo})

	info, err := fsys.MemInfo()
	require.NoError(t, err)
	total, err := fsys.MemTotal()
	require.NoError(t, err)

	assert.Equal(t, uint64(3881780), info.Total)
	assert.Equal(t, total, info.Total, "MemInfo and MemTotal must agree on a repeated key")
}

func TestMemInfo_EstimatesAvailable(t *testing.T) {
	fsys := testFS(t, map[string]string{
		"meminfo": "MemTotal: 4000 kB\nMemFree: 100 kB\nBuffers: 10 kB\nCached: 40 kB\n",
	})
	info, err := fsys.MemInfo()
	require.NoError(t, err)
	assert.False(t, info.HasAvailable)
	assert.Equal(t, uint64(150), info.Available)
}

func TestMemInfo_Errors(t *testing.T) {
	_, err := testFS(t, nil).MemInfo()
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = testFS(t, map[string]string{"meminfo": "MemFree: 10 kB\n"}).MemInfo()
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = testFS(t, map[string]string{"meminfo": "MemTotal: 10 kB\nMemFree: lots kB\n"}).MemInfo()
	assert.ErrorIs(t, err, ErrFormat)

	_, err = testFS(t, map[string]string{"meminfo": "MemTotal: 10 kB\nMemFree:\n"}).MemInfo()
	assert.ErrorIs(t, err, ErrFormat, "a line without a value is a format error, not a crash")

	_, err = FS{}.MemInfo()
	assert.ErrorIs(t, err, fs.ErrInvalid)
}

func TestProcessPSS(t *testing.T) {
	rollup := "00400000-7fff [rollup]\nRss:  2048 kB\nPss:  1536 kB\nPss_Anon: 1000 kB\n"
	fsys := testFS(t, map[string]string{
		"42/smaps_rollup": rollup,
		"7/smaps":         "00400000-0040b000 r-xp 00000000 fd:01 1234 /bin/cat\nPss:  100 kB\nPss:  28 kB\n",
		"9/status":        "Name: kthread\n",
	})

	pss, err := fsys.ProcessPSS(42)
	require.NoError(t, err)
	assert.Equal(t, uint64(1536), pss)

	// no smaps_rollup: summed over smaps
	pss, err = fsys.ProcessPSS(7)
	require.NoError(t, err)
	assert.Equal(t, uint64(128), pss)

	_, err = fsys.ProcessPSS(8)
	assert.ErrorIs(t, err, fs.ErrNotExist, "no such pid")

	_, err = fsys.ProcessPSS(9)
	assert.ErrorIs(t, err, fs.ErrNotExist, "pid without smaps files")
}

func TestProcessPSS_Malformed(t *testing.T) {
	fsys := testFS(t, map[string]string{
		"42/smaps_rollup": "00400000-7fff [rollup]\nPss: many kB\n",
	})
	_, err := fsys.ProcessPSS(42)
	assert.ErrorIs(t, err, ErrFormat)
}
