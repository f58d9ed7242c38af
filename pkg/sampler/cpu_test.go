package sampler

import (
	"fmt"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danpilch/perfmon/pkg/procfs/procfstest"
	"github.com/danpilch/perfmon/pkg/reading"
)

func TestCPUUsage_EndToEnd(t *testing.T) {
	s := newSampler(procDir(t, map[string]string{"stat": "cpu  100 0 50 850 0 0 0\ncpu0 1 2 3 4 5 6 7\n"}))
	got := s.CPUUsage()

	assert.InDelta(t, 15.0, got.Value, 1e-9)
	assert.Equal(t, reading.StatusOK, got.Status)
	assert.Zero(t, got.Window)
}

func TestCPUUsage_ZeroCounters(t *testing.T) {
	got := newSampler(procDir(t, map[string]string{"stat": "cpu  0 0 0 0 0 0 0\n"})).CPUUsage()
	assert.Equal(t, 0.0, got.Value)
	assert.True(t, got.Available(), "all-zero counters are a valid reading")
}

func TestCPUUsage_MalformedIsZero(t *testing.T) {
	lines := map[string]string{
		"fewer than seven":  "cpu  100 0 50 850 0 0\n",
		"per-core first":    "cpu0 100 0 50 850 0 0 0\n",
		"missing prefix":    "intr 100 0 50 850 0 0 0\n",
		"non-numeric field": "cpu  100 0 50 eight 0 0 0\n",
		"empty file":        "",
	}
	for name, line := range lines {
		t.Run(name, func(t *testing.T) {
			got := newSampler(procDir(t, map[string]string{"stat": line})).CPUUsage()
			assert.Equal(t, 0.0, got.Value)
			assert.Equal(t, reading.StatusUnavailable, got.Status)
		})
	}

	got := newSampler(procDir(t, nil)).CPUUsage()
	assert.Equal(t, 0.0, got.Value)
	assert.False(t, got.Available())
}

// TestCPUUsage_Property checks the since-boot formula over random counters.
func TestCPUUsage_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	counter := gen.UInt32()
	properties.Property("busy/total*100 for well-formed lines", prop.ForAll(
		func(user, nice, system, idle, iowait, irq, softirq uint32) bool {
			line := fmt.Sprintf("cpu  %d %d %d %d %d %d %d 0 0 0\n", user, nice, system, idle, iowait, irq, softirq)
			got := newSampler(procDir(t, map[string]string{"stat": line})).CPUUsage()

			total := float64(user) + float64(nice) + float64(system) + float64(idle) +
				float64(iowait) + float64(irq) + float64(softirq)
			want := 0.0
			if total > 0 {
				want = (total - float64(idle)) / total * 100.0
			}
			diff := got.Value - want
			return got.Available() && diff < 1e-6 && diff > -1e-6 && got.Value >= 0 && got.Value <= 100
		},
		counter, counter, counter, counter, counter, counter, counter,
	))

	properties.TestingRun(t)
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func setStat(t *testing.T, root, line string) {
	t.Helper()
	procfstest.Write(t, root, "stat", line+"\n")
}

func TestCPUUsage_Interval(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	m := procDir(t, nil)
	s := newSampler(m, WithCPUMode(CPUInterval), WithClock(clock.Now))

	// first call: since-boot
	setStat(t, m, "cpu  100 0 50 850 0 0 0")
	first := s.CPUUsage()
	assert.InDelta(t, 15.0, first.Value, 1e-9)
	assert.Zero(t, first.Window)

	// +100 ticks, 80 busy
	clock.Advance(2 * time.Second)
	setStat(t, m, "cpu  160 0 70 870 0 0 0")
	second := s.CPUUsage()
	assert.InDelta(t, 80.0, second.Value, 1e-9)
	assert.Equal(t, 2*time.Second, second.Window)

	// no ticks elapsed: previous interval value repeats
	clock.Advance(time.Second)
	third := s.CPUUsage()
	assert.Equal(t, second, third)

	// counters reset: since-boot again
	clock.Advance(time.Second)
	setStat(t, m, "cpu  10 0 0 90 0 0 0")
	fourth := s.CPUUsage()
	assert.InDelta(t, 10.0, fourth.Value, 1e-9)
	assert.Zero(t, fourth.Window)

	// +10 ticks, all idle
	clock.Advance(time.Second)
	setStat(t, m, "cpu  10 0 0 100 0 0 0")
	fifth := s.CPUUsage()
	assert.Equal(t, 0.0, fifth.Value)
	assert.Equal(t, time.Second, fifth.Window)
}

func TestCPUUsage_IntervalFailureKeepsSample(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	m := procDir(t, nil)
	s := newSampler(m, WithCPUMode(CPUInterval), WithClock(clock.Now))

	setStat(t, m, "cpu  100 0 50 850 0 0 0")
	s.CPUUsage()

	setStat(t, m, "garbage")
	assert.False(t, s.CPUUsage().Available())

	clock.Advance(time.Second)
	setStat(t, m, "cpu  150 0 50 900 0 0 0")
	got := s.CPUUsage()
	assert.InDelta(t, 50.0, got.Value, 1e-9)
	assert.Equal(t, time.Second, got.Window)
}

func TestCPUUsage_ZeroDeltaWithoutHistory(t *testing.T) {
	m := procDir(t, map[string]string{"stat": "cpu  100 0 50 850 0 0 0\n"})
	s := newSampler(m, WithCPUMode(CPUInterval))

	s.CPUUsage()
	got := s.CPUUsage()
	assert.InDelta(t, 15.0, got.Value, 1e-9)
}

func TestReset(t *testing.T) {
	m := procDir(t, nil)
	s := newSampler(m, WithCPUMode(CPUInterval))

	setStat(t, m, "cpu  100 0 50 850 0 0 0")
	s.CPUUsage()
	setStat(t, m, "cpu  200 0 50 850 0 0 0")
	assert.InDelta(t, 100.0, s.CPUUsage().Value, 1e-9)

	s.Reset()
	setStat(t, m, "cpu  300 0 50 850 0 0 0")
	assert.InDelta(t, 100.0*350/1200, s.CPUUsage().Value, 1e-9)
}

func TestPerCoreCPU(t *testing.T) {
	stat := "cpu  100 0 50 850 0 0 0\ncpu0 50 0 0 50 0 0 0\ncpu1 10 0 0 90\nintr 5\n"
	got := newSampler(procDir(t, map[string]string{"stat": stat})).PerCoreCPU()
	require.Len(t, got, 2)
	assert.InDelta(t, 50.0, got[0].Value, 1e-9)
	assert.Equal(t, SourceStat+":cpu0", got[0].Source)
	assert.InDelta(t, 10.0, got[1].Value, 1e-9)

	assert.Nil(t, newSampler(procDir(t, nil)).PerCoreCPU())
}

func TestParseCPUMode(t *testing.T) {
	m, err := ParseCPUMode("")
	require.NoError(t, err)
	assert.Equal(t, CPUCumulative, m)

	m, err = ParseCPUMode("interval")
	require.NoError(t, err)
	assert.Equal(t, CPUInterval, m)

	_, err = ParseCPUMode("instant")
	assert.Error(t, err)
}
