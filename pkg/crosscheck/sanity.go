package crosscheck

import (
	"fmt"

	"github.com/danpilch/perfmon/pkg/reading"
)

// SanityResult holds the outcome of a physical constraint check.
type SanityResult struct {
	Check   string `json:"check"`
	Passed  bool   `json:"passed"`
	Details string `json:"details"`
}

func pass(check, format string, args ...any) SanityResult {
	return SanityResult{Check: check, Passed: true, Details: fmt.Sprintf(format, args...)}
}

func fail(check, format string, args ...any) SanityResult {
	return SanityResult{Check: check, Passed: false, Details: fmt.Sprintf(format, args...)}
}

type namedPercent struct {
	name string
	p    reading.Percent
}

// RunSanityChecks validates a snapshot against physical constraints.
// Unavailable readings are reported as failures. rss, when positive, is the
// resident set of the sampled process in bytes.
func RunSanityChecks(snap reading.Snapshot, rss float64) []SanityResult {
	var results []SanityResult

	percents := []namedPercent{
		{reading.RowCPUUsage, snap.CPUUsage},
		{reading.RowMemoryUsed, snap.Memory.PercentUsed},
	}
	for _, c := range snap.Cores {
		percents = append(percents, namedPercent{"cpu." + reading.CoreName(c.Source), c})
	}
	for _, pc := range percents {
		check := pc.name + " in [0, 100]"
		switch {
		case !pc.p.Available():
			results = append(results, fail(check, "unavailable from %s", pc.p.Source))
		case pc.p.Value < 0 || pc.p.Value > 100:
			results = append(results, fail(check, "out of range: %.2f", pc.p.Value))
		default:
			results = append(results, pass(check, "%.2f%%", pc.p.Value))
		}
	}

	if snap.CPUUsage.Window < 0 {
		results = append(results, fail("cpu window non-negative", "window %s", snap.CPUUsage.Window))
	}

	m := snap.Memory
	if m.Total.Available() {
		check := "available <= total"
		if m.Available.Value > m.Total.Value {
			results = append(results, fail(check, "%d > %d", m.Available.Value, m.Total.Value))
		} else {
			results = append(results, pass(check, "%s of %s",
				reading.FormatBytes(m.Available.Value), reading.FormatBytes(m.Total.Value)))
		}

		check = "used + available == total"
		if m.Used.Value+m.Available.Value != m.Total.Value {
			results = append(results, fail(check, "%d + %d != %d", m.Used.Value, m.Available.Value, m.Total.Value))
		} else {
			results = append(results, pass(check, "consistent"))
		}
	}

	if snap.TotalMemory.Available() && snap.MemoryUsage.Available() {
		check := "process memory <= total memory"
		if snap.MemoryUsage.Value > snap.TotalMemory.Value {
			results = append(results, fail(check, "%s > %s",
				reading.FormatBytes(snap.MemoryUsage.Value), reading.FormatBytes(snap.TotalMemory.Value)))
		} else {
			results = append(results, pass(check, "%s of %s",
				reading.FormatBytes(snap.MemoryUsage.Value), reading.FormatBytes(snap.TotalMemory.Value)))
		}
	}

	// PSS splits shared pages between their users, so it can never exceed RSS.
	if rss > 0 && snap.MemoryUsage.Status == reading.StatusOK {
		check := "pss <= rss"
		if float64(snap.MemoryUsage.Value) > rss {
			results = append(results, fail(check, "%s > %s",
				reading.FormatBytes(snap.MemoryUsage.Value), reading.FormatBytes(uint64(rss))))
		} else {
			results = append(results, pass(check, "%s of %s",
				reading.FormatBytes(snap.MemoryUsage.Value), reading.FormatBytes(uint64(rss))))
		}
	}

	for _, b := range []struct {
		name string
		b    reading.Bytes
	}{
		{reading.RowMemoryUsage, snap.MemoryUsage},
		{reading.RowTotalMemory, snap.TotalMemory},
	} {
		if !b.b.Available() {
			results = append(results, fail(b.name+" available", "no source answered (%s)", b.b.Source))
		}
	}

	return results
}
