package debug

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/danpilch/perfmon/pkg/procfs"
)

// DumpRaw prints the counters behind every reading, before any ratio is
// taken. Unreadable sources are printed with their error. When trace is not
// nil each value is also traced.
func DumpRaw(w io.Writer, fsys procfs.FS, pid int, trace *TraceLogger) {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("62")).Padding(0, 1)

	fmt.Fprintln(w)
	fmt.Fprintln(w, title.Render("Raw Counter Dump"))
	fmt.Fprintln(w, debugDim.Render(strings.Repeat("═", 60)))
	fmt.Fprintf(w, "  %s %s %s\n",
		header.Render("SOURCE           "),
		header.Render("FIELD         "),
		header.Render("RAW VALUE           "))
	fmt.Fprintln(w, "  "+debugDim.Render(strings.Repeat("─", 60)))

	row := func(source, field string, v uint64) {
		fmt.Fprintf(w, "  %-18s %-15s %d\n", source, field, v)
		if trace != nil {
			trace.LogValue("DumpRaw", source, field, float64(v))
		}
	}
	failed := func(source string, err error) {
		fmt.Fprintf(w, "  %-18s %-15s %s\n", source, "-", debugDim.Render(err.Error()))
	}

	if stat, err := fsys.AggregateCPU(); err != nil {
		failed("stat", err)
	} else {
		for _, f := range []struct {
			name string
			v    uint64
		}{
			{"user", stat.User}, {"nice", stat.Nice}, {"system", stat.System},
			{"idle", stat.Idle}, {"iowait", stat.IOWait}, {"irq", stat.IRQ},
			{"softirq", stat.SoftIRQ}, {"total", stat.Total()}, {"busy", stat.Busy()},
		} {
			row("stat", f.name, f.v)
		}
	}

	if info, err := fsys.MemInfo(); err != nil {
		failed("meminfo", err)
	} else {
		row("meminfo", "MemTotal kB", info.Total)
		if info.HasAvailable {
			row("meminfo", "MemAvailable kB", info.Available)
		}
		row("meminfo", "MemFree kB", info.Free)
		row("meminfo", "Buffers kB", info.Buffers)
		row("meminfo", "Cached kB", info.Cached)
	}

	source := fmt.Sprintf("%d/smaps_rollup", pid)
	if kb, err := fsys.ProcessPSS(pid); err != nil {
		failed(source, err)
	} else {
		row(source, "Pss kB", kb)
	}
}
