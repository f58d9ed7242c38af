// Package procfs reads kernel counters from a /proc tree.
//
// Every reader opens its file, parses it and closes it again before
// returning, so callers can poll without leaking descriptors.
package procfs

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	pfs "github.com/prometheus/procfs"
)

// DefaultRoot is the mount point of the proc filesystem.
const DefaultRoot = "/proc"

var (
	// ErrFormat is returned when a file does not have the expected layout.
	ErrFormat = errors.New("unexpected format")
	// ErrNotFound is returned when a requested field is absent.
	ErrNotFound = errors.New("field not found")
)

// FS is a proc tree on disk. The zero value is not usable; use NewFS.
//
// The stat first line and the first MemTotal line are parsed here. The rest
// of meminfo and the per-process smaps files go through prometheus/procfs.
type FS struct {
	fsys    fs.FS
	proc    pfs.FS
	procErr error
}

// NewFS returns an FS rooted at the given directory, /proc when empty. A root
// that cannot be opened is reported by the first read, not here.
func NewFS(root string) FS {
	if root == "" {
		root = DefaultRoot
	}
	proc, err := pfs.NewFS(root)
	return FS{fsys: os.DirFS(root), proc: proc, procErr: err}
}

// withFile opens name, hands it to fn and closes it on every path.
func (f FS) withFile(name string, fn func(io.Reader) error) error {
	if f.fsys == nil {
		return fmt.Errorf("procfs: %s: %w", name, fs.ErrInvalid)
	}
	file, err := f.fsys.Open(name)
	if err != nil {
		return err
	}
	defer file.Close()

	return fn(file)
}

func (f FS) procFS() (pfs.FS, error) {
	if f.fsys == nil {
		return pfs.FS{}, fmt.Errorf("procfs: %w", fs.ErrInvalid)
	}
	return f.proc, f.procErr
}

// AggregateCPU reads the first line of stat and parses it as the aggregate
// cpu line.
func (f FS) AggregateCPU() (CPUStat, error) {
	var stat CPUStat
	err := f.withFile("stat", func(r io.Reader) error {
		line, err := firstLine(r)
		if err != nil {
			return err
		}
		stat, err = ParseCPULine(line)
		return err
	})
	return stat, err
}

// PerCPU reads every per-core line (cpu0, cpu1, ...) of stat. Lines that
// cannot be parsed are skipped.
func (f FS) PerCPU() ([]CoreStat, error) {
	var cores []CoreStat
	err := f.withFile("stat", func(r io.Reader) error {
		var err error
		cores, err = ParseCoreLines(r)
		return err
	})
	return cores, err
}

// MemTotal returns the first MemTotal value of meminfo in KiB.
func (f FS) MemTotal() (uint64, error) {
	var total uint64
	err := f.withFile("meminfo", func(r io.Reader) error {
		var err error
		total, err = ScanMemTotal(r)
		return err
	})
	return total, err
}

// MemInfo holds the meminfo values the readers consume, in KiB.
type MemInfo struct {
	// Total is the first MemTotal line, the same value MemTotal returns.
	Total   uint64
	Free    uint64
	Buffers uint64
	Cached  uint64
	// Available is MemAvailable, or MemFree+Buffers+Cached on kernels older
	// than 3.14 where HasAvailable is false.
	Available    uint64
	HasAvailable bool
}

// MemInfo reads meminfo. Total always comes from the first MemTotal line so
// that it agrees with MemTotal when the file repeats the key.
func (f FS) MemInfo() (MemInfo, error) {
	total, err := f.MemTotal()
	if err != nil {
		return MemInfo{}, err
	}
	proc, err := f.procFS()
	if err != nil {
		return MemInfo{}, err
	}
	m, err := meminfo(proc)
	if err != nil {
		return MemInfo{}, err
	}

	info := MemInfo{
		Total:   total,
		Free:    kib(m.MemFree),
		Buffers: kib(m.Buffers),
		Cached:  kib(m.Cached),
	}
	if m.MemAvailable != nil {
		info.Available, info.HasAvailable = *m.MemAvailable, true
	} else {
		info.Available = info.Free + info.Buffers + info.Cached
	}
	return info, nil
}

// meminfo wraps the library parser, which indexes fields without checking
// the line width.
func meminfo(proc pfs.FS) (m pfs.Meminfo, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("meminfo: %v: %w", r, ErrFormat)
		}
	}()

	m, err = proc.Meminfo()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return pfs.Meminfo{}, fmt.Errorf("meminfo: %w: %w", ErrFormat, err)
	}
	return m, err
}

func kib(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v
}

// ProcessPSS returns the proportional set size of pid in KiB, read from
// smaps_rollup and, on older kernels, summed over smaps. A pid without a
// proc directory, or without either file, yields fs.ErrNotExist.
func (f FS) ProcessPSS(pid int) (uint64, error) {
	proc, err := f.procFS()
	if err != nil {
		return 0, err
	}
	p, err := proc.Proc(pid)
	if err != nil {
		return 0, err
	}
	rollup, err := p.ProcSMapsRollup()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, err
		}
		return 0, fmt.Errorf("smaps: %w: %w", ErrFormat, err)
	}
	return rollup.Pss / 1024, nil
}

func firstLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("empty file: %w", ErrFormat)
	}
	return scanner.Text(), nil
}

// ScanMemTotal scans meminfo-formatted text for the first MemTotal: line and
// returns its value in KiB. Lines with the prefix but no value are skipped.
func ScanMemTotal(r io.Reader) (uint64, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		kb, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("MemTotal %q: %w", fields[1], ErrFormat)
		}
		return kb, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("MemTotal: %w", ErrNotFound)
}
