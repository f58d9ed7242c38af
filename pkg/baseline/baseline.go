// Package baseline saves reading snapshots and detects drift against them.
package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/danpilch/perfmon/pkg/reading"
)

// ErrInvalidName is returned for names that would escape the baseline dir.
var ErrInvalidName = errors.New("invalid baseline name")

// Baseline is a saved snapshot. ID changes every time a baseline of the same
// name is re-saved.
type Baseline struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Timestamp time.Time         `json:"timestamp"`
	Hostname  string            `json:"hostname"`
	Snapshot  reading.Snapshot  `json:"snapshot"`
	Rows      []reading.Row     `json:"rows"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// DefaultDir returns the default baseline storage directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".perfmon", "baselines")
	}
	return filepath.Join(home, ".perfmon", "baselines")
}

func path(dir, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if dir == "" {
		dir = DefaultDir()
	}
	return filepath.Join(dir, name+".json"), nil
}

// New creates a baseline from a snapshot, flattening it with t.
func New(name string, snap reading.Snapshot, t reading.Thresholds) *Baseline {
	hostname, _ := os.Hostname()
	return &Baseline{
		ID:        uuid.NewString(),
		Name:      name,
		Timestamp: snap.Time,
		Hostname:  hostname,
		Snapshot:  snap,
		Rows:      snap.Rows(t),
	}
}

// Save writes the baseline to <dir>/<name>.json.
func (b *Baseline) Save(dir string) error {
	p, err := path(dir, b.Name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("cannot create baseline directory: %w", err)
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot marshal baseline: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("cannot write baseline: %w", err)
	}
	return nil
}

// Load reads a baseline by name.
func Load(name, dir string) (*Baseline, error) {
	p, err := path(dir, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("cannot read baseline %q: %w", name, err)
	}

	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("cannot parse baseline %q: %w", name, err)
	}
	return &b, nil
}

// Delete removes a baseline by name.
func Delete(name, dir string) error {
	p, err := path(dir, name)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

// List returns the saved baseline names, sorted. A missing dir is empty.
func List(dir string) ([]string, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, strings.TrimSuffix(e.Name(), ".json"))
		}
	}
	sort.Strings(names)
	return names, nil
}
