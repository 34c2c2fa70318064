// Package process inspects and restarts the supervised processes on this host.
package process

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/process"
)

// Linux truncates comm names to 15 bytes.
const commLen = 15

// Lister returns the names of all processes currently running.
type Lister func(ctx context.Context) ([]string, error)

// Probe reports which of the required processes are running.
type Probe struct {
	required []string
	list     Lister
}

// NewProbe creates a probe backed by gopsutil.
func NewProbe(required []string) *Probe {
	return NewProbeWithLister(required, ListNames)
}

func NewProbeWithLister(required []string, list Lister) *Probe {
	return &Probe{required: required, list: list}
}

// Check returns required process name -> running.
func (p *Probe) Check(ctx context.Context) (map[string]bool, error) {
	names, err := p.list(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		seen[n] = struct{}{}
	}

	running := make(map[string]bool, len(p.required))
	for _, name := range p.required {
		_, ok := seen[name]
		if !ok && len(name) > commLen {
			_, ok = seen[name[:commLen]]
		}
		running[name] = ok
	}
	return running, nil
}

// ListNames lists process names via gopsutil. Processes that exit while
// being inspected are skipped.
func ListNames(ctx context.Context) ([]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(procs))
	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		names = append(names, filepath.Base(name))
	}
	return names, nil
}
