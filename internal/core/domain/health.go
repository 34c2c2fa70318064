package domain

import (
	"maps"
	"slices"
	"time"
)

// ProcessStatus holds the liveness of each supervised process.
type ProcessStatus struct {
	Running map[string]bool `json:"running"`
	// IsError is true when any required process is down or the probe itself failed.
	IsError bool   `json:"isError"`
	Err     string `json:"error,omitempty"`
}

// NewProcessStatus derives IsError from the running map.
func NewProcessStatus(running map[string]bool) ProcessStatus {
	ps := ProcessStatus{Running: running}
	for _, up := range running {
		if !up {
			ps.IsError = true
			break
		}
	}
	return ps
}

// Names returns process names in a stable order.
func (p ProcessStatus) Names() []string {
	return slices.Sorted(maps.Keys(p.Running))
}

// Down returns the names of processes that are not running.
func (p ProcessStatus) Down() []string {
	var down []string
	for _, name := range p.Names() {
		if !p.Running[name] {
			down = append(down, name)
		}
	}
	return down
}

// StatusFields are the top-level keys of the flattened status body that are
// not process names. A supervised process may not use one of them.
var StatusFields = []string{"isError", "error", "sysStatus", "ethStatus", "agentStartTime", "mode"}

// ChainTip is a point on a chain as seen by one node.
type ChainTip struct {
	Height uint64 `json:"height"`
	Hash   string `json:"hash,omitempty"`
}

// ChainStatus compares the local node with its reference.
type ChainStatus struct {
	IsError      bool      `json:"isError"`
	Inconclusive bool      `json:"inconclusive,omitempty"`
	Local        *ChainTip `json:"local"`
	Remote       *ChainTip `json:"remote"`
	Err          string    `json:"error,omitempty"`
}

// InconclusiveChain is the status used when a chain could not be probed.
func InconclusiveChain(reason string) ChainStatus {
	return ChainStatus{IsError: true, Inconclusive: true, Err: reason}
}

// ProbeDetail carries diagnostics that only verbose snapshots retain.
type ProbeDetail struct {
	Durations map[string]time.Duration `json:"durations"`
	Errors    map[string]string        `json:"errors,omitempty"`
}

// HealthSnapshot is the aggregated point-in-time result of all probes.
type HealthSnapshot struct {
	Processes  ProcessStatus `json:"processStatus"`
	Syscoin    ChainStatus   `json:"sysStatus"`
	Ethereum   ChainStatus   `json:"ethStatus"`
	ObservedAt time.Time     `json:"observedAt"`
	Detail     *ProbeDetail  `json:"detail,omitempty"`
}

// Healthy reports whether no status carries an error.
func (s HealthSnapshot) Healthy() bool {
	return !s.Processes.IsError && !s.Syscoin.IsError && !s.Ethereum.IsError
}
