// Package health builds health snapshots of the supervised fleet and
// serves them over HTTP.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/infra/chain"
	"github.com/vietddude/nodewatch/internal/watchdog/metrics"
)

// ProcessProbe reports process name -> running.
type ProcessProbe interface {
	Check(ctx context.Context) (map[string]bool, error)
}

// ChainProbe compares a local node with its reference.
type ChainProbe = chain.Probe

// ProbeConfig pairs a chain probe with its timeout.
type ProbeConfig struct {
	Probe   ChainProbe
	Timeout time.Duration
}

// Aggregator runs the probes and merges their results into one snapshot.
type Aggregator struct {
	processes ProcessProbe
	syscoin   ProbeConfig
	ethereum  ProbeConfig
	now       func() time.Time
	log       *slog.Logger
}

func NewAggregator(processes ProcessProbe, syscoin, ethereum ProbeConfig) *Aggregator {
	return &Aggregator{
		processes: processes,
		syscoin:   syscoin,
		ethereum:  ethereum,
		now:       time.Now,
		log:       slog.Default().With("component", "health"),
	}
}

// Check produces a snapshot. Chains are only probed when every process is
// running; otherwise both are reported inconclusive. Probe failures never
// abort the snapshot. With includeDetail the snapshot keeps per-probe
// durations and errors.
func (a *Aggregator) Check(ctx context.Context, includeDetail bool) domain.HealthSnapshot {
	var (
		mu     sync.Mutex
		detail = &domain.ProbeDetail{
			Durations: make(map[string]time.Duration),
			Errors:    make(map[string]string),
		}
	)
	observe := func(name string, d time.Duration, err error) {
		metrics.ProbeLatency.WithLabelValues(name).Observe(d.Seconds())
		mu.Lock()
		defer mu.Unlock()
		detail.Durations[name] = d
		if err != nil {
			metrics.ProbeErrorsTotal.WithLabelValues(name).Inc()
			detail.Errors[name] = err.Error()
		}
	}

	snap := domain.HealthSnapshot{ObservedAt: a.now()}

	start := time.Now()
	running, err := a.processes.Check(ctx)
	observe("processes", time.Since(start), err)

	switch {
	case err != nil:
		a.log.Warn("process probe failed", "error", err)
		snap.Processes = domain.ProcessStatus{IsError: true, Err: err.Error()}
		snap.Syscoin = domain.InconclusiveChain("process probe failed")
		snap.Ethereum = domain.InconclusiveChain("process probe failed")
	default:
		snap.Processes = domain.NewProcessStatus(running)
		if snap.Processes.IsError {
			a.log.Warn("processes down, skipping chain checks", "down", snap.Processes.Down())
			snap.Syscoin = domain.InconclusiveChain("processes down")
			snap.Ethereum = domain.InconclusiveChain("processes down")
		} else {
			snap.Syscoin, snap.Ethereum = a.checkChains(ctx, observe)
		}
	}

	result := "ok"
	if !snap.Healthy() {
		result = "error"
	}
	metrics.HealthChecksTotal.WithLabelValues(result).Inc()

	if includeDetail {
		snap.Detail = detail
	}
	return snap
}

func (a *Aggregator) checkChains(
	ctx context.Context,
	observe func(string, time.Duration, error),
) (sys, eth domain.ChainStatus) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sys = a.checkChain(gctx, string(domain.ChainSyscoin), a.syscoin, observe)
		return nil
	})
	g.Go(func() error {
		eth = a.checkChain(gctx, string(domain.ChainEthereum), a.ethereum, observe)
		return nil
	})
	_ = g.Wait() // probes never return errors to the group
	return sys, eth
}

func (a *Aggregator) checkChain(
	ctx context.Context,
	name string,
	cfg ProbeConfig,
	observe func(string, time.Duration, error),
) domain.ChainStatus {
	if cfg.Probe == nil {
		return domain.InconclusiveChain("probe not configured")
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	status, err := cfg.Probe.Check(ctx)
	observe(name, time.Since(start), err)
	if err != nil {
		chainID := cfg.Probe.GetChainID()
		a.log.Warn("chain probe failed", "chain", name, "chain_id", chainID, "error", err)
		return domain.ChainStatus{IsError: true, Err: fmt.Sprintf("%s probe: %v", chainID, err)}
	}

	if status.Local != nil {
		metrics.ChainHeight.WithLabelValues(name, "local").Set(float64(status.Local.Height))
	}
	if status.Remote != nil {
		metrics.ChainHeight.WithLabelValues(name, "remote").Set(float64(status.Remote.Height))
	}
	return status
}
