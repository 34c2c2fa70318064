package health

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vietddude/nodewatch/internal/core/domain"
)

type stubProcesses struct {
	running map[string]bool
	err     error
}

func (s *stubProcesses) Check(ctx context.Context) (map[string]bool, error) {
	return s.running, s.err
}

type stubChain struct {
	id     domain.ChainID
	status domain.ChainStatus
	err    error
	delay  time.Duration
	calls  atomic.Int32
}

func (s *stubChain) Check(ctx context.Context) (domain.ChainStatus, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return domain.ChainStatus{}, ctx.Err()
		}
	}
	return s.status, s.err
}

func (s *stubChain) GetChainID() domain.ChainID { return s.id }

func allUp() *stubProcesses {
	return &stubProcesses{running: map[string]bool{"agent": true, "syscoind": true, "sysgeth": true, "sysrelayer": true}}
}

func okChain(h uint64) *stubChain {
	tip := &domain.ChainTip{Height: h}
	return &stubChain{status: domain.ChainStatus{Local: tip, Remote: tip}}
}

func TestAggregator_AllHealthy(t *testing.T) {
	agg := NewAggregator(allUp(), ProbeConfig{Probe: okChain(10)}, ProbeConfig{Probe: okChain(20)})

	snap := agg.Check(context.Background(), false)
	if !snap.Healthy() {
		t.Fatalf("expected healthy snapshot, got %+v", snap)
	}
	if snap.Syscoin.Local.Height != 10 || snap.Ethereum.Local.Height != 20 {
		t.Errorf("unexpected chain statuses: %+v %+v", snap.Syscoin, snap.Ethereum)
	}
	if snap.Detail != nil {
		t.Error("expected no detail when not requested")
	}
}

func TestAggregator_ProcessDownSkipsChains(t *testing.T) {
	procs := allUp()
	procs.running["sysgeth"] = false
	sys, eth := okChain(1), okChain(1)

	snap := NewAggregator(procs, ProbeConfig{Probe: sys}, ProbeConfig{Probe: eth}).Check(context.Background(), true)

	if !snap.Processes.IsError {
		t.Fatal("expected process error")
	}
	if sys.calls.Load() != 0 || eth.calls.Load() != 0 {
		t.Error("chain probes must not run while processes are down")
	}
	if !snap.Syscoin.Inconclusive || !snap.Syscoin.IsError || !snap.Ethereum.Inconclusive {
		t.Errorf("expected inconclusive chains, got %+v %+v", snap.Syscoin, snap.Ethereum)
	}
}

func TestAggregator_ProcessProbeError(t *testing.T) {
	procs := &stubProcesses{err: errors.New("permission denied")}
	snap := NewAggregator(procs, ProbeConfig{Probe: okChain(1)}, ProbeConfig{Probe: okChain(1)}).Check(context.Background(), true)

	if !snap.Processes.IsError || snap.Processes.Err == "" {
		t.Fatalf("expected process probe error, got %+v", snap.Processes)
	}
	if !snap.Syscoin.Inconclusive || !snap.Ethereum.Inconclusive {
		t.Error("expected inconclusive chains")
	}
	if snap.Detail == nil || snap.Detail.Errors["processes"] == "" {
		t.Errorf("expected detail to record the probe error, got %+v", snap.Detail)
	}
}

func TestAggregator_ChainProbeErrorIsIsolated(t *testing.T) {
	sys := &stubChain{id: "syscoin-testnet", err: errors.New("connection refused")}
	eth := okChain(5)

	snap := NewAggregator(allUp(), ProbeConfig{Probe: sys}, ProbeConfig{Probe: eth}).Check(context.Background(), true)

	if !snap.Syscoin.IsError || snap.Syscoin.Local != nil || snap.Syscoin.Remote != nil {
		t.Errorf("expected syscoin error with nil tips, got %+v", snap.Syscoin)
	}
	if want := "syscoin-testnet probe: connection refused"; snap.Syscoin.Err != want {
		t.Errorf("expected error %q, got %q", want, snap.Syscoin.Err)
	}
	if snap.Ethereum.IsError {
		t.Errorf("ethereum should be unaffected, got %+v", snap.Ethereum)
	}
	if _, ok := snap.Detail.Durations["ethereum"]; !ok {
		t.Error("expected ethereum duration in detail")
	}
}

func TestAggregator_ChainTimeout(t *testing.T) {
	slow := okChain(1)
	slow.delay = time.Second

	start := time.Now()
	snap := NewAggregator(allUp(),
		ProbeConfig{Probe: slow, Timeout: 50 * time.Millisecond},
		ProbeConfig{Probe: okChain(1)},
	).Check(context.Background(), false)

	if time.Since(start) > 500*time.Millisecond {
		t.Error("timeout was not applied")
	}
	if !snap.Syscoin.IsError {
		t.Error("expected timed out probe to report an error")
	}
}

func TestAggregator_ChainsRunConcurrently(t *testing.T) {
	sys, eth := okChain(1), okChain(1)
	sys.delay, eth.delay = 200*time.Millisecond, 200*time.Millisecond

	start := time.Now()
	NewAggregator(allUp(), ProbeConfig{Probe: sys}, ProbeConfig{Probe: eth}).Check(context.Background(), false)
	if elapsed := time.Since(start); elapsed >= 390*time.Millisecond {
		t.Errorf("expected probes to overlap, took %v", elapsed)
	}
}
