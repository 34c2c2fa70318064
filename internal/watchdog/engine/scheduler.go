package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/nodewatch/internal/core/domain"
)

// Ticker is the subset of time.Ticker the scheduler uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
	Reset(d time.Duration)
}

type timeTicker struct {
	*time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

// Run ticks every Interval until ctx is done. Ticks and restart attempts
// run on this goroutine; the ticker is stopped while a restart runs.
func (e *Engine) Run(ctx context.Context) error {
	if e.cfg.Interval <= 0 {
		return fmt.Errorf("invalid interval %v", e.cfg.Interval)
	}

	t := e.newTicker(e.cfg.Interval)
	e.tickerMu.Lock()
	e.ticker = t
	e.tickerMu.Unlock()
	defer func() {
		e.tickerMu.Lock()
		e.ticker = nil
		e.tickerMu.Unlock()
		t.Stop()
	}()

	e.log.Info("engine started",
		"interval", e.cfg.Interval,
		"autorestart", e.cfg.EnableAutoRestart,
		"mail", e.cfg.EnableMail,
	)

	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine stopped")
			return nil
		case <-t.C():
			e.safeTick(ctx)
		}
	}
}

// safeTick keeps the loop alive across panics. Restarter panics are handled
// inside attemptRestart; anything left here only unwinds the mode.
func (e *Engine) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("recovered panic in tick", "panic", r)
			e.mu.Lock()
			if e.state.Mode == domain.ModeRestartInProgress {
				e.state.AutoRestartEnabled = false
				e.setMode(domain.ModeAutoRestartDisabled)
			}
			e.mu.Unlock()
		}
	}()

	if _, err := e.Tick(ctx); err != nil {
		e.log.Debug("tick skipped", "error", err)
	}
}

func (e *Engine) suspend() {
	e.tickerMu.Lock()
	defer e.tickerMu.Unlock()
	if e.ticker != nil {
		e.ticker.Stop()
	}
}

func (e *Engine) resume() {
	e.tickerMu.Lock()
	defer e.tickerMu.Unlock()
	if e.ticker != nil {
		e.ticker.Reset(e.cfg.Interval)
	}
}
