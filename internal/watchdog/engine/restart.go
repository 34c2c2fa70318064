package engine

import (
	"context"
	"fmt"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/watchdog/metrics"
	"github.com/vietddude/nodewatch/internal/watchdog/notify"
)

// Outcome is the result of a restart attempt.
type Outcome int

const (
	RestartSucceeded Outcome = iota
	RestartFailed
)

func (o Outcome) String() string {
	if o == RestartSucceeded {
		return "succeeded"
	}
	return "failed"
}

// attemptRestart runs with Mode == RestartInProgress already set by Tick.
func (e *Engine) attemptRestart(ctx context.Context, reason domain.FailureReason) Outcome {
	if reason == nil {
		reason = domain.Undetermined{}
	}
	cond := reason.Condition()
	e.log.Warn("attempting restart", "condition", cond)
	e.record(ctx, domain.EventRestartStarted, cond, reason.Text())

	if err := e.notifier.Notify(ctx, notify.RestartInProgress, notify.ReasonTokens(reason), true); err != nil {
		e.log.Warn("restart notice not delivered", "error", err)
	}

	outcome := RestartFailed
	var failure domain.FailureReason

	err := e.runRestarter(ctx)

	if err != nil {
		e.log.Error("restart primitive failed", "error", err)
		failure = reason
	} else {
		snap := e.health.Check(ctx, true)
		if snap.Healthy() {
			outcome = RestartSucceeded
		} else {
			failure = ReasonFor(snap)
			e.log.Error("restart did not restore health", "condition", failure.Condition())
		}
	}

	e.mu.Lock()
	if outcome == RestartSucceeded {
		e.setMode(domain.ModeIdle)
	} else {
		e.state.AutoRestartEnabled = false
		e.setMode(domain.ModeAutoRestartDisabled)
	}
	e.mu.Unlock()

	metrics.RestartAttemptsTotal.WithLabelValues(outcome.String()).Inc()

	if outcome == RestartSucceeded {
		e.log.Info("restart succeeded")
		e.record(ctx, domain.EventRestartSucceeded, cond, "")
		if err := e.notifier.Notify(ctx, notify.RestartSuccess, notify.ReasonTokens(reason), false); err != nil {
			e.log.Warn("restart success notice not delivered", "error", err)
		}
		return outcome
	}

	detail := "restart command failed"
	if err != nil {
		detail = err.Error()
	} else if failure != nil {
		detail = failure.Text()
	}
	e.record(ctx, domain.EventRestartFailed, cond, detail)
	if err := e.notifier.Notify(ctx, notify.RestartFailure, notify.ReasonTokens(failure), true); err != nil {
		e.log.Warn("restart failure notice not delivered", "error", err)
	}
	return outcome
}

// runRestarter bounds the restart primitive by RestartTimeout and reports a
// panic as an ordinary failure.
func (e *Engine) runRestarter(ctx context.Context) (err error) {
	rctx, cancel := context.WithTimeout(ctx, e.cfg.RestartTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("restart panicked: %v", r)
		}
	}()
	return e.restarter.Restart(rctx)
}
