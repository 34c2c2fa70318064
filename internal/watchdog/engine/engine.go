// Package engine runs the periodic health check, decides what to do about
// failures and drives the restart protocol.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/watchdog/health"
	"github.com/vietddude/nodewatch/internal/watchdog/metrics"
	"github.com/vietddude/nodewatch/internal/watchdog/notify"
)

// ErrRestartInProgress is returned when an operation needs the engine idle.
var ErrRestartInProgress = fmt.Errorf("restart in progress: %w", health.ErrConflict)

// Snapshotter is satisfied by health.Aggregator.
type Snapshotter interface {
	Check(ctx context.Context, includeDetail bool) domain.HealthSnapshot
}

// Restarter stops and relaunches the supervised processes.
type Restarter interface {
	Restart(ctx context.Context) error
}

// Notifier is satisfied by notify.Gate.
type Notifier interface {
	Notify(ctx context.Context, id notify.TemplateID, tokens notify.Tokens, urgent bool) error
}

// Recorder is satisfied by storage.HistoryRepository.
type Recorder interface {
	Record(ctx context.Context, event *domain.Event) error
}

// Config drives the engine.
type Config struct {
	Interval          time.Duration
	EnableAutoRestart bool
	EnableMail        bool
	ReminderInterval  time.Duration
	RestartTimeout    time.Duration
}

// Engine owns the EngineState. All state changes go through mu.
type Engine struct {
	cfg       Config
	health    Snapshotter
	restarter Restarter
	notifier  Notifier
	journal   Recorder

	mu    sync.Mutex
	state domain.EngineState

	tickerMu  sync.Mutex
	ticker    Ticker
	newTicker func(time.Duration) Ticker

	now func() time.Time
	log *slog.Logger
}

// New creates an idle engine. journal may be nil.
func New(cfg Config, snapshots Snapshotter, restarter Restarter, notifier Notifier, journal Recorder) *Engine {
	if cfg.RestartTimeout <= 0 {
		cfg.RestartTimeout = 5 * time.Minute
	}
	e := &Engine{
		cfg:       cfg,
		health:    snapshots,
		restarter: restarter,
		notifier:  notifier,
		journal:   journal,
		newTicker: newTimeTicker,
		now:       time.Now,
		log:       slog.Default().With("component", "engine"),
	}
	e.state = domain.EngineState{
		Mode:               domain.ModeIdle,
		AutoRestartEnabled: cfg.EnableAutoRestart,
		AgentStartTime:     e.now(),
	}
	metrics.SetEngineMode(string(domain.ModeIdle))
	return e
}

// State returns a copy of the current state.
func (e *Engine) State() domain.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// EnableAutoRestart re-arms automatic restarts after a failed attempt.
func (e *Engine) EnableAutoRestart(ctx context.Context) error {
	e.mu.Lock()
	if e.state.Mode == domain.ModeRestartInProgress {
		e.mu.Unlock()
		return ErrRestartInProgress
	}
	e.state.AutoRestartEnabled = true
	e.setMode(domain.ModeIdle)
	e.mu.Unlock()

	e.log.Info("automatic restart enabled")
	e.record(ctx, domain.EventAutoRestartEnabled, domain.ConditionNone, "enabled by operator")
	return nil
}

// Tick runs one health check and acts on it. It returns
// ErrRestartInProgress without probing when a restart is already running.
func (e *Engine) Tick(ctx context.Context) (Decision, error) {
	if e.State().Mode == domain.ModeRestartInProgress {
		return Decision{}, ErrRestartInProgress
	}

	snap := e.health.Check(ctx, true)
	now := e.now()

	e.mu.Lock()
	if e.state.Mode == domain.ModeRestartInProgress {
		e.mu.Unlock()
		return Decision{}, ErrRestartInProgress
	}
	d := Evaluate(snap, e.state, Options{
		MailEnabled:      e.cfg.EnableMail,
		ReminderInterval: e.cfg.ReminderInterval,
		Now:              now,
	})
	e.log.Debug("tick evaluated",
		"healthy", snap.Healthy(),
		"action", d.Action,
		"mode", e.state.Mode,
		"detail", snap.Detail,
	)

	switch d.Action {
	case ActionRestart:
		e.setMode(domain.ModeRestartInProgress)
		e.state.AgentStartTime = now
		e.mu.Unlock()

		e.suspend()
		defer e.resume()
		e.attemptRestart(ctx, d.Reason)

	case ActionNotify:
		e.state.LastNotified = d.Reason.Condition()
		e.state.LastNotifiedAt = now
		e.mu.Unlock()

		if err := e.notifier.Notify(ctx, d.Template, notify.ReasonTokens(d.Reason), false); err != nil {
			e.log.Warn("condition alert not delivered", "template", d.Template, "error", err)
		}

	default:
		if d.Reason == nil {
			e.state.LastNotified = domain.ConditionNone
		}
		e.mu.Unlock()
	}
	return d, nil
}

// setMode must be called with mu held.
func (e *Engine) setMode(mode domain.EngineMode) {
	e.state.Mode = mode
	metrics.SetEngineMode(string(mode))
}

func (e *Engine) record(ctx context.Context, kind domain.EventKind, cond domain.Condition, detail string) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Record(ctx, &domain.Event{Kind: kind, Condition: cond, Detail: detail}); err != nil {
		e.log.Warn("failed to journal event", "kind", kind, "error", err)
	}
}
