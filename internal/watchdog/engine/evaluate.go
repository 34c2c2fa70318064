package engine

import (
	"time"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/watchdog/notify"
)

// Action is what a tick should do.
type Action int

const (
	ActionNone Action = iota
	ActionNotify
	ActionRestart
)

func (a Action) String() string {
	switch a {
	case ActionNotify:
		return "notify"
	case ActionRestart:
		return "restart"
	default:
		return "none"
	}
}

// Decision is the result of Evaluate.
type Decision struct {
	Action   Action
	Reason   domain.FailureReason
	Template notify.TemplateID // set for ActionNotify
}

// Options are the configuration inputs of Evaluate.
type Options struct {
	MailEnabled      bool
	ReminderInterval time.Duration // 0 = remind every tick
	Now              time.Time
}

// Evaluate decides between doing nothing, sending one diagnostic mail and
// restarting. It has no side effects.
func Evaluate(snap domain.HealthSnapshot, state domain.EngineState, opts Options) Decision {
	reason := ReasonFor(snap)
	if reason == nil {
		return Decision{Action: ActionNone}
	}

	if state.AutoRestartEnabled && state.Mode != domain.ModeRestartInProgress {
		return Decision{Action: ActionRestart, Reason: reason}
	}

	if !opts.MailEnabled {
		return Decision{Action: ActionNone, Reason: reason}
	}
	tpl, ok := templateFor(reason)
	if !ok {
		return Decision{Action: ActionNone, Reason: reason}
	}
	if throttled(reason.Condition(), state, opts) {
		return Decision{Action: ActionNone, Reason: reason}
	}
	return Decision{Action: ActionNotify, Reason: reason, Template: tpl}
}

// ReasonFor returns the highest priority failure in snap, or nil when healthy.
// Order: process down, chain A mismatch, chain B desync, undetermined.
func ReasonFor(snap domain.HealthSnapshot) domain.FailureReason {
	switch {
	case snap.Healthy():
		return nil
	case snap.Processes.IsError:
		return domain.ProcessDown{Processes: snap.Processes}
	case snap.Syscoin.IsError:
		return domain.ChainMismatch{Local: snap.Syscoin.Local, Remote: snap.Syscoin.Remote}
	case snap.Ethereum.IsError:
		return domain.ChainDesync{Local: snap.Ethereum.Local, Remote: snap.Ethereum.Remote}
	default:
		return domain.Undetermined{}
	}
}

func templateFor(reason domain.FailureReason) (notify.TemplateID, bool) {
	switch reason.Condition() {
	case domain.ConditionProcessDown:
		return notify.ProcessDown, true
	case domain.ConditionChainMismatch:
		return notify.ChainAMismatch, true
	case domain.ConditionChainDesync:
		return notify.ChainBDesync, true
	default:
		return "", false
	}
}

func throttled(cond domain.Condition, state domain.EngineState, opts Options) bool {
	if opts.ReminderInterval <= 0 || state.LastNotified != cond {
		return false
	}
	return opts.Now.Sub(state.LastNotifiedAt) < opts.ReminderInterval
}
