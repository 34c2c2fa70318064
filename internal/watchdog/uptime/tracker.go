package uptime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/watchdog/metrics"
	"github.com/vietddude/nodewatch/internal/watchdog/notify"
)

// Source returns the current host uptime in seconds.
type Source func(ctx context.Context) (float64, error)

// Notifier is satisfied by notify.Gate.
type Notifier interface {
	Notify(ctx context.Context, id notify.TemplateID, tokens notify.Tokens, urgent bool) error
}

// Recorder is satisfied by storage.HistoryRepository.
type Recorder interface {
	Record(ctx context.Context, event *domain.Event) error
}

// Tracker runs the reboot check once at startup.
type Tracker struct {
	store    Store
	source   Source
	notifier Notifier
	journal  Recorder
	log      *slog.Logger
}

// NewTracker creates a tracker reading uptime from the OS. journal may be nil.
func NewTracker(store Store, notifier Notifier, journal Recorder) *Tracker {
	return &Tracker{
		store:    store,
		source:   HostUptime,
		notifier: notifier,
		journal:  journal,
		log:      slog.Default().With("component", "uptime"),
	}
}

// WithSource replaces the uptime source.
func (t *Tracker) WithSource(src Source) *Tracker {
	t.source = src
	return t
}

// Run compares the stored uptime with the current one, overwrites the
// record and sends a single notice when the host was rebooted.
func (t *Tracker) Run(ctx context.Context) (RebootResult, error) {
	stored, found, err := t.store.Load(ctx)
	if err != nil {
		t.log.Warn("failed to read uptime record, treating as first run", "error", err)
		found = false
	}

	current, err := t.source(ctx)
	if err != nil {
		return NoPriorRecord, fmt.Errorf("read host uptime: %w", err)
	}

	result := DetectReboot(stored, found, current)
	t.log.Info("uptime checked", "stored", stored, "current", current, "result", result)

	if err := t.store.Save(ctx, current); err != nil {
		t.log.Error("failed to write uptime record", "error", err)
	}

	if result == RebootDetected {
		metrics.RebootsDetected.Inc()
		if t.journal != nil {
			ev := &domain.Event{
				Kind:   domain.EventRebootDetected,
				Detail: fmt.Sprintf("uptime %.0fs < recorded %.0fs", current, stored),
			}
			if err := t.journal.Record(ctx, ev); err != nil {
				t.log.Warn("failed to journal reboot", "error", err)
			}
		}
		if err := t.notifier.Notify(ctx, notify.RebootDetected, notify.Tokens{}, false); err != nil {
			t.log.Error("failed to send reboot notice", "error", err)
		}
	}
	return result, nil
}

// HostUptime reads the OS uptime via gopsutil.
func HostUptime(ctx context.Context) (float64, error) {
	secs, err := host.UptimeWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return float64(secs), nil
}
