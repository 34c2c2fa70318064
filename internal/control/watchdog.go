package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/heptiolabs/healthcheck"

	"github.com/vietddude/nodewatch/internal/core/config"
	"github.com/vietddude/nodewatch/internal/core/worker"
	"github.com/vietddude/nodewatch/internal/infra/process"
	redisclient "github.com/vietddude/nodewatch/internal/infra/redis"
	"github.com/vietddude/nodewatch/internal/infra/storage"
	"github.com/vietddude/nodewatch/internal/infra/storage/sqldb"
	"github.com/vietddude/nodewatch/internal/watchdog/engine"
	"github.com/vietddude/nodewatch/internal/watchdog/health"
	"github.com/vietddude/nodewatch/internal/watchdog/notify"
	"github.com/vietddude/nodewatch/internal/watchdog/uptime"
)

// ErrAlreadyRunning is returned when another watchdog holds the lock file.
var ErrAlreadyRunning = errors.New("watchdog already running (lock held by another process)")

// Watchdog is the main application struct that manages the component lifecycle.
type Watchdog struct {
	cfg        config.AppConfig
	lock       *flock.Flock
	journal    storage.HistoryRepository
	db         *sqldb.DB
	redis      *redisclient.Client
	gate       *notify.Gate
	aggregator *health.Aggregator
	engine     *engine.Engine
	tracker    *uptime.Tracker
	server     *health.Server
	pruner     *worker.Pruner
	log        *slog.Logger

	// wg tracks goroutines that write to the journal.
	wg sync.WaitGroup
}

// NewWatchdog creates a new Watchdog with all dependencies initialized.
// It takes the single-instance lock; Stop releases it.
func NewWatchdog(ctx context.Context, cfg config.AppConfig) (*Watchdog, error) {
	w := &Watchdog{cfg: cfg, log: slog.Default()}
	if err := w.build(ctx); err != nil {
		w.release()
		return nil, err
	}
	return w, nil
}

func (w *Watchdog) build(ctx context.Context) error {
	cfg := w.cfg

	// 1. Single instance lock
	if err := os.MkdirAll(filepath.Dir(cfg.LockFile), 0o755); err != nil {
		return fmt.Errorf("create lock dir: %w", err)
	}
	w.lock = flock.New(cfg.LockFile)
	locked, err := w.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		w.lock = nil
		return ErrAlreadyRunning
	}

	// 2. Event journal
	w.journal, w.db, err = OpenJournal(ctx, cfg.History)
	if err != nil {
		return err
	}
	w.log.Info("Event journal ready", "driver", cfg.History.Driver)

	// 3. Notifications
	sender, err := NewSender(cfg.Mail)
	if err != nil {
		return fmt.Errorf("failed to init mail sender: %w", err)
	}
	w.gate = notify.NewGate(sender, w.journal)

	// 4. Uptime tracker
	store, redisClient, err := NewUptimeStore(cfg.Uptime)
	if err != nil {
		// Reboot detection degrades to the file backend rather than blocking startup.
		w.log.Warn("Failed to init uptime backend, falling back to file", "backend", cfg.Uptime.Backend, "error", err)
		store = uptime.NewFileStore(cfg.Uptime.Path)
	}
	w.redis = redisClient
	w.tracker = uptime.NewTracker(store, w.gate, w.journal)

	// 5. Health aggregator and engine
	w.aggregator = NewAggregator(cfg)
	restarter := process.NewCommandRestarter(process.RestarterConfig{
		StopCommand:   cfg.Restart.StopCommand,
		StartCommand:  cfg.Restart.StartCommand,
		SettleTimeout: cfg.Restart.SettleTimeout,
	}, process.NewProbe(cfg.Processes))

	w.engine = engine.New(engine.Config{
		Interval:          cfg.Monitor.Interval(),
		EnableAutoRestart: cfg.Monitor.EnableAutoRestart,
		EnableMail:        cfg.Monitor.EnableMail,
		ReminderInterval:  cfg.Monitor.ReminderInterval,
		RestartTimeout:    cfg.Restart.Timeout,
	}, w.aggregator, restarter, w.gate, w.journal)

	// 6. HTTP server
	readiness := map[string]healthcheck.Check{}
	if w.db != nil {
		db := w.db
		readiness["journal"] = func() error { return db.Health(context.Background()) }
	}
	w.server = health.NewServer(health.ServerConfig{
		Port:            cfg.Server.Port,
		AdminToken:      cfg.Server.AdminToken,
		ReadinessChecks: readiness,
	}, w.aggregator, w.engine)

	// 7. Journal pruner
	if cfg.History.Retention > 0 {
		w.pruner = worker.NewPruner(cfg.History.Retention, w.journal)
	}

	return nil
}

// Start runs the reboot check and launches the background components.
// It returns immediately; components stop when ctx is cancelled.
func (w *Watchdog) Start(ctx context.Context) error {
	if result, err := w.tracker.Run(ctx); err != nil {
		w.log.Warn("Reboot check failed", "error", err)
	} else {
		w.log.Info("Reboot check done", "result", result)
	}

	go func() {
		if err := w.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.log.Error("Status server failed", "error", err)
		}
	}()

	if w.db != nil {
		w.db.StartMetricsCollector(ctx)
	}

	if w.pruner != nil {
		w.log.Info("Starting journal pruner", "retention", w.cfg.History.Retention)
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.pruner.Start(ctx)
		}()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.engine.Run(ctx); err != nil {
			w.log.Error("Engine failed", "error", err)
		}
	}()

	w.log.Info("Watchdog started",
		"port", w.cfg.Server.Port,
		"interval", w.cfg.Monitor.Interval(),
		"processes", w.cfg.Processes,
	)
	return nil
}

// Stop stops the server, waits for the engine and pruner to return and
// releases resources. Cancel the Start context first; if ctx expires while
// waiting, resources are released anyway and ctx.Err() is returned.
func (w *Watchdog) Stop(ctx context.Context) error {
	w.log.Info("Stopping Watchdog...")
	err := w.server.Stop(ctx)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		w.log.Warn("Background workers did not stop in time", "error", ctx.Err())
		err = errors.Join(err, ctx.Err())
	}

	w.release()
	return err
}

// Engine exposes the decision engine.
func (w *Watchdog) Engine() *engine.Engine {
	return w.engine
}

func (w *Watchdog) release() {
	if w.journal != nil {
		if err := w.journal.Close(); err != nil {
			w.log.Warn("Failed to close journal", "error", err)
		}
		w.journal = nil
	}
	if w.redis != nil {
		if err := w.redis.Close(); err != nil {
			w.log.Warn("Failed to close Redis", "error", err)
		}
		w.redis = nil
	}
	if w.lock != nil {
		_ = w.lock.Unlock()
		w.lock = nil
	}
}
