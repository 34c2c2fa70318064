package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/nodewatch/internal/infra/storage"
)

// Pruner deletes journal events older than the retention period.
type Pruner struct {
	retention time.Duration
	repo      storage.HistoryRepository
	now       func() time.Time
}

// NewPruner creates a new Pruner worker.
func NewPruner(retention time.Duration, repo storage.HistoryRepository) *Pruner {
	return &Pruner{
		retention: retention,
		repo:      repo,
		now:       time.Now,
	}
}

// Start runs the pruner loop until ctx is done.
func (p *Pruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		return // Retention disabled
	}

	// Check at 10% of the retention period, clamped to [1m, 1h]
	interval := min(p.retention/10, 1*time.Hour)
	interval = max(interval, 1*time.Minute)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial prune
	p.prune(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *Pruner) prune(ctx context.Context) {
	cutoff := p.now().Add(-p.retention)

	deleted, err := p.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		slog.Error("[Pruner] failed to prune journal", "error", err)
		return
	}
	if deleted > 0 {
		slog.Debug("[Pruner] pruned journal", "deleted", deleted, "cutoff", cutoff)
	}
}
