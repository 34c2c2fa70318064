package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/nodewatch/internal/core/domain"
)

// HistoryRepo keeps the event journal in memory. Used when no database is configured.
type HistoryRepo struct {
	events []domain.Event
	mu     sync.RWMutex
}

func NewHistoryRepo() *HistoryRepo {
	return &HistoryRepo{}
}

func (r *HistoryRepo) Record(ctx context.Context, event *domain.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *HistoryRepo) Recent(ctx context.Context, limit int) ([]domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *HistoryRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.events[:0]
	var deleted int64
	for _, e := range r.events {
		if e.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.events = kept
	return deleted, nil
}

func (r *HistoryRepo) Close() error { return nil }
