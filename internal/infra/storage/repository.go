package storage

import (
	"context"
	"time"

	"github.com/vietddude/nodewatch/internal/core/domain"
)

// HistoryRepository is the watchdog event journal.
type HistoryRepository interface {
	// Record appends an event. Empty IDs and zero timestamps are filled in.
	Record(ctx context.Context, event *domain.Event) error

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]domain.Event, error)

	// DeleteOlderThan removes events created before the cutoff and returns the count.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases the underlying connection, if any.
	Close() error
}
