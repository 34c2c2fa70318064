package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/nodewatch/internal/core/domain"
)

// HistoryRepo implements storage.HistoryRepository on top of DB.
type HistoryRepo struct {
	db *DB
}

// NewHistoryRepo creates a new SQL-backed event journal.
func NewHistoryRepo(db *DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

type eventRow struct {
	ID        string `db:"id"`
	Kind      string `db:"kind"`
	Condition string `db:"condition_kind"`
	Detail    string `db:"detail"`
	CreatedAt int64  `db:"created_at"`
}

// Record inserts an event.
func (r *HistoryRepo) Record(ctx context.Context, event *domain.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query := r.db.Rebind(`
		INSERT INTO watchdog_events (id, kind, condition_kind, detail, created_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(
		ctx,
		query,
		event.ID,
		string(event.Kind),
		string(event.Condition),
		event.Detail,
		event.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// Recent returns the newest events first.
func (r *HistoryRepo) Recent(ctx context.Context, limit int) ([]domain.Event, error) {
	if limit <= 0 {
		limit = 50
	}
	query := r.db.Rebind(`
		SELECT id, kind, condition_kind, detail, created_at
		FROM watchdog_events
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`)

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}

	events := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, domain.Event{
			ID:        row.ID,
			Kind:      domain.EventKind(row.Kind),
			Condition: domain.Condition(row.Condition),
			Detail:    row.Detail,
			CreatedAt: time.UnixMilli(row.CreatedAt),
		})
	}
	return events, nil
}

// DeleteOlderThan removes events created before cutoff.
func (r *HistoryRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := r.db.Rebind(`DELETE FROM watchdog_events WHERE created_at < ?`)
	res, err := r.db.ExecContext(ctx, query, cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete events: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted events: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (r *HistoryRepo) Close() error {
	return r.db.Close()
}
