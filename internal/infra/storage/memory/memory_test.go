package memory

import (
	"context"
	"testing"
	"time"

	"github.com/vietddude/nodewatch/internal/core/domain"
)

func TestHistoryRepo_RecentNewestFirst(t *testing.T) {
	repo := NewHistoryRepo()
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	for i, kind := range []domain.EventKind{domain.EventRestartStarted, domain.EventRestartFailed, domain.EventAutoRestartEnabled} {
		ev := &domain.Event{Kind: kind, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := repo.Record(ctx, ev); err != nil {
			t.Fatalf("Record: %v", err)
		}
		if ev.ID == "" {
			t.Fatal("expected ID to be assigned")
		}
	}

	events, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != domain.EventAutoRestartEnabled || events[1].Kind != domain.EventRestartFailed {
		t.Errorf("unexpected order: %v, %v", events[0].Kind, events[1].Kind)
	}
}

func TestHistoryRepo_DeleteOlderThan(t *testing.T) {
	repo := NewHistoryRepo()
	ctx := context.Background()
	now := time.Now()

	_ = repo.Record(ctx, &domain.Event{Kind: domain.EventRebootDetected, CreatedAt: now.Add(-48 * time.Hour)})
	_ = repo.Record(ctx, &domain.Event{Kind: domain.EventRestartStarted, CreatedAt: now})

	deleted, err := repo.DeleteOlderThan(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteOlderThan: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}

	events, _ := repo.Recent(ctx, 0)
	if len(events) != 1 || events[0].Kind != domain.EventRestartStarted {
		t.Errorf("unexpected remaining events: %+v", events)
	}
}
