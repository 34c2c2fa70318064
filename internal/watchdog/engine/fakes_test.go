package engine

import (
	"context"
	"sync"
	"time"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/watchdog/notify"
)

// snapshotQueue returns queued snapshots in order, repeating the last one.
type snapshotQueue struct {
	mu    sync.Mutex
	snaps []domain.HealthSnapshot
	calls int
}

func (q *snapshotQueue) Check(ctx context.Context, includeDetail bool) domain.HealthSnapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	i := min(q.calls, len(q.snaps)-1)
	q.calls++
	return q.snaps[i]
}

type fakeRestarter struct {
	mu      sync.Mutex
	calls   int
	err     error
	block   chan struct{} // when set, Restart waits for it to close
	started chan struct{}
	panics  bool
}

func (f *fakeRestarter) Restart(ctx context.Context) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.started != nil {
		close(f.started)
	}
	if f.block != nil {
		<-f.block
	}
	if f.panics {
		panic("restart exploded")
	}
	return f.err
}

func (f *fakeRestarter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type sentMail struct {
	id     notify.TemplateID
	tokens notify.Tokens
	urgent bool
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (r *recordingNotifier) Notify(ctx context.Context, id notify.TemplateID, tokens notify.Tokens, urgent bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMail{id: id, tokens: tokens, urgent: urgent})
	return r.err
}

func (r *recordingNotifier) IDs() []notify.TemplateID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]notify.TemplateID, 0, len(r.sent))
	for _, s := range r.sent {
		ids = append(ids, s.id)
	}
	return ids
}

type recordingJournal struct {
	mu     sync.Mutex
	events []domain.Event
}

func (j *recordingJournal) Record(ctx context.Context, ev *domain.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, *ev)
	return nil
}

func (j *recordingJournal) Kinds() []domain.EventKind {
	j.mu.Lock()
	defer j.mu.Unlock()
	kinds := make([]domain.EventKind, 0, len(j.events))
	for _, e := range j.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

// fakeTicker is driven by the test through ch.
type fakeTicker struct {
	mu     sync.Mutex
	ch     chan time.Time
	stops  int
	resets []time.Duration
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{ch: make(chan time.Time)}
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
}

func (f *fakeTicker) Reset(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, d)
}

func (f *fakeTicker) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops, len(f.resets)
}

func healthy() domain.HealthSnapshot {
	tip := &domain.ChainTip{Height: 100, Hash: "aa"}
	return domain.HealthSnapshot{
		Processes: domain.NewProcessStatus(map[string]bool{"agent": true, "syscoind": true}),
		Syscoin:   domain.ChainStatus{Local: tip, Remote: tip},
		Ethereum:  domain.ChainStatus{Local: tip, Remote: tip},
	}
}

func syscoindDown() domain.HealthSnapshot {
	return domain.HealthSnapshot{
		Processes: domain.NewProcessStatus(map[string]bool{"agent": true, "syscoind": false}),
		Syscoin:   domain.InconclusiveChain("processes down"),
		Ethereum:  domain.InconclusiveChain("processes down"),
	}
}

func chainAMismatch() domain.HealthSnapshot {
	s := healthy()
	s.Syscoin = domain.ChainStatus{
		IsError: true,
		Local:   &domain.ChainTip{Height: 100, Hash: "fork"},
		Remote:  &domain.ChainTip{Height: 100, Hash: "main"},
	}
	return s
}

func chainBDesync() domain.HealthSnapshot {
	s := healthy()
	s.Ethereum = domain.ChainStatus{
		IsError: true,
		Local:   &domain.ChainTip{Height: 10},
		Remote:  &domain.ChainTip{Height: 100},
	}
	return s
}
