package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/nodewatch/internal/core/domain"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeRecorder struct {
	events []domain.Event
}

func (f *fakeRecorder) Record(ctx context.Context, event *domain.Event) error {
	f.events = append(f.events, *event)
	return nil
}

func TestRender_AllTemplates(t *testing.T) {
	g := NewGate(&fakeSender{}, nil)
	for id := range sources {
		msg, err := g.Render(id, Tokens{Host: "bridge-1"})
		require.NoError(t, err, id)
		assert.Contains(t, msg.Subject, "bridge-1", id)
		assert.NotEmpty(t, msg.Text, id)
		assert.NotEmpty(t, msg.HTML, id)
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	g := NewGate(&fakeSender{}, nil)
	_, err := g.Render("nope", Tokens{})
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestNotify_RestartInProgressCarriesReason(t *testing.T) {
	sender := &fakeSender{}
	g := NewGate(sender, nil)

	reason := domain.ProcessDown{Processes: domain.NewProcessStatus(map[string]bool{
		"agent":    true,
		"sysgeth":  false,
		"syscoind": true,
	})}
	require.NoError(t, g.Notify(context.Background(), RestartInProgress, ReasonTokens(reason), true))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.True(t, msg.Urgent)
	assert.Contains(t, msg.Text, "sysgeth: false")
	assert.Contains(t, msg.HTML, `style="color:red; font-weight: bold"`)
	assert.Contains(t, msg.HTML, "sysgeth: false")
}

func TestNotify_ChainTokensAreJSON(t *testing.T) {
	sender := &fakeSender{}
	g := NewGate(sender, nil)

	reason := domain.ChainMismatch{
		Local:  &domain.ChainTip{Height: 100, Hash: "aa"},
		Remote: nil,
	}
	require.NoError(t, g.Notify(context.Background(), ChainAMismatch, ReasonTokens(reason), false))

	msg := sender.sent[0]
	assert.Contains(t, msg.Text, `local:  {"height":100,"hash":"aa"}`)
	assert.Contains(t, msg.Text, "remote: null")
	assert.False(t, msg.Urgent)
}

func TestNotify_ProcessDownListsProcesses(t *testing.T) {
	sender := &fakeSender{}
	g := NewGate(sender, nil)

	reason := domain.ProcessDown{Processes: domain.NewProcessStatus(map[string]bool{"agent": false, "sysrelayer": true})}
	require.NoError(t, g.Notify(context.Background(), ProcessDown, ReasonTokens(reason), false))

	text := sender.sent[0].Text
	assert.True(t, strings.Index(text, "agent: DOWN") < strings.Index(text, "sysrelayer: running"))
}

func TestNotify_HTMLEscapesTokens(t *testing.T) {
	sender := &fakeSender{}
	g := NewGate(sender, nil)

	require.NoError(t, g.Notify(context.Background(), ChainBDesync, Tokens{Local: "<script>", Remote: "1"}, false))
	assert.NotContains(t, sender.sent[0].HTML, "<script>")
	assert.Contains(t, sender.sent[0].Text, "<script>")
}

func TestNotify_SendFailureIsJournaled(t *testing.T) {
	sender := &fakeSender{err: errors.New("dial tcp: connection refused")}
	journal := &fakeRecorder{}
	g := NewGate(sender, journal)

	err := g.Notify(context.Background(), RestartFailure, Tokens{}, true)
	require.Error(t, err)

	require.Len(t, journal.events, 1)
	assert.Equal(t, domain.EventNotificationFailed, journal.events[0].Kind)
	assert.Contains(t, journal.events[0].Detail, "connection refused")
}

func TestNotify_SuccessIsJournaled(t *testing.T) {
	journal := &fakeRecorder{}
	g := NewGate(&fakeSender{}, journal)

	require.NoError(t, g.Notify(context.Background(), RebootDetected, Tokens{}, false))
	require.Len(t, journal.events, 1)
	assert.Equal(t, domain.EventNotificationSent, journal.events[0].Kind)
}

func TestReasonTokens_Undetermined(t *testing.T) {
	tokens := ReasonTokens(domain.Undetermined{})
	assert.Equal(t, "Cannot determine!", tokens.Reason)
	assert.Empty(t, tokens.Processes)
	assert.Empty(t, tokens.Local)
}

func TestLogSender(t *testing.T) {
	assert.NoError(t, NewLogSender().Send(context.Background(), Message{Subject: "hi"}))
}
