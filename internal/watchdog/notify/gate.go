// Package notify renders notification templates and hands them to a Sender.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"strings"

	"github.com/valyala/bytebufferpool"

	"github.com/vietddude/nodewatch/internal/core/domain"
	"github.com/vietddude/nodewatch/internal/watchdog/metrics"
)

// ErrUnknownTemplate is returned for template IDs that are not registered.
var ErrUnknownTemplate = errors.New("unknown notification template")

// Tokens are substituted into templates.
type Tokens struct {
	Host       string
	Reason     string
	ReasonHTML template.HTML
	Processes  []ProcessLine
	Local      string
	Remote     string
}

type ProcessLine struct {
	Name    string
	Running bool
}

// Message is a rendered notification.
type Message struct {
	Template TemplateID
	Subject  string
	Text     string
	HTML     string
	Urgent   bool
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Recorder journals notification outcomes. storage.HistoryRepository satisfies it.
type Recorder interface {
	Record(ctx context.Context, event *domain.Event) error
}

// Gate selects a template, renders it and sends it.
type Gate struct {
	templates map[TemplateID]compiled
	sender    Sender
	journal   Recorder
	host      string
	log       *slog.Logger
}

// NewGate creates a Gate. journal may be nil.
func NewGate(sender Sender, journal Recorder) *Gate {
	host, _ := os.Hostname()
	return &Gate{
		templates: compile(),
		sender:    sender,
		journal:   journal,
		host:      host,
		log:       slog.Default().With("component", "notify"),
	}
}

// Notify renders template id with tokens and sends it. Failures are logged,
// journaled and returned; callers treat them as non-fatal.
func (g *Gate) Notify(ctx context.Context, id TemplateID, tokens Tokens, urgent bool) error {
	if tokens.Host == "" {
		tokens.Host = g.host
	}
	msg, err := g.Render(id, tokens)
	if err != nil {
		g.log.Error("failed to render notification", "template", id, "error", err)
		return err
	}
	msg.Urgent = urgent

	if err := g.sender.Send(ctx, msg); err != nil {
		metrics.NotificationsTotal.WithLabelValues(string(id), "failed").Inc()
		g.log.Error("failed to send notification", "template", id, "error", err)
		g.record(ctx, domain.EventNotificationFailed, id, err.Error())
		return fmt.Errorf("send %s: %w", id, err)
	}

	metrics.NotificationsTotal.WithLabelValues(string(id), "sent").Inc()
	g.log.Info("notification sent", "template", id, "subject", msg.Subject, "urgent", urgent)
	g.record(ctx, domain.EventNotificationSent, id, msg.Subject)
	return nil
}

// Render produces the subject and both bodies of a template.
func (g *Gate) Render(id TemplateID, tokens Tokens) (Message, error) {
	tpl, ok := g.templates[id]
	if !ok {
		return Message{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, id)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	msg := Message{Template: id}
	if err := tpl.subject.Execute(buf, tokens); err != nil {
		return Message{}, fmt.Errorf("render subject: %w", err)
	}
	msg.Subject = strings.TrimSpace(buf.String())

	buf.Reset()
	if err := tpl.text.Execute(buf, tokens); err != nil {
		return Message{}, fmt.Errorf("render text: %w", err)
	}
	msg.Text = buf.String()

	buf.Reset()
	if err := tpl.html.Execute(buf, tokens); err != nil {
		return Message{}, fmt.Errorf("render html: %w", err)
	}
	msg.HTML = buf.String()
	return msg, nil
}

func (g *Gate) record(ctx context.Context, kind domain.EventKind, id TemplateID, detail string) {
	if g.journal == nil {
		return
	}
	ev := &domain.Event{Kind: kind, Detail: string(id) + ": " + detail}
	if err := g.journal.Record(ctx, ev); err != nil {
		g.log.Warn("failed to journal notification", "error", err)
	}
}

// ReasonTokens fills tokens from a failure reason.
func ReasonTokens(reason domain.FailureReason) Tokens {
	if reason == nil {
		return Tokens{}
	}
	t := Tokens{Reason: reason.Text(), ReasonHTML: reason.HTML()}
	switch r := reason.(type) {
	case domain.ProcessDown:
		for _, name := range r.Processes.Names() {
			t.Processes = append(t.Processes, ProcessLine{Name: name, Running: r.Processes.Running[name]})
		}
	case domain.ChainMismatch:
		t.Local, t.Remote = domain.TipJSON(r.Local), domain.TipJSON(r.Remote)
	case domain.ChainDesync:
		t.Local, t.Remote = domain.TipJSON(r.Local), domain.TipJSON(r.Remote)
	}
	return t
}
