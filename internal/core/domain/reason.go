package domain

import (
	"encoding/json"
	"fmt"
	"html"
	"html/template"
	"strings"
)

// Condition is one of the monitored failure categories.
type Condition string

const (
	ConditionNone          Condition = ""
	ConditionProcessDown   Condition = "process_down"
	ConditionChainMismatch Condition = "chain_a_mismatch"
	ConditionChainDesync   Condition = "chain_b_desync"
	ConditionUndetermined  Condition = "undetermined"
)

// FailureReason explains why a restart was triggered. Implementations are
// ProcessDown, ChainMismatch, ChainDesync and Undetermined.
type FailureReason interface {
	Condition() Condition
	Text() string
	HTML() template.HTML
}

// ProcessDown reports that one or more supervised processes stopped.
type ProcessDown struct {
	Processes ProcessStatus
}

func (ProcessDown) Condition() Condition { return ConditionProcessDown }

func (r ProcessDown) Text() string {
	var sb strings.Builder
	sb.WriteString(r.headline())
	sb.WriteString("\n")
	if r.Processes.Err != "" {
		fmt.Fprintf(&sb, "probe error: %s\n", r.Processes.Err)
	}
	for _, name := range r.Processes.Names() {
		fmt.Fprintf(&sb, "%s: %t\n", name, r.Processes.Running[name])
	}
	return sb.String()
}

func (r ProcessDown) HTML() template.HTML {
	var sb strings.Builder
	sb.WriteString(html.EscapeString(r.headline()))
	sb.WriteString("<br /><ul>")
	if r.Processes.Err != "" {
		fmt.Fprintf(&sb, "<li>probe error: %s</li>", html.EscapeString(r.Processes.Err))
	}
	for _, name := range r.Processes.Names() {
		up := r.Processes.Running[name]
		style := ""
		if !up {
			style = ` style="color:red; font-weight: bold"`
		}
		fmt.Fprintf(&sb, "<li%s>%s: %t</li>", style, html.EscapeString(name), up)
	}
	sb.WriteString("</ul>")
	return template.HTML(sb.String())
}

func (r ProcessDown) headline() string {
	return fmt.Sprintf(
		"One or more key processes (%s) has stopped unexpectedly.",
		strings.Join(r.Processes.Names(), ", "),
	)
}

// ChainMismatch reports that the Syscoin node follows a different chain than the reference.
type ChainMismatch struct {
	Local, Remote *ChainTip
}

func (ChainMismatch) Condition() Condition { return ConditionChainMismatch }

func (r ChainMismatch) Text() string {
	return tipText("Syscoin full node is on wrong chain.", r.Local, r.Remote)
}

func (r ChainMismatch) HTML() template.HTML {
	return tipHTML("Syscoin full node is on wrong chain.", r.Local, r.Remote)
}

// ChainDesync reports that the Ethereum node is behind the reference.
type ChainDesync struct {
	Local, Remote *ChainTip
}

func (ChainDesync) Condition() Condition { return ConditionChainDesync }

func (r ChainDesync) Text() string {
	return tipText("Ethereum geth out of sync.", r.Local, r.Remote)
}

func (r ChainDesync) HTML() template.HTML {
	return tipHTML("Ethereum geth out of sync.", r.Local, r.Remote)
}

// Undetermined is used when no specific condition could be identified.
type Undetermined struct{}

func (Undetermined) Condition() Condition { return ConditionUndetermined }
func (Undetermined) Text() string         { return "Cannot determine!" }
func (Undetermined) HTML() template.HTML  { return "Cannot determine!" }

// TipJSON serializes a tip for message tokens; nil becomes "null".
func TipJSON(tip *ChainTip) string {
	b, err := json.Marshal(tip)
	if err != nil {
		return "null"
	}
	return string(b)
}

func tipText(headline string, local, remote *ChainTip) string {
	return fmt.Sprintf("%s\nlocal: %s\nremote: %s\n", headline, TipJSON(local), TipJSON(remote))
}

func tipHTML(headline string, local, remote *ChainTip) template.HTML {
	return template.HTML(fmt.Sprintf(
		"%s<br /><ul><li>local: %s</li><li>remote: %s</li></ul>",
		html.EscapeString(headline),
		html.EscapeString(TipJSON(local)),
		html.EscapeString(TipJSON(remote)),
	))
}
