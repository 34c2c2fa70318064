package notify

import (
	htmltemplate "html/template"
	"text/template"
)

// TemplateID names a notification template.
type TemplateID string

const (
	RebootDetected    TemplateID = "reboot-detected"
	RestartInProgress TemplateID = "restart-in-progress"
	RestartSuccess    TemplateID = "restart-success"
	RestartFailure    TemplateID = "restart-failure"
	ProcessDown       TemplateID = "process-down"
	ChainAMismatch    TemplateID = "chain-a-mismatch"
	ChainBDesync      TemplateID = "chain-b-desync"
)

type templateSource struct {
	subject string
	text    string
	html    string
}

var sources = map[TemplateID]templateSource{
	RebootDetected: {
		subject: "[nodewatch] {{.Host}}: host was rebooted",
		text: `The host {{.Host}} running the Syscoin bridge agent has been rebooted since the watchdog last ran.
Check that the agent and its node daemons came back up.
`,
		html: `<p>The host <b>{{.Host}}</b> running the Syscoin bridge agent has been rebooted since the watchdog last ran.</p>
<p>Check that the agent and its node daemons came back up.</p>`,
	},
	RestartInProgress: {
		subject: "[nodewatch] {{.Host}}: restarting agent",
		text: `A problem was detected and the agent processes are being restarted.

Reason:
{{.Reason}}`,
		html: `<p>A problem was detected and the agent processes are being restarted.</p>
<p><b>Reason:</b><br />{{.ReasonHTML}}</p>`,
	},
	RestartSuccess: {
		subject: "[nodewatch] {{.Host}}: agent restart succeeded",
		text: `The agent processes were restarted and all health checks pass again.
`,
		html: `<p>The agent processes were restarted and all health checks pass again.</p>`,
	},
	RestartFailure: {
		subject: "[nodewatch] {{.Host}}: agent restart FAILED",
		text: `The automatic restart did not bring the agent back to a healthy state.
Automatic restarts are disabled until an operator re-enables them.
{{if .Reason}}
Last failure:
{{.Reason}}{{end}}`,
		html: `<p>The automatic restart did not bring the agent back to a healthy state.</p>
<p><b>Automatic restarts are disabled until an operator re-enables them.</b></p>
{{if .ReasonHTML}}<p>Last failure:<br />{{.ReasonHTML}}</p>{{end}}`,
	},
	ProcessDown: {
		subject: "[nodewatch] {{.Host}}: process down",
		text: `One or more key processes have stopped.
{{range .Processes}}
{{.Name}}: {{if .Running}}running{{else}}DOWN{{end}}{{end}}
`,
		html: `<p>One or more key processes have stopped.</p>
<ul>{{range .Processes}}<li style="{{if not .Running}}color:red; font-weight: bold{{end}}">{{.Name}}: {{if .Running}}running{{else}}DOWN{{end}}</li>{{end}}</ul>`,
	},
	ChainAMismatch: {
		subject: "[nodewatch] {{.Host}}: Syscoin chain mismatch",
		text: `The Syscoin full node is on the wrong chain or too far behind.

local:  {{.Local}}
remote: {{.Remote}}
`,
		html: `<p>The Syscoin full node is on the wrong chain or too far behind.</p>
<ul><li>local: {{.Local}}</li><li>remote: {{.Remote}}</li></ul>`,
	},
	ChainBDesync: {
		subject: "[nodewatch] {{.Host}}: Ethereum geth out of sync",
		text: `Ethereum geth is out of sync with the reference node.

local:  {{.Local}}
remote: {{.Remote}}
`,
		html: `<p>Ethereum geth is out of sync with the reference node.</p>
<ul><li>local: {{.Local}}</li><li>remote: {{.Remote}}</li></ul>`,
	},
}

type compiled struct {
	subject *template.Template
	text    *template.Template
	html    *htmltemplate.Template
}

func compile() map[TemplateID]compiled {
	out := make(map[TemplateID]compiled, len(sources))
	for id, src := range sources {
		out[id] = compiled{
			subject: template.Must(template.New(string(id) + ".subject").Parse(src.subject)),
			text:    template.Must(template.New(string(id) + ".text").Parse(src.text)),
			html:    htmltemplate.Must(htmltemplate.New(string(id) + ".html").Parse(src.html)),
		}
	}
	return out
}
