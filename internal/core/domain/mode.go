package domain

import "time"

// EngineMode is the state of the alert decision engine.
type EngineMode string

const (
	ModeIdle                EngineMode = "idle"
	ModeRestartInProgress   EngineMode = "restart_in_progress"
	ModeAutoRestartDisabled EngineMode = "autorestart_disabled"
)

// EngineState is the process-wide engine state. Values are copied out to readers.
type EngineState struct {
	Mode               EngineMode `json:"mode"`
	AutoRestartEnabled bool       `json:"autoRestartEnabled"`
	AgentStartTime     time.Time  `json:"agentStartTime"`
	LastNotified       Condition  `json:"lastNotified,omitempty"`
	LastNotifiedAt     time.Time  `json:"lastNotifiedAt"`
}
