package domain

import "time"

// Event is a journal entry describing something the watchdog did or observed.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Condition Condition `json:"condition,omitempty"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

type EventKind string

const (
	EventRebootDetected     EventKind = "reboot_detected"
	EventRestartStarted     EventKind = "restart_started"
	EventRestartSucceeded   EventKind = "restart_succeeded"
	EventRestartFailed      EventKind = "restart_failed"
	EventNotificationSent   EventKind = "notification_sent"
	EventNotificationFailed EventKind = "notification_failed"
	EventAutoRestartEnabled EventKind = "autorestart_enabled"
)
