// Package uptime detects host reboots between watchdog runs by comparing
// the host uptime with the value recorded on the previous run.
package uptime

// RebootResult is the outcome of comparing stored and current uptime.
type RebootResult int

const (
	NoPriorRecord RebootResult = iota
	RebootDetected
	Continuing
)

func (r RebootResult) String() string {
	switch r {
	case NoPriorRecord:
		return "no_prior_record"
	case RebootDetected:
		return "reboot_detected"
	case Continuing:
		return "continuing"
	default:
		return "unknown"
	}
}

// DetectReboot reports a reboot when the current uptime is lower than the stored one.
func DetectReboot(stored float64, hasStored bool, current float64) RebootResult {
	if !hasStored {
		return NoPriorRecord
	}
	if current < stored {
		return RebootDetected
	}
	return Continuing
}
