package supervisor

import "strings"

// Status is the lifecycle state of a supervised program as reported by the
// supervisor control CLI, plus the synthetic states the panel layers on top.
type Status string

const (
	NotInstalled Status = "NOT_INSTALLED"
	Stopped      Status = "STOPPED"
	Starting     Status = "STARTING"
	Running      Status = "RUNNING"
	Stopping     Status = "STOPPING"
	Error        Status = "ERROR"
	Offline      Status = "OFFLINE"
	Unavailable  Status = "UNAVAILABLE"
	Simulated    Status = "SIMULATED"
	Unknown      Status = "UNKNOWN"
	Uninstalled  Status = "UNINSTALLED"
)

// ParseStatus maps raw supervisorctl output to a Status by keyword. Order
// matters: STARTING and STOPPING contain no other state words, but FATAL
// output may also mention the program name, so exact-state keywords win.
// Unrecognized output maps to Unknown; this function never fails.
func ParseStatus(output string) Status {
	upper := strings.ToUpper(output)
	switch {
	case strings.Contains(upper, "STARTING"):
		return Starting
	case strings.Contains(upper, "STOPPING"):
		return Stopping
	case strings.Contains(upper, "RUNNING"):
		return Running
	case strings.Contains(upper, "STOPPED"):
		return Stopped
	case strings.Contains(upper, "FATAL"), strings.Contains(upper, "ERROR"):
		return Error
	default:
		return Unknown
	}
}
