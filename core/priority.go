package core

import (
	"fmt"
	"strings"
)

// Priority is a syslog-style severity. Lower values are more severe.
type Priority int8

const (
	// Emergency means the system is unusable
	Emergency Priority = iota
	// Alert means action must be taken immediately
	Alert
	// Critical conditions
	Critical
	// Error conditions
	Error
	// Warning conditions
	Warning
	// Notice is a normal but significant condition
	Notice
	// Info is an informational message (default threshold)
	Info
	// Debug is a debug-level message
	Debug
)

var priorityNames = [...]string{
	Emergency: "EMERGENCY",
	Alert:     "ALERT",
	Critical:  "CRITICAL",
	Error:     "ERROR",
	Warning:   "WARNING",
	Notice:    "NOTICE",
	Info:      "INFO",
	Debug:     "DEBUG",
}

// String returns the string representation of the priority
func (p Priority) String() string {
	if p < Emergency || p > Debug {
		return "UNKNOWN"
	}
	return priorityNames[p]
}

// Valid reports whether p is one of the eight defined priorities.
func (p Priority) Valid() bool {
	return p >= Emergency && p <= Debug
}

// Admits reports whether an event at priority p passes a threshold.
// An event is admitted when it is at least as severe as the threshold.
func (p Priority) Admits(event Priority) bool {
	return event <= p
}

// ParsePriority converts a name to a Priority. Both the long names and
// the usual syslog abbreviations are accepted, case-insensitively.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "EMERGENCY", "EMERG", "PANIC":
		return Emergency, nil
	case "ALERT":
		return Alert, nil
	case "CRITICAL", "CRIT":
		return Critical, nil
	case "ERROR", "ERR":
		return Error, nil
	case "WARNING", "WARN":
		return Warning, nil
	case "NOTICE":
		return Notice, nil
	case "INFO", "INFORMATIONAL":
		return Info, nil
	case "DEBUG":
		return Debug, nil
	default:
		return Info, fmt.Errorf("unknown priority %q", s)
	}
}
