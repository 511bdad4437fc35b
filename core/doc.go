// Package core defines the shared types used across fanlog.
//
// It provides the Priority type, an ordering that mirrors syslog
// severities (Emergency is 0, Debug is 7), and the Event type that
// represents a single log event as it is handed to each destination.
//
// An Event is a value. The dispatcher builds it once per call and every
// destination receives its own copy, so destinations may keep it in a
// queue without further synchronisation.
//
// CallerInfo carries the call-site location that becomes an event's tag.
// It is captured with runtime.Caller at the dispatcher's public entry
// points, so no stack walking happens on the delivery path.
package core
