package netdest

import (
	"context"
	"errors"

	"github.com/philipp01105/fanlog/core"
)

// ErrSendFailed wraps every delivery failure reported by a Target.
var ErrSendFailed = errors.New("send failed")

// Message is a serialized event waiting in the delivery queue
type Message struct {
	DeviceID string
	Event    core.Event
	Body     []byte
}

// Target is the transport half of a network destination: HTTPTarget,
// SyslogTarget or BeatsTarget.
type Target interface {
	// Name identifies the target in diagnostics and metrics, e.g. "http"
	Name() string

	// Encode serializes ev on the producer's goroutine. An error drops
	// the event without affecting the destination.
	Encode(ev core.Event) (Message, error)

	// Transmit delivers one message. A non-nil error marks the
	// destination as permanently failed.
	Transmit(ctx context.Context, m Message) error

	// Close releases connections
	Close() error
}
