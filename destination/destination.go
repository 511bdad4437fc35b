package destination

import (
	"context"
	"errors"

	"github.com/philipp01105/fanlog/core"
)

// ErrClosed is returned by operations on a destination after Close.
var ErrClosed = errors.New("destination closed")

// Destination defines the interface for log destinations
type Destination interface {
	// Send hands an event to the destination. It must not block on I/O
	// and must not panic; delivery happens asynchronously. The dispatcher
	// serializes calls, so Send must not log through the dispatcher.
	Send(ev core.Event)

	// Close releases resources. It must be safe to call more than once.
	Close() error
}

// Historian is implemented by destinations that can return recently
// written content. The bool result is false when no history is offered.
type Historian interface {
	RetrieveHistory(limit int) (string, bool)
}

// Archiver is implemented by destinations that keep files on disk.
// The bool result is false when the destination keeps no files.
type Archiver interface {
	ArchivedFiles() ([]string, bool)
}

// Drainer is implemented by queue-backed destinations. Drain blocks
// until everything queued so far has been handled or ctx is done.
type Drainer interface {
	Drain(ctx context.Context) error
}

// StderrWriter is implemented by destinations that write to the
// process's standard error. Lines captured from standard error are not
// sent back to a destination that reports true.
type StderrWriter interface {
	WritesStderr() bool
}

// Reporter receives events a destination wants to log about itself,
// such as a failed network delivery. The dispatcher implements it.
type Reporter interface {
	Emit(p core.Priority, msg string, args ...any)
}

// Func adapts a plain function into a Destination with a no-op Close.
type Func func(ev core.Event)

// Send calls f(ev)
func (f Func) Send(ev core.Event) {
	f(ev)
}

// Close does nothing
func (f Func) Close() error {
	return nil
}
