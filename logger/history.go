package logger

import (
	"context"

	"github.com/philipp01105/fanlog/destination"
)

// RetrieveLog returns recent log content from the first destination, in
// registration order, that offers history. The result is not merged
// across destinations.
func (d *Dispatcher) RetrieveLog() (string, bool) {
	for _, dest := range d.registry.snapshot() {
		h, ok := dest.(destination.Historian)
		if !ok {
			continue
		}
		if s, ok := h.RetrieveHistory(d.historyLimit); ok {
			return s, true
		}
	}
	return "", false
}

// ListArchivedFiles returns the log files kept by the first destination
// that keeps any, or nil.
func (d *Dispatcher) ListArchivedFiles() []string {
	for _, dest := range d.registry.snapshot() {
		a, ok := dest.(destination.Archiver)
		if !ok {
			continue
		}
		if files, ok := a.ArchivedFiles(); ok {
			return files
		}
	}
	return nil
}

// Drain waits until every queue-backed destination has handled what was
// queued before the call, or ctx is done.
func (d *Dispatcher) Drain(ctx context.Context) error {
	for _, dest := range d.registry.snapshot() {
		dr, ok := dest.(destination.Drainer)
		if !ok {
			continue
		}
		if err := dr.Drain(ctx); err != nil {
			return err
		}
	}
	return nil
}
