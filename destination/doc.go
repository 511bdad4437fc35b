// Package destination provides the Destination interface and the queue
// machinery shared by the built-in destinations.
//
// A Destination receives every event the dispatcher accepts. Send must
// never block the producer: the built-in destinations place the event on
// a bounded Queue (capacity 100 by default) and return. When the queue
// is full the new event is dropped and counted in Stats.
//
// Each destination owns exactly one Pump, a goroutine that drains its
// queue in order. Stopping a pump cancels the context passed to the
// handler, so network requests in flight are abandoned rather than
// drained.
//
// Optional capabilities are expressed as separate interfaces, checked
// with a type assertion:
//
//   - Historian returns the tail of what was written (file destination).
//   - Archiver lists files kept on disk (file destination).
//   - Drainer waits for everything queued so far to be handled, for
//     hosts that want a clean shutdown before Close.
//   - StderrWriter marks destinations writing to standard error, which
//     never receive lines captured from it.
//
// Built-in destinations live in sub-packages:
//
//   - filedest writes to a rotating local file.
//   - netdest delivers to HTTP, UDP syslog or Beats endpoints and gives up
//     permanently after the first failure.
//   - consoledest writes to stdout or any io.Writer.
//
// Stats counts dropped, processed and failed messages and mirrors the
// counts into OpenTelemetry counters.
package destination
