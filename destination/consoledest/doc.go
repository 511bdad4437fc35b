// Package consoledest provides a destination that writes to the console.
//
// Lines for an in-memory writer are written synchronously by default.
// With Async set, and always for an *os.File writer, events go through a
// bounded drop-newest queue and a worker goroutine, and Close drains what
// is still queued. A destination writing to os.Stderr reports
// WritesStderr, so lines captured from standard error are not written
// back into the capture pipe.
//
// When the writer is a terminal, lines are coloured by priority:
//
//	d := consoledest.New(consoledest.ConsoleConfig{Writer: os.Stderr})
//	dispatcher.Add(d)
package consoledest
