// Package filedest provides a rotating file destination.
//
// Rotation happens once, in New: when the existing file is larger than
// MaxLength it becomes path.1, older backups shift up by one and
// path.MaxFiles is deleted. At most MaxFiles+1 files exist for a path.
//
// Writes happen on the destination's own goroutine. Each event is
// appended to a buffered writer that is flushed whenever the queue
// drains, so bursts are written in batches.
//
// RetrieveHistory and ArchivedFiles make the file destination the one
// that answers the dispatcher's history and archive queries.
package filedest
