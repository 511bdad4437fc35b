package formatter

import (
	"bytes"
	"io"
	"sync"

	"github.com/philipp01105/fanlog/core"
)

// Formatter defines the interface for log formatters
type Formatter interface {
	// Format formats a log event into bytes
	Format(ev *core.Event) ([]byte, error)
}

// WriterFormatter is an optional interface that formatters can implement
// to write directly to a writer without intermediate byte slice allocation.
type WriterFormatter interface {
	// FormatTo formats a log event and writes it directly to the writer
	FormatTo(ev *core.Event, w io.Writer) error
}

// BufferFormatter is an optional interface that formatters can implement
// to format directly into a caller-provided buffer, avoiding internal
// buffer pool overhead.
type BufferFormatter interface {
	// FormatEvent formats a log event into the given buffer.
	FormatEvent(ev *core.Event, buf *bytes.Buffer)
}

// Config holds common formatter configuration
type Config struct {
	// TimestampFormat specifies the time layout (default: "2006-01-02 15:04:05")
	TimestampFormat string
	// IncludePriority adds the priority name after the timestamp
	IncludePriority bool
	// IncludeDevice adds the device id after the timestamp
	IncludeDevice bool
}

// DefaultTimestampFormat matches the "date time" prefix of every log line.
const DefaultTimestampFormat = "2006-01-02 15:04:05"

// bufferPool is a pool of bytes.Buffer to reduce allocations
var bufferPool = &sync.Pool{
	New: func() interface{} {
		b := new(bytes.Buffer)
		b.Grow(256)
		return b
	},
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 64*1024 { // Don't keep very large buffers
		return
	}
	bufferPool.Put(buf)
}

// detach copies the buffer contents so the buffer can return to the pool.
func detach(buf *bytes.Buffer) []byte {
	result := make([]byte, buf.Len())
	copy(result, buf.Bytes())
	return result
}
