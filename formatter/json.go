package formatter

import (
	"bytes"
	"io"
	"time"

	"github.com/philipp01105/fanlog/core"
)

// JSONFormatter formats log events as one JSON object per line
type JSONFormatter struct {
	Config
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(cfg Config) *JSONFormatter {
	if cfg.TimestampFormat == "" {
		cfg.TimestampFormat = time.RFC3339Nano
	}
	return &JSONFormatter{Config: cfg}
}

// Format formats an event as JSON
func (f *JSONFormatter) Format(ev *core.Event) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	f.FormatEvent(ev, buf)
	return detach(buf), nil
}

// FormatTo formats an event as JSON and writes it directly to the writer
func (f *JSONFormatter) FormatTo(ev *core.Event, w io.Writer) error {
	buf := getBuffer()

	f.FormatEvent(ev, buf)

	_, err := w.Write(buf.Bytes())
	putBuffer(buf)
	return err
}

// FormatEvent formats an event as JSON into the given buffer (implements BufferFormatter).
func (f *JSONFormatter) FormatEvent(ev *core.Event, buf *bytes.Buffer) {
	buf.WriteString(`{"time":"`)
	buf.Write(ev.Time.AppendFormat(buf.AvailableBuffer(), f.TimestampFormat))

	buf.WriteString(`","priority":"`)
	buf.WriteString(ev.Priority.String())

	buf.WriteString(`","device":"`)
	appendJSONString(buf, ev.DeviceID)

	buf.WriteString(`","tag":"`)
	appendJSONString(buf, ev.Tag)

	buf.WriteString(`","message":"`)
	appendJSONString(buf, ev.Text)

	buf.WriteString("\"}\n")
}

// appendJSONString writes a JSON-escaped string (without surrounding quotes) to the buffer
func appendJSONString(buf *bytes.Buffer, s string) {
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x20 && c != '"' && c != '\\' {
			continue
		}
		// Flush unescaped prefix
		if start < i {
			buf.WriteString(s[start:i])
		}
		switch c {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		default:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexChars[c>>4])
			buf.WriteByte(hexChars[c&0x0f])
		}
		start = i + 1
	}
	if start < len(s) {
		buf.WriteString(s[start:])
	}
}

var hexChars = [16]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9', 'a', 'b', 'c', 'd', 'e', 'f'}
