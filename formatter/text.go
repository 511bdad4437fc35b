package formatter

import (
	"bytes"
	"io"
	"strings"

	"github.com/philipp01105/fanlog/core"
)

// TextFormatter formats events as "2006-01-02 15:04:05 tag: text\n".
type TextFormatter struct {
	Config
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(cfg Config) *TextFormatter {
	if cfg.TimestampFormat == "" {
		cfg.TimestampFormat = DefaultTimestampFormat
	}
	return &TextFormatter{Config: cfg}
}

// Format formats an event as text
func (f *TextFormatter) Format(ev *core.Event) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	f.FormatEvent(ev, buf)
	return detach(buf), nil
}

// FormatTo formats an event and writes it directly to the writer
func (f *TextFormatter) FormatTo(ev *core.Event, w io.Writer) error {
	buf := getBuffer()

	f.FormatEvent(ev, buf)

	_, err := w.Write(buf.Bytes())
	putBuffer(buf)
	return err
}

// FormatEvent writes the formatted event into the given buffer
func (f *TextFormatter) FormatEvent(ev *core.Event, buf *bytes.Buffer) {
	buf.Write(ev.Time.AppendFormat(buf.AvailableBuffer(), f.TimestampFormat))
	buf.WriteByte(' ')

	if f.IncludePriority {
		buf.WriteByte('[')
		buf.WriteString(ev.Priority.String())
		buf.WriteString("] ")
	}
	if f.IncludeDevice && ev.DeviceID != "" {
		buf.WriteString(ev.DeviceID)
		buf.WriteByte(' ')
	}

	tag := ev.Tag
	if tag == "" {
		tag = core.UnknownTag
	}
	buf.WriteString(tag)
	buf.WriteString(": ")
	buf.WriteString(ev.Text)

	if !strings.HasSuffix(ev.Text, "\n") {
		buf.WriteByte('\n')
	}
}
