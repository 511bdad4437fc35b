package logger

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/philipp01105/fanlog/core"
)

// SlogHandler is an adapter that implements slog.Handler on top of a
// Dispatcher, so code written against log/slog feeds the same
// destinations. Attributes are appended to the message as key=value.
type SlogHandler struct {
	d      *Dispatcher
	attrs  string
	groups string
}

// NewSlogHandler creates a new slog.Handler adapter for d
func NewSlogHandler(d *Dispatcher) *SlogHandler {
	return &SlogHandler{d: d}
}

// Enabled reports whether the dispatcher's threshold admits level
func (s *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return s.d.Level().Admits(slogLevelToPriority(level))
}

// Handle emits the record with the record's source location as its tag
func (s *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	var sb strings.Builder
	sb.WriteString(record.Message)
	sb.WriteString(s.attrs)
	record.Attrs(func(a slog.Attr) bool {
		appendAttr(&sb, s.groups, a)
		return true
	})

	s.d.EmitTag(slogLevelToPriority(record.Level), sourceTag(record.PC), sb.String())
	return nil
}

// WithAttrs returns a new SlogHandler with additional attributes.
func (s *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var sb strings.Builder
	sb.WriteString(s.attrs)
	for _, a := range attrs {
		appendAttr(&sb, s.groups, a)
	}
	return &SlogHandler{d: s.d, attrs: sb.String(), groups: s.groups}
}

// WithGroup returns a new SlogHandler with the given group name.
func (s *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return s
	}
	groups := name
	if s.groups != "" {
		groups = s.groups + "." + name
	}
	return &SlogHandler{d: s.d, attrs: s.attrs, groups: groups}
}

// slogLevelToPriority converts a slog.Level to a core.Priority.
func slogLevelToPriority(level slog.Level) core.Priority {
	switch {
	case level >= slog.LevelError:
		return core.Error
	case level >= slog.LevelWarn:
		return core.Warning
	case level >= slog.LevelInfo:
		return core.Info
	default:
		return core.Debug
	}
}

// appendAttr writes " key=value", flattening groups into dotted keys.
func appendAttr(sb *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}

	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			appendAttr(sb, key, ga)
		}
		return
	}

	sb.WriteByte(' ')
	sb.WriteString(key)
	sb.WriteByte('=')
	sb.WriteString(a.Value.String())
}

// sourceTag renders the record's program counter as "file.go:42"
func sourceTag(pc uintptr) string {
	if pc == 0 {
		return core.UnknownTag
	}
	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if frame.File == "" {
		return core.UnknownTag
	}
	return filepath.Base(frame.File) + ":" + strconv.Itoa(frame.Line)
}
