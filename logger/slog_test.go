package logger

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/philipp01105/fanlog/core"
)

func TestSlogHandler_Enabled(t *testing.T) {
	d := newTestDispatcher(core.Info)
	sh := NewSlogHandler(d)

	if sh.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Debug should not be enabled when level is Info")
	}
	if !sh.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Info should be enabled when level is Info")
	}
	if !sh.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("Warn should be enabled when level is Info")
	}
	if !sh.Enabled(context.Background(), slog.LevelError) {
		t.Error("Error should be enabled when level is Info")
	}
}

func TestSlogHandler_Handle(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(core.Debug, rec)
	log := slog.New(NewSlogHandler(d))

	log.Warn("test message", "key", "value", "count", 42)

	ev := rec.events[len(rec.events)-1]
	if ev.Text != "test message key=value count=42" {
		t.Errorf("Unexpected text %q", ev.Text)
	}
	if ev.Priority != core.Warning {
		t.Errorf("Expected Warning, got %v", ev.Priority)
	}
	if !strings.HasPrefix(ev.Tag, "slog_test.go:") {
		t.Errorf("Expected tag from the slog call site, got %q", ev.Tag)
	}
}

func TestSlogHandler_WithAttrsAndGroup(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(core.Debug, rec)
	log := slog.New(NewSlogHandler(d)).With("request_id", "req-123").WithGroup("http")

	log.Info("served", "status", 200, slog.Group("client", "ip", "10.0.0.1"))

	ev := rec.events[len(rec.events)-1]
	want := "served request_id=req-123 http.status=200 http.client.ip=10.0.0.1"
	if ev.Text != want {
		t.Errorf("Expected %q, got %q", want, ev.Text)
	}
}
