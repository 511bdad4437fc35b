package formatter

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/philipp01105/fanlog/core"
)

func testEvent() *core.Event {
	return &core.Event{
		Time:     time.Date(2026, 2, 18, 13, 4, 5, 0, time.UTC),
		Priority: core.Error,
		DeviceID: "dev1",
		Tag:      "Foo:42",
		Text:     "bad thing",
	}
}

func TestTextFormatter_Basic(t *testing.T) {
	f := NewTextFormatter(Config{})

	result, err := f.Format(testEvent())
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "2026-02-18 13:04:05 Foo:42: bad thing\n"
	if string(result) != want {
		t.Errorf("Format() = %q, want %q", result, want)
	}
}

func TestTextFormatter_NoDoubleNewline(t *testing.T) {
	f := NewTextFormatter(Config{})
	ev := testEvent()
	ev.Text = "already terminated\n"

	result, _ := f.Format(ev)
	if strings.HasSuffix(string(result), "\n\n") {
		t.Errorf("Expected a single trailing newline, got %q", result)
	}
}

func TestTextFormatter_Options(t *testing.T) {
	f := NewTextFormatter(Config{IncludePriority: true, IncludeDevice: true})

	result, _ := f.Format(testEvent())
	output := string(result)
	if !strings.Contains(output, "[ERROR] dev1 Foo:42: bad thing") {
		t.Errorf("Expected priority and device in output, got: %s", output)
	}
}

func TestTextFormatter_EmptyTag(t *testing.T) {
	f := NewTextFormatter(Config{})
	ev := testEvent()
	ev.Tag = ""

	result, _ := f.Format(ev)
	if !strings.Contains(string(result), " ??: bad thing") {
		t.Errorf("Expected unknown tag marker, got: %s", result)
	}
}

func TestJSONFormatter_Basic(t *testing.T) {
	f := NewJSONFormatter(Config{})
	ev := testEvent()
	ev.Text = "quote \" and\nnewline"

	result, err := f.Format(ev)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(result, &data); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	if data["priority"] != "ERROR" {
		t.Errorf("Expected priority 'ERROR', got: %v", data["priority"])
	}
	if data["message"] != ev.Text {
		t.Errorf("Expected message %q, got: %v", ev.Text, data["message"])
	}
	if data["device"] != "dev1" || data["tag"] != "Foo:42" {
		t.Errorf("Unexpected device/tag: %v / %v", data["device"], data["tag"])
	}
}

func TestSyslogFormatter_PRI(t *testing.T) {
	f := NewSyslogFormatter(SyslogConfig{Hostname: "host"})

	tests := []struct {
		priority core.Priority
		want     int
	}{
		{core.Emergency, 128},
		{core.Error, 131},
		{core.Debug, 135},
	}
	for _, tt := range tests {
		if got := f.PRI(tt.priority); got != tt.want {
			t.Errorf("PRI(%v) = %d, want %d", tt.priority, got, tt.want)
		}
	}
}

func TestSyslogFormatter_Format(t *testing.T) {
	f := NewSyslogFormatter(SyslogConfig{Hostname: "myhost", Location: time.UTC})
	ev := testEvent()
	ev.Time = time.Date(2026, 3, 7, 9, 8, 7, 0, time.UTC)
	ev.Text = "bad thing\n"

	result, err := f.Format(ev)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}

	want := "<131>Mar 07 09:08:07 myhost Foo.42: bad thing"
	if string(result) != want {
		t.Errorf("Format() = %q, want %q", result, want)
	}
}

func TestSyslogFormatter_Defaults(t *testing.T) {
	f := NewSyslogFormatter(SyslogConfig{})
	if f.Hostname() == "" {
		t.Error("Expected a hostname default")
	}
	if got := f.PRI(core.Emergency); got != FacilityLocal0*8 {
		t.Errorf("Expected local0 facility by default, got PRI %d", got)
	}
}

func TestSyslogFormatter_Facility(t *testing.T) {
	tests := []struct {
		name     string
		facility *int
		want     int
	}{
		{"unset", nil, 131},
		{"kern", Facility(0), 3},
		{"local7", Facility(23), 187},
		{"out of range", Facility(24), 131},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewSyslogFormatter(SyslogConfig{Hostname: "host", Facility: tt.facility})
			if got := f.PRI(core.Error); got != tt.want {
				t.Errorf("PRI(Error) = %d, want %d", got, tt.want)
			}
		})
	}
}

func BenchmarkTextFormatter(b *testing.B) {
	f := NewTextFormatter(Config{})
	ev := testEvent()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f.Format(ev)
	}
}

func BenchmarkSyslogFormatter(b *testing.B) {
	f := NewSyslogFormatter(SyslogConfig{Hostname: "host"})
	ev := testEvent()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f.Format(ev)
	}
}
