package logger

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/philipp01105/fanlog/core"
	"github.com/philipp01105/fanlog/destination"
)

// recorder is a synchronous destination that keeps every event
type recorder struct {
	mu      sync.Mutex
	events  []core.Event
	history string
	files   []string
	closed  int
}

func (r *recorder) Send(ev core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed++
	return nil
}

func (r *recorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Text
	}
	return out
}

// historian adds history and archive capabilities to recorder
type historian struct {
	recorder
}

func (h *historian) RetrieveHistory(limit int) (string, bool) {
	return h.history, h.history != ""
}

func (h *historian) ArchivedFiles() ([]string, bool) {
	return h.files, h.files != nil
}

var fixedTime = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

func newTestDispatcher(level core.Priority, dests ...destination.Destination) *Dispatcher {
	return NewBuilder().
		WithDeviceID("dev1").
		WithVersion("1.2", "42").
		WithLevel(level).
		WithClock(func() time.Time { return fixedTime }).
		WithDestinations(dests...).
		Build()
}

// skipBanner returns texts without the two startup events
func skipBanner(t *testing.T, texts []string) []string {
	t.Helper()
	if len(texts) < 2 {
		t.Fatalf("Expected banner, got %v", texts)
	}
	return texts[2:]
}

func TestDispatcher_BannerOnce(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(core.Info, rec)

	d.Infof("first")
	d.Infof("second")

	texts := rec.texts()
	if len(texts) != 4 {
		t.Fatalf("Expected 4 events, got %d: %v", len(texts), texts)
	}
	if texts[0] != "Logging started: device dev1, version 1.2 build 42" {
		t.Errorf("Unexpected banner %q", texts[0])
	}
	if texts[1] != "UTC offset is +00:00" {
		t.Errorf("Unexpected offset line %q", texts[1])
	}
	for _, ev := range rec.events[:2] {
		if ev.Priority != core.Notice || ev.Tag != bannerTag {
			t.Errorf("Unexpected banner event %+v", ev)
		}
	}
}

func TestDispatcher_BannerIgnoresThreshold(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(core.Emergency, rec)

	d.Debug("filtered")

	texts := rec.texts()
	if len(texts) != 2 {
		t.Fatalf("Expected only the banner, got %v", texts)
	}
}

func TestDispatcher_Filtering(t *testing.T) {
	tests := []struct {
		name      string
		threshold core.Priority
		priority  core.Priority
		delivered bool
	}{
		{"more severe", core.Warning, core.Error, true},
		{"equal", core.Warning, core.Warning, true},
		{"less severe", core.Warning, core.Notice, false},
		{"debug at info", core.Info, core.Debug, false},
		{"debug at debug", core.Debug, core.Debug, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			d := newTestDispatcher(tt.threshold, rec)
			d.Emit(tt.priority, "message")

			got := len(skipBanner(t, rec.texts())) == 1
			if got != tt.delivered {
				t.Errorf("Expected delivered=%v, got %v", tt.delivered, got)
			}
		})
	}
}

func TestDispatcher_SetLevel(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(core.Info, rec)

	d.Debug("hidden")
	d.SetLevel(core.Debug)
	if d.Level() != core.Debug {
		t.Fatalf("Expected level Debug, got %v", d.Level())
	}
	d.Debug("shown")

	texts := skipBanner(t, rec.texts())
	if len(texts) != 1 || texts[0] != "shown" {
		t.Errorf("Expected only 'shown', got %v", texts)
	}
}

func TestDispatcher_FormatsOnlyWithArgs(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(core.Info, rec)

	d.Infof("100% done")
	d.Infof("%d%% done", 50)

	texts := skipBanner(t, rec.texts())
	want := []string{"100% done", "50% done"}
	if fmt.Sprint(texts) != fmt.Sprint(want) {
		t.Errorf("Expected %v, got %v", want, texts)
	}
}

func TestDispatcher_CollapsesDuplicates(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(core.Info, rec)

	for i := 0; i < 5; i++ {
		d.Warningf("disk full")
	}
	d.Infof("recovered")

	texts := skipBanner(t, rec.texts())
	want := []string{"disk full", "[Last message repeated 4 times]", "recovered"}
	if fmt.Sprint(texts) != fmt.Sprint(want) {
		t.Fatalf("Expected %v, got %v", want, texts)
	}
	repeat := rec.events[3]
	if repeat.Priority != core.Warning {
		t.Errorf("Expected repeat notice at the repeated priority, got %v", repeat.Priority)
	}
}

func TestDispatcher_DuplicatesFlushedOnClose(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(core.Info, rec)

	d.Infof("same")
	d.Infof("same")
	d.Infof("same")
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	texts := skipBanner(t, rec.texts())
	want := []string{"same", "[Last message repeated 2 times]"}
	if fmt.Sprint(texts) != fmt.Sprint(want) {
		t.Errorf("Expected %v, got %v", want, texts)
	}
	if rec.closed != 1 {
		t.Errorf("Expected destination closed once, got %d", rec.closed)
	}
}

func TestDispatcher_FilteredMessagesDoNotBreakRuns(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(core.Info, rec)

	d.Infof("tick")
	d.Debug("noise")
	d.Infof("tick")

	texts := skipBanner(t, rec.texts())
	if len(texts) != 1 {
		t.Errorf("Expected the second tick to be collapsed, got %v", texts)
	}
}

func TestDispatcher_CallerTag(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(core.Info, rec)

	d.Infof("tagged")
	_, _, line := callerLine()

	ev := rec.events[2]
	want := fmt.Sprintf("dispatcher_test.go:%d", line-1)
	if ev.Tag != want {
		t.Errorf("Expected tag %q, got %q", want, ev.Tag)
	}
	if ev.DeviceID != "dev1" {
		t.Errorf("Expected device id dev1, got %q", ev.DeviceID)
	}
	if !ev.Time.Equal(fixedTime) {
		t.Errorf("Expected clock time, got %v", ev.Time)
	}
}

func callerLine() (string, string, int) {
	c := core.GetCaller(1)
	return c.File, c.Function, c.Line
}

func TestDispatcher_EmitTag(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(core.Info, rec)

	d.EmitTag(core.Info, "", "no tag")
	d.EmitTag(core.Info, "worker", "explicit")

	if got := rec.events[2].Tag; got != "" {
		t.Errorf("Expected empty tag to pass through, got %q", got)
	}
	if got := rec.events[3].Tag; got != "worker" {
		t.Errorf("Expected tag worker, got %q", got)
	}
}

func TestDispatcher_AddRemove(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	d := newTestDispatcher(core.Info, a)

	d.Infof("one")
	d.Add(b)
	d.Add(b)
	d.Infof("two")
	d.Remove(a)
	d.Remove(a)
	d.Infof("three")

	if got := skipBanner(t, a.texts()); fmt.Sprint(got) != "[one two]" {
		t.Errorf("Unexpected events for a: %v", got)
	}
	if got := b.texts(); fmt.Sprint(got) != "[two three]" {
		t.Errorf("Unexpected events for b: %v", got)
	}
	if n := len(d.Destinations()); n != 1 {
		t.Errorf("Expected 1 destination, got %d", n)
	}
}

type panicking struct{}

func (panicking) Send(core.Event) { panic("boom") }
func (panicking) Close() error    { panic("boom") }

type failingClose struct{ recorder }

func (f *failingClose) Close() error { return errors.New("close failed") }

func TestDispatcher_DestinationPanicsAreContained(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(core.Info, panicking{}, rec)

	d.Infof("still delivered")

	if got := skipBanner(t, rec.texts()); len(got) != 1 {
		t.Errorf("Expected delivery after a panicking destination, got %v", got)
	}
	if err := d.Close(); err == nil {
		t.Error("Expected the close panic to be reported as an error")
	}
}

func TestDispatcher_CloseAggregatesErrors(t *testing.T) {
	a, b := &failingClose{}, &failingClose{}
	d := newTestDispatcher(core.Info, a, b)

	err := d.Close()
	if err == nil || strings.Count(err.Error(), "close failed") != 2 {
		t.Errorf("Expected both close errors, got %v", err)
	}
	if len(d.Destinations()) != 0 {
		t.Error("Expected registry to be empty after close")
	}
}

func TestDispatcher_FuncDestinationsCanBeAdded(t *testing.T) {
	var got []string
	d := newTestDispatcher(core.Info, destination.Func(func(ev core.Event) {
		got = append(got, ev.Text)
	}))
	d.Infof("via func")
	if len(got) != 3 || got[2] != "via func" {
		t.Errorf("Unexpected events %v", got)
	}
}

func TestDispatcher_FuncRemovableThroughPointer(t *testing.T) {
	var mu sync.Mutex
	var got []string
	fn := destination.Func(func(ev core.Event) {
		mu.Lock()
		got = append(got, ev.Text)
		mu.Unlock()
	})
	d := newTestDispatcher(core.Info)

	d.Add(fn)
	d.Remove(fn)
	if n := len(d.Destinations()); n != 1 {
		t.Fatalf("Expected a Func value to stay registered, got %d destinations", n)
	}
	d.Remove(d.Destinations()[0])
	if n := len(d.Destinations()); n != 1 {
		t.Fatalf("Expected a Func value to stay registered, got %d destinations", n)
	}

	d2 := newTestDispatcher(core.Info)
	d2.Add(&fn)
	d2.Remove(&fn)
	if n := len(d2.Destinations()); n != 0 {
		t.Errorf("Expected *Func to be removed, got %d destinations", n)
	}
}

func TestDispatcher_RepeatNoticeOrderedUnderConcurrency(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(core.Info, rec)

	const perWorker = 500
	tags := []string{"alpha", "beta", "gamma"}
	var wg sync.WaitGroup
	for _, tag := range tags {
		wg.Add(1)
		go func(tag string) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				d.EmitTag(core.Info, tag, "message from "+tag)
			}
		}(tag)
	}
	wg.Wait()
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	events := rec.events[2:]
	total := 0
	for i, ev := range events {
		var n int
		if _, err := fmt.Sscanf(ev.Text, "[Last message repeated %d times]", &n); err != nil {
			total++
			continue
		}
		total += n
		if i == 0 {
			t.Fatal("Repeat notice without a preceding message")
		}
		prev := events[i-1]
		if prev.Tag != ev.Tag || strings.HasPrefix(prev.Text, "[Last message") {
			t.Fatalf("Repeat notice for %q delivered after %q (%s)", ev.Tag, prev.Text, prev.Tag)
		}
	}
	if want := perWorker * len(tags); total != want {
		t.Errorf("Expected %d messages accounted for, got %d", want, total)
	}
}

func TestDispatcher_RetrieveLogFirstResponder(t *testing.T) {
	empty := &historian{}
	first := &historian{recorder: recorder{history: "first", files: []string{"a.log"}}}
	second := &historian{recorder: recorder{history: "second", files: []string{"b.log"}}}
	d := newTestDispatcher(core.Info, &recorder{}, empty, first, second)

	got, ok := d.RetrieveLog()
	if !ok || got != "first" {
		t.Errorf("Expected first, got %q %v", got, ok)
	}
	files := d.ListArchivedFiles()
	if len(files) != 1 || files[0] != "a.log" {
		t.Errorf("Expected [a.log], got %v", files)
	}
}

func TestDispatcher_RetrieveLogNone(t *testing.T) {
	d := newTestDispatcher(core.Info, &recorder{})
	if _, ok := d.RetrieveLog(); ok {
		t.Error("Expected no history")
	}
	if files := d.ListArchivedFiles(); files != nil {
		t.Errorf("Expected no files, got %v", files)
	}
}

func TestDispatcher_LogError(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(core.Info, rec)

	root := errors.New("connection refused")
	err := fmt.Errorf("dial: %w", root)
	d.LogError(fmt.Errorf("upload: %w", err))

	texts := skipBanner(t, rec.texts())
	want := []string{
		"Exception: upload: dial: connection refused",
		"Caused by:",
		"Exception: dial: connection refused",
		"Caused by:",
		"Exception: connection refused",
	}
	if fmt.Sprint(texts) != fmt.Sprint(want) {
		t.Errorf("Expected %q, got %q", want, texts)
	}
	for _, ev := range rec.events[2:] {
		if ev.Priority != core.Error {
			t.Errorf("Expected Error priority, got %v", ev.Priority)
		}
	}
}

func TestDispatcher_Func(t *testing.T) {
	rec := &recorder{}
	d := newTestDispatcher(core.Info, rec)

	logFn := d.Func()
	logFn("from a callback")

	ev := rec.events[2]
	if ev.Text != "from a callback" || ev.Priority != core.Info {
		t.Errorf("Unexpected event %+v", ev)
	}
	if !strings.HasPrefix(ev.Tag, "dispatcher_test.go:") {
		t.Errorf("Expected tag from the callback's caller, got %q", ev.Tag)
	}
}

func TestDispatcher_ConcurrentEmitAndRegistry(t *testing.T) {
	d := newTestDispatcher(core.Debug)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				d.Debugf("goroutine %d message %d", i, j)
			}
		}(i)
	}
	for i := 0; i < 50; i++ {
		r := &recorder{}
		d.Add(r)
		d.Remove(r)
	}
	wg.Wait()
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
}
