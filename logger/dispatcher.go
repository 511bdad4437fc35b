package logger

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/philipp01105/fanlog/core"
	"github.com/philipp01105/fanlog/destination"
	"github.com/philipp01105/fanlog/formatter"
)

// DefaultHistoryLimit is the number of bytes requested from destinations
// by RetrieveLog and Subscribe.
const DefaultHistoryLimit = 8192

// bannerTag is the tag of the two startup events
const bannerTag = "fanlog"

// Dispatcher fans log events out to a set of destinations. It filters by
// priority and collapses runs of identical messages before fan-out.
// Destinations may be added and removed while events are being emitted.
type Dispatcher struct {
	deviceID     string
	version      string
	build        string
	level        atomic.Int32
	clock        func() time.Time
	historyLimit int
	formatter    formatter.Formatter
	logger       *zap.Logger
	registry     registry
	bannerOnce   sync.Once

	mu             sync.Mutex // protects the dedup state below and orders fan-out
	hasLast        bool
	lastMessage    string
	lastPriority   core.Priority
	lastTag        string
	lastCaptured   bool
	duplicateCount int
}

// Builder provides a fluent API for building Dispatcher instances
type Builder struct {
	deviceID     string
	version      string
	build        string
	level        core.Priority
	clock        func() time.Time
	historyLimit int
	formatter    formatter.Formatter
	logger       *zap.Logger
	destinations []destination.Destination
}

// NewBuilder creates a new dispatcher builder
func NewBuilder() *Builder {
	return &Builder{
		deviceID:     "?????",
		version:      "?.?",
		build:        "-1",
		level:        core.Info,
		clock:        time.Now,
		historyLimit: DefaultHistoryLimit,
	}
}

// WithDeviceID sets the device id attached to every event
func (b *Builder) WithDeviceID(id string) *Builder {
	b.deviceID = id
	return b
}

// WithVersion sets the version and build number shown in the startup banner
func (b *Builder) WithVersion(version, build string) *Builder {
	b.version = version
	b.build = build
	return b
}

// WithLevel sets the least severe priority that is emitted
func (b *Builder) WithLevel(p core.Priority) *Builder {
	b.level = p
	return b
}

// WithLogger sets the diagnostics logger
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock overrides the event timestamp source
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// WithHistoryLimit sets the byte limit used when retrieving history
func (b *Builder) WithHistoryLimit(n int) *Builder {
	b.historyLimit = n
	return b
}

// WithFormatter sets the formatter for subscription lines
func (b *Builder) WithFormatter(f formatter.Formatter) *Builder {
	b.formatter = f
	return b
}

// WithDestinations registers destinations at build time
func (b *Builder) WithDestinations(dests ...destination.Destination) *Builder {
	b.destinations = append(b.destinations, dests...)
	return b
}

// Build creates the Dispatcher instance
func (b *Builder) Build() *Dispatcher {
	d := &Dispatcher{
		deviceID:     b.deviceID,
		version:      b.version,
		build:        b.build,
		clock:        b.clock,
		historyLimit: b.historyLimit,
		formatter:    b.formatter,
		logger:       b.logger,
	}
	if d.clock == nil {
		d.clock = time.Now
	}
	if d.historyLimit <= 0 {
		d.historyLimit = DefaultHistoryLimit
	}
	if d.formatter == nil {
		d.formatter = formatter.NewTextFormatter(formatter.Config{})
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	d.level.Store(int32(b.level))
	for _, dest := range b.destinations {
		d.registry.add(dest)
	}
	return d
}

// DeviceID returns the device id attached to every event
func (d *Dispatcher) DeviceID() string {
	return d.deviceID
}

// SetLevel changes the least severe priority that is emitted
func (d *Dispatcher) SetLevel(p core.Priority) {
	d.level.Store(int32(p))
}

// Level returns the current threshold
func (d *Dispatcher) Level() core.Priority {
	return core.Priority(d.level.Load())
}

// Emit logs msg at priority p. When args are given, msg is a format
// string. The tag is the caller's file and line.
func (d *Dispatcher) Emit(p core.Priority, msg string, args ...any) {
	d.log(p, msg, args)
}

// EmitTag is Emit with an explicit tag instead of the caller's location
func (d *Dispatcher) EmitTag(p core.Priority, tag string, msg string, args ...any) {
	d.startup()
	if !d.Level().Admits(p) {
		return
	}
	d.dispatch(p, tag, render(msg, args), false)
}

// log is the shared body of the public logging methods. It must be
// called directly from them so that the caller skip stays fixed.
func (d *Dispatcher) log(p core.Priority, msg string, args []any) {
	d.startup()
	if !d.Level().Admits(p) {
		return
	}
	d.dispatch(p, core.GetCaller(2).Tag(), render(msg, args), false)
}

// render applies printf formatting only when args are present
func render(msg string, args []any) string {
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// startup sends the banner and UTC offset on the first call ever,
// regardless of the level threshold.
func (d *Dispatcher) startup() {
	d.bannerOnce.Do(func() {
		now := d.clock()
		d.fanOut(d.event(now, core.Notice, bannerTag,
			fmt.Sprintf("Logging started: device %s, version %s build %s", d.deviceID, d.version, d.build)), false)
		d.fanOut(d.event(now, core.Notice, bannerTag,
			"UTC offset is "+now.Format("-07:00")), false)
	})
}

// dispatch applies duplicate collapsing and fans the event out. Fan-out
// happens under d.mu, so a pending repeat notice reaches every
// destination before the event that ends the run and before any event
// from another goroutine. captured marks lines read from standard error.
func (d *Dispatcher) dispatch(p core.Priority, tag, text string, captured bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.hasLast && text == d.lastMessage {
		d.duplicateCount++
		return
	}
	repeatCaptured := d.lastCaptured
	repeat, hasRepeat := d.takeRepeatLocked()
	d.hasLast = true
	d.lastMessage = text
	d.lastPriority = p
	d.lastTag = tag
	d.lastCaptured = captured

	now := d.clock()
	if hasRepeat {
		repeat.Time = now
		d.fanOut(repeat, repeatCaptured)
	}
	d.fanOut(d.event(now, p, tag, text), captured)
}

// takeRepeatLocked builds the "repeated" notice for the current run and
// resets the counter. d.mu must be held.
func (d *Dispatcher) takeRepeatLocked() (core.Event, bool) {
	if d.duplicateCount == 0 {
		return core.Event{}, false
	}
	ev := core.Event{
		Priority: d.lastPriority,
		DeviceID: d.deviceID,
		Tag:      d.lastTag,
		Text:     fmt.Sprintf("[Last message repeated %d times]", d.duplicateCount),
	}
	d.duplicateCount = 0
	return ev, true
}

func (d *Dispatcher) event(t time.Time, p core.Priority, tag, text string) core.Event {
	return core.Event{
		Time:     t,
		Priority: p,
		DeviceID: d.deviceID,
		Tag:      tag,
		Text:     text,
	}
}

// fanOut hands ev to every registered destination in registration order.
// Captured stderr lines skip destinations that write to stderr.
func (d *Dispatcher) fanOut(ev core.Event, captured bool) {
	for _, dest := range d.registry.snapshot() {
		if captured {
			if sw, ok := dest.(destination.StderrWriter); ok && sw.WritesStderr() {
				continue
			}
		}
		d.send(dest, ev)
	}
}

// send isolates the caller from a misbehaving destination
func (d *Dispatcher) send(dest destination.Destination, ev core.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("destination panicked",
				zap.String("destination", fmt.Sprintf("%T", dest)),
				zap.Any("panic", r))
		}
	}()
	dest.Send(ev)
}

// Add registers dest. Events emitted after Add returns are delivered to
// it. Adding a destination twice has no effect.
func (d *Dispatcher) Add(dest destination.Destination) {
	if dest == nil {
		return
	}
	d.registry.add(dest)
}

// Remove unregisters dest without closing it. It is a no-op when dest is
// not registered. Destinations are matched by identity, so values of
// non-comparable types such as destination.Func can never be removed;
// register a pointer to the Func instead.
func (d *Dispatcher) Remove(dest destination.Destination) {
	if dest == nil {
		return
	}
	d.registry.remove(dest)
}

// Destinations returns the registered destinations in order
func (d *Dispatcher) Destinations() []destination.Destination {
	return append([]destination.Destination(nil), d.registry.snapshot()...)
}

// Close flushes a pending repeat notice, then closes and removes every
// destination. The dispatcher stays usable; new destinations may be added.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	repeatCaptured := d.lastCaptured
	repeat, hasRepeat := d.takeRepeatLocked()
	d.hasLast = false
	d.lastMessage = ""
	d.lastCaptured = false
	if hasRepeat {
		repeat.Time = d.clock()
		d.fanOut(repeat, repeatCaptured)
	}
	d.mu.Unlock()

	var err error
	for _, dest := range d.registry.clear() {
		err = multierr.Append(err, d.closeDestination(dest))
	}
	return err
}

func (d *Dispatcher) closeDestination(dest destination.Destination) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("close %T: panic: %v", dest, r)
		}
	}()
	if cerr := dest.Close(); cerr != nil {
		return fmt.Errorf("close %T: %w", dest, cerr)
	}
	return nil
}
