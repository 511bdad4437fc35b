package watchdog

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/philipp01105/fanlog/core"
	"github.com/philipp01105/fanlog/destination"
)

const (
	// timeoutPrefix starts every report that carries a stack
	timeoutPrefix = "Watchdog timeout:\n"
	// notInitialised is reported when no heartbeat has ever run
	notInitialised = "Watchdog thread did not initialise"
)

// Option configures a WatchDog
type Option func(*WatchDog)

// WithLogger sets the diagnostics logger
func WithLogger(l *zap.Logger) Option {
	return func(w *WatchDog) {
		w.logger = l
	}
}

// WatchDog detects a stalled goroutine. While armed it schedules a
// heartbeat on the monitored Scheduler every timeout/2; when no heartbeat
// completes within timeout, the monitored goroutine's stack is reported
// through the reporter and the action, and the watchdog re-arms.
//
// The monitored goroutine is identified by the first heartbeat it runs,
// so Start must not be called from that goroutine's own task.
type WatchDog struct {
	sched    Scheduler
	timeout  time.Duration
	reporter destination.Reporter
	action   func(report string)
	logger   *zap.Logger

	gid    atomic.Int64 // monitored goroutine, 0 until the first heartbeat
	fired  atomic.Uint64
	firing atomic.Int64 // goroutine running the reporter and action, or 0

	mu     sync.Mutex // protects cancel and done
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an idle watchdog. reporter and action may be nil.
func New(sched Scheduler, timeout time.Duration, reporter destination.Reporter, action func(report string), opts ...Option) *WatchDog {
	w := &WatchDog{
		sched:    sched,
		timeout:  timeout,
		reporter: reporter,
		action:   action,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start arms the watchdog, restarting it if it was already armed
func (w *WatchDog) Start() {
	w.Stop()

	w.mu.Lock()
	defer w.mu.Unlock()
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.run(ctx, w.done)
}

// Stop disarms the watchdog and waits for its timer goroutine to exit.
// Called from the reporter or the action it returns at once; the timer
// goroutine exits when the callback returns.
func (w *WatchDog) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if f := w.firing.Load(); f != 0 && f == currentGoroutineID() {
		return
	}
	<-done
}

// Initialised reports whether a heartbeat has run on the monitored goroutine
func (w *WatchDog) Initialised() bool {
	return w.gid.Load() != 0
}

// Timeouts returns how many times the watchdog has fired
func (w *WatchDog) Timeouts() uint64 {
	return w.fired.Load()
}

func (w *WatchDog) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	beats := make(chan struct{}, 1)
	heartbeat := func() {
		if w.gid.Load() == 0 {
			w.gid.CompareAndSwap(0, currentGoroutineID())
		}
		select {
		case beats <- struct{}{}:
		default:
		}
	}

	ticker := time.NewTicker(w.timeout / 2)
	defer ticker.Stop()
	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.sched.Schedule(heartbeat) {
				w.logger.Debug("watchdog heartbeat not accepted")
			}
		case <-beats:
			timer.Reset(w.timeout)
		case <-timer.C:
			w.fire()
			if ctx.Err() != nil {
				return
			}
			timer.Reset(w.timeout)
		}
	}
}

func (w *WatchDog) fire() {
	w.fired.Add(1)
	report := w.Report()
	w.logger.Warn("watchdog timeout", zap.Duration("timeout", w.timeout), zap.Int64("goroutine", w.gid.Load()))

	gid := currentGoroutineID()
	w.firing.Store(gid)
	defer w.firing.CompareAndSwap(gid, 0)
	if w.reporter != nil {
		w.reporter.Emit(core.Critical, "%s", report)
	}
	if w.action != nil {
		w.action(report)
	}
}

// Report renders the current stack of the monitored goroutine
func (w *WatchDog) Report() string {
	gid := w.gid.Load()
	if gid == 0 {
		return notInitialised
	}
	stack, ok := goroutineStack(gid)
	if !ok {
		return timeoutPrefix + fmt.Sprintf("goroutine %d has exited", gid)
	}
	return timeoutPrefix + stack
}

// currentGoroutineID parses the id from the "goroutine N [" header
func currentGoroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	header := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(header, ' '); i > 0 {
		id, err := strconv.ParseInt(string(header[:i]), 10, 64)
		if err == nil {
			return id
		}
	}
	return 0
}

// goroutineStack returns the stack block of goroutine gid
func goroutineStack(gid int64) (string, bool) {
	buf := make([]byte, 64<<10)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			buf = buf[:n]
			break
		}
		buf = make([]byte, len(buf)*2)
	}

	header := []byte("goroutine " + strconv.FormatInt(gid, 10) + " [")
	for _, block := range bytes.Split(buf, []byte("\n\n")) {
		if bytes.HasPrefix(block, header) {
			return string(bytes.TrimRight(block, "\n")), true
		}
	}
	return "", false
}
