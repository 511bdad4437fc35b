package consoledest

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/philipp01105/fanlog/core"
	"github.com/philipp01105/fanlog/destination"
	"github.com/philipp01105/fanlog/formatter"
)

// ANSI colour sequences per priority
var colors = [...]string{
	core.Emergency: "\x1b[1;35m",
	core.Alert:     "\x1b[1;35m",
	core.Critical:  "\x1b[1;31m",
	core.Error:     "\x1b[31m",
	core.Warning:   "\x1b[33m",
	core.Notice:    "\x1b[36m",
	core.Info:      "",
	core.Debug:     "\x1b[90m",
}

const colorReset = "\x1b[0m"

// ColorMode selects when output is coloured
type ColorMode int

const (
	// ColorAuto colours output when the writer is a terminal
	ColorAuto ColorMode = iota
	// ColorAlways always colours output
	ColorAlways
	// ColorNever never colours output
	ColorNever
)

// ConsoleConfig holds configuration for console destination
type ConsoleConfig struct {
	// Writer to write to (default: os.Stdout)
	Writer io.Writer
	// Formatter to use (default: TextFormatter)
	Formatter formatter.Formatter
	// Color selects colouring (default: ColorAuto)
	Color ColorMode
	// Async writes from a worker goroutine through a bounded queue.
	// Always on when Writer is an *os.File, whose descriptor may be a
	// pipe that blocks.
	Async bool
	// QueueSize is the capacity of the async queue (default: 100)
	QueueSize int
	// DrainTimeout bounds writing queued events on Close (default: 5s)
	DrainTimeout time.Duration
	// Logger receives write failures (default: no-op)
	Logger *zap.Logger
	// MeterProvider for the destination counters (default: global provider)
	MeterProvider metric.MeterProvider
}

// ConsoleDestination writes events to stdout, stderr or any io.Writer
type ConsoleDestination struct {
	writer          io.Writer
	formatter       formatter.Formatter
	writerFormatter formatter.WriterFormatter
	color           bool
	stderr          bool
	mu              sync.Mutex // serializes writes
	lineBuf         bytes.Buffer
	queue           *destination.Queue[core.Event]
	pump            *destination.Pump[core.Event]
	drainTimeout    time.Duration
	stats           *destination.Stats
	logger          *zap.Logger
	closeOnce       sync.Once
	closed          chan struct{}
}

// New creates a new console destination
func New(cfg ConsoleConfig) *ConsoleDestination {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.Formatter == nil {
		cfg.Formatter = formatter.NewTextFormatter(formatter.Config{})
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	f, isFile := cfg.Writer.(*os.File)
	if isFile {
		cfg.Async = true
	}

	d := &ConsoleDestination{
		writer:       cfg.Writer,
		formatter:    cfg.Formatter,
		color:        useColor(cfg.Color, cfg.Writer),
		stderr:       isFile && f == os.Stderr,
		drainTimeout: cfg.DrainTimeout,
		stats:        destination.NewStats("console", cfg.MeterProvider),
		logger:       cfg.Logger.With(zap.String("destination", "console")),
		closed:       make(chan struct{}),
	}

	// Cache WriterFormatter for the uncoloured path
	d.writerFormatter, _ = cfg.Formatter.(formatter.WriterFormatter)

	if cfg.Async {
		d.queue = destination.NewQueue[core.Event](cfg.QueueSize, d.stats)
		d.pump = destination.StartPump(d.queue, d.handle, nil)
	}
	return d
}

// useColor resolves mode against the writer
func useColor(mode ColorMode, w io.Writer) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Send writes ev, or queues it in async mode
func (d *ConsoleDestination) Send(ev core.Event) {
	select {
	case <-d.closed:
		return
	default:
	}

	if d.pump == nil {
		d.deliver(&ev)
		return
	}
	d.queue.Offer(ev)
}

func (d *ConsoleDestination) handle(_ context.Context, ev core.Event) bool {
	d.deliver(&ev)
	return true
}

func (d *ConsoleDestination) deliver(ev *core.Event) {
	if err := d.write(ev); err != nil {
		d.stats.IncrementFailed()
		d.logger.Debug("console write failed", zap.Error(err))
		return
	}
	d.stats.IncrementProcessed()
}

// write formats and writes an event
func (d *ConsoleDestination) write(ev *core.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.color && d.writerFormatter != nil {
		return d.writerFormatter.FormatTo(ev, d.writer)
	}

	data, err := d.formatter.Format(ev)
	if err != nil {
		return err
	}

	d.lineBuf.Reset()
	color := ""
	if d.color && ev.Priority.Valid() {
		color = colors[ev.Priority]
	}
	if color != "" {
		d.lineBuf.WriteString(color)
		d.lineBuf.Write(bytes.TrimSuffix(data, []byte("\n")))
		d.lineBuf.WriteString(colorReset)
		d.lineBuf.WriteByte('\n')
	} else {
		d.lineBuf.Write(data)
	}
	_, err = d.writer.Write(d.lineBuf.Bytes())
	return err
}

// WritesStderr reports whether the writer is os.Stderr
func (d *ConsoleDestination) WritesStderr() bool {
	return d.stderr
}

// Colored reports whether output is coloured
func (d *ConsoleDestination) Colored() bool {
	return d.color
}

// Stats returns a snapshot of the current statistics
func (d *ConsoleDestination) Stats() destination.Snapshot {
	return d.stats.GetSnapshot()
}

// Drain waits for queued events in async mode
func (d *ConsoleDestination) Drain(ctx context.Context) error {
	if d.pump == nil {
		return nil
	}
	return d.pump.Drain(ctx)
}

// Close stops the worker, then writes what is still queued until the
// drain timeout passes.
func (d *ConsoleDestination) Close() error {
	d.closeOnce.Do(func() {
		close(d.closed)
		if d.pump == nil {
			return
		}
		d.pump.Stop()
		d.pump.Wait()

		deadline := time.Now().Add(d.drainTimeout)
		for time.Now().Before(deadline) {
			ev, ok := d.queue.TryTake()
			if !ok {
				break
			}
			d.deliver(&ev)
		}
	})
	return nil
}
