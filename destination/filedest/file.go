package filedest

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/philipp01105/fanlog/core"
	"github.com/philipp01105/fanlog/destination"
	"github.com/philipp01105/fanlog/formatter"
)

const (
	// DefaultMaxFiles is the number of numbered backups kept
	DefaultMaxFiles = 4
	// DefaultMaxLength is the size above which an existing file is rotated
	DefaultMaxLength = 1 << 20
)

// FileConfig holds configuration for the file destination
type FileConfig struct {
	// Path is the path to the log file
	Path string
	// MaxFiles is the number of backups kept as Path.1 .. Path.MaxFiles (default: 4)
	MaxFiles int
	// MaxLength rotates an existing file at startup when it is larger than
	// this many bytes (default: 1 MiB). A negative value rotates any
	// existing file.
	MaxLength int64
	// QueueSize is the capacity of the pending message queue (default: 100)
	QueueSize int
	// Formatter to use (default: TextFormatter)
	Formatter formatter.Formatter
	// Reporter receives the startup notice once the file is open (optional)
	Reporter destination.Reporter
	// Logger receives write failures (default: no-op)
	Logger *zap.Logger
	// MeterProvider for the destination counters (default: global provider)
	MeterProvider metric.MeterProvider
}

// applyFileDefaults fills in zero-value fields with defaults.
func applyFileDefaults(cfg *FileConfig) {
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = DefaultMaxFiles
	}
	if cfg.MaxLength == 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = destination.DefaultQueueSize
	}
	if cfg.Formatter == nil {
		cfg.Formatter = formatter.NewTextFormatter(formatter.Config{})
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
}

// FileDestination appends every event to a file on a dedicated worker.
// Rotation is decided once, when the destination is created.
type FileDestination struct {
	path            string
	maxFiles        int
	file            *os.File
	bufWriter       *bufio.Writer
	formatter       formatter.Formatter
	bufferFormatter formatter.BufferFormatter
	mu              sync.Mutex // protects file, bufWriter and lineBuf
	lineBuf         bytes.Buffer
	queue           *destination.Queue[core.Event]
	pump            *destination.Pump[core.Event]
	stats           *destination.Stats
	logger          *zap.Logger
	closeOnce       sync.Once
	closeErr        error
}

// New creates the file destination. An existing file larger than
// MaxLength is rotated before the new file is opened for append.
func New(cfg FileConfig) (*FileDestination, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("filedest: path is required")
	}
	applyFileDefaults(&cfg)

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
		return nil, fmt.Errorf("filedest: create directory: %w", err)
	}

	if err := rotateIfNeeded(cfg.Path, cfg.MaxFiles, cfg.MaxLength); err != nil {
		// A failed rotation is not fatal: keep appending to the current file.
		cfg.Logger.Warn("log rotation failed", zap.String("path", cfg.Path), zap.Error(err))
	}

	file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("filedest: open %s: %w", cfg.Path, err)
	}

	d := &FileDestination{
		path:      cfg.Path,
		maxFiles:  cfg.MaxFiles,
		file:      file,
		bufWriter: bufio.NewWriterSize(file, 4096),
		formatter: cfg.Formatter,
		stats:     destination.NewStats("file:"+filepath.Base(cfg.Path), cfg.MeterProvider),
		logger:    cfg.Logger.With(zap.String("destination", "file"), zap.String("path", cfg.Path)),
	}
	d.bufferFormatter, _ = cfg.Formatter.(formatter.BufferFormatter)
	d.queue = destination.NewQueue[core.Event](cfg.QueueSize, d.stats)
	d.pump = destination.StartPump(d.queue, d.handle, d.flush)

	if cfg.Reporter != nil {
		d.Announce(cfg.Reporter)
	}
	return d, nil
}

// Announce reports the startup notice naming the log file. New calls it
// when FileConfig.Reporter is set; a host that registers the destination
// first can call it afterwards so the notice lands in this file too.
func (d *FileDestination) Announce(r destination.Reporter) {
	r.Emit(core.Info, "Starting file logger, logfile is %s", filepath.Base(d.path))
}

// Send queues ev for writing. It never blocks; a full queue drops ev.
func (d *FileDestination) Send(ev core.Event) {
	if !d.pump.Alive() {
		return
	}
	d.queue.Offer(ev)
}

// handle writes one event. Write errors are counted and the worker
// carries on with the next event.
func (d *FileDestination) handle(_ context.Context, ev core.Event) bool {
	if err := d.write(&ev); err != nil {
		d.stats.IncrementFailed()
		d.logger.Warn("log write failed", zap.Error(err))
		return true
	}
	d.stats.IncrementProcessed()
	return true
}

// write formats ev and appends it, adding a newline when the formatted
// line lacks one. Nothing is flushed here.
func (d *FileDestination) write(ev *core.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lineBuf.Reset()
	if d.bufferFormatter != nil {
		d.bufferFormatter.FormatEvent(ev, &d.lineBuf)
	} else {
		data, err := d.formatter.Format(ev)
		if err != nil {
			return err
		}
		d.lineBuf.Write(data)
	}
	if d.lineBuf.Len() == 0 || d.lineBuf.Bytes()[d.lineBuf.Len()-1] != '\n' {
		d.lineBuf.WriteByte('\n')
	}

	_, err := d.bufWriter.Write(d.lineBuf.Bytes())
	return err
}

// flush runs whenever the queue has drained
func (d *FileDestination) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.bufWriter.Flush(); err != nil {
		d.stats.IncrementFailed()
		d.logger.Warn("log flush failed", zap.Error(err))
	}
}

// Path returns the path of the current log file
func (d *FileDestination) Path() string {
	return d.path
}

// Stats returns a snapshot of the current statistics
func (d *FileDestination) Stats() destination.Snapshot {
	return d.stats.GetSnapshot()
}

// Close stops the worker and closes the file. Messages still queued are
// not written.
func (d *FileDestination) Close() error {
	d.closeOnce.Do(func() {
		d.pump.Stop()
		d.pump.Wait()

		d.mu.Lock()
		defer d.mu.Unlock()

		if err := d.bufWriter.Flush(); err != nil {
			d.file.Close()
			d.closeErr = err
			return
		}
		d.closeErr = d.file.Close()
	})
	return d.closeErr
}

// Drain waits until every queued event has been written and flushed
func (d *FileDestination) Drain(ctx context.Context) error {
	return d.pump.Drain(ctx)
}
