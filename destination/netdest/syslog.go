package netdest

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/philipp01105/fanlog/core"
	"github.com/philipp01105/fanlog/destination"
	"github.com/philipp01105/fanlog/formatter"
)

// SyslogConfig configures a SyslogTarget
type SyslogConfig struct {
	// Host of the syslog server (default: localhost)
	Host string
	// Port of the syslog server (default: 514)
	Port int
	// Formatter overrides the RFC 3164 formatter
	Formatter *formatter.SyslogFormatter
	// WriteTimeout bounds a single datagram write (default: 5s)
	WriteTimeout time.Duration
	// Logger receives swallowed send errors at debug level
	Logger *zap.Logger
}

// SyslogTarget sends each message as one UDP datagram. Datagrams are
// written by a separate sender goroutine, so Transmit never blocks on the
// network and never fails: syslog delivery is fire-and-forget.
type SyslogTarget struct {
	addr         string
	formatter    *formatter.SyslogFormatter
	writeTimeout time.Duration
	logger       *zap.Logger

	queue *destination.Queue[[]byte]
	pump  *destination.Pump[[]byte]

	mu   sync.Mutex // protects conn
	conn net.Conn
}

// NewSyslogTarget starts the datagram sender. The server address is
// resolved lazily by the sender.
func NewSyslogTarget(cfg SyslogConfig) *SyslogTarget {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port <= 0 {
		cfg.Port = 514
	}
	if cfg.Formatter == nil {
		cfg.Formatter = formatter.NewSyslogFormatter(formatter.SyslogConfig{})
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	t := &SyslogTarget{
		addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		formatter:    cfg.Formatter,
		writeTimeout: cfg.WriteTimeout,
		logger:       cfg.Logger.With(zap.String("destination", "syslog")),
	}
	t.queue = destination.NewQueue[[]byte](destination.DefaultQueueSize, nil)
	t.pump = destination.StartPump(t.queue, t.send, nil)
	return t
}

// Name returns "syslog"
func (t *SyslogTarget) Name() string {
	return "syslog"
}

// Addr returns the server address as host:port
func (t *SyslogTarget) Addr() string {
	return t.addr
}

// Encode renders the RFC 3164 body
func (t *SyslogTarget) Encode(ev core.Event) (Message, error) {
	body, err := t.formatter.Format(&ev)
	if err != nil {
		return Message{}, err
	}
	return Message{DeviceID: ev.DeviceID, Event: ev, Body: body}, nil
}

// Transmit hands the datagram to the sender goroutine. It always succeeds.
func (t *SyslogTarget) Transmit(_ context.Context, m Message) error {
	t.queue.Offer(m.Body)
	return nil
}

// send writes one datagram. Errors are logged and swallowed; the
// connection is re-established for the next datagram.
func (t *SyslogTarget) send(_ context.Context, body []byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		conn, err := net.Dial("udp", t.addr)
		if err != nil {
			t.logger.Debug("syslog dial failed", zap.String("addr", t.addr), zap.Error(err))
			return true
		}
		t.conn = conn
	}

	t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout))
	if _, err := t.conn.Write(body); err != nil {
		t.logger.Debug("syslog send failed", zap.String("addr", t.addr), zap.Error(err))
		t.conn.Close()
		t.conn = nil
	}
	return true
}

// Drain waits until the sender has written every accepted datagram
func (t *SyslogTarget) Drain(ctx context.Context) error {
	return t.pump.Drain(ctx)
}

// Close stops the sender and closes the socket
func (t *SyslogTarget) Close() error {
	t.pump.Stop()
	t.pump.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}
