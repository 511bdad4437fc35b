package netdest

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	lumberjack "github.com/elastic/go-lumber/client/v2"

	"github.com/philipp01105/fanlog/core"
	"github.com/philipp01105/fanlog/destination"
)

// BeatsConfig configures a BeatsTarget
type BeatsConfig struct {
	// Address of the Logstash/Beats input, host:port (required)
	Address string
	// Timeout for dialing and for each acknowledgement (default: 3s)
	Timeout time.Duration
	// CompressionLevel 0-9 (default: 0, no compression)
	CompressionLevel int
	// Hostname reported in host.name (default: os.Hostname)
	Hostname string
}

// BeatsTarget ships events to a Logstash Beats input using the
// lumberjack v2 protocol. The connection is dialled on first use.
type BeatsTarget struct {
	address     string
	timeout     time.Duration
	compression int
	hostname    string

	mu     sync.Mutex // protects client and closed
	client *lumberjack.SyncClient
	closed bool
}

// NewBeatsTarget validates cfg; no connection is made yet
func NewBeatsTarget(cfg BeatsConfig) (*BeatsTarget, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("netdest: beats address is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.Hostname == "" {
		cfg.Hostname, _ = os.Hostname()
	}
	return &BeatsTarget{
		address:     cfg.Address,
		timeout:     cfg.Timeout,
		compression: cfg.CompressionLevel,
		hostname:    cfg.Hostname,
	}, nil
}

// Name returns "beats"
func (t *BeatsTarget) Name() string {
	return "beats"
}

// Encode keeps the event; fields are built at transmit time
func (t *BeatsTarget) Encode(ev core.Event) (Message, error) {
	return Message{DeviceID: ev.DeviceID, Event: ev}, nil
}

// Fields builds the document sent for ev
func (t *BeatsTarget) Fields(ev core.Event) map[string]interface{} {
	return map[string]interface{}{
		"@timestamp": ev.Time.UTC(),
		"message":    ev.Text,
		"host": map[string]interface{}{
			"name": t.hostname,
		},
		"device": map[string]interface{}{
			"id": ev.DeviceID,
		},
		"log": map[string]interface{}{
			"origin": ev.Tag,
			"syslog": map[string]interface{}{
				"severity": map[string]interface{}{
					"code": int(ev.Priority),
					"name": ev.Priority.String(),
				},
			},
		},
	}
}

// Transmit sends one event and waits for its acknowledgement
func (t *BeatsTarget) Transmit(_ context.Context, m Message) error {
	client, err := t.connect()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	if _, err := client.Send([]interface{}{t.Fields(m.Event)}); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

func (t *BeatsTarget) connect() (*lumberjack.SyncClient, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, destination.ErrClosed
	}
	if t.client != nil {
		return t.client, nil
	}
	client, err := lumberjack.SyncDial(t.address,
		lumberjack.CompressionLevel(t.compression),
		lumberjack.Timeout(t.timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to beats server: %w", err)
	}
	t.client = client
	return client, nil
}

// Close closes the connection, unblocking a pending Transmit
func (t *BeatsTarget) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}
