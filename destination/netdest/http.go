package netdest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/philipp01105/fanlog/core"
	"github.com/philipp01105/fanlog/formatter"
)

// HTTPConfig configures an HTTPTarget
type HTTPConfig struct {
	// URL receives one POST per message (required)
	URL string
	// ConnectTimeout bounds dialing (default: 10s)
	ConnectTimeout time.Duration
	// ReadTimeout bounds waiting for the response headers (default: 20s)
	ReadTimeout time.Duration
	// Formatter renders the body (default: TextFormatter)
	Formatter formatter.Formatter
	// Client overrides the HTTP client built from the timeouts
	Client *http.Client
}

// HTTPTarget posts each message as text/plain to a fixed URL. A response
// status outside 200-399 is a failure.
type HTTPTarget struct {
	url       string
	client    *http.Client
	formatter formatter.Formatter
}

// NewHTTPTarget validates the URL and builds the client
func NewHTTPTarget(cfg HTTPConfig) (*HTTPTarget, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("netdest: invalid url %q: %w", cfg.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("netdest: unsupported url scheme %q", u.Scheme)
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 20 * time.Second
	}
	if cfg.Formatter == nil {
		cfg.Formatter = formatter.NewTextFormatter(formatter.Config{})
	}

	client := cfg.Client
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				DialContext:           (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
				ResponseHeaderTimeout: cfg.ReadTimeout,
			},
			// A redirect status counts as success; do not follow it.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	return &HTTPTarget{
		url:       u.String(),
		client:    client,
		formatter: cfg.Formatter,
	}, nil
}

// Name returns "http"
func (t *HTTPTarget) Name() string {
	return "http"
}

// Encode renders the body. Invalid UTF-8 is rejected.
func (t *HTTPTarget) Encode(ev core.Event) (Message, error) {
	body, err := t.formatter.Format(&ev)
	if err != nil {
		return Message{}, err
	}
	if !utf8.Valid(body) {
		return Message{}, fmt.Errorf("message is not valid UTF-8")
	}
	return Message{DeviceID: ev.DeviceID, Event: ev, Body: body}, nil
}

// Transmit posts m.Body
func (t *HTTPTarget) Transmit(ctx context.Context, m Message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(m.Body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Content-Length", strconv.Itoa(len(m.Body)))
	req.Header.Set("X-DeviceId", m.DeviceID)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 399 {
		return fmt.Errorf("%w: http status %d", ErrSendFailed, resp.StatusCode)
	}
	return nil
}

// Close drops idle connections
func (t *HTTPTarget) Close() error {
	t.client.CloseIdleConnections()
	return nil
}
