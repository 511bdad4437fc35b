package stream

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/philipp01105/fanlog/core"
	"github.com/philipp01105/fanlog/logger"
)

type staticHistory struct{}

func (staticHistory) Send(core.Event) {}
func (staticHistory) Close() error    { return nil }
func (staticHistory) RetrieveHistory(int) (string, bool) {
	return "earlier line\n", true
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	return conn
}

func read(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	return string(msg)
}

func TestHandler_StreamsHistoryThenLines(t *testing.T) {
	d := logger.NewBuilder().WithDestinations(staticHistory{}).Build()
	srv := httptest.NewServer(NewHandler(d, Config{}))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	if got := read(t, conn); got != "earlier line\n" {
		t.Errorf("Expected history first, got %q", got)
	}

	// The subscription is registered before the handler starts writing.
	d.Infof("live %d", 1)
	var lines []string
	for i := 0; i < 3; i++ {
		lines = append(lines, read(t, conn))
	}
	if !strings.Contains(lines[0], "Logging started") {
		t.Errorf("Expected banner, got %q", lines[0])
	}
	if !strings.HasSuffix(lines[2], ": live 1\n") {
		t.Errorf("Expected live line, got %q", lines[2])
	}
}

func TestHandler_DispatcherCloseEndsStream(t *testing.T) {
	d := logger.NewBuilder().WithDestinations(staticHistory{}).Build()
	srv := httptest.NewServer(NewHandler(d, Config{}))
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()
	read(t, conn)

	d.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("Expected going-away close, got %v", err)
	}
}

func TestHandler_ClientCloseCancelsSubscription(t *testing.T) {
	d := logger.NewBuilder().Build()
	srv := httptest.NewServer(NewHandler(d, Config{}))
	defer srv.Close()

	conn := dial(t, srv)
	deadline := time.Now().Add(2 * time.Second)
	for len(d.Destinations()) != 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := len(d.Destinations()); n != 1 {
		t.Fatalf("Expected one subscription, got %d", n)
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()

	deadline = time.Now().Add(2 * time.Second)
	for len(d.Destinations()) != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := len(d.Destinations()); n != 0 {
		t.Errorf("Expected subscription to be cancelled, got %d destinations", n)
	}
}
