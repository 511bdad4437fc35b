package stream

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/philipp01105/fanlog/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Config configures a Handler
type Config struct {
	// Buffer is the subscription channel size (default: 256)
	Buffer int
	// CheckOrigin overrides the upgrader's origin check. The default
	// accepts same-origin requests only.
	CheckOrigin func(r *http.Request) bool
	// Logger receives connection diagnostics (default: no-op)
	Logger *zap.Logger
}

// Handler serves the dispatcher's log stream over websocket. Each
// connection is an independent subscription: the first text message is
// the retained history when available, then one message per line.
// Messages sent by the client are ignored.
type Handler struct {
	d        *logger.Dispatcher
	buffer   int
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler creates a websocket handler for d
func NewHandler(d *logger.Dispatcher, cfg Config) *Handler {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Handler{
		d:      d,
		buffer: cfg.Buffer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.CheckOrigin,
		},
		logger: cfg.Logger.With(zap.String("component", "stream")),
	}
}

// ServeHTTP handles WebSocket upgrade and streams until either side closes
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	h.logger.Debug("stream connected", zap.String("remote", remote))

	sub := h.d.Subscribe(h.buffer)
	defer sub.Cancel()

	closed := make(chan struct{})
	go h.readPump(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			h.logger.Debug("stream closed by client", zap.String("remote", remote))
			return
		case line, ok := <-sub.C():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "logger closed"))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				h.logger.Debug("stream write failed", zap.String("remote", remote), zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes client frames so that pongs and close frames are
// processed. It closes closed when the connection ends.
func (h *Handler) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("stream read error", zap.Error(err))
			}
			return
		}
	}
}
