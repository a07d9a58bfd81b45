package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	streamBuffer       = 16
	streamWriteTimeout = 5 * time.Second
)

// renderMessage is sent to stream clients after every render.
type renderMessage struct {
	Revision uint64          `json:"revision"`
	Value    json.RawMessage `json:"value"`
}

// hub fans render output out to WebSocket clients. New clients receive the
// latest render first.
type hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*streamClient]struct{}
	last    []byte
	closed  bool
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		logger:  logger,
		clients: make(map[*streamClient]struct{}),
	}
}

// publish queues a render for every client. It never blocks: a client whose
// buffer is full is disconnected.
func (h *hub) publish(revision uint64, value string) {
	msg, err := json.Marshal(renderMessage{Revision: revision, Value: json.RawMessage(value)})
	if err != nil {
		h.logger.Error("encode render", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = msg
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("stream client too slow, disconnecting", "remote", c.conn.RemoteAddr())
			delete(h.clients, c)
			c.stop()
		}
	}
}

// ServeHTTP upgrades the request and streams renders until the client goes
// away or the hub closes.
func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("stream upgrade failed", "error", err)
		return
	}

	c := &streamClient{
		conn: conn,
		send: make(chan []byte, streamBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.closeConn()
		return
	}
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	h.mu.Unlock()

	go c.readLoop()
	c.writeLoop(h.logger)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.closeConn()
}

// close disconnects every client.
func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.stop()
	}
}

func (h *hub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (c *streamClient) stop() {
	c.once.Do(func() { close(c.done) })
}

// readLoop discards client messages; it only notices the connection closing.
func (c *streamClient) readLoop() {
	defer c.stop()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *streamClient) writeLoop(logger *slog.Logger) {
	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Debug("stream write error", "error", err)
				}
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *streamClient) closeConn() {
	c.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	c.conn.Close()
}
