package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/example/trainer-scheduler/internal/events"
	"github.com/example/trainer-scheduler/internal/scheduler"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBuffer     = 64
)

type updateSource interface {
	Subscribe(listener events.Listener) (unsubscribe func())
	Events() []scheduler.Event
}

// UpdatesHandler streams store updates over a WebSocket. Each connection
// first receives a "snapshot" message with the current events, then one
// message per store update. Slow clients are disconnected.
type UpdatesHandler struct {
	source   updateSource
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func NewUpdatesHandler(source updateSource, logger *slog.Logger) *UpdatesHandler {
	return &UpdatesHandler{
		source: source,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: defaultLogger(logger),
	}
}

type updateMessage struct {
	Kind       string     `json:"kind"`
	Changed    []eventDTO `json:"changed,omitempty"`
	RemovedIDs []string   `json:"removedIds,omitempty"`
	Events     []eventDTO `json:"events"`
}

func (h *UpdatesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := handlerLogger(r.Context(), h.logger, "updates", "Stream")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, sendBuffer), logger: logger}
	unsubscribe := h.source.Subscribe(func(_ context.Context, update events.Update) {
		client.enqueue(encodeUpdate(updateMessage{
			Kind:       string(update.Kind),
			Changed:    changedDTOs(update.Changed),
			RemovedIDs: update.RemovedIDs,
			Events:     toEventDTOs(update.Events),
		}, logger))
	})
	client.enqueue(encodeUpdate(updateMessage{Kind: "snapshot", Events: toEventDTOs(h.source.Events())}, logger))
	logger.Info("update stream opened")

	go client.writePump()
	client.readPump()

	unsubscribe()
	client.close()
	logger.Info("update stream closed")
}

func changedDTOs(changed []scheduler.Event) []eventDTO {
	if len(changed) == 0 {
		return nil
	}
	return toEventDTOs(changed)
}

func encodeUpdate(msg updateMessage, logger *slog.Logger) []byte {
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error("failed to encode update", "error", err)
		return nil
	}
	return payload
}

type wsClient struct {
	conn   *websocket.Conn
	send   chan []byte
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// enqueue hands msg to the write pump. A full buffer closes the stream.
func (c *wsClient) enqueue(msg []byte) {
	if msg == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- msg:
	default:
		c.logger.Warn("update stream too slow, disconnecting")
		c.closed = true
		close(c.send)
	}
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// readPump discards client messages and returns once the peer goes away.
func (c *wsClient) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("update stream read failed", "error", err)
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
