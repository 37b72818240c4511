package websocket

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/avigneron/pumphouse/domain/model"
	"github.com/avigneron/pumphouse/domain/port/outbound"
)

// statusMessage is the frame pushed to every connected client on a pump
// transition.
type statusMessage struct {
	Status    string `json:"status"`
	Remaining int64  `json:"remaining"`
}

// client pairs a connection with a write lock. gorilla/websocket allows a
// single concurrent writer per connection, and the initial push on connect
// can race a broadcast from a pump transition or the tick loop.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(msg statusMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

// Handler owns the set of connected status observers and implements the
// StatusNotifier port. Broadcasts are fire and forget: a dead connection is
// dropped, it can never block or fail the pump transition that triggered
// the push.
type Handler struct {
	upgrader websocket.Upgrader
	logger   outbound.Logger

	mu      sync.RWMutex
	clients map[*client]bool
}

func NewHandler(logger outbound.Logger) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// the controller lives on a trusted LAN
				return true
			},
		},
		logger:  logger,
		clients: make(map[*client]bool),
	}
}

var _ outbound.StatusNotifier = (*Handler)(nil)

// HandleConnection upgrades an HTTP request and registers the client. The
// initial pump status is pushed immediately so a fresh page does not wait
// for the next transition.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request, status model.PumpStatus) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn}

	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	h.logger.Debug("status observer connected", "remote", conn.RemoteAddr().String())

	c.write(statusMessage{
		Status:    statusText(status.Running),
		Remaining: status.RemainingSeconds,
	})

	go h.readLoop(c)
}

// Broadcast pushes the new pump state to every observer.
func (h *Handler) Broadcast(running bool, remainingSeconds int64) {
	msg := statusMessage{
		Status:    statusText(running),
		Remaining: remainingSeconds,
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(msg); err != nil {
			h.logger.Debug("dropping status observer", "error", err)
			h.remove(c)
		}
	}
}

// Cleanup closes every connection, used during shutdown.
func (h *Handler) Cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.conn.Close()
	}
	h.clients = make(map[*client]bool)
}

// readLoop drains client frames until the connection dies. Observers are
// not expected to send anything; reading is only how we notice the close.
func (h *Handler) readLoop(c *client) {
	defer h.remove(c)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", "error", err)
			}
			return
		}
	}
}

func (h *Handler) remove(c *client) {
	h.mu.Lock()
	if _, exists := h.clients[c]; exists {
		delete(h.clients, c)
		c.conn.Close()
	}
	h.mu.Unlock()
}

func statusText(running bool) string {
	if running {
		return "running"
	}
	return "stopped"
}
