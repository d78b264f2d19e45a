package notification

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/homewatch/homewatch-go/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type hubClient struct {
	conn   *websocket.Conn
	userID uint
	send   chan []byte
}

// Hub bridges the notification service to websocket clients. Each client
// belongs to a per-user room so alerts only reach their owner.
type Hub struct {
	mu      sync.RWMutex
	clients map[*hubClient]struct{}
	service *Service
	events  chan *Event
	done    chan struct{}
	logger  *slog.Logger
}

// NewHub creates the hub and subscribes it to all events on the service.
func NewHub(service *Service) *Hub {
	h := &Hub{
		clients: make(map[*hubClient]struct{}),
		service: service,
		done:    make(chan struct{}),
		logger:  logging.ForService("notification-hub"),
	}
	h.events = service.Subscribe(0)
	return h
}

// Run pumps events from the service into connected clients until Close.
func (h *Hub) Run() {
	for {
		select {
		case event, ok := <-h.events:
			if !ok {
				return
			}
			h.broadcast(event)
		case <-h.done:
			return
		}
	}
}

func (h *Hub) broadcast(event *Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", "event_id", event.ID, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.userID != event.UserID {
			continue
		}
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("client send buffer full, dropping event",
				"user_id", client.userID, "event_id", event.ID)
		}
	}
}

// Register attaches a websocket connection for userID and services it until
// the connection drops. Blocks until the read side fails.
func (h *Hub) Register(conn *websocket.Conn, userID uint) {
	client := &hubClient{
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, subscriberBuffer),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("client connected", "user_id", userID, "total", total)

	go h.writePump(client)
	h.readPump(client)
}

func (h *Hub) unregister(client *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	_ = client.conn.Close()
	h.logger.Info("client disconnected", "user_id", client.userID, "total", total)
}

// readPump consumes client frames to surface disconnects and pongs; the
// server never acts on inbound messages.
func (h *Hub) readPump(client *hubClient) {
	defer h.unregister(client)

	client.conn.SetReadLimit(512)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(client *hubClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = client.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ClientCount reports the number of connected websocket clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close detaches the hub from the service and drops every client.
func (h *Hub) Close() {
	close(h.done)
	h.service.Unsubscribe(h.events)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
		_ = client.conn.Close()
	}
}
