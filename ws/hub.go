package ws

import (
	"encoding/json"
	"sync"
	"time"

	"ambulance-fleet/logger"

	"github.com/gofiber/contrib/websocket"
)

// Event is the envelope for every message pushed over a socket.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Event types pushed by the dispatch service.
const (
	EventDriverStatusUpdate = "driver_status_update"
	EventLocationUpdate     = "location_update"
	EventDriverAccepted     = "driver_accepted"
	EventDriverRejected     = "driver_rejected"
	EventTransportCompleted = "transport_completed"
)

// Hub tracks open admin and driver connections. Delivery is fire and forget:
// a failed write drops the connection, it never fails the API request that
// produced the event.
type Hub struct {
	mu      sync.Mutex
	admins  map[*websocket.Conn]bool
	drivers map[uint]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{
		admins:  make(map[*websocket.Conn]bool),
		drivers: make(map[uint]*websocket.Conn),
	}
}

// RegisterAdmin adds an admin dashboard connection.
func (h *Hub) RegisterAdmin(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.admins[conn] = true
}

// UnregisterAdmin removes an admin connection.
func (h *Hub) UnregisterAdmin(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.admins, conn)
}

// RegisterDriver adds a driver connection keyed by driver id. A reconnect
// replaces the previous connection.
func (h *Hub) RegisterDriver(driverID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.drivers[driverID]; ok && old != conn {
		old.Close()
	}
	h.drivers[driverID] = conn
}

// UnregisterDriver removes a driver connection if it is still the registered
// one.
func (h *Hub) UnregisterDriver(driverID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.drivers[driverID] == conn {
		delete(h.drivers, driverID)
	}
}

// BroadcastToAdmins pushes an event to every admin connection, pruning any
// that fail.
func (h *Hub) BroadcastToAdmins(eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data, Timestamp: time.Now()})
	if err != nil {
		logger.Error("Failed to marshal websocket event", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.admins {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			conn.Close()
			delete(h.admins, conn)
		}
	}
}

// NotifyDriver pushes an event to a single driver connection if one is open.
func (h *Hub) NotifyDriver(driverID uint, eventType string, data interface{}) {
	payload, err := json.Marshal(Event{Type: eventType, Data: data, Timestamp: time.Now()})
	if err != nil {
		logger.Error("Failed to marshal websocket event", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	conn, ok := h.drivers[driverID]
	if !ok {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		conn.Close()
		delete(h.drivers, driverID)
	}
}

// AdminCount returns the number of open admin connections.
func (h *Hub) AdminCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.admins)
}
