package websocket

import (
	"sync"

	"github.com/pkondrashkov/gallery-api/internal/application/dto"
	"github.com/pkondrashkov/gallery-api/pkg/logger"
)

// Hub manages WebSocket clients and fans out gallery change messages.
// Implements port.NotificationService.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Channel for broadcast messages
	broadcast chan *dto.GalleryEventDTO

	// Channel for registering clients
	register chan *Client

	// Channel for removing clients
	unregister chan *Client

	// Mutex protecting the clients map
	mu sync.RWMutex

	// Logger
	logger *logger.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *dto.GalleryEventDTO, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run starts the hub (must run in its own goroutine)
func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("Client registered", "total_clients", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("Client unregistered", "total_clients", len(h.clients))

		case event := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- Message{Type: "gallery", Data: event}:
					// Message delivered
				default:
					// Client channel full, drop the connection
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("Client channel full, disconnected")
				}
			}
			h.mu.RUnlock()
			h.logger.Debug("Gallery event broadcasted to clients", "action", event.Action)
		}
	}
}

// Register registers a new client
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastGalleryEvent sends a gallery change to all clients (implements port.NotificationService)
func (h *Hub) BroadcastGalleryEvent(event *dto.GalleryEventDTO) {
	select {
	case h.broadcast <- event:
		// Event queued
	default:
		h.logger.Warn("Broadcast channel full, dropping gallery event")
	}
}

// ClientCount returns the number of connected clients (implements port.NotificationService)
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Message represents a message sent to a client
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}
