package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"mirror-backend/internal/models"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket message pushed to a device. The hub only
// carries events that arrive outside a request/response cycle: late shopping
// items and synthesized speech.
type WSMessage struct {
	Type  string                   `json:"type"`
	Items []models.RecommendedItem `json:"items,omitempty"`
	Audio string                   `json:"audio,omitempty"`
}

// WSHub manages WebSocket connections keyed by device
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*websocket.Conn),
	}
}

// Register registers a new WebSocket connection for a device
func (h *WSHub) Register(deviceID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Close existing connection if any
	if existing, exists := h.connections[deviceID]; exists {
		existing.Close()
	}
	h.connections[deviceID] = conn

	log.Info().Str("device_id", deviceID).Msg("WebSocket connection registered")
}

// Unregister removes a WebSocket connection for a device
func (h *WSHub) Unregister(deviceID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, exists := h.connections[deviceID]; exists {
		conn.Close()
		delete(h.connections, deviceID)
		log.Info().Str("device_id", deviceID).Msg("WebSocket connection unregistered")
	}
}

// SendToDevice sends a message to a specific device
func (h *WSHub) SendToDevice(deviceID string, message WSMessage) error {
	h.mu.RLock()
	conn, exists := h.connections[deviceID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("device %s is not connected", deviceID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.Unregister(deviceID)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// IsOnline checks if a device has an active connection
func (h *WSHub) IsOnline(deviceID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[deviceID]
	return exists
}
