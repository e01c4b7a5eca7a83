package handlers

import (
	"net/http"

	"mirror-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketHandler upgrades device connections for server push: speech audio
// and late-arriving shopping items
type WebSocketHandler struct {
	hub           *services.WSHub
	deviceService *services.DeviceService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.WSHub, deviceService *services.DeviceService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		deviceService: deviceService,
	}
}

// HandleConnection handles GET /ws?token=<jwt>
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	deviceID, err := h.deviceService.ValidateJWT(token)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade connection")
		return
	}

	h.hub.Register(deviceID, conn)
	log.Info().Str("device_id", deviceID).Msg("WebSocket connected")

	go h.readLoop(deviceID, conn)
}

// readLoop drains the connection until it closes; the push channel is one-way
func (h *WebSocketHandler) readLoop(deviceID string, conn *websocket.Conn) {
	defer func() {
		h.hub.Unregister(deviceID)
		conn.Close()
		log.Info().Str("device_id", deviceID).Msg("WebSocket disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
