package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	ws "github.com/isdelr/taskboard-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler upgrades authenticated requests to the live task feed.
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler creates a new WebSocketHandler. checkOrigin may be nil
// to accept any origin.
func NewWebSocketHandler(hub *ws.Hub, checkOrigin func(*http.Request) bool) *WebSocketHandler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Serve handles the WebSocket connection request.
func (h *WebSocketHandler) Serve(w http.ResponseWriter, r *http.Request) {
	claims, ok := mustClaims(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Failed to upgrade websocket connection")
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UserID)
	if !h.hub.Join(client) {
		log.Warn().Str("user_id", claims.UserID).Msg("Hub stopped, refusing websocket connection")
		closeMsg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
		_ = conn.WriteControl(websocket.CloseMessage, closeMsg, time.Now().Add(time.Second))
		conn.Close()
		return
	}

	go client.WritePump()
	go func() {
		client.ReadPump(h.handleIncomingWSMessage)
		// Leaving closes Send, which ends WritePump.
		h.hub.Leave(client)
	}()
}

// handleIncomingWSMessage processes messages received from a websocket client.
// The feed is server-push; clients may only ping.
func (h *WebSocketHandler) handleIncomingWSMessage(client *ws.Client, message []byte) {
	var msg ws.Message
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Warn().Err(err).Str("user_id", client.UserID).Msg("Error decoding websocket message")
		h.hub.Reply(client, ws.NewErrorMessage("Invalid message"))
		return
	}

	switch msg.Action {
	case "ping":
		h.hub.Reply(client, ws.NewPongMessage())
	default:
		log.Warn().Str("action", msg.Action).Msg("Unknown websocket action received")
		h.hub.Reply(client, ws.NewErrorMessage("Unknown action: "+msg.Action))
	}
}
