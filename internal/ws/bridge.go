package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/growtools/backend/internal/extension"
	"github.com/growtools/backend/internal/service"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is handled at the HTTP level
	},
}

// BridgeHandler exposes the page ↔ extension message channel over a
// WebSocket. The web UI connects here, sends CHECK / ACCESS_REQUEST
// envelopes, and reads back INSTALLED / ACCESS_RESPONSE — the same
// protocol a content script would speak over window.postMessage.
type BridgeHandler struct {
	bridge *extension.Bridge
	auth   *service.AuthService
}

// NewBridgeHandler creates a new BridgeHandler.
func NewBridgeHandler(bridge *extension.Bridge, auth *service.AuthService) *BridgeHandler {
	return &BridgeHandler{bridge: bridge, auth: auth}
}

// Handle upgrades HTTP to WebSocket and relays page messages to the bridge.
// URL: /ws/bridge?token=JWT_TOKEN
func (h *BridgeHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token required", http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.VerifyToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] bridge connected (user: %s)", claims.Email)

	for {
		var msg extension.PageMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] bridge read error: %v", err)
			}
			return
		}

		reply, ok := h.bridge.Handle(r.Context(), msg)
		if !ok {
			// Unknown message types are dropped, like a content script
			// ignoring postMessage traffic that isn't for it.
			continue
		}
		if err := conn.WriteJSON(reply); err != nil {
			log.Printf("[ws] bridge write error: %v", err)
			return
		}
	}
}
