package ws

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"qingplan/internal/common"
	"qingplan/internal/logging"
	"qingplan/internal/server/auth"
)

type Handler struct {
	hub       *Hub
	secretKey []byte
	log       logging.Logger
	upgrader  websocket.Upgrader
}

func NewHandler(hub *Hub, secretKey []byte, log logging.Logger) *Handler {
	return &Handler{
		hub:       hub,
		secretKey: secretKey,
		log:       log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP authenticates the session token, upgrades the connection, and
// attaches it to the hub. The token comes from the query string or the
// Authorization header.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get(common.AuthorizationHeaderName), "Bearer ")
	}
	if token == "" {
		http.Error(w, "missing authorization token", http.StatusUnauthorized)
		return
	}

	userID, err := auth.GetUserIDFromToken(token, h.secretKey)
	if err != nil {
		h.log.Warn(r.Context(), "ws token rejected", "err", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "ws upgrade failed", "err", err)
		return
	}

	h.log.Info(context.WithoutCancel(r.Context()), "ws session connected", "user", userID)

	client := newClient(userID, conn, h.hub)
	h.hub.register(client)

	go client.writePump()
	go client.readPump()
}
