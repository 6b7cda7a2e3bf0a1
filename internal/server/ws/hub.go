// Package ws is the fan-out hub behind the /ws endpoint. Every connection
// belongs to one user; an event published by one of a user's sessions is
// forwarded to that user's other sessions, never back to the sender and
// never across users.
package ws

import (
	"context"
	stdsync "sync"

	"qingplan/internal/logging"
)

type Hub struct {
	log logging.Logger

	mu        stdsync.RWMutex
	userIndex map[string]map[*Client]struct{}
}

func NewHub(log logging.Logger) *Hub {
	return &Hub{
		log:       log,
		userIndex: map[string]map[*Client]struct{}{},
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.userIndex[c.userID] == nil {
		h.userIndex[c.userID] = map[*Client]struct{}{}
	}
	h.userIndex[c.userID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	peers, ok := h.userIndex[c.userID]
	if !ok {
		return
	}
	if _, ok := peers[c]; !ok {
		return
	}
	delete(peers, c)
	close(c.send)
	if len(peers) == 0 {
		delete(h.userIndex, c.userID)
	}
}

// broadcast forwards message to every session of userID except sender. A
// session with a full send buffer is dropped; it will reconnect.
func (h *Hub) broadcast(userID string, sender *Client, message []byte) {
	h.mu.RLock()
	var stale []*Client
	for peer := range h.userIndex[userID] {
		if peer == sender {
			continue
		}
		select {
		case peer.send <- message:
		default:
			stale = append(stale, peer)
		}
	}
	h.mu.RUnlock()

	for _, peer := range stale {
		h.log.Warn(context.Background(), "dropping slow ws client", "user", userID)
		h.unregister(peer)
	}
}

// Sessions reports the number of live connections for userID.
func (h *Hub) Sessions(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.userIndex[userID])
}
