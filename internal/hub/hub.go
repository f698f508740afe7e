// Package hub fans poll and leaderboard snapshots out to every live
// subscriber connection. The registry is the single synchronization point for
// the connection set; handlers add clients, the aggregator broadcasts, and
// clients remove themselves on close or error.
package hub

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/livepolls/polling-service/internal/models"
)

// Hub owns the set of live subscriber connections. Subscribers have no
// per-poll filter: every registered client receives every broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// New creates an empty hub.
func New(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the broadcast set. The client receives only
// broadcasts sent after registration; there is no backfill of past snapshots.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("subscriber connected", "subscribers", h.Len())
}

// Unregister removes a client and closes its send queue. Removing a client
// that is already gone is a no-op, so the close path and the slow-client path
// can race safely.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		h.logger.Info("subscriber disconnected", "subscribers", h.Len())
	}
}

// Len reports the current number of registered clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastPollUpdate pushes a poll snapshot to every subscriber.
func (h *Hub) BroadcastPollUpdate(pollID string, results []models.OptionResult) {
	h.broadcast(models.PollUpdate{
		Type:    models.MessageTypePollUpdate,
		PollID:  pollID,
		Results: results,
	})
}

// BroadcastLeaderboardUpdate pushes the cross-poll leaderboard to every
// subscriber.
func (h *Hub) BroadcastLeaderboardUpdate(entries []models.LeaderboardEntry) {
	h.broadcast(models.LeaderboardUpdate{
		Type:        models.MessageTypeLeaderboardUpdate,
		Leaderboard: entries,
	})
}

// broadcast serializes the message once and queues it on every client. The
// send is non-blocking: a client whose queue is full cannot keep up and is
// dropped, so one slow or half-closed connection never stalls the aggregator
// or the remaining subscribers.
func (h *Hub) broadcast(msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("broadcast marshal failed", "error", err)
		return
	}

	var slow []*Client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow subscriber")
		h.Unregister(c)
		c.conn.Close()
	}
}

// CloseAll disconnects every subscriber. Used at shutdown after the
// aggregator has drained.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
		c.conn.Close()
	}
	h.mu.Unlock()
}
