package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/livepolls/polling-service/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Viewers connect from arbitrary origins; there is no voter auth.
	CheckOrigin: func(*http.Request) bool { return true },
}

// RegisterStreamRoutes registers the live-update channel.
//
// GET /ws — upgrades to a websocket and joins the broadcast set. The client
// receives every poll-update and leaderboard-update from that point on; past
// snapshots are not replayed.
func RegisterStreamRoutes(r gin.IRoutes, h *hub.Hub, logger *slog.Logger) {
	r.GET("/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the HTTP error response.
			logger.Warn("websocket upgrade failed", "error", err)
			return
		}
		h.Serve(conn)
	})
}
