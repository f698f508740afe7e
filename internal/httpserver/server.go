package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/livepolls/polling-service/internal/handlers"
	"github.com/livepolls/polling-service/internal/hub"
	"github.com/livepolls/polling-service/internal/store"
)

// NewRouter wires the public HTTP surface: poll management, vote ingestion,
// the leaderboard read model, and the websocket stream.
func NewRouter(st *store.PostgresStore, pub handlers.VotePublisher, h *hub.Hub, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: confirms the DB dependency is reachable.
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if err := st.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	handlers.RegisterPollRoutes(r, st)
	handlers.RegisterVoteRoutes(r, pub)
	handlers.RegisterLeaderboardRoutes(r, st)
	handlers.RegisterStreamRoutes(r, h, logger)

	return r
}
