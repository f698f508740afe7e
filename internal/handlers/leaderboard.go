package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/livepolls/polling-service/internal/models"
)

// leaderboardLimit matches the limit the aggregator broadcasts with.
const leaderboardLimit = 10

// LeaderboardStore is the store capability the leaderboard endpoint needs.
type LeaderboardStore interface {
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// RegisterLeaderboardRoutes registers the serving-path endpoint.
//
// GET /leaderboard — top 10 options across all polls, vote count descending.
// Same read model the aggregator broadcasts from.
func RegisterLeaderboardRoutes(r gin.IRoutes, st LeaderboardStore) {
	r.GET("/leaderboard", func(c *gin.Context) {
		entries, err := st.Leaderboard(c.Request.Context(), leaderboardLimit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
			return
		}
		if entries == nil {
			entries = []models.LeaderboardEntry{}
		}
		c.JSON(http.StatusOK, entries)
	})
}
