package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/livepolls/polling-service/internal/models"
)

// VotePublisher is the broker write side the ingestion endpoint needs.
type VotePublisher interface {
	PublishVote(ctx context.Context, ev models.VoteEvent) error
}

// RegisterVoteRoutes registers the ingestion-path endpoint.
//
// POST /polls/:pollId/vote
// - Acknowledges as soon as the broker accepts the write durably
// - Does not wait for aggregation or counter visibility
// - No existence check here; an unknown option surfaces in the aggregator
func RegisterVoteRoutes(r gin.IRoutes, pub VotePublisher) {
	r.POST("/polls/:pollId/vote", func(c *gin.Context) {
		pollID := c.Param("pollId")

		var req models.VoteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		if pollID == "" || req.OptionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pollId and optionId are required"})
			return
		}

		ev := models.VoteEvent{PollID: pollID, OptionID: req.OptionID}
		if err := pub.PublishVote(c.Request.Context(), ev); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "vote enqueue failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"status": "vote registered"})
	})
}
