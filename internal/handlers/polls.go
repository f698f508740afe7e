package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/livepolls/polling-service/internal/models"
)

// PollStore is the store capability the poll endpoints need.
type PollStore interface {
	CreatePoll(ctx context.Context, title string, options []string) (string, error)
	PollSnapshot(ctx context.Context, pollID string) ([]models.OptionResult, error)
}

// RegisterPollRoutes registers poll creation and the poll read model.
//
// POST /polls               create a poll and its options
// GET  /polls/:pollId/options  current snapshot, vote count descending
func RegisterPollRoutes(r gin.IRoutes, st PollStore) {
	r.POST("/polls", func(c *gin.Context) {
		var req models.CreatePollRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON payload"})
			return
		}

		if req.Title == "" || len(req.Options) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid poll data"})
			return
		}

		pollID, err := st.CreatePoll(c.Request.Context(), req.Title, req.Options)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "poll creation failed"})
			return
		}

		c.JSON(http.StatusCreated, models.CreatePollResponse{PollID: pollID})
	})

	r.GET("/polls/:pollId/options", func(c *gin.Context) {
		pollID := c.Param("pollId")
		if pollID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "pollId required"})
			return
		}

		results, err := st.PollSnapshot(c.Request.Context(), pollID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db query failed"})
			return
		}
		if len(results) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "poll not found"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"options": results})
	})
}
