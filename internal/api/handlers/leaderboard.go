package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/playsevenate9/backend/internal/scoring"
)

// Leaderboard reads the score tallies
type Leaderboard interface {
	Leaderboard(ctx context.Context, limit int) ([]scoring.Entry, error)
}

// GetLeaderboard returns the top participants, 10 unless ?limit= says otherwise
func GetLeaderboard(board Leaderboard) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := scoring.DefaultLimit
		if v := c.Query("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}
		entries, err := board.Leaderboard(c.Request.Context(), limit)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
	}
}
