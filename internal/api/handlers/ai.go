package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playsevenate9/backend/internal/ai"
	"github.com/playsevenate9/backend/internal/game"
)

// SuggestMove answers a provider-shaped request with the local strategy
func SuggestMove(strategy ai.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ai.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		diff, err := ai.ParseDifficulty(string(req.Difficulty))
		if err != nil {
			respondError(c, err)
			return
		}
		req.Difficulty = diff
		if req.RequiredNumber < game.MinNumber || req.RequiredNumber > game.MaxNumber {
			c.JSON(http.StatusBadRequest, gin.H{"error": "requiredNumber out of range"})
			return
		}
		for _, card := range req.Hand {
			if err := card.Validate(); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		dec, err := strategy.Decide(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dec)
	}
}
