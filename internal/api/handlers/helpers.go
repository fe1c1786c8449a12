package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playsevenate9/backend/internal/ai"
	"github.com/playsevenate9/backend/internal/game"
	"github.com/playsevenate9/backend/internal/room"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, room.ErrNotHost), errors.Is(err, room.ErrNotSeated):
		return http.StatusForbidden
	case errors.Is(err, room.ErrRoomFull), errors.Is(err, room.ErrAlreadyStarted),
		errors.Is(err, room.ErrNotStarted), errors.Is(err, room.ErrTooFewPlayers),
		errors.Is(err, room.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, room.ErrInvalidName), errors.Is(err, ai.ErrUnknownDifficulty):
		return http.StatusBadRequest
	case errors.Is(err, game.ErrInvalidAction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, room.ErrCodeUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": ...}, adding the rejection reason for engine errors
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	body := gin.H{"error": err.Error()}
	if reason := game.ReasonOf(err); reason != "" {
		body["reason"] = reason
	}
	c.JSON(status, body)
}
