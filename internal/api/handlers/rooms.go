package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playsevenate9/backend/internal/game"
	"github.com/playsevenate9/backend/internal/models"
	"github.com/playsevenate9/backend/internal/room"
)

// Rooms is the room service as the HTTP layer uses it
type Rooms interface {
	CreateRoom(ctx context.Context, displayName string) (room.Seat, error)
	JoinRoom(ctx context.Context, code, displayName, sessionID string) (room.Seat, error)
	LeaveRoom(ctx context.Context, code, sessionID string) error
	AddBot(ctx context.Context, code, hostSession, difficulty string) (models.RoomPlayer, error)
	StartGame(ctx context.Context, code, hostSession string) (room.Snapshot, error)
	Room(ctx context.Context, code string) (room.Info, error)
	State(ctx context.Context, code string) (room.Snapshot, error)
	SeatOf(ctx context.Context, code, sessionID string) (int, error)
	Submit(ctx context.Context, code, sessionID string, action game.Action, baseVersion *int64) (room.Snapshot, error)
}

// CreateRoom opens a room with the caller as host
func CreateRoom(rooms Rooms) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			DisplayName string `json:"display_name" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "display_name required"})
			return
		}
		seat, err := rooms.CreateRoom(c.Request.Context(), req.DisplayName)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, seat)
	}
}

// JoinRoom seats the caller in a waiting room. A known session_id gets its seat back.
func JoinRoom(rooms Rooms) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			DisplayName string `json:"display_name"`
			SessionID   string `json:"session_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		if req.DisplayName == "" && req.SessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "display_name required"})
			return
		}
		seat, err := rooms.JoinRoom(c.Request.Context(), c.Param("code"), req.DisplayName, req.SessionID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, seat)
	}
}

// LeaveRoom gives up the caller's seat
func LeaveRoom(rooms Rooms) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := seatClaims(c)
		if err := rooms.LeaveRoom(c.Request.Context(), claims.RoomCode, claims.SessionID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "left"})
	}
}

// AddBot lets the host fill the next seat with an AI opponent
func AddBot(rooms Rooms) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Difficulty string `json:"difficulty"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
				return
			}
		}
		claims, _ := seatClaims(c)
		bot, err := rooms.AddBot(c.Request.Context(), claims.RoomCode, claims.SessionID, req.Difficulty)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"seat":         bot.Seat,
			"display_name": bot.DisplayName,
			"difficulty":   bot.Difficulty.String,
		})
	}
}

// StartGame deals the match; host only
func StartGame(rooms Rooms) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, _ := seatClaims(c)
		snap, err := rooms.StartGame(c.Request.Context(), claims.RoomCode, claims.SessionID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stateResponse(snap, claims.Seat))
	}
}

// GetRoom returns the room and its roster
func GetRoom(rooms Rooms) gin.HandlerFunc {
	return func(c *gin.Context) {
		info, err := rooms.Room(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, info)
	}
}
