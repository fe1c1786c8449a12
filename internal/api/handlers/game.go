package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/playsevenate9/backend/internal/game"
	"github.com/playsevenate9/backend/internal/room"
	"github.com/playsevenate9/backend/internal/session"
)

func stateResponse(snap room.Snapshot, seat int) gin.H {
	return gin.H{
		"version": snap.Version,
		"state":   game.ViewFor(snap.State, seat),
		"events":  snap.Events,
	}
}

// GetState returns the match as seen by the seat the bearer holds, or a spectator
// view for callers without a seat
func GetState(rooms Rooms, issuer *session.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		seat := -1
		if token := bearerToken(c); token != "" {
			claims, err := issuer.Parse(token)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			if norm, ok := room.NormalizeCode(c.Param("code")); ok && norm == claims.RoomCode {
				held, err := rooms.SeatOf(c.Request.Context(), norm, claims.SessionID)
				switch {
				case err == nil:
					seat = held
				case !errors.Is(err, room.ErrNotSeated):
					respondError(c, err)
					return
				}
			}
		}
		snap, err := rooms.State(c.Request.Context(), c.Param("code"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stateResponse(snap, seat))
	}
}

// SubmitAction applies a play or draw for the caller's seat. With base_version the
// action is rejected with 409 if the match moved on since that version.
func SubmitAction(rooms Rooms) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Type        game.ActionType `json:"type" binding:"required"`
			CardID      string          `json:"card_id"`
			BaseVersion *int64          `json:"base_version"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type required"})
			return
		}
		switch req.Type {
		case game.ActionPlay:
			if req.CardID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "card_id required"})
				return
			}
		case game.ActionDraw:
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "type must be play or draw"})
			return
		}

		claims, _ := seatClaims(c)
		seat, err := rooms.SeatOf(c.Request.Context(), claims.RoomCode, claims.SessionID)
		if err != nil {
			respondError(c, err)
			return
		}
		action := game.Action{Type: req.Type, CardID: req.CardID}
		snap, err := rooms.Submit(c.Request.Context(), claims.RoomCode, claims.SessionID, action, req.BaseVersion)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stateResponse(snap, seat))
	}
}
