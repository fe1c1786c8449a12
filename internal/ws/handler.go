package ws

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playsevenate9/backend/internal/room"
	"github.com/playsevenate9/backend/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // seat tokens authorize the connection
	},
}

// HandleWebSocket upgrades a seated participant: GET /rooms/:code/ws?token=<seat token>
func HandleWebSocket(hub *Hub, issuer *session.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": session.ErrMissingToken.Error()})
			return
		}
		claims, err := issuer.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		if !strings.EqualFold(claims.RoomCode, c.Param("code")) {
			c.JSON(http.StatusForbidden, gin.H{"error": "token is for another room"})
			return
		}
		seat, err := hub.svc.SeatOf(c.Request.Context(), claims.RoomCode, claims.SessionID)
		switch {
		case errors.Is(err, room.ErrNotSeated):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		case errors.Is(err, room.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		case err != nil:
			log.Printf("[WS] Seat lookup for %s in %s failed: %v", claims.SessionID, claims.RoomCode, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := &Client{
			hub:       hub,
			conn:      conn,
			sessionID: claims.SessionID,
			roomCode:  claims.RoomCode,
			seat:      seat,
			send:      make(chan []byte, sendBuffer),
		}
		if !hub.join(client) {
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}
