package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playsevenate9/backend/internal/game"
	"github.com/playsevenate9/backend/internal/room"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
	sendBuffer     = 256
	actionTimeout  = 10 * time.Second
)

// Client is one websocket connection of one participant. seat follows the roster and is
// guarded by the hub's mutex.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	sessionID string
	roomCode  string
	seat      int
	send      chan []byte
}

// WSMessage is a client request
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ActionData is the payload of play_card and draw_card
type ActionData struct {
	CardID      string `json:"card_id"`
	BaseVersion *int64 `json:"base_version"`
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for session %s: %v", c.sessionID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for session %s: %v", c.sessionID, err)
				return
			}
		}
	}
}

// readPump reads client requests until the connection closes
func (c *Client) readPump() {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] Unexpected close for session %s: %v", c.sessionID, err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("Invalid message", "")
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg WSMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
	defer cancel()

	switch msg.Type {
	case "play_card", "draw_card":
		var data ActionData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				c.sendError("Invalid action data", "")
				return
			}
		}
		action := game.Action{Type: game.ActionDraw}
		if msg.Type == "play_card" {
			if data.CardID == "" {
				c.sendError("card_id required", "")
				return
			}
			action = game.Action{Type: game.ActionPlay, CardID: data.CardID}
		}
		c.submit(ctx, action, data.BaseVersion)

	case "get_state":
		snap, err := c.hub.svc.State(ctx, c.roomCode)
		if err != nil {
			c.sendError(err.Error(), "")
			return
		}
		c.hub.sendTo(c, NewStateMessage(snap, c.hub.seatOf(c)))

	default:
		c.sendError("Unknown message type", "")
	}
}

// submit applies the action. The mover is answered directly, including for a draw
// from an empty pile that commits nothing; everyone else hears about it on the state
// channel. Clients drop versions they already hold.
func (c *Client) submit(ctx context.Context, action game.Action, base *int64) {
	snap, err := c.hub.svc.Submit(ctx, c.roomCode, c.sessionID, action, base)
	switch {
	case err == nil:
		c.hub.sendTo(c, NewStateMessage(snap, c.hub.seatOf(c)))
	case errors.Is(err, game.ErrInvalidAction):
		c.sendError(err.Error(), game.ReasonOf(err))
	case errors.Is(err, room.ErrNotSeated):
		c.sendError(err.Error(), "")
	case errors.Is(err, room.ErrConflict):
		c.sendError(err.Error(), "")
		if latest, err := c.hub.svc.State(ctx, c.roomCode); err == nil {
			c.hub.sendTo(c, NewStateMessage(latest, c.hub.seatOf(c)))
		}
	default:
		log.Printf("[WS] Action %s by %s in %s failed: %v", action.Type, c.sessionID, c.roomCode, err)
		c.sendError(err.Error(), "")
	}
}

func (c *Client) sendError(message string, reason game.Reason) {
	c.hub.sendTo(c, ErrorMessage{Type: "error", Message: message, Reason: reason})
}
