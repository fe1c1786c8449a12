package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/playsevenate9/backend/internal/game"
	"github.com/playsevenate9/backend/internal/models"
	"github.com/playsevenate9/backend/internal/room"
)

// RoomService is what the hub needs from the room layer
type RoomService interface {
	Room(ctx context.Context, code string) (room.Info, error)
	State(ctx context.Context, code string) (room.Snapshot, error)
	SeatOf(ctx context.Context, code, sessionID string) (int, error)
	Submit(ctx context.Context, code, sessionID string, action game.Action, baseVersion *int64) (room.Snapshot, error)
	OnStateChange(ctx context.Context, code string, fn func(room.Snapshot)) (func(), error)
	OnPlayerListChange(ctx context.Context, code string, fn func(room.Info)) (func(), error)
}

// StateMessage is the personalized game_state a seat receives
type StateMessage struct {
	Type    string          `json:"type"`
	Version int64           `json:"version"`
	State   game.PlayerView `json:"state"`
	Events  []game.Event    `json:"events,omitempty"`
}

// NewStateMessage renders snap for seat
func NewStateMessage(snap room.Snapshot, seat int) StateMessage {
	return StateMessage{Type: "game_state", Version: snap.Version, State: game.ViewFor(snap.State, seat), Events: snap.Events}
}

// PlayerListMessage carries the roster of a room
type PlayerListMessage struct {
	Type string `json:"type"`
	room.Info
}

// ErrorMessage reports a rejected request. Reason is the engine's rejection code, if any.
type ErrorMessage struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Reason  game.Reason `json:"reason,omitempty"`
}

type subscription struct {
	stopState   func()
	stopPlayers func()
}

// Hub maintains the connected clients of every room and fans room events out to them
type Hub struct {
	svc        RoomService
	clients    map[string]*Client            // sessionID -> Client
	rooms      map[string]map[string]*Client // room code -> sessionID -> Client
	subs       map[string]subscription       // room code -> pub/sub listeners
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // closed when Run returns
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub(svc RoomService) *Hub {
	return &Hub{
		svc:        svc,
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		subs:       make(map[string]subscription),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case c := <-h.register:
			h.add(ctx, c)
		case c := <-h.unregister:
			h.remove(c)
		}
	}
}

func (h *Hub) add(ctx context.Context, c *Client) {
	h.mu.Lock()
	if old, ok := h.clients[c.sessionID]; ok {
		log.Printf("[WS] Session %s reconnecting to %s, closing old connection", c.sessionID, c.roomCode)
		h.dropLocked(old)
	}
	h.clients[c.sessionID] = c
	if _, ok := h.rooms[c.roomCode]; !ok {
		h.rooms[c.roomCode] = make(map[string]*Client)
	}
	h.rooms[c.roomCode][c.sessionID] = c
	_, subscribed := h.subs[c.roomCode]
	h.mu.Unlock()

	seat := h.seatOf(c)
	log.Printf("[WS] Session %s connected to room %s as seat %d", c.sessionID, c.roomCode, seat)

	if !subscribed {
		h.subscribe(ctx, c.roomCode)
	}

	if info, err := h.svc.Room(ctx, c.roomCode); err == nil {
		h.sendTo(c, PlayerListMessage{Type: "player_list", Info: info})
	}
	if snap, err := h.svc.State(ctx, c.roomCode); err == nil {
		h.sendTo(c, NewStateMessage(snap, seat))
	}
}

// join registers c unless the hub has stopped
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave unregisters c unless the hub has stopped
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) seatOf(c *Client) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.seat
}

// reseat moves every client of the room to the seat its session holds in players.
// Sessions that left or were handed to a bot watch as spectators.
func (h *Hub) reseat(code string, players []models.RoomPlayer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sid, c := range h.rooms[code] {
		c.seat = -1
		for _, p := range players {
			if p.SessionID == sid && !p.IsBot {
				c.seat = p.Seat
			}
		}
	}
}

func (h *Hub) subscribe(ctx context.Context, code string) {
	stopState, err := h.svc.OnStateChange(ctx, code, func(snap room.Snapshot) { h.BroadcastState(code, snap) })
	if err != nil {
		log.Printf("[WS] Subscribe to state of %s failed: %v", code, err)
		return
	}
	stopPlayers, err := h.svc.OnPlayerListChange(ctx, code, func(info room.Info) {
		h.reseat(code, info.Players)
		h.BroadcastToRoom(code, PlayerListMessage{Type: "player_list", Info: info})
	})
	if err != nil {
		stopState()
		log.Printf("[WS] Subscribe to players of %s failed: %v", code, err)
		return
	}

	h.mu.Lock()
	h.subs[code] = subscription{stopState: stopState, stopPlayers: stopPlayers}
	h.mu.Unlock()
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cur, ok := h.clients[c.sessionID]
	if !ok || cur != c {
		return
	}
	h.dropLocked(c)
	log.Printf("[WS] Session %s disconnected from room %s", c.sessionID, c.roomCode)

	if len(h.rooms[c.roomCode]) == 0 {
		delete(h.rooms, c.roomCode)
		if sub, ok := h.subs[c.roomCode]; ok {
			sub.stopState()
			sub.stopPlayers()
			delete(h.subs, c.roomCode)
		}
	}
}

// dropLocked detaches c and closes its send channel. h.mu must be held for writing.
func (h *Hub) dropLocked(c *Client) {
	delete(h.clients, c.sessionID)
	if members, ok := h.rooms[c.roomCode]; ok {
		delete(members, c.sessionID)
	}
	close(c.send)
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		sub.stopState()
		sub.stopPlayers()
	}
	for _, c := range h.clients {
		close(c.send)
	}
	h.clients = map[string]*Client{}
	h.rooms = map[string]map[string]*Client{}
	h.subs = map[string]subscription{}
}

// deliverLocked queues data for c unless c has been dropped. h.mu must be held.
func (h *Hub) deliverLocked(c *Client, data []byte) {
	if h.clients[c.sessionID] != c {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("[WS] Send buffer full for session %s in room %s, dropping message", c.sessionID, c.roomCode)
	}
}

func (h *Hub) sendTo(c *Client, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	h.deliverLocked(c, data)
}

// BroadcastToRoom sends the same message to every client in a room
func (h *Hub) BroadcastToRoom(code string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[code] {
		h.deliverLocked(c, data)
	}
}

// BroadcastState sends every client in the room its own view of snap
func (h *Hub) BroadcastState(code string, snap room.Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[code] {
		data, err := json.Marshal(NewStateMessage(snap, c.seat))
		if err != nil {
			log.Printf("[WS] Error marshaling state for %s: %v", code, err)
			return
		}
		h.deliverLocked(c, data)
	}
}

// SendToSession sends a message to one participant if connected
func (h *Hub) SendToSession(sessionID string, message interface{}) {
	h.mu.RLock()
	c, ok := h.clients[sessionID]
	h.mu.RUnlock()
	if !ok {
		log.Printf("[WS] No client for session %s", sessionID)
		return
	}
	h.sendTo(c, message)
}

// RoomSize reports how many clients are connected to a room
func (h *Hub) RoomSize(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[code])
}
