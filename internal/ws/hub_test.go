package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playsevenate9/backend/internal/config"
	"github.com/playsevenate9/backend/internal/game"
	"github.com/playsevenate9/backend/internal/models"
	"github.com/playsevenate9/backend/internal/room"
	"github.com/playsevenate9/backend/internal/session"
)

// fakeRooms holds one room in memory and publishes commits synchronously
type fakeRooms struct {
	mu         sync.Mutex
	snap       room.Snapshot
	info       room.Info
	seats      map[string]int // sessionID -> seat held now
	stateFns   []func(room.Snapshot)
	playersFns []func(room.Info)
}

func newFakeRooms(t *testing.T) *fakeRooms {
	t.Helper()
	state, err := game.NewMatch(game.Shuffle(game.BuildDeck(), rand.New(rand.NewSource(3))), 3)
	if err != nil {
		t.Fatal(err)
	}
	return &fakeRooms{
		snap:  room.Snapshot{Code: "ABCD", Version: 1, State: state},
		info:  room.Info{Room: models.Room{Code: "ABCD", Status: models.RoomPlaying}},
		seats: map[string]int{},
	}
}

func (f *fakeRooms) seat(sessionID string, seat int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seats[sessionID] = seat
}

// setRoster replaces the roster and publishes it
func (f *fakeRooms) setRoster(players []models.RoomPlayer) {
	f.mu.Lock()
	f.seats = map[string]int{}
	for _, p := range players {
		if !p.IsBot {
			f.seats[p.SessionID] = p.Seat
		}
	}
	f.info.Players = players
	info := f.info
	fns := append([]func(room.Info){}, f.playersFns...)
	f.mu.Unlock()

	for _, fn := range fns {
		fn(info)
	}
}

func (f *fakeRooms) SeatOf(ctx context.Context, code, sessionID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seat, ok := f.seats[sessionID]
	if !ok {
		return -1, room.ErrNotSeated
	}
	return seat, nil
}

func (f *fakeRooms) Room(ctx context.Context, code string) (room.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.info, nil
}

func (f *fakeRooms) State(ctx context.Context, code string) (room.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap, nil
}

func (f *fakeRooms) Submit(ctx context.Context, code, sessionID string, action game.Action, base *int64) (room.Snapshot, error) {
	seat, err := f.SeatOf(ctx, code, sessionID)
	if err != nil {
		return room.Snapshot{}, err
	}
	f.mu.Lock()
	action.Player = seat
	if base != nil && *base != f.snap.Version {
		f.mu.Unlock()
		return room.Snapshot{}, room.ErrConflict
	}
	res, err := game.Apply(f.snap.State, action)
	if err != nil {
		cur := f.snap
		f.mu.Unlock()
		return cur, err
	}
	f.snap = room.Snapshot{Code: code, Version: f.snap.Version + 1, State: res.State, Events: res.Events}
	next := f.snap
	fns := append([]func(room.Snapshot){}, f.stateFns...)
	f.mu.Unlock()

	for _, fn := range fns {
		fn(next)
	}
	return next, nil
}

func (f *fakeRooms) OnStateChange(ctx context.Context, code string, fn func(room.Snapshot)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stateFns = append(f.stateFns, fn)
	return func() {}, nil
}

func (f *fakeRooms) OnPlayerListChange(ctx context.Context, code string, fn func(room.Info)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playersFns = append(f.playersFns, fn)
	return func() {}, nil
}

type testServer struct {
	url    string
	issuer *session.Issuer
	hub    *Hub
	rooms  *fakeRooms
}

func newTestServer(t *testing.T, svc *fakeRooms) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	issuer := session.NewIssuer(&config.Config{JWTSecret: "ws-secret", SessionTTLMinutes: 5})
	hub := NewHub(svc)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/rooms/:code/ws", HandleWebSocket(hub, issuer))
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &testServer{url: "ws" + strings.TrimPrefix(srv.URL, "http"), issuer: issuer, hub: hub, rooms: svc}
}

// dial seats a new session at seat and connects it
func (s *testServer) dial(t *testing.T, code string, seat int) *websocket.Conn {
	t.Helper()
	sid := session.NewSessionID()
	s.rooms.seat(sid, seat)
	return s.dialAs(t, code, sid, seat)
}

func (s *testServer) dialAs(t *testing.T, code, sessionID string, seat int) *websocket.Conn {
	t.Helper()
	token, err := s.issuer.Issue(session.Claims{RoomCode: "ABCD", SessionID: sessionID, Seat: seat})
	if err != nil {
		t.Fatal(err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(s.url+"/rooms/"+code+"/ws?token="+token, nil)
	if err != nil {
		t.Fatalf("dial seat %d: %v", seat, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type inbound struct {
	Type    string          `json:"type"`
	Version int64           `json:"version"`
	State   game.PlayerView `json:"state"`
	Message string          `json:"message"`
	Reason  game.Reason     `json:"reason"`
	Players []any           `json:"players"`
}

// readUntil returns the first message of type typ that satisfies ok
func readUntil(t *testing.T, conn *websocket.Conn, typ string, ok func(inbound) bool) inbound {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		var m inbound
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("bad message %s: %v", data, err)
		}
		if m.Type == typ && (ok == nil || ok(m)) {
			return m
		}
	}
}

func TestConnectSendsPersonalizedState(t *testing.T) {
	svc := newFakeRooms(t)
	srv := newTestServer(t, svc)

	conn := srv.dial(t, "ABCD", 1)
	readUntil(t, conn, "player_list", nil)
	msg := readUntil(t, conn, "game_state", nil)

	if msg.Version != 1 || msg.State.Seat != 1 {
		t.Errorf("view = version %d seat %d", msg.Version, msg.State.Seat)
	}
	if len(msg.State.Hand) != game.HandSize || len(msg.State.Seats) != 3 {
		t.Errorf("hand %d cards, %d seats", len(msg.State.Hand), len(msg.State.Seats))
	}
	if msg.State.MyTurn || len(msg.State.Playable) != 0 {
		t.Error("seat 1 should not be offered moves on seat 0's turn")
	}
}

func TestActionsOverSocket(t *testing.T) {
	svc := newFakeRooms(t)
	srv := newTestServer(t, svc)

	mover := srv.dial(t, "abcd", 0)
	watcher := srv.dial(t, "ABCD", 1)
	readUntil(t, mover, "game_state", nil)
	readUntil(t, watcher, "game_state", nil)
	for deadline := time.Now().Add(2 * time.Second); srv.hub.RoomSize("ABCD") < 2; {
		if time.Now().After(deadline) {
			t.Fatal("clients never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	watcher.WriteJSON(map[string]any{"type": "draw_card"})
	rejected := readUntil(t, watcher, "error", nil)
	if rejected.Reason != game.ReasonNotYourTurn {
		t.Errorf("reason = %q, want not_your_turn", rejected.Reason)
	}

	mover.WriteJSON(map[string]any{"type": "draw_card", "data": map[string]any{"base_version": 1}})
	mine := readUntil(t, mover, "game_state", func(m inbound) bool { return m.Version == 2 })
	if len(mine.State.Hand) != game.HandSize+1 {
		t.Errorf("mover hand = %d cards after draw", len(mine.State.Hand))
	}
	theirs := readUntil(t, watcher, "game_state", func(m inbound) bool { return m.Version == 2 })
	if !theirs.State.MyTurn || theirs.State.Seats[0].HandCount != game.HandSize+1 {
		t.Errorf("watcher view after draw = %+v", theirs.State)
	}

	mover.WriteJSON(map[string]any{"type": "draw_card", "data": map[string]any{"base_version": 1}})
	stale := readUntil(t, mover, "error", nil)
	if stale.Message != room.ErrConflict.Error() {
		t.Errorf("stale action message = %q", stale.Message)
	}

	mover.WriteJSON(map[string]any{"type": "play_card"})
	if m := readUntil(t, mover, "error", nil); m.Message != "card_id required" {
		t.Errorf("message = %q", m.Message)
	}
	mover.WriteJSON(map[string]any{"type": "shuffle"})
	if m := readUntil(t, mover, "error", nil); m.Message != "Unknown message type" {
		t.Errorf("message = %q", m.Message)
	}
}

func TestHandshakeRejectsBadTokens(t *testing.T) {
	srv := newTestServer(t, newFakeRooms(t))

	_, resp, err := websocket.DefaultDialer.Dial(srv.url+"/rooms/ABCD/ws", nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("missing token: err %v", err)
	}

	_, resp, err = websocket.DefaultDialer.Dial(srv.url+"/rooms/ABCD/ws?token=garbage", nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("garbage token: err %v", err)
	}

	token, _ := srv.issuer.Issue(session.Claims{RoomCode: "ABCD", SessionID: session.NewSessionID(), Seat: 0})
	_, resp, err = websocket.DefaultDialer.Dial(srv.url+"/rooms/WXYZ/ws?token="+token, nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign room: err %v", err)
	}

	// a well-formed token for a session that no longer holds a seat
	_, resp, err = websocket.DefaultDialer.Dial(srv.url+"/rooms/ABCD/ws?token="+token, nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("unseated session: err %v", err)
	}
}

func TestSeatFollowsRoster(t *testing.T) {
	svc := newFakeRooms(t)
	srv := newTestServer(t, svc)

	host, moved := session.NewSessionID(), session.NewSessionID()
	svc.seat(host, 0)
	svc.seat(moved, 2)
	hostConn := srv.dialAs(t, "ABCD", host, 0)
	conn := srv.dialAs(t, "ABCD", moved, 2)
	readUntil(t, hostConn, "game_state", nil)
	if m := readUntil(t, conn, "game_state", nil); m.State.Seat != 2 {
		t.Fatalf("initial seat = %d", m.State.Seat)
	}
	for deadline := time.Now().Add(2 * time.Second); srv.hub.RoomSize("ABCD") < 2; {
		if time.Now().After(deadline) {
			t.Fatal("clients never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// seat 1 left: moved now holds seat 1 while its token still says 2
	svc.setRoster([]models.RoomPlayer{{SessionID: host, Seat: 0}, {SessionID: moved, Seat: 1}})
	readUntil(t, conn, "player_list", nil)
	conn.WriteJSON(map[string]any{"type": "get_state"})
	if m := readUntil(t, conn, "game_state", nil); m.State.Seat != 1 {
		t.Errorf("seat after roster change = %d, want 1", m.State.Seat)
	}

	hostConn.WriteJSON(map[string]any{"type": "draw_card"})
	readUntil(t, hostConn, "game_state", func(m inbound) bool { return m.Version == 2 })
	if m := readUntil(t, conn, "game_state", func(m inbound) bool { return m.Version == 2 }); !m.State.MyTurn {
		t.Error("session at roster seat 1 not offered its turn")
	}

	// handed to a bot: the old connection watches and cannot move
	svc.setRoster([]models.RoomPlayer{{SessionID: host, Seat: 0}, {SessionID: moved, Seat: 1, IsBot: true}})
	readUntil(t, conn, "player_list", nil)
	conn.WriteJSON(map[string]any{"type": "draw_card"})
	if m := readUntil(t, conn, "error", nil); m.Message != room.ErrNotSeated.Error() {
		t.Errorf("bot seat move message = %q", m.Message)
	}
	conn.WriteJSON(map[string]any{"type": "get_state"})
	if m := readUntil(t, conn, "game_state", nil); m.State.Seat != -1 || len(m.State.Hand) != 0 {
		t.Errorf("replaced session view = seat %d hand %d", m.State.Seat, len(m.State.Hand))
	}
}

func TestLeaveAfterShutdownReturns(t *testing.T) {
	hub := NewHub(newFakeRooms(t))
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	c := &Client{hub: hub, sessionID: "s1", roomCode: "ABCD", send: make(chan []byte, 1)}
	left := make(chan bool)
	go func() {
		joined := hub.join(c)
		hub.leave(c)
		left <- joined
	}()
	select {
	case joined := <-left:
		if joined {
			t.Error("client registered with a stopped hub")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("join/leave blocked after the hub stopped")
	}
}

func TestUnregisterEmptiesRoom(t *testing.T) {
	srv := newTestServer(t, newFakeRooms(t))
	conn := srv.dial(t, "ABCD", 2)
	readUntil(t, conn, "game_state", nil)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for srv.hub.RoomSize("ABCD") != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client still registered after close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
