package room

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/playsevenate9/backend/internal/ai"
	"github.com/playsevenate9/backend/internal/config"
	"github.com/playsevenate9/backend/internal/game"
	"github.com/playsevenate9/backend/internal/models"
	rkeys "github.com/playsevenate9/backend/internal/redis"
	"github.com/playsevenate9/backend/internal/session"
	"github.com/redis/go-redis/v9"
)

const (
	maxNameLength    = 50
	codeAttempts     = 10
	leaverDifficulty = ai.Medium
)

// ResultRecorder is told about every finished online match
type ResultRecorder interface {
	RecordResult(ctx context.Context, r models.Room, players []models.RoomPlayer, snap Snapshot) error
}

// Seat is what a participant receives after creating or joining a room
type Seat struct {
	RoomCode    string `json:"room_code"`
	SessionID   string `json:"session_id"`
	Seat        int    `json:"seat"`
	DisplayName string `json:"display_name"`
	Token       string `json:"token"`
}

// Info is a room and its roster
type Info struct {
	Room    models.Room         `json:"room"`
	Players []models.RoomPlayer `json:"players"`
}

// Service owns rooms and their authoritative match state. Actions are committed with a
// version check, so at most one writer wins per version.
type Service struct {
	repo     Repository
	store    *Store
	rdb      *redis.Client
	issuer   *session.Issuer
	driver   *ai.Driver
	recorder ResultRecorder

	maxPlayers int
	retryLimit int
	expiry     time.Duration

	mu       sync.Mutex
	rng      *rand.Rand
	thinking map[string]context.CancelFunc // room code -> pending bot think
}

// NewService wires a room service. driver and recorder may be nil.
func NewService(repo Repository, rdb *redis.Client, issuer *session.Issuer, driver *ai.Driver, recorder ResultRecorder, cfg *config.Config) *Service {
	maxPlayers := cfg.RoomMaxPlayers
	if maxPlayers < game.MinPlayers || maxPlayers > game.MaxPlayers {
		maxPlayers = game.MaxPlayers
	}
	retry := cfg.ActionRetryLimit
	if retry < 1 {
		retry = 1
	}
	return &Service{
		repo:       repo,
		store:      NewStore(rdb, time.Duration(cfg.RoomStateTTLMinutes)*time.Minute),
		rdb:        rdb,
		issuer:     issuer,
		driver:     driver,
		recorder:   recorder,
		maxPlayers: maxPlayers,
		retryLimit: retry,
		expiry:     time.Duration(cfg.RoomExpiryMinutes) * time.Minute,
		rng:        game.NewRand(),
		thinking:   make(map[string]context.CancelFunc),
	}
}

// SetRand replaces the shuffle source, for reproducible deals
func (s *Service) SetRand(rng *rand.Rand) {
	s.mu.Lock()
	s.rng = rng
	s.mu.Unlock()
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}

func (s *Service) seatFor(code string, p models.RoomPlayer) (Seat, error) {
	token, err := s.issuer.Issue(session.Claims{RoomCode: code, SessionID: p.SessionID, Seat: p.Seat})
	if err != nil {
		return Seat{}, err
	}
	return Seat{RoomCode: code, SessionID: p.SessionID, Seat: p.Seat, DisplayName: p.DisplayName, Token: token}, nil
}

// CreateRoom opens a waiting room with the caller as host in seat 0
func (s *Service) CreateRoom(ctx context.Context, displayName string) (Seat, error) {
	name, err := cleanName(displayName)
	if err != nil {
		return Seat{}, err
	}

	now := time.Now().UTC()
	host := models.RoomPlayer{SessionID: session.NewSessionID(), DisplayName: name, Seat: 0, JoinedAt: now}
	for attempt := 0; attempt < codeAttempts; attempt++ {
		r := models.Room{
			ID:            session.NewSessionID(),
			Code:          GenerateCode(),
			HostSessionID: host.SessionID,
			Status:        models.RoomWaiting,
			MaxPlayers:    s.maxPlayers,
			CreatedAt:     now,
		}
		host.RoomID = r.ID
		err := s.repo.CreateRoom(ctx, r, host)
		if errors.Is(err, errDuplicate) {
			log.Printf("[ROOM] Code %s already open, retrying", r.Code)
			continue
		}
		if err != nil {
			return Seat{}, err
		}
		log.Printf("[ROOM] Created room %s host=%s", r.Code, host.SessionID)
		s.publishPlayers(ctx, r)
		return s.seatFor(r.Code, host)
	}
	return Seat{}, ErrCodeUnavailable
}

func (s *Service) openRoom(ctx context.Context, code string) (models.Room, error) {
	norm, ok := NormalizeCode(code)
	if !ok {
		return models.Room{}, ErrRoomNotFound
	}
	r, err := s.repo.RoomByCode(ctx, norm)
	if err != nil {
		return models.Room{}, err
	}
	return r, nil
}

// JoinRoom seats a new participant. Passing the sessionID of someone already seated
// returns their existing seat.
func (s *Service) JoinRoom(ctx context.Context, code, displayName, sessionID string) (Seat, error) {
	r, err := s.openRoom(ctx, code)
	if err != nil {
		return Seat{}, err
	}

	players, err := s.repo.Players(ctx, r.ID)
	if err != nil {
		return Seat{}, err
	}
	if sessionID != "" {
		for _, p := range players {
			if p.SessionID == sessionID && !p.IsBot {
				return s.seatFor(r.Code, p)
			}
		}
	}
	if r.Status != models.RoomWaiting {
		return Seat{}, ErrRoomNotFound
	}

	name, err := cleanName(displayName)
	if err != nil {
		return Seat{}, err
	}
	p := models.RoomPlayer{RoomID: r.ID, SessionID: session.NewSessionID(), DisplayName: name, JoinedAt: time.Now().UTC()}
	if err := s.addPlayer(ctx, r, &p, players); err != nil {
		return Seat{}, err
	}
	log.Printf("[ROOM] %s joined room %s at seat %d", p.SessionID, r.Code, p.Seat)
	s.publishPlayers(ctx, r)
	return s.seatFor(r.Code, p)
}

// addPlayer takes the next free seat, re-reading the roster if a concurrent join took it
func (s *Service) addPlayer(ctx context.Context, r models.Room, p *models.RoomPlayer, players []models.RoomPlayer) error {
	for attempt := 0; attempt < s.retryLimit; attempt++ {
		if len(players) >= r.MaxPlayers {
			return ErrRoomFull
		}
		p.Seat = len(players)
		err := s.repo.AddPlayer(ctx, *p)
		if !errors.Is(err, errDuplicate) {
			return err
		}
		if players, err = s.repo.Players(ctx, r.ID); err != nil {
			return err
		}
	}
	return ErrConflict
}

// AddBot fills the next seat with an AI participant
func (s *Service) AddBot(ctx context.Context, code, hostSession, difficulty string) (models.RoomPlayer, error) {
	diff, err := ai.ParseDifficulty(difficulty)
	if err != nil {
		return models.RoomPlayer{}, err
	}
	r, err := s.openRoom(ctx, code)
	if err != nil {
		return models.RoomPlayer{}, err
	}
	if r.HostSessionID != hostSession {
		return models.RoomPlayer{}, ErrNotHost
	}
	if r.Status != models.RoomWaiting {
		return models.RoomPlayer{}, ErrAlreadyStarted
	}
	players, err := s.repo.Players(ctx, r.ID)
	if err != nil {
		return models.RoomPlayer{}, err
	}

	bots := 0
	for _, p := range players {
		if p.IsBot {
			bots++
		}
	}
	name := fmt.Sprintf("Bot %d (%s)", bots+1, diff)
	p := models.RoomPlayer{
		RoomID:      r.ID,
		SessionID:   session.NewSessionID(),
		DisplayName: name,
		IsBot:       true,
		Difficulty:  sql.NullString{String: string(diff), Valid: true},
		JoinedAt:    time.Now().UTC(),
	}
	if err := s.addPlayer(ctx, r, &p, players); err != nil {
		return models.RoomPlayer{}, err
	}
	log.Printf("[ROOM] Bot %s (%s) added to room %s at seat %d", p.SessionID, diff, r.Code, p.Seat)
	s.publishPlayers(ctx, r)
	return p, nil
}

// LeaveRoom removes a participant from a waiting room. In a running match the seat is
// handed to a bot so the match can go on.
func (s *Service) LeaveRoom(ctx context.Context, code, sessionID string) error {
	r, err := s.openRoom(ctx, code)
	if err != nil {
		return err
	}

	switch r.Status {
	case models.RoomWaiting:
		if err := s.repo.RemovePlayer(ctx, r.ID, sessionID); err != nil {
			return err
		}
	case models.RoomPlaying:
		if err := s.repo.ReplaceWithBot(ctx, r.ID, sessionID, string(leaverDifficulty)); err != nil {
			return err
		}
	default:
		return nil
	}
	log.Printf("[ROOM] %s left room %s", sessionID, r.Code)

	players, err := s.repo.Players(ctx, r.ID)
	if err != nil {
		return err
	}
	if r.HostSessionID == sessionID {
		if next, ok := firstHuman(players); ok {
			if err := s.repo.SetHost(ctx, r.ID, next.SessionID); err != nil {
				return err
			}
			r.HostSessionID = next.SessionID
			log.Printf("[ROOM] Host of %s passed to %s", r.Code, next.SessionID)
		} else if r.Status == models.RoomWaiting {
			log.Printf("[ROOM] Room %s has no humans left, expiring", r.Code)
			return s.repo.SetStatus(ctx, r.ID, models.RoomExpired)
		}
	}
	s.publishPlayers(ctx, r)

	if r.Status == models.RoomPlaying {
		if snap, err := s.store.Load(ctx, r.Code); err == nil {
			s.scheduleBot(r, players, snap)
		}
	}
	return nil
}

func firstHuman(players []models.RoomPlayer) (models.RoomPlayer, bool) {
	for _, p := range players {
		if !p.IsBot {
			return p, true
		}
	}
	return models.RoomPlayer{}, false
}

// StartGame deals the match and stores it as version 1
func (s *Service) StartGame(ctx context.Context, code, hostSession string) (Snapshot, error) {
	r, err := s.openRoom(ctx, code)
	if err != nil {
		return Snapshot{}, err
	}
	if r.HostSessionID != hostSession {
		return Snapshot{}, ErrNotHost
	}
	if r.Status != models.RoomWaiting {
		return Snapshot{}, ErrAlreadyStarted
	}
	players, err := s.repo.Players(ctx, r.ID)
	if err != nil {
		return Snapshot{}, err
	}
	if len(players) < game.MinPlayers {
		return Snapshot{}, ErrTooFewPlayers
	}

	s.mu.Lock()
	deck := game.Shuffle(game.BuildDeck(), s.rng)
	s.mu.Unlock()
	state, err := game.NewMatch(deck, len(players))
	if err != nil {
		return Snapshot{}, err
	}

	snap, err := s.store.Create(ctx, r.Code, state)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.repo.SetStatus(ctx, r.ID, models.RoomPlaying); err != nil {
		s.store.Delete(ctx, r.Code)
		return Snapshot{}, err
	}
	r.Status = models.RoomPlaying
	log.Printf("[ROOM] Match started in room %s with %d players", r.Code, len(players))

	s.BroadcastState(ctx, snap)
	s.publishPlayers(ctx, r)
	s.scheduleBot(r, players, snap)
	return snap, nil
}

// Room returns the room and its roster
func (s *Service) Room(ctx context.Context, code string) (Info, error) {
	r, err := s.openRoom(ctx, code)
	if err != nil {
		return Info{}, err
	}
	players, err := s.repo.Players(ctx, r.ID)
	if err != nil {
		return Info{}, err
	}
	return Info{Room: r, Players: players}, nil
}

// State returns the latest snapshot of a room's match
func (s *Service) State(ctx context.Context, code string) (Snapshot, error) {
	norm, ok := NormalizeCode(code)
	if !ok {
		return Snapshot{}, ErrRoomNotFound
	}
	return s.store.Load(ctx, norm)
}

// SeatOf returns the seat the human participant sessionID holds now. Seats shift when
// someone leaves a waiting room, so a token's seat is only a hint.
func (s *Service) SeatOf(ctx context.Context, code, sessionID string) (int, error) {
	r, err := s.openRoom(ctx, code)
	if err != nil {
		return -1, err
	}
	return s.seatOf(ctx, r, sessionID)
}

func (s *Service) seatOf(ctx context.Context, r models.Room, sessionID string) (int, error) {
	players, err := s.repo.Players(ctx, r.ID)
	if err != nil {
		return -1, err
	}
	for _, p := range players {
		if p.SessionID == sessionID && !p.IsBot {
			return p.Seat, nil
		}
	}
	return -1, ErrNotSeated
}

// Submit applies an action for the seat sessionID currently holds. With a baseVersion
// the action must have been computed against exactly that version; otherwise it is
// validated against whatever is latest, retried up to the configured limit if another
// writer commits first.
func (s *Service) Submit(ctx context.Context, code, sessionID string, action game.Action, baseVersion *int64) (Snapshot, error) {
	r, err := s.openRoom(ctx, code)
	if err != nil {
		return Snapshot{}, err
	}
	if r.Status != models.RoomPlaying && r.Status != models.RoomFinished {
		return Snapshot{}, ErrNotStarted
	}
	seat, err := s.seatOf(ctx, r, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.apply(ctx, r, seat, action, baseVersion)
}

func (s *Service) apply(ctx context.Context, r models.Room, seat int, action game.Action, baseVersion *int64) (Snapshot, error) {
	action.Player = seat

	for attempt := 0; attempt < s.retryLimit; attempt++ {
		cur, err := s.store.Load(ctx, r.Code)
		if err != nil {
			return Snapshot{}, err
		}
		if baseVersion != nil && *baseVersion != cur.Version {
			return Snapshot{}, ErrConflict
		}

		res, err := game.Apply(cur.State, action)
		if err != nil {
			return cur, err
		}
		if len(res.Events) == 0 {
			// nothing to commit, e.g. a draw from an empty pile
			return cur, nil
		}

		next, err := s.store.CompareAndSwap(ctx, r.Code, cur.Version, res.State, res.Events)
		if errors.Is(err, ErrConflict) {
			log.Printf("[ROOM] Write conflict in room %s at version %d (attempt %d)", r.Code, cur.Version, attempt+1)
			if baseVersion != nil {
				return Snapshot{}, ErrConflict
			}
			continue
		}
		if err != nil {
			return Snapshot{}, err
		}

		s.BroadcastState(ctx, next)
		if next.State.IsFinished() {
			s.finish(ctx, r, next)
		} else {
			if players, err := s.repo.Players(ctx, r.ID); err == nil {
				s.scheduleBot(r, players, next)
			}
		}
		return next, nil
	}
	return Snapshot{}, ErrConflict
}

func (s *Service) finish(ctx context.Context, r models.Room, snap Snapshot) {
	s.cancelThink(r.Code)
	if err := s.repo.SetStatus(ctx, r.ID, models.RoomFinished); err != nil {
		log.Printf("[ROOM] Failed to mark room %s finished: %v", r.Code, err)
	}
	log.Printf("[ROOM] Match in room %s won by seat %d at version %d", r.Code, *snap.State.Winner, snap.Version)

	if s.recorder == nil {
		return
	}
	players, err := s.repo.Players(ctx, r.ID)
	if err != nil {
		log.Printf("[ROOM] Could not load players of %s for scoring: %v", r.Code, err)
		return
	}
	if err := s.recorder.RecordResult(ctx, r, players, snap); err != nil {
		log.Printf("[ROOM] Recording result of %s failed: %v", r.Code, err)
	}
}

// BroadcastState publishes snap on the room's state channel
func (s *Service) BroadcastState(ctx context.Context, snap Snapshot) error {
	if err := s.store.Publish(ctx, snap); err != nil {
		log.Printf("[ROOM] Publish state for %s failed: %v", snap.Code, err)
		return err
	}
	return nil
}

func (s *Service) publishPlayers(ctx context.Context, r models.Room) {
	players, err := s.repo.Players(ctx, r.ID)
	if err != nil {
		log.Printf("[ROOM] Could not load players of %s: %v", r.Code, err)
		return
	}
	data, err := json.Marshal(Info{Room: r, Players: players})
	if err != nil {
		return
	}
	if err := s.rdb.Publish(ctx, rkeys.PlayersChannel(r.Code), data).Err(); err != nil {
		log.Printf("[ROOM] Publish players for %s failed: %v", r.Code, err)
	}
}

// subscribe delivers every message on channel to fn until the returned cancel is called
func (s *Service) subscribe(ctx context.Context, channel string, fn func([]byte)) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	ps := s.rdb.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		cancel()
		ps.Close()
		return nil, err
	}

	ch := ps.Channel()
	go func() {
		defer ps.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				fn([]byte(msg.Payload))
			}
		}
	}()
	return cancel, nil
}

// OnStateChange calls fn with every snapshot committed in the room
func (s *Service) OnStateChange(ctx context.Context, code string, fn func(Snapshot)) (func(), error) {
	return s.subscribe(ctx, rkeys.StateChannel(code), func(payload []byte) {
		var snap Snapshot
		if err := json.Unmarshal(payload, &snap); err != nil {
			log.Printf("[ROOM] Invalid state payload on %s: %v", code, err)
			return
		}
		fn(snap)
	})
}

// OnPlayerListChange calls fn with the roster after every join, leave or bot change
func (s *Service) OnPlayerListChange(ctx context.Context, code string, fn func(Info)) (func(), error) {
	return s.subscribe(ctx, rkeys.PlayersChannel(code), func(payload []byte) {
		var info Info
		if err := json.Unmarshal(payload, &info); err != nil {
			log.Printf("[ROOM] Invalid players payload on %s: %v", code, err)
			return
		}
		fn(info)
	})
}
