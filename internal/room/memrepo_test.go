package room

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/playsevenate9/backend/internal/models"
)

// memRepo is an in-memory Repository for service tests
type memRepo struct {
	mu      sync.Mutex
	rooms   map[string]*models.Room
	players map[string][]models.RoomPlayer
	// collisions makes the next n CreateRoom calls fail as if the code were taken
	collisions int
}

func newMemRepo() *memRepo {
	return &memRepo{
		rooms:   map[string]*models.Room{},
		players: map[string][]models.RoomPlayer{},
	}
}

func (m *memRepo) CreateRoom(ctx context.Context, r models.Room, host models.RoomPlayer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.collisions > 0 {
		m.collisions--
		return errDuplicate
	}
	for _, existing := range m.rooms {
		if existing.Code == r.Code && (existing.Status == models.RoomWaiting || existing.Status == models.RoomPlaying) {
			return errDuplicate
		}
	}
	room := r
	m.rooms[r.ID] = &room
	m.players[r.ID] = []models.RoomPlayer{host}
	return nil
}

func (m *memRepo) RoomByCode(ctx context.Context, code string) (models.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *models.Room
	for _, r := range m.rooms {
		if r.Code != code {
			continue
		}
		if best == nil || r.Status == models.RoomWaiting || r.Status == models.RoomPlaying {
			best = r
		}
	}
	if best == nil {
		return models.Room{}, ErrRoomNotFound
	}
	return *best, nil
}

func (m *memRepo) Players(ctx context.Context, roomID string) ([]models.RoomPlayer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]models.RoomPlayer{}, m.players[roomID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Seat < out[j].Seat })
	return out, nil
}

func (m *memRepo) AddPlayer(ctx context.Context, p models.RoomPlayer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.players[p.RoomID] {
		if existing.Seat == p.Seat || existing.SessionID == p.SessionID {
			return errDuplicate
		}
	}
	m.players[p.RoomID] = append(m.players[p.RoomID], p)
	return nil
}

func (m *memRepo) RemovePlayer(ctx context.Context, roomID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.players[roomID]
	for i, p := range list {
		if p.SessionID != sessionID {
			continue
		}
		list = append(list[:i], list[i+1:]...)
		for j := range list {
			if list[j].Seat > p.Seat {
				list[j].Seat--
			}
		}
		m.players[roomID] = list
		return nil
	}
	return ErrNotSeated
}

func (m *memRepo) ReplaceWithBot(ctx context.Context, roomID, sessionID, difficulty string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.players[roomID] {
		if p.SessionID == sessionID {
			m.players[roomID][i].IsBot = true
			m.players[roomID][i].Difficulty.String = difficulty
			m.players[roomID][i].Difficulty.Valid = true
			return nil
		}
	}
	return ErrNotSeated
}

func (m *memRepo) SetHost(ctx context.Context, roomID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[roomID].HostSessionID = sessionID
	return nil
}

func (m *memRepo) SetStatus(ctx context.Context, roomID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[roomID].Status = status
	return nil
}

func (m *memRepo) ExpireWaiting(ctx context.Context, before time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var codes []string
	for _, r := range m.rooms {
		if r.Status == models.RoomWaiting && r.CreatedAt.Before(before) {
			r.Status = models.RoomExpired
			codes = append(codes, r.Code)
		}
	}
	return codes, nil
}

func (m *memRepo) status(code string) string {
	r, err := m.RoomByCode(context.Background(), code)
	if err != nil {
		return ""
	}
	return r.Status
}
