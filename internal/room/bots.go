package room

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/playsevenate9/backend/internal/ai"
	"github.com/playsevenate9/backend/internal/game"
	"github.com/playsevenate9/backend/internal/models"
)

// botMoveTimeout bounds one think including the provider round trip
const botMoveTimeout = 30 * time.Second

func botAt(players []models.RoomPlayer, seat int) (models.RoomPlayer, bool) {
	for _, p := range players {
		if p.Seat == seat && p.IsBot {
			return p, true
		}
	}
	return models.RoomPlayer{}, false
}

func (s *Service) cancelThink(code string) {
	s.mu.Lock()
	if cancel, ok := s.thinking[code]; ok {
		cancel()
		delete(s.thinking, code)
	}
	s.mu.Unlock()
}

// scheduleBot starts a think for the active seat if a bot holds it. Any earlier think
// for the room is cancelled first.
func (s *Service) scheduleBot(r models.Room, players []models.RoomPlayer, snap Snapshot) {
	s.cancelThink(r.Code)
	if s.driver == nil || snap.State.IsFinished() {
		return
	}
	seat := snap.State.ActivePlayer
	bot, ok := botAt(players, seat)
	if !ok {
		return
	}
	diff, err := ai.ParseDifficulty(bot.Difficulty.String)
	if err != nil {
		diff = ai.Medium
	}

	ctx, cancel := context.WithTimeout(context.Background(), botMoveTimeout)
	s.mu.Lock()
	s.thinking[r.Code] = cancel
	s.mu.Unlock()

	go func() {
		defer cancel()
		action, err := s.driver.Think(ctx, snap.State, seat, diff)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Printf("[AI] Think for seat %d in %s abandoned: %v", seat, r.Code, err)
			}
			return
		}

		cur, err := s.store.Load(ctx, r.Code)
		if err != nil {
			log.Printf("[AI] Could not reload %s: %v", r.Code, err)
			return
		}
		if cur.State.IsFinished() || cur.State.ActivePlayer != seat {
			log.Printf("[AI] Discarding decision for seat %d in %s: match moved on", seat, r.Code)
			return
		}

		if _, err := s.submitBot(context.Background(), r.Code, seat, action); err != nil {
			log.Printf("[AI] Move %s by seat %d in %s rejected: %v", action.Type, seat, r.Code, err)
		}
	}()
}

// submitBot applies a bot's action if a bot still holds seat
func (s *Service) submitBot(ctx context.Context, code string, seat int, action game.Action) (Snapshot, error) {
	r, err := s.openRoom(ctx, code)
	if err != nil {
		return Snapshot{}, err
	}
	if r.Status != models.RoomPlaying {
		return Snapshot{}, ErrNotStarted
	}
	players, err := s.repo.Players(ctx, r.ID)
	if err != nil {
		return Snapshot{}, err
	}
	if _, ok := botAt(players, seat); !ok {
		return Snapshot{}, ErrNotSeated
	}
	return s.apply(ctx, r, seat, action, nil)
}

// ExpireRooms marks waiting rooms older than the expiry as expired
func (s *Service) ExpireRooms(ctx context.Context) (int, error) {
	if s.expiry <= 0 {
		return 0, nil
	}
	codes, err := s.repo.ExpireWaiting(ctx, time.Now().UTC().Add(-s.expiry))
	if err != nil {
		return 0, err
	}
	for _, code := range codes {
		log.Printf("[JANITOR] Room %s expired", code)
	}
	return len(codes), nil
}

// StartJanitor runs ExpireRooms every interval until ctx is done
func (s *Service) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		log.Printf("[JANITOR] Disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		log.Printf("[JANITOR] Started (interval=%s)", interval)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.ExpireRooms(ctx); err != nil {
					log.Printf("[JANITOR] Expire failed: %v", err)
				}
			}
		}
	}()
}
