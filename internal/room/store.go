package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playsevenate9/backend/internal/game"
	rkeys "github.com/playsevenate9/backend/internal/redis"
	"github.com/redis/go-redis/v9"
)

// Snapshot is a committed match state and the version it was committed at.
// Version 1 is the dealt match; every accepted action adds one.
type Snapshot struct {
	Code      string          `json:"code"`
	Version   int64           `json:"version"`
	State     game.MatchState `json:"state"`
	Events    []game.Event    `json:"events,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Store keeps the authoritative snapshot of each room in Redis
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func decodeSnapshot(raw []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if err := snap.State.Validate(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Load returns the latest snapshot, or ErrNotStarted if the room has none
func (s *Store) Load(ctx context.Context, code string) (Snapshot, error) {
	raw, err := s.rdb.Get(ctx, rkeys.StateKey(code)).Bytes()
	if err == redis.Nil {
		return Snapshot{}, ErrNotStarted
	}
	if err != nil {
		return Snapshot{}, err
	}
	return decodeSnapshot(raw)
}

// Create stores the dealt match as version 1. It fails with ErrAlreadyStarted when
// the room already has a snapshot.
func (s *Store) Create(ctx context.Context, code string, state game.MatchState) (Snapshot, error) {
	snap := Snapshot{Code: code, Version: 1, State: state, UpdatedAt: time.Now().UTC()}
	data, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, err
	}
	ok, err := s.rdb.SetNX(ctx, rkeys.StateKey(code), data, s.ttl).Result()
	if err != nil {
		return Snapshot{}, err
	}
	if !ok {
		return Snapshot{}, ErrAlreadyStarted
	}
	return snap, nil
}

// CompareAndSwap commits next as version expected+1 if the stored version is still
// expected. A lost race returns ErrConflict.
func (s *Store) CompareAndSwap(ctx context.Context, code string, expected int64, next game.MatchState, events []game.Event) (Snapshot, error) {
	key := rkeys.StateKey(code)
	snap := Snapshot{Code: code, Version: expected + 1, State: next, Events: events, UpdatedAt: time.Now().UTC()}
	data, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, err
	}

	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if err == redis.Nil {
			return ErrNotStarted
		}
		if err != nil {
			return err
		}
		var cur struct {
			Version int64 `json:"version"`
		}
		if err := json.Unmarshal(raw, &cur); err != nil {
			return fmt.Errorf("decode snapshot: %w", err)
		}
		if cur.Version != expected {
			return ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return Snapshot{}, ErrConflict
	}
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Publish sends snap to everyone subscribed to the room's state channel
func (s *Store) Publish(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, rkeys.StateChannel(snap.Code), data).Err()
}

// Delete drops the room's snapshot
func (s *Store) Delete(ctx context.Context, code string) error {
	return s.rdb.Del(ctx, rkeys.StateKey(code)).Err()
}
