package ai

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/playsevenate9/backend/internal/config"
	"github.com/playsevenate9/backend/internal/game"
)

// Driver computes bot moves: an optional think pause, the provider if any, and the
// local strategy whenever the provider fails or answers something illegal.
type Driver struct {
	provider   Provider
	fallback   *Fallback
	profiles   Profiles
	thinkDelay bool

	mu  sync.Mutex
	rng *rand.Rand
}

// NewDriver builds a driver. provider may be nil.
func NewDriver(provider Provider, profiles Profiles, thinkDelay bool, rng *rand.Rand) *Driver {
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Driver{
		provider:   provider,
		fallback:   NewFallback(profiles),
		profiles:   profiles,
		thinkDelay: thinkDelay,
		rng:        rng,
	}
}

// NewDriverFromConfig wires the HTTP provider when one is configured
func NewDriverFromConfig(cfg *config.Config) *Driver {
	var provider Provider
	if p := NewHTTPProvider(cfg); p != nil {
		provider = p
	}
	profiles := DefaultProfiles()
	if cfg.AIProfilesFile != "" {
		p, err := ReadProfiles(cfg.AIProfilesFile)
		if err != nil {
			log.Printf("[AI] %v, using built-in profiles", err)
		} else {
			profiles = p
		}
	}
	return NewDriver(provider, profiles, cfg.AIThinkDelay, nil)
}

// Fallback exposes the local strategy
func (d *Driver) Fallback() *Fallback {
	return d.fallback
}

// Think returns a legal action for seat in s. It returns ctx.Err() if cancelled while
// pausing; the caller re-checks the live match before applying the action.
func (d *Driver) Think(ctx context.Context, s game.MatchState, seat int, diff Difficulty) (game.Action, error) {
	if d.thinkDelay {
		d.mu.Lock()
		pause := d.profiles.For(diff).ThinkDelay(d.rng)
		d.mu.Unlock()

		t := time.NewTimer(pause)
		select {
		case <-ctx.Done():
			t.Stop()
			return game.Action{}, ctx.Err()
		case <-t.C:
		}
	}

	req := NewRequest(s, seat, diff)
	if d.provider != nil {
		dec, err := d.provider.Decide(ctx, req)
		if err == nil {
			action, verr := Validate(s, seat, dec)
			if verr == nil {
				return action, nil
			}
			err = verr
		}
		if ctx.Err() != nil {
			return game.Action{}, ctx.Err()
		}
		log.Printf("[AI] Provider decision for seat %d rejected, using local strategy: %v", seat, err)
	}

	dec, _ := d.fallback.Decide(ctx, req)
	action, err := Validate(s, seat, dec)
	if err != nil {
		// seat is not the one to move in s
		log.Printf("[AI] Local strategy produced unusable move for seat %d: %v", seat, err)
		return game.Action{}, err
	}
	return action, nil
}
