package ai

import (
	"context"

	"github.com/playsevenate9/backend/internal/game"
)

// Fallback is the local strategy used when no provider is configured or the provider's
// answer cannot be applied. It never fails.
type Fallback struct {
	profiles Profiles
}

// NewFallback builds the local strategy over a tier table
func NewFallback(p Profiles) *Fallback {
	if p == nil {
		p = DefaultProfiles()
	}
	return &Fallback{profiles: p}
}

// Decide picks a move from the request alone
func (f *Fallback) Decide(ctx context.Context, req Request) (Decision, error) {
	view := game.MatchState{RequiredNumber: req.RequiredNumber}
	if req.PendingAddy {
		base := req.RequiredNumber
		if req.PendingAddyBase != nil {
			base = *req.PendingAddyBase
		}
		view.PendingAddy = &base
	}

	var playable []game.Card
	for _, c := range req.Hand {
		if game.Playable(view, c) {
			playable = append(playable, c)
		}
	}
	if len(playable) == 0 {
		return Decision{Action: string(game.ActionDraw), Reasoning: "no playable cards"}, nil
	}

	prof := f.profiles.For(req.Difficulty)
	if prof.Strategy == FirstPlayable {
		return playDecision(playable[0], "first playable card"), nil
	}

	for _, c := range playable {
		if c.IsNumber() && c.Number == req.RequiredNumber {
			return playDecision(c, "exact match"), nil
		}
	}
	// numbers seven or nine away from the requirement. Only reachable while an
	// Addy follow-up is pending; otherwise every playable number matches exactly.
	for _, c := range playable {
		if c.IsNumber() && nearSevenNine(c.Number, req.RequiredNumber) {
			return playDecision(c, "seven-nine proximity"), nil
		}
	}
	if c, ok := preferredWild(playable, prof.WildPreference); ok {
		return playDecision(c, "wild card"), nil
	}
	return playDecision(playable[0], "only playable card"), nil
}

func playDecision(c game.Card, why string) Decision {
	return Decision{Action: string(game.ActionPlay), CardID: c.ID, Reasoning: why}
}

func nearSevenNine(value, required int) bool {
	diff := value - required
	if diff < 0 {
		diff = -diff
	}
	return diff == 7 || diff == 9
}

// preferredWild returns the first wild in preference order, else the first wild held
func preferredWild(cards []game.Card, pref []game.WildKind) (game.Card, bool) {
	for _, kind := range pref {
		for _, c := range cards {
			if c.IsWild() && c.Wild == kind {
				return c, true
			}
		}
	}
	for _, c := range cards {
		if c.IsWild() {
			return c, true
		}
	}
	return game.Card{}, false
}
