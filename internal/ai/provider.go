package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/playsevenate9/backend/internal/game"
)

// ErrMalformedDecision is returned for provider answers that cannot be applied
var ErrMalformedDecision = errors.New("malformed ai decision")

// Request is what a strategy provider sees of the match
type Request struct {
	Hand            []game.Card `json:"hand"`
	RequiredNumber  int         `json:"requiredNumber"`
	CanDraw         bool        `json:"canDraw"`
	Difficulty      Difficulty  `json:"difficulty"`
	DiscardTop      *game.Card  `json:"discardTop,omitempty"`
	PendingAddy     bool        `json:"pendingAddy,omitempty"`
	PendingAddyBase *int        `json:"pendingAddyBase,omitempty"`
}

// Decision is a provider's answer
type Decision struct {
	Action    string `json:"action"`
	CardID    string `json:"cardId,omitempty"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Provider decides a move for a bot seat
type Provider interface {
	Decide(ctx context.Context, req Request) (Decision, error)
}

// NewRequest describes s from seat's point of view
func NewRequest(s game.MatchState, seat int, d Difficulty) Request {
	req := Request{
		Hand:           append([]game.Card{}, s.Hand(seat)...),
		RequiredNumber: s.RequiredNumber,
		CanDraw:        len(s.DrawPile) > 0,
		Difficulty:     d,
	}
	if top, ok := s.DiscardTop(); ok {
		req.DiscardTop = &top
	}
	if s.PendingAddy != nil {
		base := *s.PendingAddy
		req.PendingAddy = true
		req.PendingAddyBase = &base
	}
	return req
}

// Validate turns a decision into an engine action, rejecting anything the seat could
// not legally do in s.
func Validate(s game.MatchState, seat int, dec Decision) (game.Action, error) {
	switch dec.Action {
	case string(game.ActionPlay):
		if dec.CardID == "" {
			return game.Action{}, fmt.Errorf("%w: play without card", ErrMalformedDecision)
		}
		var card *game.Card
		for _, c := range s.Hand(seat) {
			if c.ID == dec.CardID {
				c := c
				card = &c
				break
			}
		}
		if card == nil {
			return game.Action{}, fmt.Errorf("%w: card %s not in hand", ErrMalformedDecision, dec.CardID)
		}
		if !game.CanPlay(s, seat, *card) {
			return game.Action{}, fmt.Errorf("%w: card %s not playable", ErrMalformedDecision, dec.CardID)
		}
		return game.Action{Type: game.ActionPlay, Player: seat, CardID: card.ID}, nil
	case string(game.ActionDraw):
		action := game.Action{Type: game.ActionDraw, Player: seat}
		if _, err := game.DrawCard(s, seat); err != nil {
			return game.Action{}, fmt.Errorf("%w: %v", ErrMalformedDecision, err)
		}
		return action, nil
	default:
		return game.Action{}, fmt.Errorf("%w: unknown action %q", ErrMalformedDecision, dec.Action)
	}
}
