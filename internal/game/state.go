package game

import (
	"errors"
	"fmt"
)

// Phase represents the current state of a match
type Phase string

const (
	PhasePlaying  Phase = "PLAYING"
	PhaseFinished Phase = "FINISHED"
)

const (
	MinPlayers = 3
	MaxPlayers = 5
)

var ErrInvalidPlayerCount = fmt.Errorf("player count must be between %d and %d", MinPlayers, MaxPlayers)

// MatchState is the authoritative snapshot of a match. The draw pile's top is its
// last element. The engine never mutates a MatchState it is handed; every transition
// returns a fresh copy.
type MatchState struct {
	DrawPile       []Card   `json:"draw_pile"`
	DiscardPile    []Card   `json:"discard_pile"`
	Hands          [][]Card `json:"hands"`
	RequiredNumber int      `json:"required_number"`
	ActivePlayer   int      `json:"active_player"`
	PlayerCount    int      `json:"player_count"`
	Phase          Phase    `json:"phase"`
	PendingAddy    *int     `json:"pending_addy,omitempty"`
	Winner         *int     `json:"winner,omitempty"`
}

// Deal splits a shuffled deck into hands, the remaining draw pile and the seed discard.
// Hands are 7 contiguous cards per player taken from the front; the seed discard is the
// top (last) card of what remains.
func Deal(shuffled []Card, playerCount int) (hands [][]Card, drawPile []Card, firstDiscard Card, required int, err error) {
	if playerCount < MinPlayers || playerCount > MaxPlayers {
		return nil, nil, Card{}, 0, ErrInvalidPlayerCount
	}
	if playerCount*HandSize+1 > len(shuffled) {
		return nil, nil, Card{}, 0, ErrDeckTooSmall
	}

	hands = make([][]Card, playerCount)
	for i := 0; i < playerCount; i++ {
		hands[i] = append([]Card{}, shuffled[i*HandSize:(i+1)*HandSize]...)
	}

	rest := shuffled[playerCount*HandSize:]
	firstDiscard = rest[len(rest)-1]
	drawPile = append([]Card{}, rest[:len(rest)-1]...)

	required = 1
	if firstDiscard.IsNumber() {
		required = firstDiscard.Number
	}
	return hands, drawPile, firstDiscard, required, nil
}

// NewMatch deals a fresh match from a shuffled deck. Player 0 moves first.
func NewMatch(shuffled []Card, playerCount int) (MatchState, error) {
	hands, drawPile, first, required, err := Deal(shuffled, playerCount)
	if err != nil {
		return MatchState{}, err
	}
	return MatchState{
		DrawPile:       drawPile,
		DiscardPile:    []Card{first},
		Hands:          hands,
		RequiredNumber: required,
		ActivePlayer:   0,
		PlayerCount:    playerCount,
		Phase:          PhasePlaying,
	}, nil
}

// Clone returns a deep copy of the snapshot
func (s MatchState) Clone() MatchState {
	out := s
	out.DrawPile = append([]Card{}, s.DrawPile...)
	out.DiscardPile = append([]Card{}, s.DiscardPile...)
	out.Hands = make([][]Card, len(s.Hands))
	for i, h := range s.Hands {
		out.Hands[i] = append([]Card{}, h...)
	}
	if s.PendingAddy != nil {
		v := *s.PendingAddy
		out.PendingAddy = &v
	}
	if s.Winner != nil {
		v := *s.Winner
		out.Winner = &v
	}
	return out
}

// TotalCards counts every card across draw pile, discard pile and hands
func (s MatchState) TotalCards() int {
	n := len(s.DrawPile) + len(s.DiscardPile)
	for _, h := range s.Hands {
		n += len(h)
	}
	return n
}

// DiscardTop returns the most recently played card
func (s MatchState) DiscardTop() (Card, bool) {
	if len(s.DiscardPile) == 0 {
		return Card{}, false
	}
	return s.DiscardPile[len(s.DiscardPile)-1], true
}

// IsFinished returns true once a player has emptied their hand
func (s MatchState) IsFinished() bool {
	return s.Phase == PhaseFinished
}

// Hand returns the hand at seat i, or nil for an unknown seat
func (s MatchState) Hand(i int) []Card {
	if i < 0 || i >= len(s.Hands) {
		return nil
	}
	return s.Hands[i]
}

// ErrCorruptState is returned by Validate for snapshots that break an invariant
var ErrCorruptState = errors.New("match state invariant violated")

// Validate checks the structural invariants of a snapshot. It is used when a snapshot
// arrives from outside the process (storage, transport).
func (s MatchState) Validate() error {
	if s.PlayerCount < MinPlayers || s.PlayerCount > MaxPlayers || len(s.Hands) != s.PlayerCount {
		return fmt.Errorf("%w: player count %d with %d hands", ErrCorruptState, s.PlayerCount, len(s.Hands))
	}
	if s.ActivePlayer < 0 || s.ActivePlayer >= s.PlayerCount {
		return fmt.Errorf("%w: active player %d", ErrCorruptState, s.ActivePlayer)
	}
	if s.RequiredNumber < MinNumber || s.RequiredNumber > MaxNumber {
		return fmt.Errorf("%w: required number %d", ErrCorruptState, s.RequiredNumber)
	}
	if total := s.TotalCards(); total != DeckSize {
		return fmt.Errorf("%w: %d cards in play", ErrCorruptState, total)
	}
	empty := -1
	for i, h := range s.Hands {
		if len(h) == 0 {
			empty = i
		}
	}
	switch s.Phase {
	case PhasePlaying:
		if empty >= 0 || s.Winner != nil {
			return fmt.Errorf("%w: playing with an empty hand", ErrCorruptState)
		}
	case PhaseFinished:
		if s.Winner == nil || empty != *s.Winner {
			return fmt.Errorf("%w: finished without matching winner", ErrCorruptState)
		}
		if s.PendingAddy != nil {
			return fmt.Errorf("%w: finished with pending addy", ErrCorruptState)
		}
	default:
		return fmt.Errorf("%w: unknown phase %q", ErrCorruptState, s.Phase)
	}
	return nil
}
