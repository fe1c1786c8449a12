package game

import (
	"errors"
	"fmt"
)

// ErrInvalidAction is matched by every ActionError
var ErrInvalidAction = errors.New("invalid action")

// Reason is a machine-readable rejection code
type Reason string

const (
	ReasonMatchFinished    Reason = "match_finished"
	ReasonNotYourTurn      Reason = "not_your_turn"
	ReasonInvalidPlayer    Reason = "invalid_player"
	ReasonCardNotInHand    Reason = "card_not_in_hand"
	ReasonCardNotPlayable  Reason = "card_not_playable"
	ReasonAddyFollowUpOwed Reason = "addy_follow_up_owed"
	ReasonUnknownAction    Reason = "unknown_action"
)

// ActionError rejects an action without touching the snapshot
type ActionError struct {
	Reason Reason
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("invalid action: %s", e.Reason)
}

func (e *ActionError) Is(target error) bool {
	return target == ErrInvalidAction
}

func reject(r Reason) error {
	return &ActionError{Reason: r}
}

// ReasonOf extracts the rejection code from err, or "" for other errors
func ReasonOf(err error) Reason {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ""
}

// ActionType names what a player asked to do
type ActionType string

const (
	ActionPlay ActionType = "play"
	ActionDraw ActionType = "draw"
)

// Action is a player intent produced by presentation or AI
type Action struct {
	Type   ActionType `json:"type"`
	Player int        `json:"player"`
	CardID string     `json:"card_id,omitempty"`
}

// Result is the outcome of an accepted action
type Result struct {
	State  MatchState `json:"state"`
	Events []Event    `json:"events"`
}

// Apply dispatches an action to PlayCard or DrawCard
func Apply(s MatchState, a Action) (Result, error) {
	switch a.Type {
	case ActionPlay:
		return PlayCard(s, a.Player, a.CardID)
	case ActionDraw:
		return DrawCard(s, a.Player)
	default:
		return Result{State: s}, reject(ReasonUnknownAction)
	}
}

func checkTurn(s MatchState, player int) error {
	if s.Phase != PhasePlaying {
		return reject(ReasonMatchFinished)
	}
	if player < 0 || player >= s.PlayerCount || player >= len(s.Hands) {
		return reject(ReasonInvalidPlayer)
	}
	if player != s.ActivePlayer {
		return reject(ReasonNotYourTurn)
	}
	return nil
}

// Playable reports whether card satisfies the current requirement, ignoring whose
// turn it is. While an Addy follow-up is owed any number card is legal.
func Playable(s MatchState, card Card) bool {
	if s.PendingAddy != nil {
		return card.IsNumber()
	}
	return card.IsWild() || (card.IsNumber() && card.Number == s.RequiredNumber)
}

// CanPlay reports whether player may play card right now
func CanPlay(s MatchState, player int, card Card) bool {
	return validatePlay(s, player, card.ID) == nil
}

func validatePlay(s MatchState, player int, cardID string) error {
	if err := checkTurn(s, player); err != nil {
		return err
	}
	i := indexOf(s.Hands[player], cardID)
	if i < 0 {
		return reject(ReasonCardNotInHand)
	}
	if !Playable(s, s.Hands[player][i]) {
		return reject(ReasonCardNotPlayable)
	}
	return nil
}

// PlayableCards returns the cards in player's hand that could be played now
func PlayableCards(s MatchState, player int) []Card {
	if checkTurn(s, player) != nil {
		return nil
	}
	var out []Card
	for _, c := range s.Hands[player] {
		if Playable(s, c) {
			out = append(out, c)
		}
	}
	return out
}

// CanDraw reports whether player may draw. Drawing with an empty pile is allowed
// as a request but does nothing.
func CanDraw(s MatchState, player int) bool {
	return validateDraw(s, player) == nil && len(s.DrawPile) > 0
}

func validateDraw(s MatchState, player int) error {
	if err := checkTurn(s, player); err != nil {
		return err
	}
	if s.PendingAddy != nil && hasNumberCard(s.Hands[player]) {
		return reject(ReasonAddyFollowUpOwed)
	}
	return nil
}

// HasMove reports whether the active player has any play or a real draw available
func HasMove(s MatchState) bool {
	if s.Phase != PhasePlaying {
		return false
	}
	return len(PlayableCards(s, s.ActivePlayer)) > 0 || CanDraw(s, s.ActivePlayer)
}

// PlayCard removes the card from the player's hand, resolves its effect, checks for a
// win and advances the turn. Rejected plays return the snapshot unchanged.
func PlayCard(s MatchState, player int, cardID string) (Result, error) {
	if err := validatePlay(s, player, cardID); err != nil {
		return Result{State: s}, err
	}

	next := s.Clone()
	i := indexOf(next.Hands[player], cardID)
	card := next.Hands[player][i]
	next.Hands[player] = removeAt(next.Hands[player], i)
	next.DiscardPile = append(next.DiscardPile, card)

	r := &resolution{state: &next, mover: player, card: card, advance: AdvanceOne}
	r.emit(Event{Type: EventCardPlayed, Player: player, Card: &card})

	if s.PendingAddy != nil {
		base := *s.PendingAddy
		next.RequiredNumber = ((base + card.Number - 1) % MaxNumber) + 1
		next.PendingAddy = nil
		r.emit(Event{Type: EventAddyResolved, Player: player, Value: next.RequiredNumber})
	} else {
		r.resolve()
	}

	if len(next.Hands[player]) == 0 {
		winner := player
		next.Phase = PhaseFinished
		next.Winner = &winner
		next.PendingAddy = nil
		r.emit(Event{Type: EventMatchFinished, Player: player})
		return Result{State: next, Events: r.events}, nil
	}

	if r.advance == AdvanceNone {
		base := s.RequiredNumber
		next.PendingAddy = &base
		r.emit(Event{Type: EventAddyOpened, Player: player, Value: base})
		return Result{State: next, Events: r.events}, nil
	}

	next.ActivePlayer = NextPlayer(player, next.PlayerCount, int(r.advance))
	r.emit(Event{Type: EventTurnAdvanced, Player: next.ActivePlayer, Value: int(r.advance)})
	return Result{State: next, Events: r.events}, nil
}

// DrawCard moves the top of the draw pile into the player's hand and passes the turn.
// With an empty draw pile it is a no-op. A pending Addy that cannot be completed is
// abandoned: the requirement reverts to its pre-Addy value.
func DrawCard(s MatchState, player int) (Result, error) {
	if err := validateDraw(s, player); err != nil {
		return Result{State: s}, err
	}
	if len(s.DrawPile) == 0 {
		return Result{State: s}, nil
	}

	next := s.Clone()
	var events []Event
	if next.PendingAddy != nil {
		next.RequiredNumber = *next.PendingAddy
		next.PendingAddy = nil
		events = append(events, Event{Type: EventAddyAbandoned, Player: player, Value: next.RequiredNumber})
	}

	top := next.DrawPile[len(next.DrawPile)-1]
	next.DrawPile = next.DrawPile[:len(next.DrawPile)-1]
	next.Hands[player] = append(next.Hands[player], top)
	events = append(events, Event{Type: EventCardDrawn, Player: player, Count: 1})

	next.ActivePlayer = NextPlayer(player, next.PlayerCount, 1)
	events = append(events, Event{Type: EventTurnAdvanced, Player: next.ActivePlayer, Value: 1})
	return Result{State: next, Events: events}, nil
}

func hasNumberCard(hand []Card) bool {
	for _, c := range hand {
		if c.IsNumber() {
			return true
		}
	}
	return false
}

// nextNumber steps a sequence value forward, wrapping 9 back to 1
func nextNumber(n int) int {
	return (n % MaxNumber) + 1
}
