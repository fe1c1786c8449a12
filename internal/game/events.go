package game

// EventType identifies something that happened during a transition
type EventType string

const (
	EventCardPlayed     EventType = "card_played"
	EventCardDrawn      EventType = "card_drawn"
	EventCardsGiven     EventType = "cards_given"
	EventCardsDiscarded EventType = "cards_discarded"
	EventPlayerSkipped  EventType = "player_skipped"
	EventAddyOpened     EventType = "addy_opened"
	EventAddyResolved   EventType = "addy_resolved"
	EventAddyAbandoned  EventType = "addy_abandoned"
	EventTurnAdvanced   EventType = "turn_advanced"
	EventMatchFinished  EventType = "match_finished"
)

// Event describes one step of a transition for presentation and logs.
// Player is the seat the event is about; for turn_advanced it is the new active seat.
type Event struct {
	Type   EventType `json:"type"`
	Player int       `json:"player"`
	Target int       `json:"target,omitempty"`
	Card   *Card     `json:"card,omitempty"`
	Count  int       `json:"count,omitempty"`
	Value  int       `json:"value,omitempty"`
}
