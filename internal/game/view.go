package game

// SeatView is what everyone may know about a seat
type SeatView struct {
	Seat      int  `json:"seat"`
	HandCount int  `json:"hand_count"`
	Active    bool `json:"active"`
}

// PlayerView is the snapshot as seen by one seat: their own hand plus public counts.
// A seat of -1 produces a spectator view with no hand.
type PlayerView struct {
	Seat           int        `json:"seat"`
	Hand           []Card     `json:"hand,omitempty"`
	Seats          []SeatView `json:"seats"`
	DrawPileCount  int        `json:"draw_pile_count"`
	DiscardTop     *Card      `json:"discard_top,omitempty"`
	RequiredNumber int        `json:"required_number"`
	ActivePlayer   int        `json:"active_player"`
	MyTurn         bool       `json:"my_turn"`
	Phase          Phase      `json:"phase"`
	PendingAddy    *int       `json:"pending_addy,omitempty"`
	Winner         *int       `json:"winner,omitempty"`
	Playable       []string   `json:"playable,omitempty"`
	CanDraw        bool       `json:"can_draw"`
}

// ViewFor builds the personalized view of s for seat
func ViewFor(s MatchState, seat int) PlayerView {
	v := PlayerView{
		Seat:           seat,
		DrawPileCount:  len(s.DrawPile),
		RequiredNumber: s.RequiredNumber,
		ActivePlayer:   s.ActivePlayer,
		MyTurn:         seat == s.ActivePlayer && s.Phase == PhasePlaying,
		Phase:          s.Phase,
	}
	if top, ok := s.DiscardTop(); ok {
		v.DiscardTop = &top
	}
	if s.PendingAddy != nil {
		p := *s.PendingAddy
		v.PendingAddy = &p
	}
	if s.Winner != nil {
		w := *s.Winner
		v.Winner = &w
	}
	for i, h := range s.Hands {
		v.Seats = append(v.Seats, SeatView{Seat: i, HandCount: len(h), Active: i == s.ActivePlayer})
	}
	if hand := s.Hand(seat); hand != nil {
		v.Hand = append([]Card{}, hand...)
	}
	if v.MyTurn {
		for _, c := range PlayableCards(s, seat) {
			v.Playable = append(v.Playable, c.ID)
		}
		v.CanDraw = CanDraw(s, seat)
	}
	return v
}
