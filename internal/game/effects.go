package game

// Fixed requirement values some wild cards leave behind, regardless of the prior value
const (
	britishThreeValue = 4
	sliceOfPiValue    = 3
	nuUhValue         = 5
	cannibalValue     = 4
	negativityValue   = 5
	ticklesValue      = 5

	sliceOfPiMax     = 4
	cannibalDiscards = 2
	ticklesTargets   = 2
	ticklesDraws     = 2
)

// resolution carries the working copy while one played card's effect is applied
type resolution struct {
	state   *MatchState
	mover   int
	card    Card
	advance Advance
	events  []Event
}

func (r *resolution) emit(e Event) {
	r.events = append(r.events, e)
}

func (r *resolution) resolve() {
	s := r.state
	if r.card.IsNumber() {
		s.RequiredNumber = nextNumber(r.card.Number)
		return
	}

	switch r.card.Wild {
	case Ate:
		s.RequiredNumber = nextNumber(s.RequiredNumber)
	case Addy:
		r.advance = AdvanceNone
	case Divide:
		r.divide()
		s.RequiredNumber = nextNumber(s.RequiredNumber)
	case BritishThree:
		seats := append([]int{r.mover}, followingSeats(r.mover, s.PlayerCount)...)
		for _, seat := range seats {
			r.draw(seat, 1)
		}
		s.RequiredNumber = britishThreeValue
	case SliceOfPi:
		r.sliceOfPi()
		s.RequiredNumber = sliceOfPiValue
	case NuUh:
		r.advance = AdvanceTwo
		r.emit(Event{Type: EventPlayerSkipped, Player: NextPlayer(r.mover, s.PlayerCount, 1)})
		s.RequiredNumber = nuUhValue
	case Cannibal:
		r.cannibal()
		s.RequiredNumber = cannibalValue
	case Negativity:
		s.RequiredNumber = negativityValue
	case Tickles:
		targets := followingSeats(r.mover, s.PlayerCount)
		if len(targets) > ticklesTargets {
			targets = targets[:ticklesTargets]
		}
		for _, seat := range targets {
			r.draw(seat, ticklesDraws)
		}
		s.RequiredNumber = ticklesValue
	}
}

// draw moves up to n cards from the draw pile to seat. Requests beyond what the pile
// holds are skipped.
func (r *resolution) draw(seat, n int) {
	s := r.state
	drawn := 0
	for ; drawn < n && len(s.DrawPile) > 0; drawn++ {
		top := s.DrawPile[len(s.DrawPile)-1]
		s.DrawPile = s.DrawPile[:len(s.DrawPile)-1]
		s.Hands[seat] = append(s.Hands[seat], top)
	}
	if drawn > 0 {
		r.emit(Event{Type: EventCardDrawn, Player: seat, Count: drawn})
	}
}

// bury puts effect-discarded cards under the played card so the discard top stays
// the card that was played.
func (r *resolution) bury(cards []Card) {
	if len(cards) == 0 {
		return
	}
	s := r.state
	top := s.DiscardPile[len(s.DiscardPile)-1]
	pile := append([]Card{}, s.DiscardPile[:len(s.DiscardPile)-1]...)
	pile = append(pile, cards...)
	s.DiscardPile = append(pile, top)
	r.emit(Event{Type: EventCardsDiscarded, Player: r.mover, Count: len(cards)})
}

// divide gives floor(n/2) cards from the front of the mover's hand to the next player
func (r *resolution) divide() {
	s := r.state
	hand := s.Hands[r.mover]
	if len(hand) == 0 {
		return
	}
	give := len(hand) / 2
	if give == 0 {
		return
	}
	target := NextPlayer(r.mover, s.PlayerCount, 1)
	moved := append([]Card{}, hand[:give]...)
	s.Hands[r.mover] = append([]Card{}, hand[give:]...)
	s.Hands[target] = append(s.Hands[target], moved...)
	r.emit(Event{Type: EventCardsGiven, Player: r.mover, Target: target, Count: give})
}

// sliceOfPi discards every number card valued 4 or lower; wild cards stay
func (r *resolution) sliceOfPi() {
	s := r.state
	kept := make([]Card, 0, len(s.Hands[r.mover]))
	var dropped []Card
	for _, c := range s.Hands[r.mover] {
		if c.IsNumber() && c.Number <= sliceOfPiMax {
			dropped = append(dropped, c)
			continue
		}
		kept = append(kept, c)
	}
	s.Hands[r.mover] = kept
	r.bury(dropped)
}

// cannibal discards up to two more cards from the end of the mover's hand, then every
// other player draws one
func (r *resolution) cannibal() {
	s := r.state
	hand := s.Hands[r.mover]
	n := cannibalDiscards
	if len(hand) < n {
		n = len(hand)
	}
	dropped := append([]Card{}, hand[len(hand)-n:]...)
	s.Hands[r.mover] = append([]Card{}, hand[:len(hand)-n]...)
	r.bury(dropped)

	for _, seat := range followingSeats(r.mover, s.PlayerCount) {
		r.draw(seat, 1)
	}
}
