package game

import "testing"

func TestNextPlayer(t *testing.T) {
	tests := []struct {
		current, count, steps, want int
	}{
		{0, 3, 1, 1},
		{2, 3, 1, 0},
		{1, 4, 2, 3},
		{3, 4, 2, 1},
		{4, 5, 0, 4},
		{0, 5, -1, 4},
	}
	for _, tt := range tests {
		if got := NextPlayer(tt.current, tt.count, tt.steps); got != tt.want {
			t.Errorf("NextPlayer(%d, %d, %d) = %d, want %d", tt.current, tt.count, tt.steps, got, tt.want)
		}
	}
}

func TestHandOffBarrier(t *testing.T) {
	hands := [][]Card{{num(3, 1), num(5, 1)}, {num(4, 1), num(7, 1)}, {num(6, 1)}}
	s := newTestState(hands, nil, 3, 0)

	var h HandOff
	if got := h.VisibleHand(s); len(got) != 2 || got[0].ID != "number-3-1" {
		t.Fatalf("visible hand before any move = %v", ids(got))
	}

	next := mustPlay(t, s, 0, num(3, 1))
	h.Observe(s, next)
	if !h.Pending || h.From != 0 || h.To != 1 {
		t.Fatalf("barrier = %+v, want pending 0 -> 1", h)
	}
	if got := h.VisibleHand(next); got != nil {
		t.Errorf("hand visible during hand-off: %v", ids(got))
	}

	if seat := h.Confirm(); seat != 1 {
		t.Errorf("Confirm = %d, want 1", seat)
	}
	if got := h.VisibleHand(next); len(got) != 2 || got[0].ID != "number-4-1" {
		t.Errorf("visible hand after confirm = %v", ids(got))
	}
}

func TestHandOffIgnoresRetainedTurn(t *testing.T) {
	hands := [][]Card{{wild(Addy, 1), num(5, 1)}, {num(4, 1)}, {num(6, 1)}}
	s := newTestState(hands, nil, 3, 0)
	next := mustPlay(t, s, 0, wild(Addy, 1))

	var h HandOff
	h.Observe(s, next)
	if h.Pending {
		t.Error("barrier raised for an addy follow-up")
	}
}

func TestHandOffClearedOnFinish(t *testing.T) {
	hands := [][]Card{{num(3, 1)}, {num(4, 1)}, {num(6, 1)}}
	s := newTestState(hands, nil, 3, 0)
	h := HandOff{From: 2, To: 0, Pending: true}
	h.Observe(s, mustPlay(t, s, 0, num(3, 1)))
	if h.Pending {
		t.Error("barrier still raised after the match finished")
	}
}

func TestViewForHidesOtherHands(t *testing.T) {
	hands := [][]Card{{num(3, 1), num(5, 1)}, {num(4, 1)}, {num(6, 1), wild(Ate, 1), num(1, 1)}}
	s := newTestState(hands, []Card{num(8, 1)}, 3, 0)

	v := ViewFor(s, 0)
	if !v.MyTurn || len(v.Hand) != 2 {
		t.Fatalf("own view = %+v", v)
	}
	if len(v.Playable) != 1 || v.Playable[0] != "number-3-1" {
		t.Errorf("playable = %v, want [number-3-1]", v.Playable)
	}
	if !v.CanDraw {
		t.Error("CanDraw false with a non-empty pile")
	}
	if v.Seats[2].HandCount != 3 || v.DrawPileCount != 1 {
		t.Errorf("public counts wrong: %+v", v)
	}

	other := ViewFor(s, 2)
	if other.MyTurn || other.Playable != nil || other.CanDraw {
		t.Errorf("off-turn view exposes moves: %+v", other)
	}
	if len(other.Hand) != 3 {
		t.Errorf("seat 2 hand = %d cards", len(other.Hand))
	}

	spectator := ViewFor(s, -1)
	if spectator.Hand != nil {
		t.Error("spectator sees a hand")
	}
	if spectator.DiscardTop == nil || spectator.DiscardTop.ID != "number-9-6" {
		t.Errorf("discard top = %v", spectator.DiscardTop)
	}
}
