package game

// Advance is the number of seats the turn moves after an action
type Advance int

const (
	AdvanceNone Advance = 0
	AdvanceOne  Advance = 1
	AdvanceTwo  Advance = 2
)

// NextPlayer moves current forward by steps seats, wrapping at playerCount
func NextPlayer(current, playerCount, steps int) int {
	if playerCount <= 0 {
		return current
	}
	n := (current + steps) % playerCount
	if n < 0 {
		n += playerCount
	}
	return n
}

// followingSeats lists the other seats in turn order starting after mover
func followingSeats(mover, playerCount int) []int {
	seats := make([]int, 0, playerCount-1)
	for step := 1; step < playerCount; step++ {
		seats = append(seats, NextPlayer(mover, playerCount, step))
	}
	return seats
}

// HandOff is the pass-the-device barrier for same-device play. After a turn-advancing
// action the barrier is raised; the incoming player's hand stays hidden until the
// hand-off is confirmed.
type HandOff struct {
	From    int  `json:"from"`
	To      int  `json:"to"`
	Pending bool `json:"pending"`
}

// Observe raises the barrier when the active player changed between two snapshots.
// Turns retained by the same player (Addy follow-ups) leave the barrier untouched.
func (h *HandOff) Observe(before, after MatchState) {
	if after.IsFinished() {
		h.Pending = false
		return
	}
	if before.ActivePlayer == after.ActivePlayer {
		return
	}
	h.From = before.ActivePlayer
	h.To = after.ActivePlayer
	h.Pending = true
}

// Confirm lowers the barrier and returns the seat whose hand may now be shown
func (h *HandOff) Confirm() int {
	h.Pending = false
	return h.To
}

// VisibleHand returns the hand the device may display: nothing while a hand-off is
// pending, otherwise the active player's hand.
func (h *HandOff) VisibleHand(s MatchState) []Card {
	if h.Pending {
		return nil
	}
	return s.Hand(s.ActivePlayer)
}
