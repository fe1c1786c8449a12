package game

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Errors
var (
	ErrInvalidCard  = errors.New("invalid card format")
	ErrDeckTooSmall = errors.New("deck too small to deal")
)

// Kind separates numbered cards from wild cards
type Kind string

const (
	KindNumber Kind = "number"
	KindWild   Kind = "wild"
)

// WildKind identifies the effect a wild card carries
type WildKind string

const (
	Ate          WildKind = "ate"
	Addy         WildKind = "addy"
	Divide       WildKind = "divide"
	BritishThree WildKind = "british3"
	SliceOfPi    WildKind = "slicepi"
	NuUh         WildKind = "nuuh"
	Cannibal     WildKind = "cannibal"
	Negativity   WildKind = "negativity"
	Tickles      WildKind = "tickles"
)

const (
	MinNumber      = 1
	MaxNumber      = 9
	CopiesPerValue = 6
	HandSize       = 7
)

// WildCounts is the number of copies of each wild card in a fresh deck,
// in the order they are built.
var WildCounts = []struct {
	Kind  WildKind
	Count int
}{
	{Ate, 5},
	{Addy, 5},
	{Divide, 5},
	{BritishThree, 4},
	{SliceOfPi, 3},
	{NuUh, 5},
	{Cannibal, 4},
	{Negativity, 5},
	{Tickles, 5},
}

// DeckSize is the card count of a fresh deck: 54 numbers plus every wild copy
var DeckSize = deckSize()

func deckSize() int {
	n := (MaxNumber - MinNumber + 1) * CopiesPerValue
	for _, wc := range WildCounts {
		n += wc.Count
	}
	return n
}

// Card represents a single 7-ate-9 card. Cards are values; identity is the ID.
type Card struct {
	ID     string   `json:"id"`
	Kind   Kind     `json:"kind"`
	Number int      `json:"number,omitempty"`
	Wild   WildKind `json:"wild,omitempty"`
}

// NumberCard creates a numbered card
func NumberCard(value, n int) Card {
	return Card{ID: fmt.Sprintf("number-%d-%d", value, n), Kind: KindNumber, Number: value}
}

// WildCard creates a wild card
func WildCard(kind WildKind, n int) Card {
	return Card{ID: fmt.Sprintf("wild-%s-%d", kind, n), Kind: KindWild, Wild: kind}
}

// IsNumber returns true for numbered cards
func (c Card) IsNumber() bool {
	return c.Kind == KindNumber
}

// IsWild returns true for wild cards
func (c Card) IsWild() bool {
	return c.Kind == KindWild
}

// String returns a short label (e.g. "7" or "addy")
func (c Card) String() string {
	if c.IsNumber() {
		return fmt.Sprintf("%d", c.Number)
	}
	return string(c.Wild)
}

// Validate checks that the card is one of the shapes a deck can contain
func (c Card) Validate() error {
	switch c.Kind {
	case KindNumber:
		if c.Number < MinNumber || c.Number > MaxNumber || c.Wild != "" {
			return ErrInvalidCard
		}
	case KindWild:
		if c.Number != 0 || !c.Wild.Valid() {
			return ErrInvalidCard
		}
	default:
		return ErrInvalidCard
	}
	return nil
}

// Valid reports whether w is a known wild kind
func (w WildKind) Valid() bool {
	for _, wc := range WildCounts {
		if wc.Kind == w {
			return true
		}
	}
	return false
}

// BuildDeck constructs the ordered deck with stable IDs
func BuildDeck() []Card {
	cards := make([]Card, 0, DeckSize)
	for value := MinNumber; value <= MaxNumber; value++ {
		for n := 1; n <= CopiesPerValue; n++ {
			cards = append(cards, NumberCard(value, n))
		}
	}
	for _, wc := range WildCounts {
		for n := 1; n <= wc.Count; n++ {
			cards = append(cards, WildCard(wc.Kind, n))
		}
	}
	return cards
}

// NewRand returns a time-seeded random source
func NewRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Shuffle returns a shuffled copy of deck. It walks from the last index down to 1
// and swaps each position with a uniformly chosen index in [0, i]. The input is not
// modified. A nil rng falls back to a time-seeded source.
func Shuffle(deck []Card, rng *rand.Rand) []Card {
	if rng == nil {
		rng = NewRand()
	}
	shuffled := make([]Card, len(deck))
	copy(shuffled, deck)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// indexOf returns the position of the card with the given ID, or -1
func indexOf(cards []Card, id string) int {
	for i, c := range cards {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// removeAt returns a new slice without the element at i
func removeAt(cards []Card, i int) []Card {
	out := make([]Card, 0, len(cards)-1)
	out = append(out, cards[:i]...)
	return append(out, cards[i+1:]...)
}
