package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/playsevenate9/backend/internal/ai"
	"github.com/playsevenate9/backend/internal/game"
)

// maxBotMoves bounds one run of bot turns between two agent actions
const maxBotMoves = 500

var (
	errNoMatch       = errors.New("no match is running, use new_match first")
	errMatchFinished = errors.New("the match is over, use new_match to play again")
)

// BotMove is one move a bot made while the agent was waiting
type BotMove struct {
	Seat   int             `json:"seat"`
	Action game.ActionType `json:"action"`
	Card   *game.Card      `json:"card,omitempty"`
}

// ToolResponse is the JSON body every tool returns
type ToolResponse struct {
	Version  int64           `json:"version"`
	State    game.PlayerView `json:"state"`
	Events   []game.Event    `json:"events,omitempty"`
	BotMoves []BotMove       `json:"bot_moves,omitempty"`
	Stalled  bool            `json:"stalled,omitempty"`
	GameOver bool            `json:"game_over"`
	Winner   *int            `json:"winner,omitempty"`
	YouWon   bool            `json:"you_won,omitempty"`
}

func respondJSON(resp *ToolResponse) string {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Sprintf(`{"error": "marshal error: %v"}`, err)
	}
	return string(data)
}

// Table runs one local match in process: the agent holds seat 0 and every other seat
// is a bot driven by the local strategy
type Table struct {
	mu      sync.Mutex
	driver  *ai.Driver
	newRand func(seed int64, seeded bool) *rand.Rand

	state   game.MatchState
	version int64
	bots    map[int]ai.Difficulty
	running bool
}

// NewTable builds a table whose bots think with driver
func NewTable(driver *ai.Driver) *Table {
	return &Table{
		driver: driver,
		newRand: func(seed int64, seeded bool) *rand.Rand {
			if seeded {
				return rand.New(rand.NewSource(seed))
			}
			return game.NewRand()
		},
	}
}

const agentSeat = 0

// NewMatch deals a fresh match with players seats and bots at difficulty
func (t *Table) NewMatch(ctx context.Context, players int, diff ai.Difficulty, seed int64, seeded bool) (*ToolResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, err := game.NewMatch(game.Shuffle(game.BuildDeck(), t.newRand(seed, seeded)), players)
	if err != nil {
		return nil, err
	}
	t.state = state
	t.version = 1
	t.running = true
	t.bots = make(map[int]ai.Difficulty, players-1)
	for seat := 1; seat < players; seat++ {
		t.bots[seat] = diff
	}
	return t.respond(nil, nil, false), nil
}

// State returns the agent's view without changing anything
func (t *Table) State() (*ToolResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return nil, errNoMatch
	}
	return t.respond(nil, nil, false), nil
}

// Act applies the agent's action and then lets the bots play until it is the agent's
// turn again or the match ends
func (t *Table) Act(ctx context.Context, action game.Action) (*ToolResponse, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return nil, errNoMatch
	}
	if t.state.IsFinished() {
		return nil, errMatchFinished
	}

	action.Player = agentSeat
	res, err := game.Apply(t.state, action)
	if err != nil {
		return nil, err
	}
	if len(res.Events) == 0 {
		// empty draw pile: nothing changed
		return t.respond(nil, nil, !game.HasMove(t.state)), nil
	}
	t.commit(res.State)
	events := res.Events

	moves, botEvents, stalled, err := t.runBots(ctx)
	if err != nil {
		return nil, err
	}
	return t.respond(append(events, botEvents...), moves, stalled), nil
}

// Suggest asks the local strategy what the agent should do
func (t *Table) Suggest(ctx context.Context, diff ai.Difficulty) (ai.Decision, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return ai.Decision{}, errNoMatch
	}
	if t.state.IsFinished() {
		return ai.Decision{}, errMatchFinished
	}
	return t.driver.Fallback().Decide(ctx, ai.NewRequest(t.state, agentSeat, diff))
}

func (t *Table) commit(next game.MatchState) {
	t.state = next
	t.version++
}

func (t *Table) runBots(ctx context.Context) ([]BotMove, []game.Event, bool, error) {
	var moves []BotMove
	var events []game.Event
	for i := 0; i < maxBotMoves; i++ {
		if t.state.IsFinished() || t.state.ActivePlayer == agentSeat {
			return moves, events, false, nil
		}
		seat := t.state.ActivePlayer
		action, err := t.driver.Think(ctx, t.state, seat, t.bots[seat])
		if err != nil {
			return nil, nil, false, fmt.Errorf("bot seat %d: %w", seat, err)
		}
		res, err := game.Apply(t.state, action)
		if err != nil {
			return nil, nil, false, fmt.Errorf("bot seat %d: %w", seat, err)
		}
		if len(res.Events) == 0 {
			// the bot can only draw and the pile is empty
			return moves, events, true, nil
		}

		move := BotMove{Seat: seat, Action: action.Type}
		if action.Type == game.ActionPlay {
			if top, ok := res.State.DiscardTop(); ok && top.ID == action.CardID {
				move.Card = &top
			}
		}
		moves = append(moves, move)
		events = append(events, res.Events...)
		t.commit(res.State)
	}
	return moves, events, true, nil
}

func (t *Table) respond(events []game.Event, moves []BotMove, stalled bool) *ToolResponse {
	resp := &ToolResponse{
		Version:  t.version,
		State:    game.ViewFor(t.state, agentSeat),
		Events:   events,
		BotMoves: moves,
		Stalled:  stalled,
		GameOver: t.state.IsFinished(),
	}
	if t.state.Winner != nil {
		w := *t.state.Winner
		resp.Winner = &w
		resp.YouWon = w == agentSeat
	}
	return resp
}
