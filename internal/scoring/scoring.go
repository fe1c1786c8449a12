package scoring

import (
	"context"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	"github.com/playsevenate9/backend/internal/models"
	"github.com/playsevenate9/backend/internal/room"
)

const (
	winPoints    = 1
	DefaultLimit = 10
	maxLimit     = 100
)

// Recorder persists finished online matches and keeps the per-participant tallies
// behind the leaderboard. Bots are never scored.
type Recorder struct {
	db *sqlx.DB
}

func NewRecorder(db *sqlx.DB) *Recorder {
	return &Recorder{db: db}
}

// RecordResult stores the outcome once per room. Replays of the same finished room are
// ignored so a retried finish cannot award points twice.
func (r *Recorder) RecordResult(ctx context.Context, rm models.Room, players []models.RoomPlayer, snap room.Snapshot) error {
	if snap.State.Winner == nil {
		return fmt.Errorf("room %s has no winner", rm.Code)
	}
	winnerSeat := *snap.State.Winner
	var winner *models.RoomPlayer
	for i := range players {
		if players[i].Seat == winnerSeat {
			winner = &players[i]
		}
	}
	if winner == nil {
		return fmt.Errorf("winner seat %d not seated in room %s", winnerSeat, rm.Code)
	}

	result := models.MatchResult{
		RoomID:          rm.ID,
		WinnerSeat:      winnerSeat,
		WinnerSessionID: winner.SessionID,
		WinnerIsBot:     winner.IsBot,
		PlayerCount:     len(players),
		Version:         snap.Version,
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO match_results (room_id, winner_seat, winner_session_id, winner_is_bot, player_count, version)
		VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (room_id) DO NOTHING`,
		result.RoomID, result.WinnerSeat, result.WinnerSessionID, result.WinnerIsBot, result.PlayerCount, result.Version)
	if err != nil {
		return fmt.Errorf("insert match result: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		log.Printf("[SCORING] Result for room %s already recorded", rm.Code)
		return nil
	}

	for _, p := range players {
		if p.IsBot {
			continue
		}
		points, won := 0, 0
		if p.Seat == winnerSeat {
			points, won = winPoints, 1
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO user_scores (session_id, display_name, points, games_played, games_won, updated_at)
			VALUES ($1, $2, $3, 1, $4, NOW())
			ON CONFLICT (session_id) DO UPDATE SET
				display_name = EXCLUDED.display_name,
				points = user_scores.points + EXCLUDED.points,
				games_played = user_scores.games_played + 1,
				games_won = user_scores.games_won + EXCLUDED.games_won,
				updated_at = NOW()`,
			p.SessionID, p.DisplayName, points, won); err != nil {
			return fmt.Errorf("update score for %s: %w", p.SessionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Printf("[SCORING] Room %s: seat %d (%s) won, %d participants", rm.Code, winnerSeat, winner.DisplayName, len(players))
	return nil
}

// Entry is one leaderboard row
type Entry struct {
	Rank int `json:"rank"`
	models.UserScore
	WinRate float64 `json:"win_rate"`
}

// Leaderboard returns the top participants by points
func (r *Recorder) Leaderboard(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	var scores []models.UserScore
	if err := r.db.SelectContext(ctx, &scores, `SELECT session_id, display_name, points, games_played, games_won, updated_at
		FROM user_scores ORDER BY points DESC, games_won DESC, updated_at ASC LIMIT $1`, limit); err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(scores))
	for i, s := range scores {
		entries = append(entries, Entry{Rank: i + 1, UserScore: s, WinRate: s.WinRate()})
	}
	return entries, nil
}
