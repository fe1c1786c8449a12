package models

import (
	"database/sql"
	"time"
)

// Room statuses
const (
	RoomWaiting  = "waiting"
	RoomPlaying  = "playing"
	RoomFinished = "finished"
	RoomExpired  = "expired"
)

// Room is one networked match lobby, addressed by its 4-letter code
type Room struct {
	ID            string       `db:"id" json:"id"`
	Code          string       `db:"code" json:"code"`
	HostSessionID string       `db:"host_session_id" json:"host_session_id"`
	Status        string       `db:"status" json:"status"`
	MaxPlayers    int          `db:"max_players" json:"max_players"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	StartedAt     sql.NullTime `db:"started_at" json:"started_at,omitempty"`
	FinishedAt    sql.NullTime `db:"finished_at" json:"finished_at,omitempty"`
}

// RoomPlayer is a seated participant, human or bot
type RoomPlayer struct {
	ID          int            `db:"id" json:"-"`
	RoomID      string         `db:"room_id" json:"-"`
	SessionID   string         `db:"session_id" json:"session_id"`
	DisplayName string         `db:"display_name" json:"display_name"`
	Seat        int            `db:"seat" json:"seat"`
	IsBot       bool           `db:"is_bot" json:"is_bot"`
	Difficulty  sql.NullString `db:"difficulty" json:"-"`
	JoinedAt    time.Time      `db:"joined_at" json:"joined_at"`
}

// MatchResult records how a finished online match ended
type MatchResult struct {
	ID              int       `db:"id" json:"id"`
	RoomID          string    `db:"room_id" json:"room_id"`
	WinnerSeat      int       `db:"winner_seat" json:"winner_seat"`
	WinnerSessionID string    `db:"winner_session_id" json:"winner_session_id"`
	WinnerIsBot     bool      `db:"winner_is_bot" json:"winner_is_bot"`
	PlayerCount     int       `db:"player_count" json:"player_count"`
	Version         int64     `db:"version" json:"version"`
	FinishedAt      time.Time `db:"finished_at" json:"finished_at"`
}

// UserScore is the running tally kept for a human participant
type UserScore struct {
	SessionID   string    `db:"session_id" json:"session_id"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Points      int       `db:"points" json:"points"`
	GamesPlayed int       `db:"games_played" json:"games_played"`
	GamesWon    int       `db:"games_won" json:"games_won"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// WinRate is games won over games played, 0 when nothing was played
func (u UserScore) WinRate() float64 {
	if u.GamesPlayed == 0 {
		return 0
	}
	return float64(u.GamesWon) / float64(u.GamesPlayed)
}
