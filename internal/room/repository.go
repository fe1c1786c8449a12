package room

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/playsevenate9/backend/internal/models"
)

// errDuplicate is returned by the repository when a unique index rejects a write:
// a room code already open, or a seat already taken
var errDuplicate = errors.New("duplicate key")

// Repository persists rooms and their seated participants
type Repository interface {
	CreateRoom(ctx context.Context, r models.Room, host models.RoomPlayer) error
	RoomByCode(ctx context.Context, code string) (models.Room, error)
	Players(ctx context.Context, roomID string) ([]models.RoomPlayer, error)
	AddPlayer(ctx context.Context, p models.RoomPlayer) error
	RemovePlayer(ctx context.Context, roomID, sessionID string) error
	ReplaceWithBot(ctx context.Context, roomID, sessionID, difficulty string) error
	SetHost(ctx context.Context, roomID, sessionID string) error
	SetStatus(ctx context.Context, roomID, status string) error
	ExpireWaiting(ctx context.Context, before time.Time) ([]string, error)
}

// PGRepository is the Postgres implementation
type PGRepository struct {
	db *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (r *PGRepository) CreateRoom(ctx context.Context, room models.Room, host models.RoomPlayer) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rooms (id, code, host_session_id, status, max_players, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		room.ID, room.Code, room.HostSessionID, room.Status, room.MaxPlayers, room.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return errDuplicate
		}
		return fmt.Errorf("insert room: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO room_players (room_id, session_id, display_name, seat, is_bot, joined_at) VALUES ($1, $2, $3, $4, false, $5)`,
		room.ID, host.SessionID, host.DisplayName, host.Seat, host.JoinedAt); err != nil {
		return fmt.Errorf("insert host: %w", err)
	}
	return tx.Commit()
}

// RoomByCode returns the open room (waiting or playing) holding code, else the most
// recent closed one
func (r *PGRepository) RoomByCode(ctx context.Context, code string) (models.Room, error) {
	var room models.Room
	err := r.db.GetContext(ctx, &room, `SELECT id, code, host_session_id, status, max_players, created_at, started_at, finished_at
		FROM rooms WHERE code = $1
		ORDER BY (status IN ('waiting', 'playing')) DESC, created_at DESC LIMIT 1`, code)
	if err == sql.ErrNoRows {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}

func (r *PGRepository) Players(ctx context.Context, roomID string) ([]models.RoomPlayer, error) {
	var players []models.RoomPlayer
	err := r.db.SelectContext(ctx, &players, `SELECT id, room_id, session_id, display_name, seat, is_bot, difficulty, joined_at
		FROM room_players WHERE room_id = $1 ORDER BY seat`, roomID)
	return players, err
}

func (r *PGRepository) AddPlayer(ctx context.Context, p models.RoomPlayer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO room_players (room_id, session_id, display_name, seat, is_bot, difficulty, joined_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.RoomID, p.SessionID, p.DisplayName, p.Seat, p.IsBot, p.Difficulty, p.JoinedAt)
	if isUniqueViolation(err) {
		return errDuplicate
	}
	return err
}

// RemovePlayer deletes the participant and closes the gap so seats stay 0..n-1
func (r *PGRepository) RemovePlayer(ctx context.Context, roomID, sessionID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var seat int
	if err := tx.GetContext(ctx, &seat, `DELETE FROM room_players WHERE room_id = $1 AND session_id = $2 RETURNING seat`, roomID, sessionID); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotSeated
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE room_players SET seat = seat - 1 WHERE room_id = $1 AND seat > $2`, roomID, seat); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PGRepository) ReplaceWithBot(ctx context.Context, roomID, sessionID, difficulty string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE room_players SET is_bot = true, difficulty = $3 WHERE room_id = $1 AND session_id = $2`,
		roomID, sessionID, difficulty)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotSeated
	}
	return nil
}

func (r *PGRepository) SetHost(ctx context.Context, roomID, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE rooms SET host_session_id = $2 WHERE id = $1`, roomID, sessionID)
	return err
}

func (r *PGRepository) SetStatus(ctx context.Context, roomID, status string) error {
	var err error
	switch status {
	case models.RoomPlaying:
		_, err = r.db.ExecContext(ctx, `UPDATE rooms SET status = $2, started_at = NOW() WHERE id = $1`, roomID, status)
	case models.RoomFinished, models.RoomExpired:
		_, err = r.db.ExecContext(ctx, `UPDATE rooms SET status = $2, finished_at = NOW() WHERE id = $1`, roomID, status)
	default:
		_, err = r.db.ExecContext(ctx, `UPDATE rooms SET status = $2 WHERE id = $1`, roomID, status)
	}
	return err
}

// ExpireWaiting closes waiting rooms created before the cutoff and returns their codes
func (r *PGRepository) ExpireWaiting(ctx context.Context, before time.Time) ([]string, error) {
	var codes []string
	err := r.db.SelectContext(ctx, &codes,
		`UPDATE rooms SET status = 'expired', finished_at = NOW() WHERE status = 'waiting' AND created_at < $1 RETURNING code`, before)
	return codes, err
}
