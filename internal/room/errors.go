package room

import "errors"

var (
	// ErrConflict means the action was computed against a stale snapshot. Re-fetch and retry.
	ErrConflict        = errors.New("state changed, re-fetch and retry")
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrNotHost         = errors.New("only the host can do that")
	ErrAlreadyStarted  = errors.New("game already started")
	ErrNotStarted      = errors.New("game not started")
	ErrTooFewPlayers   = errors.New("not enough players to start")
	ErrNotSeated       = errors.New("not seated in this room")
	ErrInvalidName     = errors.New("display name must be 1-50 characters")
	ErrCodeUnavailable = errors.New("could not allocate a room code")
)
