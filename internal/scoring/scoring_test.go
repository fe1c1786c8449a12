package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/playsevenate9/backend/internal/game"
	"github.com/playsevenate9/backend/internal/models"
	"github.com/playsevenate9/backend/internal/room"
)

func newMockRecorder(t *testing.T) (*Recorder, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRecorder(sqlx.NewDb(db, "sqlmock")), mock
}

func finished(winner int, version int64) room.Snapshot {
	return room.Snapshot{Code: "ABCD", Version: version, State: game.MatchState{Phase: game.PhaseFinished, Winner: &winner}}
}

var roster = []models.RoomPlayer{
	{SessionID: "s0", DisplayName: "Ada", Seat: 0},
	{SessionID: "s1", DisplayName: "Bot 1 (hard)", Seat: 1, IsBot: true},
	{SessionID: "s2", DisplayName: "Grace", Seat: 2},
}

func TestRecordResultScoresHumansOnly(t *testing.T) {
	rec, mock := newMockRecorder(t)
	rm := models.Room{ID: "r1", Code: "ABCD"}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO match_results").
		WithArgs("r1", 2, "s2", false, 3, int64(17)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO user_scores").WithArgs("s0", "Ada", 0, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_scores").WithArgs("s2", "Grace", 1, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := rec.RecordResult(context.Background(), rm, roster, finished(2, 17)); err != nil {
		t.Fatalf("RecordResult failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRecordResultBotWinner(t *testing.T) {
	rec, mock := newMockRecorder(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO match_results").
		WithArgs("r1", 1, "s1", true, 3, int64(9)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO user_scores").WithArgs("s0", "Ada", 0, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO user_scores").WithArgs("s2", "Grace", 0, 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := rec.RecordResult(context.Background(), models.Room{ID: "r1"}, roster, finished(1, 9)); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRecordResultIgnoresReplay(t *testing.T) {
	rec, mock := newMockRecorder(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO match_results").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := rec.RecordResult(context.Background(), models.Room{ID: "r1"}, roster, finished(0, 5)); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("scores touched on replay: %v", err)
	}
}

func TestRecordResultRejectsUnknownWinner(t *testing.T) {
	rec, _ := newMockRecorder(t)
	if err := rec.RecordResult(context.Background(), models.Room{ID: "r1"}, roster, finished(4, 5)); err == nil {
		t.Error("expected error for unseated winner")
	}
	if err := rec.RecordResult(context.Background(), models.Room{ID: "r1"}, roster, room.Snapshot{}); err == nil {
		t.Error("expected error without winner")
	}
}

func TestLeaderboard(t *testing.T) {
	rec, mock := newMockRecorder(t)
	cols := []string{"session_id", "display_name", "points", "games_played", "games_won", "updated_at"}
	mock.ExpectQuery("FROM user_scores ORDER BY points DESC").WithArgs(DefaultLimit).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("s2", "Grace", 6, 8, 6, time.Now()).
			AddRow("s0", "Ada", 2, 0, 2, time.Now()))

	entries, err := rec.Leaderboard(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries", len(entries))
	}
	if entries[0].Rank != 1 || entries[0].WinRate != 0.75 {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Rank != 2 || entries[1].WinRate != 0 {
		t.Errorf("zero games played gives win rate %v", entries[1].WinRate)
	}

	mock.ExpectQuery("FROM user_scores").WithArgs(maxLimit).WillReturnRows(sqlmock.NewRows(cols))
	if _, err := rec.Leaderboard(context.Background(), 5000); err != nil {
		t.Fatal(err)
	}
}
