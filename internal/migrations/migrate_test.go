package migrations

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestFindLatestMigrationVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_init.up.sql",
		"000001_init.down.sql",
		"000012_scores.up.sql",
		"README.md",
		"abc_notes.sql",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "000099_dir"), 0o755); err != nil {
		t.Fatal(err)
	}

	if got := findLatestMigrationVersion(dir); got != 12 {
		t.Errorf("latest = %d, want 12", got)
	}
	if got := findLatestMigrationVersion(filepath.Join(dir, "missing")); got != 0 {
		t.Errorf("missing dir = %d, want 0", got)
	}
}

func TestNeedsBaseline(t *testing.T) {
	tests := []struct {
		name       string
		rooms      bool
		meta       bool
		want       bool
		checksMeta bool
	}{
		{"fresh database", false, false, false, false},
		{"schema without metadata", true, false, true, true},
		{"already managed", true, true, false, true},
	}

	for _, tt := range tests {
		db, mock, err := sqlmock.New()
		if err != nil {
			t.Fatal(err)
		}
		mock.ExpectQuery("table_name='rooms'").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.rooms))
		if tt.checksMeta {
			mock.ExpectQuery("table_name=\\$1").WithArgs(migrationsTable).
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.meta))
		}

		if got := needsBaseline(db); got != tt.want {
			t.Errorf("%s: needsBaseline = %v, want %v", tt.name, got, tt.want)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("%s: %v", tt.name, err)
		}
		db.Close()
	}
}
