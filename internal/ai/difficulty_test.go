package ai

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/playsevenate9/backend/internal/config"
)

func TestDefaultProfilesThinkDelays(t *testing.T) {
	p := DefaultProfiles()
	base := map[Difficulty]int{Easy: 500, Medium: 800, Hard: 1200, Expert: 1500}
	rng := rand.New(rand.NewSource(3))

	for d, ms := range base {
		prof := p.For(d)
		if prof.ThinkMs != ms || prof.JitterMs != 400 {
			t.Errorf("%s: think=%d jitter=%d", d, prof.ThinkMs, prof.JitterMs)
		}
		for i := 0; i < 50; i++ {
			delay := prof.ThinkDelay(rng)
			lo := time.Duration(ms) * time.Millisecond
			if delay < lo || delay >= lo+400*time.Millisecond {
				t.Fatalf("%s: delay %v outside [%v, %v)", d, delay, lo, lo+400*time.Millisecond)
			}
		}
	}
	if p.For(Easy).Strategy != FirstPlayable || p.For(Expert).Strategy != Proximity {
		t.Error("unexpected strategies in built-in profiles")
	}
	if p.For("unknown").ThinkMs != 800 {
		t.Error("unknown tier should use medium")
	}
}

func TestLoadProfilesValidation(t *testing.T) {
	bad := map[string]string{
		"missing tier": `easy: {strategy: first_playable}`,
		"bad strategy": "easy: {strategy: x}\nmedium: {strategy: proximity}\nhard: {strategy: proximity}\nexpert: {strategy: proximity}",
		"bad wild":     "easy: {strategy: first_playable}\nmedium: {strategy: proximity, wild_preference: [joker]}\nhard: {strategy: proximity}\nexpert: {strategy: proximity}",
		"invalid yaml": "easy: [",
	}
	for name, data := range bad {
		if _, err := LoadProfiles([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := map[string]Difficulty{"": Medium, "EASY": Easy, " hard ": Hard, "expert": Expert}
	for in, want := range tests {
		got, err := ParseDifficulty(in)
		if err != nil || got != want {
			t.Errorf("ParseDifficulty(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseDifficulty("godlike"); err == nil {
		t.Error("expected error for unknown tier")
	}
}

func TestReadProfilesOverridesTiers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	data := "easy: {think_ms: 10, strategy: first_playable}\nmedium: {think_ms: 20, strategy: proximity}\n" +
		"hard: {think_ms: 30, strategy: proximity}\nexpert: {think_ms: 40, strategy: first_playable}"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := ReadProfiles(path)
	if err != nil {
		t.Fatalf("ReadProfiles: %v", err)
	}
	if p.For(Expert).Strategy != FirstPlayable || p.For(Hard).ThinkMs != 30 {
		t.Errorf("profiles = %+v", p)
	}

	if _, err := ReadProfiles(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}

	d := NewDriverFromConfig(&config.Config{AIProfilesFile: path})
	if d.profiles.For(Medium).ThinkMs != 20 {
		t.Errorf("driver ignored profiles file: %+v", d.profiles.For(Medium))
	}
	d = NewDriverFromConfig(&config.Config{AIProfilesFile: "/nonexistent/profiles.yaml"})
	if d.profiles.For(Medium).ThinkMs != 800 {
		t.Errorf("driver did not fall back to built-in profiles")
	}
}
