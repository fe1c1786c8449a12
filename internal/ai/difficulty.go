package ai

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/playsevenate9/backend/internal/game"
	"gopkg.in/yaml.v3"
)

// Difficulty is a bot tier
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
	Expert Difficulty = "expert"
)

// ErrUnknownDifficulty is returned for tier names outside easy, medium, hard and expert
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// ParseDifficulty accepts a tier name case-insensitively; empty means medium
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return Medium, nil
	case Easy, Medium, Hard, Expert:
		return d, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownDifficulty, s)
	}
}

// Strategy names how the local fallback picks a card
type Strategy string

const (
	FirstPlayable Strategy = "first_playable"
	Proximity     Strategy = "proximity"
)

// Profile tunes one tier
type Profile struct {
	ThinkMs        int             `yaml:"think_ms"`
	JitterMs       int             `yaml:"jitter_ms"`
	Strategy       Strategy        `yaml:"strategy"`
	WildPreference []game.WildKind `yaml:"wild_preference"`
}

// ThinkDelay returns the base pause plus up to JitterMs of random extra
func (p Profile) ThinkDelay(rng *rand.Rand) time.Duration {
	d := time.Duration(p.ThinkMs) * time.Millisecond
	if p.JitterMs > 0 && rng != nil {
		d += time.Duration(rng.Intn(p.JitterMs)) * time.Millisecond
	}
	return d
}

// Profiles maps every tier to its tuning
type Profiles map[Difficulty]Profile

//go:embed profiles.yaml
var defaultProfiles []byte

// DefaultProfiles returns the built-in tier table
func DefaultProfiles() Profiles {
	p, err := LoadProfiles(defaultProfiles)
	if err != nil {
		panic(fmt.Sprintf("ai: built-in profiles: %v", err))
	}
	return p
}

// LoadProfiles parses a YAML tier table. Every tier must be present.
func LoadProfiles(data []byte) (Profiles, error) {
	var p Profiles
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	for _, d := range []Difficulty{Easy, Medium, Hard, Expert} {
		prof, ok := p[d]
		if !ok {
			return nil, fmt.Errorf("profile %s missing", d)
		}
		if prof.Strategy != FirstPlayable && prof.Strategy != Proximity {
			return nil, fmt.Errorf("profile %s: unknown strategy %q", d, prof.Strategy)
		}
		for _, k := range prof.WildPreference {
			if !k.Valid() {
				return nil, fmt.Errorf("profile %s: unknown wild %q", d, k)
			}
		}
	}
	return p, nil
}

// ReadProfiles loads a tier table from a YAML file
func ReadProfiles(path string) (Profiles, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return LoadProfiles(data)
}

// For returns the profile of d, falling back to medium
func (p Profiles) For(d Difficulty) Profile {
	if prof, ok := p[d]; ok {
		return prof
	}
	return p[Medium]
}
