// Package draw builds the pairings of a preliminary round.
package draw

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/tabroom/models"
)

var ErrInvalidRound = errors.New("round number must be at least 1")

// Params is the immutable working set a draw is computed from.
type Params struct {
	Round     int
	Roster    *models.Roster
	History   *models.History
	Conflicts *models.ConflictSet
	Settings  models.TabulationSettings
}

// Draw is the result of generating one round. Deltas carry the side, pull-up
// and bye counter changes the caller persists alongside the pairings.
type Draw struct {
	Round    int                `json:"round"`
	Method   models.DrawMethod  `json:"method"`
	Empty    bool               `json:"empty"`
	Pairings []*models.Pairing  `json:"pairings"`
	Deltas   []models.TeamDelta `json:"deltas,omitempty"`
	Warnings []models.Warning   `json:"warnings,omitempty"`
}

type Generator interface {
	Generate(ctx context.Context, params Params) (*Draw, error)

	GetName() string
}

// ForMethod returns the generator for the configured draw method.
func ForMethod(method models.DrawMethod) (Generator, error) {
	switch method {
	case models.DrawPowerPaired:
		return NewPowerPairedGenerator(), nil
	case models.DrawRandom:
		return NewRandomGenerator(), nil
	case models.DrawRoundRobin:
		return NewRoundRobinGenerator(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported draw method %q", models.ErrInvalidSettings, method)
	}
}

// GenerateRound validates the parameters and dispatches on the draw method.
func GenerateRound(ctx context.Context, params Params) (*Draw, error) {
	if params.Round < 1 {
		return nil, ErrInvalidRound
	}
	if params.Roster == nil {
		return nil, errors.New("draw requires a roster")
	}
	if err := params.Settings.Validate(); err != nil {
		return nil, err
	}
	gen, err := ForMethod(params.Settings.DrawMethod)
	if err != nil {
		return nil, err
	}
	return gen.Generate(ctx, params)
}

// seat is a team's place in the draw under construction.
type seat struct {
	team      models.Team
	rank      int
	pulledUp  bool
	escalated bool
}

// rankTeams orders teams by wins, then speaker total, then id.
func rankTeams(teams []models.Team) []*seat {
	sorted := make([]models.Team, len(teams))
	copy(sorted, teams)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.SpeakerTotal != b.SpeakerTotal {
			return a.SpeakerTotal > b.SpeakerTotal
		}
		return a.ID < b.ID
	})
	seats := make([]*seat, len(sorted))
	for i, t := range sorted {
		seats[i] = &seat{team: t, rank: i + 1}
	}
	return seats
}

func emptyDraw(params Params) *Draw {
	return &Draw{Round: params.Round, Method: params.Settings.DrawMethod, Empty: true, Pairings: []*models.Pairing{}}
}
