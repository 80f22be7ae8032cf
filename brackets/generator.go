// Package brackets builds single-elimination break brackets and pushes tab
// room events to connected websocket clients.
package brackets

import (
	"context"
	"errors"

	"github.com/Dosada05/tabroom/models"
)

var (
	ErrInvalidSize   = errors.New("bracket size must be a power of two between 2 and 32")
	ErrDuplicateSeed = errors.New("team seeded more than once")
)

type GenerateBracketParams struct {
	TournamentID int
	// Seeds lists team ids ordered by standing rank, best first.
	Seeds []int
	Size  int
}

// Bracket is the structure of an elimination break. Only the first round has
// teams; every later pairing names the two pairings that feed it.
type Bracket struct {
	Size     int                `json:"size"`
	Pairings []*models.Pairing  `json:"pairings"`
	Rounds   []models.RoundPlan `json:"rounds"`
	Warnings []models.Warning   `json:"warnings,omitempty"`
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error)

	GetName() string
}

// BuildBracket seeds the top teams into a single-elimination bracket of the given size.
func BuildBracket(seeds []int, size int) (*Bracket, error) {
	return NewSingleEliminationGenerator().GenerateBracket(context.Background(), GenerateBracketParams{
		Seeds: seeds,
		Size:  size,
	})
}
