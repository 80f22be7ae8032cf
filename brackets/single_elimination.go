package brackets

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/Dosada05/tabroom/models"
)

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Bracket, error) {
	size := params.Size
	if !validSize(size) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSize, size)
	}
	if len(params.Seeds) < size {
		return nil, fmt.Errorf("%w: %d seeded teams for a bracket of %d", models.ErrPreconditionViolated, len(params.Seeds), size)
	}
	seen := make(map[int]bool, len(params.Seeds))
	for _, id := range params.Seeds {
		if seen[id] {
			return nil, fmt.Errorf("%w: team %d", ErrDuplicateSeed, id)
		}
		seen[id] = true
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b := &Bracket{Size: size}
	seeds := params.Seeds
	if len(seeds) > size {
		b.Warnings = append(b.Warnings, models.Warning{
			Code:    models.WarnBreakTruncated,
			Message: fmt.Sprintf("%d teams seeded for a bracket of %d; seeds %d and below miss the break", len(seeds), size, size+1),
			TeamIDs: append([]int(nil), seeds[size:]...),
		})
		seeds = seeds[:size]
	}

	rounds := bits.TrailingZeros(uint(size))
	order := SeedOrder(size)
	names := RoundNames(size)

	for r := 1; r <= rounds; r++ {
		matches := size >> r
		plan := models.RoundPlan{Round: r, Name: names[r-1]}
		for m := 1; m <= matches; m++ {
			p := &models.Pairing{
				TournamentID: params.TournamentID,
				UID:          matchUID(r, m),
				Round:        r,
				Stage:        models.StageElimination,
				JudgeIDs:     []int{},
				Status:       models.PairingScheduled,
				RoomRank:     m,
			}
			if r == 1 {
				high, low := order[2*(m-1)], order[2*(m-1)+1]
				p.Affirmative, p.Negative = intPtr(seeds[high-1]), intPtr(seeds[low-1])
				p.AffSeed, p.NegSeed = intPtr(high), intPtr(low)
			} else {
				p.SourceUIDs = []string{matchUID(r-1, 2*m-1), matchUID(r-1, 2*m)}
			}
			if r < rounds {
				next := matchUID(r+1, (m+1)/2)
				p.AdvancesTo = &next
				p.AdvancesToSlot = 2 - m%2
			}
			plan.PairingUIDs = append(plan.PairingUIDs, p.UID)
			b.Pairings = append(b.Pairings, p)
		}
		b.Rounds = append(b.Rounds, plan)
	}
	return b, nil
}

func matchUID(round, match int) string {
	return fmt.Sprintf("R%dM%d", round, match)
}

func intPtr(v int) *int {
	return &v
}
