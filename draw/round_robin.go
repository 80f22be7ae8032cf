package draw

import (
	"context"
	"fmt"

	"github.com/Dosada05/tabroom/matching"
	"github.com/Dosada05/tabroom/models"
)

// RoundRobinGenerator rotates the field with the circle method so that every
// team meets every other team once per cycle of rounds.
type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() *RoundRobinGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

func (g *RoundRobinGenerator) Generate(ctx context.Context, params Params) (*Draw, error) {
	active := params.Roster.Active()
	if len(active) < 2 {
		return emptyDraw(params), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Roster order is by id, so the rotation is stable across rounds.
	seats := make([]*seat, 0, len(active)+1)
	for i, t := range active {
		seats = append(seats, &seat{team: t, rank: i + 1})
	}
	if len(seats)%2 == 1 {
		seats = append(seats, nil)
	}

	b := newBuilder(params)
	preferred := make(map[models.PairKey]bool, len(seats)/2)
	playing := make([]*seat, 0, len(seats))
	for _, pair := range circlePairs(len(seats), params.Round) {
		x, y := seats[pair.I], seats[pair.J]
		switch {
		case x == nil:
			b.setBye(y)
		case y == nil:
			b.setBye(x)
		default:
			preferred[models.NewPairKey(x.team.ID, y.team.ID)] = true
			playing = append(playing, x, y)
		}
	}
	sortSeats(playing)

	if err := b.matchPreferred(playing, preferred); err != nil {
		return nil, err
	}
	return b.finish(), nil
}

// circlePairs returns the index pairs of the given round for n slots (n even).
// Slot 0 stays fixed while the rest rotate one place per round.
func circlePairs(n, round int) []matching.Pair {
	ring := make([]int, n-1)
	shift := (round - 1) % (n - 1)
	for i := range ring {
		ring[i] = 1 + (i+shift)%(n-1)
	}
	pairs := make([]matching.Pair, 0, n/2)
	pairs = append(pairs, matching.Pair{I: 0, J: ring[0]})
	for k := 1; k < n/2; k++ {
		pairs = append(pairs, matching.Pair{I: ring[k], J: ring[n-1-k]})
	}
	return pairs
}

// matchPreferred pairs seats keeping the preferred pairs wherever hard
// exclusions allow, and finds the cheapest replacement pairs otherwise.
func (b *builder) matchPreferred(seats []*seat, preferred map[models.PairKey]bool) error {
	if len(seats) == 0 {
		return nil
	}
	edge := func(i, j int) (float64, bool) {
		x, y := seats[i].team, seats[j].team
		if _, blocked := b.costs.excluded(x, y); blocked {
			return 0, false
		}
		cost := b.costs.historyCost(x, y)
		if !preferred[models.NewPairKey(x.ID, y.ID)] {
			cost += 1
		}
		return cost, true
	}
	m := matching.PerfectMatching(len(seats), edge)
	if !m.Perfect() {
		stuck := make([]*seat, 0, len(m.Unmatched))
		for _, i := range m.Unmatched {
			stuck = append(stuck, seats[i])
		}
		return b.costs.diagnose(fmt.Sprintf("round %d", b.params.Round), stuck, seats)
	}
	for _, p := range m.Pairs {
		b.addRoom(seats[p.I], seats[p.J], 0)
	}
	return nil
}
