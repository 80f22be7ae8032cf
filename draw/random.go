package draw

import (
	"context"
	"math/rand"

	"github.com/Dosada05/tabroom/models"
)

// RandomGenerator pairs a seeded shuffle of the field, ignoring records.
type RandomGenerator struct{}

func NewRandomGenerator() *RandomGenerator {
	return &RandomGenerator{}
}

func (g *RandomGenerator) GetName() string {
	return "Random"
}

func (g *RandomGenerator) Generate(ctx context.Context, params Params) (*Draw, error) {
	active := params.Roster.Active()
	if len(active) < 2 {
		return emptyDraw(params), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(params.Settings.RandomSeed ^ int64(params.Round)<<32))
	rng.Shuffle(len(active), func(i, j int) { active[i], active[j] = active[j], active[i] })

	seated := func() []*seat {
		seats := make([]*seat, len(active))
		for i, t := range active {
			seats[i] = &seat{team: t, rank: i + 1}
		}
		return seats
	}
	if len(active)%2 == 0 {
		return g.draw(params, seated(), nil)
	}
	return withBye(ctx, params, seated(), func(bye int) (*Draw, error) {
		seats := seated()
		return g.draw(params, seats, seats[bye])
	})
}

// draw keeps neighbours of the shuffle together wherever hard exclusions allow.
func (g *RandomGenerator) draw(params Params, seats []*seat, bye *seat) (*Draw, error) {
	b := newBuilder(params)
	if bye != nil {
		seats = b.giveBye(seats, bye)
	}

	preferred := make(map[models.PairKey]bool, len(seats)/2)
	for i := 0; i+1 < len(seats); i += 2 {
		preferred[models.NewPairKey(seats[i].team.ID, seats[i+1].team.ID)] = true
	}
	if err := b.matchPreferred(seats, preferred); err != nil {
		return nil, err
	}
	return b.finish(), nil
}
