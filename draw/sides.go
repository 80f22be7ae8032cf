package draw

import (
	"math/rand"

	"github.com/Dosada05/tabroom/models"
)

// sideAssigner decides which team of a pair takes the affirmative.
type sideAssigner struct {
	method models.SideMethod
	round  int
	rng    *rand.Rand
}

func newSideAssigner(settings models.TabulationSettings, round int) *sideAssigner {
	return &sideAssigner{
		method: settings.SideMethod,
		round:  round,
		rng:    rand.New(rand.NewSource(settings.RandomSeed*7919 + int64(round))),
	}
}

// assign returns (affirmative, negative, contradictory pre-allocation).
// a is the higher-ranked seat of the pair.
func (s *sideAssigner) assign(a, b *seat, index int) (*seat, *seat, bool) {
	switch s.method {
	case models.SidesRandom:
		if s.rng.Intn(2) == 0 {
			return a, b, false
		}
		return b, a, false
	case models.SidesPreAllocated:
		sa, sb := a.team.PreAllocatedSide, b.team.PreAllocatedSide
		switch {
		case sa != nil && sb != nil && *sa == *sb:
			aff, neg := s.balance(a, b, index)
			return aff, neg, true
		case sa != nil:
			if *sa == models.SideAffirmative {
				return a, b, false
			}
			return b, a, false
		case sb != nil:
			if *sb == models.SideAffirmative {
				return b, a, false
			}
			return a, b, false
		}
	}
	aff, neg := s.balance(a, b, index)
	return aff, neg, false
}

func (s *sideAssigner) balance(a, b *seat, index int) (*seat, *seat) {
	aAff, bAff := orientationImbalance(a.team, b.team)
	switch {
	case aAff < bAff:
		return a, b
	case bAff < aAff:
		return b, a
	case a.team.AffCount < b.team.AffCount:
		return a, b
	case b.team.AffCount < a.team.AffCount:
		return b, a
	}
	// Full tie: alternate by room so neither end of the draw is favoured.
	if (s.round+index)%2 == 1 {
		return a, b
	}
	return b, a
}
