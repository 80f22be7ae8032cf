package draw

import (
	"context"
	"fmt"
	"sort"

	"github.com/Dosada05/tabroom/matching"
	"github.com/Dosada05/tabroom/models"
)

// PowerPairedGenerator pairs teams within win brackets.
type PowerPairedGenerator struct{}

func NewPowerPairedGenerator() *PowerPairedGenerator {
	return &PowerPairedGenerator{}
}

func (g *PowerPairedGenerator) GetName() string {
	return "PowerPaired"
}

// bracket is a group of seats paired among themselves. wins labels the
// resulting rooms.
type bracket struct {
	wins  int
	seats []*seat
}

func (g *PowerPairedGenerator) Generate(ctx context.Context, params Params) (*Draw, error) {
	active := params.Roster.Active()
	if len(active) < 2 {
		return emptyDraw(params), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(active)%2 == 0 {
		return g.draw(params, rankTeams(active), nil)
	}
	return withBye(ctx, params, rankTeams(active), func(bye int) (*Draw, error) {
		seats := rankTeams(active)
		return g.draw(params, seats, seats[bye])
	})
}

func (g *PowerPairedGenerator) draw(params Params, seats []*seat, bye *seat) (*Draw, error) {
	b := newBuilder(params)
	playing := seats
	if bye != nil {
		playing = b.giveBye(seats, bye)
	}
	brackets := b.resolveOdd(partition(playing))
	if err := b.matchBrackets(brackets, seats); err != nil {
		return nil, err
	}
	return b.finish(), nil
}

// partition splits ranked seats into brackets of equal wins, highest first.
func partition(seats []*seat) []*bracket {
	var out []*bracket
	for _, s := range seats {
		if len(out) == 0 || out[len(out)-1].wins != s.team.Wins {
			out = append(out, &bracket{wins: s.team.Wins})
		}
		last := out[len(out)-1]
		last.seats = append(last.seats, s)
	}
	return out
}

// resolveOdd walks the brackets top-down and evens out every odd bracket.
// pullup_top moves the odd bracket's lowest-ranked eligible team down to the
// top of the next bracket; pullup_bottom takes the next bracket's
// highest-ranked eligible team up instead.
func (b *builder) resolveOdd(brackets []*bracket) []*bracket {
	out := make([]*bracket, 0, len(brackets)+1)
	for i := 0; i < len(brackets); i++ {
		cur := brackets[i]
		if len(cur.seats)%2 == 0 || i == len(brackets)-1 {
			if len(cur.seats) > 0 {
				out = append(out, cur)
			}
			continue
		}
		lower := brackets[i+1]

		switch b.params.Settings.OddBracket {
		case models.OddIntermediate, models.OddBubble:
			odd := cur.seats[len(cur.seats)-1]
			cur.seats = cur.seats[:len(cur.seats)-1]
			pulled := b.moveCandidate(lower.seats, true)
			if b.params.Settings.OddBracket == models.OddBubble {
				odd, pulled = b.bubble(cur, lower, odd, pulled)
			}
			lower.seats = removeSeat(lower.seats, pulled)
			b.markMoved(pulled, lower.wins, cur.wins)
			if len(cur.seats) > 0 {
				out = append(out, cur)
			}
			out = append(out, &bracket{wins: cur.wins, seats: []*seat{odd, pulled}})
		case models.OddPullUpBottom:
			pulled := b.moveCandidate(lower.seats, true)
			lower.seats = removeSeat(lower.seats, pulled)
			b.markMoved(pulled, lower.wins, cur.wins)
			cur.seats = append(cur.seats, pulled)
			out = append(out, cur)
		default:
			moved := b.moveCandidate(cur.seats, false)
			cur.seats = removeSeat(cur.seats, moved)
			b.markMoved(moved, cur.wins, lower.wins)
			lower.seats = append([]*seat{moved}, lower.seats...)
			if len(cur.seats) > 0 {
				out = append(out, cur)
			}
		}

		if len(lower.seats) == 0 {
			brackets = append(brackets[:i+1], brackets[i+2:]...)
		}
	}
	return out
}

// moveCandidate picks the team that changes bracket: the highest-ranked of
// seats when top is set, the lowest-ranked otherwise. With the pull-up
// restriction only the least pulled-up teams are eligible.
func (b *builder) moveCandidate(seats []*seat, top bool) *seat {
	eligible := seats
	if b.params.Settings.PullUpRestriction {
		fewest := seats[0].team.PullUps
		for _, s := range seats {
			fewest = min(fewest, s.team.PullUps)
		}
		eligible = nil
		for _, s := range seats {
			if s.team.PullUps == fewest {
				eligible = append(eligible, s)
			}
		}
	}
	if top {
		return eligible[0]
	}
	return eligible[len(eligible)-1]
}

// bubble swaps a team of the intermediate pair with its neighbour when the
// pair would be excluded or a rematch. The upward swap is tried first.
func (b *builder) bubble(cur, lower *bracket, odd, pulled *seat) (*seat, *seat) {
	if b.acceptable(odd, pulled) {
		return odd, pulled
	}
	for i := len(cur.seats) - 1; i >= 0; i-- {
		up := cur.seats[i]
		if b.acceptable(up, pulled) {
			cur.seats[i] = odd
			sortSeats(cur.seats)
			return up, pulled
		}
	}
	for _, down := range lower.seats {
		if down != pulled && b.acceptable(odd, down) {
			return odd, down
		}
	}
	return odd, pulled
}

func (b *builder) acceptable(x, y *seat) bool {
	if _, blocked := b.costs.excluded(x.team, y.team); blocked {
		return false
	}
	return b.params.History.Meetings(x.team.ID, y.team.ID) == 0
}

func (b *builder) markMoved(s *seat, from, into int) {
	s.pulledUp = true
	b.delta(s.team.ID).PullUps++
	b.warn(models.Warning{
		Code:    models.WarnPullUp,
		Message: fmt.Sprintf("team %d moved from the %d-win bracket into the %d-win bracket", s.team.ID, from, into),
		TeamIDs: []int{s.team.ID},
	})
}

// matchBrackets pairs every bracket. Teams a bracket cannot place are moved
// once into the adjacent bracket; teams that still cannot be placed make the
// whole draw infeasible.
func (b *builder) matchBrackets(brackets []*bracket, all []*seat) error {
	rooms := make([][]room, len(brackets))
	for i := 0; i < len(brackets); i++ {
		matched, stuck := b.matchBracket(brackets[i])
		rooms[i] = matched
		if len(stuck) == 0 {
			continue
		}
		if len(brackets) == 1 || anyEscalated(stuck) {
			return b.costs.diagnose(fmt.Sprintf("bracket %d", brackets[i].wins), stuck, all)
		}

		target := i + 1
		if target == len(brackets) {
			target = i - 1
		}
		b.escalate(stuck, brackets[i], brackets[target])

		if target < i {
			again, still := b.matchBracket(brackets[target])
			if len(still) > 0 {
				return b.costs.diagnose(fmt.Sprintf("bracket %d", brackets[target].wins), still, all)
			}
			rooms[target] = again
		}
	}
	for _, rs := range rooms {
		b.rooms = append(b.rooms, rs...)
	}
	return nil
}

func (b *builder) matchBracket(br *bracket) ([]room, []*seat) {
	if len(br.seats) == 0 {
		return nil, nil
	}
	m := matching.PerfectMatching(len(br.seats), b.costs.edge(br.seats))
	rooms := make([]room, 0, len(m.Pairs))
	for _, p := range m.Pairs {
		x, y := br.seats[p.I], br.seats[p.J]
		if y.rank < x.rank {
			x, y = y, x
		}
		rooms = append(rooms, room{a: x, b: y, bracket: br.wins})
	}
	stuck := make([]*seat, 0, len(m.Unmatched))
	for _, i := range m.Unmatched {
		stuck = append(stuck, br.seats[i])
	}
	return rooms, stuck
}

func (b *builder) escalate(stuck []*seat, from, to *bracket) {
	for _, s := range stuck {
		s.escalated = true
		from.seats = removeSeat(from.seats, s)
		to.seats = append(to.seats, s)
	}
	sortSeats(to.seats)
	b.warn(models.Warning{
		Code:    models.WarnBracketEscalated,
		Message: fmt.Sprintf("%d teams could not be paired in the %d-win bracket and were moved to the %d-win bracket", len(stuck), from.wins, to.wins),
		TeamIDs: seatIDs(stuck),
	})
}

func anyEscalated(seats []*seat) bool {
	for _, s := range seats {
		if s.escalated {
			return true
		}
	}
	return false
}

func removeSeat(seats []*seat, target *seat) []*seat {
	out := seats[:0:0]
	for _, s := range seats {
		if s != target {
			out = append(out, s)
		}
	}
	return out
}

func sortSeats(seats []*seat) {
	sort.Slice(seats, func(i, j int) bool { return seats[i].rank < seats[j].rank })
}
