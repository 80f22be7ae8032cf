package draw

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/tabroom/models"
)

// builder accumulates pairings, counter deltas and warnings for one draw.
type builder struct {
	params   Params
	costs    costModel
	sides    *sideAssigner
	deltas   map[int]*models.TeamDelta
	warnings []models.Warning
	rooms    []room
	bye      *seat
}

// room is a matched pair before sides and ranks are fixed.
type room struct {
	a, b    *seat
	bracket int
}

func newBuilder(params Params) *builder {
	return &builder{
		params: params,
		costs: costModel{
			settings:  params.Settings,
			history:   params.History,
			conflicts: params.Conflicts,
		},
		sides:  newSideAssigner(params.Settings, params.Round),
		deltas: make(map[int]*models.TeamDelta),
	}
}

func (b *builder) delta(teamID int) *models.TeamDelta {
	d, ok := b.deltas[teamID]
	if !ok {
		d = &models.TeamDelta{TeamID: teamID}
		b.deltas[teamID] = d
	}
	return d
}

func (b *builder) warn(w models.Warning) {
	b.warnings = append(b.warnings, w)
}

func byeCount(params Params, t models.Team) int {
	return max(t.ByeCount, params.History.Byes(t.ID))
}

// byeOrder lists seat indexes in the order they are offered the bye: fewest
// byes so far first, then lowest-ranked.
func byeOrder(params Params, seats []*seat) []int {
	order := make([]int, len(seats))
	for i := range order {
		order[i] = len(seats) - 1 - i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return byeCount(params, seats[order[x]].team) < byeCount(params, seats[order[y]].team)
	})
	return order
}

// withBye draws an odd field once per bye candidate until the rest of the
// field can be paired. attempt gets the index of the seat to sit out and must
// build its seats afresh. Only infeasibility moves the bye on; when every
// candidate fails the error of the first one is returned.
func withBye(ctx context.Context, params Params, seats []*seat, attempt func(bye int) (*Draw, error)) (*Draw, error) {
	order := byeOrder(params, seats)
	var first error
	for n, idx := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := attempt(idx)
		if err == nil {
			if n > 0 {
				preferred := seats[order[0]].team.ID
				d.Warnings = append(d.Warnings, models.Warning{
					Code:    models.WarnByeReassigned,
					Message: fmt.Sprintf("team %d could not sit out without leaving the rest of the field unpairable; the bye went to team %d", preferred, seats[idx].team.ID),
					TeamIDs: []int{preferred, seats[idx].team.ID},
				})
			}
			return d, nil
		}
		if !errors.Is(err, models.ErrInfeasible) {
			return nil, err
		}
		if first == nil {
			first = err
		}
	}
	return nil, first
}

// giveBye records that s sits out the round and returns the other seats.
func (b *builder) giveBye(seats []*seat, s *seat) []*seat {
	b.setBye(s)
	return removeSeat(seats, s)
}

func (b *builder) setBye(s *seat) {
	b.bye = s
	b.delta(s.team.ID).Byes++
}

func (b *builder) addRoom(x, y *seat, bracket int) {
	if y.rank < x.rank {
		x, y = y, x
	}
	b.rooms = append(b.rooms, room{a: x, b: y, bracket: bracket})
}

// finish fixes sides, room ranks and uids and returns the draw.
func (b *builder) finish() *Draw {
	sort.SliceStable(b.rooms, func(i, j int) bool {
		if b.rooms[i].bracket != b.rooms[j].bracket {
			return b.rooms[i].bracket > b.rooms[j].bracket
		}
		return b.rooms[i].a.rank+b.rooms[i].b.rank < b.rooms[j].a.rank+b.rooms[j].b.rank
	})

	round := b.params.Round
	out := &Draw{Round: round, Method: b.params.Settings.DrawMethod}
	rankInBracket := 0
	for i, r := range b.rooms {
		if i == 0 || b.rooms[i-1].bracket != r.bracket {
			rankInBracket = 0
		}
		rankInBracket++

		aff, neg, contradictory := b.sides.assign(r.a, r.b, i)
		affID, negID := aff.team.ID, neg.team.ID
		p := &models.Pairing{
			UID:         fmt.Sprintf("R%dP%d", round, i+1),
			Round:       round,
			Stage:       models.StagePreliminary,
			Affirmative: &affID,
			Negative:    &negID,
			JudgeIDs:    []int{},
			Status:      models.PairingScheduled,
			Bracket:     r.bracket,
			RoomRank:    rankInBracket,
		}
		if r.a.pulledUp || r.b.pulledUp {
			p.AddFlag(models.FlagPulledUp)
		}
		if r.a.escalated || r.b.escalated {
			p.AddFlag(models.FlagEscalated)
		}
		if contradictory {
			p.AddFlag(models.FlagSideConflict)
			b.warn(models.Warning{
				Code:        models.WarnSideConflict,
				Message:     fmt.Sprintf("teams %d and %d were both pre-allocated the same side; sides balanced instead", affID, negID),
				TeamIDs:     []int{affID, negID},
				PairingUIDs: []string{p.UID},
			})
		}
		b.delta(affID).Aff++
		b.delta(negID).Neg++
		out.Pairings = append(out.Pairings, p)
	}

	if b.bye != nil {
		id := b.bye.team.ID
		out.Pairings = append(out.Pairings, &models.Pairing{
			UID:         fmt.Sprintf("R%dP%d", round, len(b.rooms)+1),
			Round:       round,
			Stage:       models.StagePreliminary,
			Affirmative: &id,
			JudgeIDs:    []int{},
			Status:      models.PairingBye,
			Bracket:     b.bye.team.Wins,
			RoomRank:    1,
			Flags:       []models.PairingFlag{models.FlagBye},
		})
	}

	ids := make([]int, 0, len(b.deltas))
	for id := range b.deltas {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		out.Deltas = append(out.Deltas, *b.deltas[id])
	}
	out.Warnings = b.warnings
	return out
}

func seatIDs(seats []*seat) []int {
	ids := make([]int, len(seats))
	for i, s := range seats {
		ids[i] = s.team.ID
	}
	return ids
}
