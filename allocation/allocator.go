// Package allocation proposes judge panels for the pairings of a round and
// commits operator-reviewed proposals.
//
// Allocation runs in two phases. Chairs are placed first, one per pairing,
// then the remaining judges fill the panel seats. Each phase is a
// rectangular assignment problem over judges and seats solved with
// matching.Hungarian, so a phase places as many judges as the hard
// exclusions allow and minimizes the soft cost among those placements.
package allocation

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/tabroom/matching"
	"github.com/Dosada05/tabroom/models"
)

var (
	ErrDuplicatePairing = errors.New("duplicate pairing uid")
	ErrDuplicateJudge   = errors.New("duplicate judge id")
)

// Input is the working set one allocation is computed from.
type Input struct {
	Round    int
	Pairings []*models.Pairing
	Judges   []models.Judge
	// Roster resolves team institutions for judge-institution conflicts.
	Roster    *models.Roster
	Conflicts *models.ConflictSet
	// ScheduledAt is used for pairings without their own time.
	ScheduledAt *time.Time
	// DailyLoad counts the rounds each judge already sits on a date, keyed
	// by judge id then models.DateKey. This round is not included.
	DailyLoad map[int]map[string]int
	// Seen counts how often each judge has adjudicated each team.
	Seen     map[int]map[int]int
	Settings models.TabulationSettings
}

// seatRef addresses one judge position of a pairing. Position 0 is the chair.
type seatRef struct {
	pairing  int
	position int
}

// Allocate builds a proposal without touching the pairings.
func Allocate(in Input) (*Proposal, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	perRoom := in.Settings.JudgesPerRoom
	staffed := in.staffable()
	costs := newCostContext(in, staffed)

	proposal := &Proposal{
		ID:        uuid.NewString(),
		Round:     in.Round,
		CreatedAt: time.Now().UTC(),
	}

	placed := make(map[seatRef]int)
	used := make(map[int]bool)

	chairs := make([]seatRef, 0, len(staffed))
	for _, i := range staffed {
		chairs = append(chairs, seatRef{pairing: i})
	}
	costs.solve(chairs, used, placed)

	if perRoom > 1 {
		panel := make([]seatRef, 0, len(staffed)*(perRoom-1))
		for _, i := range staffed {
			for pos := 1; pos < perRoom; pos++ {
				panel = append(panel, seatRef{pairing: i, position: pos})
			}
		}
		costs.solve(panel, used, placed)
	}

	for _, i := range staffed {
		p := in.Pairings[i]
		for pos := 0; pos < perRoom; pos++ {
			ref := seatRef{pairing: i, position: pos}
			a := Assignment{PairingUID: p.UID, Position: pos}
			if judge, ok := placed[ref]; ok {
				j := costs.judges[judge]
				a.JudgeID = j.ID
				a.Cost = costs.cost(judge, ref)
				a.Reasons = costs.softConflicts(judge, ref)
				a.Conflict = len(a.Reasons) > 0
			}
			proposal.Assignments = append(proposal.Assignments, a)
		}
	}
	proposal.Summary = summarize(proposal)
	return proposal, nil
}

func (in Input) validate() error {
	if in.Settings.JudgesPerRoom < 1 {
		return fmt.Errorf("%w: judges per room must be at least 1", models.ErrInvalidSettings)
	}
	uids := make(map[string]bool, len(in.Pairings))
	for _, p := range in.Pairings {
		if uids[p.UID] {
			return fmt.Errorf("%w: %s", ErrDuplicatePairing, p.UID)
		}
		uids[p.UID] = true
	}
	ids := make(map[int]bool, len(in.Judges))
	for _, j := range in.Judges {
		if ids[j.ID] {
			return fmt.Errorf("%w: %d", ErrDuplicateJudge, j.ID)
		}
		ids[j.ID] = true
	}
	return nil
}

// staffable returns the indexes of pairings that need judges. Byes do not.
func (in Input) staffable() []int {
	out := make([]int, 0, len(in.Pairings))
	for i, p := range in.Pairings {
		if !p.IsBye() {
			out = append(out, i)
		}
	}
	return out
}

// solve assigns free judges to the given seats and records the placements.
func (c *costContext) solve(seats []seatRef, used map[int]bool, placed map[seatRef]int) {
	if len(seats) == 0 {
		return
	}
	free := make([]int, 0, len(c.judges))
	for j := range c.judges {
		if !used[j] {
			free = append(free, j)
		}
	}
	if len(free) == 0 {
		return
	}

	cost := make([][]float64, len(free))
	for r, j := range free {
		cost[r] = make([]float64, len(seats))
		for s, ref := range seats {
			if _, blocked := c.blocked(j, ref.pairing); blocked {
				cost[r][s] = matching.Forbidden
				continue
			}
			cost[r][s] = c.cost(j, ref)
		}
	}

	result := matching.Hungarian(cost)
	for r, s := range result.Rows {
		if s < 0 {
			continue
		}
		used[free[r]] = true
		placed[seats[s]] = free[r]
	}
}

func summarize(p *Proposal) Summary {
	s := Summary{TotalSlots: len(p.Assignments), Unassigned: []string{}}
	missing := make(map[string]bool)
	for _, a := range p.Assignments {
		switch {
		case a.JudgeID == 0:
			missing[a.PairingUID] = true
		case a.Conflict:
			s.TotalAssigned++
			s.ConflictCount++
			s.Warnings = append(s.Warnings, models.Warning{
				Code:        models.WarnSoftConflict,
				Message:     fmt.Sprintf("judge %d in %s: %s", a.JudgeID, a.PairingUID, joinReasons(a.Reasons)),
				JudgeIDs:    []int{a.JudgeID},
				PairingUIDs: []string{a.PairingUID},
			})
		default:
			s.TotalAssigned++
		}
	}
	for uid := range missing {
		s.Unassigned = append(s.Unassigned, uid)
	}
	sort.Strings(s.Unassigned)
	if len(s.Unassigned) > 0 {
		s.Warnings = append(s.Warnings, models.Warning{
			Code: models.WarnPartialAssignment,
			Message: fmt.Sprintf("%d of %d judge slots filled; %d pairings are short of judges",
				s.TotalAssigned, s.TotalSlots, len(s.Unassigned)),
			PairingUIDs: s.Unassigned,
		})
	}
	return s
}
