// Package standings ranks teams from the results of completed preliminary
// pairings.
//
// Opponent win percentage reads every opponent's record as of the call, so
// the same team can move when an opponent's later result arrives. Callers
// always recompute from the full current set of completed pairings rather
// than caching a snapshot.
package standings

import (
	"math"
	"sort"

	"github.com/Dosada05/tabroom/models"
)

const epsilon = 1e-9

type Options struct {
	// HighLowDrop adds adjusted speaks (total minus best and worst round)
	// as a fourth ranking key.
	HighLowDrop bool
	ByeSpeaks   models.ByeSpeaksPolicy
}

func OptionsFrom(s models.TabulationSettings) Options {
	return Options{HighLowDrop: s.HighLowDrop, ByeSpeaks: s.ByeSpeaks}
}

// record accumulates one team's results.
type record struct {
	team      models.Team
	wins      int
	losses    int
	byes      int
	rounds    []float64
	opponents []int
}

func (r *record) debated() int {
	return len(r.rounds)
}

func (r *record) speaks() float64 {
	var total float64
	for _, s := range r.rounds {
		total += s
	}
	return total
}

func (r *record) average() float64 {
	if len(r.rounds) == 0 {
		return 0
	}
	return r.speaks() / float64(len(r.rounds))
}

// Compute ranks every active team. Pairings that are not completed
// preliminary rounds or byes are ignored.
func Compute(teams []models.Team, pairings []*models.Pairing, opts Options) []models.Standing {
	records := make(map[int]*record, len(teams))
	for _, t := range teams {
		records[t.ID] = &record{team: t}
	}

	for _, p := range pairings {
		if p.Stage == models.StageElimination {
			continue
		}
		if p.IsBye() {
			if p.Affirmative != nil {
				if r, ok := records[*p.Affirmative]; ok {
					r.wins++
					r.byes++
				}
			}
			continue
		}
		if p.Status != models.PairingCompleted || p.Result == nil || p.Affirmative == nil || p.Negative == nil {
			continue
		}
		aff, neg := records[*p.Affirmative], records[*p.Negative]
		if aff != nil {
			aff.rounds = append(aff.rounds, p.Result.AffTotal())
			aff.opponents = append(aff.opponents, *p.Negative)
			tally(aff, p.Result.WinnerID == *p.Affirmative)
		}
		if neg != nil {
			neg.rounds = append(neg.rounds, p.Result.NegTotal())
			neg.opponents = append(neg.opponents, *p.Affirmative)
			tally(neg, p.Result.WinnerID == *p.Negative)
		}
	}

	out := make([]models.Standing, 0, len(records))
	for _, r := range records {
		if !r.team.Active {
			continue
		}
		out = append(out, standingOf(r, records, opts))
	}

	sort.Slice(out, func(i, j int) bool {
		if c := compare(out[i], out[j], opts); c != 0 {
			return c < 0
		}
		return out[i].TeamID < out[j].TeamID
	})
	for i := range out {
		if i > 0 && compare(out[i-1], out[i], opts) == 0 {
			out[i].Rank = out[i-1].Rank
		} else {
			out[i].Rank = i + 1
		}
	}
	return out
}

func tally(r *record, won bool) {
	if won {
		r.wins++
	} else {
		r.losses++
	}
}

func standingOf(r *record, records map[int]*record, opts Options) models.Standing {
	total := r.speaks()
	if r.byes > 0 && opts.ByeSpeaks != models.ByeSpeaksZero {
		total += float64(r.byes) * r.average()
	}
	rounds := r.debated() + r.byes

	s := models.Standing{
		TeamID:         r.team.ID,
		TeamName:       r.team.Name,
		Wins:           r.wins,
		Losses:         r.losses,
		Rounds:         rounds,
		TotalSpeaks:    total,
		OpponentWinPct: opponentWinPct(r, records),
		AdjustedSpeaks: total,
	}
	if rounds > 0 {
		s.AverageSpeaks = total / float64(rounds)
	}
	if opts.HighLowDrop && r.debated() >= 3 {
		high, low := math.Inf(-1), math.Inf(1)
		for _, x := range r.rounds {
			high, low = math.Max(high, x), math.Min(low, x)
		}
		s.AdjustedSpeaks = total - high - low
	}
	return s
}

// opponentWinPct averages the current win rate of every opponent faced.
func opponentWinPct(r *record, records map[int]*record) float64 {
	if len(r.opponents) == 0 {
		return 0
	}
	var sum float64
	for _, id := range r.opponents {
		o := records[id]
		if o == nil {
			continue
		}
		if played := o.wins + o.losses; played > 0 {
			sum += float64(o.wins) / float64(played)
		}
	}
	return sum / float64(len(r.opponents))
}

// compare orders a before b when it returns a negative value. It ignores the
// team id, which only breaks full ties.
func compare(a, b models.Standing, opts Options) int {
	if a.Wins != b.Wins {
		return b.Wins - a.Wins
	}
	if c := compareFloat(a.TotalSpeaks, b.TotalSpeaks); c != 0 {
		return c
	}
	if c := compareFloat(a.OpponentWinPct, b.OpponentWinPct); c != 0 {
		return c
	}
	if opts.HighLowDrop {
		return compareFloat(a.AdjustedSpeaks, b.AdjustedSpeaks)
	}
	return 0
}

// compareFloat sorts larger values first.
func compareFloat(a, b float64) int {
	switch {
	case a > b+epsilon:
		return -1
	case b > a+epsilon:
		return 1
	}
	return 0
}

// BreakSeeds returns team ids in rank order, ready for bracket seeding.
func BreakSeeds(standings []models.Standing) []int {
	ids := make([]int, len(standings))
	for i, s := range standings {
		ids[i] = s.TeamID
	}
	return ids
}
