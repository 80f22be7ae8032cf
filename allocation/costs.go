package allocation

import (
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/tabroom/models"
)

// panelWeight scales the fit cost of non-chair seats.
const panelWeight = 0.5

// costContext holds everything the seat cost depends on, precomputed per
// allocation.
type costContext struct {
	in         Input
	judges     []models.Judge
	importance []float64
}

func newCostContext(in Input, staffed []int) *costContext {
	c := &costContext{
		in:         in,
		judges:     in.Judges,
		importance: make([]float64, len(in.Pairings)),
	}
	top := 0
	for _, i := range staffed {
		top = max(top, in.Pairings[i].Bracket)
	}
	for _, i := range staffed {
		p := in.Pairings[i]
		switch {
		case p.Stage == models.StageElimination || top == 0:
			c.importance[i] = 1
		default:
			c.importance[i] = 0.5 + 0.5*float64(p.Bracket)/float64(top)
		}
	}
	return c
}

// when returns the date and time-of-day a pairing is held, if known.
func (c *costContext) when(p *models.Pairing) (string, models.TimeOfDay, bool) {
	var at *time.Time
	switch {
	case p.ScheduledAt != nil:
		at = p.ScheduledAt
	case c.in.ScheduledAt != nil:
		at = c.in.ScheduledAt
	default:
		return "", "", false
	}
	return models.DateKey(*at), models.TimeOfDayOf(*at), true
}

func (c *costContext) team(id int) models.Team {
	if c.in.Roster != nil {
		if t, ok := c.in.Roster.Team(id); ok {
			return t
		}
	}
	return models.Team{ID: id}
}

// block is a hard reason a judge may not sit a pairing.
type block struct {
	rule   models.Conflict
	reason string
}

func (c *costContext) blocked(judge, pairing int) (block, bool) {
	return checkEligible(c, c.judges[judge], c.in.Pairings[pairing])
}

func checkEligible(c *costContext, j models.Judge, p *models.Pairing) (block, bool) {
	for _, id := range p.TeamIDs() {
		if rule, ok := c.in.Conflicts.JudgeBlocked(j.ID, c.team(id)); ok {
			return block{rule: rule, reason: fmt.Sprint(rule)}, true
		}
	}
	date, _, known := c.when(p)
	if known && !j.Availability.AvailableOn(date) {
		return block{reason: fmt.Sprintf("judge %d is unavailable on %s", j.ID, date)}, true
	}
	if j.MaxRoundsPerDay > 0 && c.in.DailyLoad[j.ID][date] >= j.MaxRoundsPerDay {
		return block{reason: fmt.Sprintf("judge %d already sits %d rounds that day", j.ID, j.MaxRoundsPerDay)}, true
	}
	return block{}, false
}

// cost prices a judge in a seat. Lower is a better fit.
func (c *costContext) cost(judge int, ref seatRef) float64 {
	s := c.in.Settings
	j := c.judges[judge]
	p := c.in.Pairings[ref.pairing]

	fit := s.ExperienceWeight * c.importance[ref.pairing] * float64(models.TierExpert-j.Tier)
	if p.Category != "" && !j.Specializes(p.Category) {
		fit += s.SpecializationCost
	}
	if ref.position > 0 {
		fit *= panelWeight
	}

	total := fit
	if date, bucket, known := c.when(p); known && !j.Availability.Prefers(date, bucket) {
		total += s.TimePrefPenalty
	}
	for _, id := range p.TeamIDs() {
		total += s.RepeatJudgePenalty * float64(c.in.Seen[j.ID][id])
	}
	if ref.position == 0 && j.Alumni {
		total += s.AlumniChairPenalty
	}
	return total
}

// softConflicts explains the soft penalties a placed judge carries.
func (c *costContext) softConflicts(judge int, ref seatRef) []string {
	j := c.judges[judge]
	p := c.in.Pairings[ref.pairing]
	var reasons []string
	if p.Category != "" && !j.Specializes(p.Category) {
		reasons = append(reasons, fmt.Sprintf("does not specialize in %s", p.Category))
	}
	if date, bucket, known := c.when(p); known && !j.Availability.Prefers(date, bucket) {
		reasons = append(reasons, fmt.Sprintf("prefers not to judge in the %s", bucket))
	}
	for _, id := range p.TeamIDs() {
		if n := c.in.Seen[j.ID][id]; n > 0 {
			reasons = append(reasons, fmt.Sprintf("has judged team %d %d times", id, n))
		}
	}
	if ref.position == 0 && j.Alumni {
		reasons = append(reasons, "alumni judge in the chair")
	}
	return reasons
}

func joinReasons(reasons []string) string {
	return strings.Join(reasons, "; ")
}
