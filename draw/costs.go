package draw

import (
	"fmt"
	"math"

	"github.com/Dosada05/tabroom/models"
)

// costModel prices a candidate pairing. Hard exclusions are reported
// separately and never folded into the cost.
type costModel struct {
	settings  models.TabulationSettings
	history   *models.History
	conflicts *models.ConflictSet
}

// exclusion describes why two teams may not meet.
type exclusion struct {
	rule   models.Conflict
	reason string
}

func (c costModel) excluded(a, b models.Team) (exclusion, bool) {
	if c.conflicts.TeamsConflict(a.ID, b.ID) {
		rule := models.TeamConflict{TeamA: a.ID, TeamB: b.ID}
		return exclusion{rule: rule, reason: rule.String()}, true
	}
	if c.settings.AvoidRematches && c.settings.MaxRepeatOpponents == 0 && c.history.Meetings(a.ID, b.ID) > 0 {
		return exclusion{reason: fmt.Sprintf("team %d already met team %d", a.ID, b.ID)}, true
	}
	return exclusion{}, false
}

func (c costModel) cost(a, b models.Team) float64 {
	return c.historyCost(a, b) + c.institutionCost(a, b) + c.sideCost(a, b)
}

func (c costModel) historyCost(a, b models.Team) float64 {
	if !c.settings.AvoidRematches {
		return 0
	}
	met := c.history.Meetings(a.ID, b.ID)
	if met == 0 {
		return 0
	}
	if ceiling := c.settings.MaxRepeatOpponents; ceiling > 0 && met >= ceiling {
		return c.settings.HistoryPenalty * float64(met+1)
	}
	return c.settings.HistoryPenalty
}

func (c costModel) institutionCost(a, b models.Team) float64 {
	if c.settings.InstitutionProtection && models.SameInstitution(a, b) {
		return c.settings.InstitutionPenalty
	}
	return 0
}

func (c costModel) sideCost(a, b models.Team) float64 {
	switch c.settings.SideMethod {
	case models.SidesBalance:
		aAff, bAff := orientationImbalance(a, b)
		return c.settings.SidePenalty * math.Min(aAff, bAff)
	case models.SidesPreAllocated:
		if a.PreAllocatedSide != nil && b.PreAllocatedSide != nil && *a.PreAllocatedSide == *b.PreAllocatedSide {
			return c.settings.SidePenalty * 2
		}
	}
	return 0
}

// orientationImbalance returns the combined side skew after the round when a
// takes the affirmative, and when b does.
func orientationImbalance(a, b models.Team) (aAff, bAff float64) {
	ia, ib := a.SideImbalance(), b.SideImbalance()
	aAff = math.Abs(float64(ia+1)) + math.Abs(float64(ib-1))
	bAff = math.Abs(float64(ia-1)) + math.Abs(float64(ib+1))
	return aAff, bAff
}

// edge adapts the cost model to the matcher over a slice of seats.
func (c costModel) edge(seats []*seat) func(i, j int) (float64, bool) {
	return func(i, j int) (float64, bool) {
		a, b := seats[i].team, seats[j].team
		if _, blocked := c.excluded(a, b); blocked {
			return 0, false
		}
		return c.cost(a, b), true
	}
}

// diagnose lists the exclusions that keep the stuck teams from every other seat.
func (c costModel) diagnose(scope string, stuck, all []*seat) *models.InfeasibleError {
	err := &models.InfeasibleError{Scope: scope}
	var reasons []string
	seen := make(map[models.PairKey]bool)
	for _, s := range stuck {
		err.Teams = append(err.Teams, s.team.ID)
		for _, o := range all {
			if o.team.ID == s.team.ID {
				continue
			}
			key := models.NewPairKey(s.team.ID, o.team.ID)
			ex, blocked := c.excluded(s.team, o.team)
			if !blocked || seen[key] {
				continue
			}
			seen[key] = true
			if ex.rule != nil {
				err.Rules = append(err.Rules, ex.rule)
			} else {
				reasons = append(reasons, ex.reason)
			}
		}
	}
	if len(reasons) > 0 {
		err.Reason = fmt.Sprintf("%d rematch exclusions, e.g. %s", len(reasons), reasons[0])
	} else {
		err.Reason = "no feasible opponent left"
	}
	return err
}
