package allocation

import (
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tabroom/models"
)

var (
	ErrUnknownSlot   = errors.New("override refers to an unknown judge slot")
	ErrUnknownJudge  = errors.New("override refers to an unknown judge")
	ErrDoubleBooked  = errors.New("judge assigned to more than one slot")
	ErrStaleProposal = errors.New("proposal does not match the round's pairings")
)

// Assignment is one judge seat of a pairing. JudgeID 0 means the seat is empty.
type Assignment struct {
	PairingUID string   `json:"pairing_uid"`
	Position   int      `json:"position"`
	JudgeID    int      `json:"judge_id,omitempty"`
	Cost       float64  `json:"cost"`
	Conflict   bool     `json:"conflict"`
	Reasons    []string `json:"reasons,omitempty"`
}

func (a Assignment) Chair() bool {
	return a.Position == 0
}

type Summary struct {
	TotalSlots    int              `json:"total_slots"`
	TotalAssigned int              `json:"total_assigned"`
	ConflictCount int              `json:"conflict_count"`
	Unassigned    []string         `json:"unassigned"`
	Warnings      []models.Warning `json:"warnings,omitempty"`
}

// Proposal is the reviewable output of Allocate. It is not applied to any
// pairing until committed.
type Proposal struct {
	ID          string       `json:"id"`
	Round       int          `json:"round"`
	Assignments []Assignment `json:"assignments"`
	Summary     Summary      `json:"summary"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Override replaces the judge of one seat. JudgeID 0 empties the seat.
type Override struct {
	PairingUID string `json:"pairing_uid"`
	Position   int    `json:"position"`
	JudgeID    int    `json:"judge_id"`
}

type slotKey struct {
	uid      string
	position int
}

// Commit applies the proposal and the overrides to the round's pairings and
// returns updated copies, chair first. Copies without a time of their own take
// in.ScheduledAt. Every override is checked on its own
// against the hard exclusions; the rest of the proposal is kept as it is.
func Commit(in Input, proposal *Proposal, overrides []Override) ([]*models.Pairing, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if proposal == nil || proposal.Round != in.Round {
		return nil, ErrStaleProposal
	}

	byUID := make(map[string]int, len(in.Pairings))
	for i, p := range in.Pairings {
		byUID[p.UID] = i
	}
	judges := make(map[int]models.Judge, len(in.Judges))
	for _, j := range in.Judges {
		judges[j.ID] = j
	}

	seats := make(map[slotKey]int, len(proposal.Assignments))
	for _, a := range proposal.Assignments {
		i, ok := byUID[a.PairingUID]
		if !ok || in.Pairings[i].IsBye() {
			return nil, fmt.Errorf("%w: pairing %s", ErrStaleProposal, a.PairingUID)
		}
		seats[slotKey{a.PairingUID, a.Position}] = a.JudgeID
	}

	costs := newCostContext(in, in.staffable())
	for _, o := range overrides {
		key := slotKey{o.PairingUID, o.Position}
		if _, ok := seats[key]; !ok {
			return nil, fmt.Errorf("%w: %s seat %d", ErrUnknownSlot, o.PairingUID, o.Position)
		}
		if o.JudgeID != 0 {
			j, ok := judges[o.JudgeID]
			if !ok {
				return nil, fmt.Errorf("%w: %d", ErrUnknownJudge, o.JudgeID)
			}
			p := in.Pairings[byUID[o.PairingUID]]
			if b, blocked := checkEligible(costs, j, p); blocked {
				err := &models.InfeasibleError{
					Scope:  fmt.Sprintf("pairing %s", p.UID),
					Teams:  p.TeamIDs(),
					Judges: []int{j.ID},
					Reason: b.reason,
				}
				if b.rule != nil {
					err.Rules = []models.Conflict{b.rule}
				}
				return nil, err
			}
		}
		seats[key] = o.JudgeID
	}

	booked := make(map[int]slotKey)
	for _, a := range proposal.Assignments {
		key := slotKey{a.PairingUID, a.Position}
		judgeID := seats[key]
		if judgeID == 0 {
			continue
		}
		if prev, dup := booked[judgeID]; dup && prev != key {
			return nil, fmt.Errorf("%w: judge %d in %s seat %d and %s seat %d",
				ErrDoubleBooked, judgeID, prev.uid, prev.position, key.uid, key.position)
		}
		booked[judgeID] = key
	}

	perRoom := in.Settings.JudgesPerRoom
	out := make([]*models.Pairing, 0, len(in.Pairings))
	for _, p := range in.Pairings {
		if p.IsBye() {
			continue
		}
		ids := make([]int, 0, perRoom)
		for pos := 0; pos < perRoom; pos++ {
			if id := seats[slotKey{p.UID, pos}]; id != 0 {
				ids = append(ids, id)
			}
		}
		updated := *p
		updated.JudgeIDs = ids
		updated.Flags = append([]models.PairingFlag(nil), p.Flags...)
		if updated.ScheduledAt == nil && in.ScheduledAt != nil {
			at := *in.ScheduledAt
			updated.ScheduledAt = &at
		}
		out = append(out, &updated)
	}
	return out, nil
}
