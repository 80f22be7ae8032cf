package models

import "time"

type PairingStatus string

const (
	PairingScheduled  PairingStatus = "scheduled"
	PairingInProgress PairingStatus = "in_progress"
	PairingCompleted  PairingStatus = "completed"
	PairingBye        PairingStatus = "bye"
)

type Stage string

const (
	StagePreliminary Stage = "preliminary"
	StageElimination Stage = "elimination"
)

type PairingFlag string

const (
	FlagBye          PairingFlag = "bye"
	FlagPulledUp     PairingFlag = "pulled_up"
	FlagEscalated    PairingFlag = "escalated"
	FlagSideConflict PairingFlag = "side_conflict"
)

// Result is the recorded outcome of a pairing. Scores are per speaker.
type Result struct {
	WinnerID  int       `json:"winner_id"`
	AffScores []float64 `json:"aff_scores,omitempty"`
	NegScores []float64 `json:"neg_scores,omitempty"`
}

func (r *Result) AffTotal() float64 { return sum(r.AffScores) }
func (r *Result) NegTotal() float64 { return sum(r.NegScores) }

func sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}

type Pairing struct {
	ID           int           `json:"id,omitempty" db:"id"`
	TournamentID int           `json:"tournament_id,omitempty" db:"tournament_id"`
	UID          string        `json:"uid" db:"uid"`
	Round        int           `json:"round" db:"round"`
	Stage        Stage         `json:"stage" db:"stage"`
	Affirmative  *int          `json:"affirmative,omitempty" db:"aff_team_id"`
	Negative     *int          `json:"negative,omitempty" db:"neg_team_id"`
	JudgeIDs     []int         `json:"judge_ids" db:"judge_ids"`
	Room         string        `json:"room,omitempty" db:"room"`
	ScheduledAt  *time.Time    `json:"scheduled_at,omitempty" db:"scheduled_at"`
	Status       PairingStatus `json:"status" db:"status"`
	Bracket      int           `json:"bracket" db:"bracket"`
	RoomRank     int           `json:"room_rank" db:"room_rank"`
	Flags        []PairingFlag `json:"flags,omitempty" db:"flags"`
	Category     string        `json:"category,omitempty" db:"category"`

	// Elimination only.
	AffSeed        *int     `json:"aff_seed,omitempty" db:"aff_seed"`
	NegSeed        *int     `json:"neg_seed,omitempty" db:"neg_seed"`
	AdvancesTo     *string  `json:"advances_to,omitempty" db:"advances_to"`
	AdvancesToSlot int      `json:"advances_to_slot,omitempty" db:"advances_to_slot"`
	SourceUIDs     []string `json:"source_uids,omitempty" db:"-"`

	Result *Result `json:"result,omitempty" db:"-"`
}

func (p *Pairing) IsBye() bool {
	return p.Status == PairingBye || p.HasFlag(FlagBye)
}

func (p *Pairing) HasFlag(f PairingFlag) bool {
	for _, x := range p.Flags {
		if x == f {
			return true
		}
	}
	return false
}

func (p *Pairing) AddFlag(f PairingFlag) {
	if !p.HasFlag(f) {
		p.Flags = append(p.Flags, f)
	}
}

// TeamIDs returns the teams seated in the pairing, affirmative first.
func (p *Pairing) TeamIDs() []int {
	ids := make([]int, 0, 2)
	if p.Affirmative != nil {
		ids = append(ids, *p.Affirmative)
	}
	if p.Negative != nil {
		ids = append(ids, *p.Negative)
	}
	return ids
}

// Opponent returns the other team of the pairing, or false for a bye or an unknown team.
func (p *Pairing) Opponent(teamID int) (int, bool) {
	switch {
	case p.Affirmative != nil && *p.Affirmative == teamID && p.Negative != nil:
		return *p.Negative, true
	case p.Negative != nil && *p.Negative == teamID && p.Affirmative != nil:
		return *p.Affirmative, true
	}
	return 0, false
}

// Chair is the first assigned judge.
func (p *Pairing) Chair() (int, bool) {
	if len(p.JudgeIDs) == 0 {
		return 0, false
	}
	return p.JudgeIDs[0], true
}

// HistoryEntries returns what the pairing contributes to the pairing history.
func (p *Pairing) HistoryEntries() []HistoryEntry {
	switch {
	case p.Affirmative != nil && p.Negative != nil:
		return []HistoryEntry{{TeamA: *p.Affirmative, TeamB: *p.Negative, Round: p.Round}}
	case p.Affirmative != nil:
		return []HistoryEntry{{TeamA: *p.Affirmative, TeamB: ByeOpponent, Round: p.Round}}
	}
	return nil
}

// RoundPlan names a round of an elimination bracket.
type RoundPlan struct {
	Round       int      `json:"round"`
	Name        string   `json:"name"`
	PairingUIDs []string `json:"pairing_uids"`
}
