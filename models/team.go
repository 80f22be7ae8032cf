package models

type Side string

const (
	SideAffirmative Side = "affirmative"
	SideNegative    Side = "negative"
)

// Team is a competitor as seen by the tab room. Withdrawal flips Active,
// the team is never removed so historical pairings stay valid.
type Team struct {
	ID            int     `json:"id" db:"id"`
	TournamentID  int     `json:"tournament_id" db:"tournament_id"`
	Name          string  `json:"name" db:"name"`
	InstitutionID *int    `json:"institution_id,omitempty" db:"institution_id"`
	Wins          int     `json:"wins" db:"wins"`
	Losses        int     `json:"losses" db:"losses"`
	SpeakerTotal  float64 `json:"speaker_total" db:"speaker_total"`
	AffCount      int     `json:"aff_count" db:"aff_count"`
	NegCount      int     `json:"neg_count" db:"neg_count"`
	PullUps       int     `json:"pull_ups" db:"pull_ups"`
	ByeCount      int     `json:"bye_count" db:"bye_count"`
	Active        bool    `json:"active" db:"active"`

	// Only read when sides are pre-allocated.
	PreAllocatedSide *Side `json:"pre_allocated_side,omitempty" db:"pre_allocated_side"`
}

// SideImbalance is positive when the team has spoken affirmative more often.
func (t Team) SideImbalance() int {
	return t.AffCount - t.NegCount
}

// SameInstitution reports whether both teams belong to the same known institution.
func SameInstitution(a, b Team) bool {
	return a.InstitutionID != nil && b.InstitutionID != nil && *a.InstitutionID == *b.InstitutionID
}

// TeamDelta is a counter change produced by the draw for the caller to persist.
type TeamDelta struct {
	TeamID  int `json:"team_id"`
	Aff     int `json:"aff"`
	Neg     int `json:"neg"`
	PullUps int `json:"pull_ups"`
	Byes    int `json:"byes"`
}

// Apply returns a copy of the team with the delta added.
func (d TeamDelta) Apply(t Team) Team {
	t.AffCount += d.Aff
	t.NegCount += d.Neg
	t.PullUps += d.PullUps
	t.ByeCount += d.Byes
	return t
}
