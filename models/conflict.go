package models

import "fmt"

// Conflict is a hard exclusion. The set of implementations is closed:
// TeamConflict, JudgeTeamConflict and JudgeInstitutionConflict.
type Conflict interface {
	conflict()
	Kind() ConflictKind
}

type ConflictKind string

const (
	ConflictTeamTeam         ConflictKind = "team_team"
	ConflictJudgeTeam        ConflictKind = "judge_team"
	ConflictJudgeInstitution ConflictKind = "judge_institution"
)

// TeamConflict forbids pairing two teams against each other.
type TeamConflict struct {
	TeamA int
	TeamB int
}

// JudgeTeamConflict forbids a judge from adjudicating a team.
type JudgeTeamConflict struct {
	JudgeID int
	TeamID  int
}

// JudgeInstitutionConflict forbids a judge from adjudicating any team of an institution.
type JudgeInstitutionConflict struct {
	JudgeID       int
	InstitutionID int
}

func (TeamConflict) conflict()             {}
func (JudgeTeamConflict) conflict()        {}
func (JudgeInstitutionConflict) conflict() {}

func (TeamConflict) Kind() ConflictKind             { return ConflictTeamTeam }
func (JudgeTeamConflict) Kind() ConflictKind        { return ConflictJudgeTeam }
func (JudgeInstitutionConflict) Kind() ConflictKind { return ConflictJudgeInstitution }

func (c TeamConflict) String() string {
	return fmt.Sprintf("team %d conflicts with team %d", c.TeamA, c.TeamB)
}

func (c JudgeTeamConflict) String() string {
	return fmt.Sprintf("judge %d conflicts with team %d", c.JudgeID, c.TeamID)
}

func (c JudgeInstitutionConflict) String() string {
	return fmt.Sprintf("judge %d conflicts with institution %d", c.JudgeID, c.InstitutionID)
}

// ConflictRecord is the flat form conflicts take in storage and on the wire.
type ConflictRecord struct {
	ID           int          `json:"id,omitempty" db:"id"`
	TournamentID int          `json:"tournament_id,omitempty" db:"tournament_id"`
	Kind         ConflictKind `json:"kind" db:"kind"`
	SubjectID    int          `json:"subject_id" db:"subject_id"`
	ObjectID     int          `json:"object_id" db:"object_id"`
}

func (r ConflictRecord) ToConflict() (Conflict, error) {
	switch r.Kind {
	case ConflictTeamTeam:
		return TeamConflict{TeamA: r.SubjectID, TeamB: r.ObjectID}, nil
	case ConflictJudgeTeam:
		return JudgeTeamConflict{JudgeID: r.SubjectID, TeamID: r.ObjectID}, nil
	case ConflictJudgeInstitution:
		return JudgeInstitutionConflict{JudgeID: r.SubjectID, InstitutionID: r.ObjectID}, nil
	default:
		return nil, fmt.Errorf("unknown conflict kind %q", r.Kind)
	}
}

func RecordOf(c Conflict) ConflictRecord {
	switch c := c.(type) {
	case TeamConflict:
		return ConflictRecord{Kind: ConflictTeamTeam, SubjectID: c.TeamA, ObjectID: c.TeamB}
	case JudgeTeamConflict:
		return ConflictRecord{Kind: ConflictJudgeTeam, SubjectID: c.JudgeID, ObjectID: c.TeamID}
	case JudgeInstitutionConflict:
		return ConflictRecord{Kind: ConflictJudgeInstitution, SubjectID: c.JudgeID, ObjectID: c.InstitutionID}
	}
	panic(fmt.Sprintf("unhandled conflict type %T", c))
}

type judgeKey struct {
	judge  int
	target int
}

// ConflictSet indexes conflicts for constant-time lookups. It is symmetric
// for team-team entries.
type ConflictSet struct {
	teams     map[PairKey]struct{}
	judgeTeam map[judgeKey]struct{}
	judgeInst map[judgeKey]struct{}
	all       []Conflict
}

func NewConflictSet(conflicts []Conflict) *ConflictSet {
	s := &ConflictSet{
		teams:     make(map[PairKey]struct{}),
		judgeTeam: make(map[judgeKey]struct{}),
		judgeInst: make(map[judgeKey]struct{}),
	}
	for _, c := range conflicts {
		s.Add(c)
	}
	return s
}

func ConflictSetFromRecords(records []ConflictRecord) (*ConflictSet, error) {
	conflicts := make([]Conflict, 0, len(records))
	for _, r := range records {
		c, err := r.ToConflict()
		if err != nil {
			return nil, err
		}
		conflicts = append(conflicts, c)
	}
	return NewConflictSet(conflicts), nil
}

func (s *ConflictSet) Add(c Conflict) {
	switch c := c.(type) {
	case TeamConflict:
		s.teams[NewPairKey(c.TeamA, c.TeamB)] = struct{}{}
	case JudgeTeamConflict:
		s.judgeTeam[judgeKey{c.JudgeID, c.TeamID}] = struct{}{}
	case JudgeInstitutionConflict:
		s.judgeInst[judgeKey{c.JudgeID, c.InstitutionID}] = struct{}{}
	}
	s.all = append(s.all, c)
}

func (s *ConflictSet) TeamsConflict(a, b int) bool {
	if s == nil {
		return false
	}
	_, ok := s.teams[NewPairKey(a, b)]
	return ok
}

func (s *ConflictSet) JudgeTeam(judgeID, teamID int) bool {
	if s == nil {
		return false
	}
	_, ok := s.judgeTeam[judgeKey{judgeID, teamID}]
	return ok
}

func (s *ConflictSet) JudgeInstitution(judgeID, institutionID int) bool {
	if s == nil {
		return false
	}
	_, ok := s.judgeInst[judgeKey{judgeID, institutionID}]
	return ok
}

// JudgeBlocked returns the rule that forbids the judge from seeing the team, if any.
func (s *ConflictSet) JudgeBlocked(judgeID int, team Team) (Conflict, bool) {
	if s.JudgeTeam(judgeID, team.ID) {
		return JudgeTeamConflict{JudgeID: judgeID, TeamID: team.ID}, true
	}
	if team.InstitutionID != nil && s.JudgeInstitution(judgeID, *team.InstitutionID) {
		return JudgeInstitutionConflict{JudgeID: judgeID, InstitutionID: *team.InstitutionID}, true
	}
	return nil, false
}

func (s *ConflictSet) All() []Conflict {
	if s == nil {
		return nil
	}
	out := make([]Conflict, len(s.all))
	copy(out, s.all)
	return out
}
