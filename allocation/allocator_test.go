package allocation

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tabroom/models"
)

func intPtr(v int) *int { return &v }

func pairing(uid string, aff, neg int) *models.Pairing {
	return &models.Pairing{
		UID:         uid,
		Round:       1,
		Stage:       models.StagePreliminary,
		Affirmative: intPtr(aff),
		Negative:    intPtr(neg),
		Status:      models.PairingScheduled,
	}
}

func judge(id int, tier models.ExperienceTier) models.Judge {
	return models.Judge{ID: id, Name: fmt.Sprintf("Judge %d", id), Tier: tier}
}

func input(pairings []*models.Pairing, judges []models.Judge, teams []models.Team, conflicts []models.Conflict) Input {
	return Input{
		Round:     1,
		Pairings:  pairings,
		Judges:    judges,
		Roster:    models.NewRoster(teams),
		Conflicts: models.NewConflictSet(conflicts),
		Settings:  models.DefaultSettings(),
	}
}

func assigned(p *Proposal) map[string][]int {
	out := make(map[string][]int)
	for _, a := range p.Assignments {
		if a.JudgeID != 0 {
			out[a.PairingUID] = append(out[a.PairingUID], a.JudgeID)
		}
	}
	return out
}

func TestAllocate_InstitutionConflictsLeaveOneFeasibleJudgeEach(t *testing.T) {
	teams := []models.Team{
		{ID: 1, InstitutionID: intPtr(10), Active: true},
		{ID: 2, InstitutionID: intPtr(11), Active: true},
		{ID: 3, InstitutionID: intPtr(12), Active: true},
		{ID: 4, InstitutionID: intPtr(13), Active: true},
	}
	pairings := []*models.Pairing{pairing("P1", 1, 2), pairing("P2", 3, 4)}
	judges := []models.Judge{judge(1, models.TierExpert), judge(2, models.TierExpert), judge(3, models.TierNovice)}
	conflicts := []models.Conflict{
		models.JudgeInstitutionConflict{JudgeID: 1, InstitutionID: 10},
		models.JudgeInstitutionConflict{JudgeID: 2, InstitutionID: 13},
	}

	p, err := Allocate(input(pairings, judges, teams, conflicts))
	require.NoError(t, err)

	got := assigned(p)
	require.Len(t, got["P1"], 1)
	require.Len(t, got["P2"], 1)
	assert.NotEqual(t, 1, got["P1"][0])
	assert.NotEqual(t, 2, got["P2"][0])
	assert.Equal(t, 2, p.Summary.TotalAssigned)
	assert.Zero(t, p.Summary.ConflictCount)
	assert.Empty(t, p.Summary.Unassigned)
	assert.Empty(t, p.Summary.Warnings)
	for _, a := range p.Assignments {
		assert.False(t, a.Conflict)
	}
	assert.NotEmpty(t, p.ID)
}

func TestAllocate_NeverViolatesHardConflicts(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 300; trial++ {
		nJudges := 1 + rng.Intn(6)
		nPairings := 1 + rng.Intn(6)
		perRoom := 1 + rng.Intn(2)

		var teams []models.Team
		var pairings []*models.Pairing
		for i := 0; i < nPairings; i++ {
			a, b := 2*i+1, 2*i+2
			teams = append(teams,
				models.Team{ID: a, InstitutionID: intPtr(100 + rng.Intn(4)), Active: true},
				models.Team{ID: b, InstitutionID: intPtr(100 + rng.Intn(4)), Active: true})
			pairings = append(pairings, pairing(fmt.Sprintf("P%d", i+1), a, b))
		}
		var judges []models.Judge
		var conflicts []models.Conflict
		for j := 1; j <= nJudges; j++ {
			judges = append(judges, judge(j, models.ExperienceTier(rng.Intn(4))))
			for k := 0; k < rng.Intn(4); k++ {
				if rng.Intn(2) == 0 {
					conflicts = append(conflicts, models.JudgeTeamConflict{JudgeID: j, TeamID: 1 + rng.Intn(2*nPairings)})
				} else {
					conflicts = append(conflicts, models.JudgeInstitutionConflict{JudgeID: j, InstitutionID: 100 + rng.Intn(4)})
				}
			}
		}
		in := input(pairings, judges, teams, conflicts)
		in.Settings.JudgesPerRoom = perRoom
		set := in.Conflicts

		p, err := Allocate(in)
		require.NoError(t, err)

		roster := in.Roster
		booked := make(map[int]bool)
		eligibleSeats := 0
		for _, a := range p.Assignments {
			if a.JudgeID == 0 {
				continue
			}
			require.False(t, booked[a.JudgeID], "trial %d: judge %d double booked", trial, a.JudgeID)
			booked[a.JudgeID] = true
			var pr *models.Pairing
			for _, candidate := range pairings {
				if candidate.UID == a.PairingUID {
					pr = candidate
				}
			}
			for _, id := range pr.TeamIDs() {
				team, _ := roster.Team(id)
				_, blocked := set.JudgeBlocked(a.JudgeID, team)
				require.False(t, blocked, "trial %d: judge %d placed on conflicted team %d", trial, a.JudgeID, id)
			}
			eligibleSeats++
		}
		assert.Equal(t, eligibleSeats, p.Summary.TotalAssigned)
		assert.Equal(t, nPairings*perRoom, p.Summary.TotalSlots)
		if p.Summary.TotalAssigned < p.Summary.TotalSlots {
			assert.NotEmpty(t, p.Summary.Unassigned)
		}
	}
}

func TestAllocate_ChairsMaximalBeforePanels(t *testing.T) {
	pairings := []*models.Pairing{pairing("P1", 1, 2), pairing("P2", 3, 4)}
	// The weakest judge left over is cheapest on the panel of the lower room.
	pairings[1].Bracket = 1
	judges := []models.Judge{judge(1, models.TierNovice), judge(2, models.TierExpert), judge(3, models.TierAdvanced)}
	in := input(pairings, judges, nil, nil)
	in.Settings.JudgesPerRoom = 2

	p, err := Allocate(in)
	require.NoError(t, err)

	got := assigned(p)
	require.Len(t, got["P1"], 2)
	require.Len(t, got["P2"], 1)
	for _, a := range p.Assignments {
		if a.Chair() {
			assert.NotZero(t, a.JudgeID, a.PairingUID)
		}
	}
	assert.Equal(t, []string{"P2"}, p.Summary.Unassigned)
	require.NotEmpty(t, p.Summary.Warnings)
	assert.Equal(t, models.WarnPartialAssignment, p.Summary.Warnings[len(p.Summary.Warnings)-1].Code)
}

func TestAllocate_StrongerJudgesChairTopRooms(t *testing.T) {
	top := pairing("P1", 1, 2)
	top.Bracket = 3
	bottom := pairing("P2", 3, 4)
	bottom.Bracket = 0
	judges := []models.Judge{judge(1, models.TierNovice), judge(2, models.TierExpert)}

	p, err := Allocate(input([]*models.Pairing{top, bottom}, judges, nil, nil))
	require.NoError(t, err)

	got := assigned(p)
	assert.Equal(t, []int{2}, got["P1"])
	assert.Equal(t, []int{1}, got["P2"])
}

func TestAllocate_SkipsByes(t *testing.T) {
	bye := &models.Pairing{UID: "P2", Round: 1, Affirmative: intPtr(5), Status: models.PairingBye, Flags: []models.PairingFlag{models.FlagBye}}
	p, err := Allocate(input([]*models.Pairing{pairing("P1", 1, 2), bye}, []models.Judge{judge(1, models.TierExpert)}, nil, nil))
	require.NoError(t, err)
	assert.Len(t, p.Assignments, 1)
	assert.Equal(t, "P1", p.Assignments[0].PairingUID)
}

func TestAllocate_AvailabilityAndDailyCap(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	date := models.DateKey(at)

	away := judge(1, models.TierExpert)
	away.Availability = models.Availability{Dates: map[string][]models.TimeOfDay{"2026-03-15": nil}}
	tired := judge(2, models.TierExpert)
	tired.MaxRoundsPerDay = 2
	fresh := judge(3, models.TierNovice)

	in := input([]*models.Pairing{pairing("P1", 1, 2)}, []models.Judge{away, tired, fresh}, nil, nil)
	in.ScheduledAt = &at
	in.DailyLoad = map[int]map[string]int{2: {date: 2}}

	p, err := Allocate(in)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, assigned(p)["P1"])
}

func TestAllocate_FlagsForcedSoftConflicts(t *testing.T) {
	at := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC)
	only := judge(1, models.TierAdvanced)
	only.Alumni = true
	only.Availability = models.Availability{Dates: map[string][]models.TimeOfDay{
		models.DateKey(at): {models.TimeMorning},
	}}

	in := input([]*models.Pairing{pairing("P1", 1, 2)}, []models.Judge{only}, nil, nil)
	in.ScheduledAt = &at
	in.Seen = map[int]map[int]int{1: {2: 1}}

	p, err := Allocate(in)
	require.NoError(t, err)
	require.Len(t, p.Assignments, 1)

	a := p.Assignments[0]
	assert.Equal(t, 1, a.JudgeID)
	assert.True(t, a.Conflict)
	assert.Len(t, a.Reasons, 3)
	assert.Equal(t, 1, p.Summary.ConflictCount)
	assert.Equal(t, models.WarnSoftConflict, p.Summary.Warnings[0].Code)
}

func TestAllocate_PrefersSpecialists(t *testing.T) {
	room := pairing("P1", 1, 2)
	room.Category = "policy"
	generalist := judge(1, models.TierExpert)
	specialist := judge(2, models.TierExpert)
	specialist.Specializations = []string{"policy"}

	p, err := Allocate(input([]*models.Pairing{room}, []models.Judge{generalist, specialist}, nil, nil))
	require.NoError(t, err)
	assert.Equal(t, []int{2}, assigned(p)["P1"])
	assert.False(t, p.Assignments[0].Conflict)

	// With only the generalist left the seat is filled and flagged.
	p, err = Allocate(input([]*models.Pairing{room}, []models.Judge{generalist}, nil, nil))
	require.NoError(t, err)
	require.Len(t, p.Assignments, 1)
	a := p.Assignments[0]
	assert.Equal(t, 1, a.JudgeID)
	assert.True(t, a.Conflict)
	assert.Equal(t, []string{"does not specialize in policy"}, a.Reasons)
	assert.Equal(t, 1, p.Summary.ConflictCount)
}

func TestAllocate_RejectsBadInput(t *testing.T) {
	in := input([]*models.Pairing{pairing("P1", 1, 2), pairing("P1", 3, 4)}, nil, nil, nil)
	_, err := Allocate(in)
	assert.ErrorIs(t, err, ErrDuplicatePairing)

	in = input(nil, []models.Judge{judge(1, models.TierNovice), judge(1, models.TierNovice)}, nil, nil)
	_, err = Allocate(in)
	assert.ErrorIs(t, err, ErrDuplicateJudge)

	in = input(nil, nil, nil, nil)
	in.Settings.JudgesPerRoom = 0
	_, err = Allocate(in)
	assert.ErrorIs(t, err, models.ErrInvalidSettings)
}
