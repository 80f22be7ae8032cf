package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tabroom/models"
)

func newRoster() (RosterService, *memoryTeams, *memoryConflicts) {
	teams := newMemoryTeams()
	conflicts := &memoryConflicts{}
	return NewRosterService(teams, &memoryJudges{}, conflicts, discardLogger()), teams, conflicts
}

func TestRoster_AddTeam(t *testing.T) {
	svc, teams, _ := newRoster()
	ctx := context.Background()
	inst := 4

	team, err := svc.AddTeam(ctx, tournament, models.Team{Name: "  Harbor A ", InstitutionID: &inst, Wins: 9})
	require.NoError(t, err)
	assert.Equal(t, "Harbor A", team.Name)
	assert.True(t, team.Active)
	assert.Zero(t, team.Wins, "counters are never taken from input")
	assert.Equal(t, team.ID, teams.get(team.ID).ID)

	_, err = svc.AddTeam(ctx, tournament, models.Team{Name: "Harbor A"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = svc.AddTeam(ctx, tournament, models.Team{Name: " "})
	assert.ErrorIs(t, err, ErrValidationFailed)

	side := models.Side("proposition")
	_, err = svc.AddTeam(ctx, tournament, models.Team{Name: "Harbor B", PreAllocatedSide: &side})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestRoster_WithdrawKeepsTeam(t *testing.T) {
	svc, _, _ := newRoster()
	ctx := context.Background()

	team, err := svc.AddTeam(ctx, tournament, models.Team{Name: "Delta"})
	require.NoError(t, err)

	withdrawn, err := svc.SetTeamActive(ctx, tournament, team.ID, false)
	require.NoError(t, err)
	assert.False(t, withdrawn.Active)

	listed, err := svc.ListTeams(ctx, tournament)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.False(t, listed[0].Active)

	_, err = svc.SetTeamActive(ctx, tournament+1, team.ID, false)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.SetTeamActive(ctx, tournament, 999, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRoster_AddJudge(t *testing.T) {
	svc, _, _ := newRoster()
	ctx := context.Background()

	judge, err := svc.AddJudge(ctx, tournament, models.Judge{
		Name: "Ada",
		Tier: models.TierExpert,
		Availability: models.Availability{Dates: map[string][]models.TimeOfDay{
			"2026-04-11": {models.TimeMorning},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, tournament, judge.TournamentID)
	assert.Positive(t, judge.ID)

	_, err = svc.AddJudge(ctx, tournament, models.Judge{
		Name:         "Bo",
		Availability: models.Availability{Dates: map[string][]models.TimeOfDay{"11/04/2026": nil}},
	})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.AddJudge(ctx, tournament, models.Judge{Name: "Cy", MaxRoundsPerDay: -1})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestRoster_Conflicts(t *testing.T) {
	svc, _, conflicts := newRoster()
	ctx := context.Background()

	rec, err := svc.AddConflict(ctx, tournament, models.ConflictRecord{Kind: models.ConflictJudgeTeam, SubjectID: 3, ObjectID: 8})
	require.NoError(t, err)
	assert.Equal(t, tournament, rec.TournamentID)

	_, err = svc.AddConflict(ctx, tournament, models.ConflictRecord{Kind: models.ConflictJudgeTeam, SubjectID: 3, ObjectID: 8})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = svc.AddConflict(ctx, tournament, models.ConflictRecord{Kind: "judge_judge", SubjectID: 1, ObjectID: 2})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.AddConflict(ctx, tournament, models.ConflictRecord{Kind: models.ConflictTeamTeam, SubjectID: 5, ObjectID: 5})
	assert.ErrorIs(t, err, ErrValidationFailed)

	listed, err := svc.ListConflicts(ctx, tournament)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	require.NoError(t, svc.RemoveConflict(ctx, tournament, rec.ID))
	assert.Empty(t, conflicts.records)
	assert.ErrorIs(t, svc.RemoveConflict(ctx, tournament, rec.ID), ErrNotFound)
}

func TestRoster_UpdateJudgeAvailability(t *testing.T) {
	judges := &memoryJudges{}
	svc := NewRosterService(newMemoryTeams(), judges, &memoryConflicts{}, discardLogger())
	ctx := context.Background()

	judge, err := svc.AddJudge(ctx, tournament, models.Judge{Name: "Okafor", Tier: models.TierExpert})
	require.NoError(t, err)

	availability := models.Availability{Dates: map[string][]models.TimeOfDay{
		"2026-03-14": {models.TimeMorning},
	}}
	updated, err := svc.UpdateJudgeAvailability(ctx, tournament, judge.ID, availability)
	require.NoError(t, err)
	assert.True(t, updated.Availability.AvailableOn("2026-03-14"))
	assert.False(t, updated.Availability.AvailableOn("2026-03-15"))

	listed, err := svc.ListJudges(ctx, tournament)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, availability, listed[0].Availability)

	_, err = svc.UpdateJudgeAvailability(ctx, tournament+1, judge.ID, availability)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.UpdateJudgeAvailability(ctx, tournament, judge.ID, models.Availability{Dates: map[string][]models.TimeOfDay{
		"2026-03-14": {"midnight"},
	}})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.UpdateJudgeAvailability(ctx, tournament, judge.ID, models.Availability{Dates: map[string][]models.TimeOfDay{
		"14/03/2026": nil,
	}})
	assert.ErrorIs(t, err, ErrValidationFailed)
}
