package allocation

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tabroom/models"
)

func commitFixture(t *testing.T) (Input, *Proposal) {
	t.Helper()
	teams := []models.Team{
		{ID: 1, InstitutionID: intPtr(10), Active: true},
		{ID: 2, InstitutionID: intPtr(11), Active: true},
		{ID: 3, InstitutionID: intPtr(12), Active: true},
		{ID: 4, InstitutionID: intPtr(13), Active: true},
	}
	pairings := []*models.Pairing{pairing("P1", 1, 2), pairing("P2", 3, 4)}
	judges := []models.Judge{judge(1, models.TierExpert), judge(2, models.TierExpert), judge(3, models.TierNovice)}
	conflicts := []models.Conflict{models.JudgeTeamConflict{JudgeID: 3, TeamID: 4}}

	in := input(pairings, judges, teams, conflicts)
	p, err := Allocate(in)
	require.NoError(t, err)
	return in, p
}

func TestCommit_AppliesProposalAsIs(t *testing.T) {
	in, p := commitFixture(t)

	out, err := Commit(in, p, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)

	got := assigned(p)
	assert.Equal(t, got["P1"], out[0].JudgeIDs)
	assert.Equal(t, got["P2"], out[1].JudgeIDs)
	assert.Empty(t, in.Pairings[0].JudgeIDs, "input pairings stay untouched")
}

func TestCommit_OverrideEditsOnlyItsSlot(t *testing.T) {
	in, p := commitFixture(t)
	got := assigned(p)

	// Empty P2's seat, then give its judge to P1. P2 is not re-solved.
	moved := got["P2"][0]
	out, err := Commit(in, p, []Override{
		{PairingUID: "P2", Position: 0, JudgeID: 0},
		{PairingUID: "P1", Position: 0, JudgeID: moved},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{moved}, out[0].JudgeIDs)
	assert.Empty(t, out[1].JudgeIDs)
}

func TestCommit_RejectsHardConflictOverride(t *testing.T) {
	in, p := commitFixture(t)

	_, err := Commit(in, p, []Override{{PairingUID: "P2", Position: 0, JudgeID: 3}})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInfeasible)

	var infeasible *models.InfeasibleError
	require.True(t, errors.As(err, &infeasible))
	assert.Equal(t, []int{3}, infeasible.Judges)
	assert.Equal(t, []models.Conflict{models.JudgeTeamConflict{JudgeID: 3, TeamID: 4}}, infeasible.Rules)
}

func TestCommit_RejectsDoubleBooking(t *testing.T) {
	in, p := commitFixture(t)
	got := assigned(p)

	judgeID := got["P1"][0]
	for i := 0; i < 20; i++ {
		_, err := Commit(in, p, []Override{{PairingUID: "P2", Position: 0, JudgeID: judgeID}})
		require.ErrorIs(t, err, ErrDoubleBooked)
		assert.EqualError(t, err, fmt.Sprintf("%s: judge %d in P1 seat 0 and P2 seat 0", ErrDoubleBooked, judgeID))
	}
}

func TestCommit_StampsScheduledTime(t *testing.T) {
	in, p := commitFixture(t)
	at := time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC)
	own := time.Date(2026, 3, 7, 16, 0, 0, 0, time.UTC)
	in.Pairings[1].ScheduledAt = &own
	in.ScheduledAt = &at

	out, err := Commit(in, p, nil)
	require.NoError(t, err)
	require.NotNil(t, out[0].ScheduledAt)
	assert.True(t, at.Equal(*out[0].ScheduledAt))
	assert.True(t, own.Equal(*out[1].ScheduledAt))
	assert.Nil(t, in.Pairings[0].ScheduledAt, "input pairings stay untouched")
}

func TestCommit_RejectsUnknownTargets(t *testing.T) {
	in, p := commitFixture(t)

	_, err := Commit(in, p, []Override{{PairingUID: "P9", Position: 0, JudgeID: 1}})
	assert.ErrorIs(t, err, ErrUnknownSlot)

	_, err = Commit(in, p, []Override{{PairingUID: "P1", Position: 1, JudgeID: 1}})
	assert.ErrorIs(t, err, ErrUnknownSlot)

	_, err = Commit(in, p, []Override{{PairingUID: "P1", Position: 0, JudgeID: 99}})
	assert.ErrorIs(t, err, ErrUnknownJudge)

	stale := *p
	stale.Round = 2
	_, err = Commit(in, &stale, nil)
	assert.ErrorIs(t, err, ErrStaleProposal)
}
