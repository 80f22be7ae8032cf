package standings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tabroom/models"
)

func activeTeams(ids ...int) []models.Team {
	teams := make([]models.Team, len(ids))
	for i, id := range ids {
		teams[i] = models.Team{ID: id, Active: true}
	}
	return teams
}

func result(round, aff, neg, winner int, affSpeaks, negSpeaks float64) *models.Pairing {
	return &models.Pairing{
		UID:         "r",
		Round:       round,
		Stage:       models.StagePreliminary,
		Affirmative: &aff,
		Negative:    &neg,
		Status:      models.PairingCompleted,
		Result: &models.Result{
			WinnerID:  winner,
			AffScores: []float64{affSpeaks / 2, affSpeaks / 2},
			NegScores: []float64{negSpeaks / 2, negSpeaks / 2},
		},
	}
}

func bye(round, team int) *models.Pairing {
	return &models.Pairing{
		Round:       round,
		Stage:       models.StagePreliminary,
		Affirmative: &team,
		Status:      models.PairingBye,
		Flags:       []models.PairingFlag{models.FlagBye},
	}
}

func order(s []models.Standing) []int {
	return BreakSeeds(s)
}

func ranks(s []models.Standing) []int {
	out := make([]int, len(s))
	for i, x := range s {
		out[i] = x.Rank
	}
	return out
}

func TestCompute_EmptyResultsTieEveryTeamByID(t *testing.T) {
	got := Compute(activeTeams(4, 2, 3, 1), nil, Options{})

	assert.Equal(t, []int{1, 2, 3, 4}, order(got))
	assert.Equal(t, []int{1, 1, 1, 1}, ranks(got))
}

func TestCompute_WinsThenSpeaks(t *testing.T) {
	pairings := []*models.Pairing{
		result(1, 1, 2, 1, 150, 148),
		result(1, 3, 4, 4, 151, 152),
		result(2, 1, 4, 1, 149, 150),
		result(2, 2, 3, 3, 150, 153),
	}
	got := Compute(activeTeams(1, 2, 3, 4), pairings, Options{})

	// 1: 2-0. 3 and 4 are 1-1 with 304 and 302 speaks. 2 is 0-2.
	assert.Equal(t, []int{1, 3, 4, 2}, order(got))
	assert.Equal(t, []int{1, 2, 3, 4}, ranks(got))
	assert.Equal(t, 2, got[0].Wins)
	assert.Equal(t, 0, got[0].Losses)
	assert.InDelta(t, 299.0, got[0].TotalSpeaks, 1e-9)
	assert.InDelta(t, 149.5, got[0].AverageSpeaks, 1e-9)
}

func TestCompute_FullTiesShareRankOrderedByID(t *testing.T) {
	// 1 and 3 both go 1-1 on 300 speaks; 1 faced stronger opposition.
	pairings := []*models.Pairing{
		result(1, 1, 2, 2, 150, 150),
		result(1, 3, 4, 3, 150, 150),
		result(2, 1, 4, 1, 150, 150),
		result(2, 3, 2, 2, 150, 150),
	}
	got := Compute(activeTeams(1, 2, 3, 4), pairings, Options{})

	require.Len(t, got, 4)
	assert.Equal(t, 2, got[0].TeamID)
	var one, three models.Standing
	for _, s := range got {
		switch s.TeamID {
		case 1:
			one = s
		case 3:
			three = s
		}
	}
	// Team 1 met 2 (2-0) and 4 (0-2); team 3 met 4 (0-2) and 2 (2-0).
	assert.InDelta(t, 0.5, one.OpponentWinPct, 1e-9)
	assert.InDelta(t, 0.5, three.OpponentWinPct, 1e-9)
	assert.Equal(t, one.Rank, three.Rank)
	assert.Less(t, indexOf(got, 1), indexOf(got, 3))
}

func indexOf(s []models.Standing, id int) int {
	for i, x := range s {
		if x.TeamID == id {
			return i
		}
	}
	return -1
}

func TestCompute_OpponentStrengthOrdersEqualRecords(t *testing.T) {
	pairings := []*models.Pairing{
		result(1, 1, 2, 1, 150, 150),
		result(1, 3, 4, 3, 150, 150),
		result(2, 2, 4, 2, 150, 150),
	}
	// 1 and 3: 1-0 on 150. 1 beat team 2 (1-1), 3 beat team 4 (0-2).
	got := Compute(activeTeams(1, 2, 3, 4), pairings, Options{})
	// 2 leads on speaks; 1 edges 3 on opponent win percentage.
	assert.Equal(t, []int{2, 1, 3, 4}, order(got))
	assert.Equal(t, []int{1, 2, 3, 4}, ranks(got))
}

func TestCompute_ByeCountsAsWin(t *testing.T) {
	pairings := []*models.Pairing{
		result(1, 1, 2, 1, 150, 140),
		bye(1, 3),
		result(2, 3, 1, 3, 160, 150),
		bye(2, 2),
	}

	avg := Compute(activeTeams(1, 2, 3), pairings, Options{ByeSpeaks: models.ByeSpeaksAverage})
	three := avg[indexOf(avg, 3)]
	assert.Equal(t, 2, three.Wins)
	assert.Equal(t, 2, three.Rounds)
	assert.InDelta(t, 320.0, three.TotalSpeaks, 1e-9)
	assert.Equal(t, 3, avg[0].TeamID)

	zero := Compute(activeTeams(1, 2, 3), pairings, Options{ByeSpeaks: models.ByeSpeaksZero})
	assert.InDelta(t, 160.0, zero[indexOf(zero, 3)].TotalSpeaks, 1e-9)
}

func TestCompute_HighLowDropAsFourthKey(t *testing.T) {
	teams := activeTeams(1, 2, 3, 4)
	pairings := []*models.Pairing{
		result(1, 1, 3, 1, 140, 100),
		result(2, 1, 4, 1, 150, 100),
		result(3, 1, 3, 1, 160, 100),
		result(1, 2, 4, 2, 120, 100),
		result(2, 2, 3, 2, 155, 100),
		result(3, 2, 4, 2, 175, 100),
	}
	plain := Compute(teams, pairings, Options{})
	assert.Equal(t, plain[0].Rank, plain[1].Rank)
	assert.Equal(t, []int{1, 2}, order(plain)[:2])

	dropped := Compute(teams, pairings, Options{HighLowDrop: true})
	assert.Equal(t, []int{2, 1}, order(dropped)[:2])
	assert.Equal(t, []int{1, 2}, ranks(dropped)[:2])
	assert.InDelta(t, 155.0, dropped[0].AdjustedSpeaks, 1e-9)
}

func TestCompute_SkipsWithdrawnAndUnfinished(t *testing.T) {
	teams := activeTeams(1, 2, 3)
	teams[1].Active = false
	pending := result(2, 1, 3, 1, 150, 150)
	pending.Status = models.PairingScheduled
	elim := result(3, 1, 3, 3, 150, 150)
	elim.Stage = models.StageElimination

	got := Compute(teams, []*models.Pairing{result(1, 1, 2, 1, 150, 140), pending, elim}, Options{})

	assert.Equal(t, []int{1, 3}, order(got))
	assert.Equal(t, 1, got[0].Wins)
	assert.Equal(t, 1, got[0].Rounds)
	// The withdrawn opponent's record still counts.
	assert.InDelta(t, 0.0, got[0].OpponentWinPct, 1e-9)
}
