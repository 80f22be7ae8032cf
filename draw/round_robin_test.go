package draw

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tabroom/models"
)

func TestRoundRobin_MeetsEveryOpponentOncePerCycle(t *testing.T) {
	for _, n := range []int{4, 5, 6, 7} {
		teams := make([]models.Team, n)
		for i := range teams {
			teams[i] = team(i+1, 0)
		}
		s := withMethod(models.DrawRoundRobin)
		history := models.NewHistory(nil)
		slots := n + n%2
		byes := make(map[int]int)

		for round := 1; round < slots; round++ {
			p := params(round, teams, s)
			p.History = history
			d, err := GenerateRound(context.Background(), p)
			require.NoError(t, err, "n=%d round=%d", n, round)
			for _, pairing := range d.Pairings {
				for _, e := range pairing.HistoryEntries() {
					history.Append(e)
				}
				if pairing.IsBye() {
					byes[*pairing.Affirmative]++
				}
			}
		}

		for a := 1; a <= n; a++ {
			for b := a + 1; b <= n; b++ {
				assert.Equal(t, 1, history.Meetings(a, b), "n=%d teams %d and %d", n, a, b)
			}
		}
		if n%2 == 1 {
			assert.Len(t, byes, n)
		} else {
			assert.Empty(t, byes)
		}
	}
}

func TestRoundRobin_ReplacesConflictedRotationPair(t *testing.T) {
	teams := []models.Team{team(1, 0), team(2, 0), team(3, 0), team(4, 0)}
	p := params(1, teams, withMethod(models.DrawRoundRobin))
	p.Conflicts = models.NewConflictSet([]models.Conflict{models.TeamConflict{TeamA: 1, TeamB: 2}})

	d, err := GenerateRound(context.Background(), p)
	require.NoError(t, err)
	assert.False(t, pairedWith(d, 1, 2))
	assert.Len(t, d.Pairings, 2)
}

func TestCirclePairs(t *testing.T) {
	assert.Equal(t, "[{0 1} {2 3}]", fmtPairs(circlePairs(4, 1)))
	assert.Equal(t, "[{0 2} {3 1}]", fmtPairs(circlePairs(4, 2)))
	assert.Equal(t, "[{0 3} {1 2}]", fmtPairs(circlePairs(4, 3)))
	assert.Equal(t, circlePairs(4, 1), circlePairs(4, 4))
}
