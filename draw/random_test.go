package draw

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tabroom/matching"
	"github.com/Dosada05/tabroom/models"
)

func fmtPairs(pairs []matching.Pair) string {
	return fmt.Sprint(pairs)
}

func TestRandom_ReproducibleFromSeed(t *testing.T) {
	teams := field(12)
	s := withMethod(models.DrawRandom)

	first, err := GenerateRound(context.Background(), params(1, teams, s))
	require.NoError(t, err)
	again, err := GenerateRound(context.Background(), params(1, teams, s))
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, models.DrawRandom, first.Method)
}

func TestRandom_AvoidsRematches(t *testing.T) {
	teams := field(6)
	s := withMethod(models.DrawRandom)
	history := models.NewHistory(nil)

	for round := 1; round <= 3; round++ {
		p := params(round, teams, s)
		p.History = history
		d, err := GenerateRound(context.Background(), p)
		require.NoError(t, err, "round %d", round)
		for _, pairing := range d.Pairings {
			require.Equal(t, 0, history.Meetings(*pairing.Affirmative, *pairing.Negative))
		}
		for _, pairing := range d.Pairings {
			for _, e := range pairing.HistoryEntries() {
				history.Append(e)
			}
		}
	}
}
