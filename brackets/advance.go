package brackets

import (
	"errors"
	"fmt"

	"github.com/Dosada05/tabroom/models"
)

var (
	ErrPairingNotFound = errors.New("bracket pairing not found")
	ErrNotParticipant  = errors.New("winner did not play in the pairing")
	ErrSlotTaken       = errors.New("next pairing slot already filled")
)

// Advance places the winner of a completed elimination pairing into the slot
// of the pairing it feeds and returns that pairing, or nil after the final.
// The higher seed of the next pairing takes the affirmative once both teams
// are known.
func Advance(pairings []*models.Pairing, uid string, winnerID int) (*models.Pairing, error) {
	byUID := make(map[string]*models.Pairing, len(pairings))
	for _, p := range pairings {
		byUID[p.UID] = p
	}
	done, ok := byUID[uid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPairingNotFound, uid)
	}

	var seed *int
	switch {
	case done.Affirmative != nil && *done.Affirmative == winnerID:
		seed = done.AffSeed
	case done.Negative != nil && *done.Negative == winnerID:
		seed = done.NegSeed
	default:
		return nil, fmt.Errorf("%w: team %d in %s", ErrNotParticipant, winnerID, uid)
	}
	if done.AdvancesTo == nil {
		return nil, nil
	}
	next, ok := byUID[*done.AdvancesTo]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPairingNotFound, *done.AdvancesTo)
	}

	team := winnerID
	if done.AdvancesToSlot == 1 {
		if next.Affirmative != nil {
			return nil, fmt.Errorf("%w: %s slot 1", ErrSlotTaken, next.UID)
		}
		next.Affirmative, next.AffSeed = &team, seed
	} else {
		if next.Negative != nil {
			return nil, fmt.Errorf("%w: %s slot 2", ErrSlotTaken, next.UID)
		}
		next.Negative, next.NegSeed = &team, seed
	}

	if next.Affirmative != nil && next.Negative != nil &&
		next.AffSeed != nil && next.NegSeed != nil && *next.NegSeed < *next.AffSeed {
		next.Affirmative, next.Negative = next.Negative, next.Affirmative
		next.AffSeed, next.NegSeed = next.NegSeed, next.AffSeed
	}
	return next, nil
}
