package services

import (
	"sync"
	"time"

	"github.com/Dosada05/tabroom/allocation"
	"github.com/Dosada05/tabroom/models"
)

const defaultProposalTTL = 2 * time.Hour

type storedProposal struct {
	key         roundKey
	scheduledAt *time.Time
	proposal    *allocation.Proposal
	storedAt    time.Time
}

// proposalStore keeps uncommitted allocation proposals in memory. Proposals
// are lost on restart; the operator simply proposes again.
type proposalStore struct {
	mu    sync.Mutex
	byID  map[string]*storedProposal
	ttl   time.Duration
	clock func() time.Time
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		byID:  make(map[string]*storedProposal),
		ttl:   ttl,
		clock: time.Now,
	}
}

func (s *proposalStore) put(key roundKey, scheduledAt *time.Time, p *allocation.Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	s.byID[p.ID] = &storedProposal{key: key, scheduledAt: scheduledAt, proposal: p, storedAt: s.clock()}
}

func (s *proposalStore) get(id string, key roundKey) (*storedProposal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictLocked()
	sp, ok := s.byID[id]
	if !ok || sp.key != key {
		return nil, false
	}
	return sp, true
}

// dropRound forgets every proposal made for the round; they are stale once
// one of them is committed.
func (s *proposalStore) dropRound(key roundKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sp := range s.byID {
		if sp.key == key {
			delete(s.byID, id)
		}
	}
}

func (s *proposalStore) evictLocked() {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.clock().Add(-s.ttl)
	for id, sp := range s.byID {
		if sp.storedAt.Before(cutoff) {
			delete(s.byID, id)
		}
	}
}

func exactKey(tournamentID int, stage models.Stage, round int) roundKey {
	return roundKey{tournamentID: tournamentID, stage: stage, round: round}
}

// lockKey serializes a whole bracket, and each preliminary round on its own.
func lockKey(tournamentID int, stage models.Stage, round int) roundKey {
	if stage == models.StageElimination {
		round = 0
	}
	return roundKey{tournamentID: tournamentID, stage: stage, round: round}
}
