// File: models/roster.go
package models

import "sort"

// PairKey is the canonical unordered key of two teams.
type PairKey struct {
	Low  int
	High int
}

func NewPairKey(a, b int) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{Low: a, High: b}
}

// ByeOpponent marks a history entry or pairing slot without an opponent.
const ByeOpponent = 0

type HistoryEntry struct {
	TeamA int `json:"team_a" db:"team_a_id"`
	TeamB int `json:"team_b" db:"team_b_id"`
	Round int `json:"round" db:"round"`
}

// History is an append-only log of who met whom, indexed for O(1) rematch lookups.
type History struct {
	entries  []HistoryEntry
	meetings map[PairKey]int
	byes     map[int]int
}

func NewHistory(entries []HistoryEntry) *History {
	h := &History{
		meetings: make(map[PairKey]int, len(entries)),
		byes:     make(map[int]int),
	}
	for _, e := range entries {
		h.Append(e)
	}
	return h
}

func (h *History) Append(e HistoryEntry) {
	h.entries = append(h.entries, e)
	switch {
	case e.TeamB == ByeOpponent:
		h.byes[e.TeamA]++
	case e.TeamA == ByeOpponent:
		h.byes[e.TeamB]++
	default:
		h.meetings[NewPairKey(e.TeamA, e.TeamB)]++
	}
}

// Meetings returns how many times a and b have been paired, regardless of side.
func (h *History) Meetings(a, b int) int {
	if h == nil {
		return 0
	}
	return h.meetings[NewPairKey(a, b)]
}

func (h *History) Byes(teamID int) int {
	if h == nil {
		return 0
	}
	return h.byes[teamID]
}

func (h *History) Entries() []HistoryEntry {
	if h == nil {
		return nil
	}
	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

// Roster is the immutable working set the draw and the standings read from.
type Roster struct {
	teams []Team
	index map[int]int
}

func NewRoster(teams []Team) *Roster {
	r := &Roster{
		teams: make([]Team, len(teams)),
		index: make(map[int]int, len(teams)),
	}
	copy(r.teams, teams)
	sort.Slice(r.teams, func(i, j int) bool { return r.teams[i].ID < r.teams[j].ID })
	for i, t := range r.teams {
		r.index[t.ID] = i
	}
	return r
}

func (r *Roster) Team(id int) (Team, bool) {
	i, ok := r.index[id]
	if !ok {
		return Team{}, false
	}
	return r.teams[i], true
}

// Teams returns every team ordered by id, withdrawn ones included.
func (r *Roster) Teams() []Team {
	out := make([]Team, len(r.teams))
	copy(out, r.teams)
	return out
}

// Active returns the non-withdrawn teams ordered by id.
func (r *Roster) Active() []Team {
	out := make([]Team, 0, len(r.teams))
	for _, t := range r.teams {
		if t.Active {
			out = append(out, t)
		}
	}
	return out
}

func (r *Roster) Len() int {
	return len(r.teams)
}
