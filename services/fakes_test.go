package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tabroom/models"
	"github.com/Dosada05/tabroom/repositories"
	"github.com/Dosada05/tabroom/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTx struct{}

func (fakeTx) WithinTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

type memoryTeams struct {
	mu     sync.Mutex
	nextID int
	teams  map[int]models.Team
}

func newMemoryTeams(teams ...models.Team) *memoryTeams {
	m := &memoryTeams{teams: make(map[int]models.Team)}
	for _, t := range teams {
		m.teams[t.ID] = t
		if t.ID > m.nextID {
			m.nextID = t.ID
		}
	}
	return m
}

func (m *memoryTeams) Create(_ context.Context, _ repositories.SQLExecutor, team *models.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.teams {
		if t.TournamentID == team.TournamentID && t.Name == team.Name {
			return repositories.ErrTeamNameConflict
		}
	}
	m.nextID++
	team.ID = m.nextID
	m.teams[team.ID] = *team
	return nil
}

func (m *memoryTeams) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return &t, nil
}

func (m *memoryTeams) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Team, 0, len(m.teams))
	for _, t := range m.teams {
		if t.TournamentID == tournamentID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryTeams) SetActive(_ context.Context, _ repositories.SQLExecutor, id int, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[id]
	if !ok {
		return repositories.ErrTeamNotFound
	}
	t.Active = active
	m.teams[id] = t
	return nil
}

func (m *memoryTeams) ApplyDeltas(_ context.Context, _ repositories.SQLExecutor, deltas []models.TeamDelta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range deltas {
		t, ok := m.teams[d.TeamID]
		if !ok {
			return repositories.ErrTeamNotFound
		}
		m.teams[d.TeamID] = d.Apply(t)
	}
	return nil
}

func (m *memoryTeams) UpdateRecords(_ context.Context, _ repositories.SQLExecutor, standings []models.Standing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range standings {
		t, ok := m.teams[s.TeamID]
		if !ok {
			return repositories.ErrTeamNotFound
		}
		t.Wins, t.Losses, t.SpeakerTotal = s.Wins, s.Losses, s.TotalSpeaks
		m.teams[s.TeamID] = t
	}
	return nil
}

func (m *memoryTeams) get(id int) models.Team {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.teams[id]
}

type memoryJudges struct {
	mu     sync.Mutex
	judges []models.Judge
}

func (m *memoryJudges) Create(_ context.Context, _ repositories.SQLExecutor, judge *models.Judge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	judge.ID = len(m.judges) + 1
	m.judges = append(m.judges, *judge)
	return nil
}

func (m *memoryJudges) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.Judge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Judge, 0, len(m.judges))
	for _, j := range m.judges {
		if j.TournamentID == tournamentID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *memoryJudges) UpdateAvailability(_ context.Context, _ repositories.SQLExecutor, id int, availability models.Availability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.judges {
		if m.judges[i].ID == id {
			m.judges[i].Availability = availability
			return nil
		}
	}
	return repositories.ErrJudgeNotFound
}

type memoryConflicts struct {
	mu      sync.Mutex
	records []models.ConflictRecord
}

func (m *memoryConflicts) Create(_ context.Context, _ repositories.SQLExecutor, record *models.ConflictRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.TournamentID == record.TournamentID && r.Kind == record.Kind &&
			r.SubjectID == record.SubjectID && r.ObjectID == record.ObjectID {
			return repositories.ErrConflictDuplicate
		}
	}
	record.ID = len(m.records) + 1
	m.records = append(m.records, *record)
	return nil
}

func (m *memoryConflicts) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]models.ConflictRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ConflictRecord, 0, len(m.records))
	for _, r := range m.records {
		if r.TournamentID == tournamentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryConflicts) Delete(_ context.Context, _ repositories.SQLExecutor, tournamentID, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.records {
		if r.ID == id && r.TournamentID == tournamentID {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return repositories.ErrConflictNotFound
}

type memoryPairings struct {
	mu       sync.Mutex
	nextID   int
	pairings []*models.Pairing
}

func clonePairing(p *models.Pairing) *models.Pairing {
	c := *p
	c.JudgeIDs = append([]int(nil), p.JudgeIDs...)
	c.Flags = append([]models.PairingFlag(nil), p.Flags...)
	if p.Result != nil {
		r := *p.Result
		c.Result = &r
	}
	return &c
}

func (m *memoryPairings) CreateBatch(_ context.Context, _ repositories.SQLExecutor, tournamentID int, pairings []*models.Pairing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range pairings {
		for _, existing := range m.pairings {
			if existing.TournamentID == tournamentID && existing.Stage == p.Stage && existing.UID == p.UID {
				return repositories.ErrPairingUIDConflict
			}
		}
	}
	for _, p := range pairings {
		m.nextID++
		p.ID = m.nextID
		p.TournamentID = tournamentID
		m.pairings = append(m.pairings, clonePairing(p))
	}
	return nil
}

func (m *memoryPairings) GetByUID(_ context.Context, _ repositories.SQLExecutor, tournamentID int, stage models.Stage, uid string) (*models.Pairing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.pairings {
		if p.TournamentID == tournamentID && p.Stage == stage && p.UID == uid {
			return clonePairing(p), nil
		}
	}
	return nil, repositories.ErrPairingNotFound
}

func (m *memoryPairings) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int, filter repositories.PairingFilter) ([]*models.Pairing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Pairing, 0)
	for _, p := range m.pairings {
		if p.TournamentID != tournamentID {
			continue
		}
		if filter.Stage != nil && p.Stage != *filter.Stage {
			continue
		}
		if filter.Round != nil && p.Round != *filter.Round {
			continue
		}
		out = append(out, clonePairing(p))
	}
	return out, nil
}

func (m *memoryPairings) CountByRound(_ context.Context, _ repositories.SQLExecutor, tournamentID int, stage models.Stage, round int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.pairings {
		if p.TournamentID == tournamentID && p.Stage == stage && p.Round == round {
			n++
		}
	}
	return n, nil
}

func (m *memoryPairings) CountByStage(_ context.Context, _ repositories.SQLExecutor, tournamentID int, stage models.Stage) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.pairings {
		if p.TournamentID == tournamentID && p.Stage == stage {
			n++
		}
	}
	return n, nil
}

func (m *memoryPairings) byID(id int) *models.Pairing {
	for _, p := range m.pairings {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (m *memoryPairings) UpdateAssignment(_ context.Context, _ repositories.SQLExecutor, id int, judgeIDs []int, scheduledAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.byID(id)
	if p == nil {
		return repositories.ErrPairingNotFound
	}
	p.JudgeIDs = append([]int(nil), judgeIDs...)
	if scheduledAt != nil {
		at := *scheduledAt
		p.ScheduledAt = &at
	}
	return nil
}

func (m *memoryPairings) UpdateTeams(_ context.Context, _ repositories.SQLExecutor, pairing *models.Pairing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.byID(pairing.ID)
	if p == nil {
		return repositories.ErrPairingNotFound
	}
	p.Affirmative, p.Negative = pairing.Affirmative, pairing.Negative
	p.AffSeed, p.NegSeed = pairing.AffSeed, pairing.NegSeed
	return nil
}

func (m *memoryPairings) RecordResult(_ context.Context, _ repositories.SQLExecutor, id int, result *models.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.byID(id)
	if p == nil {
		return repositories.ErrPairingNotFound
	}
	r := *result
	p.Result = &r
	p.Status = models.PairingCompleted
	return nil
}

type memorySettings struct {
	mu       sync.Mutex
	settings map[int]models.TabulationSettings
}

func (m *memorySettings) Get(_ context.Context, _ repositories.SQLExecutor, tournamentID int) (models.TabulationSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.settings[tournamentID]; ok {
		return s, nil
	}
	return models.DefaultSettings(), nil
}

func (m *memorySettings) Save(_ context.Context, _ repositories.SQLExecutor, tournamentID int, settings models.TabulationSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settings == nil {
		m.settings = make(map[int]models.TabulationSettings)
	}
	m.settings[tournamentID] = settings
	return nil
}

type publishedEvent struct {
	tournamentID int
	eventType    string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(tournamentID int, eventType string, _ interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{tournamentID, eventType})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.eventType
	}
	return out
}

type recordingArchiver struct {
	mu    sync.Mutex
	kinds []storage.SnapshotKind
	err   error
}

func (a *recordingArchiver) Archive(_ context.Context, _ int, kind storage.SnapshotKind, name string, _ any) (*storage.UploadResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	a.kinds = append(a.kinds, kind)
	return &storage.UploadResult{Key: string(kind) + "/" + name}, nil
}
