package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/tabroom/allocation"
	"github.com/Dosada05/tabroom/brackets"
	"github.com/Dosada05/tabroom/draw"
	"github.com/Dosada05/tabroom/models"
	"github.com/Dosada05/tabroom/repositories"
	"github.com/Dosada05/tabroom/standings"
	"github.com/Dosada05/tabroom/storage"
)

// EventPublisher pushes tab room events to live clients. *brackets.Hub implements it.
type EventPublisher interface {
	Publish(tournamentID int, eventType string, payload interface{})
}

type CommitAllocationParams struct {
	Stage      models.Stage
	Round      int
	ProposalID string
	Overrides  []allocation.Override
}

type ProposeAllocationParams struct {
	Stage       models.Stage
	Round       int
	ScheduledAt *time.Time
}

type TabulationService interface {
	GenerateDraw(ctx context.Context, tournamentID, round int) (*draw.Draw, error)
	ListPairings(ctx context.Context, tournamentID int, stage *models.Stage, round *int) ([]*models.Pairing, error)
	ProposeAllocation(ctx context.Context, tournamentID int, params ProposeAllocationParams) (*allocation.Proposal, error)
	CommitAllocation(ctx context.Context, tournamentID int, params CommitAllocationParams) ([]*models.Pairing, error)
	BuildBracket(ctx context.Context, tournamentID, size int) (*brackets.Bracket, error)
	RecordResult(ctx context.Context, tournamentID int, stage models.Stage, uid string, result models.Result) (*models.Pairing, error)
	Standings(ctx context.Context, tournamentID int) ([]models.Standing, error)
	PublishStandings(ctx context.Context, tournamentID int) ([]models.Standing, error)
	GetSettings(ctx context.Context, tournamentID int) (models.TabulationSettings, error)
	UpdateSettings(ctx context.Context, tournamentID int, settings models.TabulationSettings) (models.TabulationSettings, error)
}

type tabulationService struct {
	tx           repositories.Transactor
	teamRepo     repositories.TeamRepository
	judgeRepo    repositories.JudgeRepository
	conflictRepo repositories.ConflictRepository
	pairingRepo  repositories.PairingRepository
	settingsRepo repositories.SettingsRepository
	publisher    EventPublisher
	archiver     storage.Archiver
	logger       *slog.Logger

	locks     *roundLocks
	proposals *proposalStore
}

func NewTabulationService(
	tx repositories.Transactor,
	teamRepo repositories.TeamRepository,
	judgeRepo repositories.JudgeRepository,
	conflictRepo repositories.ConflictRepository,
	pairingRepo repositories.PairingRepository,
	settingsRepo repositories.SettingsRepository,
	publisher EventPublisher,
	archiver storage.Archiver,
	logger *slog.Logger,
) TabulationService {
	if archiver == nil {
		archiver = storage.NopArchiver()
	}
	return &tabulationService{
		tx:           tx,
		teamRepo:     teamRepo,
		judgeRepo:    judgeRepo,
		conflictRepo: conflictRepo,
		pairingRepo:  pairingRepo,
		settingsRepo: settingsRepo,
		publisher:    publisher,
		archiver:     archiver,
		logger:       logger,
		locks:        newRoundLocks(),
		proposals:    newProposalStore(defaultProposalTTL),
	}
}

// workingSet is everything one engine call reads, loaded before the call.
type workingSet struct {
	settings  models.TabulationSettings
	teams     []models.Team
	judges    []models.Judge
	conflicts *models.ConflictSet
	pairings  []*models.Pairing
}

type loadOptions struct {
	judges    bool
	conflicts bool
}

func (s *tabulationService) loadWorkingSet(ctx context.Context, tournamentID int, opts loadOptions) (*workingSet, error) {
	ws := &workingSet{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		settings, err := s.settingsRepo.Get(gCtx, nil, tournamentID)
		if err != nil {
			return err
		}
		ws.settings = settings
		return nil
	})
	g.Go(func() error {
		teams, err := s.teamRepo.ListByTournament(gCtx, nil, tournamentID)
		if err != nil {
			return err
		}
		ws.teams = teams
		return nil
	})
	g.Go(func() error {
		pairings, err := s.pairingRepo.ListByTournament(gCtx, nil, tournamentID, repositories.PairingFilter{})
		if err != nil {
			return err
		}
		ws.pairings = pairings
		return nil
	})
	if opts.judges {
		g.Go(func() error {
			judges, err := s.judgeRepo.ListByTournament(gCtx, nil, tournamentID)
			if err != nil {
				return err
			}
			ws.judges = judges
			return nil
		})
	}
	if opts.conflicts {
		g.Go(func() error {
			records, err := s.conflictRepo.ListByTournament(gCtx, nil, tournamentID)
			if err != nil {
				return err
			}
			set, err := models.ConflictSetFromRecords(records)
			if err != nil {
				return fmt.Errorf("invalid stored conflict: %w", err)
			}
			ws.conflicts = set
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load working set of tournament %d: %w", tournamentID, err)
	}
	return ws, nil
}

// withLiveRecords replaces the stored win/loss/speaker counters with the
// ones the completed pairings imply, so a draw never ranks on stale records.
func (ws *workingSet) withLiveRecords() []models.Team {
	computed := standings.Compute(ws.teams, ws.pairings, standings.OptionsFrom(ws.settings))
	byID := make(map[int]models.Standing, len(computed))
	for _, st := range computed {
		byID[st.TeamID] = st
	}
	teams := make([]models.Team, len(ws.teams))
	for i, t := range ws.teams {
		if st, ok := byID[t.ID]; ok {
			t.Wins, t.Losses, t.SpeakerTotal = st.Wins, st.Losses, st.TotalSpeaks
		}
		teams[i] = t
	}
	return teams
}

// history is built from the preliminary pairings of the rounds before round.
func (ws *workingSet) history(round int) *models.History {
	entries := make([]models.HistoryEntry, 0, len(ws.pairings))
	for _, p := range ws.pairings {
		if p.Stage == models.StagePreliminary && p.Round < round {
			entries = append(entries, p.HistoryEntries()...)
		}
	}
	return models.NewHistory(entries)
}

func (ws *workingSet) round(stage models.Stage, round int) []*models.Pairing {
	out := make([]*models.Pairing, 0)
	for _, p := range ws.pairings {
		if p.Stage == stage && p.Round == round {
			out = append(out, p)
		}
	}
	return out
}

func (ws *workingSet) stage(stage models.Stage) []*models.Pairing {
	out := make([]*models.Pairing, 0)
	for _, p := range ws.pairings {
		if p.Stage == stage {
			out = append(out, p)
		}
	}
	return out
}

func (s *tabulationService) GenerateDraw(ctx context.Context, tournamentID, round int) (*draw.Draw, error) {
	if round < 1 {
		return nil, fmt.Errorf("%w: round must be positive, got %d", ErrValidationFailed, round)
	}
	unlock := s.locks.lock(lockKey(tournamentID, models.StagePreliminary, round))
	defer unlock()

	if err := s.ensureDrawable(ctx, nil, tournamentID, round); err != nil {
		return nil, err
	}

	ws, err := s.loadWorkingSet(ctx, tournamentID, loadOptions{conflicts: true})
	if err != nil {
		return nil, err
	}

	d, err := draw.GenerateRound(ctx, draw.Params{
		Round:     round,
		Roster:    models.NewRoster(ws.withLiveRecords()),
		History:   ws.history(round),
		Conflicts: ws.conflicts,
		Settings:  ws.settings,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "draw generation failed",
			slog.Int("tournament_id", tournamentID), slog.Int("round", round), slog.Any("error", err))
		return nil, fmt.Errorf("generate round %d: %w", round, err)
	}
	if d.Empty {
		return d, nil
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.ensureDrawable(ctx, exec, tournamentID, round); err != nil {
			return err
		}
		if err := s.pairingRepo.CreateBatch(ctx, exec, tournamentID, d.Pairings); err != nil {
			if errors.Is(err, repositories.ErrPairingUIDConflict) {
				return fmt.Errorf("%w: round %d was drawn concurrently", models.ErrPreconditionViolated, round)
			}
			return handleRepositoryError(err, "save pairings")
		}
		return handleRepositoryError(s.teamRepo.ApplyDeltas(ctx, exec, d.Deltas), "apply team deltas")
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "draw released",
		slog.Int("tournament_id", tournamentID),
		slog.Int("round", round),
		slog.String("method", string(d.Method)),
		slog.Int("pairings", len(d.Pairings)),
		slog.Int("warnings", len(d.Warnings)))
	s.release(ctx, tournamentID, brackets.EventDrawReleased, storage.SnapshotDraw, fmt.Sprintf("round-%d", round), d)
	return d, nil
}

// ensureDrawable refuses to draw a round twice or to skip a round.
func (s *tabulationService) ensureDrawable(ctx context.Context, exec repositories.SQLExecutor, tournamentID, round int) error {
	count, err := s.pairingRepo.CountByRound(ctx, exec, tournamentID, models.StagePreliminary, round)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: round %d has already been drawn", models.ErrPreconditionViolated, round)
	}
	if round == 1 {
		return nil
	}
	prev, err := s.pairingRepo.CountByRound(ctx, exec, tournamentID, models.StagePreliminary, round-1)
	if err != nil {
		return err
	}
	if prev == 0 {
		return fmt.Errorf("%w: round %d must be drawn before round %d", models.ErrPreconditionViolated, round-1, round)
	}
	return nil
}

func (s *tabulationService) ListPairings(ctx context.Context, tournamentID int, stage *models.Stage, round *int) ([]*models.Pairing, error) {
	pairings, err := s.pairingRepo.ListByTournament(ctx, nil, tournamentID, repositories.PairingFilter{Stage: stage, Round: round})
	if err != nil {
		return nil, handleRepositoryError(err, "list pairings")
	}
	return pairings, nil
}

func (s *tabulationService) allocationInput(ws *workingSet, stage models.Stage, round int, scheduledAt *time.Time) (allocation.Input, error) {
	current := ws.round(stage, round)
	if len(current) == 0 {
		return allocation.Input{}, fmt.Errorf("%w: %w: %s round %d", models.ErrPreconditionViolated, ErrRoundNotDrawn, stage, round)
	}

	seen := make(map[int]map[int]int)
	daily := make(map[int]map[string]int)
	for _, p := range ws.pairings {
		if p.Stage == stage && p.Round == round {
			continue
		}
		for _, j := range p.JudgeIDs {
			for _, t := range p.TeamIDs() {
				if seen[j] == nil {
					seen[j] = make(map[int]int)
				}
				seen[j][t]++
			}
			if p.ScheduledAt != nil {
				if daily[j] == nil {
					daily[j] = make(map[string]int)
				}
				daily[j][models.DateKey(*p.ScheduledAt)]++
			}
		}
	}

	return allocation.Input{
		Round:       round,
		Pairings:    current,
		Judges:      ws.judges,
		Roster:      models.NewRoster(ws.teams),
		Conflicts:   ws.conflicts,
		ScheduledAt: scheduledAt,
		DailyLoad:   daily,
		Seen:        seen,
		Settings:    ws.settings,
	}, nil
}

func stageOrDefault(stage models.Stage) (models.Stage, error) {
	switch stage {
	case "":
		return models.StagePreliminary, nil
	case models.StagePreliminary, models.StageElimination:
		return stage, nil
	}
	return "", fmt.Errorf("%w: unknown stage %q", ErrValidationFailed, stage)
}

func (s *tabulationService) ProposeAllocation(ctx context.Context, tournamentID int, params ProposeAllocationParams) (*allocation.Proposal, error) {
	stage, err := stageOrDefault(params.Stage)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.lock(lockKey(tournamentID, stage, params.Round))
	defer unlock()

	ws, err := s.loadWorkingSet(ctx, tournamentID, loadOptions{judges: true, conflicts: true})
	if err != nil {
		return nil, err
	}
	in, err := s.allocationInput(ws, stage, params.Round, params.ScheduledAt)
	if err != nil {
		return nil, err
	}
	proposal, err := allocation.Allocate(in)
	if err != nil {
		return nil, fmt.Errorf("allocate judges: %w", err)
	}

	s.proposals.put(exactKey(tournamentID, stage, params.Round), params.ScheduledAt, proposal)
	s.logger.InfoContext(ctx, "allocation proposed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("round", params.Round),
		slog.String("proposal_id", proposal.ID),
		slog.Int("assigned", proposal.Summary.TotalAssigned),
		slog.Int("slots", proposal.Summary.TotalSlots),
		slog.Int("soft_conflicts", proposal.Summary.ConflictCount))
	if s.publisher != nil {
		s.publisher.Publish(tournamentID, brackets.EventAllocationProposed, proposal)
	}
	return proposal, nil
}

func (s *tabulationService) CommitAllocation(ctx context.Context, tournamentID int, params CommitAllocationParams) ([]*models.Pairing, error) {
	stage, err := stageOrDefault(params.Stage)
	if err != nil {
		return nil, err
	}
	unlock := s.locks.lock(lockKey(tournamentID, stage, params.Round))
	defer unlock()

	key := exactKey(tournamentID, stage, params.Round)
	stored, ok := s.proposals.get(params.ProposalID, key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProposalNotFound, params.ProposalID)
	}

	ws, err := s.loadWorkingSet(ctx, tournamentID, loadOptions{judges: true, conflicts: true})
	if err != nil {
		return nil, err
	}
	in, err := s.allocationInput(ws, stage, params.Round, stored.scheduledAt)
	if err != nil {
		return nil, err
	}
	committed, err := allocation.Commit(in, stored.proposal, params.Overrides)
	if err != nil {
		return nil, fmt.Errorf("commit allocation %s: %w", params.ProposalID, err)
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		for _, p := range committed {
			if err := s.pairingRepo.UpdateAssignment(ctx, exec, p.ID, p.JudgeIDs, p.ScheduledAt); err != nil {
				return handleRepositoryError(err, fmt.Sprintf("save judges of %s", p.UID))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.proposals.dropRound(key)

	s.logger.InfoContext(ctx, "allocation committed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("round", params.Round),
		slog.String("proposal_id", params.ProposalID),
		slog.Int("overrides", len(params.Overrides)))
	s.release(ctx, tournamentID, brackets.EventAllocationCommitted, storage.SnapshotAllocation,
		fmt.Sprintf("%s-round-%d", stage, params.Round), committed)
	return committed, nil
}

func (s *tabulationService) BuildBracket(ctx context.Context, tournamentID, size int) (*brackets.Bracket, error) {
	unlock := s.locks.lock(lockKey(tournamentID, models.StageElimination, 0))
	defer unlock()

	if err := s.ensureNoBracket(ctx, nil, tournamentID); err != nil {
		return nil, err
	}
	ws, err := s.loadWorkingSet(ctx, tournamentID, loadOptions{})
	if err != nil {
		return nil, err
	}

	ranked := standings.Compute(ws.teams, ws.pairings, standings.OptionsFrom(ws.settings))
	bracket, err := brackets.BuildBracket(standings.BreakSeeds(ranked), size)
	if err != nil {
		return nil, fmt.Errorf("build bracket of %d: %w", size, err)
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.ensureNoBracket(ctx, exec, tournamentID); err != nil {
			return err
		}
		return handleRepositoryError(s.pairingRepo.CreateBatch(ctx, exec, tournamentID, bracket.Pairings), "save bracket")
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "bracket created",
		slog.Int("tournament_id", tournamentID),
		slog.Int("size", bracket.Size),
		slog.Int("pairings", len(bracket.Pairings)))
	s.release(ctx, tournamentID, brackets.EventBracketCreated, storage.SnapshotBracket, fmt.Sprintf("break-%d", bracket.Size), bracket)
	return bracket, nil
}

func (s *tabulationService) ensureNoBracket(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) error {
	count, err := s.pairingRepo.CountByStage(ctx, exec, tournamentID, models.StageElimination)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: the bracket has already been built", models.ErrPreconditionViolated)
	}
	return nil
}

func (s *tabulationService) RecordResult(ctx context.Context, tournamentID int, stage models.Stage, uid string, result models.Result) (*models.Pairing, error) {
	stage, err := stageOrDefault(stage)
	if err != nil {
		return nil, err
	}
	pairing, err := s.pairingRepo.GetByUID(ctx, nil, tournamentID, stage, uid)
	if err != nil {
		return nil, handleRepositoryError(err, "load pairing")
	}

	unlock := s.locks.lock(lockKey(tournamentID, stage, pairing.Round))
	defer unlock()

	// Re-read under the lock; another result may have landed meanwhile.
	pairing, err = s.pairingRepo.GetByUID(ctx, nil, tournamentID, stage, uid)
	if err != nil {
		return nil, handleRepositoryError(err, "load pairing")
	}
	if err := validateResult(pairing, result); err != nil {
		return nil, err
	}

	var advanced *models.Pairing
	if stage == models.StageElimination {
		bracket, err := s.pairingRepo.ListByTournament(ctx, nil, tournamentID, repositories.PairingFilter{Stage: &stage})
		if err != nil {
			return nil, handleRepositoryError(err, "load bracket")
		}
		advanced, err = brackets.Advance(bracket, uid, result.WinnerID)
		if err != nil {
			if errors.Is(err, brackets.ErrSlotTaken) {
				return nil, fmt.Errorf("%w: %w", models.ErrPreconditionViolated, err)
			}
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.pairingRepo.RecordResult(ctx, exec, pairing.ID, &result); err != nil {
			return handleRepositoryError(err, "record result")
		}
		if advanced != nil {
			return handleRepositoryError(s.pairingRepo.UpdateTeams(ctx, exec, advanced), "advance winner")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	pairing.Result = &result
	pairing.Status = models.PairingCompleted
	s.logger.InfoContext(ctx, "result recorded",
		slog.Int("tournament_id", tournamentID),
		slog.String("stage", string(stage)),
		slog.String("uid", uid),
		slog.Int("winner_id", result.WinnerID))
	if advanced != nil && s.publisher != nil {
		s.publisher.Publish(tournamentID, brackets.EventBracketAdvanced, advanced)
	}
	return pairing, nil
}

func validateResult(p *models.Pairing, r models.Result) error {
	if p.IsBye() {
		return fmt.Errorf("%w: %s is a bye", ErrValidationFailed, p.UID)
	}
	if p.Result != nil {
		return fmt.Errorf("%w: %w: %s", models.ErrPreconditionViolated, ErrResultRecorded, p.UID)
	}
	if p.Affirmative == nil || p.Negative == nil {
		return fmt.Errorf("%w: %s is still waiting for its teams", models.ErrPreconditionViolated, p.UID)
	}
	if r.WinnerID != *p.Affirmative && r.WinnerID != *p.Negative {
		return fmt.Errorf("%w: team %d did not debate in %s", ErrValidationFailed, r.WinnerID, p.UID)
	}
	for _, score := range append(append([]float64{}, r.AffScores...), r.NegScores...) {
		if score < 0 {
			return fmt.Errorf("%w: speaker scores must not be negative", ErrValidationFailed)
		}
	}
	return nil
}

// Standings ranks the tournament from recorded results without writing anything.
func (s *tabulationService) Standings(ctx context.Context, tournamentID int) ([]models.Standing, error) {
	ws, err := s.loadWorkingSet(ctx, tournamentID, loadOptions{})
	if err != nil {
		return nil, err
	}
	return standings.Compute(ws.teams, ws.pairings, standings.OptionsFrom(ws.settings)), nil
}

// PublishStandings computes the standings, writes the team records back and
// releases the table to live clients.
func (s *tabulationService) PublishStandings(ctx context.Context, tournamentID int) ([]models.Standing, error) {
	ranked, err := s.Standings(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		return handleRepositoryError(s.teamRepo.UpdateRecords(ctx, exec, ranked), "write back team records")
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "standings published",
		slog.Int("tournament_id", tournamentID), slog.Int("teams", len(ranked)))
	s.release(ctx, tournamentID, brackets.EventStandingsUpdated, storage.SnapshotStandings, "standings", ranked)
	return ranked, nil
}

func (s *tabulationService) GetSettings(ctx context.Context, tournamentID int) (models.TabulationSettings, error) {
	settings, err := s.settingsRepo.Get(ctx, nil, tournamentID)
	if err != nil {
		return models.TabulationSettings{}, handleRepositoryError(err, "load settings")
	}
	return settings, nil
}

func (s *tabulationService) UpdateSettings(ctx context.Context, tournamentID int, settings models.TabulationSettings) (models.TabulationSettings, error) {
	if settings.ByeSpeaks == "" {
		settings.ByeSpeaks = models.ByeSpeaksAverage
	}
	if err := settings.Validate(); err != nil {
		return models.TabulationSettings{}, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if err := s.settingsRepo.Save(ctx, nil, tournamentID, settings); err != nil {
		return models.TabulationSettings{}, handleRepositoryError(err, "save settings")
	}
	s.logger.InfoContext(ctx, "tabulation settings updated",
		slog.Int("tournament_id", tournamentID),
		slog.String("draw_method", string(settings.DrawMethod)))
	return settings, nil
}

// release pushes the event to live clients and archives a snapshot. Archive
// failures are logged and never fail the operation.
func (s *tabulationService) release(ctx context.Context, tournamentID int, event string, kind storage.SnapshotKind, name string, payload any) {
	if s.publisher != nil {
		s.publisher.Publish(tournamentID, event, payload)
	}
	res, err := s.archiver.Archive(ctx, tournamentID, kind, name, payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to archive snapshot",
			slog.Int("tournament_id", tournamentID),
			slog.String("kind", string(kind)),
			slog.Any("error", err))
		return
	}
	if res != nil {
		s.logger.DebugContext(ctx, "snapshot archived", slog.String("key", res.Key))
	}
}
