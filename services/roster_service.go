package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/tabroom/models"
	"github.com/Dosada05/tabroom/repositories"
)

// RosterService maintains the teams, judges and conflicts the engine reads.
type RosterService interface {
	AddTeam(ctx context.Context, tournamentID int, team models.Team) (*models.Team, error)
	SetTeamActive(ctx context.Context, tournamentID, teamID int, active bool) (*models.Team, error)
	ListTeams(ctx context.Context, tournamentID int) ([]models.Team, error)
	AddJudge(ctx context.Context, tournamentID int, judge models.Judge) (*models.Judge, error)
	ListJudges(ctx context.Context, tournamentID int) ([]models.Judge, error)
	UpdateJudgeAvailability(ctx context.Context, tournamentID, judgeID int, availability models.Availability) (*models.Judge, error)
	AddConflict(ctx context.Context, tournamentID int, record models.ConflictRecord) (*models.ConflictRecord, error)
	ListConflicts(ctx context.Context, tournamentID int) ([]models.ConflictRecord, error)
	RemoveConflict(ctx context.Context, tournamentID, conflictID int) error
}

type rosterService struct {
	teamRepo     repositories.TeamRepository
	judgeRepo    repositories.JudgeRepository
	conflictRepo repositories.ConflictRepository
	logger       *slog.Logger
}

func NewRosterService(
	teamRepo repositories.TeamRepository,
	judgeRepo repositories.JudgeRepository,
	conflictRepo repositories.ConflictRepository,
	logger *slog.Logger,
) RosterService {
	return &rosterService{
		teamRepo:     teamRepo,
		judgeRepo:    judgeRepo,
		conflictRepo: conflictRepo,
		logger:       logger,
	}
}

func (s *rosterService) AddTeam(ctx context.Context, tournamentID int, team models.Team) (*models.Team, error) {
	team.Name = strings.TrimSpace(team.Name)
	if team.Name == "" {
		return nil, fmt.Errorf("%w: team name is required", ErrValidationFailed)
	}
	if team.PreAllocatedSide != nil {
		switch *team.PreAllocatedSide {
		case models.SideAffirmative, models.SideNegative:
		default:
			return nil, fmt.Errorf("%w: unknown side %q", ErrValidationFailed, *team.PreAllocatedSide)
		}
	}

	// Counters are owned by the draw and the standings.
	created := models.Team{
		TournamentID:     tournamentID,
		Name:             team.Name,
		InstitutionID:    team.InstitutionID,
		Active:           true,
		PreAllocatedSide: team.PreAllocatedSide,
	}
	if err := s.teamRepo.Create(ctx, nil, &created); err != nil {
		return nil, handleRepositoryError(err, "create team")
	}
	s.logger.InfoContext(ctx, "team added",
		slog.Int("tournament_id", tournamentID), slog.Int("team_id", created.ID))
	return &created, nil
}

// SetTeamActive withdraws or reinstates a team. Teams are never deleted so
// their past pairings stay valid.
func (s *rosterService) SetTeamActive(ctx context.Context, tournamentID, teamID int, active bool) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, nil, teamID)
	if err != nil {
		return nil, handleRepositoryError(err, "load team")
	}
	if team.TournamentID != tournamentID {
		return nil, fmt.Errorf("%w: team %d is not part of tournament %d", ErrNotFound, teamID, tournamentID)
	}
	if err := s.teamRepo.SetActive(ctx, nil, teamID, active); err != nil {
		return nil, handleRepositoryError(err, "update team")
	}
	team.Active = active
	s.logger.InfoContext(ctx, "team activity changed",
		slog.Int("tournament_id", tournamentID), slog.Int("team_id", teamID), slog.Bool("active", active))
	return team, nil
}

func (s *rosterService) ListTeams(ctx context.Context, tournamentID int) ([]models.Team, error) {
	teams, err := s.teamRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "list teams")
	}
	return teams, nil
}

func (s *rosterService) AddJudge(ctx context.Context, tournamentID int, judge models.Judge) (*models.Judge, error) {
	judge.Name = strings.TrimSpace(judge.Name)
	if judge.Name == "" {
		return nil, fmt.Errorf("%w: judge name is required", ErrValidationFailed)
	}
	if judge.MaxRoundsPerDay < 0 {
		return nil, fmt.Errorf("%w: max rounds per day must not be negative", ErrValidationFailed)
	}
	if err := validateAvailability(judge.Availability); err != nil {
		return nil, err
	}

	judge.ID = 0
	judge.TournamentID = tournamentID
	if err := s.judgeRepo.Create(ctx, nil, &judge); err != nil {
		return nil, handleRepositoryError(err, "create judge")
	}
	s.logger.InfoContext(ctx, "judge added",
		slog.Int("tournament_id", tournamentID), slog.Int("judge_id", judge.ID), slog.String("tier", judge.Tier.String()))
	return &judge, nil
}

func (s *rosterService) ListJudges(ctx context.Context, tournamentID int) ([]models.Judge, error) {
	judges, err := s.judgeRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "list judges")
	}
	return judges, nil
}

func (s *rosterService) UpdateJudgeAvailability(ctx context.Context, tournamentID, judgeID int, availability models.Availability) (*models.Judge, error) {
	if err := validateAvailability(availability); err != nil {
		return nil, err
	}
	judges, err := s.judgeRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "list judges")
	}

	var judge *models.Judge
	for i := range judges {
		if judges[i].ID == judgeID {
			judge = &judges[i]
			break
		}
	}
	if judge == nil {
		return nil, fmt.Errorf("%w: judge %d is not part of tournament %d", ErrNotFound, judgeID, tournamentID)
	}

	if err := s.judgeRepo.UpdateAvailability(ctx, nil, judgeID, availability); err != nil {
		return nil, handleRepositoryError(err, "update judge availability")
	}
	judge.Availability = availability
	s.logger.InfoContext(ctx, "judge availability updated",
		slog.Int("tournament_id", tournamentID), slog.Int("judge_id", judgeID), slog.Int("dates", len(availability.Dates)))
	return judge, nil
}

func validateAvailability(availability models.Availability) error {
	for date, buckets := range availability.Dates {
		if !validDateKey(date) {
			return fmt.Errorf("%w: availability date %q is not YYYY-MM-DD", ErrValidationFailed, date)
		}
		for _, b := range buckets {
			switch b {
			case models.TimeMorning, models.TimeAfternoon, models.TimeEvening:
			default:
				return fmt.Errorf("%w: unknown time of day %q", ErrValidationFailed, b)
			}
		}
	}
	return nil
}

func (s *rosterService) AddConflict(ctx context.Context, tournamentID int, record models.ConflictRecord) (*models.ConflictRecord, error) {
	if _, err := record.ToConflict(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	if record.SubjectID <= 0 || record.ObjectID <= 0 {
		return nil, fmt.Errorf("%w: conflict ids must be positive", ErrValidationFailed)
	}
	if record.Kind == models.ConflictTeamTeam && record.SubjectID == record.ObjectID {
		return nil, fmt.Errorf("%w: a team cannot conflict with itself", ErrValidationFailed)
	}

	record.ID = 0
	record.TournamentID = tournamentID
	if err := s.conflictRepo.Create(ctx, nil, &record); err != nil {
		return nil, handleRepositoryError(err, "create conflict")
	}
	return &record, nil
}

func (s *rosterService) ListConflicts(ctx context.Context, tournamentID int) ([]models.ConflictRecord, error) {
	records, err := s.conflictRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "list conflicts")
	}
	return records, nil
}

func (s *rosterService) RemoveConflict(ctx context.Context, tournamentID, conflictID int) error {
	return handleRepositoryError(s.conflictRepo.Delete(ctx, nil, tournamentID, conflictID), "delete conflict")
}
