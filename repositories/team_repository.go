package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tabroom/models"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team name already used in this tournament")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Team, error)
	SetActive(ctx context.Context, exec SQLExecutor, id int, active bool) error
	ApplyDeltas(ctx context.Context, exec SQLExecutor, deltas []models.TeamDelta) error
	UpdateRecords(ctx context.Context, exec SQLExecutor, standings []models.Standing) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const teamColumns = `id, tournament_id, name, institution_id, wins, losses, speaker_total,
		aff_count, neg_count, pull_ups, bye_count, active, pre_allocated_side`

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	query := `
		INSERT INTO teams (tournament_id, name, institution_id, active, pre_allocated_side)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var side sql.NullString
	if team.PreAllocatedSide != nil {
		side = sql.NullString{String: string(*team.PreAllocatedSide), Valid: true}
	}
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		team.TournamentID, team.Name, team.InstitutionID, team.Active, side,
	).Scan(&team.ID)
	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`

	team, err := scanTeam(r.getExecutor(exec).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team by id %d: %w", id, err)
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE tournament_id = $1 ORDER BY id ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		team, scanErr := scanTeam(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", scanErr)
		}
		teams = append(teams, *team)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during team rows iteration: %w", err)
	}
	return teams, nil
}

func (r *postgresTeamRepository) SetActive(ctx context.Context, exec SQLExecutor, id int, active bool) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE teams SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update team %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

// ApplyDeltas adds draw counter changes; it never overwrites the counters.
func (r *postgresTeamRepository) ApplyDeltas(ctx context.Context, exec SQLExecutor, deltas []models.TeamDelta) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE teams
		SET aff_count = aff_count + $1, neg_count = neg_count + $2,
		    pull_ups = pull_ups + $3, bye_count = bye_count + $4
		WHERE id = $5`

	for _, d := range deltas {
		result, err := executor.ExecContext(ctx, query, d.Aff, d.Neg, d.PullUps, d.Byes, d.TeamID)
		if err != nil {
			return fmt.Errorf("failed to apply delta to team %d: %w", d.TeamID, err)
		}
		if err = checkAffectedRows(result, ErrTeamNotFound); err != nil {
			return fmt.Errorf("team %d: %w", d.TeamID, err)
		}
	}
	return nil
}

func (r *postgresTeamRepository) UpdateRecords(ctx context.Context, exec SQLExecutor, standings []models.Standing) error {
	executor := r.getExecutor(exec)
	query := `UPDATE teams SET wins = $1, losses = $2, speaker_total = $3 WHERE id = $4`

	for _, s := range standings {
		result, err := executor.ExecContext(ctx, query, s.Wins, s.Losses, s.TotalSpeaks, s.TeamID)
		if err != nil {
			return fmt.Errorf("failed to update record of team %d: %w", s.TeamID, err)
		}
		if err = checkAffectedRows(result, ErrTeamNotFound); err != nil {
			return fmt.Errorf("team %d: %w", s.TeamID, err)
		}
	}
	return nil
}

func scanTeam(row rowScanner) (*models.Team, error) {
	var (
		team          models.Team
		institutionID sql.NullInt64
		side          sql.NullString
	)
	err := row.Scan(
		&team.ID,
		&team.TournamentID,
		&team.Name,
		&institutionID,
		&team.Wins,
		&team.Losses,
		&team.SpeakerTotal,
		&team.AffCount,
		&team.NegCount,
		&team.PullUps,
		&team.ByeCount,
		&team.Active,
		&side,
	)
	if err != nil {
		return nil, err
	}
	if institutionID.Valid {
		id := int(institutionID.Int64)
		team.InstitutionID = &id
	}
	if side.Valid {
		s := models.Side(side.String)
		team.PreAllocatedSide = &s
	}
	return &team, nil
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if constraint, ok := constraintOf(err); ok && constraint == "teams_tournament_id_name_key" {
		return ErrTeamNameConflict
	}
	return err
}
