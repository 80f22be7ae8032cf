package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/tabroom/models"
	"github.com/lib/pq"
)

var (
	ErrJudgeNotFound     = errors.New("judge not found")
	ErrJudgeNameConflict = errors.New("judge name already used in this tournament")
)

type JudgeRepository interface {
	Create(ctx context.Context, exec SQLExecutor, judge *models.Judge) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Judge, error)
	UpdateAvailability(ctx context.Context, exec SQLExecutor, id int, availability models.Availability) error
}

type postgresJudgeRepository struct {
	db *sql.DB
}

func NewPostgresJudgeRepository(db *sql.DB) JudgeRepository {
	return &postgresJudgeRepository{db: db}
}

func (r *postgresJudgeRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresJudgeRepository) Create(ctx context.Context, exec SQLExecutor, judge *models.Judge) error {
	availability, err := json.Marshal(judge.Availability)
	if err != nil {
		return fmt.Errorf("failed to encode availability of judge %q: %w", judge.Name, err)
	}

	query := `
		INSERT INTO judges (tournament_id, name, tier, specializations, availability, alumni, max_rounds_per_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err = r.getExecutor(exec).QueryRowContext(ctx, query,
		judge.TournamentID,
		judge.Name,
		judge.Tier.String(),
		stringArray(judge.Specializations),
		string(availability),
		judge.Alumni,
		judge.MaxRoundsPerDay,
	).Scan(&judge.ID)
	if err != nil {
		if constraint, ok := constraintOf(err); ok && constraint == "judges_tournament_id_name_key" {
			return ErrJudgeNameConflict
		}
		return fmt.Errorf("failed to insert judge %q: %w", judge.Name, err)
	}
	return nil
}

func (r *postgresJudgeRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Judge, error) {
	query := `
		SELECT id, tournament_id, name, tier, specializations, availability, alumni, max_rounds_per_day
		FROM judges
		WHERE tournament_id = $1
		ORDER BY id ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query judges for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	judges := make([]models.Judge, 0)
	for rows.Next() {
		judge, scanErr := scanJudge(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan judge row: %w", scanErr)
		}
		judges = append(judges, *judge)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during judge rows iteration: %w", err)
	}
	return judges, nil
}

func (r *postgresJudgeRepository) UpdateAvailability(ctx context.Context, exec SQLExecutor, id int, availability models.Availability) error {
	payload, err := json.Marshal(availability)
	if err != nil {
		return fmt.Errorf("failed to encode availability of judge %d: %w", id, err)
	}
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE judges SET availability = $1 WHERE id = $2`, string(payload), id)
	if err != nil {
		return fmt.Errorf("failed to update availability of judge %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrJudgeNotFound)
}

func scanJudge(row rowScanner) (*models.Judge, error) {
	var (
		judge           models.Judge
		tier            string
		specializations pq.StringArray
		availability    []byte
	)
	err := row.Scan(
		&judge.ID,
		&judge.TournamentID,
		&judge.Name,
		&tier,
		&specializations,
		&availability,
		&judge.Alumni,
		&judge.MaxRoundsPerDay,
	)
	if err != nil {
		return nil, err
	}
	if judge.Tier, err = models.ParseExperienceTier(tier); err != nil {
		return nil, fmt.Errorf("judge %d: %w", judge.ID, err)
	}
	if len(specializations) > 0 {
		judge.Specializations = []string(specializations)
	}
	if len(availability) > 0 {
		if err = json.Unmarshal(availability, &judge.Availability); err != nil {
			return nil, fmt.Errorf("judge %d: failed to decode availability: %w", judge.ID, err)
		}
	}
	return &judge, nil
}
