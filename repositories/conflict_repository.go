package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tabroom/models"
)

var (
	ErrConflictNotFound  = errors.New("conflict not found")
	ErrConflictDuplicate = errors.New("conflict already recorded")
)

type ConflictRepository interface {
	Create(ctx context.Context, exec SQLExecutor, record *models.ConflictRecord) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.ConflictRecord, error)
	Delete(ctx context.Context, exec SQLExecutor, tournamentID, id int) error
}

type postgresConflictRepository struct {
	db *sql.DB
}

func NewPostgresConflictRepository(db *sql.DB) ConflictRepository {
	return &postgresConflictRepository{db: db}
}

func (r *postgresConflictRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

// Create stores team-team conflicts with the lower id as subject so the
// unique constraint catches both orderings.
func (r *postgresConflictRepository) Create(ctx context.Context, exec SQLExecutor, record *models.ConflictRecord) error {
	if record.Kind == models.ConflictTeamTeam && record.SubjectID > record.ObjectID {
		record.SubjectID, record.ObjectID = record.ObjectID, record.SubjectID
	}

	query := `
		INSERT INTO conflicts (tournament_id, kind, subject_id, object_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		record.TournamentID, record.Kind, record.SubjectID, record.ObjectID,
	).Scan(&record.ID)
	if err != nil {
		if constraint, ok := constraintOf(err); ok && constraint == "conflicts_tournament_id_kind_subject_id_object_id_key" {
			return ErrConflictDuplicate
		}
		return fmt.Errorf("failed to insert %s conflict: %w", record.Kind, err)
	}
	return nil
}

func (r *postgresConflictRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.ConflictRecord, error) {
	query := `
		SELECT id, tournament_id, kind, subject_id, object_id
		FROM conflicts
		WHERE tournament_id = $1
		ORDER BY id ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query conflicts for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	records := make([]models.ConflictRecord, 0)
	for rows.Next() {
		var rec models.ConflictRecord
		if scanErr := rows.Scan(&rec.ID, &rec.TournamentID, &rec.Kind, &rec.SubjectID, &rec.ObjectID); scanErr != nil {
			return nil, fmt.Errorf("failed to scan conflict row: %w", scanErr)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during conflict rows iteration: %w", err)
	}
	return records, nil
}

func (r *postgresConflictRepository) Delete(ctx context.Context, exec SQLExecutor, tournamentID, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`DELETE FROM conflicts WHERE id = $1 AND tournament_id = $2`, id, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to delete conflict %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrConflictNotFound)
}
