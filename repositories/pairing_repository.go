package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/tabroom/models"
	"github.com/lib/pq"
)

var (
	ErrPairingNotFound    = errors.New("pairing not found")
	ErrPairingUIDConflict = errors.New("pairing uid already exists in this stage")
	ErrPairingTeamInvalid = errors.New("pairing team conflict or invalid")
)

// PairingFilter narrows ListByTournament. Nil fields do not filter.
type PairingFilter struct {
	Stage *models.Stage
	Round *int
}

type PairingRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, tournamentID int, pairings []*models.Pairing) error
	GetByUID(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage, uid string) (*models.Pairing, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, filter PairingFilter) ([]*models.Pairing, error)
	CountByRound(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage, round int) (int, error)
	CountByStage(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage) (int, error)
	UpdateAssignment(ctx context.Context, exec SQLExecutor, id int, judgeIDs []int, scheduledAt *time.Time) error
	UpdateTeams(ctx context.Context, exec SQLExecutor, pairing *models.Pairing) error
	RecordResult(ctx context.Context, exec SQLExecutor, id int, result *models.Result) error
}

type postgresPairingRepository struct {
	db *sql.DB
}

func NewPostgresPairingRepository(db *sql.DB) PairingRepository {
	return &postgresPairingRepository{db: db}
}

func (r *postgresPairingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const pairingColumns = `id, tournament_id, uid, round, stage, aff_team_id, neg_team_id, judge_ids,
		room, scheduled_at, status, bracket, room_rank, flags, category, aff_seed, neg_seed,
		advances_to, advances_to_slot, source_uids, winner_id, aff_scores, neg_scores`

func (r *postgresPairingRepository) CreateBatch(ctx context.Context, exec SQLExecutor, tournamentID int, pairings []*models.Pairing) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO pairings
			(tournament_id, uid, round, stage, aff_team_id, neg_team_id, judge_ids, room, scheduled_at,
			 status, bracket, room_rank, flags, category, aff_seed, neg_seed, advances_to,
			 advances_to_slot, source_uids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id`

	for _, p := range pairings {
		p.TournamentID = tournamentID
		err := executor.QueryRowContext(ctx, query,
			tournamentID,
			p.UID,
			p.Round,
			p.Stage,
			p.Affirmative,
			p.Negative,
			intArray(p.JudgeIDs),
			p.Room,
			p.ScheduledAt,
			p.Status,
			p.Bracket,
			p.RoomRank,
			flagArray(p.Flags),
			p.Category,
			p.AffSeed,
			p.NegSeed,
			p.AdvancesTo,
			p.AdvancesToSlot,
			stringArray(p.SourceUIDs),
		).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("failed to insert pairing %s: %w", p.UID, r.handlePairingError(err))
		}
	}
	return nil
}

func (r *postgresPairingRepository) GetByUID(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage, uid string) (*models.Pairing, error) {
	query := `SELECT ` + pairingColumns + ` FROM pairings WHERE tournament_id = $1 AND stage = $2 AND uid = $3`

	p, err := scanPairing(r.getExecutor(exec).QueryRowContext(ctx, query, tournamentID, stage, uid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPairingNotFound
		}
		return nil, fmt.Errorf("failed to scan pairing %s: %w", uid, err)
	}
	return p, nil
}

func (r *postgresPairingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, filter PairingFilter) ([]*models.Pairing, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + pairingColumns + ` FROM pairings WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	if filter.Stage != nil {
		args = append(args, *filter.Stage)
		queryBuilder.WriteString(" AND stage = $" + strconv.Itoa(len(args)))
	}
	if filter.Round != nil {
		args = append(args, *filter.Round)
		queryBuilder.WriteString(" AND round = $" + strconv.Itoa(len(args)))
	}
	queryBuilder.WriteString(" ORDER BY stage DESC, round ASC, room_rank ASC, id ASC")

	rows, err := r.getExecutor(exec).QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pairings for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	pairings := make([]*models.Pairing, 0)
	for rows.Next() {
		p, scanErr := scanPairing(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan pairing row: %w", scanErr)
		}
		pairings = append(pairings, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during pairing rows iteration: %w", err)
	}
	return pairings, nil
}

func (r *postgresPairingRepository) CountByRound(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage, round int) (int, error) {
	var count int
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pairings WHERE tournament_id = $1 AND stage = $2 AND round = $3`,
		tournamentID, stage, round,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pairings of round %d: %w", round, err)
	}
	return count, nil
}

func (r *postgresPairingRepository) CountByStage(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.Stage) (int, error) {
	var count int
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pairings WHERE tournament_id = $1 AND stage = $2`,
		tournamentID, stage,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s pairings: %w", stage, err)
	}
	return count, nil
}

// UpdateAssignment writes the seated judges. A nil scheduledAt keeps the
// stored time.
func (r *postgresPairingRepository) UpdateAssignment(ctx context.Context, exec SQLExecutor, id int, judgeIDs []int, scheduledAt *time.Time) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE pairings SET judge_ids = $1, scheduled_at = COALESCE($2, scheduled_at) WHERE id = $3`,
		intArray(judgeIDs), scheduledAt, id)
	if err != nil {
		return fmt.Errorf("failed to update judges of pairing %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPairingNotFound)
}

// UpdateTeams writes the seated teams and seeds, used when a bracket winner advances.
func (r *postgresPairingRepository) UpdateTeams(ctx context.Context, exec SQLExecutor, p *models.Pairing) error {
	query := `
		UPDATE pairings
		SET aff_team_id = $1, neg_team_id = $2, aff_seed = $3, neg_seed = $4
		WHERE id = $5`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, p.Affirmative, p.Negative, p.AffSeed, p.NegSeed, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update teams of pairing %s: %w", p.UID, r.handlePairingError(err))
	}
	return checkAffectedRows(result, ErrPairingNotFound)
}

func (r *postgresPairingRepository) RecordResult(ctx context.Context, exec SQLExecutor, id int, result *models.Result) error {
	query := `
		UPDATE pairings
		SET winner_id = $1, aff_scores = $2, neg_scores = $3, status = $4
		WHERE id = $5`
	res, err := r.getExecutor(exec).ExecContext(ctx, query,
		result.WinnerID,
		floatArray(result.AffScores),
		floatArray(result.NegScores),
		models.PairingCompleted,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to record result of pairing %d: %w", id, err)
	}
	return checkAffectedRows(res, ErrPairingNotFound)
}

func scanPairing(row rowScanner) (*models.Pairing, error) {
	var (
		p          models.Pairing
		judgeIDs   pq.Int64Array
		flags      pq.StringArray
		sourceUIDs pq.StringArray
		winnerID   sql.NullInt64
		affScores  pq.Float64Array
		negScores  pq.Float64Array
	)
	err := row.Scan(
		&p.ID,
		&p.TournamentID,
		&p.UID,
		&p.Round,
		&p.Stage,
		&p.Affirmative,
		&p.Negative,
		&judgeIDs,
		&p.Room,
		&p.ScheduledAt,
		&p.Status,
		&p.Bracket,
		&p.RoomRank,
		&flags,
		&p.Category,
		&p.AffSeed,
		&p.NegSeed,
		&p.AdvancesTo,
		&p.AdvancesToSlot,
		&sourceUIDs,
		&winnerID,
		&affScores,
		&negScores,
	)
	if err != nil {
		return nil, err
	}

	p.JudgeIDs = intsFrom(judgeIDs)
	for _, f := range flags {
		p.Flags = append(p.Flags, models.PairingFlag(f))
	}
	if len(sourceUIDs) > 0 {
		p.SourceUIDs = []string(sourceUIDs)
	}
	if winnerID.Valid {
		p.Result = &models.Result{
			WinnerID:  int(winnerID.Int64),
			AffScores: []float64(affScores),
			NegScores: []float64(negScores),
		}
	}
	return &p, nil
}

func flagArray(flags []models.PairingFlag) pq.StringArray {
	out := make(pq.StringArray, len(flags))
	for i, f := range flags {
		out[i] = string(f)
	}
	return out
}

func (r *postgresPairingRepository) handlePairingError(err error) error {
	constraint, ok := constraintOf(err)
	if !ok {
		return err
	}
	switch constraint {
	case "pairings_tournament_id_stage_uid_key":
		return ErrPairingUIDConflict
	case "pairings_aff_team_id_fkey", "pairings_neg_team_id_fkey":
		return ErrPairingTeamInvalid
	}
	return err
}
