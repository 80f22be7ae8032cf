package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/tabroom/models"
)

type SettingsRepository interface {
	// Get returns the stored settings, or the defaults when none were saved.
	Get(ctx context.Context, exec SQLExecutor, tournamentID int) (models.TabulationSettings, error)
	Save(ctx context.Context, exec SQLExecutor, tournamentID int, settings models.TabulationSettings) error
}

type postgresSettingsRepository struct {
	db *sql.DB
}

func NewPostgresSettingsRepository(db *sql.DB) SettingsRepository {
	return &postgresSettingsRepository{db: db}
}

func (r *postgresSettingsRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSettingsRepository) Get(ctx context.Context, exec SQLExecutor, tournamentID int) (models.TabulationSettings, error) {
	var payload []byte
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT settings FROM tabulation_settings WHERE tournament_id = $1`, tournamentID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.DefaultSettings(), nil
		}
		return models.TabulationSettings{}, fmt.Errorf("failed to load settings of tournament %d: %w", tournamentID, err)
	}

	// Stored documents may predate newer fields; missing keys keep their defaults.
	settings := models.DefaultSettings()
	if err = json.Unmarshal(payload, &settings); err != nil {
		return models.TabulationSettings{}, fmt.Errorf("failed to decode settings of tournament %d: %w", tournamentID, err)
	}
	return settings, nil
}

func (r *postgresSettingsRepository) Save(ctx context.Context, exec SQLExecutor, tournamentID int, settings models.TabulationSettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings of tournament %d: %w", tournamentID, err)
	}
	query := `
		INSERT INTO tabulation_settings (tournament_id, settings, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (tournament_id) DO UPDATE SET settings = EXCLUDED.settings, updated_at = NOW()`
	if _, err = r.getExecutor(exec).ExecContext(ctx, query, tournamentID, string(payload)); err != nil {
		return fmt.Errorf("failed to save settings of tournament %d: %w", tournamentID, err)
	}
	return nil
}
