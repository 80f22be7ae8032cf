package db

import (
	"context"
	"database/sql"
	"fmt"
)

// CreateSchema creates the tab-room tables. Safe to call on every start.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS teams (
    id SERIAL PRIMARY KEY,
    tournament_id INT NOT NULL,
    name TEXT NOT NULL,
    institution_id INT,
    wins INT NOT NULL DEFAULT 0,
    losses INT NOT NULL DEFAULT 0,
    speaker_total DOUBLE PRECISION NOT NULL DEFAULT 0,
    aff_count INT NOT NULL DEFAULT 0,
    neg_count INT NOT NULL DEFAULT 0,
    pull_ups INT NOT NULL DEFAULT 0,
    bye_count INT NOT NULL DEFAULT 0,
    active BOOLEAN NOT NULL DEFAULT TRUE,
    pre_allocated_side TEXT CHECK (pre_allocated_side IN ('affirmative', 'negative')),
    UNIQUE (tournament_id, name)
);

CREATE INDEX IF NOT EXISTS idx_teams_tournament_id ON teams(tournament_id);

CREATE TABLE IF NOT EXISTS judges (
    id SERIAL PRIMARY KEY,
    tournament_id INT NOT NULL,
    name TEXT NOT NULL,
    tier TEXT NOT NULL DEFAULT 'novice' CHECK (tier IN ('novice', 'intermediate', 'advanced', 'expert')),
    specializations TEXT[] NOT NULL DEFAULT '{}',
    availability JSONB NOT NULL DEFAULT '{}',
    alumni BOOLEAN NOT NULL DEFAULT FALSE,
    max_rounds_per_day INT NOT NULL DEFAULT 0,
    UNIQUE (tournament_id, name)
);

CREATE INDEX IF NOT EXISTS idx_judges_tournament_id ON judges(tournament_id);

CREATE TABLE IF NOT EXISTS conflicts (
    id SERIAL PRIMARY KEY,
    tournament_id INT NOT NULL,
    kind TEXT NOT NULL CHECK (kind IN ('team_team', 'judge_team', 'judge_institution')),
    subject_id INT NOT NULL,
    object_id INT NOT NULL,
    UNIQUE (tournament_id, kind, subject_id, object_id)
);

CREATE TABLE IF NOT EXISTS pairings (
    id SERIAL PRIMARY KEY,
    tournament_id INT NOT NULL,
    uid TEXT NOT NULL,
    round INT NOT NULL,
    stage TEXT NOT NULL CHECK (stage IN ('preliminary', 'elimination')),
    aff_team_id INT REFERENCES teams(id),
    neg_team_id INT REFERENCES teams(id),
    judge_ids INT[] NOT NULL DEFAULT '{}',
    room TEXT NOT NULL DEFAULT '',
    scheduled_at TIMESTAMPTZ,
    status TEXT NOT NULL DEFAULT 'scheduled' CHECK (status IN ('scheduled', 'in_progress', 'completed', 'bye')),
    bracket INT NOT NULL DEFAULT 0,
    room_rank INT NOT NULL DEFAULT 0,
    flags TEXT[] NOT NULL DEFAULT '{}',
    category TEXT NOT NULL DEFAULT '',
    aff_seed INT,
    neg_seed INT,
    advances_to TEXT,
    advances_to_slot INT NOT NULL DEFAULT 0,
    source_uids TEXT[] NOT NULL DEFAULT '{}',
    winner_id INT,
    aff_scores DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
    neg_scores DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
    UNIQUE (tournament_id, stage, uid)
);

CREATE INDEX IF NOT EXISTS idx_pairings_round ON pairings(tournament_id, stage, round);

CREATE TABLE IF NOT EXISTS tabulation_settings (
    tournament_id INT PRIMARY KEY,
    settings JSONB NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
