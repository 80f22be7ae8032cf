package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type SnapshotKind string

const (
	SnapshotDraw       SnapshotKind = "draws"
	SnapshotAllocation SnapshotKind = "allocations"
	SnapshotBracket    SnapshotKind = "brackets"
	SnapshotStandings  SnapshotKind = "standings"
)

// Archiver keeps an audit trail of released tab artifacts as JSON documents.
type Archiver interface {
	Archive(ctx context.Context, tournamentID int, kind SnapshotKind, name string, payload any) (*UploadResult, error)
}

type snapshot struct {
	TournamentID int          `json:"tournament_id"`
	Kind         SnapshotKind `json:"kind"`
	Name         string       `json:"name"`
	ArchivedAt   time.Time    `json:"archived_at"`
	Payload      any          `json:"payload"`
}

type objectArchiver struct {
	store ObjectStore
	now   func() time.Time
}

func NewArchiver(store ObjectStore) Archiver {
	return &objectArchiver{store: store, now: time.Now}
}

// SnapshotKey is the object key a snapshot is written under.
func SnapshotKey(tournamentID int, kind SnapshotKind, name string, at time.Time) string {
	return fmt.Sprintf("tournaments/%d/%s/%s-%s.json", tournamentID, kind, name, at.UTC().Format("20060102T150405Z"))
}

func (a *objectArchiver) Archive(ctx context.Context, tournamentID int, kind SnapshotKind, name string, payload any) (*UploadResult, error) {
	at := a.now()
	body, err := json.MarshalIndent(snapshot{
		TournamentID: tournamentID,
		Kind:         kind,
		Name:         name,
		ArchivedAt:   at.UTC(),
		Payload:      payload,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s snapshot: %w", kind, err)
	}
	return a.store.Upload(ctx, SnapshotKey(tournamentID, kind, name, at), "application/json", bytes.NewReader(body))
}

type nopArchiver struct{}

// NopArchiver discards snapshots; used when no bucket is configured.
func NopArchiver() Archiver {
	return nopArchiver{}
}

func (nopArchiver) Archive(context.Context, int, SnapshotKind, string, any) (*UploadResult, error) {
	return nil, nil
}
