package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qingplan/internal/client/models"
	"qingplan/internal/common"
	"qingplan/internal/dbx"
)

// SnapshotRepository persists the last known-good full snapshot per user.
// Writes are whole-snapshot overwrites; there are no partial merges, so the
// last writer wins and no read-modify-write race exists within one process.
type SnapshotRepository interface {
	// Save overwrites the user's snapshot.
	Save(ctx context.Context, userID string, snap *models.Snapshot) error

	// Load returns the user's snapshot, or common.ErrorNotFound if the user
	// has never been cached.
	Load(ctx context.Context, userID string) (*models.Snapshot, error)

	// Delete removes the user's snapshot (e.g., "clear local cache").
	Delete(ctx context.Context, userID string) error
}

// SQLiteSnapshotRepository stores one JSON-encoded snapshot row per user.
type SQLiteSnapshotRepository struct {
	db dbx.DBTX
}

func NewSQLiteSnapshotRepository(db dbx.DBTX) *SQLiteSnapshotRepository {
	return &SQLiteSnapshotRepository{db: db}
}

func (r *SQLiteSnapshotRepository) Save(ctx context.Context, userID string, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (user_id, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, userID, string(data), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("save snapshot for %s: %w", userID, err)
	}
	return nil
}

func (r *SQLiteSnapshotRepository) Load(ctx context.Context, userID string) (*models.Snapshot, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE user_id = ?`, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot for %s: %w", userID, err)
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot for %s: %w", userID, err)
	}
	return &snap, nil
}

func (r *SQLiteSnapshotRepository) Delete(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete snapshot for %s: %w", userID, err)
	}
	return nil
}
