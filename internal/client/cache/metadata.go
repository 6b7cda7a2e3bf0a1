package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"qingplan/internal/dbx"
)

// Metadata keys. Per-user keys are produced by the helper funcs below.
const (
	KeyCurrentUser    = "currentUser"
	keySessionToken   = "sessionToken:"
	keyOfflineSlot    = "offlineSlot"
	keyBackupSlot     = "backupSlot"
	KeyOptimizeAPIKey = "optimizeApiKey"
)

// SessionTokenKey scopes the session token to a user.
func SessionTokenKey(userID string) string { return keySessionToken + userID }

// MetadataRepository is a small durable KV area next to the snapshots.
type MetadataRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

type SQLiteMetadataRepository struct {
	db dbx.DBTX
}

func NewSQLiteMetadataRepository(db dbx.DBTX) *SQLiteMetadataRepository {
	return &SQLiteMetadataRepository{db: db}
}

// Get returns nil (no error) for a missing key.
func (r *SQLiteMetadataRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata[%s]: %w", key, err)
	}
	return value, nil
}

func (r *SQLiteMetadataRepository) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteMetadataRepository) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete metadata[%s]: %w", key, err)
	}
	return nil
}

func (r *SQLiteMetadataRepository) Clear(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM metadata`)
	if err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}
	return nil
}
