// Package cache is the durable client-side store: the last known-good full
// snapshot per user plus a small metadata key-value area (current-user
// pointer, session tokens, the offline-queue slot, the pre-sync backup
// slot). It is the single source of truth when the remote store is
// unreachable.
package cache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"qingplan/internal/client/cache/migrations"
	"qingplan/internal/dbx"
)

// Store bundles the repositories over one SQLite database.
type Store struct {
	DB        *sql.DB
	Snapshots SnapshotRepository
	Metadata  MetadataRepository
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the cache database at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &Store{
		DB:        db,
		Snapshots: NewSQLiteSnapshotRepository(db),
		Metadata:  NewSQLiteMetadataRepository(db),
	}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// SaveSession stores the current-user pointer and the user's session token
// in one transaction. A crash between the two writes would otherwise leave
// a current user whose token is gone, breaking session resume.
func (s *Store) SaveSession(ctx context.Context, userID, token string) error {
	return dbx.WithTx(ctx, s.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		meta := NewSQLiteMetadataRepository(tx)
		if err := meta.Set(ctx, KeyCurrentUser, []byte(userID)); err != nil {
			return err
		}
		return meta.Set(ctx, SessionTokenKey(userID), []byte(token))
	})
}

// ClearSession removes the pointer and the token together on logout.
func (s *Store) ClearSession(ctx context.Context, userID string) error {
	return dbx.WithTx(ctx, s.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		meta := NewSQLiteMetadataRepository(tx)
		if userID != "" {
			if err := meta.Delete(ctx, SessionTokenKey(userID)); err != nil {
				return err
			}
		}
		return meta.Delete(ctx, KeyCurrentUser)
	})
}
