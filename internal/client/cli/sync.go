package cli

import (
	"context"
	"errors"
	"os"

	"qingplan/internal/common"
)

// SyncNow pushes the full local snapshot remotely, replacing what is there.
func (a *App) SyncNow(ctx context.Context) error {
	if err := a.engine.ReplaceAll(ctx); err != nil {
		if errors.Is(err, common.ErrSyncInProgress) {
			printlnFn("A sync is already running.")
			return nil
		}
		printlnFn("Sync failed:", err.Error())
		return err
	}
	printlnFn("Synced.")
	return nil
}

// RefreshNow pulls the remote state and rebuilds the local snapshot.
func (a *App) RefreshNow(ctx context.Context) error {
	if err := a.engine.Refresh(ctx); err != nil {
		if errors.Is(err, common.ErrSyncInProgress) {
			printlnFn("A sync is already running.")
			return nil
		}
		printlnFn("Refresh failed:", err.Error())
		return err
	}
	printlnFn("Refreshed.")
	return nil
}

// Retry pushes the snapshot parked by a failed offline push, if any.
func (a *App) Retry(ctx context.Context) error {
	if err := a.engine.DrainOffline(ctx); err != nil {
		if errors.Is(err, common.ErrSyncInProgress) {
			printlnFn("A sync is already running.")
			return nil
		}
		printlnFn("Retry failed:", err.Error())
		return err
	}
	printlnFn("Offline queue drained.")
	return nil
}

func (a *App) ShowStatus(ctx context.Context) error {
	printlnFn("Sync status:", string(a.engine.Status()))
	return nil
}

// SetAPIKey stores the personal optimizer key; an empty answer removes it so
// the server falls back to its own key.
func (a *App) SetAPIKey(ctx context.Context) error {
	key, err := getSimpleText(a.reader, "API key (empty to clear)", os.Stdout)
	if err != nil {
		return err
	}
	if err := a.optimizer.SetAPIKey(ctx, key); err != nil {
		printlnFn("Saving key failed:", err.Error())
		return err
	}
	printlnFn("Saved.")
	return nil
}
