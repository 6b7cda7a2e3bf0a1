package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"qingplan/internal/client/models"
)

// SlotEntry is one queued snapshot: the user it belongs to, the full
// snapshot at the moment of failure (or just before a risky sync, for the
// backup slot), and when it was written.
type SlotEntry struct {
	UserID    string           `json:"userId"`
	Snapshot  *models.Snapshot `json:"snapshot"`
	Timestamp int64            `json:"timestamp"`
}

// Slot is a single overwritable snapshot slot in the metadata area.
// A second write replaces the first; only the latest failed snapshot is
// worth retrying.
type Slot struct {
	meta MetadataRepository
	key  string
}

// NewOfflineSlot returns the offline-queue slot: the snapshot to push once
// connectivity returns.
func NewOfflineSlot(meta MetadataRepository) *Slot {
	return &Slot{meta: meta, key: keyOfflineSlot}
}

// NewBackupSlot returns the pre-sync backup slot written before a
// full-snapshot replace, as a manual recovery point.
func NewBackupSlot(meta MetadataRepository) *Slot {
	return &Slot{meta: meta, key: keyBackupSlot}
}

func (s *Slot) Save(ctx context.Context, entry *SlotEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal slot entry: %w", err)
	}
	return s.meta.Set(ctx, s.key, data)
}

// Load returns the queued entry, or nil when the slot is empty.
func (s *Slot) Load(ctx context.Context) (*SlotEntry, error) {
	data, err := s.meta.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	var entry SlotEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("decode slot entry: %w", err)
	}
	return &entry, nil
}

func (s *Slot) Clear(ctx context.Context) error {
	return s.meta.Delete(ctx, s.key)
}
