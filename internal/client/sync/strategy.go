package sync

import (
	"context"
	"fmt"

	"qingplan/internal/client/cache"
	"qingplan/internal/client/models"
)

// Strategy is one remote push plan. Apply performs all remote calls; the
// engine wraps it with the status lifecycle and failure handling.
type Strategy interface {
	Name() string
	Apply(ctx context.Context) error
}

type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// Operation is a single-record change destined for one remote table.
type Operation struct {
	Kind     OpKind
	Table    models.Table
	EntityID string
	RecordID string
	Fields   models.Fields
}

// IncrementalStrategy pushes exactly one record change. Multiple
// incremental pushes for different entities run concurrently; each one
// registers in the engine's inflight counter so pulls defer to it.
type IncrementalStrategy struct {
	engine *Engine
	op     Operation
}

func (s *IncrementalStrategy) Name() string { return "incremental" }

func (s *IncrementalStrategy) Apply(ctx context.Context) error {
	s.engine.inflight.Add(1)
	defer s.engine.inflight.Add(-1)

	switch s.op.Kind {
	case OpCreate:
		recordID, err := s.engine.remote.CreateOne(ctx, s.op.Table, s.op.Fields)
		if err != nil {
			return err
		}
		s.engine.patchRemoteID(ctx, s.op.Table, s.op.EntityID, recordID)
		return nil
	case OpUpdate:
		// An entity without a record id has never reached the remote side;
		// its pending create carries the latest fields already.
		if s.op.RecordID == "" {
			return nil
		}
		return s.engine.remote.UpdateOne(ctx, s.op.Table, s.op.RecordID, s.op.Fields)
	case OpDelete:
		if s.op.RecordID == "" {
			return nil
		}
		return s.engine.remote.DeleteOne(ctx, s.op.Table, s.op.RecordID)
	default:
		return fmt.Errorf("unknown operation kind %q", s.op.Kind)
	}
}

// ReplaceAllStrategy replaces the user's remote rows wholesale: new records
// are created first, old ones deleted only after every create succeeded. A
// crash or failure in between leaves duplicates, never data loss; a retry
// converges because the next replace deletes everything it did not just
// write. The snapshot to push defaults to the engine's current one.
type ReplaceAllStrategy struct {
	engine   *Engine
	snapshot *models.Snapshot
}

func (s *ReplaceAllStrategy) Name() string { return "replace-all" }

func (s *ReplaceAllStrategy) Apply(ctx context.Context) error {
	e := s.engine

	snap := s.snapshot
	if snap == nil {
		snap = e.Snapshot()
	}

	// Park a pre-push copy so a mid-replace crash can be recovered from
	// the local side as well. The parked copy is sealed like any other
	// durable write.
	parked := snap.Clone()
	e.session.EncryptSnapshot(ctx, parked)
	entry := &cache.SlotEntry{UserID: e.userID, Snapshot: parked, Timestamp: e.now()}
	if err := e.backup.Save(ctx, entry); err != nil {
		e.log.Warn(ctx, "backup slot write failed", "err", err)
	}

	old := make(map[models.Table][]string, len(models.SnapshotTables))
	for _, table := range models.SnapshotTables {
		records, err := e.remote.ListByUser(ctx, table, e.userID)
		if err != nil {
			return err
		}
		for _, r := range records {
			old[table] = append(old[table], r.RecordID)
		}
	}

	payload, err := e.outboundTables(ctx, snap, e.now())
	if err != nil {
		return err
	}

	for _, table := range models.SnapshotTables {
		if err := e.remote.CreateMany(ctx, table, payload[table]); err != nil {
			return err
		}
	}
	for _, table := range models.SnapshotTables {
		if err := e.remote.DeleteMany(ctx, table, old[table]); err != nil {
			return err
		}
	}

	if err := s.relinkRecordIDs(ctx); err != nil {
		e.log.Warn(ctx, "record id relink failed", "err", err)
	}
	if err := e.backup.Clear(ctx); err != nil {
		e.log.Warn(ctx, "backup slot clear failed", "err", err)
	}
	return nil
}

// relinkRecordIDs re-reads the freshly written rows and stores their new
// backend record ids into local state, keyed by entity id. Incremental
// updates after a full replace depend on these.
func (s *ReplaceAllStrategy) relinkRecordIDs(ctx context.Context) error {
	e := s.engine

	ids := make(map[models.Table]map[string]string, len(models.SnapshotTables))
	for _, table := range models.SnapshotTables {
		records, err := e.remote.ListByUser(ctx, table, e.userID)
		if err != nil {
			return err
		}
		ids[table] = make(map[string]string, len(records))
		for _, r := range records {
			ids[table][r.Fields.EntityID()] = r.RecordID
		}
	}

	e.mutate(ctx, func(snap *models.Snapshot) {
		relinkColumns := func(cols []models.Column) {
			for i := range cols {
				if rid, ok := ids[models.TableColumns][cols[i].ID]; ok {
					cols[i].RemoteRecordID = rid
				}
			}
		}
		relinkColumns(snap.Columns)
		relinkColumns(snap.IdeaColumns)

		relinkCards := func(table models.Table, cards []models.Card) {
			for i := range cards {
				if rid, ok := ids[table][cards[i].ID]; ok {
					cards[i].RemoteRecordID = rid
				}
			}
		}
		relinkCards(models.TableTasks, snap.Tasks)
		relinkCards(models.TableIdeas, snap.Ideas)

		for i := range snap.DocumentFolders {
			if rid, ok := ids[models.TableDocumentFolders][snap.DocumentFolders[i].ID]; ok {
				snap.DocumentFolders[i].RemoteRecordID = rid
			}
		}
		for i := range snap.Documents {
			if rid, ok := ids[models.TableDocuments][snap.Documents[i].ID]; ok {
				snap.Documents[i].RemoteRecordID = rid
			}
		}
	})
	return nil
}
