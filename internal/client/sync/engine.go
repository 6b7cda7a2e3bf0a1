// Package sync implements the engine governing when and how local
// mutations reach the remote table store, and when remote state is pulled
// back.
//
// Every mutation applies to in-memory state synchronously and is written to
// the durable local cache before any network call begins; the caller never
// blocks on the network. Remote writes go through one of two named
// strategies: incremental (one mutation, one remote call) or full-snapshot
// replace-then-delete (reorders and bulk pushes). Failed pushes park the
// current snapshot in a single overwritable offline slot, drained on login
// or explicit retry.
package sync

import (
	"context"
	"errors"
	stdsync "sync"
	"sync/atomic"
	"time"

	"qingplan/internal/client/cache"
	"qingplan/internal/client/gate"
	"qingplan/internal/client/models"
	"qingplan/internal/client/remote"
	"qingplan/internal/common"
	"qingplan/internal/logging"
)

// Notifier tells sibling instances of the same user session that remote
// data changed. Delivery is best-effort; correctness never depends on it.
type Notifier interface {
	DataChanged(userID string)
}

type noopNotifier struct{}

func (noopNotifier) DataChanged(string) {}

// Engine orchestrates sync for one user session.
type Engine struct {
	userID   string
	remote   remote.TableClient
	store    *cache.Store
	session  *gate.Session
	notifier Notifier
	log      logging.Logger

	debounce *Debouncer
	offline  *cache.Slot
	backup   *cache.Slot

	// now is a test seam for syncVersion timestamps.
	now func() int64

	mu   stdsync.Mutex
	snap *models.Snapshot

	// guard gives full-snapshot pushes, pulls and offline drains mutual
	// exclusion (the saving/refreshing exclusion); entry points that cannot
	// take it return without doing work. Incremental ops instead count
	// themselves in inflight so pulls can defer to mid-flight writes.
	guard    stdsync.Mutex
	inflight atomic.Int64

	statusMu stdsync.Mutex
	status   Status
	onStatus func(Status)
}

func NewEngine(userID string, rem remote.TableClient, store *cache.Store, session *gate.Session, notifier Notifier, log logging.Logger) *Engine {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Engine{
		userID:   userID,
		remote:   rem,
		store:    store,
		session:  session,
		notifier: notifier,
		log:      log,
		debounce: NewDebouncer(DefaultDebounceDelay),
		offline:  cache.NewOfflineSlot(store.Metadata),
		backup:   cache.NewBackupSlot(store.Metadata),
		now:      func() int64 { return time.Now().UnixMilli() },
		snap:     &models.Snapshot{},
		status:   StatusIdle,
	}
}

// SetDebounceDelay replaces the debounce window. Pending timers are
// cancelled.
func (e *Engine) SetDebounceDelay(d time.Duration) {
	e.debounce.Stop()
	e.debounce = NewDebouncer(d)
}

// OnStatusChange registers the single status observer (the UI's status
// icon). Racing transitions resolve last-status-wins.
func (e *Engine) OnStatusChange(fn func(Status)) {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	e.onStatus = fn
}

// Status returns the current sync status.
func (e *Engine) Status() Status {
	e.statusMu.Lock()
	defer e.statusMu.Unlock()
	return e.status
}

func (e *Engine) setStatus(s Status) {
	e.statusMu.Lock()
	changed := e.status != s
	e.status = s
	fn := e.onStatus
	e.statusMu.Unlock()

	if changed && fn != nil {
		fn(s)
	}
}

// Load restores the last locally applied state from the cache. A user never
// cached before starts from an empty snapshot.
func (e *Engine) Load(ctx context.Context) error {
	snap, err := e.store.Snapshots.Load(ctx, e.userID)
	if errors.Is(err, common.ErrorNotFound) {
		snap = &models.Snapshot{}
	} else if err != nil {
		return err
	}

	e.session.DecryptSnapshot(ctx, snap)

	e.mu.Lock()
	e.snap = snap
	e.mu.Unlock()
	return nil
}

// Snapshot returns a deep copy of the current in-memory state for reading.
func (e *Engine) Snapshot() *models.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snap.Clone()
}

// Session exposes the gate session (unlock flows live in the services).
func (e *Engine) Session() *gate.Session {
	return e.session
}

// mutate applies fn to the in-memory snapshot under lock, persists the
// result to the durable cache, and returns a clone taken inside the same
// critical section. A cache write failure is logged, not propagated: the
// in-memory state is already authoritative for this session.
func (e *Engine) mutate(ctx context.Context, fn func(*models.Snapshot)) *models.Snapshot {
	e.mu.Lock()
	fn(e.snap)
	snap := e.snap.Clone()
	e.mu.Unlock()

	e.persist(ctx, snap)
	return snap
}

// persist writes a snapshot to the durable cache. Decrypted fields of
// unlocked encrypted owners are sealed back to their tagged blobs on a
// separate clone first: the in-memory state stays decrypted, but nothing
// the cache holds outlives the session's password map in plaintext.
func (e *Engine) persist(ctx context.Context, snap *models.Snapshot) {
	sealed := snap.Clone()
	e.session.EncryptSnapshot(ctx, sealed)
	if err := e.store.Snapshots.Save(ctx, e.userID, sealed); err != nil {
		e.log.Error(ctx, "cache write failed", "err", err)
	}
}

// patchRemoteID stores the backend record id assigned by the first
// successful create back into local state.
func (e *Engine) patchRemoteID(ctx context.Context, table models.Table, entityID, recordID string) {
	e.mutate(ctx, func(s *models.Snapshot) {
		switch table {
		case models.TableColumns:
			if col, ok := s.ColumnByID(entityID); ok {
				col.RemoteRecordID = recordID
			}
		case models.TableTasks:
			for i := range s.Tasks {
				if s.Tasks[i].ID == entityID {
					s.Tasks[i].RemoteRecordID = recordID
				}
			}
		case models.TableIdeas:
			for i := range s.Ideas {
				if s.Ideas[i].ID == entityID {
					s.Ideas[i].RemoteRecordID = recordID
				}
			}
		case models.TableDocuments:
			for i := range s.Documents {
				if s.Documents[i].ID == entityID {
					s.Documents[i].RemoteRecordID = recordID
				}
			}
		case models.TableDocumentFolders:
			if f, ok := s.FolderByID(entityID); ok {
				f.RemoteRecordID = recordID
			}
		}
	})
}

// run executes a push strategy with the status lifecycle around it.
func (e *Engine) run(ctx context.Context, s Strategy) error {
	e.setStatus(StatusSyncing)
	if err := s.Apply(ctx); err != nil {
		e.handleFailure(ctx, err)
		return err
	}
	e.setStatus(StatusSynced)
	e.notifier.DataChanged(e.userID)
	return nil
}

// runOps executes a sequence of incremental operations under one status
// lifecycle. Used by single-mutation pushes and by cascade deletes.
func (e *Engine) runOps(ctx context.Context, ops []Operation) error {
	e.setStatus(StatusSyncing)
	for _, op := range ops {
		s := &IncrementalStrategy{engine: e, op: op}
		if err := s.Apply(ctx); err != nil {
			e.handleFailure(ctx, err)
			return err
		}
	}
	e.setStatus(StatusSynced)
	e.notifier.DataChanged(e.userID)
	return nil
}

// pushLater schedules a debounced incremental push for one entity. build
// runs at fire time against then-current state and may report there is
// nothing left to push.
func (e *Engine) pushLater(entityID string, build func(ctx context.Context) (Operation, bool)) {
	e.debounce.Trigger(entityID, func() {
		ctx := context.Background()
		op, ok := build(ctx)
		if !ok {
			return
		}
		if err := e.runOps(ctx, []Operation{op}); err != nil {
			e.log.Warn(ctx, "debounced sync failed", "entity", entityID, "err", err)
		}
	})
}

// handleFailure classifies a push failure. A backend-reported error keeps
// the remote reachable, so the status flips to error without queueing; a
// transport failure flips to offline and parks the current snapshot in the
// offline slot (overwriting whatever was queued before: last-write-wins).
func (e *Engine) handleFailure(ctx context.Context, err error) {
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) {
		e.log.Warn(ctx, "sync rejected by backend", "code", apiErr.Code, "msg", apiErr.Msg)
		e.setStatus(StatusError)
		return
	}

	e.log.Warn(ctx, "sync failed, queueing offline snapshot", "err", err)
	queued := e.Snapshot()
	e.session.EncryptSnapshot(ctx, queued)
	entry := &cache.SlotEntry{
		UserID:    e.userID,
		Snapshot:  queued,
		Timestamp: e.now(),
	}
	if serr := e.offline.Save(ctx, entry); serr != nil {
		e.log.Error(ctx, "offline slot write failed", "err", serr)
	}
	e.setStatus(StatusOffline)
}

// ReplaceAll pushes the entire current snapshot with the replace-then-delete
// strategy. Skipped (ErrSyncInProgress) while another full-snapshot
// operation or a pull holds the guard.
func (e *Engine) ReplaceAll(ctx context.Context) error {
	if !e.guard.TryLock() {
		return common.ErrSyncInProgress
	}
	defer e.guard.Unlock()
	return e.run(ctx, &ReplaceAllStrategy{engine: e})
}

// Refresh pulls remote state into memory and the cache. Suppressed while a
// save or another pull is in progress, including incremental writes still
// in flight, so a pull never overwrites data racing through the wire.
// A pull failure does not touch the offline slot: there is nothing new to
// queue.
func (e *Engine) Refresh(ctx context.Context) error {
	if e.inflight.Load() > 0 {
		return common.ErrSyncInProgress
	}
	if !e.guard.TryLock() {
		return common.ErrSyncInProgress
	}
	defer e.guard.Unlock()

	e.setStatus(StatusSyncing)
	snap, err := e.pull(ctx)
	if err != nil {
		var apiErr *remote.APIError
		if errors.As(err, &apiErr) {
			e.setStatus(StatusError)
		} else {
			e.setStatus(StatusOffline)
		}
		return err
	}

	e.session.DecryptSnapshot(ctx, snap)

	e.mu.Lock()
	e.snap = snap
	e.mu.Unlock()
	e.persist(ctx, snap)

	e.setStatus(StatusSynced)
	return nil
}

// DrainOffline retries the queued offline snapshot, if any. On success the
// slot is cleared; on another failure the slot is left exactly as it was.
// It still represents the latest failed snapshot, and only a newer failure
// may overwrite it.
func (e *Engine) DrainOffline(ctx context.Context) error {
	if !e.guard.TryLock() {
		return common.ErrSyncInProgress
	}
	defer e.guard.Unlock()

	entry, err := e.offline.Load(ctx)
	if err != nil {
		return err
	}
	if entry == nil || entry.UserID != e.userID {
		return nil
	}

	e.setStatus(StatusSyncing)
	s := &ReplaceAllStrategy{engine: e, snapshot: entry.Snapshot}
	if err := s.Apply(ctx); err != nil {
		var apiErr *remote.APIError
		if errors.As(err, &apiErr) {
			e.setStatus(StatusError)
		} else {
			e.setStatus(StatusOffline)
		}
		return err
	}

	if err := e.offline.Clear(ctx); err != nil {
		e.log.Error(ctx, "offline slot clear failed", "err", err)
	}
	e.setStatus(StatusSynced)
	e.notifier.DataChanged(e.userID)
	return nil
}

// Close fires pending debounced pushes immediately and cancels the timers,
// so an edit made just before exit still reaches the remote. In-flight
// calls complete; their status flips resolve last-status-wins.
func (e *Engine) Close() {
	e.debounce.FlushAll()
	e.debounce.Stop()
}
