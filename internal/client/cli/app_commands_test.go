package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"qingplan/internal/client/cache"
	"qingplan/internal/client/config"
	"qingplan/internal/client/gate"
	"qingplan/internal/client/models"
	"qingplan/internal/client/remote"
	"qingplan/internal/client/services"
	"qingplan/internal/client/sync"
	"qingplan/internal/logging"
)

var storeSeq atomic.Int64

// stubRemote accepts every call and assigns sequential record ids.
type stubRemote struct{ seq atomic.Int64 }

func (s *stubRemote) ListByUser(context.Context, models.Table, string) ([]remote.Record, error) {
	return nil, nil
}

func (s *stubRemote) CreateOne(context.Context, models.Table, models.Fields) (string, error) {
	return fmt.Sprintf("rec%d", s.seq.Add(1)), nil
}

func (s *stubRemote) UpdateOne(context.Context, models.Table, string, models.Fields) error {
	return nil
}

func (s *stubRemote) DeleteOne(context.Context, models.Table, string) error { return nil }

func (s *stubRemote) CreateMany(context.Context, models.Table, []models.Fields) error { return nil }

func (s *stubRemote) DeleteMany(context.Context, models.Table, []string) error { return nil }

// newTestApp wires a logged-in App over an in-memory cache and a remote stub,
// with user input fed from the given script.
func newTestApp(t *testing.T, input string) *App {
	t.Helper()
	ctx := context.Background()

	dsn := fmt.Sprintf("file:clitest%d?mode=memory&cache=shared", storeSeq.Add(1))
	store, err := cache.Open(ctx, dsn)
	require.NoError(t, err)
	store.DB.SetMaxOpenConns(1)
	store.DB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = store.Close() })

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	session := gate.NewSession(log)

	engine := sync.NewEngine("alice", &stubRemote{}, store, session, nil, log)
	t.Cleanup(engine.Close)
	require.NoError(t, engine.Load(ctx))

	optimizer := services.NewHTTPOptimizer("http://127.0.0.1:0", store.Metadata)
	return &App{
		config:    config.LoadConfig(),
		log:       log,
		store:     store,
		session:   session,
		reader:    bufio.NewReader(strings.NewReader(input)),
		userID:    "alice",
		engine:    engine,
		board:     services.NewBoardService(engine, optimizer),
		docs:      services.NewDocumentService(engine),
		optimizer: optimizer,
	}
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	origPw := getPassword
	getPassword = func(io.Writer, string) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { getPassword = origPw })
}

func TestAppBoardCommands(t *testing.T) {
	silencePrintln(t)
	stubPassword(t, "")

	// AddCard reads the content interactively.
	a := newTestApp(t, "write docs\n\n")
	ctx := context.Background()

	require.NoError(t, a.AddColumn(ctx, models.ColumnKindTask, []string{"Backlog"}))

	snap := a.engine.Snapshot()
	require.Len(t, snap.Columns, 1)
	colID := snap.Columns[0].ID

	require.NoError(t, a.AddCard(ctx, models.ColumnKindTask, []string{colID[:8]}))
	require.NoError(t, a.ToggleDone(ctx, []string{a.cardIDs()[0][:8]}))

	snap = a.engine.Snapshot()
	require.Len(t, snap.Tasks, 1)
	require.Equal(t, "write docs", snap.Tasks[0].Content)
	require.True(t, snap.Tasks[0].Completed)
}

func TestAppUnlockEncryptedColumn(t *testing.T) {
	silencePrintln(t)
	stubPassword(t, "sekret")

	a := newTestApp(t, "secret task\n\n")
	ctx := context.Background()

	require.NoError(t, a.AddColumn(ctx, models.ColumnKindTask, []string{"Private"}))
	snap := a.engine.Snapshot()
	require.True(t, snap.Columns[0].IsEncrypted)

	require.NoError(t, a.AddCard(ctx, models.ColumnKindTask, []string{snap.Columns[0].ID[:8]}))

	// Forget the password, then unlock with the prompt-provided one.
	a.session.Clear()
	require.NoError(t, a.Unlock(ctx, []string{snap.Columns[0].ID[:8]}))
}

func TestAppUnlockWrongPasswordFails(t *testing.T) {
	silencePrintln(t)
	stubPassword(t, "right")

	a := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, a.AddColumn(ctx, models.ColumnKindTask, []string{"Private"}))
	colID := a.engine.Snapshot().Columns[0].ID

	a.session.Clear()
	stubPassword(t, "wrong")
	require.Error(t, a.Unlock(ctx, []string{colID[:8]}))
}

func TestAppDocCommands(t *testing.T) {
	silencePrintln(t)
	stubPassword(t, "")

	// adddoc prompts: title, then optional password (stubbed), then content.
	a := newTestApp(t, "Meeting notes\nagenda item\n\nMeeting notes\nupdated agenda\n\n")
	ctx := context.Background()

	require.NoError(t, a.AddFolder(ctx, []string{"Work"}))
	folderID := a.engine.Snapshot().DocumentFolders[0].ID

	require.NoError(t, a.AddDocument(ctx, []string{folderID[:8]}))

	snap := a.engine.Snapshot()
	require.Len(t, snap.Documents, 1)
	require.Equal(t, "Meeting notes", snap.Documents[0].Title)
	require.Equal(t, "agenda item", snap.Documents[0].Content)

	require.NoError(t, a.EditDocument(ctx, []string{snap.Documents[0].ID[:8]}))
	snap = a.engine.Snapshot()
	require.Equal(t, "updated agenda", snap.Documents[0].Content)

	require.NoError(t, a.DeleteFolder(ctx, []string{folderID[:8]}))
	snap = a.engine.Snapshot()
	require.Empty(t, snap.Documents)
	require.Empty(t, snap.DocumentFolders)
}
