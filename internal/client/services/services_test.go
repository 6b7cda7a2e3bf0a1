package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qingplan/internal/client/cache"
	"qingplan/internal/client/gate"
	"qingplan/internal/client/models"
	"qingplan/internal/client/remote"
	"qingplan/internal/client/sync"
	"qingplan/internal/logging"
)

var storeSeq atomic.Int64

func setupStore(t *testing.T) *cache.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:servicestest%d?mode=memory&cache=shared", storeSeq.Add(1))
	store, err := cache.Open(context.Background(), dsn)
	require.NoError(t, err)
	store.DB.SetMaxOpenConns(1)
	store.DB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

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

func (s *stubRemote) CreateMany(context.Context, models.Table, []models.Fields) error {
	return nil
}

func (s *stubRemote) DeleteMany(context.Context, models.Table, []string) error { return nil }

func setupEngine(t *testing.T, store *cache.Store) *sync.Engine {
	t.Helper()
	log := discardLogger()
	e := sync.NewEngine("alice", &stubRemote{}, store, gate.NewSession(log), nil, log)
	t.Cleanup(e.Close)
	require.NoError(t, e.Load(context.Background()))
	return e
}

func TestAuthService_AutoStoresSession(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	var gotAction, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth", r.URL.Path)
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotAction, gotUser = req["action"], req["userId"]
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "token": "tok123"})
	}))
	t.Cleanup(srv.Close)

	auth := NewAuthService(srv.URL, store, gate.NewSession(discardLogger()))

	userID, err := auth.Auto(ctx, "  Alice@Example.COM ", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", userID)
	assert.Equal(t, "auto", gotAction)
	assert.Equal(t, "alice@example.com", gotUser)

	current, err := auth.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", current)

	token, err := auth.SessionToken(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "tok123", token)
}

func TestAuthService_RejectedCredentials(t *testing.T) {
	store := setupStore(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"code": 401, "msg": "wrong password"})
	}))
	t.Cleanup(srv.Close)

	auth := NewAuthService(srv.URL, store, gate.NewSession(discardLogger()))
	_, err := auth.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)

	current, err := auth.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Empty(t, current)
}

func TestAuthService_LogoutClearsTokenAndPasswords(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "token": "tok123"})
	}))
	t.Cleanup(srv.Close)

	session := gate.NewSession(discardLogger())
	auth := NewAuthService(srv.URL, store, session)

	_, err := auth.Auto(ctx, "alice", "pw")
	require.NoError(t, err)
	require.NoError(t, auth.Logout(ctx))

	current, err := auth.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Empty(t, current)

	token, err := auth.SessionToken(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestBoardService_GroupsCardsPerColumn(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	board := NewBoardService(setupEngine(t, store), nil)

	todo, err := board.AddColumn(ctx, models.ColumnKindTask, "Todo", "")
	require.NoError(t, err)
	done, err := board.AddColumn(ctx, models.ColumnKindTask, "Done", "")
	require.NoError(t, err)
	_, err = board.AddCard(ctx, todo.ID, "one")
	require.NoError(t, err)
	_, err = board.AddCard(ctx, todo.ID, "two")
	require.NoError(t, err)

	cols, grouped := board.Board(models.ColumnKindTask)
	require.Len(t, cols, 2)
	assert.Len(t, grouped[todo.ID], 2)
	assert.Empty(t, grouped[done.ID])

	ideaCols, _ := board.Board(models.ColumnKindIdea)
	assert.Empty(t, ideaCols)
}

type fakeOptimizer struct{ got string }

func (f *fakeOptimizer) Optimize(_ context.Context, text string) (string, error) {
	f.got = text
	return "improved: " + text, nil
}

func TestBoardService_OptimizeIdeaAddsFlaggedCard(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	opt := &fakeOptimizer{}
	engine := setupEngine(t, store)
	board := NewBoardService(engine, opt)

	col, err := board.AddColumn(ctx, models.ColumnKindIdea, "Sparks", "")
	require.NoError(t, err)
	idea, err := board.AddCard(ctx, col.ID, "rough thought")
	require.NoError(t, err)

	generated, err := board.OptimizeIdea(ctx, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, "rough thought", opt.got)
	assert.Equal(t, "improved: rough thought", generated.Content)
	assert.True(t, generated.IsAIGenerated)

	snap := engine.Snapshot()
	assert.Len(t, snap.Ideas, 2)
}

func TestHTTPOptimizer_ForwardsStoredAPIKey(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	var gotKey, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/optimize", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotKey = req["apiKey"]
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "text": "polished"})
	}))
	t.Cleanup(srv.Close)

	require.NoError(t, store.SaveSession(ctx, "alice", "tok-123"))
	opt := NewHTTPOptimizer(srv.URL, store.Metadata)
	require.NoError(t, opt.SetAPIKey(ctx, "sk-user"))

	out, err := opt.Optimize(ctx, "raw")
	require.NoError(t, err)
	assert.Equal(t, "polished", out)
	assert.Equal(t, "sk-user", gotKey)
	assert.Equal(t, "Bearer tok-123", gotAuth)
}

func TestDocumentService_TreeGroupsByFolder(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	docs := NewDocumentService(setupEngine(t, store))

	folder, err := docs.AddFolder(ctx, "Notes", "")
	require.NoError(t, err)
	_, err = docs.AddDocument(ctx, folder.ID, "Inside", "")
	require.NoError(t, err)
	_, err = docs.AddDocument(ctx, "", "Loose", "")
	require.NoError(t, err)

	folders, grouped := docs.Tree()
	require.Len(t, folders, 1)
	assert.Len(t, grouped[folder.ID], 1)
	assert.Len(t, grouped[""], 1)
}
