package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qingplan/internal/client/models"
	"qingplan/internal/client/remote"
	"qingplan/internal/cryptox"
	"qingplan/internal/logging"
	"qingplan/internal/server/users"
)

// memoryRemote stores user rows in memory behind the TableClient interface.
type memoryRemote struct {
	seq  int
	rows map[string]models.Fields
}

func newMemoryRemote() *memoryRemote {
	return &memoryRemote{rows: map[string]models.Fields{}}
}

func (m *memoryRemote) ListByUser(_ context.Context, _ models.Table, userID string) ([]remote.Record, error) {
	var out []remote.Record
	for id, fields := range m.rows {
		if fields["userId"] == userID {
			out = append(out, remote.Record{RecordID: id, Fields: fields})
		}
	}
	return out, nil
}

func (m *memoryRemote) CreateOne(_ context.Context, _ models.Table, fields models.Fields) (string, error) {
	m.seq++
	id := fmt.Sprintf("rec%d", m.seq)
	m.rows[id] = fields
	return id, nil
}

func (m *memoryRemote) UpdateOne(context.Context, models.Table, string, models.Fields) error {
	return nil
}

func (m *memoryRemote) DeleteOne(context.Context, models.Table, string) error { return nil }

func (m *memoryRemote) CreateMany(context.Context, models.Table, []models.Fields) error {
	return nil
}

func (m *memoryRemote) DeleteMany(context.Context, models.Table, []string) error { return nil }

func setupAuthHandler(t *testing.T) (*AuthHandler, *memoryRemote) {
	t.Helper()
	rem := newMemoryRemote()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	issue := func(userID string) (string, error) { return "token-for-" + userID, nil }
	return NewAuthHandler(users.NewService(rem), issue, log), rem
}

func postAuth(t *testing.T, h http.Handler, body map[string]string) (*httptest.ResponseRecorder, authResponse) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/auth", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out authResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return rec, out
}

func TestAuthHandler_AutoRegistersUnknownUser(t *testing.T) {
	h, rem := setupAuthHandler(t)

	rec, out := postAuth(t, h, map[string]string{"action": "auto", "userId": " Alice ", "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "token-for-alice", out.Token)

	require.Len(t, rem.rows, 1)
	for _, fields := range rem.rows {
		assert.Equal(t, "alice", fields["userId"])
		hash, _ := fields["passwordHash"].(string)
		assert.True(t, cryptox.VerifyPassword("pw", hash))
		assert.NotContains(t, hash, "pw")
	}
}

func TestAuthHandler_AutoLogsInKnownUser(t *testing.T) {
	h, rem := setupAuthHandler(t)

	_, _ = postAuth(t, h, map[string]string{"action": "auto", "userId": "alice", "password": "pw"})
	require.Len(t, rem.rows, 1)

	rec, out := postAuth(t, h, map[string]string{"action": "auto", "userId": "alice", "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, out.Token)
	assert.Len(t, rem.rows, 1)

	rec, out = postAuth(t, h, map[string]string{"action": "auto", "userId": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, 401, out.Code)
	assert.Empty(t, out.Token)
}

func TestAuthHandler_Check(t *testing.T) {
	h, _ := setupAuthHandler(t)

	_, out := postAuth(t, h, map[string]string{"action": "check", "userId": "alice"})
	assert.False(t, out.Exists)

	_, _ = postAuth(t, h, map[string]string{"action": "register", "userId": "alice", "password": "pw"})

	_, out = postAuth(t, h, map[string]string{"action": "check", "userId": "alice"})
	assert.True(t, out.Exists)
}

func TestAuthHandler_RegisterTwiceRejected(t *testing.T) {
	h, _ := setupAuthHandler(t)

	rec, _ := postAuth(t, h, map[string]string{"action": "register", "userId": "alice", "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = postAuth(t, h, map[string]string{"action": "register", "userId": "alice", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_BadRequests(t *testing.T) {
	h, _ := setupAuthHandler(t)

	rec, _ := postAuth(t, h, map[string]string{"action": "auto"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = postAuth(t, h, map[string]string{"action": "frobnicate", "userId": "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
