package ws

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qingplan/internal/logging"
	"qingplan/internal/server/auth"
)

var testSecret = []byte("test-secret")

func setupHubServer(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	hub := NewHub(log)
	srv := httptest.NewServer(NewHandler(hub, testSecret, log))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dialWS(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	token, err := auth.GenerateToken(userID, testSecret, time.Hour)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_RejectsBadToken(t *testing.T) {
	_, srv := setupHubServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?token=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestHub_FanOutExcludesSenderAndOtherUsers(t *testing.T) {
	hub, srv := setupHubServer(t)

	sender := dialWS(t, srv, "alice")
	sibling := dialWS(t, srv, "alice")
	stranger := dialWS(t, srv, "bob")

	require.Eventually(t, func() bool {
		return hub.Sessions("alice") == 2 && hub.Sessions("bob") == 1
	}, time.Second, 10*time.Millisecond)

	payload := []byte(`{"type":"DATA_CHANGED","userId":"alice"}`)
	require.NoError(t, sender.WriteMessage(websocket.TextMessage, payload))

	sibling.SetReadDeadline(time.Now().Add(time.Second))
	_, got, err := sibling.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Neither the sender nor another user's session hears anything.
	sender.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = sender.ReadMessage()
	assert.Error(t, err)

	stranger.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = stranger.ReadMessage()
	assert.Error(t, err)
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub, srv := setupHubServer(t)

	conn := dialWS(t, srv, "alice")
	require.Eventually(t, func() bool { return hub.Sessions("alice") == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Sessions("alice") == 0 }, time.Second, 10*time.Millisecond)
}
