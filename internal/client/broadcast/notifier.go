// Package broadcast connects sibling sessions of one user. After a
// successful push the engine publishes a data-changed event; other
// instances receive it and pull. Delivery is best-effort over a websocket
// to the companion server; every failure mode degrades to "no events", and
// correctness never depends on an event arriving.
package broadcast

import (
	"context"
	"net/http"
	stdsync "sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"qingplan/internal/common"
	"qingplan/internal/logging"
)

const TypeDataChanged = "DATA_CHANGED"

const (
	writeWait        = 10 * time.Second
	maxReconnectWait = 2 * time.Minute
)

// Message is the wire shape of one event.
type Message struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// Notifier holds one websocket to the companion hub. It reconnects with
// exponential backoff after a drop and stops for good on Close.
type Notifier struct {
	url       string
	token     string
	onRefresh func()
	log       logging.Logger

	mu     stdsync.Mutex
	conn   *websocket.Conn
	closed bool
}

// Dial opens the hub connection and starts the receive loop. onRefresh runs
// on the receive goroutine for every data-changed event; it is expected to
// tolerate being called while a sync is in progress.
func Dial(ctx context.Context, url, token string, onRefresh func(), log logging.Logger) (*Notifier, error) {
	n := &Notifier{
		url:       url,
		token:     token,
		onRefresh: onRefresh,
		log:       log,
	}
	conn, err := n.dial(ctx)
	if err != nil {
		return nil, err
	}
	n.conn = conn
	go n.readLoop()
	return n, nil
}

func (n *Notifier) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if n.token != "" {
		header.Set(common.AuthorizationHeaderName, "Bearer "+n.token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, n.url, header)
	return conn, err
}

// DataChanged publishes an event for userID. Losing the write is fine; the
// connection is torn down and the read loop reconnects.
func (n *Notifier) DataChanged(userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed || n.conn == nil {
		return
	}

	n.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := n.conn.WriteJSON(Message{Type: TypeDataChanged, UserID: userID}); err != nil {
		n.log.Warn(context.Background(), "broadcast publish failed", "err", err)
		n.conn.Close()
	}
}

func (n *Notifier) readLoop() {
	for {
		n.mu.Lock()
		conn, closed := n.conn, n.closed
		n.mu.Unlock()
		if closed {
			return
		}

		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !n.reconnect() {
				return
			}
			continue
		}

		if msg.Type == TypeDataChanged && n.onRefresh != nil {
			n.onRefresh()
		}
	}
}

// reconnect replaces the dropped connection, waiting exponentially longer
// between attempts. Returns false once the notifier is closed.
func (n *Notifier) reconnect() bool {
	bo := backoff.NewExponentialBackOff()
	bo.MaxInterval = maxReconnectWait
	bo.MaxElapsedTime = 0

	for {
		n.mu.Lock()
		if n.closed {
			n.mu.Unlock()
			return false
		}
		n.mu.Unlock()

		conn, err := n.dial(context.Background())
		if err == nil {
			n.mu.Lock()
			if n.closed {
				n.mu.Unlock()
				conn.Close()
				return false
			}
			n.conn = conn
			n.mu.Unlock()
			return true
		}

		wait := bo.NextBackOff()
		n.log.Warn(context.Background(), "broadcast reconnect failed", "err", err, "retry_in", wait)
		time.Sleep(wait)
	}
}

// Close tears the connection down and stops reconnecting.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	if n.conn != nil {
		n.conn.Close()
	}
}
