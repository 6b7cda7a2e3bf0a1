package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"qingplan/internal/client/broadcast"
	"qingplan/internal/client/cache"
	"qingplan/internal/client/config"
	"qingplan/internal/client/gate"
	"qingplan/internal/client/remote"
	"qingplan/internal/client/services"
	"qingplan/internal/client/sync"
	"qingplan/internal/common"
	"qingplan/internal/logging"
)

// App wires the shell to the services. A logged-in session owns one engine;
// logout tears it down together with the in-memory password map.
type App struct {
	config  *config.Config
	log     logging.Logger
	store   *cache.Store
	session *gate.Session
	auth    services.AuthService
	reader  *bufio.Reader

	userID    string
	engine    *sync.Engine
	board     *services.BoardService
	docs      *services.DocumentService
	optimizer *services.HTTPOptimizer
	notifier  *broadcast.Notifier
}

func NewApp(c *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	store, err := cache.Open(ctx, c.CacheDSN)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	session := gate.NewSession(log)

	return &App{
		config:  c,
		log:     log,
		store:   store,
		session: session,
		auth:    services.NewAuthService(c.ServerEndpointAddr, store, session),
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.engine != nil
}

// wsURL derives the hub endpoint from the companion server base URL.
func (a *App) wsURL() string {
	base := a.config.ServerEndpointAddr
	if rest, ok := strings.CutPrefix(base, "https://"); ok {
		return "wss://" + rest + "/ws"
	}
	if rest, ok := strings.CutPrefix(base, "http://"); ok {
		return "ws://" + rest + "/ws"
	}
	return "ws://" + base + "/ws"
}

// startSession builds the per-user engine after a successful login: load
// the cached snapshot, retry anything parked offline, then pull. Pull and
// drain failures leave the session usable; the cache carries it.
func (a *App) startSession(ctx context.Context, userID string) error {
	rem := remote.NewClient(remote.Config{
		BaseURL:   a.config.RemoteBaseURL,
		AppID:     a.config.RemoteAppID,
		AppSecret: a.config.RemoteAppSecret,
		AppToken:  a.config.RemoteAppToken,
		Tables:    a.config.RemoteTables,
	}, a.log)

	var notifier sync.Notifier
	token, err := a.auth.SessionToken(ctx, userID)
	if err == nil && token != "" {
		n, derr := broadcast.Dial(ctx, a.wsURL(), token, func() {
			eng := a.engine
			if eng == nil {
				return
			}
			if err := eng.Refresh(context.Background()); err != nil && !errors.Is(err, common.ErrSyncInProgress) {
				a.log.Warn(context.Background(), "refresh on broadcast failed", "err", err)
			}
		}, a.log)
		if derr != nil {
			a.log.Warn(ctx, "broadcast unavailable", "err", derr)
		} else {
			a.notifier = n
			notifier = n
		}
	}

	engine := sync.NewEngine(userID, rem, a.store, a.session, notifier, a.log)
	engine.SetDebounceDelay(a.config.DebounceDelay)

	if err := engine.Load(ctx); err != nil {
		engine.Close()
		a.endSession()
		return fmt.Errorf("load cache: %w", err)
	}

	a.userID = userID
	a.engine = engine
	a.optimizer = services.NewHTTPOptimizer(a.config.ServerEndpointAddr, a.store.Metadata)
	a.board = services.NewBoardService(engine, a.optimizer)
	a.docs = services.NewDocumentService(engine)

	if err := engine.DrainOffline(ctx); err != nil && !errors.Is(err, common.ErrSyncInProgress) {
		a.log.Warn(ctx, "offline retry failed", "err", err)
	}
	if err := engine.Refresh(ctx); err != nil && !errors.Is(err, common.ErrSyncInProgress) {
		a.log.Warn(ctx, "initial refresh failed", "err", err)
	}
	return nil
}

func (a *App) endSession() {
	if a.notifier != nil {
		a.notifier.Close()
		a.notifier = nil
	}
	if a.engine != nil {
		a.engine.Close()
		a.engine = nil
	}
	a.board = nil
	a.docs = nil
	a.optimizer = nil
	a.userID = ""
}

func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() {
	a.endSession()
	if err := a.store.Close(); err != nil {
		a.log.Warn(context.Background(), "cache close failed", "err", err)
	}
}
