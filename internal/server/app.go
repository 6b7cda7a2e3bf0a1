// Package server initializes and runs the companion server: the auth
// endpoint in front of the remote users table, the optimize proxy, and the
// websocket hub that relays data-changed events between a user's sessions.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qingplan/internal/client/models"
	"qingplan/internal/client/remote"
	"qingplan/internal/logging"
	"qingplan/internal/server/auth"
	"qingplan/internal/server/config"
	"qingplan/internal/server/handler"
	"qingplan/internal/server/users"
	"qingplan/internal/server/ws"
)

type App struct {
	config *config.Config
	logger logging.Logger
	srv    *http.Server
}

func NewApp(c *config.Config) *App {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	rem := remote.NewClient(remote.Config{
		BaseURL:   c.RemoteBaseURL,
		AppID:     c.RemoteAppID,
		AppSecret: c.RemoteAppSecret,
		AppToken:  c.RemoteAppToken,
		Tables:    map[models.Table]string{models.TableUsers: c.UsersTableID},
	}, logger)

	userService := users.NewService(rem)
	secret := []byte(c.SecretKey)
	issue := func(userID string) (string, error) {
		return auth.GenerateToken(userID, secret, c.TokenValidityDuration)
	}

	hub := ws.NewHub(logger)

	mux := http.NewServeMux()
	mux.Handle("POST /api/auth", handler.NewAuthHandler(userService, issue, logger))
	mux.Handle("POST /api/optimize", handler.NewOptimizeHandler(
		c.OptimizeEndpoint, c.OptimizeModel, c.OptimizeAPIKey, secret, logger))
	mux.Handle("GET /ws", ws.NewHandler(hub, secret, logger))

	return &App{
		config: c,
		logger: logger,
		srv:    &http.Server{Addr: c.EndpointAddr, Handler: mux},
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting server", "addr", app.config.EndpointAddr)
	app.initSignalHandler(cancelFunc)

	errCh := make(chan error, 1)
	go func() {
		if err := app.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.srv.Shutdown(shutdownCtx)
}
