// Package services contains application services for the CLI client: the
// authentication flow against the companion server, board and document
// operations on top of the sync engine, and the idea optimizer.
package services

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"qingplan/internal/client/cache"
	"qingplan/internal/client/gate"
	"qingplan/internal/common"
)

// AuthService authenticates against the companion server and keeps the
// session token in the local metadata area.
//
// Contract:
//   - Auto: one-call flow; the server registers the user when unknown and
//     logs in otherwise.
//   - Check: report whether a user id is already registered.
//   - Login / Register: the explicit variants of Auto.
//   - Logout: drop the session token and wipe the content-password session.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Auto(ctx context.Context, username, password string) (string, error)
	Check(ctx context.Context, username string) (bool, error)
	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (string, error)
	SessionToken(ctx context.Context, userID string) (string, error)
}

type authService struct {
	http    *resty.Client
	store   *cache.Store
	meta    cache.MetadataRepository
	session *gate.Session
}

// NewAuthService constructs an AuthService talking to the companion server
// at baseURL.
func NewAuthService(baseURL string, store *cache.Store, session *gate.Session) AuthService {
	return &authService{
		http:    resty.New().SetBaseURL(baseURL),
		store:   store,
		meta:    store.Metadata,
		session: session,
	}
}

type authRequest struct {
	Action   string `json:"action"`
	UserID   string `json:"userId"`
	Password string `json:"password,omitempty"`
}

type authResponse struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Token  string `json:"token,omitempty"`
	Exists bool   `json:"exists,omitempty"`
}

func (a *authService) call(ctx context.Context, req authRequest) (*authResponse, error) {
	out := &authResponse{}
	resp, err := a.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(out).
		SetError(out).
		Post("/api/auth")
	if err != nil {
		return nil, fmt.Errorf("auth request: %w", err)
	}
	if resp.IsError() || out.Code != 0 {
		if out.Code == 401 {
			return nil, common.ErrInvalidCredential
		}
		return nil, fmt.Errorf("auth rejected: %s", out.Msg)
	}
	return out, nil
}

func (a *authService) authenticate(ctx context.Context, action, username, password string) (string, error) {
	userID := common.NormalizeUserID(username)
	out, err := a.call(ctx, authRequest{Action: action, UserID: userID, Password: password})
	if err != nil {
		return "", err
	}

	if err := a.store.SaveSession(ctx, userID, out.Token); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return userID, nil
}

// Auto logs the user in, registering first when the user id is unknown.
func (a *authService) Auto(ctx context.Context, username, password string) (string, error) {
	return a.authenticate(ctx, "auto", username, password)
}

func (a *authService) Login(ctx context.Context, username, password string) (string, error) {
	return a.authenticate(ctx, "login", username, password)
}

func (a *authService) Register(ctx context.Context, username, password string) (string, error) {
	return a.authenticate(ctx, "register", username, password)
}

// Check reports whether username is already registered, without
// authenticating.
func (a *authService) Check(ctx context.Context, username string) (bool, error) {
	out, err := a.call(ctx, authRequest{Action: "check", UserID: common.NormalizeUserID(username)})
	if err != nil {
		return false, err
	}
	return out.Exists, nil
}

// Logout forgets the session token and every content password held in
// memory. Cached data stays; it is needed for the next offline start.
func (a *authService) Logout(ctx context.Context) error {
	userID, err := a.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if err := a.store.ClearSession(ctx, userID); err != nil {
		return err
	}
	a.session.Clear()
	return nil
}

// CurrentUser returns the last logged-in user id, or "" when nobody is
// logged in.
func (a *authService) CurrentUser(ctx context.Context) (string, error) {
	v, err := a.meta.Get(ctx, cache.KeyCurrentUser)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// SessionToken returns the stored token for userID, or "" when absent.
func (a *authService) SessionToken(ctx context.Context, userID string) (string, error) {
	v, err := a.meta.Get(ctx, cache.SessionTokenKey(userID))
	if err != nil {
		return "", err
	}
	return string(v), nil
}
