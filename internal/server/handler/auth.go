// Package handler holds the companion server's HTTP handlers.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"qingplan/internal/common"
	"qingplan/internal/logging"
	"qingplan/internal/server/users"
)

type AuthHandler struct {
	users *users.Service
	issue func(userID string) (string, error)
	log   logging.Logger
}

func NewAuthHandler(us *users.Service, issue func(userID string) (string, error), log logging.Logger) *AuthHandler {
	return &AuthHandler{users: us, issue: issue, log: log}
}

type authRequest struct {
	Action   string `json:"action"`
	UserID   string `json:"userId"`
	Password string `json:"password"`
}

type authResponse struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg,omitempty"`
	Token  string `json:"token,omitempty"`
	Exists bool   `json:"exists,omitempty"`
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// ServeHTTP handles the four auth actions: check (existence probe, no
// authentication), login, register, and auto (register when unknown, login
// otherwise).
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, authResponse{Code: 400, Msg: "invalid request body"})
		return
	}

	userID := common.NormalizeUserID(req.UserID)
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, authResponse{Code: 400, Msg: "userId required"})
		return
	}

	ctx := r.Context()

	switch req.Action {
	case "check":
		_, err := h.users.Find(ctx, userID)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			h.log.Error(ctx, "user lookup failed", "err", err)
			writeJSON(w, http.StatusBadGateway, authResponse{Code: 502, Msg: "user store unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, authResponse{Exists: err == nil})
		return

	case "login":
		if err := h.users.Authenticate(ctx, userID, req.Password); err != nil {
			h.rejectAuth(ctx, w, err)
			return
		}
	case "register":
		if err := h.users.Register(ctx, userID, req.Password); err != nil {
			h.rejectAuth(ctx, w, err)
			return
		}
	case "auto":
		created, err := h.users.Resolve(ctx, userID, req.Password)
		if err != nil {
			h.rejectAuth(ctx, w, err)
			return
		}
		if created {
			h.log.Info(ctx, "user registered", "user", userID)
		}
	default:
		writeJSON(w, http.StatusBadRequest, authResponse{Code: 400, Msg: "unknown action"})
		return
	}

	token, err := h.issue(userID)
	if err != nil {
		h.log.Error(ctx, "token issue failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, authResponse{Code: 500, Msg: "token issue failed"})
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token})
}

func (h *AuthHandler) rejectAuth(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, common.ErrInvalidCredential) {
		writeJSON(w, http.StatusUnauthorized, authResponse{Code: 401, Msg: "invalid credentials"})
		return
	}
	h.log.Error(ctx, "auth failed", "err", err)
	writeJSON(w, http.StatusBadGateway, authResponse{Code: 502, Msg: "user store unavailable"})
}
