package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"qingplan/internal/common"
	"qingplan/internal/logging"
	"qingplan/internal/server/auth"
)

const optimizePrompt = "你是一个想法优化助手。请把下面的想法改写得更清晰、更可执行，保留原意，直接输出改写结果。"

// OptimizeHandler proxies idea optimization to an OpenAI-compatible chat
// completions endpoint. Clients may bring their own API key; otherwise the
// server's configured fallback key is used. The provider key never reaches
// the client.
type OptimizeHandler struct {
	http        *resty.Client
	model       string
	fallbackKey string
	secretKey   []byte
	log         logging.Logger
}

func NewOptimizeHandler(endpoint, model, fallbackKey string, secretKey []byte, log logging.Logger) *OptimizeHandler {
	return &OptimizeHandler{
		http:        resty.New().SetBaseURL(endpoint),
		model:       model,
		fallbackKey: fallbackKey,
		secretKey:   secretKey,
		log:         log,
	}
}

type optimizeRequest struct {
	Text   string `json:"text"`
	APIKey string `json:"apiKey"`
}

type optimizeResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg,omitempty"`
	Text string `json:"text,omitempty"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (h *OptimizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get(common.AuthorizationHeaderName), "Bearer ")
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, optimizeResponse{Code: 401, Msg: "missing token"})
		return
	}
	if _, err := auth.GetUserIDFromToken(token, h.secretKey); err != nil {
		writeJSON(w, http.StatusUnauthorized, optimizeResponse{Code: 401, Msg: "invalid token"})
		return
	}

	var req optimizeRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, optimizeResponse{Code: 400, Msg: "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, optimizeResponse{Code: 400, Msg: "text required"})
		return
	}

	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = h.fallbackKey
	}
	if apiKey == "" {
		writeJSON(w, http.StatusBadRequest, optimizeResponse{Code: 400, Msg: "no API key configured"})
		return
	}

	out := &chatResponse{}
	resp, err := h.http.R().
		SetContext(r.Context()).
		SetAuthToken(apiKey).
		SetBody(chatRequest{
			Model: h.model,
			Messages: []chatMessage{
				{Role: "system", Content: optimizePrompt},
				{Role: "user", Content: req.Text},
			},
		}).
		SetResult(out).
		SetError(out).
		Post("")
	if err != nil {
		h.log.Error(r.Context(), "optimize provider unreachable", "err", err)
		writeJSON(w, http.StatusBadGateway, optimizeResponse{Code: 502, Msg: "provider unreachable"})
		return
	}
	if resp.IsError() || out.Error != nil {
		msg := resp.Status()
		if out.Error != nil {
			msg = out.Error.Message
		}
		h.log.Warn(r.Context(), "optimize provider rejected", "msg", msg)
		writeJSON(w, http.StatusBadGateway, optimizeResponse{Code: 502, Msg: fmt.Sprintf("provider error: %s", msg)})
		return
	}
	if len(out.Choices) == 0 {
		writeJSON(w, http.StatusBadGateway, optimizeResponse{Code: 502, Msg: "empty provider response"})
		return
	}

	writeJSON(w, http.StatusOK, optimizeResponse{Text: out.Choices[0].Message.Content})
}
