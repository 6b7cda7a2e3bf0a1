package services

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"qingplan/internal/client/cache"
)

// Optimizer rewrites an idea into a sharper formulation.
type Optimizer interface {
	Optimize(ctx context.Context, text string) (string, error)
}

// HTTPOptimizer calls the companion server's optimize endpoint, which
// proxies the model provider. An API key stored in the metadata area is
// forwarded so users can bring their own; without one the server falls back
// to its configured key.
type HTTPOptimizer struct {
	http *resty.Client
	meta cache.MetadataRepository
}

func NewHTTPOptimizer(baseURL string, meta cache.MetadataRepository) *HTTPOptimizer {
	return &HTTPOptimizer{http: resty.New().SetBaseURL(baseURL), meta: meta}
}

type optimizeRequest struct {
	Text   string `json:"text"`
	APIKey string `json:"apiKey,omitempty"`
}

type optimizeResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Text string `json:"text"`
}

func (o *HTTPOptimizer) Optimize(ctx context.Context, text string) (string, error) {
	apiKey, err := o.meta.Get(ctx, cache.KeyOptimizeAPIKey)
	if err != nil {
		return "", err
	}
	token, err := o.sessionToken(ctx)
	if err != nil {
		return "", err
	}

	out := &optimizeResponse{}
	req := o.http.R().
		SetContext(ctx).
		SetBody(optimizeRequest{Text: text, APIKey: string(apiKey)}).
		SetResult(out).
		SetError(out)
	if token != "" {
		req.SetAuthToken(token)
	}
	resp, err := req.Post("/api/optimize")
	if err != nil {
		return "", fmt.Errorf("optimize request: %w", err)
	}
	if resp.IsError() || out.Code != 0 {
		return "", fmt.Errorf("optimize rejected: %s", out.Msg)
	}
	return out.Text, nil
}

// sessionToken looks up the current user's stored session token. The
// optimize endpoint requires it; requests without one are rejected.
func (o *HTTPOptimizer) sessionToken(ctx context.Context) (string, error) {
	user, err := o.meta.Get(ctx, cache.KeyCurrentUser)
	if err != nil {
		return "", err
	}
	if len(user) == 0 {
		return "", nil
	}
	token, err := o.meta.Get(ctx, cache.SessionTokenKey(string(user)))
	if err != nil {
		return "", err
	}
	return string(token), nil
}

// SetAPIKey stores (or clears, when empty) the user-provided model API key.
func (o *HTTPOptimizer) SetAPIKey(ctx context.Context, key string) error {
	if key == "" {
		return o.meta.Delete(ctx, cache.KeyOptimizeAPIKey)
	}
	return o.meta.Set(ctx, cache.KeyOptimizeAPIKey, []byte(key))
}
