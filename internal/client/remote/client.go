// Package remote implements the thin client for the hosted table service
// that acts as the datastore: named logical tables of free-form records,
// authenticated with a short-lived bearer token obtained from the service's
// token endpoint.
//
// The token cache is owned by the client instance and guarded by a mutex;
// no package-level state. Bulk reads auto-paginate, bulk writes are chunked
// at the backend's batch cap.
package remote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"qingplan/internal/client/models"
	"qingplan/internal/logging"
)

const (
	// batchSize is the backend's cap on records per physical batch call.
	batchSize = 500

	// tokenRefreshSkew refreshes the cached token this long before its
	// actual expiry, so in-flight requests never ride an expiring token.
	tokenRefreshSkew = 5 * time.Minute

	pageSize = 500
)

// Record is one row of a logical table: the backend-assigned record id plus
// the free-form field map.
type Record struct {
	RecordID string
	Fields   models.Fields
}

// TableClient is the surface the sync engine and services depend on. The
// concrete implementation is *Client; tests substitute fakes.
type TableClient interface {
	ListByUser(ctx context.Context, table models.Table, userID string) ([]Record, error)
	CreateOne(ctx context.Context, table models.Table, fields models.Fields) (string, error)
	UpdateOne(ctx context.Context, table models.Table, recordID string, fields models.Fields) error
	DeleteOne(ctx context.Context, table models.Table, recordID string) error
	CreateMany(ctx context.Context, table models.Table, fields []models.Fields) error
	DeleteMany(ctx context.Context, table models.Table, recordIDs []string) error
}

// Config carries the backend coordinates: the API base URL, the app
// credentials exchanged for bearer tokens, the datastore app token, and the
// mapping from logical table names to physical table ids.
type Config struct {
	BaseURL   string
	AppID     string
	AppSecret string
	AppToken  string
	Tables    map[models.Table]string
}

// Client is the concrete TableClient over HTTP.
type Client struct {
	http *resty.Client
	cfg  Config
	log  logging.Logger

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

var _ TableClient = (*Client)(nil)

func NewClient(cfg Config, log logging.Logger) *Client {
	httpc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(30 * time.Second)
	return &Client{http: httpc, cfg: cfg, log: log}
}

type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

type tokenResponse struct {
	envelope
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int64  `json:"expire"`
}

// accessToken returns a valid bearer token, fetching a fresh one when the
// cached token has less than tokenRefreshSkew of validity left. Transient
// token-endpoint failures are retried with capped exponential backoff;
// a backend-reported error code is terminal.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExpiry) > tokenRefreshSkew {
		return c.token, nil
	}

	var tr tokenResponse
	op := func() error {
		resp, err := c.http.R().
			SetContext(ctx).
			SetBody(map[string]string{"app_id": c.cfg.AppID, "app_secret": c.cfg.AppSecret}).
			SetResult(&tr).
			Post("/auth/v3/tenant_access_token/internal")
		if err != nil {
			return err
		}
		if resp.IsError() {
			return fmt.Errorf("token endpoint status %s", resp.Status())
		}
		if tr.Code != 0 {
			return backoff.Permanent(&APIError{Code: tr.Code, Msg: tr.Msg})
		}
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return "", fmt.Errorf("acquire access token: %w", err)
	}

	c.token = tr.TenantAccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tr.Expire) * time.Second)
	c.log.Debug(ctx, "access token refreshed", "expiry", c.tokenExpiry)
	return c.token, nil
}

func (c *Client) tableID(table models.Table) (string, error) {
	id, ok := c.cfg.Tables[table]
	if !ok {
		return "", fmt.Errorf("no physical table configured for %q", table)
	}
	return id, nil
}

func (c *Client) recordsPath(table models.Table) (string, error) {
	id, err := c.tableID(table)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/bitable/v1/apps/%s/tables/%s/records", c.cfg.AppToken, id), nil
}

// request builds an authenticated request. The result pointer must embed
// envelope so backend error codes surface uniformly.
func (c *Client) request(ctx context.Context, result any) (*resty.Request, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	return c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(result), nil
}

func checkResponse(resp *resty.Response, env *envelope) error {
	if resp.IsError() {
		return fmt.Errorf("table api status %s", resp.Status())
	}
	if env.Code != 0 {
		return &APIError{Code: env.Code, Msg: env.Msg}
	}
	return nil
}

type recordItem struct {
	RecordID string        `json:"record_id"`
	Fields   models.Fields `json:"fields"`
}

type listResponse struct {
	envelope
	Data struct {
		HasMore   bool         `json:"has_more"`
		PageToken string       `json:"page_token"`
		Items     []recordItem `json:"items"`
	} `json:"data"`
}

// ListByUser reads every record of the user from the logical table,
// following continuation tokens until the backend reports no more pages.
func (c *Client) ListByUser(ctx context.Context, table models.Table, userID string) ([]Record, error) {
	path, err := c.recordsPath(table)
	if err != nil {
		return nil, err
	}

	filter := fmt.Sprintf(`CurrentValue.[userId]="%s"`, userID)

	var out []Record
	pageToken := ""
	for {
		var lr listResponse
		req, err := c.request(ctx, &lr)
		if err != nil {
			return nil, err
		}
		req.SetQueryParam("filter", filter)
		req.SetQueryParam("page_size", fmt.Sprint(pageSize))
		if pageToken != "" {
			req.SetQueryParam("page_token", pageToken)
		}

		resp, err := req.Get(path)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", table, err)
		}
		if err := checkResponse(resp, &lr.envelope); err != nil {
			return nil, fmt.Errorf("list %s: %w", table, err)
		}

		for _, item := range lr.Data.Items {
			out = append(out, Record{RecordID: item.RecordID, Fields: item.Fields})
		}
		if !lr.Data.HasMore || lr.Data.PageToken == "" {
			return out, nil
		}
		pageToken = lr.Data.PageToken
	}
}

type createOneResponse struct {
	envelope
	Data struct {
		Record recordItem `json:"record"`
	} `json:"data"`
}

// CreateOne inserts a single record and returns the backend-assigned
// record id.
func (c *Client) CreateOne(ctx context.Context, table models.Table, fields models.Fields) (string, error) {
	path, err := c.recordsPath(table)
	if err != nil {
		return "", err
	}

	var cr createOneResponse
	req, err := c.request(ctx, &cr)
	if err != nil {
		return "", err
	}
	resp, err := req.SetBody(map[string]any{"fields": fields}).Post(path)
	if err != nil {
		return "", fmt.Errorf("create in %s: %w", table, err)
	}
	if err := checkResponse(resp, &cr.envelope); err != nil {
		return "", fmt.Errorf("create in %s: %w", table, err)
	}
	return cr.Data.Record.RecordID, nil
}

// UpdateOne overwrites the fields of an existing record.
func (c *Client) UpdateOne(ctx context.Context, table models.Table, recordID string, fields models.Fields) error {
	path, err := c.recordsPath(table)
	if err != nil {
		return err
	}

	var env envelope
	req, err := c.request(ctx, &env)
	if err != nil {
		return err
	}
	resp, err := req.SetBody(map[string]any{"fields": fields}).Put(path + "/" + recordID)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", table, recordID, err)
	}
	if err := checkResponse(resp, &env); err != nil {
		return fmt.Errorf("update %s/%s: %w", table, recordID, err)
	}
	return nil
}

// DeleteOne removes a single record by backend record id.
func (c *Client) DeleteOne(ctx context.Context, table models.Table, recordID string) error {
	path, err := c.recordsPath(table)
	if err != nil {
		return err
	}

	var env envelope
	req, err := c.request(ctx, &env)
	if err != nil {
		return err
	}
	resp, err := req.Delete(path + "/" + recordID)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", table, recordID, err)
	}
	if err := checkResponse(resp, &env); err != nil {
		return fmt.Errorf("delete %s/%s: %w", table, recordID, err)
	}
	return nil
}

// CreateMany inserts records in chunks of batchSize per physical call.
func (c *Client) CreateMany(ctx context.Context, table models.Table, fields []models.Fields) error {
	path, err := c.recordsPath(table)
	if err != nil {
		return err
	}

	for start := 0; start < len(fields); start += batchSize {
		end := min(start+batchSize, len(fields))

		records := make([]map[string]any, 0, end-start)
		for _, f := range fields[start:end] {
			records = append(records, map[string]any{"fields": f})
		}

		var env envelope
		req, err := c.request(ctx, &env)
		if err != nil {
			return err
		}
		resp, err := req.SetBody(map[string]any{"records": records}).Post(path + "/batch_create")
		if err != nil {
			return fmt.Errorf("batch create in %s: %w", table, err)
		}
		if err := checkResponse(resp, &env); err != nil {
			return fmt.Errorf("batch create in %s: %w", table, err)
		}
	}
	return nil
}

// DeleteMany removes records in chunks of batchSize per physical call.
func (c *Client) DeleteMany(ctx context.Context, table models.Table, recordIDs []string) error {
	path, err := c.recordsPath(table)
	if err != nil {
		return err
	}

	for start := 0; start < len(recordIDs); start += batchSize {
		end := min(start+batchSize, len(recordIDs))

		var env envelope
		req, err := c.request(ctx, &env)
		if err != nil {
			return err
		}
		resp, err := req.SetBody(map[string]any{"records": recordIDs[start:end]}).Post(path + "/batch_delete")
		if err != nil {
			return fmt.Errorf("batch delete in %s: %w", table, err)
		}
		if err := checkResponse(resp, &env); err != nil {
			return fmt.Errorf("batch delete in %s: %w", table, err)
		}
	}
	return nil
}
