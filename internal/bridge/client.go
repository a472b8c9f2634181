// Package bridge is the client side of the connection bridge: an external
// HTTP service that performs the actual database connectivity, schema
// discovery and SQL execution on our behalf.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	testTimeout    = 20 * time.Second
	schemaTimeout  = 60 * time.Second
	executeTimeout = 60 * time.Second
)

// Config is the connection descriptor sent to the bridge with every call.
// ConnectionParams carries bridge_url and bridge_api_key plus any opaque
// driver options.
type Config struct {
	SystemType       string
	DBHost           string
	DBPort           int
	DBName           string
	DBUsername       string
	DBPassword       string
	ConnectionParams map[string]interface{}
}

func (c Config) bridgeURL() string {
	if v, ok := c.ConnectionParams["bridge_url"].(string); ok {
		return v
	}
	return ""
}

func (c Config) bridgeAPIKey() string {
	if v, ok := c.ConnectionParams["bridge_api_key"].(string); ok {
		return v
	}
	return ""
}

type TableSchema struct {
	Columns       []string                 `json:"columns"`
	ColumnDetails []map[string]interface{} `json:"column_details,omitempty"`
}

// Result is the uniform envelope every bridge operation returns. Failures
// are reported in-band; no operation surfaces an error to the caller.
type Result struct {
	Success      bool                     `json:"success"`
	Message      string                   `json:"message,omitempty"`
	Data         []map[string]interface{} `json:"data,omitempty"`
	Schema       map[string]TableSchema   `json:"schema,omitempty"`
	TableCount   int                      `json:"table_count,omitempty"`
	RowCount     int                      `json:"row_count,omitempty"`
	AffectedRows int                      `json:"affected_rows,omitempty"`
	Method       string                   `json:"method,omitempty"`
}

type Client struct {
	cfg  Config
	http *resty.Client
}

func NewClient(cfg Config) *Client {
	return &Client{cfg: cfg, http: resty.New()}
}

func (c *Client) TestConnection(ctx context.Context) Result {
	return c.call(ctx, "test", nil, testTimeout)
}

func (c *Client) FetchSchema(ctx context.Context) Result {
	return c.call(ctx, "schema", nil, schemaTimeout)
}

func (c *Client) ExecuteQuery(ctx context.Context, query string) Result {
	return c.call(ctx, "execute", map[string]interface{}{"query": query}, executeTimeout)
}

// call POSTs the connection descriptor to {bridge_url}?action={action}.
// A single attempt, no retries; every failure mode collapses into a
// Result with Success=false.
func (c *Client) call(ctx context.Context, action string, extra map[string]interface{}, timeout time.Duration) Result {
	url := c.cfg.bridgeURL()
	if url == "" {
		return Result{Success: false, Message: "Bridge URL not provided"}
	}
	url = strings.TrimRight(url, "/")

	payload := map[string]interface{}{
		"system_type":       c.cfg.SystemType,
		"db_host":           c.cfg.DBHost,
		"db_port":           c.cfg.DBPort,
		"db_name":           c.cfg.DBName,
		"db_username":       c.cfg.DBUsername,
		"db_password":       c.cfg.DBPassword,
		"connection_params": c.cfg.ConnectionParams,
	}
	for k, v := range extra {
		payload[k] = v
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("action", action).
		SetHeader("Content-Type", "application/json").
		SetBody(payload)
	if key := c.cfg.bridgeAPIKey(); key != "" {
		req.SetHeader("X-API-Key", key)
	}

	resp, err := req.Post(url)
	if err != nil {
		return Result{Success: false, Message: err.Error()}
	}

	var result Result
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return Result{Success: false, Message: fmt.Sprintf("Bridge returned non-json: %s", resp.String())}
	}
	if !resp.IsSuccess() {
		result.Success = false
		if result.Message == "" {
			result.Message = fmt.Sprintf("Bridge returned status %d", resp.StatusCode())
		}
	}
	return result
}
