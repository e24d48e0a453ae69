// Package jsonrpc implements the JSON-RPC 2.0 client used to discover and
// invoke tools on the remote tool server over HTTP POST.
package jsonrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/x/slices"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/sqlagent", "jsonrpc")

// Version is the JSON-RPC protocol version.
const Version = "2.0"

// DefaultRequestTimeout bounds a single remote call.
const DefaultRequestTimeout = 30 * time.Second

// Well-known error codes used by the tool server.
const (
	CodeParseError     = -32700
	CodeInvalidParams  = -32602
	CodeMethodNotFound = -32601
	CodeServerError    = -32000
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      string `json:"id"`
}

// Response is a JSON-RPC 2.0 response, carrying either a result or an error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      string          `json:"id"`
}

// Error is the error member of a JSON-RPC 2.0 response.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// HealthStatus is the response of the zero-parameter `health` method.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Client issues JSON-RPC calls to a single configured endpoint.
// Exactly one remote call is made per Call invocation; retries are the
// caller's responsibility.
type Client struct {
	endpoint string
	client   *http.Client
}

// NewClient returns a client for the given endpoint.
// A zero timeout falls back to DefaultRequestTimeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Endpoint returns the configured server endpoint.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Call sends one request with a fresh opaque id and returns the raw result.
// Transport failures, non-2xx statuses, malformed bodies, server-reported
// errors, and a missing result member are all returned as errors.
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if params == nil {
		params = map[string]any{}
	}
	req := Request{
		JSONRPC: Version,
		Method:  method,
		Params:  params,
		ID:      uuid.NewString(),
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	logger.ContextKV(ctx, xlog.DEBUG,
		"method", method,
		"id", req.ID,
	)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to call %s", method)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response body")
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, errors.Newf("server returned status %d: %s",
			httpResp.StatusCode, slices.StringUpto(string(respBody), 256))
	}

	var resp Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, errors.Wrapf(err, "invalid JSON response for %s", method)
	}
	if resp.Error != nil {
		return nil, errors.WithMessagef(resp.Error, "server error for %s", method)
	}
	if resp.Result == nil {
		return nil, errors.New("no result in response")
	}
	return resp.Result, nil
}

// Health calls the zero-parameter `health` method and verifies the reported
// status. It is used as a precondition before tool discovery.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	raw, err := c.Call(ctx, "health", nil)
	if err != nil {
		return nil, err
	}
	var hs HealthStatus
	if err := json.Unmarshal(raw, &hs); err != nil {
		return nil, errors.Wrap(err, "invalid health response")
	}
	if hs.Status != "healthy" {
		return &hs, errors.Newf("server reported status: %s", hs.Status)
	}
	return &hs, nil
}
