// Package rpcclient is the JSON-RPC client used to talk to the mainchain
// node: generic request/response envelope plus multi-upstream failover,
// ported from the teacher's internal/rpc/tos_client.go and
// internal/rpc/upstream.go, with retry driven by cenkalti/backoff/v4
// per original_source's retry-macro-around-RPC pattern (spec.md §9).
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/randomx-labs/p2pool-node/internal/errs"
	"github.com/randomx-labs/p2pool-node/internal/logging"
)

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      uint64      `json:"id"`
}

// Response is a JSON-RPC 2.0 response envelope.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      uint64          `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// node is a single upstream endpoint.
type node struct {
	name    string
	url     string
	client  *http.Client
	reqID   uint64
}

func (n *node) call(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	req := Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      atomic.AddUint64(&n.reqID, 1),
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCodec, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrRpcTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrRpcTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrRpcTransport, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", errs.ErrRpcTransport, resp.StatusCode, string(respBody))
	}

	var rpcResp Response
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCodec, err)
	}
	if rpcResp.Error != nil {
		return nil, rpcResp.Error
	}
	return rpcResp.Result, nil
}

// Client is a JSON-RPC client with multi-upstream failover and retry.
type Client struct {
	nodes     []*node
	activeIdx int32
	maxRetry  int
}

// New constructs a Client over one or more upstream URLs, in priority order.
func New(urls []string, timeout time.Duration) (*Client, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("rpcclient: at least one upstream URL is required")
	}
	c := &Client{maxRetry: 3}
	for i, u := range urls {
		c.nodes = append(c.nodes, &node{
			name:   fmt.Sprintf("upstream-%d", i),
			url:    u,
			client: &http.Client{Timeout: timeout},
		})
	}
	return c, nil
}

// Call invokes method against the active upstream, retrying with backoff
// and failing over to the next upstream in priority order on persistent
// failure. Upstreams carry no health state; each is tried in turn.
func (c *Client) Call(ctx context.Context, method string, params interface{}, result interface{}) error {
	var lastErr error
	for attempt := 0; attempt < len(c.nodes); attempt++ {
		idx := (int(atomic.LoadInt32(&c.activeIdx)) + attempt) % len(c.nodes)
		n := c.nodes[idx]

		raw, err := c.callWithRetry(ctx, n, method, params)
		if err == nil {
			atomic.StoreInt32(&c.activeIdx, int32(idx))
			if result != nil && len(raw) > 0 {
				if err := json.Unmarshal(raw, result); err != nil {
					return fmt.Errorf("%w: %v", errs.ErrCodec, err)
				}
			}
			return nil
		}
		lastErr = err
		logging.Warnf("rpcclient: upstream %s failed for %s: %v", n.name, method, err)
	}
	return fmt.Errorf("%w: all upstreams failed: %v", errs.ErrRpcTransport, lastErr)
}

func (c *Client) callWithRetry(ctx context.Context, n *node, method string, params interface{}) (json.RawMessage, error) {
	var raw json.RawMessage
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetry)), ctx)
	err := backoff.Retry(func() error {
		var callErr error
		raw, callErr = n.call(ctx, method, params)
		return callErr
	}, bo)
	return raw, err
}
