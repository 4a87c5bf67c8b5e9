// Package noderpc is a minimal JSON-RPC 2.0 client for a Starknet node. It
// exposes the two calls the dashboard needs: sync status and block number.
// HTTP(S) endpoints use one POST per call; WS(S) endpoints keep a single
// connection that is redialed after any failure.
package noderpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"gitlab.com/tinyland/lab/node-pulse/collectors"
)

const (
	methodSyncing     = "starknet_syncing"
	methodBlockNumber = "starknet_blockNumber"
)

// ErrInvalidEndpoint is returned by NewClient for malformed endpoint URLs.
var ErrInvalidEndpoint = errors.New("noderpc: invalid endpoint")

// RPCError is a JSON-RPC error object returned by the node.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// transport sends one request and returns the matching response.
type transport interface {
	roundTrip(ctx context.Context, req request) (*response, error)
	close() error
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for http(s) endpoints.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client talks to a single node endpoint. Calls are safe for concurrent use.
type Client struct {
	endpoint   *url.URL
	httpClient *http.Client
	logger     *slog.Logger
	transport  transport
}

// NewClient validates endpoint and prepares a client. No connection is made
// until the first call.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	u, err := ParseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:   u,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	switch u.Scheme {
	case "ws", "wss":
		c.transport = newWSTransport(u.String(), c.logger)
	default:
		c.transport = &httpTransport{url: u.String(), client: c.httpClient}
	}
	return c, nil
}

// ParseEndpoint checks that endpoint is an absolute http, https, ws or wss
// URL with a host.
func ParseEndpoint(endpoint string) (*url.URL, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("%w: empty url", ErrInvalidEndpoint)
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q in %q", ErrInvalidEndpoint, u.Scheme, endpoint)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host in %q", ErrInvalidEndpoint, endpoint)
	}
	return u, nil
}

// Endpoint returns the validated endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Close releases any persistent connection.
func (c *Client) Close() error {
	return c.transport.close()
}

// call performs one JSON-RPC call and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, out any) error {
	req := request{
		JSONRPC: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  []any{},
	}

	resp, err := c.transport.roundTrip(ctx, req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	if resp.Error != nil {
		return fmt.Errorf("%s: %w", method, resp.Error)
	}
	if len(resp.Result) == 0 {
		return fmt.Errorf("%s: empty result", method)
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}

// syncStatus is the object form of a starknet_syncing result.
type syncStatus struct {
	StartingBlockNum uint64 `json:"starting_block_num"`
	CurrentBlockNum  uint64 `json:"current_block_num"`
	HighestBlockNum  uint64 `json:"highest_block_num"`
}

// Syncing queries the node's sync status. A node that is not syncing
// answers with the literal false.
func (c *Client) Syncing(ctx context.Context) (collectors.SyncState, error) {
	var raw json.RawMessage
	if err := c.call(ctx, methodSyncing, &raw); err != nil {
		return collectors.SyncState{}, err
	}

	var flag bool
	if err := json.Unmarshal(raw, &flag); err == nil {
		if flag {
			return collectors.SyncState{}, fmt.Errorf("%s: unexpected result true", methodSyncing)
		}
		return collectors.NotSyncing, nil
	}

	var status syncStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return collectors.SyncState{}, fmt.Errorf("%s: decode status: %w", methodSyncing, err)
	}
	return collectors.SyncingAt(status.StartingBlockNum, status.CurrentBlockNum, status.HighestBlockNum), nil
}

// BlockNumber queries the latest accepted block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var n uint64
	if err := c.call(ctx, methodBlockNumber, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// Compile-time interface compliance check.
var _ collectors.SyncSource = (*Client)(nil)
