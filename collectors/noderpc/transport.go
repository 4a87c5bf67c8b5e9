package noderpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// maxResponseBytes caps a single response body.
const maxResponseBytes = 1 << 20

// httpTransport issues one POST per call.
type httpTransport struct {
	url    string
	client *http.Client
}

func (t *httpTransport) roundTrip(ctx context.Context, req request) (*response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		var resp response
		// Nodes often report JSON-RPC errors with a non-200 status.
		if json.Unmarshal(data, &resp) == nil && resp.Error != nil {
			return &resp, nil
		}
		return nil, fmt.Errorf("http status %d", httpResp.StatusCode)
	}

	var resp response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("response id %q does not match request id %q", resp.ID, req.ID)
	}
	return &resp, nil
}

func (t *httpTransport) close() error {
	return nil
}

// wsTransport keeps one WebSocket connection open and serializes calls on
// it. Any failure drops the connection; the next call dials again.
type wsTransport struct {
	url    string
	dialer *websocket.Dialer
	logger *slog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSTransport(url string, logger *slog.Logger) *wsTransport {
	return &wsTransport{
		url: url,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

func (t *wsTransport) roundTrip(ctx context.Context, req request) (*response, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	conn, err := t.connLocked(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := t.exchange(ctx, conn, req)
	if err != nil {
		t.dropLocked()
		return nil, err
	}
	return resp, nil
}

func (t *wsTransport) connLocked(ctx context.Context) (*websocket.Conn, error) {
	if t.conn != nil {
		return t.conn, nil
	}
	conn, httpResp, err := t.dialer.DialContext(ctx, t.url, nil)
	if httpResp != nil && httpResp.Body != nil {
		httpResp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", t.url, err)
	}
	conn.SetReadLimit(maxResponseBytes)
	t.logger.Debug("websocket connected", "url", t.url)
	t.conn = conn
	return conn, nil
}

// exchange writes req and reads messages until the matching response.
// Messages with other ids (stale replies, notifications) are skipped.
func (t *wsTransport) exchange(ctx context.Context, conn *websocket.Conn, req request) (*response, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := conn.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	// Cancellation without a deadline still unblocks the read.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	for {
		var resp response
		if err := conn.ReadJSON(&resp); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("read: %w", err)
		}
		if resp.ID == req.ID {
			return &resp, nil
		}
		t.logger.Debug("skipping unmatched websocket message", "id", resp.ID)
	}
}

func (t *wsTransport) dropLocked() {
	if t.conn == nil {
		return
	}
	_ = t.conn.Close()
	t.conn = nil
}

func (t *wsTransport) close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	// Best effort close frame; the node may already be gone.
	_ = t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := t.conn.Close()
	t.conn = nil
	return err
}
